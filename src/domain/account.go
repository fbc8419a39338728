package domain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Account is the sender of a user operation. InitCode is only used while the
// account has no code on chain.
type Account struct {
	Address  common.Address
	InitCode []byte
}

// Validator is the account module that authorizes user operations. Its address
// scopes the nonce sequence and its mock signature has the byte length of a
// real one so bundlers can estimate verification gas.
type Validator interface {
	Address() common.Address
	MockSignature() []byte
	SignMessage(ctx context.Context, hash common.Hash, account Account) ([]byte, error)
}
