package erc4337

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const entryPointABI = `[
	{"type":"function","name":"getNonce","stateMutability":"view",
	 "inputs":[{"name":"sender","type":"address"},{"name":"key","type":"uint192"}],
	 "outputs":[{"name":"nonce","type":"uint256"}]}
]`

var entryPoint = mustParseABI(entryPointABI)

// NonceKeySize is the width of the 2D nonce key in bytes.
const NonceKeySize = 24

// NonceKey derives the nonce key of a validator module: its address right
// padded to 24 bytes. Each validator gets its own nonce sequence.
func NonceKey(validator common.Address) *big.Int {
	return new(big.Int).SetBytes(common.RightPadBytes(validator.Bytes(), NonceKeySize))
}

// EntryPoint reads nonces from an EntryPoint deployment.
type EntryPoint struct {
	address common.Address
	caller  ethereum.ContractCaller
}

func NewEntryPoint(address common.Address, caller ethereum.ContractCaller) *EntryPoint {
	return &EntryPoint{address: address, caller: caller}
}

func (e *EntryPoint) Address() common.Address {
	return e.address
}

// GetNonce returns the next nonce of sender in the sequence identified by key.
func (e *EntryPoint) GetNonce(ctx context.Context, sender common.Address, key *big.Int) (*big.Int, error) {
	input, err := entryPoint.Pack("getNonce", sender, key)
	if err != nil {
		return nil, fmt.Errorf("failed to pack getNonce: %w", err)
	}

	output, err := e.caller.CallContract(ctx, ethereum.CallMsg{To: &e.address, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call getNonce: %w", err)
	}

	values, err := entryPoint.Unpack("getNonce", output)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack getNonce: %w", err)
	}
	return values[0].(*big.Int), nil
}

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

func mustNewType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}
