package service

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethaccount/recovery/src/domain"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
)

// mockECDSASignature is a well formed 65 byte signature that recovers to some
// address, so bundlers can simulate validation before the real signature exists.
var mockECDSASignature = hexutil.MustDecode("0xfffffffffffffffffffffffffffffff0000000000000000000000000000000007aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa1c")

// ECDSAValidator signs for an account whose validator module checks a
// personal_sign signature of a single owner key.
type ECDSAValidator struct {
	module common.Address
	key    *ecdsa.PrivateKey
}

func NewECDSAValidator(module common.Address, key *ecdsa.PrivateKey) *ECDSAValidator {
	return &ECDSAValidator{module: module, key: key}
}

func (v *ECDSAValidator) Address() common.Address {
	return v.module
}

func (v *ECDSAValidator) Owner() common.Address {
	return crypto.PubkeyToAddress(v.key.PublicKey)
}

func (v *ECDSAValidator) MockSignature() []byte {
	return common.CopyBytes(mockECDSASignature)
}

func (v *ECDSAValidator) SignMessage(_ context.Context, hash common.Hash, _ domain.Account) ([]byte, error) {
	signature, err := crypto.Sign(accounts.TextHash(hash.Bytes()), v.key)
	if err != nil {
		return nil, err
	}
	// recovery id + 27
	signature[crypto.RecoveryIDOffset] += 27
	return signature, nil
}

// SignerKeyStore persists the owner key between runs.
type SignerKeyStore interface {
	GetSignerKey(ctx context.Context) (string, error)
	// SaveSignerKey stores key unless one exists and returns the stored key.
	SaveSignerKey(ctx context.Context, key string) (string, error)
}

var ErrInvalidSignerKey = errors.New("invalid signer key")

// LoadSignerKey returns the configured key when set, otherwise the stored key,
// generating and storing one on first use.
func LoadSignerKey(ctx context.Context, store SignerKeyStore, configured string) (*ecdsa.PrivateKey, error) {
	logger := zerolog.Ctx(ctx).With().Str("function", "LoadSignerKey").Logger()

	if configured != "" {
		return parseSignerKey(configured)
	}

	stored, err := store.GetSignerKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read signer key: %w", err)
	}
	if stored != "" {
		return parseSignerKey(stored)
	}

	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate signer key: %w", err)
	}
	stored, err = store.SaveSignerKey(ctx, hexutil.Encode(crypto.FromECDSA(key)))
	if err != nil {
		return nil, fmt.Errorf("failed to store signer key: %w", err)
	}

	parsed, err := parseSignerKey(stored)
	if err != nil {
		return nil, err
	}
	logger.Info().
		Str("owner", crypto.PubkeyToAddress(parsed.PublicKey).Hex()).
		Msg("generated signer key")
	return parsed, nil
}

func parseSignerKey(raw string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(raw, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignerKey, err)
	}
	return key, nil
}
