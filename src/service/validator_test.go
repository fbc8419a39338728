package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ethaccount/recovery/src/domain"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSignerKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func TestECDSAValidator_SignMessage(t *testing.T) {
	key, err := crypto.HexToECDSA(testSignerKey[2:])
	require.NoError(t, err)
	validator := NewECDSAValidator(testNetwork.Contracts.OwnableValidator, key)
	hash := common.HexToHash("0x0102030405060708091011121314151617181920212223242526272829303132")

	signature, err := validator.SignMessage(context.Background(), hash, domain.Account{Address: testSender})
	require.NoError(t, err)
	require.Len(t, signature, crypto.SignatureLength)
	assert.Contains(t, []byte{27, 28}, signature[crypto.RecoveryIDOffset])

	recoverable := common.CopyBytes(signature)
	recoverable[crypto.RecoveryIDOffset] -= 27
	pub, err := crypto.SigToPub(accounts.TextHash(hash.Bytes()), recoverable)
	require.NoError(t, err)

	assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), crypto.PubkeyToAddress(*pub))
	assert.Equal(t, validator.Owner(), crypto.PubkeyToAddress(*pub))
	assert.Equal(t, testNetwork.Contracts.OwnableValidator, validator.Address())
}

func TestECDSAValidator_MockSignature(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	validator := NewECDSAValidator(testNetwork.Contracts.OwnableValidator, key)

	mock := validator.MockSignature()
	assert.Len(t, mock, crypto.SignatureLength)

	mock[0] = 0x00
	assert.Equal(t, byte(0xff), validator.MockSignature()[0], "mock signature must be copied")
}

type fakeKeyStore struct {
	stored  string
	getErr  error
	saveErr error
	saves   int
}

func (f *fakeKeyStore) GetSignerKey(_ context.Context) (string, error) {
	return f.stored, f.getErr
}

func (f *fakeKeyStore) SaveSignerKey(_ context.Context, key string) (string, error) {
	f.saves++
	if f.saveErr != nil {
		return "", f.saveErr
	}
	if f.stored == "" {
		f.stored = key
	}
	return f.stored, nil
}

func TestLoadSignerKey(t *testing.T) {
	expectedOwner := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

	t.Run("configured key wins", func(t *testing.T) {
		store := &fakeKeyStore{stored: "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"}
		key, err := LoadSignerKey(context.Background(), store, testSignerKey)
		require.NoError(t, err)
		assert.Equal(t, expectedOwner, crypto.PubkeyToAddress(key.PublicKey))
		assert.Zero(t, store.saves)
	})

	t.Run("stored key", func(t *testing.T) {
		store := &fakeKeyStore{stored: testSignerKey[2:]}
		key, err := LoadSignerKey(context.Background(), store, "")
		require.NoError(t, err)
		assert.Equal(t, expectedOwner, crypto.PubkeyToAddress(key.PublicKey))
		assert.Zero(t, store.saves)
	})

	t.Run("generated once", func(t *testing.T) {
		store := &fakeKeyStore{}
		first, err := LoadSignerKey(context.Background(), store, "")
		require.NoError(t, err)
		assert.Equal(t, 1, store.saves)
		assert.Equal(t, hexutil.Encode(crypto.FromECDSA(first)), store.stored)

		second, err := LoadSignerKey(context.Background(), store, "")
		require.NoError(t, err)
		assert.Equal(t, 1, store.saves)
		assert.True(t, first.Equal(second))
	})

	t.Run("invalid configured key", func(t *testing.T) {
		_, err := LoadSignerKey(context.Background(), &fakeKeyStore{}, "0xnothex")
		assert.ErrorIs(t, err, ErrInvalidSignerKey)
	})

	t.Run("store failure", func(t *testing.T) {
		cause := errors.New("redis unavailable")
		_, err := LoadSignerKey(context.Background(), &fakeKeyStore{getErr: cause}, "")
		assert.ErrorIs(t, err, cause)
	})
}
