package erc4337

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCaller struct {
	msg    ethereum.CallMsg
	output []byte
	err    error
}

func (s *stubCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	s.msg = msg
	return s.output, s.err
}

func TestNonceKey(t *testing.T) {
	tests := []struct {
		name      string
		validator common.Address
		expected  string
	}{
		{
			name:      "ownable validator",
			validator: common.HexToAddress("0x2483DA3A338895199E5e538530213157e931Bf06"),
			expected:  "0x2483da3a338895199e5e538530213157e931bf0600000000",
		},
		{
			name:      "zero address",
			validator: common.Address{},
			expected:  "0x0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := NonceKey(tt.validator)
			assert.Equal(t, tt.expected, hexutil.EncodeBig(key))
			assert.LessOrEqual(t, key.BitLen(), NonceKeySize*8)
		})
	}

	a := NonceKey(common.HexToAddress("0x2483DA3A338895199E5e538530213157e931Bf06"))
	b := NonceKey(common.HexToAddress("0x0000000000E9E6E96Bcaa3c113187CdB7E38AED9"))
	assert.NotEqual(t, 0, a.Cmp(b))
}

func TestEntryPoint_GetNonce(t *testing.T) {
	sender := common.HexToAddress("0x1234567890123456789012345678901234567890")
	validator := common.HexToAddress("0x2483DA3A338895199E5e538530213157e931Bf06")

	caller := &stubCaller{output: common.LeftPadBytes(big.NewInt(7).Bytes(), 32)}
	ep := NewEntryPoint(EntryPointV07, caller)

	nonce, err := ep.GetNonce(context.Background(), sender, NonceKey(validator))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7), nonce)

	require.NotNil(t, caller.msg.To)
	assert.Equal(t, EntryPointV07, *caller.msg.To)
	expected := hexutil.MustDecode("0x35567e1a" +
		"0000000000000000000000001234567890123456789012345678901234567890" +
		"00000000000000002483da3a338895199e5e538530213157e931bf0600000000")
	assert.Equal(t, expected, caller.msg.Data)
}

func TestEntryPoint_GetNonceFailure(t *testing.T) {
	rpcErr := errors.New("connection refused")
	ep := NewEntryPoint(EntryPointV07, &stubCaller{err: rpcErr})

	_, err := ep.GetNonce(context.Background(), common.Address{}, big.NewInt(0))
	assert.ErrorIs(t, err, rpcErr)

	ep = NewEntryPoint(EntryPointV07, &stubCaller{output: []byte{}})
	_, err = ep.GetNonce(context.Background(), common.Address{}, big.NewInt(0))
	assert.Error(t, err)
}
