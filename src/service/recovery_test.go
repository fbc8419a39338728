package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ethaccount/recovery/erc4337"
	"github.com/ethaccount/recovery/erc7579"
	"github.com/ethaccount/recovery/safe7579"
	"github.com/ethaccount/recovery/src/domain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testGuardian = common.HexToAddress("0x39A67aFa3b68589a65F43c24FEaDD24df4Bb74e7")

type fakePipelineProvider struct {
	pipeline *UserOperationService
	err      error
}

func (f *fakePipelineProvider) Pipeline(_ context.Context, _ int64) (*UserOperationService, error) {
	return f.pipeline, f.err
}

func TestRecoveryExecutions(t *testing.T) {
	config := safe7579.NewRecoveryConfig([]common.Address{testGuardian})

	executions, err := RecoveryExecutions(testNetwork, testSender, config)
	require.NoError(t, err)
	require.Len(t, executions, 4)

	adapter := testNetwork.Contracts.Safe7579
	tests := []struct {
		target   common.Address
		selector string
	}{
		{testSender, "0x610b5925"},
		{testSender, "0xf08a0323"},
		{adapter, "0x540fb4f9"},
		{adapter, "0x9517e29f"},
	}
	for i, tt := range tests {
		assert.Equal(t, tt.target, executions[i].Target, "execution %d target", i)
		assert.Equal(t, tt.selector, hexutil.Encode(executions[i].CallData[:4]), "execution %d selector", i)
		assert.Zero(t, executions[i].Value.Sign())
	}

	// both module arguments point at the adapter
	assert.Equal(t, common.LeftPadBytes(adapter.Bytes(), 32), executions[0].CallData[4:36])
	assert.Equal(t, common.LeftPadBytes(adapter.Bytes(), 32), executions[1].CallData[4:36])

	installData, err := config.InstallData()
	require.NoError(t, err)
	expectedInstall, err := erc7579.InstallModule(erc7579.ModuleTypeExecutor, testNetwork.Contracts.EmailRecoveryModule, installData)
	require.NoError(t, err)
	assert.Equal(t, expectedInstall, executions[3].CallData)
}

func TestRecoveryExecutions_Errors(t *testing.T) {
	noModule := testNetwork
	noModule.Contracts.EmailRecoveryModule = common.Address{}

	tests := []struct {
		name    string
		network domain.Network
		config  safe7579.RecoveryConfig
		errName string
	}{
		{"no recovery module", noModule, safe7579.NewRecoveryConfig([]common.Address{testGuardian}), "NOT_IMPLEMENTED"},
		{"no guardians", testNetwork, safe7579.NewRecoveryConfig(nil), "PARAMETER_INVALID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			executions, err := RecoveryExecutions(tt.network, testSender, tt.config)
			assert.Nil(t, executions)
			assertDomainError(t, err, tt.errName)
		})
	}
}

func TestRecoveryService_EnableRecovery(t *testing.T) {
	key, err := crypto.HexToECDSA(testSignerKey[2:])
	require.NoError(t, err)
	f := newPipelineFixture(true)
	service := NewRecoveryService(&fakePipelineProvider{pipeline: f.service}, key)

	result, err := service.EnableRecovery(context.Background(), EnableRecoveryRequest{
		ChainID:  testNetwork.ChainID,
		Account:  domain.Account{Address: testSender},
		Recovery: safe7579.NewRecoveryConfig([]common.Address{testGuardian}),
	})
	require.NoError(t, err)

	assert.Equal(t, f.bundler.hash, result.UserOpHash)
	assert.Equal(t, testSender, result.Sender)
	assert.Equal(t, testNetwork.Contracts.OwnableValidator, result.Validator)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), result.Owner)

	require.Len(t, f.nonces.keys, 1)
	assert.Equal(t, 0, f.nonces.keys[0].Cmp(erc4337.NonceKey(testNetwork.Contracts.OwnableValidator)))

	require.Len(t, f.bundler.sentOps, 1)
	mode, executions, err := erc7579.Decode(f.bundler.sentOps[0].CallData)
	require.NoError(t, err)
	assert.Equal(t, erc7579.CallTypeBatch, mode)
	assert.Len(t, executions, 4)
	assert.Len(t, f.bundler.sentOps[0].Signature, crypto.SignatureLength)
	assert.Equal(t, []common.Hash{f.bundler.hash}, f.journal.records)
}

func TestRecoveryService_PipelineUnavailable(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	cause := domain.NewError(domain.ErrorCodeParameterInvalid, errors.New("unsupported chain id: 1"))
	service := NewRecoveryService(&fakePipelineProvider{err: cause}, key)

	result, err := service.EnableRecovery(context.Background(), EnableRecoveryRequest{ChainID: 1})
	assert.Nil(t, result)
	assertDomainError(t, err, "PARAMETER_INVALID")
}

func TestRecoveryService_InstalledCheck(t *testing.T) {
	selector := "0x112d3a7d"
	cause := errors.New("connection refused")

	tests := []struct {
		name     string
		deployed bool
		output   []byte
		callErr  error
		errName  string
		calls    int
		sent     int
	}{
		{name: "already installed", deployed: true, output: common.LeftPadBytes([]byte{0x01}, 32), errName: "PARAMETER_INVALID", calls: 1},
		{name: "not installed", deployed: true, output: make([]byte, 32), calls: 1, sent: 1},
		{name: "adapter not enabled yet", deployed: true, output: nil, calls: 1, sent: 1},
		{name: "undeployed account", deployed: false, sent: 1},
		{name: "node unreachable", deployed: true, callErr: cause, errName: "REMOTE_PROCESS_ERROR", calls: 1},
		{name: "malformed answer", deployed: true, output: []byte{0x01}, errName: "REMOTE_PROCESS_ERROR", calls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := crypto.HexToECDSA(testSignerKey[2:])
			require.NoError(t, err)
			f := newPipelineFixture(tt.deployed)
			f.caller.responses = map[string][]byte{selector: tt.output}
			f.caller.errs = map[string]error{selector: tt.callErr}
			service := NewRecoveryService(&fakePipelineProvider{pipeline: f.service}, key)

			account := domain.Account{Address: testSender}
			if !tt.deployed {
				account.InitCode = append(testNetwork.Contracts.SafeProxyFactory.Bytes(), 0xde, 0xad)
			}
			result, err := service.EnableRecovery(context.Background(), EnableRecoveryRequest{
				ChainID:  testNetwork.ChainID,
				Account:  account,
				Recovery: safe7579.NewRecoveryConfig([]common.Address{testGuardian}),
			})

			require.Len(t, f.caller.calls, tt.calls)
			if tt.calls > 0 {
				assert.Equal(t, testSender, *f.caller.calls[0].To)
				assert.Equal(t, selector, hexutil.Encode(f.caller.calls[0].Data[:4]))
				assert.Equal(t, testNetwork.Contracts.EmailRecoveryModule, common.BytesToAddress(f.caller.calls[0].Data[36:68]))
			}
			assert.Len(t, f.bundler.sentOps, tt.sent)

			if tt.errName != "" {
				assert.Nil(t, result)
				assertDomainError(t, err, tt.errName)
				if tt.errName == "PARAMETER_INVALID" {
					assert.ErrorIs(t, err, ErrRecoveryInstalled)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, f.bundler.hash, result.UserOpHash)
		})
	}
}
