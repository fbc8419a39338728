package service

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethaccount/recovery/erc7579"
	"github.com/ethaccount/recovery/safe7579"
	"github.com/ethaccount/recovery/src/domain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

var ErrRecoveryInstalled = errors.New("email recovery module is already installed")

// PipelineProvider hands out the user operation pipeline of a network.
type PipelineProvider interface {
	Pipeline(ctx context.Context, chainId int64) (*UserOperationService, error)
}

type EnableRecoveryRequest struct {
	ChainID  int64
	Account  domain.Account
	Recovery safe7579.RecoveryConfig
}

type EnableRecoveryResult struct {
	UserOpHash common.Hash    `json:"userOpHash"`
	Sender     common.Address `json:"sender"`
	Validator  common.Address `json:"validator"`
	Owner      common.Address `json:"owner"`
}

// RecoveryService installs the email recovery executor on a Safe through the
// Safe7579 adapter, signing with the server owner key.
type RecoveryService struct {
	pipelines PipelineProvider
	signer    *ecdsa.PrivateKey
}

func NewRecoveryService(pipelines PipelineProvider, signer *ecdsa.PrivateKey) *RecoveryService {
	return &RecoveryService{pipelines: pipelines, signer: signer}
}

// logger wraps the execution context with component info
func (s *RecoveryService) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("service", "recovery").Logger()
	return &l
}

// RecoveryExecutions returns the batch that enables the adapter on the Safe
// and installs the recovery module as an executor. Order matters: the adapter
// must be a module and the fallback handler before it can be initialized.
func RecoveryExecutions(network domain.Network, account common.Address, config safe7579.RecoveryConfig) ([]erc7579.Execution, error) {
	contracts := network.Contracts
	if contracts.Safe7579 == (common.Address{}) || contracts.EmailRecoveryModule == (common.Address{}) {
		return nil, domain.NewError(domain.ErrorCodeNotImplemented,
			fmt.Errorf("network %d has no safe7579 adapter or recovery module configured", network.ChainID))
	}

	installData, err := config.InstallData()
	if err != nil {
		return nil, domain.NewError(domain.ErrorCodeParameterInvalid, err)
	}

	enableModule, err := safe7579.EnableModule(contracts.Safe7579)
	if err != nil {
		return nil, err
	}
	setFallback, err := safe7579.SetFallbackHandler(contracts.Safe7579)
	if err != nil {
		return nil, err
	}
	recoveryModule := erc7579.ModuleInit{Module: contracts.EmailRecoveryModule, InitData: installData}
	initialize, err := safe7579.InitializeAccount(nil, []erc7579.ModuleInit{recoveryModule}, nil, nil,
		safe7579.RegistryConfig{Registry: contracts.Registry})
	if err != nil {
		return nil, err
	}
	install, err := erc7579.InstallModule(erc7579.ModuleTypeExecutor, contracts.EmailRecoveryModule, installData)
	if err != nil {
		return nil, err
	}

	zero := new(big.Int)
	return []erc7579.Execution{
		{Target: account, Value: zero, CallData: enableModule},
		{Target: account, Value: zero, CallData: setFallback},
		{Target: contracts.Safe7579, Value: zero, CallData: initialize},
		{Target: contracts.Safe7579, Value: zero, CallData: install},
	}, nil
}

func (s *RecoveryService) EnableRecovery(ctx context.Context, req EnableRecoveryRequest) (*EnableRecoveryResult, error) {
	pipeline, err := s.pipelines.Pipeline(ctx, req.ChainID)
	if err != nil {
		return nil, err
	}
	network := pipeline.Network()

	executions, err := RecoveryExecutions(network, req.Account.Address, req.Recovery)
	if err != nil {
		return nil, err
	}

	installed, err := pipeline.IsModuleInstalled(ctx, req.Account.Address, erc7579.ModuleTypeExecutor, network.Contracts.EmailRecoveryModule)
	if err != nil {
		return nil, err
	}
	if installed {
		return nil, domain.NewError(domain.ErrorCodeParameterInvalid, ErrRecoveryInstalled,
			domain.WithMsg("Email recovery is already enabled on this account"))
	}

	validator := NewECDSAValidator(network.Contracts.OwnableValidator, s.signer)

	s.logger(ctx).Info().
		Int64("chain_id", req.ChainID).
		Str("account", req.Account.Address.Hex()).
		Int("guardians", len(req.Recovery.Guardians)).
		Msg("enabling email recovery")

	hash, err := pipeline.Execute(ctx, executions, req.Account, validator)
	if err != nil {
		return nil, err
	}

	return &EnableRecoveryResult{
		UserOpHash: hash,
		Sender:     req.Account.Address,
		Validator:  validator.Address(),
		Owner:      validator.Owner(),
	}, nil
}
