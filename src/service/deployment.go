package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethaccount/recovery/erc7579"
	"github.com/ethaccount/recovery/safe7579"
	"github.com/ethaccount/recovery/src/domain"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog"
)

var ErrDeploymentUnavailable = errors.New("account deployment is not configured for this network")

// DeploymentRequest describes a new Safe7579 account: its owners, its modules
// and the execution run atomically by its first user operation.
type DeploymentRequest struct {
	SaltNonce        *big.Int
	Safe             safe7579.SafeConfig
	Validators       []erc7579.ModuleInit
	Executors        []erc7579.ModuleInit
	Fallbacks        []erc7579.ModuleInit
	Hooks            []erc7579.ModuleInit
	Registry         safe7579.RegistryConfig
	InitialExecution erc7579.Execution
}

// AccountPlan is everything the first user operation of a new account needs.
type AccountPlan struct {
	Address     common.Address `json:"address"`
	InitCode    hexutil.Bytes  `json:"initCode"`
	Factory     common.Address `json:"factory"`
	FactoryData hexutil.Bytes  `json:"factoryData"`
	CallData    hexutil.Bytes  `json:"callData"`
	InitHash    common.Hash    `json:"initHash"`
	SaltNonce   *hexutil.Big   `json:"saltNonce"`
}

func (p *AccountPlan) Account() domain.Account {
	return domain.Account{Address: p.Address, InitCode: common.CopyBytes(p.InitCode)}
}

// DeploymentPlanner derives the counterfactual address and deployment payload
// of a Safe7579 account. The address is computed locally with CREATE2; only
// the launchpad's InitData hash is read from chain.
type DeploymentPlanner struct {
	network domain.Network
	caller  ethereum.ContractCaller
}

func NewDeploymentPlanner(network domain.Network, caller ethereum.ContractCaller) *DeploymentPlanner {
	return &DeploymentPlanner{network: network, caller: caller}
}

// logger wraps the execution context with component info
func (p *DeploymentPlanner) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().
		Str("service", "deployment").
		Int64("chain_id", p.network.ChainID).
		Logger()
	return &l
}

func (p *DeploymentPlanner) Plan(ctx context.Context, req DeploymentRequest) (*AccountPlan, error) {
	if missing := p.network.MissingDeploymentContracts(); len(missing) > 0 {
		return nil, domain.NewError(domain.ErrorCodeNotImplemented,
			fmt.Errorf("%w: missing %s", ErrDeploymentUnavailable, strings.Join(missing, ", ")))
	}
	if err := req.Safe.Validate(); err != nil {
		return nil, domain.NewError(domain.ErrorCodeParameterInvalid, err)
	}
	saltNonce := req.SaltNonce
	if saltNonce == nil {
		saltNonce = new(big.Int)
	}
	contracts := p.network.Contracts
	registry := req.Registry
	if registry.Registry == (common.Address{}) {
		registry.Registry = contracts.Registry
	}

	setupData, err := safe7579.InitSafe7579(contracts.Safe7579, req.Executors, req.Fallbacks, req.Hooks, registry)
	if err != nil {
		return nil, domain.NewError(domain.ErrorCodeParameterInvalid, err)
	}
	initialCall, err := erc7579.Encode([]erc7579.Execution{req.InitialExecution})
	if err != nil {
		return nil, domain.NewError(domain.ErrorCodeParameterInvalid, err)
	}

	initData := safe7579.InitData{
		Singleton:  contracts.SafeSingleton,
		Owners:     req.Safe.Owners,
		Threshold:  new(big.Int).SetUint64(req.Safe.Threshold),
		SetupTo:    contracts.Safe7579Launchpad,
		SetupData:  setupData,
		Safe7579:   contracts.Safe7579,
		Validators: req.Validators,
		CallData:   initialCall,
	}

	initHash, err := p.launchpadHash(ctx, initData)
	if err != nil {
		return nil, err
	}

	factoryInitializer, err := safe7579.PreValidationSetup(initHash, common.Address{}, nil)
	if err != nil {
		return nil, domain.NewError(domain.ErrorCodeInternalProcess, err)
	}

	creationCode, err := p.proxyCreationCode(ctx)
	if err != nil {
		return nil, err
	}

	factoryData, err := safe7579.CreateProxyWithNonce(contracts.Safe7579Launchpad, factoryInitializer, saltNonce)
	if err != nil {
		return nil, domain.NewError(domain.ErrorCodeInternalProcess, err)
	}

	callData, err := safe7579.SetupSafe(initData)
	if err != nil {
		return nil, domain.NewError(domain.ErrorCodeInternalProcess, err)
	}

	address := safe7579.ProxyAddress(contracts.SafeProxyFactory, contracts.Safe7579Launchpad, creationCode, factoryInitializer, saltNonce)

	p.logger(ctx).Debug().
		Str("address", address.Hex()).
		Str("init_hash", initHash.Hex()).
		Str("salt_nonce", saltNonce.String()).
		Msg("planned account deployment")

	return &AccountPlan{
		Address:     address,
		InitCode:    append(contracts.SafeProxyFactory.Bytes(), factoryData...),
		Factory:     contracts.SafeProxyFactory,
		FactoryData: factoryData,
		CallData:    callData,
		InitHash:    initHash,
		SaltNonce:   (*hexutil.Big)(new(big.Int).Set(saltNonce)),
	}, nil
}

func (p *DeploymentPlanner) launchpadHash(ctx context.Context, initData safe7579.InitData) (common.Hash, error) {
	input, err := safe7579.LaunchpadHash(initData)
	if err != nil {
		return common.Hash{}, domain.NewError(domain.ErrorCodeParameterInvalid, err)
	}

	launchpad := p.network.Contracts.Safe7579Launchpad
	output, err := p.caller.CallContract(ctx, ethereum.CallMsg{To: &launchpad, Data: input}, nil)
	if err != nil {
		p.logger(ctx).Error().Err(err).
			Str("launchpad", launchpad.Hex()).
			Msg("failed to read launchpad init hash")
		return common.Hash{}, domain.NewError(domain.ErrorCodeRemoteProcessError, fmt.Errorf("failed to read init hash: %w", err))
	}

	hash, err := safe7579.UnpackLaunchpadHash(output)
	if err != nil {
		return common.Hash{}, domain.NewError(domain.ErrorCodeRemoteProcessError, err)
	}
	return hash, nil
}

func (p *DeploymentPlanner) proxyCreationCode(ctx context.Context) ([]byte, error) {
	if len(p.network.Contracts.SafeProxyCreation) > 0 {
		return p.network.Contracts.SafeProxyCreation, nil
	}

	input, err := safe7579.ProxyCreationCode()
	if err != nil {
		return nil, domain.NewError(domain.ErrorCodeInternalProcess, err)
	}

	factory := p.network.Contracts.SafeProxyFactory
	output, err := p.caller.CallContract(ctx, ethereum.CallMsg{To: &factory, Data: input}, nil)
	if err != nil {
		p.logger(ctx).Error().Err(err).
			Str("factory", factory.Hex()).
			Msg("failed to read proxy creation code")
		return nil, domain.NewError(domain.ErrorCodeRemoteProcessError, fmt.Errorf("failed to read proxy creation code: %w", err))
	}

	code, err := safe7579.UnpackProxyCreationCode(output)
	if err != nil {
		return nil, domain.NewError(domain.ErrorCodeRemoteProcessError, err)
	}
	if len(code) == 0 {
		return nil, domain.NewError(domain.ErrorCodeRemoteProcessError, errors.New("factory returned empty proxy creation code"))
	}
	return code, nil
}
