package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethaccount/recovery/erc4337"
	"github.com/ethaccount/recovery/erc7579"
	"github.com/ethaccount/recovery/src/domain"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog"
)

var (
	placeholderFee      = big.NewInt(1)
	placeholderGasLimit = big.NewInt(1_000_000)
)

var ErrUnsignedUserOperation = errors.New("user operation has no signature")

// CodeReader reports deployed bytecode. ethclient.Client satisfies it.
type CodeReader interface {
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

// NonceSource returns the next nonce of sender in the sequence scoped by key.
// erc4337.EntryPoint satisfies it.
type NonceSource interface {
	GetNonce(ctx context.Context, sender common.Address, key *big.Int) (*big.Int, error)
}

// OperationJournal records user operations after the bundler accepted them.
type OperationJournal interface {
	Record(ctx context.Context, network domain.Network, op *erc4337.UserOperation, userOpHash common.Hash) error
}

// UserOperationService runs the user operation pipeline against one network:
// build, estimate, sign and submit. Each stage waits for the previous one.
type UserOperationService struct {
	network   domain.Network
	code      CodeReader
	caller    ethereum.ContractCaller
	nonces    NonceSource
	bundler   erc4337.Bundler
	paymaster erc4337.Paymaster
	journal   OperationJournal
}

type UserOperationConfig struct {
	Network domain.Network
	Code    CodeReader
	Caller  ethereum.ContractCaller
	Nonces  NonceSource
	Bundler erc4337.Bundler
	// Paymaster is optional. When set, operations are sponsored after estimation.
	Paymaster erc4337.Paymaster
	// Journal is optional.
	Journal OperationJournal
}

func NewUserOperationService(config UserOperationConfig) *UserOperationService {
	return &UserOperationService{
		network:   config.Network,
		code:      config.Code,
		caller:    config.Caller,
		nonces:    config.Nonces,
		bundler:   config.Bundler,
		paymaster: config.Paymaster,
		journal:   config.Journal,
	}
}

// logger wraps the execution context with component info
func (s *UserOperationService) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().
		Str("service", "userop").
		Int64("chain_id", s.network.ChainID).
		Logger()
	return &l
}

func (s *UserOperationService) Network() domain.Network {
	return s.network
}

// IsModuleInstalled asks a deployed account whether module is installed
// as moduleType. An undeployed account has no modules. A Safe without the
// Safe7579 fallback handler answers with empty data, read as not installed.
func (s *UserOperationService) IsModuleInstalled(ctx context.Context, account common.Address, moduleType erc7579.ModuleType, module common.Address) (bool, error) {
	code, err := s.code.CodeAt(ctx, account, nil)
	if err != nil {
		return false, domain.NewError(domain.ErrorCodeRemoteProcessError, fmt.Errorf("failed to read account code: %w", err))
	}
	if len(code) == 0 {
		return false, nil
	}

	input, err := erc7579.IsModuleInstalled(moduleType, module)
	if err != nil {
		return false, domain.NewError(domain.ErrorCodeInternalProcess, err)
	}
	output, err := s.caller.CallContract(ctx, ethereum.CallMsg{To: &account, Data: input}, nil)
	if err != nil {
		s.logger(ctx).Error().Err(err).
			Str("account", account.Hex()).
			Str("module", module.Hex()).
			Msg("failed to query installed module")
		return false, domain.NewError(domain.ErrorCodeRemoteProcessError, fmt.Errorf("failed to query installed module: %w", err))
	}
	if len(output) == 0 {
		return false, nil
	}

	installed, err := erc7579.UnpackIsModuleInstalled(output)
	if err != nil {
		return false, domain.NewError(domain.ErrorCodeRemoteProcessError, err)
	}
	return installed, nil
}

// BuildUnsigned assembles a draft operation for callData with final gas
// values and an empty signature.
func (s *UserOperationService) BuildUnsigned(ctx context.Context, callData []byte, account domain.Account, validator domain.Validator) (*erc4337.UserOperation, error) {
	op := &erc4337.UserOperation{
		Sender:   account.Address,
		CallData: common.CopyBytes(callData),
	}

	code, err := s.code.CodeAt(ctx, account.Address, nil)
	if err != nil {
		s.logger(ctx).Error().Err(err).
			Str("sender", account.Address.Hex()).
			Msg("failed to read account code")
		return nil, domain.NewError(domain.ErrorCodeRemoteProcessError, fmt.Errorf("failed to read account code: %w", err))
	}
	if len(code) == 0 {
		if err := op.SetInitCode(account.InitCode); err != nil {
			return nil, domain.NewError(domain.ErrorCodeParameterInvalid, err, domain.WithMsg("Invalid account init code"))
		}
	}

	key := erc4337.NonceKey(validator.Address())
	nonce, err := s.nonces.GetNonce(ctx, account.Address, key)
	if err != nil {
		s.logger(ctx).Error().Err(err).
			Str("sender", account.Address.Hex()).
			Str("nonce_key", key.Text(16)).
			Msg("failed to get nonce")
		return nil, domain.NewError(domain.ErrorCodeRemoteProcessError, fmt.Errorf("failed to get nonce: %w", err))
	}
	op.Nonce = (*hexutil.Big)(nonce)

	op.MaxFeePerGas = (*hexutil.Big)(new(big.Int).Set(placeholderFee))
	op.MaxPriorityFeePerGas = (*hexutil.Big)(new(big.Int).Set(placeholderFee))
	op.PreVerificationGas = (*hexutil.Big)(new(big.Int).Set(placeholderGasLimit))
	op.VerificationGasLimit = (*hexutil.Big)(new(big.Int).Set(placeholderGasLimit))
	op.CallGasLimit = (*hexutil.Big)(new(big.Int).Set(placeholderGasLimit))
	op.Signature = common.CopyBytes(validator.MockSignature())

	prices, err := s.bundler.GetUserOperationGasPrice(ctx)
	if err != nil {
		s.logger(ctx).Error().Err(err).Msg("failed to get user operation gas price")
		return nil, domain.NewError(domain.ErrorCodeRemoteProcessError, fmt.Errorf("failed to get gas price: %w", err))
	}
	op.MaxFeePerGas = prices.Fast.MaxFeePerGas
	op.MaxPriorityFeePerGas = prices.Fast.MaxPriorityFeePerGas

	estimates, err := s.EstimateGas(ctx, op)
	if err != nil {
		return nil, err
	}
	op.PreVerificationGas = estimates.PreVerificationGas
	op.VerificationGasLimit = estimates.VerificationGasLimit
	op.CallGasLimit = estimates.CallGasLimit

	if s.paymaster != nil {
		sponsorship, err := s.paymaster.SponsorUserOperation(ctx, op, s.network.EntryPoint)
		if err != nil {
			s.logger(ctx).Error().Err(err).Msg("failed to sponsor user operation")
			return nil, domain.NewError(domain.ErrorCodeRemoteProcessError, fmt.Errorf("failed to sponsor user operation: %w", err))
		}
		sponsorship.Apply(op)
	}

	op.Signature = hexutil.Bytes{}

	s.logger(ctx).Debug().
		Str("sender", op.Sender.Hex()).
		Str("nonce", op.Nonce.String()).
		Bool("deploys_account", op.Factory != nil).
		Msg("built unsigned user operation")

	return op, nil
}

// EstimateGas asks the bundler for the three gas limits of draft.
func (s *UserOperationService) EstimateGas(ctx context.Context, draft *erc4337.UserOperation) (*erc4337.GasEstimates, error) {
	estimates, err := s.bundler.EstimateUserOperationGas(ctx, draft, s.network.EntryPoint)
	if err != nil {
		s.logger(ctx).Error().Err(err).
			Str("sender", draft.Sender.Hex()).
			Msg("failed to estimate user operation gas")
		return nil, domain.NewError(domain.ErrorCodeRemoteProcessError, fmt.Errorf("failed to estimate gas: %w", err))
	}
	return estimates, nil
}

// Sign returns a copy of draft carrying the validator's signature over the
// user operation hash of this network.
func (s *UserOperationService) Sign(ctx context.Context, draft *erc4337.UserOperation, account domain.Account, validator domain.Validator) (*erc4337.UserOperation, error) {
	hash, err := draft.GetUserOpHash(s.network.EntryPoint, s.network.ChainIDBig())
	if errors.Is(err, erc4337.ErrGasOutOfRange) {
		return nil, domain.NewError(domain.ErrorCodeRemoteProcessError, fmt.Errorf("failed to hash user operation: %w", err),
			domain.WithMsg("Gas values do not fit the packed user operation"))
	}
	if err != nil {
		return nil, domain.NewError(domain.ErrorCodeInternalProcess, fmt.Errorf("failed to hash user operation: %w", err))
	}

	signature, err := validator.SignMessage(ctx, hash, account)
	if err != nil {
		s.logger(ctx).Error().Err(err).
			Str("user_op_hash", hash.Hex()).
			Str("validator", validator.Address().Hex()).
			Msg("failed to sign user operation")
		return nil, domain.NewError(domain.ErrorCodeAuthPermissionDenied, fmt.Errorf("failed to sign user operation: %w", err),
			domain.WithMsg("Validator refused to sign"))
	}

	signed := draft.Copy()
	signed.Signature = signature
	return signed, nil
}

// Submit sends a signed operation to the bundler and returns its hash.
func (s *UserOperationService) Submit(ctx context.Context, signed *erc4337.UserOperation) (common.Hash, error) {
	if len(signed.Signature) == 0 {
		return common.Hash{}, domain.NewError(domain.ErrorCodeParameterInvalid, ErrUnsignedUserOperation)
	}

	hash, err := s.bundler.SendUserOperation(ctx, signed, s.network.EntryPoint)
	if err != nil {
		s.logger(ctx).Error().Err(err).
			Str("sender", signed.Sender.Hex()).
			Msg("bundler rejected user operation")
		return common.Hash{}, domain.NewError(domain.ErrorCodeRemoteProcessError, fmt.Errorf("failed to send user operation: %w", err))
	}

	s.logger(ctx).Info().
		Str("sender", signed.Sender.Hex()).
		Str("user_op_hash", hash.Hex()).
		Msg("user operation submitted")

	return hash, nil
}

// Execute encodes executions and runs the whole pipeline. The operation is
// journaled after submission; a journaling failure is logged and does not
// hide the hash of an operation the bundler already holds.
func (s *UserOperationService) Execute(ctx context.Context, executions []erc7579.Execution, account domain.Account, validator domain.Validator) (common.Hash, error) {
	callData, err := erc7579.Encode(executions)
	if err != nil {
		return common.Hash{}, domain.NewError(domain.ErrorCodeParameterInvalid, err)
	}

	draft, err := s.BuildUnsigned(ctx, callData, account, validator)
	if err != nil {
		return common.Hash{}, err
	}

	signed, err := s.Sign(ctx, draft, account, validator)
	if err != nil {
		return common.Hash{}, err
	}

	hash, err := s.Submit(ctx, signed)
	if err != nil {
		return common.Hash{}, err
	}

	if s.journal != nil {
		if err := s.journal.Record(ctx, s.network, signed, hash); err != nil {
			s.logger(ctx).Error().Err(err).
				Str("user_op_hash", hash.Hex()).
				Msg("failed to journal user operation")
		}
	}

	return hash, nil
}
