package erc4337

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

type GasEstimates struct {
	PreVerificationGas            *hexutil.Big `json:"preVerificationGas"`
	VerificationGasLimit          *hexutil.Big `json:"verificationGasLimit"`
	CallGasLimit                  *hexutil.Big `json:"callGasLimit"`
	PaymasterVerificationGasLimit *hexutil.Big `json:"paymasterVerificationGasLimit,omitempty"`
	PaymasterPostOpGasLimit       *hexutil.Big `json:"paymasterPostOpGasLimit,omitempty"`
}

// GasPrice is one tier of a bundler gas price quote.
type GasPrice struct {
	MaxFeePerGas         *hexutil.Big `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *hexutil.Big `json:"maxPriorityFeePerGas"`
}

type GasPriceTiers struct {
	Slow     GasPrice `json:"slow"`
	Standard GasPrice `json:"standard"`
	Fast     GasPrice `json:"fast"`
}

type TransactionReceipt struct {
	BlockHash         common.Hash    `json:"blockHash"`
	BlockNumber       *hexutil.Big   `json:"blockNumber"`
	From              common.Address `json:"from"`
	CumulativeGasUsed *hexutil.Big   `json:"cumulativeGasUsed"`
	GasUsed           *hexutil.Big   `json:"gasUsed"`
	Logs              []*types.Log   `json:"logs"`
	TransactionHash   common.Hash    `json:"transactionHash"`
	EffectiveGasPrice *hexutil.Big   `json:"effectiveGasPrice"`
}

type UserOperationReceipt struct {
	UserOpHash    common.Hash         `json:"userOpHash"`
	Sender        common.Address      `json:"sender"`
	Paymaster     common.Address      `json:"paymaster"`
	Nonce         *hexutil.Big        `json:"nonce"`
	Success       bool                `json:"success"`
	Reason        string              `json:"reason,omitempty"`
	ActualGasCost *hexutil.Big        `json:"actualGasCost"`
	ActualGasUsed *hexutil.Big        `json:"actualGasUsed"`
	Receipt       *TransactionReceipt `json:"receipt"`
	Logs          []*types.Log        `json:"logs"`
}

// Bundler is the subset of the ERC-4337 bundler RPC used to price, estimate,
// submit and track user operations.
type Bundler interface {
	ChainId(ctx context.Context) (*big.Int, error)
	EstimateUserOperationGas(ctx context.Context, op *UserOperation, entryPoint common.Address) (*GasEstimates, error)
	GetUserOperationGasPrice(ctx context.Context) (*GasPriceTiers, error)
	SendUserOperation(ctx context.Context, op *UserOperation, entryPoint common.Address) (common.Hash, error)
	// GetUserOperationReceipt returns nil while the operation is not included.
	GetUserOperationReceipt(ctx context.Context, userOpHash common.Hash) (*UserOperationReceipt, error)
}

type BundlerClient struct {
	client *rpc.Client
}

func DialBundler(ctx context.Context, rawurl string) (*BundlerClient, error) {
	c, err := rpc.DialContext(ctx, rawurl)
	if err != nil {
		return nil, err
	}
	return NewBundlerClient(c), nil
}

func NewBundlerClient(c *rpc.Client) *BundlerClient {
	return &BundlerClient{c}
}

func (b *BundlerClient) Close() {
	b.client.Close()
}

func (b *BundlerClient) ChainId(ctx context.Context) (*big.Int, error) {
	var result hexutil.Big
	if err := b.client.CallContext(ctx, &result, "eth_chainId"); err != nil {
		return nil, err
	}
	return (*big.Int)(&result), nil
}

func (b *BundlerClient) EstimateUserOperationGas(ctx context.Context, op *UserOperation, entryPoint common.Address) (*GasEstimates, error) {
	var estimate GasEstimates
	if err := b.client.CallContext(ctx, &estimate, "eth_estimateUserOperationGas", op, entryPoint); err != nil {
		return nil, err
	}
	return &estimate, nil
}

// GetUserOperationGasPrice queries the pimlico gas price extension.
func (b *BundlerClient) GetUserOperationGasPrice(ctx context.Context) (*GasPriceTiers, error) {
	var tiers GasPriceTiers
	if err := b.client.CallContext(ctx, &tiers, "pimlico_getUserOperationGasPrice"); err != nil {
		return nil, err
	}
	return &tiers, nil
}

func (b *BundlerClient) SendUserOperation(ctx context.Context, op *UserOperation, entryPoint common.Address) (common.Hash, error) {
	var result common.Hash
	err := b.client.CallContext(ctx, &result, "eth_sendUserOperation", op, entryPoint)
	return result, err
}

func (b *BundlerClient) GetUserOperationReceipt(ctx context.Context, userOpHash common.Hash) (*UserOperationReceipt, error) {
	var receipt *UserOperationReceipt
	if err := b.client.CallContext(ctx, &receipt, "eth_getUserOperationReceipt", userOpHash); err != nil {
		return nil, err
	}
	return receipt, nil
}
