package handler

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethaccount/recovery/erc7579"
	"github.com/ethaccount/recovery/safe7579"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// ExecutionRequest is one call in JSON form. Value is a wei amount and may be
// sent as a number or a decimal string.
type ExecutionRequest struct {
	Target   string          `json:"target" binding:"required,eth_addr"`
	Value    decimal.Decimal `json:"value"`
	CallData string          `json:"callData"`
}

func (r ExecutionRequest) toExecution() (erc7579.Execution, error) {
	callData, err := decodeHex(r.CallData)
	if err != nil {
		return erc7579.Execution{}, fmt.Errorf("callData: %w", err)
	}
	return erc7579.NewExecution(common.HexToAddress(r.Target), r.Value.String(), callData)
}

type ExecutionResponse struct {
	Target   common.Address `json:"target"`
	Value    string         `json:"value"`
	CallData hexutil.Bytes  `json:"callData"`
}

func newExecutionResponse(e erc7579.Execution) ExecutionResponse {
	value := "0"
	if e.Value != nil {
		value = e.Value.String()
	}
	return ExecutionResponse{Target: e.Target, Value: value, CallData: e.CallData}
}

type ModuleRequest struct {
	Module   string `json:"module" binding:"required,eth_addr"`
	InitData string `json:"initData"`
}

func (r ModuleRequest) toModuleInit() (erc7579.ModuleInit, error) {
	initData, err := decodeHex(r.InitData)
	if err != nil {
		return erc7579.ModuleInit{}, fmt.Errorf("initData: %w", err)
	}
	return erc7579.ModuleInit{Module: common.HexToAddress(r.Module), InitData: initData}, nil
}

func toModuleInits(modules []ModuleRequest) ([]erc7579.ModuleInit, error) {
	out := make([]erc7579.ModuleInit, 0, len(modules))
	for _, m := range modules {
		init, err := m.toModuleInit()
		if err != nil {
			return nil, err
		}
		out = append(out, init)
	}
	return out, nil
}

type RegistryRequest struct {
	Registry  string   `json:"registry" binding:"omitempty,eth_addr"`
	Attesters []string `json:"attesters" binding:"dive,eth_addr"`
	Threshold uint8    `json:"threshold"`
}

// toRegistryConfig leaves the registry zero when unset so the planner falls
// back to the network's registry.
func (r *RegistryRequest) toRegistryConfig() safe7579.RegistryConfig {
	if r == nil {
		return safe7579.RegistryConfig{}
	}
	var registry common.Address
	if r.Registry != "" {
		registry = common.HexToAddress(r.Registry)
	}
	return safe7579.RegistryConfig{
		Registry:  registry,
		Attesters: toAddresses(r.Attesters),
		Threshold: r.Threshold,
	}
}

// RecoveryRequest is the guardian policy. Weights default to one per
// guardian, threshold to one, delay to one second and expiry to two weeks.
type RecoveryRequest struct {
	Guardians     []string          `json:"guardians" binding:"required,min=1,dive,eth_addr"`
	Weights       []decimal.Decimal `json:"weights"`
	Threshold     decimal.Decimal   `json:"threshold"`
	DelaySeconds  uint64            `json:"delaySeconds"`
	ExpirySeconds uint64            `json:"expirySeconds"`
}

func (r RecoveryRequest) toRecoveryConfig() (safe7579.RecoveryConfig, error) {
	config := safe7579.NewRecoveryConfig(toAddresses(r.Guardians))

	if len(r.Weights) > 0 {
		weights := make([]*big.Int, 0, len(r.Weights))
		for i, w := range r.Weights {
			weight, err := erc7579.ParseValue(w.String())
			if err != nil {
				return safe7579.RecoveryConfig{}, fmt.Errorf("weights[%d]: %w", i, err)
			}
			weights = append(weights, weight)
		}
		config.Weights = weights
	}
	if !r.Threshold.IsZero() {
		threshold, err := erc7579.ParseValue(r.Threshold.String())
		if err != nil {
			return safe7579.RecoveryConfig{}, fmt.Errorf("threshold: %w", err)
		}
		config.Threshold = threshold
	}
	if r.DelaySeconds > 0 {
		config.Delay = time.Duration(r.DelaySeconds) * time.Second
	}
	if r.ExpirySeconds > 0 {
		config.Expiry = time.Duration(r.ExpirySeconds) * time.Second
	}

	if err := config.Validate(); err != nil {
		return safe7579.RecoveryConfig{}, err
	}
	return config, nil
}

func parseUint(d decimal.Decimal) (*big.Int, error) {
	return erc7579.ParseValue(d.String())
}

func toAddresses(in []string) []common.Address {
	return lo.Map(in, func(s string, _ int) common.Address { return common.HexToAddress(s) })
}

// decodeHex accepts an empty string or "0x" as no bytes.
func decodeHex(s string) ([]byte, error) {
	if s == "" || s == "0x" || s == "0X" {
		return []byte{}, nil
	}
	return hexutil.Decode(s)
}
