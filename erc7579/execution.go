package erc7579

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var (
	ErrNoExecutions   = errors.New("at least one execution is required")
	ErrInvalidValue   = errors.New("execution value must be an unsigned 256-bit integer")
	ErrUnknownCall    = errors.New("calldata is not an execute call")
	ErrUnknownMode    = errors.New("unsupported execution mode")
	ErrShortExecution = errors.New("single execution shorter than target and value")
)

// CallType is the execution mode word passed to execute(bytes32,bytes). Only
// the call type byte is set; exec type, selector and payload stay zero.
type CallType [32]byte

var (
	CallTypeSingle = CallType{}
	CallTypeBatch  = CallType{0x01}
)

func (c CallType) String() string {
	switch c {
	case CallTypeSingle:
		return "single"
	case CallTypeBatch:
		return "batch"
	default:
		return common.Bytes2Hex(c[:])
	}
}

// Execution is one call the account performs.
type Execution struct {
	Target   common.Address
	Value    *big.Int
	CallData []byte
}

// NewExecution builds an execution from a base-10 value string, the form
// amounts arrive in from clients.
func NewExecution(target common.Address, value string, callData []byte) (Execution, error) {
	v, err := ParseValue(value)
	if err != nil {
		return Execution{}, err
	}
	return Execution{Target: target, Value: v, CallData: callData}, nil
}

// ParseValue parses a wei amount. An empty string is zero.
func ParseValue(value string) (*big.Int, error) {
	if value == "" {
		return new(big.Int), nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidValue, value)
	}
	if d.IsNegative() || !d.Equal(d.Truncate(0)) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidValue, value)
	}
	v := d.BigInt()
	if v.BitLen() > 256 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidValue, value)
	}
	return v, nil
}

// checkValue rejects values that do not fit a uint256 word.
func checkValue(v *big.Int) error {
	if v != nil && (v.Sign() < 0 || v.BitLen() > 256) {
		return fmt.Errorf("%w: %s", ErrInvalidValue, v)
	}
	return nil
}

// executionTuple mirrors the Solidity Execution struct for ABI packing.
type executionTuple struct {
	Target   common.Address
	Value    *big.Int
	CallData []byte
}

var executionsArgs = abi.Arguments{{
	Name: "executions",
	Type: mustNewType("tuple[]", []abi.ArgumentMarshaling{
		{Name: "target", Type: "address"},
		{Name: "value", Type: "uint256"},
		{Name: "callData", Type: "bytes"},
	}),
}}

func mustNewType(t string, components []abi.ArgumentMarshaling) abi.Type {
	typ, err := abi.NewType(t, "", components)
	if err != nil {
		panic(err)
	}
	return typ
}

// Encode returns the execute(bytes32,bytes) calldata for executions. A single
// execution is packed as target ++ value ++ callData, several are ABI encoded
// as an Execution[] in the given order.
func Encode(executions []Execution) ([]byte, error) {
	for i, e := range executions {
		if err := checkValue(e.Value); err != nil {
			return nil, fmt.Errorf("execution %d: %w", i, err)
		}
	}

	switch len(executions) {
	case 0:
		return nil, ErrNoExecutions
	case 1:
		return PackExecute(CallTypeSingle, encodeSingle(executions[0]))
	}

	payload, err := executionsArgs.Pack(lo.Map(executions, func(e Execution, _ int) executionTuple {
		return executionTuple{Target: e.Target, Value: valueOrZero(e.Value), CallData: nonNil(e.CallData)}
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to encode executions: %w", err)
	}
	return PackExecute(CallTypeBatch, payload)
}

// PackExecute wraps an already encoded execution payload.
func PackExecute(mode CallType, executionCalldata []byte) ([]byte, error) {
	data, err := accountABI.Pack("execute", [32]byte(mode), executionCalldata)
	if err != nil {
		return nil, fmt.Errorf("failed to pack execute: %w", err)
	}
	return data, nil
}

// Decode is the inverse of Encode.
func Decode(data []byte) (CallType, []Execution, error) {
	method, ok := accountABI.Methods["execute"]
	if !ok || len(data) < 4 || !bytes.Equal(data[:4], method.ID) {
		return CallType{}, nil, ErrUnknownCall
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return CallType{}, nil, fmt.Errorf("failed to unpack execute: %w", err)
	}
	mode := CallType(args[0].([32]byte))
	payload := args[1].([]byte)

	switch mode {
	case CallTypeSingle:
		if len(payload) < common.AddressLength+32 {
			return mode, nil, ErrShortExecution
		}
		return mode, []Execution{{
			Target:   common.BytesToAddress(payload[:common.AddressLength]),
			Value:    new(big.Int).SetBytes(payload[common.AddressLength : common.AddressLength+32]),
			CallData: common.CopyBytes(payload[common.AddressLength+32:]),
		}}, nil
	case CallTypeBatch:
		values, err := executionsArgs.Unpack(payload)
		if err != nil {
			return mode, nil, fmt.Errorf("failed to unpack executions: %w", err)
		}
		tuples := *abi.ConvertType(values[0], new([]executionTuple)).(*[]executionTuple)
		return mode, lo.Map(tuples, func(t executionTuple, _ int) Execution {
			return Execution(t)
		}), nil
	default:
		return mode, nil, ErrUnknownMode
	}
}

func encodeSingle(e Execution) []byte {
	out := make([]byte, 0, common.AddressLength+32+len(e.CallData))
	out = append(out, e.Target.Bytes()...)
	out = append(out, common.LeftPadBytes(valueOrZero(e.Value).Bytes(), 32)...)
	return append(out, e.CallData...)
}

func valueOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
