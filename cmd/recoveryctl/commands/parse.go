package commands

import (
	"fmt"
	"strings"

	"github.com/ethaccount/recovery/erc7579"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// parseExecution reads "target[,value[,callData]]".
func parseExecution(s string) (erc7579.Execution, error) {
	parts := strings.Split(s, ",")
	if len(parts) > 3 {
		return erc7579.Execution{}, fmt.Errorf("execution %q: want target[,value[,callData]]", s)
	}

	target, err := parseAddress(parts[0])
	if err != nil {
		return erc7579.Execution{}, fmt.Errorf("execution %q: %w", s, err)
	}

	var value string
	if len(parts) > 1 {
		value = strings.TrimSpace(parts[1])
	}

	var callData []byte
	if len(parts) > 2 {
		if callData, err = parseHex(parts[2]); err != nil {
			return erc7579.Execution{}, fmt.Errorf("execution %q: callData: %w", s, err)
		}
	}

	return erc7579.NewExecution(target, value, callData)
}

// parseModule reads "module[,initData]".
func parseModule(s string) (erc7579.ModuleInit, error) {
	module, initData, _ := strings.Cut(s, ",")
	address, err := parseAddress(module)
	if err != nil {
		return erc7579.ModuleInit{}, fmt.Errorf("module %q: %w", s, err)
	}
	data, err := parseHex(initData)
	if err != nil {
		return erc7579.ModuleInit{}, fmt.Errorf("module %q: initData: %w", s, err)
	}
	return erc7579.ModuleInit{Module: address, InitData: data}, nil
}

func parseModules(in []string) ([]erc7579.ModuleInit, error) {
	out := make([]erc7579.ModuleInit, 0, len(in))
	for _, s := range in {
		module, err := parseModule(s)
		if err != nil {
			return nil, err
		}
		out = append(out, module)
	}
	return out, nil
}

func parseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

func parseAddresses(in []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(in))
	for _, s := range in {
		address, err := parseAddress(s)
		if err != nil {
			return nil, err
		}
		out = append(out, address)
	}
	return out, nil
}

// parseHex accepts an empty string or "0x" as no bytes.
func parseHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0x" || s == "0X" {
		return []byte{}, nil
	}
	return hexutil.Decode(s)
}
