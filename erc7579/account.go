package erc7579

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ModuleType is the ERC-7579 module type id.
type ModuleType uint64

const (
	ModuleTypeValidator ModuleType = 1
	ModuleTypeExecutor  ModuleType = 2
	ModuleTypeFallback  ModuleType = 3
	ModuleTypeHook      ModuleType = 4
)

// ModuleInit attaches a module with its install payload.
type ModuleInit struct {
	Module   common.Address `json:"module"`
	InitData []byte         `json:"initData"`
}

const accountABIJSON = `[
	{"type":"function","name":"execute","stateMutability":"payable",
	 "inputs":[{"name":"mode","type":"bytes32"},{"name":"executionCalldata","type":"bytes"}],"outputs":[]},
	{"type":"function","name":"installModule","stateMutability":"payable",
	 "inputs":[{"name":"moduleTypeId","type":"uint256"},{"name":"module","type":"address"},{"name":"initData","type":"bytes"}],"outputs":[]},
	{"type":"function","name":"isModuleInstalled","stateMutability":"view",
	 "inputs":[{"name":"moduleTypeId","type":"uint256"},{"name":"module","type":"address"},{"name":"additionalContext","type":"bytes"}],
	 "outputs":[{"name":"","type":"bool"}]}
]`

var accountABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(accountABIJSON))
	if err != nil {
		panic(err)
	}
	return parsed
}()

// InstallModule encodes installModule(moduleTypeId, module, initData).
func InstallModule(moduleType ModuleType, module common.Address, initData []byte) ([]byte, error) {
	data, err := accountABI.Pack("installModule", new(big.Int).SetUint64(uint64(moduleType)), module, nonNil(initData))
	if err != nil {
		return nil, fmt.Errorf("failed to pack installModule: %w", err)
	}
	return data, nil
}

// IsModuleInstalled encodes the isModuleInstalled view call.
func IsModuleInstalled(moduleType ModuleType, module common.Address) ([]byte, error) {
	data, err := accountABI.Pack("isModuleInstalled", new(big.Int).SetUint64(uint64(moduleType)), module, []byte{})
	if err != nil {
		return nil, fmt.Errorf("failed to pack isModuleInstalled: %w", err)
	}
	return data, nil
}

// UnpackIsModuleInstalled decodes the isModuleInstalled result.
func UnpackIsModuleInstalled(output []byte) (bool, error) {
	values, err := accountABI.Unpack("isModuleInstalled", output)
	if err != nil {
		return false, fmt.Errorf("failed to unpack isModuleInstalled: %w", err)
	}
	return values[0].(bool), nil
}
