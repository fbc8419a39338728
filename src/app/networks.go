package app

import (
	"fmt"
	"os"

	"github.com/ethaccount/recovery/erc4337"
	"github.com/ethaccount/recovery/src/domain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

type networkFile struct {
	Networks []networkEntry `yaml:"networks" validate:"required,min=1,dive"`
}

type networkEntry struct {
	Name         string         `yaml:"name" validate:"required"`
	ChainID      int64          `yaml:"chain_id" validate:"required,gt=0"`
	RPCURL       string         `yaml:"rpc_url" validate:"required,url"`
	BundlerURL   string         `yaml:"bundler_url" validate:"required,url"`
	PaymasterURL string         `yaml:"paymaster_url" validate:"omitempty,url"`
	EntryPoint   string         `yaml:"entry_point" validate:"omitempty,eth_addr"`
	Contracts    contractsEntry `yaml:"contracts"`
}

type contractsEntry struct {
	SafeSingleton         string `yaml:"safe_singleton" validate:"omitempty,eth_addr"`
	SafeProxyFactory      string `yaml:"safe_proxy_factory" validate:"omitempty,eth_addr"`
	SafeProxyCreationCode string `yaml:"safe_proxy_creation_code" validate:"omitempty,hexadecimal"`
	Safe7579              string `yaml:"safe7579" validate:"omitempty,eth_addr"`
	Safe7579Launchpad     string `yaml:"safe7579_launchpad" validate:"omitempty,eth_addr"`
	Registry              string `yaml:"registry" validate:"omitempty,eth_addr"`
	OwnableValidator      string `yaml:"ownable_validator" validate:"required,eth_addr"`
	EmailRecoveryModule   string `yaml:"email_recovery_module" validate:"omitempty,eth_addr"`
}

// LoadNetworks reads the network registry file. ${VAR} references are
// expanded from the environment so API keys stay out of the file.
func LoadNetworks(path string) ([]domain.Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read networks file: %w", err)
	}
	return ParseNetworks(data)
}

func ParseNetworks(data []byte) ([]domain.Network, error) {
	var file networkFile
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &file); err != nil {
		return nil, fmt.Errorf("failed to parse networks file: %w", err)
	}

	if err := validator.New().Struct(file); err != nil {
		return nil, fmt.Errorf("invalid networks file: %w", err)
	}

	seen := make(map[int64]string, len(file.Networks))
	networks := make([]domain.Network, 0, len(file.Networks))
	for _, entry := range file.Networks {
		if other, ok := seen[entry.ChainID]; ok {
			return nil, fmt.Errorf("invalid networks file: %s and %s share chain id %d", other, entry.Name, entry.ChainID)
		}
		seen[entry.ChainID] = entry.Name

		network, err := entry.toNetwork()
		if err != nil {
			return nil, fmt.Errorf("invalid network %s: %w", entry.Name, err)
		}
		networks = append(networks, network)
	}
	return networks, nil
}

func (e networkEntry) toNetwork() (domain.Network, error) {
	entryPoint := erc4337.EntryPointV07
	if e.EntryPoint != "" {
		entryPoint = common.HexToAddress(e.EntryPoint)
	}

	var creationCode []byte
	if e.Contracts.SafeProxyCreationCode != "" {
		code, err := hexutil.Decode(e.Contracts.SafeProxyCreationCode)
		if err != nil {
			return domain.Network{}, fmt.Errorf("safe_proxy_creation_code: %w", err)
		}
		creationCode = code
	}

	return domain.Network{
		Name:         e.Name,
		ChainID:      e.ChainID,
		RPCURL:       e.RPCURL,
		BundlerURL:   e.BundlerURL,
		PaymasterURL: e.PaymasterURL,
		EntryPoint:   entryPoint,
		Contracts: domain.Contracts{
			SafeSingleton:       optionalAddress(e.Contracts.SafeSingleton),
			SafeProxyFactory:    optionalAddress(e.Contracts.SafeProxyFactory),
			SafeProxyCreation:   creationCode,
			Safe7579:            optionalAddress(e.Contracts.Safe7579),
			Safe7579Launchpad:   optionalAddress(e.Contracts.Safe7579Launchpad),
			Registry:            optionalAddress(e.Contracts.Registry),
			OwnableValidator:    common.HexToAddress(e.Contracts.OwnableValidator),
			EmailRecoveryModule: optionalAddress(e.Contracts.EmailRecoveryModule),
		},
	}, nil
}

func optionalAddress(s string) common.Address {
	if s == "" {
		return common.Address{}
	}
	return common.HexToAddress(s)
}
