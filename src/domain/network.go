package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Network is the immutable per-chain configuration injected into the pipeline.
type Network struct {
	Name         string
	ChainID      int64
	RPCURL       string
	BundlerURL   string
	PaymasterURL string
	EntryPoint   common.Address
	Contracts    Contracts
}

// Contracts are the fixed deployments the pipeline talks to on one chain.
// ProxyCreationCode is optional; when empty it is read from the factory.
type Contracts struct {
	SafeSingleton       common.Address
	SafeProxyFactory    common.Address
	SafeProxyCreation   []byte
	Safe7579            common.Address
	Safe7579Launchpad   common.Address
	Registry            common.Address
	OwnableValidator    common.Address
	EmailRecoveryModule common.Address
}

func (n Network) ChainIDBig() *big.Int {
	return big.NewInt(n.ChainID)
}

func (n Network) HasPaymaster() bool {
	return n.PaymasterURL != ""
}

// MissingDeploymentContracts lists the contracts account deployment needs
// that this network does not configure.
func (n Network) MissingDeploymentContracts() []string {
	var missing []string
	zero := common.Address{}
	if n.Contracts.SafeSingleton == zero {
		missing = append(missing, "safe_singleton")
	}
	if n.Contracts.SafeProxyFactory == zero {
		missing = append(missing, "safe_proxy_factory")
	}
	if n.Contracts.Safe7579 == zero {
		missing = append(missing, "safe7579")
	}
	if n.Contracts.Safe7579Launchpad == zero {
		missing = append(missing, "safe7579_launchpad")
	}
	return missing
}
