// Package safe7579 encodes calls to a Safe account, the Safe7579 adapter, the
// Safe7579 launchpad and the Safe proxy factory.
package safe7579

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethaccount/recovery/erc7579"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/samber/lo"
)

var ErrInvalidSafeConfig = errors.New("invalid safe config")

// RegistryConfig is the module attestation policy checked by the adapter.
type RegistryConfig struct {
	Registry  common.Address   `json:"registry"`
	Attesters []common.Address `json:"attesters"`
	Threshold uint8            `json:"threshold"`
}

// SafeConfig is the owner policy of the underlying Safe.
type SafeConfig struct {
	Owners    []common.Address `json:"owners"`
	Threshold uint64           `json:"threshold"`
}

func (c SafeConfig) Validate() error {
	if len(c.Owners) == 0 {
		return fmt.Errorf("%w: no owners", ErrInvalidSafeConfig)
	}
	if c.Threshold == 0 || c.Threshold > uint64(len(c.Owners)) {
		return fmt.Errorf("%w: threshold %d with %d owners", ErrInvalidSafeConfig, c.Threshold, len(c.Owners))
	}
	if len(lo.Uniq(c.Owners)) != len(c.Owners) {
		return fmt.Errorf("%w: duplicate owner", ErrInvalidSafeConfig)
	}
	return nil
}

// InitData is the launchpad's deferred setup, committed to by its hash at
// deployment and replayed by setupSafe in the first user operation.
type InitData struct {
	Singleton  common.Address
	Owners     []common.Address
	Threshold  *big.Int
	SetupTo    common.Address
	SetupData  []byte
	Safe7579   common.Address
	Validators []erc7579.ModuleInit
	CallData   []byte
}

func EnableModule(module common.Address) ([]byte, error) {
	return pack(safeABI, "enableModule", module)
}

func SetFallbackHandler(handler common.Address) ([]byte, error) {
	return pack(safeABI, "setFallbackHandler", handler)
}

// InitializeAccount encodes the adapter's one-shot module setup.
func InitializeAccount(validators, executors, fallbacks, hooks []erc7579.ModuleInit, registry RegistryConfig) ([]byte, error) {
	registryInit := struct {
		Registry  common.Address
		Attesters []common.Address
		Threshold uint8
	}{registry.Registry, addresses(registry.Attesters), registry.Threshold}

	return pack(adapterABI, "initializeAccount",
		modules(validators), modules(executors), modules(fallbacks), modules(hooks), registryInit)
}

// InitSafe7579 encodes the launchpad setup delegatecall that enables the
// adapter and installs the non-validator modules.
func InitSafe7579(adapter common.Address, executors, fallbacks, hooks []erc7579.ModuleInit, registry RegistryConfig) ([]byte, error) {
	return pack(launchpadABI, "initSafe7579",
		adapter, modules(executors), modules(fallbacks), modules(hooks), addresses(registry.Attesters), registry.Threshold)
}

// LaunchpadHash encodes the launchpad hash(InitData) view call.
func LaunchpadHash(data InitData) ([]byte, error) {
	return pack(launchpadABI, "hash", data.tuple())
}

func UnpackLaunchpadHash(output []byte) (common.Hash, error) {
	values, err := launchpadABI.Unpack("hash", output)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to unpack hash: %w", err)
	}
	return common.Hash(values[0].([32]byte)), nil
}

func PreValidationSetup(initHash common.Hash, to common.Address, preInit []byte) ([]byte, error) {
	return pack(launchpadABI, "preValidationSetup", [32]byte(initHash), to, nonNil(preInit))
}

func SetupSafe(data InitData) ([]byte, error) {
	return pack(launchpadABI, "setupSafe", data.tuple())
}

func CreateProxyWithNonce(singleton common.Address, initializer []byte, saltNonce *big.Int) ([]byte, error) {
	return pack(proxyFactoryABI, "createProxyWithNonce", singleton, nonNil(initializer), saltNonce)
}

func ProxyCreationCode() ([]byte, error) {
	return pack(proxyFactoryABI, "proxyCreationCode")
}

func UnpackProxyCreationCode(output []byte) ([]byte, error) {
	values, err := proxyFactoryABI.Unpack("proxyCreationCode", output)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack proxyCreationCode: %w", err)
	}
	return values[0].([]byte), nil
}

// ProxyAddress is the CREATE2 address createProxyWithNonce deploys to:
// salt = keccak(keccak(initializer) ++ saltNonce) and the init code is the
// proxy creation code followed by the singleton as a uint256.
func ProxyAddress(factory, singleton common.Address, creationCode, initializer []byte, saltNonce *big.Int) common.Address {
	salt := crypto.Keccak256Hash(
		crypto.Keccak256(initializer),
		common.LeftPadBytes(saltNonce.Bytes(), 32),
	)
	deploymentData := append(common.CopyBytes(creationCode), common.LeftPadBytes(singleton.Bytes(), 32)...)
	return crypto.CreateAddress2(factory, salt, crypto.Keccak256(deploymentData))
}

func (d InitData) tuple() InitData {
	threshold := d.Threshold
	if threshold == nil {
		threshold = new(big.Int)
	}
	return InitData{
		Singleton:  d.Singleton,
		Owners:     addresses(d.Owners),
		Threshold:  threshold,
		SetupTo:    d.SetupTo,
		SetupData:  nonNil(d.SetupData),
		Safe7579:   d.Safe7579,
		Validators: modules(d.Validators),
		CallData:   nonNil(d.CallData),
	}
}

func pack(contract abi.ABI, method string, args ...interface{}) ([]byte, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}
	return data, nil
}

func modules(in []erc7579.ModuleInit) []erc7579.ModuleInit {
	return lo.Map(in, func(m erc7579.ModuleInit, _ int) erc7579.ModuleInit {
		return erc7579.ModuleInit{Module: m.Module, InitData: nonNil(m.InitData)}
	})
}

func addresses(in []common.Address) []common.Address {
	if in == nil {
		return []common.Address{}
	}
	return in
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
