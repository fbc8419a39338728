package safe7579

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
)

var ErrInvalidRecoveryConfig = errors.New("invalid recovery config")

const (
	DefaultRecoveryDelay  = time.Second
	DefaultRecoveryExpiry = 2 * 7 * 24 * time.Hour
)

// RecoveryConfig is the guardian policy installed with the email recovery
// executor. Delay and expiry are stored on chain in whole seconds.
type RecoveryConfig struct {
	Guardians []common.Address
	Weights   []*big.Int
	Threshold *big.Int
	Delay     time.Duration
	Expiry    time.Duration
}

// NewRecoveryConfig gives every guardian weight one and requires a single
// guardian approval.
func NewRecoveryConfig(guardians []common.Address) RecoveryConfig {
	return RecoveryConfig{
		Guardians: guardians,
		Weights:   lo.Map(guardians, func(common.Address, int) *big.Int { return big.NewInt(1) }),
		Threshold: big.NewInt(1),
		Delay:     DefaultRecoveryDelay,
		Expiry:    DefaultRecoveryExpiry,
	}
}

func (c RecoveryConfig) Validate() error {
	if len(c.Guardians) == 0 {
		return fmt.Errorf("%w: no guardians", ErrInvalidRecoveryConfig)
	}
	if len(c.Weights) != len(c.Guardians) {
		return fmt.Errorf("%w: %d weights for %d guardians", ErrInvalidRecoveryConfig, len(c.Weights), len(c.Guardians))
	}
	if len(lo.Uniq(c.Guardians)) != len(c.Guardians) {
		return fmt.Errorf("%w: duplicate guardian", ErrInvalidRecoveryConfig)
	}

	total := new(big.Int)
	for _, w := range c.Weights {
		if w == nil || w.Sign() <= 0 {
			return fmt.Errorf("%w: guardian weight must be positive", ErrInvalidRecoveryConfig)
		}
		total.Add(total, w)
	}
	if c.Threshold == nil || c.Threshold.Sign() <= 0 || c.Threshold.Cmp(total) > 0 {
		return fmt.Errorf("%w: threshold %v not reachable with total weight %s", ErrInvalidRecoveryConfig, c.Threshold, total)
	}
	if c.Delay < 0 || c.Expiry <= 0 {
		return fmt.Errorf("%w: delay and expiry must be positive", ErrInvalidRecoveryConfig)
	}
	if c.Expiry <= c.Delay {
		return fmt.Errorf("%w: expiry must exceed delay", ErrInvalidRecoveryConfig)
	}
	return nil
}

var recoveryInstallArgs = abi.Arguments{
	{Name: "guardians", Type: mustNewType("address[]")},
	{Name: "weights", Type: mustNewType("uint256[]")},
	{Name: "threshold", Type: mustNewType("uint256")},
	{Name: "delay", Type: mustNewType("uint256")},
	{Name: "expiry", Type: mustNewType("uint256")},
}

// InstallData is the executor's onInstall payload:
// abi.encode(guardians, weights, threshold, delay, expiry).
func (c RecoveryConfig) InstallData() ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	data, err := recoveryInstallArgs.Pack(
		c.Guardians,
		c.Weights,
		c.Threshold,
		big.NewInt(int64(c.Delay/time.Second)),
		big.NewInt(int64(c.Expiry/time.Second)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to encode recovery install data: %w", err)
	}
	return data, nil
}
