package commands

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethaccount/recovery/erc7579"
	"github.com/ethaccount/recovery/safe7579"
	"github.com/ethaccount/recovery/src/domain"
	"github.com/ethaccount/recovery/src/service"
	"github.com/spf13/cobra"
)

var (
	enableFlags struct {
		chainID    int64
		account    string
		initCode   string
		guardians  []string
		weights    []string
		threshold  string
		delay      time.Duration
		expiry     time.Duration
		privateKey string
	}

	enableCmd = &cobra.Command{
		Use:   "enable",
		Short: "Install the email recovery module on a Safe",
		Long: `Submit one user operation that enables the Safe7579 adapter on a Safe and
installs the email recovery executor with the given guardians.
The operation is signed with --private-key, or PRIVATE_KEY when unset.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := parseAddress(enableFlags.account)
			if err != nil {
				return err
			}
			initCode, err := parseHex(enableFlags.initCode)
			if err != nil {
				return fmt.Errorf("init code: %w", err)
			}
			config, err := recoveryConfig()
			if err != nil {
				return err
			}

			rawKey := enableFlags.privateKey
			if rawKey == "" {
				rawKey = os.Getenv("PRIVATE_KEY")
			}
			if rawKey == "" {
				return errors.New("no signer key: set --private-key or PRIVATE_KEY")
			}
			// a configured key never touches the store
			signer, err := service.LoadSignerKey(cmd.Context(), nil, rawKey)
			if err != nil {
				return err
			}

			blockchain, err := loadBlockchain()
			if err != nil {
				return err
			}
			defer blockchain.Close()

			result, err := service.NewRecoveryService(blockchain, signer).EnableRecovery(cmd.Context(), service.EnableRecoveryRequest{
				ChainID:  enableFlags.chainID,
				Account:  domain.Account{Address: account, InitCode: initCode},
				Recovery: config,
			})
			if err != nil {
				return describe(cmd, err)
			}
			return printJSON(cmd, result)
		},
	}
)

func recoveryConfig() (safe7579.RecoveryConfig, error) {
	guardians, err := parseAddresses(enableFlags.guardians)
	if err != nil {
		return safe7579.RecoveryConfig{}, err
	}
	config := safe7579.NewRecoveryConfig(guardians)

	if len(enableFlags.weights) > 0 {
		config.Weights = make([]*big.Int, 0, len(enableFlags.weights))
		for i, w := range enableFlags.weights {
			weight, err := erc7579.ParseValue(w)
			if err != nil {
				return safe7579.RecoveryConfig{}, fmt.Errorf("weight %d: %w", i, err)
			}
			config.Weights = append(config.Weights, weight)
		}
	}
	if enableFlags.threshold != "" {
		if config.Threshold, err = erc7579.ParseValue(enableFlags.threshold); err != nil {
			return safe7579.RecoveryConfig{}, fmt.Errorf("threshold: %w", err)
		}
	}
	config.Delay = enableFlags.delay
	config.Expiry = enableFlags.expiry

	if err := config.Validate(); err != nil {
		return safe7579.RecoveryConfig{}, err
	}
	return config, nil
}

func init() {
	flags := enableCmd.Flags()
	flags.Int64Var(&enableFlags.chainID, "chain-id", 0, "Chain id of a configured network")
	flags.StringVar(&enableFlags.account, "account", "", "Safe address")
	flags.StringVar(&enableFlags.initCode, "init-code", "", "Init code when the Safe is not deployed yet")
	flags.StringArrayVar(&enableFlags.guardians, "guardian", nil, "Guardian address (repeatable)")
	flags.StringArrayVar(&enableFlags.weights, "weight", nil, "Guardian weight, one per guardian (repeatable)")
	flags.StringVar(&enableFlags.threshold, "threshold", "", "Guardian weight needed to recover (default 1)")
	flags.DurationVar(&enableFlags.delay, "delay", safe7579.DefaultRecoveryDelay, "Delay before a recovery can complete")
	flags.DurationVar(&enableFlags.expiry, "expiry", safe7579.DefaultRecoveryExpiry, "Time a recovery request stays valid")
	flags.StringVar(&enableFlags.privateKey, "private-key", "", "Owner key signing the user operation")
	_ = enableCmd.MarkFlagRequired("chain-id")
	_ = enableCmd.MarkFlagRequired("account")
	_ = enableCmd.MarkFlagRequired("guardian")

	rootCmd.AddCommand(enableCmd)
}
