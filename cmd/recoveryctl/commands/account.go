package commands

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethaccount/recovery/safe7579"
	"github.com/ethaccount/recovery/src/service"
	"github.com/spf13/cobra"
)

var (
	planFlags struct {
		chainID    int64
		salt       string
		owners     []string
		threshold  uint64
		validators []string
		executors  []string
		fallbacks  []string
		hooks      []string
		exec       string
	}

	planCmd = &cobra.Command{
		Use:   "plan",
		Short: "Plan a counterfactual Safe7579 account",
		Long: `Compute the address, init code and first call of a new Safe7579 account.
The launchpad init hash and proxy creation code are read from the chain.

	recoveryctl plan --chain-id 84532 --owner 0xOwner \
		--validator 0xValidator,0xinitData --exec 0xTarget,0,0x`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := planRequest()
			if err != nil {
				return err
			}

			blockchain, err := loadBlockchain()
			if err != nil {
				return err
			}
			defer blockchain.Close()

			plan, err := blockchain.PlanAccount(cmd.Context(), planFlags.chainID, req)
			if err != nil {
				return describe(cmd, err)
			}
			return printJSON(cmd, plan)
		},
	}
)

func planRequest() (service.DeploymentRequest, error) {
	salt := new(big.Int)
	if planFlags.salt != "" {
		if _, ok := salt.SetString(planFlags.salt, 0); !ok || salt.Sign() < 0 {
			return service.DeploymentRequest{}, fmt.Errorf("invalid salt %q", planFlags.salt)
		}
	}

	owners, err := parseAddresses(planFlags.owners)
	if err != nil {
		return service.DeploymentRequest{}, err
	}
	if len(planFlags.validators) == 0 {
		return service.DeploymentRequest{}, errors.New("at least one --validator is required")
	}

	req := service.DeploymentRequest{
		SaltNonce: salt,
		Safe: safe7579.SafeConfig{
			Owners:    owners,
			Threshold: planFlags.threshold,
		},
	}
	if req.Validators, err = parseModules(planFlags.validators); err != nil {
		return service.DeploymentRequest{}, err
	}
	if req.Executors, err = parseModules(planFlags.executors); err != nil {
		return service.DeploymentRequest{}, err
	}
	if req.Fallbacks, err = parseModules(planFlags.fallbacks); err != nil {
		return service.DeploymentRequest{}, err
	}
	if req.Hooks, err = parseModules(planFlags.hooks); err != nil {
		return service.DeploymentRequest{}, err
	}
	if req.InitialExecution, err = parseExecution(planFlags.exec); err != nil {
		return service.DeploymentRequest{}, err
	}
	return req, nil
}

func init() {
	flags := planCmd.Flags()
	flags.Int64Var(&planFlags.chainID, "chain-id", 0, "Chain id of a configured network")
	flags.StringVar(&planFlags.salt, "salt", "0", "Salt nonce, decimal or 0x hex")
	flags.StringArrayVar(&planFlags.owners, "owner", nil, "Safe owner address (repeatable)")
	flags.Uint64Var(&planFlags.threshold, "threshold", 1, "Safe owner threshold")
	flags.StringArrayVar(&planFlags.validators, "validator", nil, "Validator as module[,initData] (repeatable)")
	flags.StringArrayVar(&planFlags.executors, "executor", nil, "Executor as module[,initData] (repeatable)")
	flags.StringArrayVar(&planFlags.fallbacks, "fallback", nil, "Fallback handler as module[,initData] (repeatable)")
	flags.StringArrayVar(&planFlags.hooks, "hook", nil, "Hook as module[,initData] (repeatable)")
	flags.StringVar(&planFlags.exec, "exec", "", "First execution as target[,value[,callData]]")
	_ = planCmd.MarkFlagRequired("chain-id")
	_ = planCmd.MarkFlagRequired("owner")
	_ = planCmd.MarkFlagRequired("exec")

	rootCmd.AddCommand(planCmd)
}
