package commands

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var (
	statusChainID int64

	statusCmd = &cobra.Command{
		Use:   "status <userOpHash>",
		Short: "Show the bundler receipt of a user operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := hexutil.Decode(args[0])
			if err != nil || len(raw) != common.HashLength {
				return fmt.Errorf("invalid user operation hash %q", args[0])
			}

			blockchain, err := loadBlockchain()
			if err != nil {
				return err
			}
			defer blockchain.Close()

			bundler, err := blockchain.GetBundlerClient(cmd.Context(), statusChainID)
			if err != nil {
				return describe(cmd, err)
			}

			receipt, err := bundler.GetUserOperationReceipt(cmd.Context(), common.BytesToHash(raw))
			if err != nil {
				return err
			}
			if receipt == nil {
				return printJSON(cmd, map[string]string{"status": "pending"})
			}

			status := "success"
			if !receipt.Success {
				status = "failed"
			}
			return printJSON(cmd, map[string]interface{}{
				"status":  status,
				"receipt": receipt,
			})
		},
	}
)

func init() {
	statusCmd.Flags().Int64Var(&statusChainID, "chain-id", 0, "Chain id of a configured network")
	_ = statusCmd.MarkFlagRequired("chain-id")

	rootCmd.AddCommand(statusCmd)
}
