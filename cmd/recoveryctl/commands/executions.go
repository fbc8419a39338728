package commands

import (
	"fmt"

	"github.com/ethaccount/recovery/erc7579"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var (
	executionArgs []string

	encodeCmd = &cobra.Command{
		Use:   "encode",
		Short: "Encode executions as ERC-7579 execute calldata",
		Long: `Encode one or more calls as execute(bytes32,bytes) calldata.
One --exec uses single mode, more use batch mode in the given order.

	recoveryctl encode --exec 0xTarget,1000,0xdeadbeef --exec 0xOther`,
		RunE: func(cmd *cobra.Command, args []string) error {
			executions := make([]erc7579.Execution, 0, len(executionArgs))
			for _, s := range executionArgs {
				execution, err := parseExecution(s)
				if err != nil {
					return err
				}
				executions = append(executions, execution)
			}

			callData, err := erc7579.Encode(executions)
			if err != nil {
				return err
			}

			callType := erc7579.CallTypeSingle
			if len(executions) > 1 {
				callType = erc7579.CallTypeBatch
			}
			return printJSON(cmd, map[string]interface{}{
				"callType": callType.String(),
				"callData": hexutil.Bytes(callData),
			})
		},
	}

	decodeCmd = &cobra.Command{
		Use:   "decode <callData>",
		Short: "Decode ERC-7579 execute calldata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := parseHex(args[0])
			if err != nil {
				return fmt.Errorf("callData: %w", err)
			}

			callType, executions, err := erc7579.Decode(data)
			if err != nil {
				return err
			}

			type executionJSON struct {
				Target   string        `json:"target"`
				Value    string        `json:"value"`
				CallData hexutil.Bytes `json:"callData"`
			}
			out := make([]executionJSON, 0, len(executions))
			for _, e := range executions {
				out = append(out, executionJSON{
					Target:   e.Target.Hex(),
					Value:    e.Value.String(),
					CallData: e.CallData,
				})
			}
			return printJSON(cmd, map[string]interface{}{
				"callType":   callType.String(),
				"executions": out,
			})
		},
	}
)

func init() {
	encodeCmd.Flags().StringArrayVarP(&executionArgs, "exec", "e", nil, "Execution as target[,value[,callData]] (repeatable)")
	_ = encodeCmd.MarkFlagRequired("exec")

	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(decodeCmd)
}
