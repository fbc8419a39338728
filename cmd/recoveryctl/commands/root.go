package commands

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/ethaccount/recovery/src/app"
	"github.com/ethaccount/recovery/src/domain"
	"github.com/ethaccount/recovery/src/service"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	networksFile = "config/networks.yaml"
	logLevel     = "info"
	timeout      time.Duration
	cancel       context.CancelFunc = func() {}

	rootCmd = &cobra.Command{
		Use:   "recoveryctl",
		Short: "Safe7579 email recovery CLI",
		Long: `recoveryctl builds ERC-7579 calldata, plans Safe7579 accounts and
submits the user operation that installs the email recovery module.

Commands that talk to a chain read the network registry given by --networks.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env is optional
			_ = godotenv.Load()

			logger := app.InitLogger(logLevel, true)
			ctx := logger.WithContext(cmd.Context())
			if timeout > 0 {
				ctx, cancel = context.WithTimeout(ctx, timeout)
			}
			cmd.SetContext(ctx)
		},
	}
)

func Execute() {
	err := rootCmd.ExecuteContext(context.Background())
	cancel()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&networksFile, "networks", "n", networksFile, "Path to the network registry file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", logLevel, "Log level")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Abort chain and bundler calls after this long (0 waits forever)")
}

// loadBlockchain opens the network registry. Callers close the returned service.
func loadBlockchain() (*service.BlockchainService, error) {
	networks, err := app.LoadNetworks(networksFile)
	if err != nil {
		return nil, err
	}
	return service.NewBlockchainService(networks), nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// describe prints the error code and message of a domain error before
// cobra prints the cause.
func describe(cmd *cobra.Command, err error) error {
	var domainErr domain.DomainError
	if errors.As(err, &domainErr) {
		event := zerolog.Ctx(cmd.Context()).Error().Str("code", domainErr.Name())
		if detail := domainErr.Detail(); detail != nil {
			event = event.Interface("detail", detail)
		}
		event.Msg(domainErr.ClientMsg())
	}
	return err
}
