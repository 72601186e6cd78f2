package main

import (
	"log/slog"
	"os"

	"github.com/GoArmGo/PhotoPrint/internal/app"
	"github.com/GoArmGo/PhotoPrint/internal/di"
	"github.com/spf13/cobra"
)

// bootstrap-логгер используется только до сборки основного логгера
var bootstrapLogger = slog.New(
	slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
)

var rootCmd = &cobra.Command{
	Use:   "photoprint",
	Short: "Photo print ordering storefront",
	Long: `PhotoPrint serves the photo print ordering API: upload up to a fixed number
of photos, pick a print size for each, review the total and confirm the order.

Configuration is read from environment variables (and .env when present).

Examples:
  photoprint server
  photoprint worker`,
	SilenceUsage: true,
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd, app.ModeServer)
	},
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume order notices from RabbitMQ and hand confirmed orders to fulfilment",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd, app.ModeWorker)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd, workerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, mode string) error {
	bootstrapLogger.Info("starting application", "mode", mode)

	application, err := di.BuildApp(cmd.Context())
	if err != nil {
		bootstrapLogger.Error("failed to build app", "error", err)
		return err
	}

	log := application.LoggerIns()
	if err := application.Run(cmd.Context(), mode); err != nil {
		log.Error("application run failed", "error", err)
		return err
	}
	return nil
}
