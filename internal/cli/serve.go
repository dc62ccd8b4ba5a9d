package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/allobrice/claude-telegram-bridge/internal/config"
	"github.com/allobrice/claude-telegram-bridge/internal/supervisor"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge server until shutdown",
	RunE: func(cmd *cobra.Command, args []string) error {
		printHeader("🚀 bridgectl serve")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("serve: loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, color.RedString("✗ "+err.Error()))
			fmt.Fprintln(os.Stderr, "Copy this into "+config.ConfigDir+"/"+config.ConfigFile+":")
			fmt.Fprintln(os.Stderr, config.ExampleConfig)
			return err
		}

		fmt.Printf("Listening: %s\n", cfg.Addr())
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		sup := supervisor.New(cfg, logger)
		return sup.Run(cmd.Context())
	},
}
