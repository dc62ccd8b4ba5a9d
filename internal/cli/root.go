// Package cli implements the bridgectl command surface: `serve` (runs the
// supervisor until shutdown), `status` (calls the local /status endpoint and
// renders it), and `version`.
package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/allobrice/claude-telegram-bridge/internal/cli.version=1.2.3"
	version = "0.1.0"
	logo    = "\n" +
		"  _          _     _            \n" +
		" | |__  _ __(_) __| | __ _  ___ \n" +
		" | '_ \\| '__| |/ _` |/ _` |/ _ \\\n" +
		" | |_) | |  | | (_| | (_| |  __/\n" +
		" |_.__/|_|  |_|\\__,_|\\__, |\\___|\n" +
		"                     |___/      \n"
)

var rootCmd = &cobra.Command{
	Use:   "bridgectl",
	Short: "Approval-and-messaging bridge between agent hooks and a Telegram operator",
	Long:  color.CyanString(logo) + "\nA local control-plane that turns sensitive tool calls into Telegram approvals.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func printHeader(title string) {
	fmt.Println(color.CyanString(logo))
	if title != "" {
		fmt.Println(title)
		fmt.Println("─────────────────────")
	}
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
}
