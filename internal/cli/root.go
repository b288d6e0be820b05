package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "stashctl",
		Short: "CLI tool for the world-state server API",
		Long: `stashctl is a CLI tool for interacting with the shared world-state
JSON API.

It supports all API operations including placing and collecting objects,
player management, live location queries, and real-time websocket event
streaming.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			client = NewClient(cfg.ServerURL)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: STASHCTL_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.DeviceUUID, "device", cfg.DeviceUUID, "Device UUID used as your identity (env: STASHCTL_DEVICE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newObjectCmd())
	rootCmd.AddCommand(newFindsCmd())
	rootCmd.AddCommand(newPlayerCmd())
	rootCmd.AddCommand(newLocationCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newEventsCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
