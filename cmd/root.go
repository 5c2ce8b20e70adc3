package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lgch/luna/internal/config"
)

// rootCmd represents the base command for the luna application
var rootCmd = &cobra.Command{
	Use:   "luna",
	Short: "Voice productivity assistant for todos, reminders and calendar events",
	Long: `Luna is a personal productivity assistant you talk to. It keeps todos,
reminders and calendar events in a database, mirrors them to Google Calendar,
and answers spoken or typed requests through a language model agent.

It can run as:
  - An HTTP server for Twilio phone calls, the /run_agent API and MCP (serve)
  - An MCP server over stdio for AI assistants (serve --transport stdio)
  - An interactive chat in the terminal (chat)`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// Persistent flags shared by every subcommand.
var (
	configFile string
	debugMode  bool
)

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "luna version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: $XDG_CONFIG_HOME/luna/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newResyncCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// loadConfig reads the config file and environment, then applies the
// flags the user set explicitly on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("debug") {
		cfg.Debug = debugMode
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of luna",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "luna version %s\n", version)
		},
	}
}
