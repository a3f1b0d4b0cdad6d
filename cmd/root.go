package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iksnae/modular-chat/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	storeDSN   string
	backendURL string
	locale     string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "modular-chat",
	Short: "Terminal chat client for the ModularAI backend",
	Long: `A terminal chat client for the ModularAI agent backend.

Conversations are kept locally (SQLite by default, or Redis) and sent to the
backend's /chat endpoint. Long-term memory and the RAG document store are
reachable through /memory and /documents.

Features:
  • Multiple chats with titles, switching and deletion
  • Interactive terminal UI with markdown replies
  • Scriptable subcommands for sending, listing and exporting
  • Export transcripts as text, Markdown, JSON, JSONL or YAML

Quick Start:
  modular-chat                          # Open the interactive chat
  modular-chat send "Hello!"            # Send one message, print the reply
  modular-chat list                     # List chats
  modular-chat export --format md       # Export the active chat`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
		internal.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
	RunE: runChat,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		internal.PrintError(fmt.Sprintf("Error: %v", err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default is config.yaml in the data directory)")
	rootCmd.PersistentFlags().StringVar(&storeDSN, "store", "", "Store location: SQLite path, redis:// URL or memory:")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "Backend base URL (default "+internal.DefaultBackendURL+")")
	rootCmd.PersistentFlags().StringVar(&locale, "locale", "", "Interface language: en or pt")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
