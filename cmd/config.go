package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/modular-chat/internal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configInit bool

var (
	configSectionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("62")).
				Bold(true).
				Underline(true)

	configPathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved configuration and where it comes from",
	Long: `Show the configuration after applying the config file, .env,
MODULAR_CHAT_* environment variables and command-line flags.

With --init, write the default configuration file if none exists yet.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		dataDir, err := internal.DetectDataDir()
		if err != nil {
			return err
		}
		path := configPath
		if path == "" {
			path = internal.DefaultConfigPath(dataDir)
		}

		if configInit {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config file already exists: %s", path)
			}
			if err := internal.DefaultConfig(dataDir).Save(path); err != nil {
				return err
			}
			internal.PrintSuccess("Wrote " + path)
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		fmt.Fprintln(out, configSectionStyle.Render("📂 Locations"))
		fmt.Fprintf(out, "Data directory: %s\n", configPathStyle.Render(dataDir))
		status := "not found, using defaults"
		if _, err := os.Stat(path); err == nil {
			status = "found"
		}
		fmt.Fprintf(out, "Config file:    %s (%s)\n", configPathStyle.Render(path), status)
		fmt.Fprintln(out)

		fmt.Fprintln(out, configSectionStyle.Render("⚙️  Settings"))
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		fmt.Fprint(out, string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().BoolVar(&configInit, "init", false, "Write the default config file")
}
