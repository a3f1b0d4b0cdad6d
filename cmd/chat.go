package cmd

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/iksnae/modular-chat/internal"
	"github.com/iksnae/modular-chat/internal/tui"
	"github.com/spf13/cobra"
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive chat (default)",
	Long: `Open the interactive terminal chat.

Keys:
  enter      send               ^n  new chat       ^x  delete chat
  ^r         rename             ^l  clear history  ^e  export transcript
  ^o         load memory        ^u  add documents  ^t  toggle steps
  ^a         toggle autoscroll  alt+↑/↓  switch chat
  f1/f2/f3   quick prompts      ^c  quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	// log lines would tear the screen, send them to the log file
	if a.cfg.LogFile != "" {
		restore, err := internal.SetLogFile(a.cfg.LogFile)
		if err != nil {
			internal.LogWarn("Logging to stderr: %v", err)
		} else {
			defer func() { _ = restore() }()
		}
	}

	exportDir, err := os.Getwd()
	if err != nil {
		exportDir = a.cfg.DataDir
	}

	m, err := tui.New(cmd.Context(), a.ctrl, tui.Options{
		AutoScroll: a.cfg.AutoScroll,
		ExportDir:  exportDir,
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	_, err = p.Run()
	return err
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
