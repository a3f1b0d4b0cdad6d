package cmd

import (
	"fmt"
	"strings"

	"github.com/iksnae/modular-chat/internal"
	"github.com/iksnae/modular-chat/internal/export"
	"github.com/spf13/cobra"
)

var (
	exportFormat    string
	exportOut       string
	exportSessionID string
	exportAll       bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export chats to files",
	Long: `Export a chat transcript to chat_<id>.<ext> in the output directory.

Supported formats: ` + strings.Join(export.Formats, ", ") + `

Examples:
  modular-chat export                                  # Active chat as text
  modular-chat export --format md --out ./exports     # Active chat as Markdown
  modular-chat export --session-id chat_01j... --format json
  modular-chat export --all --format yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(exportFormat)
		if err != nil {
			return err
		}
		if exportAll && exportSessionID != "" {
			return fmt.Errorf("--all and --session-id cannot be used together")
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		ids := []string{exportSessionID}
		if exportAll {
			sessions, err := a.ctrl.Registry().ListSessions(ctx)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				internal.PrintInfo(a.ctrl.Labels().NoChats)
				return nil
			}
			ids = ids[:0]
			for _, s := range sessions {
				ids = append(ids, s.ID)
			}
		}

		for _, id := range ids {
			path, err := export.ExportSession(ctx, a.ctrl, id, exportOut, exporter)
			if err != nil {
				return err
			}
			internal.PrintSuccess(fmt.Sprintf(a.ctrl.Labels().ExportedFormat, path))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportFormat, "format", "txt", "Export format ("+strings.Join(export.Formats, ", ")+")")
	exportCmd.Flags().StringVar(&exportOut, "out", ".", "Output directory")
	exportCmd.Flags().StringVar(&exportSessionID, "session-id", "", "Chat to export (default: the active chat)")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "Export every chat")
}
