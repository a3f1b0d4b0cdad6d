package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/modular-chat/internal"
	"github.com/iksnae/modular-chat/internal/chat"
	"github.com/spf13/cobra"
)

var (
	showLimit int
	showRaw   bool
)

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	agentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show [chat-id]",
	Short: "Show the messages of a chat (default: the active chat)",
	Long: `Show the messages of a chat. Agent replies are rendered as Markdown
unless --raw is given, which prints the plain transcript lines instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		id := ""
		if len(args) > 0 {
			id = args[0]
		}
		tr, err := a.ctrl.Transcript(cmd.Context(), id)
		if err != nil {
			return err
		}

		msgs := tr.Messages
		if showLimit > 0 && len(msgs) > showLimit {
			msgs = msgs[len(msgs)-showLimit:]
		}

		out := cmd.OutOrStdout()
		if showRaw {
			for line := range chat.TranscriptLines(msgs) {
				fmt.Fprintln(out, line)
			}
			return nil
		}

		title := tr.Session.Title
		if title == "" {
			title = tr.Session.ID
		}
		fmt.Fprintln(out, titleStyle.Render(title))
		fmt.Fprintln(out, idStyle.Render(tr.Session.ID))
		fmt.Fprintln(out)

		if len(msgs) == 0 {
			fmt.Fprintln(out, "No messages.")
			return nil
		}

		style := "notty"
		if internal.IsTerminal(out) {
			style = "dark"
		}

		for _, m := range msgs {
			when := m.Time().Local().Format("15:04:05")
			switch m.Role {
			case chat.RoleAgent:
				fmt.Fprintf(out, "%s %s\n", agentStyle.Render("agent"), timestampStyle.Render(joinMeta(m.Meta, when)))
				rendered, err := glamour.Render(m.Text, style)
				if err != nil {
					internal.LogDebug("Markdown render failed: %v", err)
					rendered = m.Text + "\n"
				}
				fmt.Fprint(out, rendered)
			default:
				fmt.Fprintf(out, "%s %s\n", userStyle.Render(string(m.Role)), timestampStyle.Render(joinMeta(m.Meta, when)))
				fmt.Fprintln(out, m.Text)
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

func joinMeta(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " · ")
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVar(&showLimit, "limit", 0, "Show only the last N messages (0 = all)")
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "Print plain transcript lines")
}
