package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List chats",
	Long:  `List all chats in creation order. The active chat is marked with *.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		view, err := a.ctrl.View(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(view.Sessions) == 0 {
			fmt.Fprintln(out, a.ctrl.Labels().NoChats)
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, " \t%s\t%s\t%s\n", headerStyle.Render("ID"), headerStyle.Render("TITLE"), headerStyle.Render("MESSAGES"))
		for _, s := range view.Sessions {
			msgs, err := a.ctrl.Log().Load(ctx, s.ID)
			if err != nil {
				return err
			}
			marker := " "
			if s.ID == view.ActiveID {
				marker = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				marker,
				idStyle.Render(s.ID),
				titleStyle.Render(s.Title),
				countStyle.Render(fmt.Sprintf("%d", len(msgs))),
			)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
