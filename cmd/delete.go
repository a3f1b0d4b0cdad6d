package cmd

import (
	"fmt"

	"github.com/iksnae/modular-chat/internal"
	"github.com/spf13/cobra"
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete [chat-id]",
	Short: "Delete a chat and its history (default: the active chat)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		id := ""
		if len(args) > 0 {
			id = args[0]
		}
		if id == "" {
			if id, err = a.ctrl.Registry().ActiveID(ctx); err != nil {
				return err
			}
		}

		view, err := a.ctrl.Delete(ctx, id)
		if err != nil {
			return err
		}
		internal.PrintSuccess(fmt.Sprintf("Deleted %s, active chat is now %s", id, view.ActiveID))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
