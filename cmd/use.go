package cmd

import (
	"errors"
	"fmt"

	"github.com/iksnae/modular-chat/internal"
	"github.com/iksnae/modular-chat/internal/chat"
	"github.com/spf13/cobra"
)

// useCmd represents the use command
var useCmd = &cobra.Command{
	Use:   "use <chat-id>",
	Short: "Make a chat the active one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		view, err := a.ctrl.Switch(cmd.Context(), args[0])
		if errors.Is(err, chat.ErrSessionNotFound) {
			return fmt.Errorf("chat %s not found (see 'modular-chat list')", args[0])
		}
		if err != nil {
			return err
		}
		internal.PrintSuccess(fmt.Sprintf("Switched to %q", view.ActiveTitle()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(useCmd)
}
