package cmd

import (
	"github.com/iksnae/modular-chat/internal"
	"github.com/spf13/cobra"
)

// clearCmd represents the clear command
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the history of the active chat",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		view, err := a.ctrl.ClearActive(cmd.Context())
		if err != nil {
			return err
		}
		internal.PrintSuccess("Cleared " + view.ActiveID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
}
