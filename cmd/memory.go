package cmd

import (
	"fmt"

	"github.com/iksnae/modular-chat/internal"
	"github.com/spf13/cobra"
)

// memoryCmd represents the memory command
var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Show the agent's long-term memory for this user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		var memories []string
		err = internal.ShowProgress(ctx, "Loading memory...", func() error {
			var err error
			memories, err = a.ctrl.LoadMemory(ctx)
			return err
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(memories) == 0 {
			fmt.Fprintln(out, a.ctrl.Labels().NoMemories)
			return nil
		}
		for _, m := range memories {
			fmt.Fprintf(out, "• %s\n", m)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(memoryCmd)
}
