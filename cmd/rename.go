package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iksnae/modular-chat/internal"
	"github.com/iksnae/modular-chat/internal/chat"
	"github.com/spf13/cobra"
)

// renameCmd represents the rename command
var renameCmd = &cobra.Command{
	Use:   "rename <chat-id> [title...]",
	Short: "Rename a chat",
	Long: `Rename a chat. Titles are trimmed and cut to 40 characters; an empty
title restores the default one.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		sess, err := a.ctrl.Registry().RenameSession(cmd.Context(), args[0], strings.Join(args[1:], " "))
		if errors.Is(err, chat.ErrSessionNotFound) {
			return fmt.Errorf("chat %s not found (see 'modular-chat list')", args[0])
		}
		if err != nil {
			return err
		}
		internal.PrintSuccess(fmt.Sprintf("Renamed %s to %q", sess.ID, sess.Title))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renameCmd)
}
