package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iksnae/modular-chat/internal"
	"github.com/iksnae/modular-chat/internal/chat"
	"github.com/iksnae/modular-chat/internal/gateway"
	"github.com/spf13/cobra"
)

var (
	sendSteps bool
	sendQuick string
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [message...]",
	Short: "Send a message in the active chat and print the reply",
	Long: `Send a message in the active chat and print the agent's reply.

The message and the reply are stored in the chat history. If the backend
fails, the user message is kept and the error is printed.

Quick prompts:
  hello   ask what the agent can do
  rag     search the vector store
  tool    call the external_api_mock tool`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if cmd.Flags().Changed("steps") {
			a.ctrl.SetShowSteps(sendSteps)
		}

		text := strings.Join(args, " ")
		if sendQuick != "" {
			if text, err = quickPrompt(a.ctrl.Labels(), sendQuick); err != nil {
				return err
			}
		}

		if _, err := a.ctrl.Start(ctx); err != nil {
			return err
		}

		pending, err := a.ctrl.BeginSend(ctx, text)
		if errors.Is(err, chat.ErrEmptyInput) {
			return fmt.Errorf("nothing to send")
		}
		if err != nil {
			return err
		}

		var reply *gateway.ChatReply
		sendErr := internal.ShowProgress(ctx, a.ctrl.Labels().Waiting, func() error {
			var err error
			reply, err = a.ctrl.Request(ctx, pending)
			return err
		})

		out, err := a.ctrl.CompleteSend(ctx, pending, reply, sendErr)
		if err != nil {
			return err
		}
		if out.Err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), out.ErrorMarker.Text)
			return out.Err
		}
		if out.Dropped {
			internal.PrintWarning(a.ctrl.Labels().DroppedNote)
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), out.Reply.Text)
		if out.Reply.Meta != "" {
			fmt.Fprintln(cmd.OutOrStdout(), timestampStyle.Render(out.Reply.Meta))
		}
		return nil
	},
}

func quickPrompt(labels chat.Labels, name string) (string, error) {
	switch name {
	case "hello":
		return labels.QuickHello, nil
	case "rag":
		return labels.QuickRAG, nil
	case "tool":
		return labels.QuickTool, nil
	default:
		return "", fmt.Errorf("unknown quick prompt: %s (supported: hello, rag, tool)", name)
	}
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().BoolVar(&sendSteps, "steps", false, "Annotate the reply with the number of agent steps")
	sendCmd.Flags().StringVar(&sendQuick, "quick", "", "Send a quick prompt instead of a message (hello, rag, tool)")
}
