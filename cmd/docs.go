package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iksnae/modular-chat/internal"
	"github.com/spf13/cobra"
)

// docsCmd represents the docs command
var docsCmd = &cobra.Command{
	Use:   "docs [file...]",
	Short: "Add documents to the backend's vector store",
	Long: `Add documents to the backend's vector store for retrieval.

Every non-blank line is one document. Lines are read from the given files,
or from standard input when no file is given.

Examples:
  modular-chat docs notes.txt
  printf 'first fact\nsecond fact\n' | modular-chat docs`,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readDocuments(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		out, err := a.ctrl.AddDocuments(ctx, raw)
		if out != nil {
			fmt.Fprintln(cmd.OutOrStdout(), out.Status)
		}
		return err
	},
}

func readDocuments(stdin io.Reader, files []string) (string, error) {
	if len(files) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read standard input: %w", err)
		}
		return string(data), nil
	}

	var b strings.Builder
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", f, err)
		}
		internal.LogDebug("Read %d bytes from %s", len(data), f)
		b.Write(data)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func init() {
	rootCmd.AddCommand(docsCmd)
}
