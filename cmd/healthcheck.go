package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/iksnae/modular-chat/internal"
	"github.com/iksnae/modular-chat/internal/chat"
	"github.com/iksnae/modular-chat/internal/store"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var healthcheckTimeout time.Duration

// checkResult is the outcome of one health probe
type checkResult struct {
	name   string
	target string
	err    error
}

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that the store and the backend are reachable",
	Long: `Check that the configured store opens and answers, and that the backend
accepts connections. Both probes run concurrently and are bounded by --timeout.

Exits non-zero if any check fails.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), healthcheckTimeout)
		defer cancel()

		results := []checkResult{
			{name: "store", target: cfg.Store},
			{name: "backend", target: cfg.BackendURL},
		}
		var sessions int

		// Probes report through results; the group never fails early.
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			s, err := store.Open(gctx, cfg.Store)
			if err != nil {
				results[0].err = err
				return nil
			}
			defer func() { _ = s.Close() }()
			if err := s.Ping(gctx); err != nil {
				results[0].err = err
				return nil
			}
			list, err := chat.NewRegistry(s, nil, chat.KeysFor(cfg.Namespace), "").ListSessions(gctx)
			if err != nil {
				results[0].err = err
				return nil
			}
			sessions = len(list)
			return nil
		})
		g.Go(func() error {
			labels, _ := chat.LabelsFor(cfg.Locale)
			results[1].err = newClient(cfg, labels).Ping(gctx)
			return nil
		})
		_ = g.Wait()

		out := cmd.OutOrStdout()
		failed := 0
		for _, r := range results {
			if r.err != nil {
				failed++
				fmt.Fprintf(out, "✗ %s (%s): %v\n", r.name, r.target, r.err)
				continue
			}
			fmt.Fprintf(out, "✓ %s (%s)\n", r.name, r.target)
		}
		if results[0].err == nil {
			fmt.Fprintf(out, "  %d chat(s) stored\n", sessions)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d checks failed", failed, len(results))
		}
		internal.LogDebug("All health checks passed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().DurationVar(&healthcheckTimeout, "timeout", 5*time.Second, "Time allowed for all checks")
}
