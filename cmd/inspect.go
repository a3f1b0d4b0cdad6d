package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/modular-chat/internal/chat"
	"github.com/iksnae/modular-chat/internal/store"
	"github.com/spf13/cobra"
)

var inspectFormat string

// keyLister is implemented by stores that can enumerate their keys
type keyLister interface {
	Keys(ctx context.Context) ([]string, error)
}

// KeyInfo describes one stored key
type KeyInfo struct {
	Key       string `json:"key"`
	Present   bool   `json:"present"`
	Bytes     int    `json:"bytes"`
	ValidJSON bool   `json:"valid_json"`
	Value     string `json:"value,omitempty"`
	Entries   int    `json:"entries,omitempty"`
}

// InspectReport is the result of inspecting a store
type InspectReport struct {
	Store     string    `json:"store"`
	Namespace string    `json:"namespace"`
	Keys      []KeyInfo `json:"keys"`
	Other     []string  `json:"other_keys,omitempty"`
}

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect the raw state kept in the store",
	Long: `Inspect the keys the client keeps in its store.

For each key of the configured namespace this shows:
  • whether it is present and its size
  • whether the value is valid JSON
  • how many chats or histories it holds

SQLite and in-memory stores also list the keys of other namespaces.

Examples:
  modular-chat inspect
  modular-chat inspect --store redis://localhost:6379/0 --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		s, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer func() { _ = s.Close() }()

		report, err := inspectStore(ctx, s, cfg.Store, cfg.Namespace)
		if err != nil {
			return err
		}

		switch inspectFormat {
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		case "text":
			printInspectReport(cmd.OutOrStdout(), report)
			return nil
		default:
			return fmt.Errorf("unsupported format: %s (supported: text, json)", inspectFormat)
		}
	},
}

func inspectStore(ctx context.Context, s store.Store, location, namespace string) (*InspectReport, error) {
	keys := chat.KeysFor(namespace)
	report := &InspectReport{Store: location, Namespace: namespace}

	for _, key := range []string{keys.ChatList, keys.ActiveChat, keys.History} {
		info := KeyInfo{Key: key}
		value, ok, err := s.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok && key == keys.ActiveChat {
			// stored as a bare id, not JSON
			info.Present = true
			info.Bytes = len(value)
			info.ValidJSON = true
			info.Value = value
		} else if ok {
			info.Present = true
			info.Bytes = len(value)
			var v interface{}
			info.ValidJSON = json.Unmarshal([]byte(value), &v) == nil
			switch t := v.(type) {
			case []interface{}:
				info.Entries = len(t)
			case map[string]interface{}:
				info.Entries = len(t)
			}
		}
		report.Keys = append(report.Keys, info)
	}

	if lister, ok := s.(keyLister); ok {
		all, err := lister.Keys(ctx)
		if err != nil {
			return nil, err
		}
		for _, k := range all {
			if k != keys.ChatList && k != keys.ActiveChat && k != keys.History {
				report.Other = append(report.Other, k)
			}
		}
	}
	return report, nil
}

func printInspectReport(w io.Writer, r *InspectReport) {
	fmt.Fprintf(w, "📋 Store: %s\n", r.Store)
	fmt.Fprintf(w, "🏷  Namespace: %s\n\n", r.Namespace)

	for _, k := range r.Keys {
		fmt.Fprintf(w, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
		fmt.Fprintf(w, "📦 Key: %s\n", k.Key)
		if !k.Present {
			fmt.Fprintf(w, "  • absent\n")
			continue
		}
		fmt.Fprintf(w, "  • bytes: %d\n", k.Bytes)
		if k.Value != "" {
			fmt.Fprintf(w, "  • value: %s\n", k.Value)
			continue
		}
		if !k.ValidJSON {
			fmt.Fprintf(w, "  ⚠️  value is not valid JSON and reads as empty\n")
			continue
		}
		fmt.Fprintf(w, "  • entries: %d\n", k.Entries)
	}

	if len(r.Other) > 0 {
		fmt.Fprintf(w, "\n📄 Other keys: %s\n", strings.Join(r.Other, ", "))
	}
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "text", "Output format (text, json)")
}
