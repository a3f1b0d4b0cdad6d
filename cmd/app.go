package cmd

import (
	"fmt"

	"github.com/iksnae/modular-chat/internal"
	"github.com/iksnae/modular-chat/internal/chat"
	"github.com/iksnae/modular-chat/internal/gateway"
	"github.com/iksnae/modular-chat/internal/store"
	"github.com/spf13/cobra"
)

// app bundles the store, the backend client and the controller of one run
type app struct {
	cfg    *internal.Config
	store  store.Store
	client *gateway.Client
	ctrl   *chat.Controller
}

// loadConfig reads the configuration and applies command-line overrides
func loadConfig(cmd *cobra.Command) (*internal.Config, error) {
	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.Store = storeDSN
	}
	if flags.Changed("backend") {
		cfg.BackendURL = backendURL
	}
	if flags.Changed("locale") {
		cfg.Locale = locale
	}
	return cfg, nil
}

func newClient(cfg *internal.Config, labels chat.Labels) *gateway.Client {
	return gateway.New(cfg.BackendURL,
		gateway.WithTimeout(cfg.RequestTimeout),
		gateway.WithDefaultMessages(labels.GatewayMessages()),
	)
}

func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	s, err := store.Open(cmd.Context(), cfg.Store)
	if err != nil {
		return nil, err
	}
	internal.LogDebug("Using store %s, backend %s", cfg.Store, cfg.BackendURL)

	labels, ok := chat.LabelsFor(cfg.Locale)
	if !ok {
		internal.PrintWarning(fmt.Sprintf("Unknown locale %q, using %s", cfg.Locale, chat.DefaultLocale))
	}

	client := newClient(cfg, labels)
	return &app{
		cfg:    cfg,
		store:  s,
		client: client,
		ctrl: chat.NewController(s, client, chat.Options{
			Namespace: cfg.Namespace,
			Labels:    labels,
			ShowSteps: cfg.ShowSteps,
		}),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		internal.LogWarn("Failed to close store: %v", err)
	}
}
