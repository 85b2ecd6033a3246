package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/uqlabs/internal/appconfig"
	"pkt.systems/uqlabs/internal/settings"
	"pkt.systems/uqlabs/schema"
)

func newSettingsCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage assistant API keys and custom models",
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file")

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show configured providers and custom models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSettings(cmd.Context(), cfgPath)
			if err != nil {
				return err
			}
			current, err := store.Load()
			if err != nil {
				return err
			}
			return printSettings(cmd.OutOrStdout(), current)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set-key <provider> [key]",
		Short: "Set an API key; omit the key to remove it",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 2 {
				key = args[1]
			}
			return updateSettings(cmd.Context(), cfgPath, func(s settings.Settings) settings.Settings {
				return s.WithAPIKey(args[0], key)
			})
		},
	})
	var modelName, modelProvider string
	addModel := &cobra.Command{
		Use:   "add-model <id>",
		Short: "Add or replace a custom model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateSettings(cmd.Context(), cfgPath, func(s settings.Settings) settings.Settings {
				return s.WithModel(settings.CustomModel{ID: schema.ModelID(args[0]), Name: modelName, Provider: modelProvider})
			})
		},
	}
	addModel.Flags().StringVar(&modelName, "name", "", "display name (defaults to the id)")
	addModel.Flags().StringVar(&modelProvider, "provider", "", "provider whose API key the model uses")
	cmd.AddCommand(addModel)
	cmd.AddCommand(&cobra.Command{
		Use:   "remove-model <id>",
		Short: "Remove a custom model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateSettings(cmd.Context(), cfgPath, func(s settings.Settings) settings.Settings {
				return s.WithoutModel(schema.ModelID(args[0]))
			})
		},
	})
	return cmd
}

func openSettings(ctx context.Context, cfgPath string) (*settings.FileStore, error) {
	cfg, err := appconfig.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	return settings.NewFileStore(cfg.StateDir, pslog.Ctx(ctx))
}

func updateSettings(ctx context.Context, cfgPath string, apply func(settings.Settings) settings.Settings) error {
	store, err := openSettings(ctx, cfgPath)
	if err != nil {
		return err
	}
	current, err := store.Load()
	if err != nil {
		return err
	}
	next, err := apply(current).Normalize()
	if err != nil {
		return err
	}
	if err := store.Save(next); err != nil {
		return err
	}
	pslog.Ctx(ctx).Info("settings saved", "providers", len(next.APIKeys), "custom_models", len(next.CustomModels))
	return nil
}

func printSettings(w io.Writer, s settings.Settings) error {
	var b strings.Builder
	b.WriteString("providers:\n")
	providers := s.Providers()
	if len(providers) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, provider := range providers {
		fmt.Fprintf(&b, "  %s: %s\n", provider, maskKey(s.APIKeys[provider]))
	}
	b.WriteString("custom models:\n")
	if len(s.CustomModels) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, model := range s.CustomModels {
		fmt.Fprintf(&b, "  %s (%s)", model.ID, model.Name)
		if model.Provider != "" {
			fmt.Fprintf(&b, " via %s", model.Provider)
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
