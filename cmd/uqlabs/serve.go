package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/uqlabs"
	"pkt.systems/uqlabs/internal/settings"
	"pkt.systems/uqlabs/internal/version"
)

func newServeCmd() *cobra.Command {
	var cfgPath string
	var noBanner bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logMode := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_MODE")))
			showBanner := !noBanner && logMode != "json" && logMode != "structured"
			if showBanner {
				r, err := newRenderer(cmd.OutOrStdout(), false)
				if err == nil {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), r.Title("UQuantum Labs "+version.Current()))
				}
			}
			logger := pslog.Ctx(cmd.Context())
			env, err := loadRuntime(cmd.Context(), cfgPath)
			if err != nil {
				return err
			}
			cache := settings.NewCached(env.settings)
			env.settingsSvc = cache
			server, err := env.newServer(uqlabs.WithHTTP())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Stop(stopCtx); err != nil {
					logger.Warn("server stop failed", "err", err)
				}
			}()
			go func() {
				if err := cache.Follow(ctx, env.settings, func(s settings.Settings) {
					logger.Info("settings cache refreshed", "providers", len(s.APIKeys), "custom_models", len(s.CustomModels))
				}); err != nil {
					logger.Warn("settings watch failed", "err", err)
				}
			}()
			logger.Info("http server listening", "addr", env.cfg.HTTP.Addr, "backend", env.client.BaseURL())
			if err := server.Start(ctx); err != nil {
				return err
			}
			return server.Wait()
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().BoolVar(&noBanner, "no-banner", false, "disable startup banner")
	return cmd
}
