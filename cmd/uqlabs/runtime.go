package main

import (
	"context"
	"io"

	"pkt.systems/pslog"
	"pkt.systems/uqlabs"
	"pkt.systems/uqlabs/core"
	"pkt.systems/uqlabs/httpapi"
	"pkt.systems/uqlabs/internal/appconfig"
	"pkt.systems/uqlabs/internal/backend"
	"pkt.systems/uqlabs/internal/format"
	"pkt.systems/uqlabs/internal/settings"
	"pkt.systems/uqlabs/internal/version"
	"pkt.systems/uqlabs/schema"
)

// runtimeEnv bundles what every backend-facing command needs.
type runtimeEnv struct {
	cfg        appconfig.Config
	serviceCfg schema.ServiceConfig
	client     *backend.Client
	settings   *settings.FileStore
	// settingsSvc is what the core service reads; serve puts a cache in
	// front of the file store.
	settingsSvc settings.Service
	logger      pslog.Logger
}

func loadRuntime(ctx context.Context, cfgPath string) (runtimeEnv, error) {
	logger := pslog.Ctx(ctx)
	cfg, err := appconfig.Load(cfgPath)
	if err != nil {
		return runtimeEnv{}, err
	}
	serviceCfg, err := cfg.ToServiceConfig()
	if err != nil {
		return runtimeEnv{}, err
	}
	client, err := backend.New(backend.Config{
		BaseURL:   cfg.Backend.BaseURL,
		Timeout:   cfg.Backend.Timeout(),
		Logger:    logger,
		UserAgent: "uqlabs/" + version.Current(),
	})
	if err != nil {
		return runtimeEnv{}, err
	}
	store, err := settings.NewFileStore(cfg.StateDir, logger)
	if err != nil {
		return runtimeEnv{}, err
	}
	logger.Debug("runtime loaded", "backend", client.BaseURL(), "state_dir", cfg.StateDir)
	return runtimeEnv{cfg: cfg, serviceCfg: serviceCfg, client: client, settings: store, settingsSvc: store, logger: logger}, nil
}

func (e runtimeEnv) newServer(opts ...uqlabs.ServerOption) (uqlabs.Server, error) {
	return uqlabs.New(uqlabs.ServerConfig{
		Service: e.serviceCfg,
		HTTP: httpapi.Config{
			Addr:     e.cfg.HTTP.Addr,
			BasePath: e.cfg.HTTP.BasePath,
		},
		HubHistory: e.cfg.HTTP.HubHistory,
	}, uqlabs.ServerDeps{
		ServiceDeps: core.ServiceDeps{
			Backend:  e.client,
			Settings: e.settingsSvc,
			Logger:   e.logger,
		},
	}, opts...)
}

// startLocal starts an in-process server with the event bus and returns a
// stop function.
func (e runtimeEnv) startLocal(ctx context.Context) (uqlabs.Server, func(), error) {
	srv, err := e.newServer(uqlabs.WithEventBus())
	if err != nil {
		return nil, nil, err
	}
	if err := srv.Start(ctx); err != nil {
		return nil, nil, err
	}
	return srv, func() {
		if err := srv.Stop(context.Background()); err != nil {
			e.logger.Warn("server stop failed", "err", err)
		}
	}, nil
}

func newRenderer(w io.Writer, plain bool) (*format.TermRenderer, error) {
	return format.NewTermRenderer(w, plain)
}
