package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/davidschrooten/solr-schema-sync/config"
	"github.com/davidschrooten/solr-schema-sync/internal/languages"
	"github.com/davidschrooten/solr-schema-sync/internal/observability"
	"github.com/davidschrooten/solr-schema-sync/internal/reconciler"
	"github.com/davidschrooten/solr-schema-sync/internal/search"
	"github.com/davidschrooten/solr-schema-sync/internal/solr"
	syncstate "github.com/davidschrooten/solr-schema-sync/internal/sync"
)

// app holds the wired services shared by every command
type app struct {
	cfg        *config.Config
	logger     zerolog.Logger
	languages  languages.Source
	state      *syncstate.StateManager
	catalog    *search.Engine
	reconciler *reconciler.Service
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := observability.InitLogger("solr-schema-sync", cfg.Log.Level, cfg.Log.Format)

	langs, err := languages.Open(ctx, cfg.Languages)
	if err != nil {
		return nil, fmt.Errorf("failed to open language source: %w", err)
	}

	state := syncstate.NewStateManager(cfg.Reconcile.StatePath, logger)
	if err := state.Load(); err != nil {
		logger.Warn().Err(err).Msg("Failed to load reconcile state, starting fresh")
	}

	catalog, err := search.NewEngine()
	if err != nil {
		langs.Close()
		return nil, fmt.Errorf("failed to initialize field catalog: %w", err)
	}

	client := solr.NewClient(cfg.Solr, logger)
	rec, err := reconciler.NewService(client, langs, state, catalog, cfg, logger)
	if err != nil {
		catalog.Close()
		langs.Close()
		return nil, fmt.Errorf("failed to initialize reconciler: %w", err)
	}

	return &app{
		cfg:        cfg,
		logger:     logger,
		languages:  langs,
		state:      state,
		catalog:    catalog,
		reconciler: rec,
	}, nil
}

func (a *app) Close() {
	if err := a.catalog.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to close field catalog")
	}
	if err := a.languages.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to close language source")
	}
}
