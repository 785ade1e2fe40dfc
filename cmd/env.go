package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/docextract/internal/answers"
	"github.com/sells-group/docextract/internal/config"
	"github.com/sells-group/docextract/internal/engine"
	"github.com/sells-group/docextract/internal/fetcher"
	"github.com/sells-group/docextract/internal/ocr"
	"github.com/sells-group/docextract/internal/pipeline"
	"github.com/sells-group/docextract/internal/resilience"
	"github.com/sells-group/docextract/internal/store"
	anthropicpkg "github.com/sells-group/docextract/pkg/anthropic"
)

// appEnv holds the store and pipeline shared by the commands.
type appEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// envOptions selects which collaborators initEnv builds.
type envOptions struct {
	Mode       string
	Store      bool
	Recognizer bool
}

// initEnv validates the config for mode and builds the pipeline.
// Callers should defer env.Close().
func initEnv(ctx context.Context, opts envOptions) (*appEnv, error) {
	if err := cfg.Validate(opts.Mode); err != nil {
		return nil, err
	}

	eng, tables, err := buildEngine(cfg.Extract)
	if err != nil {
		return nil, err
	}

	deps := pipeline.Deps{
		Engine:         eng,
		IdentifierPass: cfg.Extract.IdentifierPass,
		Resolver:       buildResolver(cfg),
	}

	if opts.Recognizer {
		rec, err := ocr.New(cfg.OCR, cfg.Retry)
		if err != nil {
			return nil, err
		}
		deps.Recognizer = rec
	}

	if cfg.Anthropic.Key != "" {
		client := anthropicpkg.NewClient(cfg.Anthropic.Key)
		deps.Answerer = ocr.NewLLMAnswerer(client, cfg.Anthropic, tables)
	} else {
		zap.L().Debug("DOCEXTRACT_ANTHROPIC_KEY not set, answers mode disabled")
	}

	env := &appEnv{}
	if opts.Store {
		st, err := initStore(ctx)
		if err != nil {
			return nil, err
		}
		deps.Store = st
		env.Store = st
	}

	env.Pipeline = pipeline.New(deps)
	return env, nil
}

// buildEngine applies the extract config to the engine options.
func buildEngine(c config.ExtractConfig) (*engine.Engine, answers.Tables, error) {
	tables, err := answers.LoadTables(c.AliasFile, c.MaxOwners)
	if err != nil {
		return nil, nil, err
	}

	opts := engine.DefaultOptions()
	opts.Tables = tables
	if c.IdentifierPass != "" {
		opts.Reconcile.IdentifierPass = c.IdentifierPass
	}
	if len(c.Nationalities) > 0 {
		opts.Reconcile.Vocabulary = map[string][]string{"nationality": c.Nationalities}
	}
	if c.NotAvailable != "" {
		opts.NotAvailable = c.NotAvailable
	}
	return engine.New(opts), tables, nil
}

func buildResolver(c *config.Config) *fetcher.Resolver {
	return &fetcher.Resolver{
		HTTP: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			Timeout:           time.Duration(c.OCR.TimeoutSecs) * time.Second,
			RequestsPerSecond: c.OCR.RequestsPerSecond,
			Retry:             resilience.FromConfig(c.Retry),
		}),
		FTP: fetcher.NewFTPFetcher(fetcher.FTPOptions{}),
	}
}

// initStore opens and migrates the configured store.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}
