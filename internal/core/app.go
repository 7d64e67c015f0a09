package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/boxscore-tracker/internal/commit"
	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
	"github.com/joseph-ayodele/boxscore-tracker/internal/consistency"
	"github.com/joseph-ayodele/boxscore-tracker/internal/export"
	"github.com/joseph-ayodele/boxscore-tracker/internal/extract"
	"github.com/joseph-ayodele/boxscore-tracker/internal/ingest"
	"github.com/joseph-ayodele/boxscore-tracker/internal/llm"
	"github.com/joseph-ayodele/boxscore-tracker/internal/llm/openai"
	"github.com/joseph-ayodele/boxscore-tracker/internal/ocr"
	"github.com/joseph-ayodele/boxscore-tracker/internal/pipeline"
	"github.com/joseph-ayodele/boxscore-tracker/internal/repository"
	"github.com/joseph-ayodele/boxscore-tracker/internal/review"
	"github.com/joseph-ayodele/boxscore-tracker/internal/validator"
)

// App is the wired object graph shared by the CLI and the daemon.
type App struct {
	Config    *common.Config
	Logger    *slog.Logger
	DB        *repository.DB
	Teams     repository.TeamRepository
	Games     repository.GameRepository
	Gate      *commit.Gate
	Sessions  *review.Manager
	Processor *pipeline.Processor
	Exporter  *export.Service
	Batch     *ingest.Batch
}

type options struct {
	text   extract.TextExtractor
	fields llm.FieldExtractor
}

type Option func(*options)

// WithTextExtractor replaces the OCR adapter.
func WithTextExtractor(t extract.TextExtractor) Option {
	return func(o *options) { o.text = t }
}

// WithFieldExtractor replaces the OpenAI client.
func WithFieldExtractor(f llm.FieldExtractor) Option {
	return func(o *options) { o.fields = f }
}

// Open connects to the store, migrates it and wires every component.
func Open(ctx context.Context, cfg *common.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	db, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := repository.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if o.text == nil {
		o.text = extract.NewOCRAdapter(ocr.NewExtractor(ocr.ConfigFrom(cfg.OCR), logger), logger)
	}
	if o.fields == nil {
		o.fields = openai.NewClient(openai.ConfigFrom(cfg.LLM), logger, openai.WithPolicy(llm.PolicyFrom(cfg.LLM)))
	}

	limits := validator.LimitsFromConfig(cfg.Validation)
	consCfg := consistency.ConfigFrom(cfg)
	teams := repository.NewTeamRepository(db, logger)
	gate := commit.NewGate(repository.NewBoxScoreRepository(db, logger), limits, consCfg, logger)
	sessions := review.NewManager(logger)
	proc := pipeline.NewProcessor(logger,
		pipeline.NewInputStage(o.text, logger),
		pipeline.NewExtractStage(o.fields, logger),
		teams,
		sessions,
		review.Deps{Limits: limits, Consistency: consCfg, Committer: gate},
	)
	exporter := export.NewService(logger)

	return &App{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Teams:     teams,
		Games:     repository.NewGameRepository(db, logger),
		Gate:      gate,
		Sessions:  sessions,
		Processor: proc,
		Exporter:  exporter,
		Batch:     ingest.NewBatch(proc, exporter, cfg.Batch, logger),
	}, nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
