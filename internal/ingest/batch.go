package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/boxscore-tracker/constants"
	"github.com/joseph-ayodele/boxscore-tracker/internal/async"
	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
	"github.com/joseph-ayodele/boxscore-tracker/internal/export"
	"github.com/joseph-ayodele/boxscore-tracker/internal/pipeline"
)

// Outcome is what a batch did with one document.
type Outcome string

const (
	OutcomeCommitted   Outcome = "committed"
	OutcomeNeedsReview Outcome = "needs_review"
	OutcomeFailed      Outcome = "failed"
)

// FileResult is the per-document outcome of a batch.
type FileResult struct {
	Path        string  `json:"path"`
	Outcome     Outcome `json:"outcome"`
	SessionID   string  `json:"session_id,omitempty"`
	State       string  `json:"state,omitempty"`
	GameID      int     `json:"game_id,omitempty"`
	Outstanding int     `json:"outstanding,omitempty"`
	Workbook    string  `json:"workbook,omitempty"`
	Err         string  `json:"error,omitempty"`
}

// DirStats summarizes a batch.
type DirStats struct {
	Scanned     uint32 `json:"scanned"`
	Matched     uint32 `json:"matched"`
	Committed   uint32 `json:"committed"`
	NeedsReview uint32 `json:"needs_review"`
	Failed      uint32 `json:"failed"`
}

// Request names a directory of documents of one matchup.
type Request struct {
	Root       string
	Home       string
	Away       string
	Date       string
	SkipHidden bool
}

// Batch runs every document of a directory through extraction on a worker
// queue. Records that come out CLEAN are committed; the rest get a review
// workbook and stay open in the session manager.
type Batch struct {
	proc      *pipeline.Processor
	exporter  *export.Service
	reviewDir string
	logger    *slog.Logger
	opts      []async.Option
}

func NewBatch(proc *pipeline.Processor, exporter *export.Service, cfg common.BatchConfig, logger *slog.Logger) *Batch {
	if logger == nil {
		logger = slog.Default()
	}
	if exporter == nil {
		exporter = export.NewService(logger)
	}
	return &Batch{
		proc:      proc,
		exporter:  exporter,
		reviewDir: cfg.ReviewDir,
		logger:    logger,
		opts: []async.Option{
			async.WithWorkers(cfg.Workers),
			async.WithQueueSize(cfg.QueueSize),
			async.WithProcessTimeout(cfg.ProcessTimeout),
		},
	}
}

// Run processes req.Root and returns per-file results sorted by path.
func (b *Batch) Run(ctx context.Context, req Request) ([]FileResult, DirStats, error) {
	start := time.Now()
	logger := common.LoggerWith(ctx, b.logger).With("root", req.Root)

	paths, stats, results, err := Scan(ctx, req.Root, req.SkipHidden)
	if err != nil {
		return results, stats, err
	}
	if len(paths) > 0 && b.reviewDir != "" {
		if err := os.MkdirAll(b.reviewDir, 0o755); err != nil {
			return results, stats, fmt.Errorf("review dir: %w", err)
		}
	}

	var mu sync.Mutex
	record := func(r FileResult) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, r)
		switch r.Outcome {
		case OutcomeCommitted:
			stats.Committed++
		case OutcomeNeedsReview:
			stats.NeedsReview++
		default:
			stats.Failed++
		}
	}

	q := async.NewWorkerQueue(func(ctx context.Context, job async.Job) error {
		r := b.handle(ctx, req, job.Path)
		record(r)
		if r.Outcome == OutcomeFailed {
			return errors.New(r.Err)
		}
		return nil
	}, logger, b.opts...)

	var enqueueErr error
	for _, p := range paths {
		if enqueueErr = q.Enqueue(ctx, async.Job{ID: uuid.New(), Path: p}); enqueueErr != nil {
			break
		}
	}
	q.Shutdown(ctx)

	mu.Lock()
	defer mu.Unlock()
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	logger.Info("ingest.batch.done",
		"matched", stats.Matched,
		"committed", stats.Committed,
		"needs_review", stats.NeedsReview,
		"failed", stats.Failed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if enqueueErr != nil {
		return results, stats, fmt.Errorf("enqueue: %w", enqueueErr)
	}
	return results, stats, nil
}

func (b *Batch) handle(ctx context.Context, req Request, path string) FileResult {
	res := FileResult{Path: path}
	sess, err := b.proc.Process(ctx, pipeline.Upload{Path: path, Home: req.Home, Away: req.Away, Date: req.Date})
	if err != nil {
		res.Outcome, res.Err = OutcomeFailed, err.Error()
		return res
	}
	res.SessionID = sess.ID()

	state, err := sess.StartReview()
	if err != nil {
		res.Outcome, res.Err = OutcomeFailed, err.Error()
		return res
	}
	if state == constants.SessionClean {
		committed, err := sess.Commit(ctx)
		if err == nil {
			res.Outcome, res.State, res.GameID = OutcomeCommitted, string(constants.SessionCommitted), committed.GameID
			return res
		}
		// a clean record the store refused, e.g. a game already imported
		res.Err = err.Error()
	}

	v := sess.View()
	res.Outcome, res.State, res.Outstanding = OutcomeNeedsReview, string(v.State), len(v.Outstanding)
	if b.reviewDir == "" {
		return res
	}
	data, err := b.exporter.ReviewWorkbook(v)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	out := filepath.Join(b.reviewDir, workbookName(path))
	if err := os.WriteFile(out, data, 0o644); err != nil {
		res.Err = err.Error()
		return res
	}
	res.Workbook = out
	return res
}
