package testsupport

import (
	"testing"

	"github.com/joseph-ayodele/boxscore-tracker/internal/commit"
	"github.com/joseph-ayodele/boxscore-tracker/internal/consistency"
	"github.com/joseph-ayodele/boxscore-tracker/internal/pipeline"
	"github.com/joseph-ayodele/boxscore-tracker/internal/repository"
	"github.com/joseph-ayodele/boxscore-tracker/internal/review"
	"github.com/joseph-ayodele/boxscore-tracker/internal/validator"
)

// NewProcessor wires a processor over db with fake text and field
// extraction and a real commit gate.
func NewProcessor(t testing.TB, db *repository.DB, text *FakeText, fields *FakeFields) *pipeline.Processor {
	t.Helper()
	logger := Logger(t)
	cfg := consistency.Config{MinPlayers: 5}
	gate := commit.NewGate(repository.NewBoxScoreRepository(db, logger), validator.DefaultLimits(), cfg, logger)
	return pipeline.NewProcessor(logger,
		pipeline.NewInputStage(text, logger),
		pipeline.NewExtractStage(fields, logger),
		repository.NewTeamRepository(db, logger),
		review.NewManager(logger),
		review.Deps{Limits: validator.DefaultLimits(), Consistency: cfg, Committer: gate},
	)
}
