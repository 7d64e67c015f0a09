package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/boxscore-tracker/constants"
	"github.com/joseph-ayodele/boxscore-tracker/internal/candidate"
	"github.com/joseph-ayodele/boxscore-tracker/internal/commit"
	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
	"github.com/joseph-ayodele/boxscore-tracker/internal/consistency"
	"github.com/joseph-ayodele/boxscore-tracker/internal/extract"
	"github.com/joseph-ayodele/boxscore-tracker/internal/llm"
	"github.com/joseph-ayodele/boxscore-tracker/internal/pipeline"
	"github.com/joseph-ayodele/boxscore-tracker/internal/repository"
	"github.com/joseph-ayodele/boxscore-tracker/internal/review"
	"github.com/joseph-ayodele/boxscore-tracker/internal/testsupport"
	"github.com/joseph-ayodele/boxscore-tracker/internal/validator"
)

type fixture struct {
	league *testsupport.League
	text   *testsupport.FakeText
	fields *testsupport.FakeFields
	proc   *pipeline.Processor
	file   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testsupport.MustOpenStore(t)
	league := testsupport.MustSeedLeague(t, db)
	logger := testsupport.Logger(t)

	f := &fixture{
		league: league,
		text: &testsupport.FakeText{Result: extract.TextExtractionResult{
			Text:       "HARBOR HAWKS 58 SUMMIT QUEENS 56",
			Method:     "pdf-text",
			Format:     constants.PDF,
			Confidence: 0.4,
			Images:     []extract.PageImage{{Name: "page-1.png", MIME: "image/png", Data: []byte("png")}},
		}},
		fields: &testsupport.FakeFields{Fn: func(llm.ExtractRequest) (*candidate.Record, error) {
			return testsupport.CleanRecord(league.Roster), nil
		}},
	}
	cfg := consistency.Config{MinPlayers: 5}
	gate := commit.NewGate(repository.NewBoxScoreRepository(db, logger), validator.DefaultLimits(), cfg, logger)
	extractStage := pipeline.NewExtractStage(f.fields, logger)
	extractStage.Now = func() time.Time { return time.Date(2024, 6, 2, 8, 0, 0, 0, time.UTC) }
	f.proc = pipeline.NewProcessor(logger,
		pipeline.NewInputStage(f.text, logger),
		extractStage,
		repository.NewTeamRepository(db, logger),
		review.NewManager(logger),
		review.Deps{Limits: validator.DefaultLimits(), Consistency: cfg, Committer: gate},
	)

	f.file = filepath.Join(t.TempDir(), "game.pdf")
	require.NoError(t, os.WriteFile(f.file, []byte("%PDF-1.4 box score"), 0o600))
	return f
}

func TestProcessOpensSession(t *testing.T) {
	f := newFixture(t)

	sess, err := f.proc.Process(context.Background(), pipeline.Upload{Path: f.file, Home: "harbor hawks", Away: "SUM", Date: "2024-06-01"})
	require.NoError(t, err)
	assert.Equal(t, constants.SessionDraft, sess.State())

	v := sess.View()
	assert.Empty(t, v.Violations)
	assert.Empty(t, v.Warnings)
	assert.Equal(t, "game.pdf", v.Record.Meta.SourceName)
	assert.Equal(t, "pdf-text", v.Record.Meta.InputMethod)
	assert.Len(t, v.Record.Meta.SourceSHA256, 64)
	assert.InDelta(t, 0.4, v.Record.Meta.PrepConfidence, 0.0001)
	assert.Equal(t, 2024, v.Record.Meta.ExtractedAt.Year())

	require.Len(t, f.fields.Requests, 1)
	req := f.fields.Requests[0]
	assert.Equal(t, f.league.Home.ID, req.Hint.HomeTeamID)
	assert.Equal(t, f.league.Away.ID, req.Hint.AwayTeamID)
	assert.Equal(t, "2024-06-01", req.Hint.Date)
	assert.Len(t, req.Roster.Players, 12)
	require.Len(t, req.Images, 1)

	got, err := f.proc.Sessions.Get(sess.ID())
	require.NoError(t, err)
	assert.Same(t, sess, got)

	_, err = sess.StartReview()
	require.NoError(t, err)
	res, err := sess.Commit(context.Background())
	require.NoError(t, err)
	assert.NotZero(t, res.GameID)
}

func TestProcessRejectsBadHints(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		up   pipeline.Upload
		want error
	}{
		{"unknown team", pipeline.Upload{Path: f.file, Home: "Nobody", Away: "SUM"}, common.ErrNotFound},
		{"same team", pipeline.Upload{Path: f.file, Home: "HAW", Away: "harbor hawks"}, common.ErrInvalidInput},
		{"bad date", pipeline.Upload{Path: f.file, Home: "HAW", Away: "SUM", Date: "06/01/2024"}, common.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.proc.Process(context.Background(), tt.up)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, f.fields.Requests, "nothing is extracted for a bad hint")
}

func TestProcessExtractionFailure(t *testing.T) {
	f := newFixture(t)
	f.fields.Fn = func(llm.ExtractRequest) (*candidate.Record, error) {
		return nil, common.NewExtractionFailure("timeout", true, nil)
	}
	sess, err := f.proc.Process(context.Background(), pipeline.Upload{Path: f.file, Home: "HAW", Away: "SUM"})
	assert.Nil(t, sess)
	assert.ErrorIs(t, err, common.ErrExtractionFailure)
	assert.True(t, common.IsTransient(err))
	assert.Empty(t, f.proc.Sessions.List())
}

func TestProcessUnsupportedFile(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	_, err := f.proc.Process(context.Background(), pipeline.Upload{Path: path, Home: "HAW", Away: "SUM"})
	assert.ErrorIs(t, err, common.ErrUnsupportedFormat)
}
