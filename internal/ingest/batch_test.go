package ingest_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/boxscore-tracker/constants"
	"github.com/joseph-ayodele/boxscore-tracker/internal/candidate"
	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
	"github.com/joseph-ayodele/boxscore-tracker/internal/extract"
	"github.com/joseph-ayodele/boxscore-tracker/internal/ingest"
	"github.com/joseph-ayodele/boxscore-tracker/internal/llm"
	"github.com/joseph-ayodele/boxscore-tracker/internal/repository"
	"github.com/joseph-ayodele/boxscore-tracker/internal/testsupport"
)

func write(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("scan of "+name), 0o600))
	return p
}

func TestBatchCommitsCleanAndExportsTheRest(t *testing.T) {
	db := testsupport.MustOpenStore(t)
	league := testsupport.MustSeedLeague(t, db)
	cfg := testsupport.NewConfig(t)
	cfg.Batch.Workers = 2

	fields := &testsupport.FakeFields{Fn: func(req llm.ExtractRequest) (*candidate.Record, error) {
		rec := testsupport.CleanRecord(league.Roster)
		switch req.SourceName {
		case "overtime.pdf":
			rec.Players[0]["minutes"].Value = 45.0
		case "garbled.png":
			return nil, common.NewExtractionFailure("model returned no choices", false, nil)
		}
		return rec, nil
	}}
	text := &testsupport.FakeText{Result: extract.TextExtractionResult{Text: "box", Method: "pdf-text", Format: constants.PDF, Confidence: 0.9}}
	proc := testsupport.NewProcessor(t, db, text, fields)

	dir := t.TempDir()
	clean := write(t, dir, "final.pdf")
	overtime := write(t, dir, "nested/overtime.pdf")
	garbled := write(t, dir, "garbled.png")
	write(t, dir, "notes.txt")
	write(t, dir, ".hidden/skipped.pdf")

	b := ingest.NewBatch(proc, nil, cfg.Batch, testsupport.Logger(t))
	results, stats, err := b.Run(context.Background(), ingest.Request{Root: dir, Home: "HAW", Away: "SUM", SkipHidden: true})
	require.NoError(t, err)

	assert.Equal(t, ingest.DirStats{Scanned: 4, Matched: 3, Committed: 1, NeedsReview: 1, Failed: 1}, stats)
	require.Len(t, results, 3)
	byPath := map[string]ingest.FileResult{}
	for _, r := range results {
		byPath[r.Path] = r
	}

	assert.Equal(t, ingest.OutcomeCommitted, byPath[clean].Outcome)
	assert.NotZero(t, byPath[clean].GameID)

	ot := byPath[overtime]
	assert.Equal(t, ingest.OutcomeNeedsReview, ot.Outcome)
	assert.Equal(t, string(constants.SessionReviewing), ot.State)
	assert.Equal(t, 1, ot.Outstanding)
	assert.Equal(t, filepath.Join(cfg.Batch.ReviewDir, "overtime.review.xlsx"), ot.Workbook)
	assert.FileExists(t, ot.Workbook)
	sess, err := proc.Sessions.Get(ot.SessionID)
	require.NoError(t, err, "sessions needing review stay open")
	assert.Equal(t, constants.SessionReviewing, sess.State())

	assert.Equal(t, ingest.OutcomeFailed, byPath[garbled].Outcome)
	assert.Contains(t, byPath[garbled].Err, "no choices")

	st, err := repository.Stats(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Games)
}

func TestBatchCleanDuplicateNeedsReview(t *testing.T) {
	db := testsupport.MustOpenStore(t)
	league := testsupport.MustSeedLeague(t, db)
	cfg := testsupport.NewConfig(t)
	cfg.Batch.Workers = 1

	fields := &testsupport.FakeFields{Fn: func(llm.ExtractRequest) (*candidate.Record, error) {
		return testsupport.CleanRecord(league.Roster), nil
	}}
	text := &testsupport.FakeText{Result: extract.TextExtractionResult{Text: "box", Method: "pdf-text", Format: constants.PDF, Confidence: 0.9}}
	proc := testsupport.NewProcessor(t, db, text, fields)

	dir := t.TempDir()
	write(t, dir, "a.pdf")
	second := write(t, dir, "b.pdf")

	results, stats, err := ingest.NewBatch(proc, nil, cfg.Batch, testsupport.Logger(t)).
		Run(context.Background(), ingest.Request{Root: dir, Home: "HAW", Away: "SUM"})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), stats.Committed)
	assert.Equal(t, uint32(1), stats.NeedsReview)
	require.Len(t, results, 2)
	assert.Equal(t, second, results[1].Path)
	assert.Equal(t, string(constants.SessionClean), results[1].State)
	assert.NotEmpty(t, results[1].Err)
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a.PDF")
	write(t, dir, "b.heic")
	write(t, dir, "c.docx")
	write(t, dir, ".d.png")

	paths, stats, failures, err := ingest.Scan(context.Background(), dir, true)
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Equal(t, []string{filepath.Join(dir, "a.PDF"), filepath.Join(dir, "b.heic")}, paths)
	assert.Equal(t, uint32(3), stats.Scanned)
	assert.Equal(t, uint32(2), stats.Matched)

	paths, _, _, err = ingest.Scan(context.Background(), dir, false)
	require.NoError(t, err)
	assert.Len(t, paths, 3)

	_, _, _, err = ingest.Scan(context.Background(), " ", true)
	assert.Error(t, err)
}
