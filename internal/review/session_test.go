package review_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/boxscore-tracker/constants"
	"github.com/joseph-ayodele/boxscore-tracker/internal/candidate"
	"github.com/joseph-ayodele/boxscore-tracker/internal/commit"
	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
	"github.com/joseph-ayodele/boxscore-tracker/internal/consistency"
	"github.com/joseph-ayodele/boxscore-tracker/internal/entity"
	"github.com/joseph-ayodele/boxscore-tracker/internal/repository"
	"github.com/joseph-ayodele/boxscore-tracker/internal/review"
	"github.com/joseph-ayodele/boxscore-tracker/internal/testsupport"
	"github.com/joseph-ayodele/boxscore-tracker/internal/validator"
)

type store struct {
	db     *repository.DB
	league *testsupport.League
	deps   review.Deps
}

func newStore(t *testing.T) *store {
	t.Helper()
	db := testsupport.MustOpenStore(t)
	league := testsupport.MustSeedLeague(t, db)
	cfg := consistency.Config{MinPlayers: 5}
	gate := commit.NewGate(repository.NewBoxScoreRepository(db, testsupport.Logger(t)), validator.DefaultLimits(), cfg, testsupport.Logger(t))
	return &store{
		db:     db,
		league: league,
		deps: review.Deps{
			Roster:      league.Roster,
			Limits:      validator.DefaultLimits(),
			Consistency: cfg,
			Committer:   gate,
			Logger:      testsupport.Logger(t),
		},
	}
}

func (s *store) stats(t *testing.T) *entity.StoreStats {
	t.Helper()
	st, err := repository.Stats(context.Background(), s.db)
	require.NoError(t, err)
	return st
}

// fakeCommitter fails the first n commits.
type fakeCommitter struct {
	failures int
	calls    int
	last     *commit.Request
}

func (f *fakeCommitter) Commit(_ context.Context, req *commit.Request) (*repository.CommitResult, error) {
	f.calls++
	f.last = req
	if f.calls <= f.failures {
		return nil, common.NewPersistenceFailure("database is locked", common.ErrDatabase)
	}
	return &repository.CommitResult{GameID: 7}, nil
}

func memDeps(t *testing.T, c review.Committer) review.Deps {
	return review.Deps{
		Roster:      testsupport.NewRoster(),
		Limits:      validator.DefaultLimits(),
		Consistency: consistency.Config{MinPlayers: 5},
		Committer:   c,
		Logger:      testsupport.Logger(t),
	}
}

func TestFixPointsThenCommit(t *testing.T) {
	s := newStore(t)
	rec := testsupport.CleanRecord(s.league.Roster)
	rec.Players[0]["points"].Value = 18.0

	sess := review.New(rec, s.deps)
	assert.Equal(t, constants.SessionDraft, sess.State())

	state, err := sess.StartReview()
	require.NoError(t, err)
	assert.Equal(t, constants.SessionReviewing, state)
	v := sess.View()
	require.Len(t, v.Warnings, 1)
	assert.Equal(t, "score_player_sum@teams[0]", v.Warnings[0].ID)
	assert.Equal(t, -2, v.Warnings[0].Delta)
	assert.Empty(t, v.Violations)

	state, err = sess.Edit("players[2].points", 12.0)
	require.NoError(t, err)
	assert.Equal(t, constants.SessionClean, state)
	assert.Empty(t, sess.View().Warnings)

	res, err := sess.Commit(context.Background())
	require.NoError(t, err)
	assert.NotZero(t, res.GameID)
	assert.Len(t, res.TeamBoxScoreIDs, 2)
	assert.Len(t, res.PlayerBoxScoreIDs, 10)
	assert.Equal(t, constants.SessionCommitted, sess.State())
	assert.Nil(t, sess.View().Record)

	_, err = sess.Edit("players[2].points", 10.0)
	assert.ErrorIs(t, err, common.ErrInvalidState)
}

func TestOverrideMinutesIsAudited(t *testing.T) {
	s := newStore(t)
	rec := testsupport.CleanRecord(s.league.Roster)
	rec.Players[0]["minutes"].Value = 45.0

	sess := review.New(rec, s.deps)
	_, err := sess.StartReview()
	require.NoError(t, err)

	_, err = sess.Commit(context.Background())
	assert.ErrorIs(t, err, common.ErrNotCommittable)

	state, err := sess.Override([]string{"minutes_max@players[0].minutes"}, "sam", "double overtime")
	require.NoError(t, err)
	assert.Equal(t, constants.SessionOverridden, state)

	res, err := sess.Commit(context.Background())
	require.NoError(t, err)

	detail, err := repository.NewGameRepository(s.db, testsupport.Logger(t)).GetGameDetail(context.Background(), res.GameID)
	require.NoError(t, err)
	require.Len(t, detail.Audits, 1)
	a := detail.Audits[0]
	assert.Equal(t, "minutes_max@players[0].minutes", a.FindingID)
	assert.Equal(t, validator.RuleMinutesMax, a.Kind)
	assert.Equal(t, "sam", a.Reviewer)
	require.NotNil(t, a.Note)
	assert.Equal(t, "double overtime", *a.Note)
}

func TestOverrideRules(t *testing.T) {
	rec := testsupport.CleanRecord(testsupport.NewRoster())
	rec.Players[0]["minutes"].Value = 45.0
	rec.Players[1]["jersey_number"] = &candidate.Field{Value: -3.0, Origin: candidate.OriginExtracted, Confidence: 0.9}
	sess := review.New(rec, memDeps(t, &fakeCommitter{}))

	_, err := sess.Override([]string{"minutes_max@players[0].minutes", "range@players[1].jersey_number"}, "sam", "")
	assert.ErrorIs(t, err, common.ErrNotOverridable)
	_, err = sess.Override([]string{"minutes_max@players[0].minutes", "winner@game"}, "sam", "")
	assert.ErrorIs(t, err, common.ErrUnknownFinding)
	_, err = sess.Override(nil, "sam", "")
	assert.ErrorIs(t, err, common.ErrUnknownFinding)
	assert.Empty(t, sess.View().Overrides, "nothing recorded when any id is rejected")

	state, err := sess.Override([]string{"minutes_max@players[0].minutes"}, "sam", "")
	require.NoError(t, err)
	assert.Equal(t, constants.SessionReviewing, state, "blocking violation still open")
	assert.Equal(t, []string{"range@players[1].jersey_number"}, sess.View().Outstanding)

	state, err = sess.Edit("players[1].jersey_number", 4.0)
	require.NoError(t, err)
	assert.Equal(t, constants.SessionOverridden, state)
}

func TestFixingAcceptedFindingDropsAcceptance(t *testing.T) {
	rec := testsupport.CleanRecord(testsupport.NewRoster())
	rec.Players[0]["minutes"].Value = 45.0
	sess := review.New(rec, memDeps(t, &fakeCommitter{}))

	_, err := sess.Override([]string{"minutes_max@players[0].minutes"}, "sam", "")
	require.NoError(t, err)
	state, err := sess.Edit("players[0].minutes", 38.0)
	require.NoError(t, err)
	assert.Equal(t, constants.SessionClean, state)
	assert.Empty(t, sess.View().Overrides)
}

func TestChangedValueVoidsAcceptance(t *testing.T) {
	rec := testsupport.CleanRecord(testsupport.NewRoster())
	rec.Players[0]["minutes"].Value = 45.0
	sess := review.New(rec, memDeps(t, &fakeCommitter{}))

	state, err := sess.Override([]string{"minutes_max@players[0].minutes"}, "sam", "")
	require.NoError(t, err)
	assert.Equal(t, constants.SessionOverridden, state)
	require.Len(t, sess.View().Overrides, 1)

	state, err = sess.Edit("players[0].minutes", 400.0)
	require.NoError(t, err)
	assert.Equal(t, constants.SessionReviewing, state)
	v := sess.View()
	assert.Empty(t, v.Overrides)
	assert.Equal(t, []string{"minutes_max@players[0].minutes"}, v.Outstanding)

	_, err = sess.Commit(context.Background())
	assert.ErrorIs(t, err, common.ErrNotCommittable)
}

func TestMissingTeamTotalIsReviewedNotStored(t *testing.T) {
	s := newStore(t)
	rec := testsupport.CleanRecord(s.league.Roster)
	delete(rec.Teams[0], "steals")

	sess := review.New(rec, s.deps)
	state, err := sess.StartReview()
	require.NoError(t, err)
	assert.Equal(t, constants.SessionReviewing, state)
	assert.Equal(t, []string{"player_sum.steals@teams[0]"}, sess.View().Outstanding)

	state, err = sess.Edit("teams[0].steals", 2.0)
	require.NoError(t, err)
	assert.Equal(t, constants.SessionClean, state)
	_, err = sess.Commit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, s.stats(t).Games)
}

func TestRemoveDuplicateRowThenCommit(t *testing.T) {
	s := newStore(t)
	rec := testsupport.CleanRecord(s.league.Roster)
	dup := rec.Clone().Players[4]
	for k, f := range dup {
		if k != "player_id" && k != "team_id" && k != "name" && k != "starter" {
			f.Value = 0.0
		}
	}
	rec.Players = append(rec.Players, dup)

	sess := review.New(rec, s.deps)
	_, err := sess.StartReview()
	require.NoError(t, err)
	assert.Contains(t, sess.View().Outstanding, "duplicate_player@players[10].player_id")

	state, err := sess.RemoveRow("players[10]")
	require.NoError(t, err)
	assert.Equal(t, constants.SessionClean, state)

	_, err = sess.RemoveRow("players[10]")
	assert.ErrorIs(t, err, common.ErrInvalidPath)

	res, err := sess.Commit(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.PlayerBoxScoreIDs, 10)
}

func TestAddMissingPlayerRow(t *testing.T) {
	roster := testsupport.NewRoster()
	rec := testsupport.CleanRecord(roster)
	last := rec.Players[4]
	rec.Players = rec.Players[:4]
	sess := review.New(rec, memDeps(t, &fakeCommitter{}))
	assert.Contains(t, sess.View().Outstanding, "roster@teams[0]")

	path, state, err := sess.AddRow(candidate.SectionPlayers)
	require.NoError(t, err)
	assert.Equal(t, "players[9]", path)
	assert.Equal(t, constants.SessionReviewing, state)
	assert.Contains(t, sess.View().Outstanding, "required@players[9].player_id")

	for name, f := range last {
		state, err = sess.Edit(path+"."+name, f.Value)
		require.NoError(t, err, name)
	}
	assert.Equal(t, constants.SessionClean, state)

	_, _, err = sess.AddRow(candidate.SectionGame)
	assert.ErrorIs(t, err, common.ErrInvalidPath)
}

func TestEditFromDraftAndInvalidPath(t *testing.T) {
	rec := testsupport.CleanRecord(testsupport.NewRoster())
	sess := review.New(rec, memDeps(t, &fakeCommitter{}))
	before := sess.View().Record

	_, err := sess.Edit("players[40].points", 1.0)
	assert.ErrorIs(t, err, common.ErrInvalidPath)
	assert.Equal(t, constants.SessionDraft, sess.State())
	assert.Equal(t, before, sess.View().Record)

	state, err := sess.Edit("game.location", "Pier Gym")
	require.NoError(t, err)
	assert.Equal(t, constants.SessionClean, state)

	_, err = sess.StartReview()
	assert.ErrorIs(t, err, common.ErrInvalidState)

	f, err := sess.View().Record.Get("game.location")
	require.NoError(t, err)
	assert.Equal(t, candidate.OriginEdited, f.Origin)
}

func TestViewIsACopy(t *testing.T) {
	sess := review.New(testsupport.CleanRecord(testsupport.NewRoster()), memDeps(t, &fakeCommitter{}))
	v := sess.View()
	require.NoError(t, v.Record.Edit("teams[0].points", 1.0))
	pts, _ := sess.View().Record.Teams[0].Int("points")
	assert.Equal(t, 58, pts)
}

func TestFailedCommitKeepsSession(t *testing.T) {
	c := &fakeCommitter{failures: 1}
	sess := review.New(testsupport.CleanRecord(testsupport.NewRoster()), memDeps(t, c))
	_, err := sess.StartReview()
	require.NoError(t, err)
	sess.SetReplace(true)

	_, err = sess.Commit(context.Background())
	assert.ErrorIs(t, err, common.ErrPersistenceFailure)
	assert.Equal(t, constants.SessionClean, sess.State())
	assert.NotNil(t, sess.View().Record)

	res, err := sess.Commit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, res.GameID)
	assert.True(t, c.last.Replace)
	assert.Equal(t, constants.SessionClean, c.last.State)
}

func TestAbandon(t *testing.T) {
	s := newStore(t)
	rec := testsupport.CleanRecord(s.league.Roster)
	sess := review.New(rec, s.deps)
	_, err := sess.StartReview()
	require.NoError(t, err)

	require.NoError(t, sess.Abandon())
	assert.Equal(t, constants.SessionAbandoned, sess.State())
	assert.ErrorIs(t, sess.Abandon(), common.ErrInvalidState)
	_, err = sess.Commit(context.Background())
	assert.ErrorIs(t, err, common.ErrNotCommittable)
	assert.Zero(t, s.stats(t).Games)
}

func TestManager(t *testing.T) {
	m := review.NewManager(testsupport.Logger(t))
	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	deps := memDeps(t, &fakeCommitter{})
	deps.Now = func() time.Time { return clock }

	first := m.Open(testsupport.CleanRecord(testsupport.NewRoster()), deps)
	clock = clock.Add(time.Minute)
	second := m.Open(testsupport.CleanRecord(testsupport.NewRoster()), deps)

	got, err := m.Get(first.ID())
	require.NoError(t, err)
	assert.Same(t, first, got)
	_, err = m.Get("missing")
	assert.ErrorIs(t, err, common.ErrNotFound)

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, second.ID(), list[0].ID)
	assert.Equal(t, "game.pdf", list[0].Source)

	_, err = second.StartReview()
	require.NoError(t, err)
	_, err = second.Commit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, m.Evict(clock.Add(-time.Hour)))
	assert.Equal(t, 1, m.Evict(clock.Add(time.Hour)))

	require.NoError(t, m.Abandon(first.ID()))
	assert.Empty(t, m.List())
}
