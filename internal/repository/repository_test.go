package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/boxscore-tracker/constants"
	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
	"github.com/joseph-ayodele/boxscore-tracker/internal/entity"
	"github.com/joseph-ayodele/boxscore-tracker/internal/repository"
	"github.com/joseph-ayodele/boxscore-tracker/internal/testsupport"
)

type fixture struct {
	db     *repository.DB
	league *testsupport.League
	teams  repository.TeamRepository
	games  repository.GameRepository
	boxes  repository.BoxScoreRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testsupport.MustOpenStore(t)
	logger := testsupport.Logger(t)
	return &fixture{
		db:     db,
		league: testsupport.MustSeedLeague(t, db),
		teams:  repository.NewTeamRepository(db, logger),
		games:  repository.NewGameRepository(db, logger),
		boxes:  repository.NewBoxScoreRepository(db, logger),
	}
}

func intPtr(v int) *int { return &v }

// writeSet builds a consistent final: five players per side scoring points
// each, team rows matching the sums.
func (f *fixture) writeSet(date string, homePts, awayPts []int) *repository.WriteSet {
	ws := &repository.WriteSet{
		Game: entity.Game{
			Date:       date,
			HomeTeamID: f.league.Home.ID,
			AwayTeamID: f.league.Away.ID,
		},
	}
	side := func(team *entity.Team, pts []int) int {
		players := f.league.Roster.PlayersOf(team.ID)
		total := entity.StatLine{}
		for i, p := range pts {
			line := entity.StatLine{
				Points:              p,
				FieldGoalsMade:      p / 2,
				FieldGoalsAttempted: p,
				TotalRebounds:       i + 1,
				DefensiveRebounds:   i + 1,
			}
			for _, s := range constants.CountingStats {
				total.SetCount(s, total.Count(s)+line.Count(s))
			}
			ws.Players = append(ws.Players, entity.PlayerBoxScore{
				TeamID:   team.ID,
				PlayerID: players[i].ID,
				Starter:  true,
				Minutes:  30,
				StatLine: line,
			})
		}
		ws.Teams = append(ws.Teams, entity.TeamBoxScore{TeamID: team.ID, StatLine: total})
		return total.Points
	}
	home := side(f.league.Home, homePts)
	away := side(f.league.Away, awayPts)
	ws.Game.HomeScore = intPtr(home)
	ws.Game.AwayScore = intPtr(away)
	if home > away {
		ws.Game.WinnerTeamID = intPtr(f.league.Home.ID)
	} else if away > home {
		ws.Game.WinnerTeamID = intPtr(f.league.Away.ID)
	}
	return ws
}

func TestCommitStoresOptionalColumns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ws := f.writeSet("2024-06-01", []int{20, 12, 10, 8, 8}, []int{16, 14, 10, 10, 6})
	ws.Teams[0].Set(constants.PointsInPaint, 26)
	ws.Teams[0].Set(constants.LeadChanges, 0)
	ws.Teams[0].SetOptional(constants.PlusMinus, 10)
	ws.Players[0].SetOptional(constants.PlusMinus, -4)
	ws.Players[0].SetOptional(constants.Efficiency, 17)
	ws.Players[0].SetOptional(constants.FoulsDrawn, 3)

	res, err := f.boxes.Commit(ctx, ws)
	require.NoError(t, err)

	detail, err := f.games.GetGameDetail(ctx, res.GameID)
	require.NoError(t, err)
	var home *entity.TeamBoxScore
	for _, row := range detail.Teams {
		if row.TeamID == f.league.Home.ID {
			home = row
		}
	}
	require.NotNil(t, home)
	require.NotNil(t, home.PointsInPaint)
	assert.Equal(t, 26, *home.PointsInPaint)
	require.NotNil(t, home.LeadChanges)
	assert.Zero(t, *home.LeadChanges)
	assert.Nil(t, home.TimesTied)
	require.NotNil(t, home.PlusMinus)
	assert.Equal(t, 10, *home.PlusMinus)

	var first *entity.PlayerBoxScore
	for _, p := range detail.Players {
		if p.PlayerID == ws.Players[0].PlayerID {
			first = p
		}
	}
	require.NotNil(t, first)
	require.NotNil(t, first.PlusMinus)
	assert.Equal(t, -4, *first.PlusMinus)
	assert.Equal(t, 17, *first.Efficiency)
	assert.Equal(t, 3, *first.FoulsDrawn)

	found, err := f.games.VerifyGame(ctx, res.GameID, common.ConsistencyConfig{})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestFindTeamIgnoresCase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	byName, err := f.teams.FindTeam(ctx, "harbor HAWKS")
	require.NoError(t, err)
	assert.Equal(t, f.league.Home.ID, byName.ID)

	byAbbr, err := f.teams.FindTeam(ctx, "sum")
	require.NoError(t, err)
	assert.Equal(t, f.league.Away.ID, byAbbr.ID)

	_, err = f.teams.FindTeam(ctx, "Nobody")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRosterScopesPlayersToTeams(t *testing.T) {
	f := newFixture(t)

	roster, err := f.teams.Roster(context.Background(), f.league.Home.ID)
	require.NoError(t, err)
	require.Len(t, roster.Teams, 1)
	assert.Len(t, roster.Players, 6)
	for _, p := range roster.Players {
		assert.Equal(t, f.league.Home.ID, p.TeamID)
	}
}

func TestCommitAssignsIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ws := f.writeSet("2024-06-01", []int{20, 12, 10, 8, 8}, []int{16, 14, 10, 10, 6})
	note := "box score typo"
	ws.Audits = []entity.OverrideAudit{{FindingID: "minutes_max@players[0].minutes", Kind: "advisory", Message: "45 minutes", Reviewer: "sam", Note: &note}}

	res, err := f.boxes.Commit(ctx, ws)
	require.NoError(t, err)
	assert.NotZero(t, res.GameID)
	assert.Len(t, res.TeamBoxScoreIDs, 2)
	assert.Len(t, res.PlayerBoxScoreIDs, 10)
	assert.Len(t, res.AuditIDs, 1)

	detail, err := f.games.GetGameDetail(ctx, res.GameID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.GameStatusFinal), detail.Game.Status)
	assert.Equal(t, 58, *detail.Game.HomeScore)
	assert.Equal(t, f.league.Home.Name, detail.HomeTeam.Name)
	require.Len(t, detail.Audits, 1)
	assert.Equal(t, "minutes_max@players[0].minutes", detail.Audits[0].FindingID)
	assert.Equal(t, "sam", detail.Audits[0].Reviewer)

	found, err := f.games.VerifyGame(ctx, res.GameID, common.ConsistencyConfig{})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestCommitRejectsDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.boxes.Commit(ctx, f.writeSet("2024-06-01", []int{10, 10, 10, 10, 10}, []int{9, 9, 9, 9, 9}))
	require.NoError(t, err)
	before, err := repository.Stats(ctx, f.db)
	require.NoError(t, err)

	_, err = f.boxes.Commit(ctx, f.writeSet("2024-06-01", []int{10, 10, 10, 10, 10}, []int{9, 9, 9, 9, 9}))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrPersistenceFailure)
	assert.ErrorIs(t, err, common.ErrDuplicateGame)

	after, err := repository.Stats(ctx, f.db)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCommitReplaceReimports(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.boxes.Commit(ctx, f.writeSet("2024-06-01", []int{10, 10, 10, 10, 10}, []int{9, 9, 9, 9, 9}))
	require.NoError(t, err)

	ws := f.writeSet("2024-06-01", []int{12, 10, 10, 10, 10}, []int{9, 9, 9, 9, 9})
	ws.Replace = true
	second, err := f.boxes.Commit(ctx, ws)
	require.NoError(t, err)
	assert.True(t, second.Replaced)
	assert.Equal(t, first.GameID, second.GameID)

	st, err := repository.Stats(ctx, f.db)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Games)
	assert.Equal(t, 2, st.TeamBoxScores)
	assert.Equal(t, 10, st.PlayerBoxScores)

	game, err := f.games.GetGame(ctx, second.GameID)
	require.NoError(t, err)
	assert.Equal(t, 52, *game.HomeScore)
}

func TestCommitPromotesScheduledGame(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	location := "Harbor Arena"
	scheduled := &entity.Game{Date: "2024-06-08", HomeTeamID: f.league.Home.ID, AwayTeamID: f.league.Away.ID, Location: &location}
	id, err := f.games.CreateScheduled(ctx, scheduled)
	require.NoError(t, err)

	pending, err := f.games.ListGames(ctx, repository.ListGamesFilter{WithoutStats: true})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, f.league.Home.Name, pending[0].HomeTeam)

	res, err := f.boxes.Commit(ctx, f.writeSet("2024-06-08", []int{10, 10, 10, 10, 10}, []int{9, 9, 9, 9, 9}))
	require.NoError(t, err)
	assert.True(t, res.Promoted)
	assert.Equal(t, id, res.GameID)

	game, err := f.games.GetGame(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, string(constants.GameStatusFinal), game.Status)
	assert.Equal(t, location, *game.Location)

	pending, err = f.games.ListGames(ctx, repository.ListGamesFilter{WithoutStats: true})
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestCommitOwnershipFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ws := f.writeSet("2024-06-01", []int{10, 10, 10, 10, 10}, []int{9, 9, 9, 9, 9})
	// file an away player under the home team
	ws.Players[0].PlayerID = f.league.Roster.PlayersOf(f.league.Away.ID)[5].ID

	_, err := f.boxes.Commit(ctx, ws)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrOwnership)

	st, err := repository.Stats(ctx, f.db)
	require.NoError(t, err)
	assert.Zero(t, st.Games)
	assert.Zero(t, st.PlayerBoxScores)
}

func TestCommitVerificationRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ws := f.writeSet("2024-06-01", []int{10, 10, 10, 10, 10}, []int{9, 9, 9, 9, 9})
	ws.Game.HomeScore = intPtr(52)

	_, err := f.boxes.Commit(ctx, ws)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrPersistenceFailure)
	assert.Contains(t, err.Error(), "score_team_total")

	st, err := repository.Stats(ctx, f.db)
	require.NoError(t, err)
	assert.Equal(t, entity.StoreStats{Teams: 2, Players: 12}, *st)
}

func TestCommitExcusedDiscrepancyIsStored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ws := f.writeSet("2024-06-01", []int{10, 10, 10, 10, 10}, []int{9, 9, 9, 9, 9})
	ws.Teams[0].Assists = 3
	ws.Excused = []repository.Discrepancy{{Kind: repository.DiscrepancyPlayerSum, TeamID: f.league.Home.ID, Category: "assists"}}

	res, err := f.boxes.Commit(ctx, ws)
	require.NoError(t, err)

	found, err := f.games.VerifyGame(ctx, res.GameID, common.ConsistencyConfig{})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, repository.DiscrepancyPlayerSum, found[0].Kind)
	assert.Equal(t, 3, found[0].Expected)
	assert.Equal(t, 0, found[0].Actual)

	found, err = f.games.VerifyGame(ctx, res.GameID, common.ConsistencyConfig{CategoryTolerance: map[string]int{"assists": 3}})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestDeleteStatsAndGame(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.boxes.Commit(ctx, f.writeSet("2024-06-01", []int{10, 10, 10, 10, 10}, []int{9, 9, 9, 9, 9}))
	require.NoError(t, err)

	require.NoError(t, f.games.DeleteStats(ctx, res.GameID))
	game, err := f.games.GetGame(ctx, res.GameID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.GameStatusScheduled), game.Status)
	assert.Nil(t, game.HomeScore)

	require.NoError(t, f.games.DeleteGame(ctx, res.GameID))
	_, err = f.games.GetGame(ctx, res.GameID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, f.games.DeleteGame(ctx, res.GameID), common.ErrNotFound)
}

func TestResetEmptiesStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.boxes.Commit(ctx, f.writeSet("2024-06-01", []int{10, 10, 10, 10, 10}, []int{9, 9, 9, 9, 9}))
	require.NoError(t, err)

	require.NoError(t, repository.Reset(ctx, f.db))
	st, err := repository.Stats(ctx, f.db)
	require.NoError(t, err)
	assert.Equal(t, entity.StoreStats{}, *st)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t,
		"file:a.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate",
		repository.SQLiteDSN("a.db"))
	assert.Equal(t,
		"file:a.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate",
		repository.SQLiteDSN("sqlite://file:a.db?mode=rwc"))
	assert.True(t, repository.IsPostgresDSN("postgres://u@h/db"))
	assert.False(t, repository.IsPostgresDSN("file:a.db"))
}
