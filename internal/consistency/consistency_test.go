package consistency_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/boxscore-tracker/internal/candidate"
	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
	"github.com/joseph-ayodele/boxscore-tracker/internal/consistency"
	"github.com/joseph-ayodele/boxscore-tracker/internal/testsupport"
)

func defaults() consistency.Config {
	return consistency.Config{MinPlayers: 5}
}

func clean() *candidate.Record {
	return testsupport.CleanRecord(testsupport.NewRoster())
}

func ids(ws []consistency.Warning) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.ID)
	}
	return out
}

func TestCleanRecordHasNoWarnings(t *testing.T) {
	assert.Empty(t, consistency.Check(clean(), defaults()))
}

func TestPlayerPointsShortOfFinalScore(t *testing.T) {
	rec := clean()
	rec.Players[0]["points"].Value = 18.0

	ws := consistency.Check(rec, defaults())
	require.Len(t, ws, 1)
	w := ws[0]
	assert.Equal(t, "score_player_sum@teams[0]", w.ID)
	assert.Equal(t, consistency.KindScorePlayerSum, w.Kind)
	assert.Equal(t, 1, w.TeamID)
	assert.Equal(t, 58, w.Expected)
	assert.Equal(t, 56, w.Actual)
	assert.Equal(t, -2, w.Delta)

	require.NoError(t, rec.Edit("players[2].points", 12.0))
	assert.Empty(t, consistency.Check(rec, defaults()))
}

func TestPlayerSumPerCategory(t *testing.T) {
	rec := clean()
	rec.Teams[1]["total_rebounds"].Value = 21.0

	ws := consistency.Check(rec, defaults())
	require.Len(t, ws, 1)
	assert.Equal(t, "player_sum.total_rebounds@teams[1]", ws[0].ID)
	assert.Equal(t, 2, ws[0].TeamID)
	assert.Equal(t, 21, ws[0].Expected)
	assert.Equal(t, 20, ws[0].Actual)
	assert.Equal(t, -1, ws[0].Delta)
}

func TestCategoryTolerance(t *testing.T) {
	rec := clean()
	rec.Teams[1]["total_rebounds"].Value = 21.0
	rec.Teams[1]["assists"].Value = 12.0

	cfg := defaults()
	cfg.ConsistencyConfig = common.ConsistencyConfig{CategoryTolerance: map[string]int{"total_rebounds": 1}}
	assert.Equal(t, []string{"player_sum.assists@teams[1]"}, ids(consistency.Check(rec, cfg)))

	cfg.Tolerance = 5
	assert.Empty(t, consistency.Check(rec, cfg))
}

func TestBothTotalsDisagreeWithScore(t *testing.T) {
	rec := clean()
	rec.Game["home_score"].Value = 60.0
	rec.Game["winner_team_id"].Value = 1.0

	assert.Equal(t, []string{
		"score_team_total@teams[0]",
		"score_player_sum@teams[0]",
	}, ids(consistency.Check(rec, defaults())))
}

func TestPointsJoinPlayerSumWithoutScore(t *testing.T) {
	rec := clean()
	delete(rec.Game, "home_score")
	delete(rec.Game, "winner_team_id")
	rec.Players[0]["points"].Value = 18.0

	assert.Equal(t, []string{"player_sum.points@teams[0]"}, ids(consistency.Check(rec, defaults())))
}

func TestWinner(t *testing.T) {
	rec := clean()
	rec.Game["winner_team_id"].Value = 2.0
	ws := consistency.Check(rec, defaults())
	require.Len(t, ws, 1)
	assert.Equal(t, "winner@game", ws[0].ID)
	assert.Equal(t, 1, ws[0].Expected)
	assert.Equal(t, 2, ws[0].Actual)

	tied := clean()
	tied.Game["away_score"].Value = 58.0
	tied.Teams[1]["points"].Value = 58.0
	tied.Players[5]["points"].Value = 18.0
	ws = consistency.Check(tied, defaults())
	require.Len(t, ws, 1)
	assert.Equal(t, "winner@game", ws[0].ID)
	assert.Equal(t, 0, ws[0].Expected)
	assert.Contains(t, ws[0].Message, "tied")
}

func TestRosterMinimum(t *testing.T) {
	cfg := defaults()
	cfg.MinPlayers = 6
	assert.Equal(t, []string{"roster@teams[0]", "roster@teams[1]"}, ids(consistency.Check(clean(), cfg)))
}

func TestMistypedFieldsAreSkipped(t *testing.T) {
	rec := clean()
	rec.Players[0]["assists"].Value = "x"
	rec.Teams[0]["assists"].Value = 99.0
	rec.Teams[1]["points"].Value = "56"
	rec.Game["away_score"].Value = 56.5

	assert.Empty(t, consistency.Check(rec, defaults()))
}

func TestMissingOptionalStatsCountAsZero(t *testing.T) {
	rec := clean()
	for _, p := range rec.Players {
		delete(p, "blocks")
	}
	assert.Empty(t, consistency.Check(rec, defaults()))

	rec.Teams[0]["blocks"].Value = 2.0
	assert.Equal(t, []string{"player_sum.blocks@teams[0]"}, ids(consistency.Check(rec, defaults())))
}

func TestMissingTeamTotalCountsAsZero(t *testing.T) {
	rec := clean()
	delete(rec.Teams[0], "steals")

	ws := consistency.Check(rec, defaults())
	require.Len(t, ws, 1)
	assert.Equal(t, "player_sum.steals@teams[0]", ws[0].ID)
	assert.Equal(t, 0, ws[0].Expected)
	assert.Equal(t, 2, ws[0].Actual)
}

func TestTeamOnlyAndLineStatsAreNotSummed(t *testing.T) {
	rec := clean()
	f := func(v float64) *candidate.Field { return &candidate.Field{Value: v, Confidence: 0.9} }
	rec.Teams[0]["points_in_paint"] = f(30)
	rec.Teams[0]["bench_points"] = f(4)
	rec.Teams[0]["plus_minus"] = f(2)
	rec.Players[0]["plus_minus"] = f(-6)
	rec.Players[1]["efficiency"] = f(14)
	rec.Players[2]["fouls_drawn"] = f(3)

	assert.Empty(t, consistency.Check(rec, defaults()))
}

func TestOrdering(t *testing.T) {
	rec := clean()
	rec.Game["winner_team_id"].Value = 2.0
	rec.Teams[1]["fouls"].Value = 1.0
	rec.Teams[1]["assists"].Value = 1.0
	rec.Teams[0]["points"].Value = 50.0
	rec.Players[9]["points"].Value = 4.0
	cfg := defaults()
	cfg.MinPlayers = 6

	assert.Equal(t, []string{
		"winner@game",
		"score_team_total@teams[0]",
		"roster@teams[0]",
		"player_sum.assists@teams[1]",
		"player_sum.fouls@teams[1]",
		"score_player_sum@teams[1]",
		"roster@teams[1]",
	}, ids(consistency.Check(rec, cfg)))
}
