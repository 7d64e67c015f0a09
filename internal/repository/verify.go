package repository

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/boxscore-tracker/constants"
	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
	"github.com/joseph-ayodele/boxscore-tracker/internal/entity"
)

// Discrepancy kinds reported by store-level verification. The arithmetic kinds
// share their names with the consistency checker's warning kinds.
const (
	DiscrepancyTeamCount      = "team_count"
	DiscrepancyOwnership      = "ownership"
	DiscrepancyPlayerSum      = "player_sum"
	DiscrepancyScoreTeamTotal = "score_team_total"
	DiscrepancyScorePlayerSum = "score_player_sum"
	DiscrepancyWinner         = "winner"
)

// Discrepancy is an invariant that does not hold on stored rows.
type Discrepancy struct {
	Kind     string `json:"kind"`
	TeamID   int    `json:"team_id,omitempty"`
	Category string `json:"category,omitempty"`
	Expected int    `json:"expected"`
	Actual   int    `json:"actual"`
}

func (d Discrepancy) String() string {
	name := d.Kind
	if d.Category != "" {
		name += "." + d.Category
	}
	if d.TeamID != 0 {
		return fmt.Sprintf("%s team %d: expected %d, got %d", name, d.TeamID, d.Expected, d.Actual)
	}
	return fmt.Sprintf("%s: expected %d, got %d", name, d.Expected, d.Actual)
}

// Matches reports whether o names the same kind, team and category.
func (d Discrepancy) Matches(o Discrepancy) bool {
	return d.Kind == o.Kind && d.TeamID == o.TeamID && d.Category == o.Category
}

var gameColumns = []string{
	"id", "date", "home_team_id", "away_team_id", "home_score", "away_score",
	"winner_team_id", "location", "status", "source_name", "source_sha256",
	"created_at", "updated_at",
}

func teamBoxScoreColumns() []string {
	return append([]string{"id"}, teamInsertColumns()...)
}

func teamInsertColumns() []string {
	cols := append([]string{"game_id", "team_id"}, entity.StatColumns...)
	return append(cols, entity.TeamLineColumns...)
}

func playerBoxScoreColumns() []string {
	return append([]string{"id", "game_id", "team_id", "player_id", "jersey_number", "starter", "minutes"}, entity.StatColumns...)
}

type gameRows struct {
	game    *entity.Game
	teams   []*entity.TeamBoxScore
	players []*entity.PlayerBoxScore
}

func loadGameRows(ctx context.Context, q Querier, d string, gameID int) (*gameRows, error) {
	b := entsql.Dialect(d)
	game, err := queryOne[entity.Game](ctx, q,
		b.Select(gameColumns...).From(b.Table("games")).Where(entsql.EQ("id", gameID)))
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, fmt.Errorf("game %d: %w", gameID, common.ErrNotFound)
	}
	teams, err := queryAll[entity.TeamBoxScore](ctx, q,
		b.Select(teamBoxScoreColumns()...).From(b.Table("team_box_scores")).
			Where(entsql.EQ("game_id", gameID)).OrderBy("id"))
	if err != nil {
		return nil, err
	}
	players, err := queryAll[entity.PlayerBoxScore](ctx, q,
		b.Select(playerBoxScoreColumns()...).From(b.Table("player_box_scores")).
			Where(entsql.EQ("game_id", gameID)).OrderBy("team_id", "id"))
	if err != nil {
		return nil, err
	}
	return &gameRows{game: game, teams: teams, players: players}, nil
}

// verifyGame re-reads a game's rows through q and checks the stored-record
// invariants: two team rows for the declared teams, player rows filed under
// those teams, player sums against team totals, team totals against the final
// score, and the declared winner.
func verifyGame(ctx context.Context, q Querier, d string, gameID int, tol common.ConsistencyConfig) ([]Discrepancy, error) {
	rows, err := loadGameRows(ctx, q, d, gameID)
	if err != nil {
		return nil, err
	}
	g := rows.game
	if g.Status == string(constants.GameStatusScheduled) && len(rows.teams) == 0 && len(rows.players) == 0 {
		return nil, nil
	}

	var out []Discrepancy
	byTeam := make(map[int]*entity.TeamBoxScore, len(rows.teams))
	for _, t := range rows.teams {
		byTeam[t.TeamID] = t
	}
	if len(rows.teams) != 2 || byTeam[g.HomeTeamID] == nil || byTeam[g.AwayTeamID] == nil {
		out = append(out, Discrepancy{Kind: DiscrepancyTeamCount, Expected: 2, Actual: len(rows.teams)})
	}

	sums := map[int]*entity.StatLine{g.HomeTeamID: {}, g.AwayTeamID: {}}
	for _, p := range rows.players {
		sum, ok := sums[p.TeamID]
		if !ok {
			out = append(out, Discrepancy{Kind: DiscrepancyOwnership, TeamID: p.TeamID, Category: fmt.Sprint(p.PlayerID)})
			continue
		}
		for _, s := range constants.CountingStats {
			sum.SetCount(s, sum.Count(s)+p.Count(s))
		}
	}

	sides := []struct {
		teamID int
		score  *int
	}{
		{g.HomeTeamID, g.HomeScore},
		{g.AwayTeamID, g.AwayScore},
	}
	for _, side := range sides {
		team := byTeam[side.teamID]
		if team == nil {
			continue
		}
		sum := sums[side.teamID]
		for _, s := range constants.CountingStats {
			if s == constants.Points && side.score != nil {
				continue
			}
			if diff := sum.Count(s) - team.Count(s); abs(diff) > tol.For(string(s)) {
				out = append(out, Discrepancy{Kind: DiscrepancyPlayerSum, TeamID: side.teamID, Category: string(s), Expected: team.Count(s), Actual: sum.Count(s)})
			}
		}
		if side.score == nil {
			continue
		}
		if team.Points != *side.score {
			out = append(out, Discrepancy{Kind: DiscrepancyScoreTeamTotal, TeamID: side.teamID, Expected: *side.score, Actual: team.Points})
		}
		if sum.Points != *side.score {
			out = append(out, Discrepancy{Kind: DiscrepancyScorePlayerSum, TeamID: side.teamID, Expected: *side.score, Actual: sum.Points})
		}
	}

	if g.WinnerTeamID != nil && g.HomeScore != nil && g.AwayScore != nil {
		expected := 0
		switch {
		case *g.HomeScore > *g.AwayScore:
			expected = g.HomeTeamID
		case *g.AwayScore > *g.HomeScore:
			expected = g.AwayTeamID
		}
		if *g.WinnerTeamID != expected {
			out = append(out, Discrepancy{Kind: DiscrepancyWinner, Expected: expected, Actual: *g.WinnerTeamID})
		}
	}
	return out, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
