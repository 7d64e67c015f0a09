package testsupport

import (
	"github.com/joseph-ayodele/boxscore-tracker/constants"
	"github.com/joseph-ayodele/boxscore-tracker/internal/candidate"
	"github.com/joseph-ayodele/boxscore-tracker/internal/entity"
)

// HomePoints and AwayPoints are the per-player points of CleanRecord: 58-56.
var (
	HomePoints = []int{20, 12, 10, 8, 8}
	AwayPoints = []int{16, 14, 10, 10, 6}
)

func field(v any) *candidate.Field {
	return &candidate.Field{Value: v, Origin: candidate.OriginExtracted, Confidence: 0.9}
}

// playerLine derives a plausible stat line from a point total.
func playerLine(i, pts int) map[constants.Stat]int {
	return map[constants.Stat]int{
		constants.Points:              pts,
		constants.FieldGoalsMade:      pts / 2,
		constants.FieldGoalsAttempted: pts,
		constants.ThreePointersMade:   0,
		constants.ThreePointersAtt:    1,
		constants.FreeThrowsMade:      pts % 2,
		constants.FreeThrowsAttempted: pts%2 + 1,
		constants.OffensiveRebounds:   1,
		constants.DefensiveRebounds:   i + 1,
		constants.TotalRebounds:       i + 2,
		constants.Assists:             i,
		constants.Turnovers:           1,
		constants.Steals:              i % 2,
		constants.Blocks:              0,
		constants.Fouls:               2,
	}
}

// CleanRecord builds a candidate with no findings for the first two teams of
// roster: five players a side, team rows equal to the player sums, 58-56.
func CleanRecord(roster *entity.Roster) *candidate.Record {
	home, away := roster.Teams[0], roster.Teams[1]
	rec := candidate.New()
	rec.Game = candidate.Section{
		"date":           field("2024-06-01"),
		"home_team_id":   field(float64(home.ID)),
		"away_team_id":   field(float64(away.ID)),
		"home_score":     field(float64(sum(HomePoints))),
		"away_score":     field(float64(sum(AwayPoints))),
		"winner_team_id": field(float64(home.ID)),
		"location":       field("Harbor Arena"),
		"status":         field("final"),
	}
	for _, side := range []struct {
		team *entity.Team
		pts  []int
	}{{home, HomePoints}, {away, AwayPoints}} {
		totals := map[constants.Stat]int{}
		players := roster.PlayersOf(side.team.ID)
		for i, pts := range side.pts {
			p := players[i]
			sec := candidate.Section{
				"player_id": field(float64(p.ID)),
				"team_id":   field(float64(side.team.ID)),
				"name":      field(p.MediaName),
				"starter":   field(true),
				"minutes":   field(30.0),
			}
			for stat, v := range playerLine(i, pts) {
				sec[string(stat)] = field(float64(v))
				totals[stat] += v
			}
			rec.Players = append(rec.Players, sec)
		}
		team := candidate.Section{"team_id": field(float64(side.team.ID))}
		for stat, v := range totals {
			team[string(stat)] = field(float64(v))
		}
		rec.Teams = append(rec.Teams, team)
	}
	rec.Meta = candidate.Meta{
		SourceName:     "game.pdf",
		SourceSHA256:   "deadbeef",
		InputMethod:    "pdftotext",
		PrepConfidence: 0.9,
	}
	return rec
}

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}

// ResponseObject renders rec the way the extraction service answers: plain
// section objects keyed by field name.
func ResponseObject(rec *candidate.Record) map[string]any {
	flat := func(s candidate.Section) map[string]any {
		m := make(map[string]any, len(s))
		for k, f := range s {
			m[k] = f.Value
		}
		return m
	}
	rows := func(secs []candidate.Section) []any {
		out := make([]any, len(secs))
		for i, s := range secs {
			out[i] = flat(s)
		}
		return out
	}
	return map[string]any{
		candidate.SectionGame:    flat(rec.Game),
		candidate.SectionTeams:   rows(rec.Teams),
		candidate.SectionPlayers: rows(rec.Players),
	}
}
