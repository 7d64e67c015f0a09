package consistency

import (
	"fmt"
	"sort"

	"github.com/joseph-ayodele/boxscore-tracker/constants"
	"github.com/joseph-ayodele/boxscore-tracker/internal/candidate"
	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
)

// Warning kinds, in reporting order within a team.
const (
	KindPlayerSum      = "player_sum"
	KindScoreTeamTotal = "score_team_total"
	KindScorePlayerSum = "score_player_sum"
	KindRoster         = "roster"
	KindWinner         = "winner"
)

var kindOrder = map[string]int{
	KindWinner:         0,
	KindPlayerSum:      1,
	KindScoreTeamTotal: 2,
	KindScorePlayerSum: 3,
	KindRoster:         4,
}

// Warning is an arithmetic disagreement between parts of a record. Warnings
// are never blocking; a reviewer either fixes the numbers or accepts them.
type Warning struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	TeamIndex int    `json:"team_index"` // -1 for game-level warnings
	TeamID    int    `json:"team_id,omitempty"`
	Category  string `json:"category,omitempty"`
	Expected  int    `json:"expected"`
	Actual    int    `json:"actual"`
	Delta     int    `json:"delta"`
	Message   string `json:"message"`
}

// Config carries the tolerances and the roster minimum.
type Config struct {
	common.ConsistencyConfig
	MinPlayers int
}

// ConfigFrom picks the consistency settings out of the application config.
func ConfigFrom(cfg *common.Config) Config {
	return Config{ConsistencyConfig: cfg.Consistency, MinPlayers: cfg.Validation.MinPlayers}
}

func newWarning(kind string, teamIdx, teamID int, category string, expected, actual int, format string, args ...any) Warning {
	var id string
	switch {
	case teamIdx < 0:
		id = kind + "@" + candidate.SectionGame
	case category != "":
		id = fmt.Sprintf("%s.%s@%s", kind, category, candidate.TeamPath(teamIdx, ""))
	default:
		id = fmt.Sprintf("%s@%s", kind, candidate.TeamPath(teamIdx, ""))
	}
	return Warning{
		ID:        id,
		Kind:      kind,
		TeamIndex: teamIdx,
		TeamID:    teamID,
		Category:  category,
		Expected:  expected,
		Actual:    actual,
		Delta:     actual - expected,
		Message:   fmt.Sprintf(format, args...),
	}
}

// count reads a counting field. An absent field counts as zero; a field with
// a value of the wrong type is unusable.
func count(sec candidate.Section, name string) (n int, ok bool) {
	if sec[name] == nil || sec[name].Value == nil {
		return 0, true
	}
	return sec.Int(name)
}

// present reads a field that must exist and be a whole number.
func present(sec candidate.Section, name string) (int, bool) {
	if sec[name] == nil {
		return 0, false
	}
	return sec.Int(name)
}

type teamTotals struct {
	sums    map[constants.Stat]int
	unknown map[constants.Stat]bool
	rows    int
}

// Check compares player sums with team totals and team totals with the final
// score. Only fields holding values of the right type take part; anything
// else is left to the schema validator.
func Check(rec *candidate.Record, cfg Config) []Warning {
	var out []Warning

	homeID, homeOK := present(rec.Game, "home_team_id")
	awayID, awayOK := present(rec.Game, "away_team_id")
	homeScore, homeScoreOK := present(rec.Game, "home_score")
	awayScore, awayScoreOK := present(rec.Game, "away_score")

	totals := map[int]*teamTotals{}
	unassigned := false
	for _, row := range rec.Players {
		tid, ok := present(row, "team_id")
		if !ok {
			unassigned = true
			continue
		}
		t := totals[tid]
		if t == nil {
			t = &teamTotals{sums: map[constants.Stat]int{}, unknown: map[constants.Stat]bool{}}
			totals[tid] = t
		}
		t.rows++
		for _, s := range constants.CountingStats {
			v, ok := count(row, string(s))
			if !ok {
				t.unknown[s] = true
				continue
			}
			t.sums[s] += v
		}
	}

	for i, team := range rec.Teams {
		tid, ok := present(team, "team_id")
		if !ok {
			continue
		}
		t := totals[tid]
		if t == nil {
			t = &teamTotals{sums: map[constants.Stat]int{}, unknown: map[constants.Stat]bool{}}
		}

		if cfg.MinPlayers > 0 && t.rows < cfg.MinPlayers {
			out = append(out, newWarning(KindRoster, i, tid, "", cfg.MinPlayers, t.rows,
				"team %d has %d player rows, expected at least %d", tid, t.rows, cfg.MinPlayers))
		}

		score, scoreOK := 0, false
		switch {
		case homeOK && tid == homeID:
			score, scoreOK = homeScore, homeScoreOK
		case awayOK && tid == awayID:
			score, scoreOK = awayScore, awayScoreOK
		}

		if !unassigned {
			for _, s := range constants.CountingStats {
				if s == constants.Points && scoreOK {
					continue
				}
				total, ok := count(team, string(s))
				if !ok || t.unknown[s] {
					continue
				}
				sum := t.sums[s]
				if diff := sum - total; diff > cfg.For(string(s)) || -diff > cfg.For(string(s)) {
					out = append(out, newWarning(KindPlayerSum, i, tid, string(s), total, sum,
						"players of team %d sum to %d %s, team total is %d", tid, sum, s, total))
				}
			}
		}

		if !scoreOK {
			continue
		}
		if pts, ok := present(team, string(constants.Points)); ok && pts != score {
			out = append(out, newWarning(KindScoreTeamTotal, i, tid, "", score, pts,
				"team %d total points %d disagree with the final score %d", tid, pts, score))
		}
		if !unassigned && !t.unknown[constants.Points] && t.sums[constants.Points] != score {
			out = append(out, newWarning(KindScorePlayerSum, i, tid, "", score, t.sums[constants.Points],
				"team %d player points sum to %d, final score is %d", tid, t.sums[constants.Points], score))
		}
	}

	if w, ok := present(rec.Game, "winner_team_id"); ok && homeOK && awayOK && homeScoreOK && awayScoreOK {
		expected := 0
		switch {
		case homeScore > awayScore:
			expected = homeID
		case awayScore > homeScore:
			expected = awayID
		}
		if w != expected {
			msg := fmt.Sprintf("declared winner %d but the score is %d-%d", w, homeScore, awayScore)
			if expected == 0 {
				msg = fmt.Sprintf("declared winner %d but the game ended tied %d-%d", w, homeScore, awayScore)
			}
			out = append(out, newWarning(KindWinner, -1, 0, "", expected, w, "%s", msg))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.TeamIndex != b.TeamIndex {
			return a.TeamIndex < b.TeamIndex
		}
		if kindOrder[a.Kind] != kindOrder[b.Kind] {
			return kindOrder[a.Kind] < kindOrder[b.Kind]
		}
		return candidate.FieldRank(candidate.SectionTeams, a.Category) < candidate.FieldRank(candidate.SectionTeams, b.Category)
	})
	return out
}

// Find returns the warning with id.
func Find(ws []Warning, id string) (Warning, bool) {
	for _, w := range ws {
		if w.ID == id {
			return w, true
		}
	}
	return Warning{}, false
}
