package commit

import (
	"fmt"

	"github.com/joseph-ayodele/boxscore-tracker/constants"
	"github.com/joseph-ayodele/boxscore-tracker/internal/candidate"
	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
	"github.com/joseph-ayodele/boxscore-tracker/internal/entity"
	"github.com/joseph-ayodele/boxscore-tracker/internal/repository"
)

func intPtr(sec candidate.Section, name string) *int {
	if v, ok := sec.Int(name); ok {
		return &v
	}
	return nil
}

func textPtr(sec candidate.Section, name string) *string {
	if v, ok := sec.Text(name); ok && v != "" {
		return &v
	}
	return nil
}

func mustInt(sec candidate.Section, p candidate.Path) (int, error) {
	v, ok := sec.Int(p.Field)
	if !ok {
		return 0, fmt.Errorf("%w: %s is not a whole number", common.ErrInvalidInput, p)
	}
	return v, nil
}

// statLine fills the stat columns of a row. Absent counting stats are stored
// as zero; absent optional and percentage stats stay NULL.
func statLine(sec candidate.Section) entity.StatLine {
	var l entity.StatLine
	for _, s := range constants.CountingStats {
		if v, ok := sec.Int(string(s)); ok {
			l.SetCount(s, v)
		}
	}
	for _, p := range constants.PercentageStats {
		if v, ok := sec.Float(string(p.Stat)); ok {
			l.SetPercentage(p.Stat, v)
		}
	}
	for _, s := range constants.LineStats {
		if v, ok := sec.Int(string(s)); ok {
			l.SetOptional(s, v)
		}
	}
	return l
}

func teamLine(sec candidate.Section) entity.TeamLine {
	var l entity.TeamLine
	for _, s := range constants.TeamStats {
		if v, ok := sec.Int(string(s)); ok {
			l.Set(s, v)
		}
	}
	return l
}

// BuildWriteSet converts a validated candidate into typed rows. It fails only
// on values the validator would have blocked.
func BuildWriteSet(rec *candidate.Record) (*repository.WriteSet, error) {
	g := rec.Game
	date, ok := g.Text("date")
	if !ok {
		return nil, fmt.Errorf("%w: game.date is missing", common.ErrInvalidInput)
	}
	home, err := mustInt(g, candidate.GamePath("home_team_id"))
	if err != nil {
		return nil, err
	}
	away, err := mustInt(g, candidate.GamePath("away_team_id"))
	if err != nil {
		return nil, err
	}

	ws := &repository.WriteSet{
		Game: entity.Game{
			Date:         date,
			HomeTeamID:   home,
			AwayTeamID:   away,
			HomeScore:    intPtr(g, "home_score"),
			AwayScore:    intPtr(g, "away_score"),
			WinnerTeamID: intPtr(g, "winner_team_id"),
			Location:     textPtr(g, "location"),
			Status:       string(constants.GameStatusFinal),
		},
	}
	if rec.Meta.SourceName != "" {
		ws.Game.SourceName = &rec.Meta.SourceName
	}
	if rec.Meta.SourceSHA256 != "" {
		ws.Game.SourceSHA256 = &rec.Meta.SourceSHA256
	}

	for i, t := range rec.Teams {
		id, err := mustInt(t, candidate.TeamPath(i, "team_id"))
		if err != nil {
			return nil, err
		}
		ws.Teams = append(ws.Teams, entity.TeamBoxScore{TeamID: id, StatLine: statLine(t), TeamLine: teamLine(t)})
	}
	for i, p := range rec.Players {
		pid, err := mustInt(p, candidate.PlayerPath(i, "player_id"))
		if err != nil {
			return nil, err
		}
		tid, err := mustInt(p, candidate.PlayerPath(i, "team_id"))
		if err != nil {
			return nil, err
		}
		row := entity.PlayerBoxScore{
			TeamID:       tid,
			PlayerID:     pid,
			JerseyNumber: intPtr(p, "jersey_number"),
			StatLine:     statLine(p),
		}
		if m, ok := p.Float("minutes"); ok {
			row.Minutes = m
		}
		if s, ok := p.Value("starter").(bool); ok {
			row.Starter = s
		}
		ws.Players = append(ws.Players, row)
	}
	return ws, nil
}
