package entity

import "github.com/joseph-ayodele/boxscore-tracker/constants"

// StatLine holds the columns shared by team and player box scores.
type StatLine struct {
	Points                 int      `sql:"points" json:"points"`
	FieldGoalsMade         int      `sql:"field_goals_made" json:"field_goals_made"`
	FieldGoalsAttempted    int      `sql:"field_goals_attempted" json:"field_goals_attempted"`
	FieldGoalPercentage    *float64 `sql:"field_goal_percentage" json:"field_goal_percentage,omitempty"`
	ThreePointersMade      int      `sql:"three_pointers_made" json:"three_pointers_made"`
	ThreePointersAttempted int      `sql:"three_pointers_attempted" json:"three_pointers_attempted"`
	ThreePointPercentage   *float64 `sql:"three_point_percentage" json:"three_point_percentage,omitempty"`
	FreeThrowsMade         int      `sql:"free_throws_made" json:"free_throws_made"`
	FreeThrowsAttempted    int      `sql:"free_throws_attempted" json:"free_throws_attempted"`
	FreeThrowPercentage    *float64 `sql:"free_throw_percentage" json:"free_throw_percentage,omitempty"`
	OffensiveRebounds      int      `sql:"offensive_rebounds" json:"offensive_rebounds"`
	DefensiveRebounds      int      `sql:"defensive_rebounds" json:"defensive_rebounds"`
	TotalRebounds          int      `sql:"total_rebounds" json:"total_rebounds"`
	Assists                int      `sql:"assists" json:"assists"`
	Turnovers              int      `sql:"turnovers" json:"turnovers"`
	Steals                 int      `sql:"steals" json:"steals"`
	Blocks                 int      `sql:"blocks" json:"blocks"`
	Fouls                  int      `sql:"fouls" json:"fouls"`
	FoulsDrawn             *int     `sql:"fouls_drawn" json:"fouls_drawn,omitempty"`
	PlusMinus              *int     `sql:"plus_minus" json:"plus_minus,omitempty"`
	Efficiency             *int     `sql:"efficiency" json:"efficiency,omitempty"`
}

// StatColumns lists the StatLine columns in struct order.
var StatColumns = []string{
	"points",
	"field_goals_made",
	"field_goals_attempted",
	"field_goal_percentage",
	"three_pointers_made",
	"three_pointers_attempted",
	"three_point_percentage",
	"free_throws_made",
	"free_throws_attempted",
	"free_throw_percentage",
	"offensive_rebounds",
	"defensive_rebounds",
	"total_rebounds",
	"assists",
	"turnovers",
	"steals",
	"blocks",
	"fouls",
	"fouls_drawn",
	"plus_minus",
	"efficiency",
}

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// Values returns the line in StatColumns order; unset optional columns are nil.
func (l *StatLine) Values() []any {
	pct := nullable[float64]
	return []any{
		l.Points,
		l.FieldGoalsMade,
		l.FieldGoalsAttempted,
		pct(l.FieldGoalPercentage),
		l.ThreePointersMade,
		l.ThreePointersAttempted,
		pct(l.ThreePointPercentage),
		l.FreeThrowsMade,
		l.FreeThrowsAttempted,
		pct(l.FreeThrowPercentage),
		l.OffensiveRebounds,
		l.DefensiveRebounds,
		l.TotalRebounds,
		l.Assists,
		l.Turnovers,
		l.Steals,
		l.Blocks,
		l.Fouls,
		nullable(l.FoulsDrawn),
		nullable(l.PlusMinus),
		nullable(l.Efficiency),
	}
}

// Optional returns the optional whole-number stat s, or nil when unset.
func (l *StatLine) Optional(s constants.Stat) *int {
	switch s {
	case constants.FoulsDrawn:
		return l.FoulsDrawn
	case constants.PlusMinus:
		return l.PlusMinus
	case constants.Efficiency:
		return l.Efficiency
	}
	return nil
}

// SetOptional assigns the optional stat s and reports whether s is one.
func (l *StatLine) SetOptional(s constants.Stat, v int) bool {
	switch s {
	case constants.FoulsDrawn:
		l.FoulsDrawn = &v
	case constants.PlusMinus:
		l.PlusMinus = &v
	case constants.Efficiency:
		l.Efficiency = &v
	default:
		return false
	}
	return true
}

// TeamLine holds the columns only a team row carries.
type TeamLine struct {
	PointsInPaint       *int `sql:"points_in_paint" json:"points_in_paint,omitempty"`
	SecondChancePoints  *int `sql:"second_chance_points" json:"second_chance_points,omitempty"`
	FastBreakPoints     *int `sql:"fast_break_points" json:"fast_break_points,omitempty"`
	BenchPoints         *int `sql:"bench_points" json:"bench_points,omitempty"`
	PointsFromTurnovers *int `sql:"points_from_turnovers" json:"points_from_turnovers,omitempty"`
	LeadChanges         *int `sql:"lead_changes" json:"lead_changes,omitempty"`
	TimesTied           *int `sql:"times_tied" json:"times_tied,omitempty"`
}

// TeamLineColumns lists the TeamLine columns in struct order.
var TeamLineColumns = []string{
	"points_in_paint",
	"second_chance_points",
	"fast_break_points",
	"bench_points",
	"points_from_turnovers",
	"lead_changes",
	"times_tied",
}

func (l *TeamLine) field(s constants.Stat) **int {
	switch s {
	case constants.PointsInPaint:
		return &l.PointsInPaint
	case constants.SecondChancePoints:
		return &l.SecondChancePoints
	case constants.FastBreakPoints:
		return &l.FastBreakPoints
	case constants.BenchPoints:
		return &l.BenchPoints
	case constants.PointsFromTurnovers:
		return &l.PointsFromTurnovers
	case constants.LeadChanges:
		return &l.LeadChanges
	case constants.TimesTied:
		return &l.TimesTied
	}
	return nil
}

// TeamValues returns the line in TeamLineColumns order.
func (l *TeamLine) TeamValues() []any {
	out := make([]any, 0, len(constants.TeamStats))
	for _, s := range constants.TeamStats {
		out = append(out, nullable(*l.field(s)))
	}
	return out
}

// Get returns the team stat s, or nil when unset or unknown.
func (l *TeamLine) Get(s constants.Stat) *int {
	if f := l.field(s); f != nil {
		return *f
	}
	return nil
}

// Set assigns the team stat s and reports whether s is one.
func (l *TeamLine) Set(s constants.Stat, v int) bool {
	f := l.field(s)
	if f == nil {
		return false
	}
	*f = &v
	return true
}

// Percentage returns the percentage stat s, or nil when unset or unknown.
func (l *StatLine) Percentage(s constants.Stat) *float64 {
	switch s {
	case constants.FieldGoalPercentage:
		return l.FieldGoalPercentage
	case constants.ThreePointPercentage:
		return l.ThreePointPercentage
	case constants.FreeThrowPercentage:
		return l.FreeThrowPercentage
	}
	return nil
}

// TeamBoxScore is one team's line for a game.
type TeamBoxScore struct {
	ID     int `sql:"id" json:"id"`
	GameID int `sql:"game_id" json:"game_id"`
	TeamID int `sql:"team_id" json:"team_id"`
	StatLine
	TeamLine
}

// PlayerBoxScore is one player's line for a game, filed under a team.
type PlayerBoxScore struct {
	ID           int     `sql:"id" json:"id"`
	GameID       int     `sql:"game_id" json:"game_id"`
	TeamID       int     `sql:"team_id" json:"team_id"`
	PlayerID     int     `sql:"player_id" json:"player_id"`
	JerseyNumber *int    `sql:"jersey_number" json:"jersey_number,omitempty"`
	Starter      bool    `sql:"starter" json:"starter"`
	Minutes      float64 `sql:"minutes" json:"minutes"`
	StatLine
}

// Count returns the counting stat s; unknown or non-counting stats return 0.
func (l *StatLine) Count(s constants.Stat) int {
	switch s {
	case constants.Points:
		return l.Points
	case constants.FieldGoalsMade:
		return l.FieldGoalsMade
	case constants.FieldGoalsAttempted:
		return l.FieldGoalsAttempted
	case constants.ThreePointersMade:
		return l.ThreePointersMade
	case constants.ThreePointersAtt:
		return l.ThreePointersAttempted
	case constants.FreeThrowsMade:
		return l.FreeThrowsMade
	case constants.FreeThrowsAttempted:
		return l.FreeThrowsAttempted
	case constants.OffensiveRebounds:
		return l.OffensiveRebounds
	case constants.DefensiveRebounds:
		return l.DefensiveRebounds
	case constants.TotalRebounds:
		return l.TotalRebounds
	case constants.Assists:
		return l.Assists
	case constants.Turnovers:
		return l.Turnovers
	case constants.Steals:
		return l.Steals
	case constants.Blocks:
		return l.Blocks
	case constants.Fouls:
		return l.Fouls
	}
	return 0
}

// SetCount assigns the counting stat s and reports whether s is one.
func (l *StatLine) SetCount(s constants.Stat, v int) bool {
	switch s {
	case constants.Points:
		l.Points = v
	case constants.FieldGoalsMade:
		l.FieldGoalsMade = v
	case constants.FieldGoalsAttempted:
		l.FieldGoalsAttempted = v
	case constants.ThreePointersMade:
		l.ThreePointersMade = v
	case constants.ThreePointersAtt:
		l.ThreePointersAttempted = v
	case constants.FreeThrowsMade:
		l.FreeThrowsMade = v
	case constants.FreeThrowsAttempted:
		l.FreeThrowsAttempted = v
	case constants.OffensiveRebounds:
		l.OffensiveRebounds = v
	case constants.DefensiveRebounds:
		l.DefensiveRebounds = v
	case constants.TotalRebounds:
		l.TotalRebounds = v
	case constants.Assists:
		l.Assists = v
	case constants.Turnovers:
		l.Turnovers = v
	case constants.Steals:
		l.Steals = v
	case constants.Blocks:
		l.Blocks = v
	case constants.Fouls:
		l.Fouls = v
	default:
		return false
	}
	return true
}

// SetPercentage assigns the percentage stat s and reports whether s is one.
func (l *StatLine) SetPercentage(s constants.Stat, v float64) bool {
	switch s {
	case constants.FieldGoalPercentage:
		l.FieldGoalPercentage = &v
	case constants.ThreePointPercentage:
		l.ThreePointPercentage = &v
	case constants.FreeThrowPercentage:
		l.FreeThrowPercentage = &v
	default:
		return false
	}
	return true
}
