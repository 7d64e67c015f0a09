package constants

// Stat is a box-score column shared by team and player rows.
type Stat string

const (
	Points               Stat = "points"
	FieldGoalsMade       Stat = "field_goals_made"
	FieldGoalsAttempted  Stat = "field_goals_attempted"
	FieldGoalPercentage  Stat = "field_goal_percentage"
	ThreePointersMade    Stat = "three_pointers_made"
	ThreePointersAtt     Stat = "three_pointers_attempted"
	ThreePointPercentage Stat = "three_point_percentage"
	FreeThrowsMade       Stat = "free_throws_made"
	FreeThrowsAttempted  Stat = "free_throws_attempted"
	FreeThrowPercentage  Stat = "free_throw_percentage"
	OffensiveRebounds    Stat = "offensive_rebounds"
	DefensiveRebounds    Stat = "defensive_rebounds"
	TotalRebounds        Stat = "total_rebounds"
	Assists              Stat = "assists"
	Turnovers            Stat = "turnovers"
	Steals               Stat = "steals"
	Blocks               Stat = "blocks"
	Fouls                Stat = "fouls"
	Minutes              Stat = "minutes"

	FoulsDrawn Stat = "fouls_drawn"
	PlusMinus  Stat = "plus_minus"
	Efficiency Stat = "efficiency"

	PointsInPaint       Stat = "points_in_paint"
	SecondChancePoints  Stat = "second_chance_points"
	FastBreakPoints     Stat = "fast_break_points"
	BenchPoints         Stat = "bench_points"
	PointsFromTurnovers Stat = "points_from_turnovers"
	LeadChanges         Stat = "lead_changes"
	TimesTied           Stat = "times_tied"
)

// CountingStats are the integer categories summed across players; order is canonical.
var CountingStats = []Stat{
	Points,
	FieldGoalsMade,
	FieldGoalsAttempted,
	ThreePointersMade,
	ThreePointersAtt,
	FreeThrowsMade,
	FreeThrowsAttempted,
	OffensiveRebounds,
	DefensiveRebounds,
	TotalRebounds,
	Assists,
	Turnovers,
	Steals,
	Blocks,
	Fouls,
}

// LineStats are optional whole numbers carried by team and player rows alike.
// They are not reconciled against team totals.
var LineStats = []Stat{FoulsDrawn, PlusMinus, Efficiency}

// TeamStats appear on team rows only.
var TeamStats = []Stat{
	PointsInPaint,
	SecondChancePoints,
	FastBreakPoints,
	BenchPoints,
	PointsFromTurnovers,
	LeadChanges,
	TimesTied,
}

// Signed reports whether s may go below zero.
func Signed(s Stat) bool {
	return s == PlusMinus || s == Efficiency
}

// Percentage stats with the made/attempted pair they derive from.
var PercentageStats = []struct {
	Stat      Stat
	Made      Stat
	Attempted Stat
}{
	{FieldGoalPercentage, FieldGoalsMade, FieldGoalsAttempted},
	{ThreePointPercentage, ThreePointersMade, ThreePointersAtt},
	{FreeThrowPercentage, FreeThrowsMade, FreeThrowsAttempted},
}

// ShotPairs are the made/attempted pairs; makes can never exceed attempts.
var ShotPairs = [][2]Stat{
	{FieldGoalsMade, FieldGoalsAttempted},
	{ThreePointersMade, ThreePointersAtt},
	{FreeThrowsMade, FreeThrowsAttempted},
}

func IsCountingStat(s string) bool {
	for _, c := range CountingStats {
		if string(c) == s {
			return true
		}
	}
	return false
}

func IsPercentageStat(s string) bool {
	for _, p := range PercentageStats {
		if string(p.Stat) == s {
			return true
		}
	}
	return false
}
