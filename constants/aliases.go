package constants

import "strings"

// CanonicalStat maps common box-score column labels onto a Stat.
func CanonicalStat(input string) (Stat, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}
	normalized = strings.ReplaceAll(normalized, " ", "_")

	synonyms := map[string]Stat{
		"pts":                  Points,
		"fgm":                  FieldGoalsMade,
		"fga":                  FieldGoalsAttempted,
		"fg_pct":               FieldGoalPercentage,
		"fg%":                  FieldGoalPercentage,
		"3pm":                  ThreePointersMade,
		"3pa":                  ThreePointersAtt,
		"3p_pct":               ThreePointPercentage,
		"3p%":                  ThreePointPercentage,
		"ftm":                  FreeThrowsMade,
		"fta":                  FreeThrowsAttempted,
		"ft_pct":               FreeThrowPercentage,
		"ft%":                  FreeThrowPercentage,
		"oreb":                 OffensiveRebounds,
		"dreb":                 DefensiveRebounds,
		"reb":                  TotalRebounds,
		"rebounds":             TotalRebounds,
		"ast":                  Assists,
		"to":                   Turnovers,
		"tov":                  Turnovers,
		"stl":                  Steals,
		"blk":                  Blocks,
		"pf":                   Fouls,
		"personal_fouls":       Fouls,
		"min":                  Minutes,
		"minutes_played":       Minutes,
		"three_point_made":     ThreePointersMade,
		"three_point_attempt":  ThreePointersAtt,
		"fd":                   FoulsDrawn,
		"pfd":                  FoulsDrawn,
		"+/-":                  PlusMinus,
		"pm":                   PlusMinus,
		"eff":                  Efficiency,
		"pitp":                 PointsInPaint,
		"paint_points":         PointsInPaint,
		"2nd_chance_points":    SecondChancePoints,
		"fb_points":            FastBreakPoints,
		"fast_break":           FastBreakPoints,
		"pts_off_to":           PointsFromTurnovers,
		"points_off_turnovers": PointsFromTurnovers,
	}
	if s, ok := synonyms[normalized]; ok {
		return s, true
	}

	for _, s := range allStats {
		if normalized == string(s) {
			return s, true
		}
	}
	return "", false
}

var allStats = []Stat{
	Points, FieldGoalsMade, FieldGoalsAttempted, FieldGoalPercentage,
	ThreePointersMade, ThreePointersAtt, ThreePointPercentage,
	FreeThrowsMade, FreeThrowsAttempted, FreeThrowPercentage,
	OffensiveRebounds, DefensiveRebounds, TotalRebounds,
	Assists, Turnovers, Steals, Blocks, Fouls, Minutes,
	FoulsDrawn, PlusMinus, Efficiency,
	PointsInPaint, SecondChancePoints, FastBreakPoints, BenchPoints,
	PointsFromTurnovers, LeadChanges, TimesTied,
}
