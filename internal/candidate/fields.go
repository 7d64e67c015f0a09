package candidate

import "github.com/joseph-ayodele/boxscore-tracker/constants"

// Kind is the semantic type of a candidate field.
type Kind string

const (
	KindCount      Kind = "count"
	KindSigned     Kind = "signed"
	KindPercentage Kind = "percentage"
	KindMinutes    Kind = "minutes"
	KindText       Kind = "text"
	KindDate       Kind = "date"
	KindStatus     Kind = "status"
	KindBool       Kind = "bool"
	KindJersey     Kind = "jersey"
	KindTeamRef    Kind = "team_ref"
	KindPlayerRef  Kind = "player_ref"
)

// FieldSpec describes one field a section may carry.
type FieldSpec struct {
	Name     string
	Kind     Kind
	Required bool
}

// required counting categories; the rest may be absent from a box score.
var requiredStats = map[constants.Stat]bool{
	constants.Points:              true,
	constants.FieldGoalsMade:      true,
	constants.FieldGoalsAttempted: true,
	constants.ThreePointersMade:   true,
	constants.ThreePointersAtt:    true,
	constants.FreeThrowsMade:      true,
	constants.FreeThrowsAttempted: true,
	constants.TotalRebounds:       true,
	constants.Assists:             true,
}

// statFields lists the stat columns in stored column order.
func statFields() []FieldSpec {
	var out []FieldSpec
	pcts := map[constants.Stat]constants.Stat{}
	for _, p := range constants.PercentageStats {
		pcts[p.Attempted] = p.Stat
	}
	for _, s := range constants.CountingStats {
		out = append(out, FieldSpec{Name: string(s), Kind: KindCount, Required: requiredStats[s]})
		if pct, ok := pcts[s]; ok {
			out = append(out, FieldSpec{Name: string(pct), Kind: KindPercentage})
		}
	}
	for _, s := range constants.LineStats {
		kind := KindCount
		if constants.Signed(s) {
			kind = KindSigned
		}
		out = append(out, FieldSpec{Name: string(s), Kind: kind})
	}
	return out
}

func teamStatFields() []FieldSpec {
	out := make([]FieldSpec, 0, len(constants.TeamStats))
	for _, s := range constants.TeamStats {
		out = append(out, FieldSpec{Name: string(s), Kind: KindCount})
	}
	return out
}

var (
	GameFields = []FieldSpec{
		{Name: "date", Kind: KindDate, Required: true},
		{Name: "home_team_id", Kind: KindTeamRef, Required: true},
		{Name: "away_team_id", Kind: KindTeamRef, Required: true},
		{Name: "home_score", Kind: KindCount, Required: true},
		{Name: "away_score", Kind: KindCount, Required: true},
		{Name: "winner_team_id", Kind: KindTeamRef},
		{Name: "location", Kind: KindText},
		{Name: "status", Kind: KindStatus},
	}
	TeamFields = append(append([]FieldSpec{
		{Name: "team_id", Kind: KindTeamRef, Required: true},
	}, statFields()...), teamStatFields()...)
	PlayerFields = append([]FieldSpec{
		{Name: "player_id", Kind: KindPlayerRef, Required: true},
		{Name: "team_id", Kind: KindTeamRef, Required: true},
		{Name: "name", Kind: KindText},
		{Name: "jersey_number", Kind: KindJersey},
		{Name: "starter", Kind: KindBool},
		{Name: "minutes", Kind: KindMinutes, Required: true},
	}, statFields()...)
)

// FieldsOf returns the canonical field list of a section.
func FieldsOf(section string) []FieldSpec {
	switch section {
	case SectionGame:
		return GameFields
	case SectionTeams:
		return TeamFields
	case SectionPlayers:
		return PlayerFields
	}
	return nil
}

// Lookup finds a field spec by section and name.
func Lookup(section, name string) (FieldSpec, bool) {
	for _, f := range FieldsOf(section) {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// FieldRank is the canonical position of a field in its section; unknown
// fields sort last.
func FieldRank(section, name string) int {
	fields := FieldsOf(section)
	if name == "" {
		return -1
	}
	for i, f := range fields {
		if f.Name == name {
			return i
		}
	}
	return len(fields)
}
