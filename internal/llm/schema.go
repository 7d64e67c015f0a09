package llm

import (
	"github.com/joseph-ayodele/boxscore-tracker/constants"
	"github.com/joseph-ayodele/boxscore-tracker/internal/candidate"
	"github.com/joseph-ayodele/boxscore-tracker/internal/entity"
)

// BuildBoxScoreSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// Team and player references are restricted to the roster ids. We pass it to
// the service as the output contract and use it locally to validate.
func BuildBoxScoreSchema(roster *entity.Roster) map[string]any {
	var teamIDs, playerIDs []any
	if roster != nil {
		for _, t := range roster.Teams {
			teamIDs = append(teamIDs, t.ID)
		}
		for _, p := range roster.Players {
			playerIDs = append(playerIDs, p.ID)
		}
	}

	section := func(fields []candidate.FieldSpec) map[string]any {
		props := make(map[string]any, len(fields))
		required := []string{}
		for _, f := range fields {
			props[f.Name] = fieldProp(f.Kind, teamIDs, playerIDs)
			if f.Required {
				required = append(required, f.Name)
			}
		}
		return map[string]any{
			"type":       "object",
			"properties": props,
			"required":   required,
		}
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			candidate.SectionGame: section(candidate.GameFields),
			candidate.SectionTeams: map[string]any{
				"type":     "array",
				"minItems": 2,
				"maxItems": 2,
				"items":    section(candidate.TeamFields),
			},
			candidate.SectionPlayers: map[string]any{
				"type":  "array",
				"items": section(candidate.PlayerFields),
			},
			candidate.KeyConfidence: map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
			candidate.KeyFieldConfidence: map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
			},
		},
		"required": []string{candidate.SectionGame, candidate.SectionTeams, candidate.SectionPlayers},
	}
}

func fieldProp(kind candidate.Kind, teamIDs, playerIDs []any) map[string]any {
	switch kind {
	case candidate.KindCount, candidate.KindJersey:
		return map[string]any{"type": "integer", "minimum": 0}
	case candidate.KindSigned:
		return map[string]any{"type": "integer"}
	case candidate.KindPercentage:
		return map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0}
	case candidate.KindMinutes:
		return map[string]any{"type": "number", "minimum": 0.0}
	case candidate.KindDate:
		return map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`}
	case candidate.KindStatus:
		return map[string]any{"type": "string", "enum": constants.GameStatuses}
	case candidate.KindBool:
		return map[string]any{"type": "boolean"}
	case candidate.KindTeamRef:
		return refProp(teamIDs)
	case candidate.KindPlayerRef:
		return refProp(playerIDs)
	default:
		return map[string]any{"type": "string"}
	}
}

func refProp(ids []any) map[string]any {
	if len(ids) == 0 {
		return map[string]any{"type": "integer"}
	}
	return map[string]any{"type": "integer", "enum": ids}
}
