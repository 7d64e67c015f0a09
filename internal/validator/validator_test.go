package validator_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/boxscore-tracker/internal/candidate"
	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
	"github.com/joseph-ayodele/boxscore-tracker/internal/testsupport"
	"github.com/joseph-ayodele/boxscore-tracker/internal/validator"
)

func ids(vs []validator.Violation) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.ID)
	}
	return out
}

func TestCleanRecordHasNoViolations(t *testing.T) {
	roster := testsupport.NewRoster()
	rec := testsupport.CleanRecord(roster)
	assert.Empty(t, validator.Validate(rec, roster, validator.DefaultLimits()))
}

func TestViolations(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(rec *candidate.Record)
		want     string
		severity validator.Severity
	}{
		{
			name:     "count given as string",
			mutate:   func(rec *candidate.Record) { rec.Teams[0]["points"].Value = "58" },
			want:     "type@teams[0].points",
			severity: validator.Blocking,
		},
		{
			name:     "fractional count",
			mutate:   func(rec *candidate.Record) { rec.Players[2]["assists"].Value = 2.5 },
			want:     "type@players[2].assists",
			severity: validator.Blocking,
		},
		{
			name:     "missing minutes",
			mutate:   func(rec *candidate.Record) { delete(rec.Players[0], "minutes") },
			want:     "required@players[0].minutes",
			severity: validator.Blocking,
		},
		{
			name:     "negative steals",
			mutate:   func(rec *candidate.Record) { rec.Players[1]["steals"].Value = -1.0 },
			want:     "range@players[1].steals",
			severity: validator.Blocking,
		},
		{
			name: "percentage outside 0..1",
			mutate: func(rec *candidate.Record) {
				rec.Teams[1]["free_throw_percentage"] = &candidate.Field{Value: 75.0, Origin: candidate.OriginExtracted, Confidence: 0.9}
			},
			want:     "range@teams[1].free_throw_percentage",
			severity: validator.Blocking,
		},
		{
			name:     "bad date",
			mutate:   func(rec *candidate.Record) { rec.Game["date"].Value = "06/01/2024" },
			want:     "format@game.date",
			severity: validator.Blocking,
		},
		{
			name:     "unknown status",
			mutate:   func(rec *candidate.Record) { rec.Game["status"].Value = "postponed" },
			want:     "enum@game.status",
			severity: validator.Blocking,
		},
		{
			name: "negative fouls drawn",
			mutate: func(rec *candidate.Record) {
				rec.Players[3]["fouls_drawn"] = &candidate.Field{Value: -1.0, Origin: candidate.OriginExtracted, Confidence: 0.9}
			},
			want:     "range@players[3].fouls_drawn",
			severity: validator.Blocking,
		},
		{
			name: "fractional plus-minus",
			mutate: func(rec *candidate.Record) {
				rec.Players[3]["plus_minus"] = &candidate.Field{Value: 1.5, Origin: candidate.OriginExtracted, Confidence: 0.9}
			},
			want:     "type@players[3].plus_minus",
			severity: validator.Blocking,
		},
		{
			name:     "makes exceed attempts",
			mutate:   func(rec *candidate.Record) { rec.Players[0]["free_throws_made"].Value = 5.0 },
			want:     "makes_exceed_attempts@players[0].free_throws_made",
			severity: validator.Blocking,
		},
		{
			name: "threes exceed field goals",
			mutate: func(rec *candidate.Record) {
				rec.Players[4]["three_pointers_made"].Value = 5.0
				rec.Players[4]["three_pointers_attempted"].Value = 6.0
			},
			want:     "threes_exceed_field_goals@players[4].three_pointers_made",
			severity: validator.Blocking,
		},
		{
			name:     "one team row",
			mutate:   func(rec *candidate.Record) { rec.Teams = rec.Teams[:1] },
			want:     "team_count@teams",
			severity: validator.Blocking,
		},
		{
			name:     "team row for another team",
			mutate:   func(rec *candidate.Record) { rec.Teams[1]["team_id"].Value = 9.0 },
			want:     "team_mismatch@teams[1].team_id",
			severity: validator.Blocking,
		},
		{
			name:     "duplicate player",
			mutate: func(rec *candidate.Record) {
				rec.Players[3]["player_id"].Value = 101.0
				rec.Players[3]["name"].Value = rec.Players[0]["name"].Value
			},
			want:     "duplicate_player@players[3].player_id",
			severity: validator.Blocking,
		},
		{
			name:     "unknown player",
			mutate:   func(rec *candidate.Record) { rec.Players[0]["player_id"].Value = 999.0 },
			want:     "ownership@players[0].player_id",
			severity: validator.Blocking,
		},
		{
			name:     "player filed under the wrong team",
			mutate: func(rec *candidate.Record) {
				rec.Players[0]["player_id"].Value = 206.0
				rec.Players[0]["name"].Value = testsupport.NewRoster().Player(206).MediaName
			},
			want:     "ownership@players[0].team_id",
			severity: validator.Blocking,
		},
		{
			name:     "45 minutes",
			mutate:   func(rec *candidate.Record) { rec.Players[0]["minutes"].Value = 45.0 },
			want:     "minutes_max@players[0].minutes",
			severity: validator.Advisory,
		},
		{
			name: "stated percentage disagrees",
			mutate: func(rec *candidate.Record) {
				rec.Teams[0]["field_goal_percentage"] = &candidate.Field{Value: 0.52, Origin: candidate.OriginExtracted, Confidence: 0.9}
			},
			want:     "percentage_mismatch@teams[0].field_goal_percentage",
			severity: validator.Advisory,
		},
		{
			name:     "rebounds do not add up",
			mutate:   func(rec *candidate.Record) { rec.Players[0]["total_rebounds"].Value = 5.0 },
			want:     "rebound_sum@players[0].total_rebounds",
			severity: validator.Advisory,
		},
		{
			name:     "seven fouls",
			mutate:   func(rec *candidate.Record) { rec.Players[6]["fouls"].Value = 7.0 },
			want:     "foul_limit@players[6].fouls",
			severity: validator.Advisory,
		},
		{
			name:     "scheduled game with scores",
			mutate:   func(rec *candidate.Record) { rec.Game["status"].Value = "scheduled" },
			want:     "scheduled_with_scores@game.status",
			severity: validator.Blocking,
		},
		{
			name:     "name differs from roster",
			mutate:   func(rec *candidate.Record) { rec.Players[2]["name"].Value = "J. Somebody" },
			want:     "name_mismatch@players[2].name",
			severity: validator.Advisory,
		},
		{
			name:     "low confidence",
			mutate:   func(rec *candidate.Record) { rec.Game["location"].Confidence = 0.3 },
			want:     "low_confidence@game.location",
			severity: validator.Advisory,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roster := testsupport.NewRoster()
			rec := testsupport.CleanRecord(roster)
			tt.mutate(rec)

			got := validator.Validate(rec, roster, validator.DefaultLimits())
			require.Len(t, got, 1, "violations: %v", ids(got))
			assert.Equal(t, tt.want, got[0].ID)
			assert.Equal(t, tt.severity, got[0].Severity)
			assert.NotEmpty(t, got[0].Message)
		})
	}
}

func TestNameMatchIgnoresCaseAndSpacing(t *testing.T) {
	roster := testsupport.NewRoster()
	rec := testsupport.CleanRecord(roster)
	p := roster.Player(101)
	rec.Players[0]["name"].Value = "  " + strings.ToUpper(p.MediaName) + " "
	rec.Players[1]["name"].Value = roster.Player(102).FirstName + "  " + roster.Player(102).LastName
	rec.Players[2]["name"].Value = ""
	assert.Empty(t, validator.Validate(rec, roster, validator.DefaultLimits()))
}

func TestNegativePlusMinusAndEfficiencyAreValid(t *testing.T) {
	roster := testsupport.NewRoster()
	rec := testsupport.CleanRecord(roster)
	rec.Players[0]["plus_minus"] = &candidate.Field{Value: -11.0, Origin: candidate.OriginExtracted, Confidence: 0.9}
	rec.Players[0]["efficiency"] = &candidate.Field{Value: -2.0, Origin: candidate.OriginExtracted, Confidence: 0.9}
	rec.Teams[1]["times_tied"] = &candidate.Field{Value: 5.0, Origin: candidate.OriginExtracted, Confidence: 0.9}
	assert.Empty(t, validator.Validate(rec, roster, validator.DefaultLimits()))

	rec.Players[0]["points_in_paint"] = &candidate.Field{Value: 8.0, Origin: candidate.OriginExtracted, Confidence: 0.9}
	_, err := rec.Get("players[0].points_in_paint")
	assert.ErrorIs(t, err, common.ErrInvalidPath)
}

func TestPercentageWithinSlack(t *testing.T) {
	roster := testsupport.NewRoster()
	rec := testsupport.CleanRecord(roster)
	// home made 29 of 58
	rec.Teams[0]["field_goal_percentage"] = &candidate.Field{Value: 0.51, Origin: candidate.OriginExtracted, Confidence: 0.9}
	assert.Empty(t, validator.Validate(rec, roster, validator.DefaultLimits()))
}

func TestTypeFailureSuppressesDependentRules(t *testing.T) {
	roster := testsupport.NewRoster()
	rec := testsupport.CleanRecord(roster)
	rec.Players[0]["field_goals_attempted"].Value = "lots"
	rec.Players[0]["field_goals_made"].Value = 99.0

	got := validator.Validate(rec, roster, validator.DefaultLimits())
	assert.Equal(t, []string{"type@players[0].field_goals_attempted"}, ids(got))
}

func TestValidateIsDeterministicAndOrdered(t *testing.T) {
	roster := testsupport.NewRoster()
	rec := testsupport.CleanRecord(roster)
	rec.Players[7]["minutes"].Value = 44.0
	rec.Players[1]["points"].Value = "x"
	rec.Teams[1]["assists"].Value = -2.0
	rec.Game["status"].Value = "done"

	first := validator.Validate(rec, roster, validator.DefaultLimits())
	second := validator.Validate(rec, roster, validator.DefaultLimits())
	assert.Equal(t, first, second)
	assert.Equal(t, []string{
		"enum@game.status",
		"range@teams[1].assists",
		"type@players[1].points",
		"minutes_max@players[7].minutes",
	}, ids(first))
	assert.True(t, validator.HasBlocking(first))
	assert.Len(t, validator.BlockingOnly(first), 3)
}

func TestEditLeavesUnrelatedViolationsAlone(t *testing.T) {
	roster := testsupport.NewRoster()
	rec := testsupport.CleanRecord(roster)
	rec.Players[0]["minutes"].Value = 45.0
	rec.Players[5]["steals"].Value = -1.0
	before := validator.Validate(rec, roster, validator.DefaultLimits())

	require.NoError(t, rec.Edit("players[5].steals", 1.0))
	after := validator.Validate(rec, roster, validator.DefaultLimits())
	assert.Equal(t, []string{"minutes_max@players[0].minutes", "range@players[5].steals"}, ids(before))
	assert.Equal(t, []string{"minutes_max@players[0].minutes"}, ids(after))
}

func TestLimitsFromConfig(t *testing.T) {
	l := validator.LimitsFromConfig(common.ValidationConfig{MaxMinutes: 48, FoulLimit: 5})
	assert.Equal(t, 48.0, l.MaxMinutes)
	assert.Equal(t, 5, l.FoulLimit)
	assert.Equal(t, 0.5, l.LowConfidence)
}
