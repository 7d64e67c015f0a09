package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"

	"github.com/joseph-ayodele/boxscore-tracker/constants"
	"github.com/joseph-ayodele/boxscore-tracker/db/ent/schema/utils"
)

type Game struct{ ent.Schema }

func (Game) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "games"},
	}
}

func (Game) Fields() []ent.Field {
	return []ent.Field{
		field.String("date").Validate(utils.ISODate),
		field.Int("home_team_id"),
		field.Int("away_team_id"),
		field.Int("home_score").Optional().Nillable().NonNegative(),
		field.Int("away_score").Optional().Nillable().NonNegative(),
		// no FK: the winner is always one of the two sides above
		field.Int("winner_team_id").Optional().Nillable(),
		field.String("location").Optional().Nillable(),
		field.String("status").
			Default(string(constants.GameStatusScheduled)).
			Validate(utils.EnumValidator(constants.GameStatuses...)),
		field.String("source_name").Optional().Nillable(),
		field.String("source_sha256").Optional().Nillable(),
		field.Time("created_at").Default(time.Now).Immutable(),
		field.Time("updated_at").Default(time.Now).UpdateDefault(time.Now),
	}
}

func (Game) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("home_team", Team.Type).
			Ref("home_games").
			Field("home_team_id").
			Required().
			Unique(),
		edge.From("away_team", Team.Type).
			Ref("away_games").
			Field("away_team_id").
			Required().
			Unique(),
		edge.To("team_box_scores", TeamBoxScore.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("player_box_scores", PlayerBoxScore.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("override_audits", OverrideAudit.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

func (Game) Indexes() []ent.Index {
	return []ent.Index{
		// one game per date and pairing
		index.Fields("date", "home_team_id", "away_team_id").Unique(),
	}
}
