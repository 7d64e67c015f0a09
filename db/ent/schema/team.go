package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
)

type Team struct{ ent.Schema }

func (Team) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "teams"},
	}
}

func (Team) Fields() []ent.Field {
	return []ent.Field{
		field.String("name").NotEmpty().Unique(),
		field.String("abbreviation").Optional().Nillable(),
		field.String("city").Optional().Nillable(),
		field.String("coach").Optional().Nillable(),
	}
}

func (Team) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("players", Player.Type),
		edge.To("home_games", Game.Type),
		edge.To("away_games", Game.Type),
		edge.To("team_box_scores", TeamBoxScore.Type),
		edge.To("player_box_scores", PlayerBoxScore.Type),
	}
}
