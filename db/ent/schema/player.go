package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

type Player struct{ ent.Schema }

func (Player) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "players"},
	}
}

func (Player) Fields() []ent.Field {
	return []ent.Field{
		field.Int("team_id"),
		field.String("first_name").NotEmpty(),
		field.String("last_name").NotEmpty(),
		// "LastInitial. FirstName", as printed on box scores
		field.String("media_name").NotEmpty(),
		field.Int("jersey_number").Optional().Nillable().Min(0).Max(99),
		field.String("position").Optional().Nillable(),
	}
}

func (Player) Edges() []ent.Edge {
	return []ent.Edge{
		// MANY players -> ONE team (FK: players.team_id)
		edge.From("team", Team.Type).
			Ref("players").
			Field("team_id").
			Required().
			Unique(),
		edge.To("box_scores", PlayerBoxScore.Type),
	}
}

func (Player) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("team_id", "media_name"),
	}
}
