package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

type PlayerBoxScore struct{ ent.Schema }

func (PlayerBoxScore) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "player_box_scores"},
	}
}

func (PlayerBoxScore) Mixin() []ent.Mixin {
	return []ent.Mixin{StatLine{}}
}

func (PlayerBoxScore) Fields() []ent.Field {
	return []ent.Field{
		field.Int("game_id"),
		field.Int("team_id"),
		field.Int("player_id"),
		field.Int("jersey_number").Optional().Nillable(),
		field.Bool("starter").Default(false),
		field.Float("minutes").Min(0).Default(0),
	}
}

func (PlayerBoxScore) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("game", Game.Type).
			Ref("player_box_scores").
			Field("game_id").
			Required().
			Unique(),
		edge.From("team", Team.Type).
			Ref("player_box_scores").
			Field("team_id").
			Required().
			Unique(),
		edge.From("player", Player.Type).
			Ref("box_scores").
			Field("player_id").
			Required().
			Unique(),
	}
}

func (PlayerBoxScore) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("game_id", "player_id").Unique(),
		index.Fields("game_id", "team_id"),
	}
}
