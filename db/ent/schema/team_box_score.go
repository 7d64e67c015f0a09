package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

type TeamBoxScore struct{ ent.Schema }

func (TeamBoxScore) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "team_box_scores"},
	}
}

func (TeamBoxScore) Mixin() []ent.Mixin {
	return []ent.Mixin{StatLine{}}
}

func (TeamBoxScore) Fields() []ent.Field {
	return []ent.Field{
		field.Int("game_id"),
		field.Int("team_id"),
		optionalCount("points_in_paint"),
		optionalCount("second_chance_points"),
		optionalCount("fast_break_points"),
		optionalCount("bench_points"),
		optionalCount("points_from_turnovers"),
		optionalCount("lead_changes"),
		optionalCount("times_tied"),
	}
}

func (TeamBoxScore) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("game", Game.Type).
			Ref("team_box_scores").
			Field("game_id").
			Required().
			Unique(),
		edge.From("team", Team.Type).
			Ref("team_box_scores").
			Field("team_id").
			Required().
			Unique(),
	}
}

func (TeamBoxScore) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("game_id", "team_id").Unique(),
	}
}
