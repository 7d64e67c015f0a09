package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/mixin"
)

func optionalCount(name string) ent.Field {
	return field.Int(name).NonNegative().Optional().Nillable()
}

// StatLine holds the box-score columns shared by team and player rows.
type StatLine struct{ mixin.Schema }

func (StatLine) Fields() []ent.Field {
	count := func(name string) ent.Field {
		return field.Int(name).NonNegative().Default(0)
	}
	pct := func(name string) ent.Field {
		return field.Float(name).Min(0).Max(1).Optional().Nillable()
	}
	signed := func(name string) ent.Field {
		return field.Int(name).Optional().Nillable()
	}
	return []ent.Field{
		count("points"),
		count("field_goals_made"),
		count("field_goals_attempted"),
		pct("field_goal_percentage"),
		count("three_pointers_made"),
		count("three_pointers_attempted"),
		pct("three_point_percentage"),
		count("free_throws_made"),
		count("free_throws_attempted"),
		pct("free_throw_percentage"),
		count("offensive_rebounds"),
		count("defensive_rebounds"),
		count("total_rebounds"),
		count("assists"),
		count("turnovers"),
		count("steals"),
		count("blocks"),
		count("fouls"),
		optionalCount("fouls_drawn"),
		signed("plus_minus"),
		signed("efficiency"),
	}
}
