package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// OverrideAudit is one warning a reviewer explicitly accepted before commit.
type OverrideAudit struct{ ent.Schema }

func (OverrideAudit) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "override_audits"},
	}
}

func (OverrideAudit) Fields() []ent.Field {
	return []ent.Field{
		field.Int("game_id"),
		field.String("finding_id").NotEmpty(),
		field.String("kind").NotEmpty(),
		field.Text("message"),
		field.String("reviewer").NotEmpty(),
		field.Text("note").Optional().Nillable(),
		field.Time("accepted_at").Default(time.Now).Immutable(),
	}
}

func (OverrideAudit) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("game", Game.Type).
			Ref("override_audits").
			Field("game_id").
			Required().
			Unique(),
	}
}

func (OverrideAudit) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("game_id", "finding_id").Unique(),
	}
}
