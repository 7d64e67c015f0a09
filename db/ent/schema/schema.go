package schema

import "entgo.io/ent"

// All lists every schema in dependency order.
func All() []ent.Interface {
	return []ent.Interface{
		Team{},
		Player{},
		Game{},
		TeamBoxScore{},
		PlayerBoxScore{},
		OverrideAudit{},
	}
}
