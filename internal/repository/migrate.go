package repository

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/entc/gen"
	"entgo.io/ent/entc/load"

	dbschema "github.com/joseph-ayodele/boxscore-tracker/db/ent/schema"
)

// Tables resolves the ent schema package into SQL table definitions.
func Tables() ([]*schema.Table, error) {
	storage, err := gen.NewStorage("sql")
	if err != nil {
		return nil, err
	}
	defs := dbschema.All()
	schemas := make([]*load.Schema, 0, len(defs))
	for _, def := range defs {
		b, err := load.MarshalSchema(def)
		if err != nil {
			return nil, fmt.Errorf("marshal schema %T: %w", def, err)
		}
		s, err := load.UnmarshalSchema(b)
		if err != nil {
			return nil, fmt.Errorf("unmarshal schema %T: %w", def, err)
		}
		schemas = append(schemas, s)
	}
	graph, err := gen.NewGraph(&gen.Config{
		Package: "github.com/joseph-ayodele/boxscore-tracker/db/ent",
		Storage: storage,
	}, schemas...)
	if err != nil {
		return nil, fmt.Errorf("build schema graph: %w", err)
	}
	return graph.Tables()
}

// Migrate creates or upgrades the tables, foreign keys and indexes.
func Migrate(ctx context.Context, db *DB) error {
	start := time.Now()
	tables, err := Tables()
	if err != nil {
		return err
	}
	m, err := schema.NewMigrate(db.driver, schema.WithForeignKeys(true))
	if err != nil {
		return err
	}
	if err := m.Create(ctx, tables...); err != nil {
		db.logger.Error("db.migrate.failed", "error", err)
		return fmt.Errorf("migrate: %w", err)
	}
	db.logger.Info("db.migrate.done", "tables", len(tables), "elapsed_ms", time.Since(start).Milliseconds())
	return nil
}
