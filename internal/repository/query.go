package repository

import (
	"context"
	"database/sql"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"
)

// Querier is the part of an ent driver or transaction the repositories need.
type Querier = dialect.ExecQuerier

// queryAll runs a select and scans every row into a T by its sql tags.
func queryAll[T any](ctx context.Context, q Querier, sel *entsql.Selector) ([]*T, error) {
	query, args := sel.Query()
	rows := &entsql.Rows{}
	if err := q.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*T
	if err := entsql.ScanSlice(rows, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// queryOne is queryAll for a lookup by key; a missing row returns nil.
func queryOne[T any](ctx context.Context, q Querier, sel *entsql.Selector) (*T, error) {
	all, err := queryAll[T](ctx, q, sel.Limit(1))
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

// queryInt runs a single-column, single-row select such as a COUNT(*).
func queryInt(ctx context.Context, q Querier, sel *entsql.Selector) (int, error) {
	query, args := sel.Query()
	rows := &entsql.Rows{}
	if err := q.Query(ctx, query, args, rows); err != nil {
		return 0, err
	}
	defer rows.Close()
	return entsql.ScanInt(rows)
}

// insertID runs an INSERT ... RETURNING id.
func insertID(ctx context.Context, q Querier, ins *entsql.InsertBuilder) (int, error) {
	query, args := ins.Returning("id").Query()
	rows := &entsql.Rows{}
	if err := q.Query(ctx, query, args, rows); err != nil {
		return 0, err
	}
	defer rows.Close()
	return entsql.ScanInt(rows)
}

// exec runs a write and returns the affected row count.
func exec(ctx context.Context, q Querier, b entsql.Querier) (int64, error) {
	query, args := b.Query()
	var res sql.Result
	if err := q.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func isUniqueViolation(err error) bool {
	return err != nil && sqlgraph.IsUniqueConstraintError(err)
}

func isForeignKeyViolation(err error) bool {
	return err != nil && sqlgraph.IsForeignKeyConstraintError(err)
}

// orNull unwraps an optional column value so drivers see a plain NULL.
func orNull[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
