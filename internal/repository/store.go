package repository

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/boxscore-tracker/constants"
	"github.com/joseph-ayodele/boxscore-tracker/internal/entity"
)

// tablesChildFirst orders tables so deletes never trip a foreign key.
var tablesChildFirst = []string{
	"override_audits",
	"player_box_scores",
	"team_box_scores",
	"games",
	"players",
	"teams",
}

// Stats counts the rows of every table.
func Stats(ctx context.Context, db *DB) (*entity.StoreStats, error) {
	b := entsql.Dialect(db.Dialect())
	count := func(table string, p *entsql.Predicate) (int, error) {
		sel := b.Select().Count().From(b.Table(table))
		if p != nil {
			sel.Where(p)
		}
		n, err := queryInt(ctx, db.driver, sel)
		if err != nil {
			return 0, fmt.Errorf("count %s: %w", table, err)
		}
		return n, nil
	}
	var (
		st  entity.StoreStats
		err error
	)
	targets := []struct {
		dst   *int
		table string
		pred  *entsql.Predicate
	}{
		{&st.Teams, "teams", nil},
		{&st.Players, "players", nil},
		{&st.Games, "games", nil},
		{&st.FinalGames, "games", entsql.EQ("status", string(constants.GameStatusFinal))},
		{&st.TeamBoxScores, "team_box_scores", nil},
		{&st.PlayerBoxScores, "player_box_scores", nil},
		{&st.OverrideAudits, "override_audits", nil},
	}
	for _, t := range targets {
		if *t.dst, err = count(t.table, t.pred); err != nil {
			return nil, err
		}
	}
	return &st, nil
}

// Reset deletes every row in one transaction, leaving the tables in place.
func Reset(ctx context.Context, db *DB) error {
	tx, err := db.begin(ctx)
	if err != nil {
		return err
	}
	b := entsql.Dialect(db.Dialect())
	for _, table := range tablesChildFirst {
		if _, err := exec(ctx, tx, b.Delete(table)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	db.logger.Warn("db.reset.done", "tables", len(tablesChildFirst))
	return nil
}
