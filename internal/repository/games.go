package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/boxscore-tracker/constants"
	"github.com/joseph-ayodele/boxscore-tracker/db/ent/schema/utils"
	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
	"github.com/joseph-ayodele/boxscore-tracker/internal/entity"
)

// ListGamesFilter narrows ListGames; zero values mean no filter.
type ListGamesFilter struct {
	Status       string
	TeamID       int
	WithoutStats bool
	Limit        int
}

// GameRepository reads, verifies and deletes stored games.
type GameRepository interface {
	GetGame(ctx context.Context, id int) (*entity.Game, error)
	GetGameDetail(ctx context.Context, id int) (*entity.GameDetail, error)
	ListGames(ctx context.Context, filter ListGamesFilter) ([]*entity.GameSummary, error)
	FindByMatchup(ctx context.Context, date string, homeTeamID, awayTeamID int) (*entity.Game, error)
	CreateScheduled(ctx context.Context, game *entity.Game) (int, error)
	VerifyGame(ctx context.Context, id int, tol common.ConsistencyConfig) ([]Discrepancy, error)
	// DeleteStats drops a game's box scores and audits and returns it to scheduled.
	DeleteStats(ctx context.Context, id int) error
	DeleteGame(ctx context.Context, id int) error
}

type gameRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewGameRepository(db *DB, logger *slog.Logger) GameRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &gameRepository{
		db:     db,
		logger: logger,
	}
}

func (r *gameRepository) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.db.Dialect())
}

func (r *gameRepository) GetGame(ctx context.Context, id int) (*entity.Game, error) {
	b := r.builder()
	game, err := queryOne[entity.Game](ctx, r.db.driver,
		b.Select(gameColumns...).From(b.Table("games")).Where(entsql.EQ("id", id)))
	if err != nil {
		r.logger.Error("failed to get game", "game_id", id, "error", err)
		return nil, err
	}
	if game == nil {
		return nil, fmt.Errorf("game %d: %w", id, common.ErrNotFound)
	}
	return game, nil
}

func (r *gameRepository) GetGameDetail(ctx context.Context, id int) (*entity.GameDetail, error) {
	rows, err := loadGameRows(ctx, r.db.driver, r.db.Dialect(), id)
	if err != nil {
		return nil, err
	}
	roster, err := loadRoster(ctx, r.db.driver, r.db.Dialect(), rows.game.HomeTeamID, rows.game.AwayTeamID)
	if err != nil {
		return nil, err
	}
	b := r.builder()
	audits, err := queryAll[entity.OverrideAudit](ctx, r.db.driver,
		b.Select(auditColumns...).From(b.Table("override_audits")).
			Where(entsql.EQ("game_id", id)).OrderBy("id"))
	if err != nil {
		return nil, err
	}
	return &entity.GameDetail{
		Game:     rows.game,
		HomeTeam: roster.Team(rows.game.HomeTeamID),
		AwayTeam: roster.Team(rows.game.AwayTeamID),
		Teams:    rows.teams,
		Players:  rows.players,
		Audits:   audits,
	}, nil
}

func (r *gameRepository) ListGames(ctx context.Context, filter ListGamesFilter) ([]*entity.GameSummary, error) {
	b := r.builder()
	g := b.Table("games").As("g")
	h := b.Table("teams").As("h")
	a := b.Table("teams").As("a")
	sel := b.Select(g.Columns(gameColumns...)...).
		AppendSelect(entsql.As(h.C("name"), "home_team"), entsql.As(a.C("name"), "away_team")).
		From(g).
		Join(h).On(g.C("home_team_id"), h.C("id")).
		Join(a).On(g.C("away_team_id"), a.C("id"))

	var preds []*entsql.Predicate
	if filter.Status != "" {
		preds = append(preds, entsql.EQ(g.C("status"), filter.Status))
	}
	if filter.TeamID != 0 {
		preds = append(preds, entsql.Or(
			entsql.EQ(g.C("home_team_id"), filter.TeamID),
			entsql.EQ(g.C("away_team_id"), filter.TeamID),
		))
	}
	if filter.WithoutStats {
		t := b.Table("team_box_scores")
		preds = append(preds, entsql.NotIn(g.C("id"), b.Select(t.C("game_id")).From(t)))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	sel.OrderBy(entsql.Desc(g.C("date")), entsql.Desc(g.C("id")))
	if filter.Limit > 0 {
		sel.Limit(filter.Limit)
	}

	games, err := queryAll[entity.GameSummary](ctx, r.db.driver, sel)
	if err != nil {
		r.logger.Error("failed to list games", "error", err)
		return nil, err
	}
	return games, nil
}

func (r *gameRepository) FindByMatchup(ctx context.Context, date string, homeTeamID, awayTeamID int) (*entity.Game, error) {
	return findByMatchup(ctx, r.db.driver, r.db.Dialect(), date, homeTeamID, awayTeamID)
}

func findByMatchup(ctx context.Context, q Querier, d string, date string, homeTeamID, awayTeamID int) (*entity.Game, error) {
	b := entsql.Dialect(d)
	return queryOne[entity.Game](ctx, q,
		b.Select(gameColumns...).From(b.Table("games")).Where(entsql.And(
			entsql.EQ("date", date),
			entsql.EQ("home_team_id", homeTeamID),
			entsql.EQ("away_team_id", awayTeamID),
		)))
}

// checkGameRow applies the column validators of the games schema.
func checkGameRow(g *entity.Game) error {
	if err := utils.ISODate(g.Date); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	if err := utils.EnumValidator(constants.GameStatuses...)(g.Status); err != nil {
		return fmt.Errorf("%w: status %q", common.ErrInvalidInput, g.Status)
	}
	if g.HomeTeamID == 0 || g.AwayTeamID == 0 || g.HomeTeamID == g.AwayTeamID {
		return fmt.Errorf("%w: a game needs two distinct teams", common.ErrInvalidInput)
	}
	return nil
}

func insertGame(ctx context.Context, q Querier, d string, g *entity.Game) (int, error) {
	now := time.Now().UTC()
	g.CreatedAt, g.UpdatedAt = now, now
	ins := entsql.Dialect(d).Insert("games").
		Columns(gameColumns[1:]...).
		Values(
			g.Date, g.HomeTeamID, g.AwayTeamID, orNull(g.HomeScore), orNull(g.AwayScore),
			orNull(g.WinnerTeamID), orNull(g.Location), g.Status, orNull(g.SourceName), orNull(g.SourceSHA256),
			g.CreatedAt, g.UpdatedAt,
		)
	id, err := insertID(ctx, q, ins)
	if err != nil {
		return 0, err
	}
	g.ID = id
	return id, nil
}

func (r *gameRepository) CreateScheduled(ctx context.Context, game *entity.Game) (int, error) {
	game.Status = string(constants.GameStatusScheduled)
	if err := checkGameRow(game); err != nil {
		return 0, err
	}
	id, err := insertGame(ctx, r.db.driver, r.db.Dialect(), game)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%s %d vs %d: %w", game.Date, game.HomeTeamID, game.AwayTeamID, common.ErrDuplicateGame)
		}
		r.logger.Error("failed to create game", "date", game.Date, "error", err)
		return 0, err
	}
	return id, nil
}

func (r *gameRepository) VerifyGame(ctx context.Context, id int, tol common.ConsistencyConfig) ([]Discrepancy, error) {
	start := time.Now()
	out, err := verifyGame(ctx, r.db.driver, r.db.Dialect(), id, tol)
	if err != nil {
		return nil, err
	}
	r.logger.Info("db.verify.done", "game_id", id, "discrepancies", len(out), "elapsed_ms", time.Since(start).Milliseconds())
	return out, nil
}

// deleteGameChildren removes every row filed under a game.
func deleteGameChildren(ctx context.Context, q Querier, d string, gameID int) error {
	b := entsql.Dialect(d)
	for _, table := range []string{"override_audits", "player_box_scores", "team_box_scores"} {
		if _, err := exec(ctx, q, b.Delete(table).Where(entsql.EQ("game_id", gameID))); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return nil
}

func (r *gameRepository) DeleteStats(ctx context.Context, id int) error {
	return r.withTx(ctx, "delete_stats", id, func(tx dialect.Tx) error {
		if err := deleteGameChildren(ctx, tx, r.db.Dialect(), id); err != nil {
			return err
		}
		upd := r.builder().Update("games").
			SetNull("home_score").
			SetNull("away_score").
			SetNull("winner_team_id").
			Set("status", string(constants.GameStatusScheduled)).
			Set("updated_at", time.Now().UTC()).
			Where(entsql.EQ("id", id))
		n, err := exec(ctx, tx, upd)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("game %d: %w", id, common.ErrNotFound)
		}
		return nil
	})
}

func (r *gameRepository) DeleteGame(ctx context.Context, id int) error {
	return r.withTx(ctx, "delete", id, func(tx dialect.Tx) error {
		if err := deleteGameChildren(ctx, tx, r.db.Dialect(), id); err != nil {
			return err
		}
		n, err := exec(ctx, tx, r.builder().Delete("games").Where(entsql.EQ("id", id)))
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("game %d: %w", id, common.ErrNotFound)
		}
		return nil
	})
}

func (r *gameRepository) withTx(ctx context.Context, op string, gameID int, fn func(tx dialect.Tx) error) error {
	tx, err := r.db.begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			r.logger.Error("failed to rollback", "op", op, "game_id", gameID, "error", rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	r.logger.Info("db.game."+op, "game_id", gameID)
	return nil
}
