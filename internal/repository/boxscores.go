package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/boxscore-tracker/constants"
	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
	"github.com/joseph-ayodele/boxscore-tracker/internal/entity"
)

var auditColumns = []string{"id", "game_id", "finding_id", "kind", "message", "reviewer", "note", "accepted_at"}

// WriteSet is a finalized record ready to be stored in one transaction.
type WriteSet struct {
	Game    entity.Game
	Teams   []entity.TeamBoxScore
	Players []entity.PlayerBoxScore
	Audits  []entity.OverrideAudit
	// Excused lists verification discrepancies a reviewer accepted; only Kind,
	// TeamID and Category are compared.
	Excused   []Discrepancy
	Tolerance common.ConsistencyConfig
	// Replace re-imports over an existing final game for the same matchup.
	Replace bool
}

// CommitResult carries the identifiers assigned by a commit.
type CommitResult struct {
	GameID            int         `json:"game_id"`
	Promoted          bool        `json:"promoted"`
	Replaced          bool        `json:"replaced"`
	TeamBoxScoreIDs   map[int]int `json:"team_box_score_ids"`   // team id -> team box score id
	PlayerBoxScoreIDs map[int]int `json:"player_box_score_ids"` // player id -> player box score id
	AuditIDs          []int       `json:"audit_ids,omitempty"`
}

// BoxScoreRepository is the transactional write side of the store.
type BoxScoreRepository interface {
	Commit(ctx context.Context, ws *WriteSet) (*CommitResult, error)
}

type boxScoreRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewBoxScoreRepository(db *DB, logger *slog.Logger) BoxScoreRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &boxScoreRepository{
		db:     db,
		logger: logger,
	}
}

// Commit writes the game, both team rows, every player row and the override
// audits atomically. Rows are re-read and verified before the transaction
// commits; any failure rolls the whole set back.
func (r *boxScoreRepository) Commit(ctx context.Context, ws *WriteSet) (*CommitResult, error) {
	start := time.Now()
	logger := common.LoggerWith(ctx, r.logger).With("date", ws.Game.Date, "home_team_id", ws.Game.HomeTeamID, "away_team_id", ws.Game.AwayTeamID)
	logger.Info("commit.tx.start", "players", len(ws.Players), "audits", len(ws.Audits), "replace", ws.Replace)

	ws.Game.Status = string(constants.GameStatusFinal)
	if err := checkGameRow(&ws.Game); err != nil {
		return nil, common.NewPersistenceFailure("invalid game row", err)
	}
	if ws.Game.HomeScore == nil || ws.Game.AwayScore == nil {
		return nil, common.NewPersistenceFailure("final score is required", common.ErrInvalidInput)
	}

	tx, err := r.db.begin(ctx)
	if err != nil {
		return nil, common.NewPersistenceFailure("begin transaction", err)
	}
	res, err := r.write(ctx, tx, ws)
	if err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			logger.Error("commit.tx.rollback_failed", "error", rerr)
		}
		logger.Warn("commit.tx.rollback", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, classifyCommitError(err)
	}
	if err := tx.Commit(); err != nil {
		logger.Error("commit.tx.failed", "error", err)
		return nil, classifyCommitError(err)
	}
	logger.Info("commit.tx.done",
		"game_id", res.GameID,
		"promoted", res.Promoted,
		"replaced", res.Replaced,
		"player_rows", len(res.PlayerBoxScoreIDs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func classifyCommitError(err error) error {
	var appErr *common.AppError
	switch {
	case errors.As(err, &appErr):
		return err
	case isUniqueViolation(err):
		return common.NewPersistenceFailure("unique constraint", fmt.Errorf("%w: %v", common.ErrDuplicateGame, err))
	case isForeignKeyViolation(err):
		return common.NewPersistenceFailure("foreign key constraint", err)
	default:
		return common.NewPersistenceFailure("write failed", err)
	}
}

func (r *boxScoreRepository) write(ctx context.Context, tx dialect.Tx, ws *WriteSet) (*CommitResult, error) {
	d := r.db.Dialect()
	b := entsql.Dialect(d)
	g := &ws.Game

	if err := checkOwnership(ctx, tx, d, ws); err != nil {
		return nil, err
	}

	res := &CommitResult{
		TeamBoxScoreIDs:   make(map[int]int, len(ws.Teams)),
		PlayerBoxScoreIDs: make(map[int]int, len(ws.Players)),
	}

	existing, err := findByMatchup(ctx, tx, d, g.Date, g.HomeTeamID, g.AwayTeamID)
	if err != nil {
		return nil, err
	}
	switch {
	case existing == nil:
		if _, err := insertGame(ctx, tx, d, g); err != nil {
			return nil, err
		}
	case existing.Status == string(constants.GameStatusScheduled) && !hasStats(ctx, tx, d, existing.ID):
		g.ID = existing.ID
		if err := promoteGame(ctx, tx, d, g); err != nil {
			return nil, err
		}
		res.Promoted = true
	case ws.Replace:
		if err := deleteGameChildren(ctx, tx, d, existing.ID); err != nil {
			return nil, err
		}
		g.ID = existing.ID
		if err := promoteGame(ctx, tx, d, g); err != nil {
			return nil, err
		}
		res.Replaced = true
	default:
		return nil, common.NewPersistenceFailure(
			fmt.Sprintf("game %d already recorded for %s", existing.ID, g.Date),
			common.ErrDuplicateGame,
		)
	}
	res.GameID = g.ID

	for i := range ws.Teams {
		t := &ws.Teams[i]
		t.GameID = g.ID
		id, err := insertID(ctx, tx, b.Insert("team_box_scores").
			Columns(teamInsertColumns()...).
			Values(append(append([]any{t.GameID, t.TeamID}, t.StatLine.Values()...), t.TeamValues()...)...))
		if err != nil {
			return nil, fmt.Errorf("insert team box score %d: %w", t.TeamID, err)
		}
		t.ID = id
		res.TeamBoxScoreIDs[t.TeamID] = id
	}

	for i := range ws.Players {
		p := &ws.Players[i]
		p.GameID = g.ID
		id, err := insertID(ctx, tx, b.Insert("player_box_scores").
			Columns(append([]string{"game_id", "team_id", "player_id", "jersey_number", "starter", "minutes"}, entity.StatColumns...)...).
			Values(append([]any{p.GameID, p.TeamID, p.PlayerID, orNull(p.JerseyNumber), p.Starter, p.Minutes}, p.Values()...)...))
		if err != nil {
			return nil, fmt.Errorf("insert player box score %d: %w", p.PlayerID, err)
		}
		p.ID = id
		res.PlayerBoxScoreIDs[p.PlayerID] = id
	}

	now := time.Now().UTC()
	for i := range ws.Audits {
		a := &ws.Audits[i]
		a.GameID = g.ID
		if a.AcceptedAt.IsZero() {
			a.AcceptedAt = now
		}
		id, err := insertID(ctx, tx, b.Insert("override_audits").
			Columns(auditColumns[1:]...).
			Values(a.GameID, a.FindingID, a.Kind, a.Message, a.Reviewer, orNull(a.Note), a.AcceptedAt))
		if err != nil {
			return nil, fmt.Errorf("insert override audit %s: %w", a.FindingID, err)
		}
		a.ID = id
		res.AuditIDs = append(res.AuditIDs, id)
	}

	found, err := verifyGame(ctx, tx, d, g.ID, ws.Tolerance)
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	var open []string
	for _, disc := range found {
		if !excused(ws.Excused, disc) {
			open = append(open, disc.String())
		}
	}
	if len(open) > 0 {
		return nil, common.NewPersistenceFailure("stored rows failed verification", errors.New(strings.Join(open, "; ")))
	}
	return res, nil
}

func excused(list []Discrepancy, d Discrepancy) bool {
	for _, e := range list {
		if e.Matches(d) {
			return true
		}
	}
	return false
}

// checkOwnership re-reads the roster inside the transaction: both teams must
// exist, every team row must be one of them, and every player must be filed
// under the team the row names.
func checkOwnership(ctx context.Context, q Querier, d string, ws *WriteSet) error {
	roster, err := loadRoster(ctx, q, d, ws.Game.HomeTeamID, ws.Game.AwayTeamID)
	if err != nil {
		return err
	}
	for _, id := range []int{ws.Game.HomeTeamID, ws.Game.AwayTeamID} {
		if roster.Team(id) == nil {
			return common.NewOwnershipFailure(fmt.Sprintf("team %d does not exist", id))
		}
	}
	inGame := func(teamID int) bool {
		return teamID == ws.Game.HomeTeamID || teamID == ws.Game.AwayTeamID
	}
	for _, t := range ws.Teams {
		if !inGame(t.TeamID) {
			return common.NewOwnershipFailure(fmt.Sprintf("team %d is not part of this game", t.TeamID))
		}
	}
	for _, p := range ws.Players {
		if !inGame(p.TeamID) {
			return common.NewOwnershipFailure(fmt.Sprintf("player %d filed under team %d, which is not part of this game", p.PlayerID, p.TeamID))
		}
		known := roster.Player(p.PlayerID)
		if known == nil {
			return common.NewOwnershipFailure(fmt.Sprintf("player %d does not exist", p.PlayerID))
		}
		if known.TeamID != p.TeamID {
			return common.NewOwnershipFailure(fmt.Sprintf("player %d belongs to team %d, not %d", p.PlayerID, known.TeamID, p.TeamID))
		}
	}
	return nil
}

func hasStats(ctx context.Context, q Querier, d string, gameID int) bool {
	b := entsql.Dialect(d)
	t := b.Table("team_box_scores")
	n, err := queryInt(ctx, q, b.Select().Count().From(t).Where(entsql.EQ("game_id", gameID)))
	return err != nil || n > 0
}

// promoteGame turns an existing row into the final record in g.
func promoteGame(ctx context.Context, q Querier, d string, g *entity.Game) error {
	g.UpdatedAt = time.Now().UTC()
	upd := entsql.Dialect(d).Update("games").
		Set("home_score", orNull(g.HomeScore)).
		Set("away_score", orNull(g.AwayScore)).
		Set("winner_team_id", orNull(g.WinnerTeamID)).
		Set("status", g.Status).
		Set("source_name", orNull(g.SourceName)).
		Set("source_sha256", orNull(g.SourceSHA256)).
		Set("updated_at", g.UpdatedAt).
		Where(entsql.EQ("id", g.ID))
	if g.Location != nil {
		upd.Set("location", *g.Location)
	}
	_, err := exec(ctx, q, upd)
	return err
}
