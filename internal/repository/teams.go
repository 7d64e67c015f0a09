package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	entsql "entgo.io/ent/dialect/sql"
	"golang.org/x/text/cases"

	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
	"github.com/joseph-ayodele/boxscore-tracker/internal/entity"
)

var (
	teamColumns   = []string{"id", "name", "abbreviation", "city", "coach"}
	playerColumns = []string{"id", "team_id", "first_name", "last_name", "media_name", "jersey_number", "position"}
)

// TeamRepository is the read side of the team and player reference data, plus
// the inserts the seeder needs.
type TeamRepository interface {
	ListTeams(ctx context.Context) ([]*entity.Team, error)
	GetTeam(ctx context.Context, id int) (*entity.Team, error)
	// FindTeam resolves a numeric id, a name or an abbreviation, ignoring case.
	FindTeam(ctx context.Context, ref string) (*entity.Team, error)
	Roster(ctx context.Context, teamIDs ...int) (*entity.Roster, error)
	CreateTeam(ctx context.Context, team *entity.Team) (int, error)
	CreatePlayer(ctx context.Context, player *entity.Player) (int, error)
	FindPlayer(ctx context.Context, teamID int, firstName, lastName string) (*entity.Player, error)
}

type teamRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewTeamRepository(db *DB, logger *slog.Logger) TeamRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &teamRepository{
		db:     db,
		logger: logger,
	}
}

func (r *teamRepository) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.db.Dialect())
}

func (r *teamRepository) ListTeams(ctx context.Context) ([]*entity.Team, error) {
	b := r.builder()
	sel := b.Select(teamColumns...).From(b.Table("teams")).OrderBy("name")
	teams, err := queryAll[entity.Team](ctx, r.db.driver, sel)
	if err != nil {
		r.logger.Error("failed to list teams", "error", err)
		return nil, err
	}
	return teams, nil
}

func (r *teamRepository) GetTeam(ctx context.Context, id int) (*entity.Team, error) {
	b := r.builder()
	sel := b.Select(teamColumns...).From(b.Table("teams")).Where(entsql.EQ("id", id))
	team, err := queryOne[entity.Team](ctx, r.db.driver, sel)
	if err != nil {
		r.logger.Error("failed to get team", "team_id", id, "error", err)
		return nil, err
	}
	if team == nil {
		return nil, fmt.Errorf("team %d: %w", id, common.ErrNotFound)
	}
	return team, nil
}

func (r *teamRepository) FindTeam(ctx context.Context, ref string) (*entity.Team, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("empty team reference: %w", common.ErrInvalidInput)
	}
	if id, err := strconv.Atoi(ref); err == nil {
		return r.GetTeam(ctx, id)
	}
	teams, err := r.ListTeams(ctx)
	if err != nil {
		return nil, err
	}
	fold := cases.Fold()
	want := fold.String(ref)
	for _, t := range teams {
		if fold.String(t.Name) == want {
			return t, nil
		}
	}
	for _, t := range teams {
		if t.Abbreviation != nil && fold.String(*t.Abbreviation) == want {
			return t, nil
		}
	}
	return nil, fmt.Errorf("team %q: %w", ref, common.ErrNotFound)
}

func (r *teamRepository) Roster(ctx context.Context, teamIDs ...int) (*entity.Roster, error) {
	return loadRoster(ctx, r.db.driver, r.db.Dialect(), teamIDs...)
}

// loadRoster reads the teams and their players through q, which may be a
// transaction.
func loadRoster(ctx context.Context, q Querier, d string, teamIDs ...int) (*entity.Roster, error) {
	if len(teamIDs) == 0 {
		return &entity.Roster{}, nil
	}
	ids := make([]any, len(teamIDs))
	for i, id := range teamIDs {
		ids[i] = id
	}
	b := entsql.Dialect(d)
	teams, err := queryAll[entity.Team](ctx, q,
		b.Select(teamColumns...).From(b.Table("teams")).Where(entsql.In("id", ids...)).OrderBy("id"))
	if err != nil {
		return nil, fmt.Errorf("load roster teams: %w", err)
	}
	players, err := queryAll[entity.Player](ctx, q,
		b.Select(playerColumns...).From(b.Table("players")).Where(entsql.In("team_id", ids...)).OrderBy("team_id", "id"))
	if err != nil {
		return nil, fmt.Errorf("load roster players: %w", err)
	}
	return &entity.Roster{Teams: teams, Players: players}, nil
}

func (r *teamRepository) CreateTeam(ctx context.Context, team *entity.Team) (int, error) {
	if strings.TrimSpace(team.Name) == "" {
		return 0, fmt.Errorf("team name is required: %w", common.ErrInvalidInput)
	}
	ins := r.builder().Insert("teams").
		Columns("name", "abbreviation", "city", "coach").
		Values(team.Name, orNull(team.Abbreviation), orNull(team.City), orNull(team.Coach))
	id, err := insertID(ctx, r.db.driver, ins)
	if err != nil {
		r.logger.Error("failed to create team", "name", team.Name, "error", err)
		return 0, err
	}
	team.ID = id
	return id, nil
}

func (r *teamRepository) CreatePlayer(ctx context.Context, player *entity.Player) (int, error) {
	if player.FirstName == "" || player.LastName == "" || player.TeamID == 0 {
		return 0, fmt.Errorf("player needs a team and a full name: %w", common.ErrInvalidInput)
	}
	if player.MediaName == "" {
		player.MediaName = player.FirstName + " " + player.LastName
	}
	ins := r.builder().Insert("players").
		Columns("team_id", "first_name", "last_name", "media_name", "jersey_number", "position").
		Values(player.TeamID, player.FirstName, player.LastName, player.MediaName, orNull(player.JerseyNumber), orNull(player.Position))
	id, err := insertID(ctx, r.db.driver, ins)
	if err != nil {
		r.logger.Error("failed to create player", "team_id", player.TeamID, "media_name", player.MediaName, "error", err)
		return 0, err
	}
	player.ID = id
	return id, nil
}

func (r *teamRepository) FindPlayer(ctx context.Context, teamID int, firstName, lastName string) (*entity.Player, error) {
	b := r.builder()
	sel := b.Select(playerColumns...).From(b.Table("players")).Where(entsql.And(
		entsql.EQ("team_id", teamID),
		entsql.EQ("first_name", firstName),
		entsql.EQ("last_name", lastName),
	))
	p, err := queryOne[entity.Player](ctx, r.db.driver, sel)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("player %s %s: %w", firstName, lastName, common.ErrNotFound)
	}
	return p, nil
}
