package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
	"github.com/joseph-ayodele/boxscore-tracker/internal/entity"
	"github.com/joseph-ayodele/boxscore-tracker/internal/repository"
	"github.com/joseph-ayodele/boxscore-tracker/internal/utils"
)

// File is the YAML layout of a seed file.
type File struct {
	Teams []Team `yaml:"teams"`
	Games []Game `yaml:"games"`
}

type Team struct {
	Name         string   `yaml:"name"`
	Abbreviation string   `yaml:"abbreviation"`
	City         string   `yaml:"city"`
	Coach        string   `yaml:"coach"`
	Players      []Player `yaml:"players"`
}

type Player struct {
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	MediaName string `yaml:"media_name"`
	Jersey    *int   `yaml:"jersey"`
	Position  string `yaml:"position"`
}

// Game is a scheduled game; teams are named by id, name or abbreviation.
type Game struct {
	Date     string `yaml:"date"`
	Home     string `yaml:"home"`
	Away     string `yaml:"away"`
	Location string `yaml:"location"`
}

// Report counts what a load created and what already existed.
type Report struct {
	TeamsCreated   int `json:"teams_created"`
	TeamsExisting  int `json:"teams_existing"`
	PlayersCreated int `json:"players_created"`
	PlayersSkipped int `json:"players_skipped"`
	GamesCreated   int `json:"games_created"`
	GamesSkipped   int `json:"games_skipped"`
}

// Parse decodes a seed document and checks it before anything is written.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("seed: %w: %w", common.ErrInvalidInput, err)
	}
	v := common.NewValidator()
	for i, t := range f.Teams {
		v.Field(fmt.Sprintf("teams[%d].name", i), t.Name, common.Required)
		for j, p := range t.Players {
			v.Field(fmt.Sprintf("teams[%d].players[%d].first_name", i, j), p.FirstName, common.Required)
			v.Field(fmt.Sprintf("teams[%d].players[%d].last_name", i, j), p.LastName, common.Required)
		}
	}
	for i, g := range f.Games {
		v.Field(fmt.Sprintf("games[%d].date", i), g.Date, common.Required, common.Date)
		v.Field(fmt.Sprintf("games[%d].home", i), g.Home, common.Required)
		v.Field(fmt.Sprintf("games[%d].away", i), g.Away, common.Required)
	}
	if err := v.Error(); err != nil {
		return nil, fmt.Errorf("seed: %w: %w", common.ErrInvalidInput, err)
	}
	return &f, nil
}

// Loader writes seed files through the repositories. Loading is idempotent:
// teams are matched by name, players by team and full name, and scheduled
// games by matchup.
type Loader struct {
	teams  repository.TeamRepository
	games  repository.GameRepository
	logger *slog.Logger
}

func NewLoader(teams repository.TeamRepository, games repository.GameRepository, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{teams: teams, games: games, logger: logger}
}

func (l *Loader) LoadFile(ctx context.Context, path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return l.Load(ctx, f)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (l *Loader) Load(ctx context.Context, f *File) (*Report, error) {
	rep := &Report{}
	for _, t := range f.Teams {
		team, err := l.teams.FindTeam(ctx, t.Name)
		switch {
		case err == nil:
			rep.TeamsExisting++
		case errors.Is(err, common.ErrNotFound):
			team = &entity.Team{Name: strings.TrimSpace(t.Name), Abbreviation: optional(t.Abbreviation), City: optional(t.City), Coach: optional(t.Coach)}
			if _, err := l.teams.CreateTeam(ctx, team); err != nil {
				return rep, fmt.Errorf("team %s: %w", t.Name, err)
			}
			rep.TeamsCreated++
		default:
			return rep, fmt.Errorf("team %s: %w", t.Name, err)
		}

		for _, p := range t.Players {
			first, last := strings.TrimSpace(p.FirstName), strings.TrimSpace(p.LastName)
			if _, err := l.teams.FindPlayer(ctx, team.ID, first, last); err == nil {
				rep.PlayersSkipped++
				continue
			} else if !errors.Is(err, common.ErrNotFound) {
				return rep, fmt.Errorf("player %s %s: %w", first, last, err)
			}
			player := &entity.Player{
				TeamID:       team.ID,
				FirstName:    first,
				LastName:     last,
				MediaName:    strings.TrimSpace(p.MediaName),
				JerseyNumber: p.Jersey,
				Position:     optional(p.Position),
			}
			if _, err := l.teams.CreatePlayer(ctx, player); err != nil {
				return rep, fmt.Errorf("player %s %s: %w", first, last, err)
			}
			rep.PlayersCreated++
		}
	}

	for _, g := range f.Games {
		date, err := utils.ParseYMD(g.Date)
		if err != nil {
			return rep, fmt.Errorf("game %s: %w", g.Date, common.ErrInvalidInput)
		}
		home, err := l.teams.FindTeam(ctx, g.Home)
		if err != nil {
			return rep, fmt.Errorf("game %s home: %w", g.Date, err)
		}
		away, err := l.teams.FindTeam(ctx, g.Away)
		if err != nil {
			return rep, fmt.Errorf("game %s away: %w", g.Date, err)
		}
		_, err = l.games.CreateScheduled(ctx, &entity.Game{
			Date:       date.Format("2006-01-02"),
			HomeTeamID: home.ID,
			AwayTeamID: away.ID,
			Location:   optional(g.Location),
		})
		switch {
		case err == nil:
			rep.GamesCreated++
		case errors.Is(err, common.ErrDuplicateGame):
			rep.GamesSkipped++
		default:
			return rep, fmt.Errorf("game %s: %w", g.Date, err)
		}
	}

	l.logger.Info("seed.load.done",
		"teams_created", rep.TeamsCreated,
		"players_created", rep.PlayersCreated,
		"games_created", rep.GamesCreated,
		"games_skipped", rep.GamesSkipped,
	)
	return rep, nil
}
