package seed_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
	"github.com/joseph-ayodele/boxscore-tracker/internal/repository"
	"github.com/joseph-ayodele/boxscore-tracker/internal/seed"
	"github.com/joseph-ayodele/boxscore-tracker/internal/testsupport"
)

const league = `
teams:
  - name: Harbor Hawks
    abbreviation: HAW
    city: Harbor
    players:
      - {first_name: Ava, last_name: Brooks, jersey: 1, position: G}
      - {first_name: Maya, last_name: Cole, jersey: 4}
  - name: Summit Queens
    abbreviation: SUM
    players:
      - {first_name: Jada, last_name: Hart, jersey: 2}
games:
  - date: "2024-06-01"
    home: HAW
    away: summit queens
    location: Harbor Arena
`

func TestLoadIsIdempotent(t *testing.T) {
	db := testsupport.MustOpenStore(t)
	logger := testsupport.Logger(t)
	teams := repository.NewTeamRepository(db, logger)
	l := seed.NewLoader(teams, repository.NewGameRepository(db, logger), logger)

	path := filepath.Join(t.TempDir(), "league.yaml")
	require.NoError(t, os.WriteFile(path, []byte(league), 0o600))

	rep, err := l.LoadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, seed.Report{TeamsCreated: 2, PlayersCreated: 3, GamesCreated: 1}, *rep)

	rep, err = l.LoadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, seed.Report{TeamsExisting: 2, PlayersSkipped: 3, GamesSkipped: 1}, *rep)

	hawks, err := teams.FindTeam(context.Background(), "haw")
	require.NoError(t, err)
	roster, err := teams.Roster(context.Background(), hawks.ID)
	require.NoError(t, err)
	require.Len(t, roster.Players, 2)
	assert.Equal(t, "Ava Brooks", roster.Players[0].MediaName)

	st, err := repository.Stats(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Games)
	assert.Zero(t, st.FinalGames)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "teams:\n  - name: Hawks\n    mascot: hawk\n"},
		{"missing team name", "teams:\n  - abbreviation: HAW\n"},
		{"bad date", "games:\n  - {date: \"06/01/2024\", home: HAW, away: SUM}\n"},
		{"player without last name", "teams:\n  - name: Hawks\n    players:\n      - {first_name: Ava}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := seed.Parse([]byte(tt.doc))
			assert.ErrorIs(t, err, common.ErrInvalidInput)
		})
	}
}

func TestLoadUnknownTeamInGame(t *testing.T) {
	db := testsupport.MustOpenStore(t)
	l := seed.NewLoader(repository.NewTeamRepository(db, nil), repository.NewGameRepository(db, nil), nil)
	f, err := seed.Parse([]byte("games:\n  - {date: \"2024-06-01\", home: HAW, away: SUM}\n"))
	require.NoError(t, err)
	_, err = l.Load(context.Background(), f)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
