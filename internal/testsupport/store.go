package testsupport

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/joseph-ayodele/boxscore-tracker/internal/entity"
	"github.com/joseph-ayodele/boxscore-tracker/internal/repository"
)

// MustOpenStore opens a migrated SQLite store in a temp dir and registers cleanup.
func MustOpenStore(t testing.TB) *repository.DB {
	t.Helper()

	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "boxscores.db")
	db, err := repository.Open(ctx, repository.Config{DSN: dsn}, Logger(t))
	if err != nil {
		t.Fatalf("repository.Open: %v", err)
	}
	t.Cleanup(db.Close)
	if err := repository.Migrate(ctx, db); err != nil {
		t.Fatalf("repository.Migrate: %v", err)
	}
	return db
}

// League is the reference data seeded by MustSeedLeague.
type League struct {
	Home   *entity.Team
	Away   *entity.Team
	Roster *entity.Roster
}

// MustSeedLeague stores the teams and players of NewRoster and returns them
// with their assigned ids.
func MustSeedLeague(t testing.TB, db *repository.DB) *League {
	t.Helper()

	ctx := context.Background()
	teams := repository.NewTeamRepository(db, Logger(t))
	fixture := NewRoster()
	ids := make(map[int]int, len(fixture.Teams))
	for _, team := range fixture.Teams {
		oldID := team.ID
		if _, err := teams.CreateTeam(ctx, team); err != nil {
			t.Fatalf("CreateTeam %s: %v", team.Name, err)
		}
		ids[oldID] = team.ID
	}
	for _, p := range fixture.Players {
		p.TeamID = ids[p.TeamID]
		if _, err := teams.CreatePlayer(ctx, p); err != nil {
			t.Fatalf("CreatePlayer %s: %v", p.MediaName, err)
		}
	}
	roster, err := teams.Roster(ctx, fixture.Teams[0].ID, fixture.Teams[1].ID)
	if err != nil {
		t.Fatalf("Roster: %v", err)
	}
	return &League{
		Home:   roster.Team(fixture.Teams[0].ID),
		Away:   roster.Team(fixture.Teams[1].ID),
		Roster: roster,
	}
}

// NewRoster builds an in-memory two-team roster: team 1 has players 101-106,
// team 2 has players 201-206.
func NewRoster() *entity.Roster {
	abbr := func(s string) *string { return &s }
	roster := &entity.Roster{
		Teams: []*entity.Team{
			{ID: 1, Name: "Harbor Hawks", Abbreviation: abbr("HAW")},
			{ID: 2, Name: "Summit Queens", Abbreviation: abbr("SUM")},
		},
	}
	names := map[int][]string{
		1: {"Ava Brooks", "Maya Cole", "Zoe Diaz", "Nia Ellis", "Ivy Frost", "Lena Gray"},
		2: {"Jada Hart", "Kira Irwin", "Tess Jones", "Uma Kent", "Rae Lopez", "Sky Moore"},
	}
	for teamID := 1; teamID <= 2; teamID++ {
		for i, name := range names[teamID] {
			jersey := i*3 + teamID
			var first, last string
			fmt.Sscanf(name, "%s %s", &first, &last)
			roster.Players = append(roster.Players, &entity.Player{
				ID:           teamID*100 + i + 1,
				TeamID:       teamID,
				FirstName:    first,
				LastName:     last,
				MediaName:    name,
				JerseyNumber: &jersey,
			})
		}
	}
	return roster
}
