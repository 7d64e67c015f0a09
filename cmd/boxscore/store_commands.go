package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/boxscore-tracker/internal/core"
	"github.com/joseph-ayodele/boxscore-tracker/internal/entity"
	"github.com/joseph-ayodele/boxscore-tracker/internal/repository"
	"github.com/joseph-ayodele/boxscore-tracker/internal/seed"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the store schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(app *core.App) error {
				fmt.Fprintln(cmd.OutOrStdout(), "Store schema is up to date")
				return nil
			})
		},
	}
}

func newHealthCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the store and print row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(app *core.App) error {
				if err := app.DB.HealthCheck(cmd.Context(), app.Config.Database.DialTimeout); err != nil {
					return fmt.Errorf("store unhealthy: %w", err)
				}
				stats, err := repository.Stats(cmd.Context(), app.DB)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, stats)
				}
				fmt.Fprint(cmd.OutOrStdout(), renderStats(stats))
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func renderStats(s *entity.StoreStats) string {
	rows := [][]string{
		{"teams", strconv.Itoa(s.Teams)},
		{"players", strconv.Itoa(s.Players)},
		{"games", strconv.Itoa(s.Games)},
		{"final games", strconv.Itoa(s.FinalGames)},
		{"team box scores", strconv.Itoa(s.TeamBoxScores)},
		{"player box scores", strconv.Itoa(s.PlayerBoxScores)},
		{"override audits", strconv.Itoa(s.OverrideAudits)},
	}
	return renderTable([]string{"Table", "Rows"}, rows, []columnAlignment{alignLeft, alignRight})
}

func newSeedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seed FILE",
		Short: "Load teams, players and scheduled games from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(app *core.App) error {
				report, err := seed.NewLoader(app.Teams, app.Games, app.Logger).LoadFile(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Teams: %d created, %d existing\n", report.TeamsCreated, report.TeamsExisting)
				fmt.Fprintf(cmd.OutOrStdout(), "Players: %d created, %d skipped\n", report.PlayersCreated, report.PlayersSkipped)
				fmt.Fprintf(cmd.OutOrStdout(), "Games: %d created, %d skipped\n", report.GamesCreated, report.GamesSkipped)
				return nil
			})
		},
	}
}
