package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/boxscore-tracker/constants"
	"github.com/joseph-ayodele/boxscore-tracker/internal/core"
	"github.com/joseph-ayodele/boxscore-tracker/internal/entity"
	"github.com/joseph-ayodele/boxscore-tracker/internal/repository"
)

func parseGameID(arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid game id %q", arg)
	}
	return id, nil
}

func newGamesCommand(ctx *commandContext) *cobra.Command {
	var (
		status       string
		team         string
		withoutStats bool
		limit        int
		asJSON       bool
	)
	cmd := &cobra.Command{
		Use:   "games",
		Short: "List stored games",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(app *core.App) error {
				filter := repository.ListGamesFilter{
					Status:       strings.ToLower(strings.TrimSpace(status)),
					WithoutStats: withoutStats,
					Limit:        limit,
				}
				if team != "" {
					t, err := app.Teams.FindTeam(cmd.Context(), team)
					if err != nil {
						return err
					}
					filter.TeamID = t.ID
				}
				games, err := app.Games.ListGames(cmd.Context(), filter)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, games)
				}
				if len(games) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No games")
					return nil
				}
				rows := make([][]string, 0, len(games))
				for _, g := range games {
					rows = append(rows, []string{
						strconv.Itoa(g.ID),
						g.Date,
						g.HomeTeam,
						g.AwayTeam,
						formatScore(g.HomeScore, g.AwayScore),
						g.Status,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Date", "Home", "Away", "Score", "Status"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Only games in this status (scheduled, final)")
	cmd.Flags().StringVar(&team, "team", "", "Only games of this team (id, name or abbreviation)")
	cmd.Flags().BoolVar(&withoutStats, "without-stats", false, "Only games with no box score yet")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of games")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func formatScore(home, away *int) string {
	if home == nil || away == nil {
		return "-"
	}
	return fmt.Sprintf("%d-%d", *home, *away)
}

func newGameCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "game ID",
		Short: "Show a game with its box scores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGameID(args[0])
			if err != nil {
				return err
			}
			return ctx.withApp(cmd.Context(), func(app *core.App) error {
				detail, err := app.Games.GetGameDetail(cmd.Context(), id)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, detail)
				}
				roster, err := app.Teams.Roster(cmd.Context(), detail.Game.HomeTeamID, detail.Game.AwayTeamID)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), renderGameDetail(detail, roster))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

var lineHeaders = []string{"PTS", "FG", "3P", "FT", "OREB", "DREB", "REB", "AST", "TO", "STL", "BLK", "PF", "+/-"}

var teamLineHeaders = []string{"PAINT", "2ND CH", "FAST BRK", "BENCH", "OFF TO", "LEAD CH", "TIED"}

func optionalCell(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p)
}

func teamLineCells(l entity.TeamLine) ([]string, bool) {
	cells := make([]string, 0, len(constants.TeamStats))
	set := false
	for _, s := range constants.TeamStats {
		v := l.Get(s)
		set = set || v != nil
		cells = append(cells, optionalCell(v))
	}
	return cells, set
}

func lineCells(l entity.StatLine) []string {
	return []string{
		strconv.Itoa(l.Points),
		fmt.Sprintf("%d-%d", l.FieldGoalsMade, l.FieldGoalsAttempted),
		fmt.Sprintf("%d-%d", l.ThreePointersMade, l.ThreePointersAttempted),
		fmt.Sprintf("%d-%d", l.FreeThrowsMade, l.FreeThrowsAttempted),
		strconv.Itoa(l.OffensiveRebounds),
		strconv.Itoa(l.DefensiveRebounds),
		strconv.Itoa(l.TotalRebounds),
		strconv.Itoa(l.Assists),
		strconv.Itoa(l.Turnovers),
		strconv.Itoa(l.Steals),
		strconv.Itoa(l.Blocks),
		strconv.Itoa(l.Fouls),
		optionalCell(l.PlusMinus),
	}
}

func rightAligned(lead, n int) []columnAlignment {
	aligns := make([]columnAlignment, lead+n)
	for i := lead; i < len(aligns); i++ {
		aligns[i] = alignRight
	}
	return aligns
}

func teamName(roster *entity.Roster, id int) string {
	if t := roster.Team(id); t != nil {
		return t.Name
	}
	return strconv.Itoa(id)
}

func renderGameDetail(d *entity.GameDetail, roster *entity.Roster) string {
	var b strings.Builder
	g := d.Game
	fmt.Fprintf(&b, "Game %d  %s  %s vs %s  %s  (%s)\n", g.ID, g.Date, d.HomeTeam.Name, d.AwayTeam.Name, formatScore(g.HomeScore, g.AwayScore), g.Status)
	if g.Location != nil {
		fmt.Fprintf(&b, "Location: %s\n", *g.Location)
	}
	if g.SourceName != nil {
		fmt.Fprintf(&b, "Source: %s\n", *g.SourceName)
	}
	if len(d.Teams) == 0 {
		b.WriteString("No box score stored\n")
		return b.String()
	}

	rows := make([][]string, 0, len(d.Teams))
	for _, t := range d.Teams {
		rows = append(rows, append([]string{teamName(roster, t.TeamID)}, lineCells(t.StatLine)...))
	}
	b.WriteString(renderTable(append([]string{"Team"}, lineHeaders...), rows, rightAligned(1, len(lineHeaders))))
	b.WriteString("\n")

	rows = rows[:0]
	shown := false
	for _, t := range d.Teams {
		cells, set := teamLineCells(t.TeamLine)
		shown = shown || set
		rows = append(rows, append([]string{teamName(roster, t.TeamID)}, cells...))
	}
	if shown {
		b.WriteString(renderTable(append([]string{"Team"}, teamLineHeaders...), rows, rightAligned(1, len(teamLineHeaders))))
		b.WriteString("\n")
	}

	rows = rows[:0]
	for _, p := range d.Players {
		name := strconv.Itoa(p.PlayerID)
		if pl := roster.Player(p.PlayerID); pl != nil {
			name = pl.FirstName + " " + pl.LastName
		}
		jersey := ""
		if p.JerseyNumber != nil {
			jersey = strconv.Itoa(*p.JerseyNumber)
		}
		row := []string{teamName(roster, p.TeamID), jersey, name, strconv.FormatFloat(p.Minutes, 'f', -1, 64)}
		rows = append(rows, append(row, lineCells(p.StatLine)...))
	}
	b.WriteString(renderTable(append([]string{"Team", "#", "Player", "MIN"}, lineHeaders...), rows, rightAligned(3, len(lineHeaders)+1)))
	b.WriteString("\n")

	if len(d.Audits) > 0 {
		rows = rows[:0]
		for _, a := range d.Audits {
			note := ""
			if a.Note != nil {
				note = *a.Note
			}
			rows = append(rows, []string{a.FindingID, a.Reviewer, a.AcceptedAt.Format("2006-01-02 15:04"), note})
		}
		b.WriteString("Accepted findings\n")
		b.WriteString(renderTable([]string{"Finding", "Reviewer", "Accepted", "Note"}, rows, nil))
		b.WriteString("\n")
	}
	return b.String()
}

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "verify ID",
		Short: "Re-check a stored game's box score arithmetic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGameID(args[0])
			if err != nil {
				return err
			}
			return ctx.withApp(cmd.Context(), func(app *core.App) error {
				found, err := app.Games.VerifyGame(cmd.Context(), id, app.Config.Consistency)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, found)
				}
				if len(found) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Game %d is consistent\n", id)
					return nil
				}
				for _, d := range found {
					fmt.Fprintln(cmd.OutOrStdout(), d.String())
				}
				return fmt.Errorf("game %d has %d discrepancies", id, len(found))
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	var statsOnly bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a game and its box scores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGameID(args[0])
			if err != nil {
				return err
			}
			return ctx.withApp(cmd.Context(), func(app *core.App) error {
				if statsOnly {
					if err := app.Games.DeleteStats(cmd.Context(), id); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Box score of game %d removed\n", id)
					return nil
				}
				if err := app.Games.DeleteGame(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Game %d deleted\n", id)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&statsOnly, "stats-only", false, "Keep the game, drop its box scores and audits")
	return cmd
}
