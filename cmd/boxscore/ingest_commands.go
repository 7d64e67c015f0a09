package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/boxscore-tracker/constants"
	"github.com/joseph-ayodele/boxscore-tracker/internal/core"
	"github.com/joseph-ayodele/boxscore-tracker/internal/ingest"
	"github.com/joseph-ayodele/boxscore-tracker/internal/services/session"
)

func defaultReviewer() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "cli"
}

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var (
		home, away, date string
		reviewer         string
		replace          bool
		autoCommit       bool
	)
	cmd := &cobra.Command{
		Use:   "ingest FILE",
		Short: "Extract one box score document and review it interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.requireExtraction(); err != nil {
				return err
			}
			return ctx.withApp(cmd.Context(), func(app *core.App) error {
				svc := session.NewService(app.Processor, app.Exporter, app.Logger)
				v, err := svc.Start(cmd.Context(), session.StartRequest{Path: args[0], Home: home, Away: away, Date: date})
				if err != nil {
					return err
				}
				if autoCommit && v.State == constants.SessionClean {
					v, err = svc.Commit(cmd.Context(), v.ID, replace)
					if err != nil {
						return err
					}
					printCommit(cmd.OutOrStdout(), v)
					return nil
				}
				loop := &reviewLoop{
					svc:      svc,
					id:       v.ID,
					reviewer: reviewer,
					replace:  replace,
					in:       cmd.InOrStdin(),
					out:      cmd.OutOrStdout(),
					prompt:   isTerminal(cmd.InOrStdin()),
				}
				return loop.run(cmd.Context())
			})
		},
	}
	cmd.Flags().StringVar(&home, "home", "", "Home team (id, name or abbreviation)")
	cmd.Flags().StringVar(&away, "away", "", "Away team (id, name or abbreviation)")
	cmd.Flags().StringVar(&date, "date", "", "Game date, YYYY-MM-DD")
	cmd.Flags().StringVar(&reviewer, "reviewer", defaultReviewer(), "Name recorded on accepted findings")
	cmd.Flags().BoolVar(&replace, "replace", false, "Replace an existing final box score of the same game")
	cmd.Flags().BoolVar(&autoCommit, "auto-commit", false, "Commit without review when the record is clean")
	_ = cmd.MarkFlagRequired("home")
	_ = cmd.MarkFlagRequired("away")
	return cmd
}

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var (
		home, away, date string
		includeHidden    bool
		asJSON           bool
	)
	cmd := &cobra.Command{
		Use:   "batch DIR",
		Short: "Extract every document under a directory; commit clean ones, export the rest for review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.requireExtraction(); err != nil {
				return err
			}
			return ctx.withApp(cmd.Context(), func(app *core.App) error {
				results, stats, err := app.Batch.Run(cmd.Context(), ingest.Request{
					Root:       args[0],
					Home:       home,
					Away:       away,
					Date:       date,
					SkipHidden: !includeHidden,
				})
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, struct {
						Stats   ingest.DirStats     `json:"stats"`
						Results []ingest.FileResult `json:"results"`
					}{stats, results})
				}
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					detail := r.Err
					switch {
					case r.GameID != 0:
						detail = "game " + strconv.Itoa(r.GameID)
					case r.Workbook != "":
						detail = fmt.Sprintf("%d outstanding, %s", r.Outstanding, r.Workbook)
					}
					rel, err := filepath.Rel(args[0], r.Path)
					if err != nil {
						rel = r.Path
					}
					rows = append(rows, []string{rel, string(r.Outcome), r.State, detail})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"File", "Outcome", "State", "Detail"}, rows, nil))
				fmt.Fprintf(cmd.OutOrStdout(), "scanned %d, matched %d, committed %d, needs review %d, failed %d\n",
					stats.Scanned, stats.Matched, stats.Committed, stats.NeedsReview, stats.Failed)
				if stats.Failed > 0 {
					return fmt.Errorf("%d documents failed", stats.Failed)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&home, "home", "", "Home team (id, name or abbreviation)")
	cmd.Flags().StringVar(&away, "away", "", "Away team (id, name or abbreviation)")
	cmd.Flags().StringVar(&date, "date", "", "Game date, YYYY-MM-DD")
	cmd.Flags().BoolVar(&includeHidden, "include-hidden", false, "Also process hidden files")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("home")
	_ = cmd.MarkFlagRequired("away")
	return cmd
}
