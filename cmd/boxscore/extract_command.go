package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/boxscore-tracker/internal/core"
	"github.com/joseph-ayodele/boxscore-tracker/internal/pipeline"
	"github.com/joseph-ayodele/boxscore-tracker/internal/validator"
)

// newExtractCommand runs extraction without opening a review session. With
// --times it repeats the call on the same document to compare runs.
func newExtractCommand(ctx *commandContext) *cobra.Command {
	var (
		home, away, date string
		times            int
	)
	cmd := &cobra.Command{
		Use:   "extract FILE",
		Short: "Print the candidate record extracted from a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.requireExtraction(); err != nil {
				return err
			}
			return ctx.withApp(cmd.Context(), func(app *core.App) error {
				proc := app.Processor
				hint, roster, err := proc.ResolveHint(cmd.Context(), pipeline.Upload{Path: args[0], Home: home, Away: away, Date: date})
				if err != nil {
					return err
				}
				doc, err := proc.Input.Run(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if times <= 1 {
					rec, err := proc.Extract.Run(cmd.Context(), doc, roster, hint)
					if err != nil {
						return err
					}
					return writeJSON(cmd, rec)
				}

				limits := validator.LimitsFromConfig(app.Config.Validation)
				rows := make([][]string, 0, times)
				failed := 0
				for i := 1; i <= times; i++ {
					start := time.Now()
					rec, err := proc.Extract.Run(cmd.Context(), doc, roster, hint)
					elapsed := time.Since(start).Round(time.Millisecond).String()
					if err != nil {
						failed++
						rows = append(rows, []string{strconv.Itoa(i), elapsed, "-", "-", err.Error()})
						continue
					}
					found := validator.Validate(rec, roster, limits)
					rows = append(rows, []string{
						strconv.Itoa(i),
						elapsed,
						strconv.Itoa(len(rec.Players)),
						strconv.Itoa(len(validator.BlockingOnly(found))),
						strconv.Itoa(len(found)),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Run", "Elapsed", "Players", "Blocking", "Findings"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignLeft},
				))
				if failed > 0 {
					return fmt.Errorf("%d of %d runs failed", failed, times)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&home, "home", "", "Home team (id, name or abbreviation)")
	cmd.Flags().StringVar(&away, "away", "", "Away team (id, name or abbreviation)")
	cmd.Flags().StringVar(&date, "date", "", "Game date, YYYY-MM-DD")
	cmd.Flags().IntVar(&times, "times", 1, "Repeat extraction and summarize each run")
	_ = cmd.MarkFlagRequired("home")
	_ = cmd.MarkFlagRequired("away")
	return cmd
}
