package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/boxscore-tracker/internal/core"
	"github.com/joseph-ayodele/boxscore-tracker/internal/daemon"
	"github.com/joseph-ayodele/boxscore-tracker/internal/ocr"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the review service in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.GRPCAddr = addr
			}
			if err := cfg.ValidateForServer(); err != nil {
				return err
			}
			return ctx.withApp(cmd.Context(), func(app *core.App) error {
				return daemon.New(app).Run(cmd.Context())
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides GRPC_ADDR)")
	return cmd
}

func newOCRCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "ocr FILE",
		Short: "Print the raw text read from a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			res, err := ocr.NewExtractor(ocr.ConfigFrom(cfg.OCR), ctx.logger()).Extract(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, struct {
					Method     string   `json:"method"`
					Format     string   `json:"format"`
					Pages      int      `json:"pages"`
					Confidence float32  `json:"confidence"`
					Images     int      `json:"images"`
					Warnings   []string `json:"warnings,omitempty"`
					Text       string   `json:"text"`
				}{res.Method, string(res.Format), res.Pages, res.Confidence, len(res.Images), res.Warnings, res.Text})
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "method=%s pages=%d confidence=%.2f images=%d\n", res.Method, res.Pages, res.Confidence, len(res.Images))
			for _, w := range res.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(res.Text, "\n"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
