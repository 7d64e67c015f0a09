package extract

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/boxscore-tracker/internal/ocr"
)

type OCRAdapter struct {
	e      *ocr.Extractor
	logger *slog.Logger
}

func NewOCRAdapter(e *ocr.Extractor, logger *slog.Logger) *OCRAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRAdapter{e: e, logger: logger}
}

func (a *OCRAdapter) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	r, err := a.e.Extract(ctx, path)
	out := TextExtractionResult{
		Text:       r.Text,
		Pages:      r.Pages,
		Format:     r.Format,
		Method:     r.Method,
		Language:   r.Language,
		Duration:   r.Duration,
		Warnings:   r.Warnings,
		Confidence: r.Confidence,
	}
	for _, img := range r.Images {
		out.Images = append(out.Images, PageImage{Name: img.Name, MIME: img.MIME, Data: img.Data})
	}
	if len(out.Warnings) > 0 {
		a.logger.Debug("extract.ocr.warnings", "path", path, "count", len(out.Warnings))
	}
	return out, err
}
