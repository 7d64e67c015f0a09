package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/boxscore-tracker/internal/candidate"
	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
	"github.com/joseph-ayodele/boxscore-tracker/internal/entity"
	"github.com/joseph-ayodele/boxscore-tracker/internal/llm"
)

type ExtractStage struct {
	Extractor llm.FieldExtractor
	Logger    *slog.Logger
	Now       func() time.Time
}

func NewExtractStage(fe llm.FieldExtractor, logger *slog.Logger) *ExtractStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractStage{Extractor: fe, Logger: logger, Now: time.Now}
}

// Run asks the extractor for a candidate record and stamps its provenance.
func (s *ExtractStage) Run(ctx context.Context, doc *Document, roster *entity.Roster, hint llm.Hint) (*candidate.Record, error) {
	logger := common.LoggerWith(ctx, s.Logger)
	req := llm.ExtractRequest{
		Text:           doc.Text.Text,
		SourceName:     doc.Name,
		Hint:           hint,
		Roster:         roster,
		PrepConfidence: doc.Text.Confidence,
	}
	for _, img := range doc.Text.Images {
		req.Images = append(req.Images, llm.Image{Name: img.Name, MIME: img.MIME, Data: img.Data})
	}

	rec, _, err := s.Extractor.ExtractFields(ctx, req)
	if err != nil {
		logger.Error("pipeline.extract.failed", "source", doc.Name, "error", err)
		return nil, fmt.Errorf("extract stage: %w", err)
	}
	rec.Meta.SourceName = doc.Name
	rec.Meta.SourceSHA256 = doc.SHA256
	rec.Meta.InputMethod = doc.Text.Method
	rec.Meta.PrepConfidence = float64(doc.Text.Confidence)
	rec.Meta.ExtractedAt = s.Now().UTC()
	logger.Info("pipeline.extract.ok",
		"source", doc.Name,
		"players", len(rec.Players),
		"low_confidence", rec.Meta.LowConfidence,
	)
	return rec, nil
}
