package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/boxscore-tracker/constants"
	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
	"github.com/joseph-ayodele/boxscore-tracker/internal/extract"
	"github.com/joseph-ayodele/boxscore-tracker/internal/ocr"
)

// Document is an uploaded file after the input stage.
type Document struct {
	Path   string
	Name   string
	SHA256 string
	Text   extract.TextExtractionResult
}

type InputStage struct {
	TextExtractor extract.TextExtractor
	Logger        *slog.Logger
}

func NewInputStage(tx extract.TextExtractor, logger *slog.Logger) *InputStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &InputStage{TextExtractor: tx, Logger: logger}
}

// Run hashes the file and turns it into normalized text plus page images.
func (s *InputStage) Run(ctx context.Context, path string) (*Document, error) {
	logger := common.LoggerWith(ctx, s.Logger)
	if constants.MapExtToFormat(filepath.Ext(path)) == "" {
		return nil, fmt.Errorf("%w: %s", common.ErrUnsupportedFormat, filepath.Ext(path))
	}
	sum, err := hashFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc := &Document{Path: path, Name: filepath.Base(path), SHA256: sum}

	res, err := s.TextExtractor.Extract(ocr.WithContentHash(ctx, sum), path)
	if err != nil {
		logger.Error("pipeline.input.failed", "path", path, "error", err)
		return nil, fmt.Errorf("input stage: %w", err)
	}
	doc.Text = res
	logger.Info("pipeline.input.ok",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"confidence", res.Confidence,
		"images", len(res.Images),
	)
	return doc, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
