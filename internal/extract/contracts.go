package extract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/boxscore-tracker/constants"
)

// TextExtractor is Stage 1: file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

// PageImage is a raster of one document page.
type PageImage struct {
	Name string
	MIME string
	Data []byte
}

type TextExtractionResult struct {
	Text       string
	Pages      int
	Format     constants.Format
	Method     string // "pdf-text" | "pdf-ocr" | "image-ocr"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
	Images     []PageImage
}
