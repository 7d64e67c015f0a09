package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/boxscore-tracker/constants"
	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit

	TessdataDir         string
	HeicConverter       string // heif-convert | magick | sips
	EnableTSVConfidence bool
	// ConfidenceThreshold is the text-layer score under which a PDF is treated as a scan.
	ConfidenceThreshold float32

	PSM int // 6 suits a uniform block such as a stat table
	OEM int // 1 = LSTM; 0 keeps the tesseract default

	ArtifactCacheDir string
	MaxImageBytes    int
}

// ConfigFrom maps the application OCR config.
func ConfigFrom(cfg common.OCRConfig) Config {
	return Config{
		DPI:                 cfg.DPI,
		MaxPages:            cfg.MaxPages,
		TessdataDir:         cfg.TessdataDir,
		HeicConverter:       cfg.HeicConverter,
		EnableTSVConfidence: cfg.EnableTSVConfidence,
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		ArtifactCacheDir:    cfg.ArtifactCacheDir,
		PSM:                 6,
	}
}

// Image is a page raster carried along with the text.
type Image struct {
	Name string
	MIME string
	Data []byte
}

type Result struct {
	Text       string
	Pages      int
	Format     constants.Format
	Method     string // "pdf-text" | "pdf-ocr" | "image-ocr"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
	Images     []Image
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

type Option func(*Extractor)

// WithRunner replaces the command runner.
func WithRunner(r Runner) Option {
	return func(e *Extractor) { e.runner = r }
}

func NewExtractor(cfg Config, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = constants.ImageConfidenceThreshold
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = constants.MaxVisionMBDefault << 20
	}
	e := &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract picks a strategy based on file extension.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	logger := common.LoggerWith(ctx, e.logger).With("path", path, "ext", ext)
	logger.Debug("ocr.extract.start")

	var (
		res Result
		err error
	)
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err = e.extractPDF(ctx, path, logger)
	case constants.IMAGE:
		res, err = e.extractImageFile(ctx, path, ext, logger)
	default:
		logger.Error("ocr.extract.unsupported")
		return Result{}, fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, ext)
	}
	res.Duration = time.Since(start)
	if err != nil {
		logger.Error("ocr.extract.failed", "error", err, "elapsed_ms", res.Duration.Milliseconds())
		return res, err
	}
	logger.Info("ocr.extract.done",
		"method", res.Method,
		"pages", res.Pages,
		"images", len(res.Images),
		"confidence", res.Confidence,
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
