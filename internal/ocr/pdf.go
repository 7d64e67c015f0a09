package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/boxscore-tracker/constants"
)

// extractPDF prefers the embedded text layer and falls back to rasterizing
// and OCR when the layer is empty or does not look like a box score.
func (e *Extractor) extractPDF(ctx context.Context, path string, logger *slog.Logger) (Result, error) {
	res := Result{Format: constants.PDF, Language: e.cfg.TesseractLang}

	text, pages, warns, err := e.pdfToText(ctx, path, logger)
	if err != nil {
		res.Warnings = append(res.Warnings, warns...)
		logger.Warn("ocr.pdf.text_layer_failed", "error", err)
	} else {
		text = Normalize(text)
		conf := heuristicConfidence(text)
		if strings.TrimSpace(text) != "" && conf >= e.cfg.ConfidenceThreshold {
			res.Text, res.Pages, res.Method, res.Confidence = text, pages, "pdf-text", conf
			return res, nil
		}
		logger.Info("ocr.pdf.scan_suspected", "confidence", conf, "chars", len(text))
		res.Text, res.Pages, res.Confidence = text, pages, conf
	}

	ocrText, ocrPages, images, ocrConf, warns, err := e.pdfToOCR(ctx, path, logger)
	res.Warnings = append(res.Warnings, warns...)
	if err != nil {
		if res.Text != "" {
			res.Method = "pdf-text"
			res.Warnings = append(res.Warnings, "ocr fallback failed: "+err.Error())
			return res, nil
		}
		return res, err
	}
	res.Images = images
	if ocrConf >= res.Confidence || res.Text == "" {
		res.Text, res.Pages, res.Confidence = ocrText, ocrPages, ocrConf
	}
	res.Method = "pdf-ocr"
	return res, nil
}

func (e *Extractor) pdfToText(ctx context.Context, path string, logger *slog.Logger) (text string, pages int, warnings []string, err error) {
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, logger, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, []string{string(errb)}, fmt.Errorf("pdftotext: %w", err)
	}
	text = string(out)
	// pdftotext separates pages with a form feed
	pages = 1 + strings.Count(strings.TrimRight(text, "\f\n"), "\f")
	return text, pages, nil, nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string, logger *slog.Logger) (string, int, []Image, float32, []string, error) {
	tmpDir, err := os.MkdirTemp("", "bs-pp-*")
	if err != nil {
		return "", 0, nil, 0, nil, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			logger.Warn("ocr.tmp.cleanup_failed", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, logger, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", 0, nil, 0, []string{string(errb)}, fmt.Errorf("pdftoppm: %w", err)
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", 0, nil, 0, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}

	var (
		b       strings.Builder
		warns   []string
		images  []Image
		confSum float32
		confN   int
	)
	for _, img := range matches {
		txt, w, err := e.tesseractOCR(ctx, img, logger)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		warns = append(warns, w...)
		if b.Len() > 0 {
			b.WriteString("\n\f\n")
		}
		b.WriteString(txt)
		if e.cfg.EnableTSVConfidence {
			if c, _, err := e.tesseractTSVConfidence(ctx, img, logger); err == nil && c > 0 {
				confSum += c
				confN++
			}
		}
		if len(images) < constants.MaxVisionPages {
			if im, err := e.loadImage(img); err == nil {
				images = append(images, im)
			} else {
				warns = append(warns, err.Error())
			}
		}
	}
	text := Normalize(b.String())
	var ocrConf float32
	if confN > 0 {
		ocrConf = confSum / float32(confN)
	}
	return text, len(matches), images, blend(ocrConf, heuristicConfidence(text)), warns, nil
}
