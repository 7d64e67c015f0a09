package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/boxscore-tracker/constants"
)

func (e *Extractor) extractImageFile(ctx context.Context, path, ext string, logger *slog.Logger) (Result, error) {
	var warns []string
	if constants.IsHEICExt(ext) {
		hashHex, _ := contentHashFromCtx(ctx)
		out, w, cleanup, err := convertHEICtoPNG(ctx, e.runner, logger, e.cfg.HeicConverter, path, e.cfg.ArtifactCacheDir, hashHex)
		warns = append(warns, w...)
		if cleanup != nil {
			defer cleanup()
		}
		if err != nil {
			return Result{Format: constants.IMAGE, Warnings: warns}, err
		}
		path = out
	}
	res, err := e.extractImage(ctx, path, logger)
	res.Warnings = append(res.Warnings, warns...)
	return res, err
}

func (e *Extractor) extractImage(ctx context.Context, path string, logger *slog.Logger) (Result, error) {
	txt, warn, err := e.tesseractOCR(ctx, path, logger)
	if err != nil {
		return Result{Format: constants.IMAGE, Warnings: warn}, err
	}
	txt = Normalize(txt)

	var ocrConf float32
	if e.cfg.EnableTSVConfidence {
		if c, w, err := e.tesseractTSVConfidence(ctx, path, logger); err == nil {
			ocrConf = c
			warn = append(warn, w...)
		} else {
			warn = append(warn, err.Error())
		}
	}

	res := Result{
		Text:       txt,
		Pages:      1,
		Format:     constants.IMAGE,
		Method:     "image-ocr",
		Language:   e.cfg.TesseractLang,
		Warnings:   warn,
		Confidence: blend(ocrConf, heuristicConfidence(txt)),
	}
	if im, err := e.loadImage(path); err == nil {
		res.Images = []Image{im}
	} else {
		res.Warnings = append(res.Warnings, err.Error())
	}
	return res, nil
}

// loadImage reads a raster for attachment; oversized files are skipped.
func (e *Extractor) loadImage(path string) (Image, error) {
	st, err := os.Stat(path)
	if err != nil {
		return Image{}, err
	}
	if st.Size() > int64(e.cfg.MaxImageBytes) {
		return Image{}, fmt.Errorf("image %s is %d bytes, over the %d byte cap", filepath.Base(path), st.Size(), e.cfg.MaxImageBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, err
	}
	mime := "image/png"
	switch constants.NormalizeExt(filepath.Ext(path)) {
	case "jpg", "jpeg":
		mime = "image/jpeg"
	}
	return Image{Name: filepath.Base(path), MIME: mime, Data: data}, nil
}

func (e *Extractor) tesseractArgs(path string) []string {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	// keep inter-word spacing so columns survive
	return append(args, "-c", "preserve_interword_spaces=1")
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string, logger *slog.Logger) (string, []string, error) {
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, logger, e.tesseractArgs(path)...)
	if err != nil {
		return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil, nil
}

// tesseractTSVConfidence runs tesseract in TSV mode and returns mean word conf in 0..1.
func (e *Extractor) tesseractTSVConfidence(ctx context.Context, path string, logger *slog.Logger) (float32, []string, error) {
	args := append(e.tesseractArgs(path), "tsv")
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, logger, args...)
	if err != nil {
		return 0, []string{string(errb)}, fmt.Errorf("tesseract tsv: %w", err)
	}
	return meanTSVConfidence(string(out)), nil, nil
}

// meanTSVConfidence averages the conf column of tesseract TSV output, skipping
// the header and non-word rows (conf -1).
func meanTSVConfidence(tsv string) float32 {
	var sum, n float64
	for i, ln := range strings.Split(tsv, "\n") {
		if i == 0 || ln == "" {
			continue
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		c := cols[10]
		if c == "" || c == "-1" {
			continue
		}
		if v, err := strconv.ParseFloat(c, 64); err == nil && v >= 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float32(sum / n / 100.0)
}
