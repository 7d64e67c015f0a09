package ocr_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
	"github.com/joseph-ayodele/boxscore-tracker/internal/ocr"
	"github.com/joseph-ayodele/boxscore-tracker/internal/testsupport"
)

const boxText = "HAWKS 58  OWLS 56   FINAL\n" +
	"PLAYER        MIN  FG    3PT  FT   REB PTS\n" +
	"A. Reed        30  10-20 0-2  0-0  3   20\n" +
	"B. Cole        30  6-12  0-1  0-0  4   12\n" +
	"C. Ward        30  5-10  0-0  0-0  5   10\n" +
	"D. Park        30  4-8   0-0  0-0  6    8\n" +
	"E. Lund        30  4-8   0-0  0-0  7    8\n" +
	"TOTALS        150  29-58 0-3  0-0 25   58\n"

type call struct {
	name string
	args []string
}

// stubRunner answers commands from a table keyed by binary name.
type stubRunner struct {
	calls []call
	out   map[string]string
	fail  map[string]bool
	// pages pdftoppm writes under the output prefix
	pages int
}

func (s *stubRunner) Run(_ context.Context, name string, _ *slog.Logger, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, call{name, args})
	if s.fail[name] {
		return nil, []byte(name + " exploded"), errors.New("exit status 1")
	}
	if name == "pdftoppm" {
		prefix := args[len(args)-1]
		for i := 1; i <= s.pages; i++ {
			p := prefix + "-" + string(rune('0'+i)) + ".png"
			if err := os.WriteFile(p, []byte("\x89PNG fake"), 0o600); err != nil {
				return nil, nil, err
			}
		}
	}
	return []byte(s.out[name]), nil, nil
}

func (s *stubRunner) called(name string) int {
	n := 0
	for _, c := range s.calls {
		if c.name == name {
			n++
		}
	}
	return n
}

func writeInput(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte("input"), 0o600))
	return p
}

func TestExtractPDFTextLayer(t *testing.T) {
	r := &stubRunner{out: map[string]string{"pdftotext": boxText + "\f"}}
	ex := ocr.NewExtractor(ocr.Config{}, testsupport.Logger(t), ocr.WithRunner(r))

	res, err := ex.Extract(context.Background(), writeInput(t, "game.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "pdf-text", res.Method)
	assert.Equal(t, 1, res.Pages)
	assert.Contains(t, res.Text, "TOTALS")
	assert.GreaterOrEqual(t, res.Confidence, float32(0.6))
	assert.Zero(t, r.called("tesseract"))
	assert.Empty(t, res.Images)
}

func TestExtractScannedPDFFallsBackToOCR(t *testing.T) {
	r := &stubRunner{
		out:   map[string]string{"pdftotext": "\f", "tesseract": boxText},
		pages: 2,
	}
	ex := ocr.NewExtractor(ocr.Config{}, testsupport.Logger(t), ocr.WithRunner(r))

	res, err := ex.Extract(context.Background(), writeInput(t, "scan.PDF"))
	require.NoError(t, err)
	assert.Equal(t, "pdf-ocr", res.Method)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, 2, r.called("tesseract"))
	require.Len(t, res.Images, 2)
	assert.Equal(t, "image/png", res.Images[0].MIME)
	assert.Contains(t, res.Text, "A. Reed")
}

func TestExtractPDFKeepsTextWhenOCRFails(t *testing.T) {
	r := &stubRunner{
		out:  map[string]string{"pdftotext": "Hawks 58 Owls 56"},
		fail: map[string]bool{"pdftoppm": true},
	}
	ex := ocr.NewExtractor(ocr.Config{}, testsupport.Logger(t), ocr.WithRunner(r))

	res, err := ex.Extract(context.Background(), writeInput(t, "thin.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "pdf-text", res.Method)
	assert.Equal(t, "Hawks 58 Owls 56", res.Text)
	assert.NotEmpty(t, res.Warnings)
}

func TestExtractImageWithTSVConfidence(t *testing.T) {
	tsv := "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
		"1\t1\t0\t0\t0\t0\t0\t0\t100\t100\t-1\t\n" +
		"5\t1\t1\t1\t1\t1\t0\t0\t10\t10\t90\tHAWKS\n" +
		"5\t1\t1\t1\t1\t2\t0\t0\t10\t10\t70\t58\n"
	r := &tsvRunner{stubRunner: stubRunner{out: map[string]string{"tesseract": boxText}}, tsv: tsv}
	ex := ocr.NewExtractor(ocr.Config{EnableTSVConfidence: true}, testsupport.Logger(t), ocr.WithRunner(r))

	res, err := ex.Extract(context.Background(), writeInput(t, "photo.png"))
	require.NoError(t, err)
	assert.Equal(t, "image-ocr", res.Method)
	// words average 0.8, the text heuristic scores 0.95
	assert.InDelta(t, 0.845, res.Confidence, 0.001)
	require.Len(t, res.Images, 1)
	assert.Equal(t, "photo.png", res.Images[0].Name)
}

// tsvRunner returns TSV when tesseract is asked for it.
type tsvRunner struct {
	stubRunner
	tsv string
}

func (r *tsvRunner) Run(ctx context.Context, name string, logger *slog.Logger, args ...string) ([]byte, []byte, error) {
	if name == "tesseract" && args[len(args)-1] == "tsv" {
		return []byte(r.tsv), nil, nil
	}
	return r.stubRunner.Run(ctx, name, logger, args...)
}

func TestExtractHEICUsesCache(t *testing.T) {
	cache := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cache, "abc123.png"), []byte("png"), 0o600))
	r := &stubRunner{out: map[string]string{"tesseract": boxText}}
	ex := ocr.NewExtractor(ocr.Config{HeicConverter: "magick", ArtifactCacheDir: cache}, testsupport.Logger(t), ocr.WithRunner(r))

	ctx := ocr.WithContentHash(context.Background(), "abc123")
	res, err := ex.Extract(ctx, writeInput(t, "photo.heic"))
	require.NoError(t, err)
	assert.Zero(t, r.called("magick"))
	require.Len(t, r.calls, 1)
	assert.Equal(t, filepath.Join(cache, "abc123.png"), r.calls[0].args[0])
	assert.Equal(t, "image-ocr", res.Method)
}

func TestExtractHEICWithoutConverter(t *testing.T) {
	ex := ocr.NewExtractor(ocr.Config{}, testsupport.Logger(t), ocr.WithRunner(&stubRunner{}))
	_, err := ex.Extract(context.Background(), writeInput(t, "photo.heic"))
	assert.ErrorContains(t, err, "HEIC not supported")
}

func TestExtractUnsupported(t *testing.T) {
	r := &stubRunner{}
	ex := ocr.NewExtractor(ocr.Config{}, testsupport.Logger(t), ocr.WithRunner(r))
	_, err := ex.Extract(context.Background(), writeInput(t, "notes.docx"))
	assert.ErrorIs(t, err, common.ErrUnsupportedFormat)
	assert.Empty(t, r.calls)
}

func TestNormalize(t *testing.T) {
	in := "Hawks\t58\r\n|||||\r\n\r\n\r\n\r\nOwls  56   \f\n"
	assert.Equal(t, "Hawks    58\n\nOwls  56", ocr.Normalize(in))
}
