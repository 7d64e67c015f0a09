package ocr

import (
	"regexp"
	"strings"
)

var (
	reMinutesCol = regexp.MustCompile(`(?m)\bmin(s|utes)?\b`)
	reMadeAtt    = regexp.MustCompile(`\b\d{1,2}-\d{1,2}\b`)
	reTotals     = regexp.MustCompile(`(?m)^\s*(team\s+)?totals?\b`)
	reFinal      = regexp.MustCompile(`\b(final|score)\b.*\b\d{1,3}\b.*\b\d{1,3}\b|\b\d{2,3}\s*[-:]\s*\d{2,3}\b`)
)

// heuristicConfidence scores how much decoded text looks like a box score:
// a minutes column, made-attempted pairs, a totals row and a final score.
func heuristicConfidence(txt string) float32 {
	l := strings.ToLower(txt)
	score := float32(0.2)
	if reMinutesCol.MatchString(l) {
		score += 0.15
	}
	if n := len(reMadeAtt.FindAllString(l, -1)); n >= 6 {
		score += 0.25
	} else if n > 0 {
		score += 0.1
	}
	if reTotals.MatchString(l) {
		score += 0.2
	}
	if reFinal.MatchString(l) {
		score += 0.15
	}
	if len(txt) > 400 {
		score += 0.05
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// blend weighs the tesseract word confidence above the text heuristic.
func blend(ocrConf, heurConf float32) float32 {
	conf := heurConf
	if ocrConf > 0 {
		conf = 0.7*ocrConf + 0.3*heurConf
	}
	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}
