package llm

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/boxscore-tracker/constants"
	"github.com/joseph-ayodele/boxscore-tracker/internal/entity"
)

// maxPromptText bounds how much document text goes into the user message.
const maxPromptText = 12000

// BuildSystemPrompt composes the system message: the output contract, the
// roster the ids must come from and the numeric conventions.
func BuildSystemPrompt(req ExtractRequest, schema map[string]any) string {
	parts := []string{
		"You are a basketball box score parser. Return ONLY one JSON object that matches the JSON Schema below.",
		"The object has a 'game' object, a 'teams' array with exactly two rows (home first) and a 'players' array with one row per player who appears.",
		"Use ids from the roster only. Never invent players or teams; leave out a row you cannot match to a roster player.",
		"Counts are integers. Percentages are fractions between 0 and 1 (45.5% is 0.455). Minutes are decimals (12:30 is 12.5).",
		"Use ISO-8601 dates (YYYY-MM-DD). Set 'status' to 'final' for a completed game.",
		"Copy numbers exactly as printed; do not correct totals that do not add up.",
		"Never output null. If a value is not present, omit it.",
		"Optionally add 'confidence' (0..1) for the whole record and 'field_confidence' mapping paths like 'players[3].minutes' to 0..1.",
		"Roster:\n" + describeRoster(req.Roster, req.Hint),
	}
	if d := strings.TrimSpace(req.Hint.Date); d != "" {
		parts = append(parts, "The game was played on "+d+" unless the document clearly says otherwise.")
	}
	parts = append(parts, "JSON Schema:\n"+mustJSON(schema))
	return strings.Join(parts, "\n")
}

func describeRoster(r *entity.Roster, hint Hint) string {
	if r == nil {
		return "(none)"
	}
	var b strings.Builder
	for _, t := range r.Teams {
		role := ""
		switch t.ID {
		case hint.HomeTeamID:
			role = " [home]"
		case hint.AwayTeamID:
			role = " [away]"
		}
		fmt.Fprintf(&b, "team_id=%d %s", t.ID, t.Name)
		if t.Abbreviation != nil {
			fmt.Fprintf(&b, " (%s)", *t.Abbreviation)
		}
		b.WriteString(role)
		b.WriteString("\n")
		for _, p := range r.PlayersOf(t.ID) {
			fmt.Fprintf(&b, "  player_id=%d %s", p.ID, p.MediaName)
			if p.JerseyNumber != nil {
				fmt.Fprintf(&b, " #%d", *p.JerseyNumber)
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// BuildUserPrompt packages the document text. With images attached the text
// is still sent; the images only help where OCR went wrong.
func BuildUserPrompt(req ExtractRequest, imagesAttached bool) string {
	var b strings.Builder
	if name := strings.TrimSpace(req.SourceName); name != "" {
		b.WriteString("Source: ")
		b.WriteString(name)
		b.WriteString("\n")
	}
	text := strings.TrimSpace(req.Text)
	b.WriteString("\nBox score text:\n")
	if len(text) > maxPromptText {
		b.WriteString(text[:maxPromptText])
		b.WriteString("\n...(truncated)")
	} else {
		b.WriteString(text)
	}
	if imagesAttached {
		b.WriteString("\n\nPage images are attached. Prefer them where the text above looks garbled.")
	}
	return b.String()
}

// ShouldAttachImages reports whether page images go with the request: only
// when there are some and the text confidence is below the threshold.
func ShouldAttachImages(req ExtractRequest) bool {
	return len(req.Images) > 0 && req.PrepConfidence < constants.ImageConfidenceThreshold
}

// DataURL encodes an image for a chat content part.
func DataURL(img Image) string {
	mt := img.MIME
	if mt == "" {
		mt = "image/png"
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
