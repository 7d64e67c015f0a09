package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/boxscore-tracker/internal/candidate"
)

// DecodeJSON decodes JSON from a model response, handling common formatting quirks.
func DecodeJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}
	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}

	// strip code fences, cut to the outermost object
	sanitized := sanitizeJSONPayload(trimmed)
	if sanitized == "" || sanitized == trimmed {
		return fmt.Errorf("%w (payload snippet: %s)", directErr, Snippet(trimmed))
	}
	if err := json.Unmarshal([]byte(sanitized), target); err != nil {
		return fmt.Errorf("%w (sanitized payload snippet: %s)", err, Snippet(sanitized))
	}
	return nil
}

func sanitizeJSONPayload(content string) string {
	trimmed := strings.TrimSpace(stripCodeFenceBlock(content))
	if trimmed == "" {
		return ""
	}
	if trimmed[0] == '{' {
		return trimmed
	}
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return trimmed
}

func stripCodeFenceBlock(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := strings.TrimLeft(trimmed[3:], " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

// Snippet flattens and shortens content for log lines and error messages.
func Snippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	clean := strings.Join(strings.Fields(trimmed), " ")
	const limit = 160
	if runes := []rune(clean); len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}

// DropNulls removes null values from the response sections so they read as
// absent fields. It returns the paths it dropped.
func DropNulls(obj map[string]any) []string {
	var dropped []string
	clean := func(section string, idx int, m map[string]any) {
		for k, v := range m {
			if v == nil {
				delete(m, k)
				dropped = append(dropped, candidate.Path{Section: section, Index: idx, Field: k}.String())
			}
		}
	}
	if g, ok := obj[candidate.SectionGame].(map[string]any); ok {
		clean(candidate.SectionGame, -1, g)
	}
	for _, key := range []string{candidate.SectionTeams, candidate.SectionPlayers} {
		rows, _ := obj[key].([]any)
		for i, row := range rows {
			if m, ok := row.(map[string]any); ok {
				clean(key, i, m)
			}
		}
	}
	sort.Strings(dropped)
	return dropped
}

// ParseCandidate decodes service content into a candidate record. Content
// that is not a JSON object, or carries none of the record sections, is an
// error. Schema complaints are not: they lower the confidence of the fields
// they name and mark the record low-confidence.
func ParseCandidate(content string, schema *jsonschema.Schema, logger *slog.Logger) (*candidate.Record, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var obj map[string]any
	if err := DecodeJSON(content, &obj); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	if obj == nil {
		return nil, errors.New("decode content: not a JSON object")
	}
	nulls := DropNulls(obj)

	schemaErrs, err := SchemaErrors(schema, obj)
	if err != nil {
		return nil, err
	}
	rec, err := candidate.FromResponse(obj)
	if err != nil {
		return nil, err
	}
	if len(nulls) > 0 {
		logger.Debug("llm.extract.nulls_dropped", "paths", nulls)
	}
	if len(rec.Meta.DroppedKeys) > 0 {
		logger.Warn("llm.extract.unknown_keys_dropped", "keys", rec.Meta.DroppedKeys)
	}
	if len(schemaErrs) > 0 {
		logger.Warn("llm.extract.schema_violations", "count", len(schemaErrs), "first", schemaErrs[0].Path)
		rec.MarkSchemaErrors(schemaErrs)
	}
	return rec, nil
}
