package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/boxscore-tracker/internal/candidate"
	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
	"github.com/joseph-ayodele/boxscore-tracker/internal/llm"
)

type chatRequest struct {
	Model          string            `json:"model"`
	Temperature    float32           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
	Messages       []chatMessage     `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []contentPart
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ExtractFields implements llm.FieldExtractor over chat/completions in JSON
// mode. Transport failures are retried under the client policy; a response
// that decodes but breaks the schema comes back as a low-confidence record.
func (c *Client) ExtractFields(ctx context.Context, req llm.ExtractRequest) (*candidate.Record, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()
	logger := common.LoggerWith(ctx, c.logger).With("req_id", rid)

	attach := llm.ShouldAttachImages(req)
	logger.Info("llm.extract.start",
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.Text),
		"prep_confidence", req.PrepConfidence,
		"images", len(req.Images),
		"attach_images", attach,
	)

	schemaMap := llm.BuildBoxScoreSchema(req.Roster)
	schema, err := llm.CompileSchema(schemaMap)
	if err != nil {
		return nil, nil, common.NewExtractionFailure("build schema", false, err)
	}
	body := chatRequest{
		Model:          c.cfg.Model,
		Temperature:    c.cfg.Temperature,
		ResponseFormat: map[string]string{"type": "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: llm.BuildSystemPrompt(req, schemaMap)},
			{Role: "user", Content: userContent(req, attach)},
		},
	}

	var content string
	attempts, err := c.policy.Do(ctx, logger, "llm.extract", func(ctx context.Context, attempt int) error {
		var callErr error
		content, callErr = c.complete(ctx, body)
		if callErr != nil {
			logger.Warn("llm.extract.attempt_failed", "attempt", attempt, "error", callErr)
		}
		return callErr
	})
	if err != nil {
		transient := llm.Transient(err) && ctx.Err() == nil
		logger.Error("llm.extract.failed",
			"attempts", attempts,
			"transient", transient,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		fe := common.NewExtractionFailure("extraction service call failed", transient, err)
		fe.Attempts = attempts
		return nil, nil, fe
	}

	raw := []byte(content)
	rec, err := llm.ParseCandidate(content, schema, logger)
	if err != nil {
		logger.Error("llm.extract.decode_error",
			"error", err,
			"content", llm.Snippet(content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		fe := common.NewExtractionFailure("malformed service response", false, err)
		fe.Attempts = attempts
		return nil, raw, fe
	}
	rec.Meta.Model = c.cfg.Model

	logger.Info("llm.extract.ok",
		"attempts", attempts,
		"teams", len(rec.Teams),
		"players", len(rec.Players),
		"schema_errors", len(rec.Meta.SchemaErrors),
		"dropped_keys", len(rec.Meta.DroppedKeys),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, raw, nil
}

func userContent(req llm.ExtractRequest, attach bool) any {
	text := llm.BuildUserPrompt(req, attach) + "\n\nReturn ONLY JSON that matches the provided schema."
	if !attach {
		return text
	}
	parts := []contentPart{{Type: "text", Text: text}}
	for _, img := range req.Images {
		parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: llm.DataURL(img)}})
	}
	return parts
}

// complete makes one call and returns the message content.
func (c *Client) complete(ctx context.Context, body chatRequest) (string, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return "", llm.Permanent(fmt.Errorf("marshal request: %w", err))
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return "", llm.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Warn("llm.http.response_body_close_error", "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read openai response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &llm.StatusError{
			StatusCode: resp.StatusCode,
			Body:       string(raw),
			RetryAfter: llm.ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var cc chatResponse
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", llm.Permanent(fmt.Errorf("decode openai response: %w", err))
	}
	if cc.Error != nil {
		return "", llm.Permanent(fmt.Errorf("openai api error: %s", cc.Error.Message))
	}
	if len(cc.Choices) == 0 {
		return "", llm.Permanent(errors.New("no choices in openai response"))
	}
	msg := cc.Choices[0].Message
	if r := strings.TrimSpace(msg.Refusal); r != "" {
		return "", llm.Permanent(fmt.Errorf("model refused: %s", llm.Snippet(r)))
	}
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return "", llm.Permanent(fmt.Errorf("empty content (finish_reason=%q)", cc.Choices[0].FinishReason))
	}
	return content, nil
}
