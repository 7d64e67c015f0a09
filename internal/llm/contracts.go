package llm

import (
	"context"

	"github.com/joseph-ayodele/boxscore-tracker/internal/candidate"
	"github.com/joseph-ayodele/boxscore-tracker/internal/entity"
)

// Hint names the two teams a document is about and, optionally, its date.
type Hint struct {
	HomeTeamID int    `json:"home_team_id"`
	AwayTeamID int    `json:"away_team_id"`
	Date       string `json:"date,omitempty"` // YYYY-MM-DD
}

// Image is a page raster that may be attached to the request.
type Image struct {
	Name string
	MIME string
	Data []byte
}

type ExtractRequest struct {
	Text       string
	SourceName string
	Hint       Hint
	Roster     *entity.Roster

	PrepConfidence float32
	Images         []Image
}

// FieldExtractor turns normalized document content into a candidate record.
// It returns the raw JSON content the service produced alongside.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req ExtractRequest) (*candidate.Record, []byte, error)
}
