package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
	"github.com/joseph-ayodele/boxscore-tracker/internal/entity"
	"github.com/joseph-ayodele/boxscore-tracker/internal/llm"
	"github.com/joseph-ayodele/boxscore-tracker/internal/repository"
	"github.com/joseph-ayodele/boxscore-tracker/internal/review"
)

// Upload is one document plus the caller's hint about the game.
type Upload struct {
	Path string
	Home string // team id, name or abbreviation
	Away string
	Date string // optional, YYYY-MM-DD
}

// Processor coordinates the input stage, then the extract stage, and opens
// a review session over the result.
type Processor struct {
	Logger   *slog.Logger
	Input    *InputStage
	Extract  *ExtractStage
	Teams    repository.TeamRepository
	Sessions *review.Manager
	// Review is the session template; Roster is filled per upload.
	Review review.Deps
}

func NewProcessor(logger *slog.Logger, input *InputStage, extract *ExtractStage, teams repository.TeamRepository, sessions *review.Manager, deps review.Deps) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if sessions == nil {
		sessions = review.NewManager(logger)
	}
	return &Processor{Logger: logger, Input: input, Extract: extract, Teams: teams, Sessions: sessions, Review: deps}
}

// ResolveHint looks up both teams and loads their roster.
func (p *Processor) ResolveHint(ctx context.Context, up Upload) (llm.Hint, *entity.Roster, error) {
	if up.Date != "" {
		if _, err := time.Parse("2006-01-02", up.Date); err != nil {
			return llm.Hint{}, nil, fmt.Errorf("date %q is not YYYY-MM-DD: %w", up.Date, common.ErrInvalidInput)
		}
	}
	home, err := p.Teams.FindTeam(ctx, up.Home)
	if err != nil {
		return llm.Hint{}, nil, fmt.Errorf("home team: %w", err)
	}
	away, err := p.Teams.FindTeam(ctx, up.Away)
	if err != nil {
		return llm.Hint{}, nil, fmt.Errorf("away team: %w", err)
	}
	if home.ID == away.ID {
		return llm.Hint{}, nil, fmt.Errorf("home and away are both %s: %w", home.Name, common.ErrInvalidInput)
	}
	roster, err := p.Teams.Roster(ctx, home.ID, away.ID)
	if err != nil {
		return llm.Hint{}, nil, fmt.Errorf("load roster: %w", err)
	}
	return llm.Hint{HomeTeamID: home.ID, AwayTeamID: away.ID, Date: up.Date}, roster, nil
}

// Process runs one upload through extraction and returns its open session.
// Nothing is written to the store.
func (p *Processor) Process(ctx context.Context, up Upload) (*review.Session, error) {
	start := time.Now()
	logger := common.LoggerWith(ctx, p.Logger).With("path", up.Path)

	hint, roster, err := p.ResolveHint(ctx, up)
	if err != nil {
		logger.Warn("processor.hint.failed", "error", err)
		return nil, err
	}
	doc, err := p.Input.Run(ctx, up.Path)
	if err != nil {
		return nil, err
	}
	rec, err := p.Extract.Run(ctx, doc, roster, hint)
	if err != nil {
		return nil, err
	}

	deps := p.Review
	deps.Roster = roster
	sess := p.Sessions.Open(rec, deps)
	v := sess.View()
	logger.Info("processor.session.open",
		"session_id", sess.ID(),
		"violations", len(v.Violations),
		"warnings", len(v.Warnings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return sess, nil
}
