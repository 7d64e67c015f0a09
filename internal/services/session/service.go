package session

import (
	"context"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/boxscore-tracker/internal/candidate"
	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
	"github.com/joseph-ayodele/boxscore-tracker/internal/export"
	"github.com/joseph-ayodele/boxscore-tracker/internal/pipeline"
	"github.com/joseph-ayodele/boxscore-tracker/internal/review"
)

// Service handles review session business logic for remote reviewers.
type Service struct {
	proc     *pipeline.Processor
	sessions *review.Manager
	exporter *export.Service
	logger   *slog.Logger
}

// NewService creates a new session service over the processor's session manager.
func NewService(proc *pipeline.Processor, exporter *export.Service, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if exporter == nil {
		exporter = export.NewService(logger)
	}
	return &Service{proc: proc, sessions: proc.Sessions, exporter: exporter, logger: logger}
}

// StartRequest names a document on the server plus the matchup hint.
type StartRequest struct {
	Path string
	Home string
	Away string
	Date string
}

// Start extracts the document and opens a session already in review.
func (s *Service) Start(ctx context.Context, req StartRequest) (*review.View, error) {
	v := common.NewValidator()
	v.Field("path", req.Path, common.Required)
	v.Field("home", req.Home, common.Required)
	v.Field("away", req.Away, common.Required)
	if strings.TrimSpace(req.Date) != "" {
		v.Field("date", req.Date, common.Date)
	}
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}

	sess, err := s.proc.Process(ctx, pipeline.Upload{
		Path: strings.TrimSpace(req.Path),
		Home: req.Home,
		Away: req.Away,
		Date: strings.TrimSpace(req.Date),
	})
	if err != nil {
		return nil, err
	}
	if _, err := sess.StartReview(); err != nil {
		return nil, err
	}
	return sess.View(), nil
}

func (s *Service) session(id string) (*review.Session, error) {
	if strings.TrimSpace(id) == "" {
		return nil, common.InvalidArgumentError("session_id is required")
	}
	return s.sessions.Get(strings.TrimSpace(id))
}

func (s *Service) Get(_ context.Context, id string) (*review.View, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	return sess.View(), nil
}

// EditRequest sets one field. Value keeps the caller's JSON type.
type EditRequest struct {
	SessionID string
	Path      string
	Value     any
}

func (s *Service) Edit(ctx context.Context, req EditRequest) (*review.View, error) {
	sess, err := s.session(req.SessionID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Path) == "" {
		return nil, common.InvalidArgumentError("path is required")
	}
	if _, err := sess.Edit(strings.TrimSpace(req.Path), req.Value); err != nil {
		common.LoggerWith(common.WithSessionID(ctx, sess.ID()), s.logger).Info("session.edit.rejected", "path", req.Path, "error", err)
		return nil, err
	}
	return sess.View(), nil
}

// AddRow appends an empty row to section and returns the session with the
// new row's path.
func (s *Service) AddRow(ctx context.Context, id, section string) (*review.View, string, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, "", err
	}
	v := common.NewValidator()
	v.Field("section", strings.TrimSpace(section), common.Required, common.OneOf(candidate.SectionTeams, candidate.SectionPlayers))
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, "", err
	}
	path, _, err := sess.AddRow(strings.TrimSpace(section))
	if err != nil {
		return nil, "", err
	}
	return sess.View(), path, nil
}

// RemoveRow deletes the row at path, such as players[3].
func (s *Service) RemoveRow(ctx context.Context, id, path string) (*review.View, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(path) == "" {
		return nil, common.InvalidArgumentError("path is required")
	}
	if _, err := sess.RemoveRow(strings.TrimSpace(path)); err != nil {
		common.LoggerWith(common.WithSessionID(ctx, sess.ID()), s.logger).Info("session.remove.rejected", "path", path, "error", err)
		return nil, err
	}
	return sess.View(), nil
}

type OverrideRequest struct {
	SessionID  string
	FindingIDs []string
	Reviewer   string
	Note       string
}

func (s *Service) Override(_ context.Context, req OverrideRequest) (*review.View, error) {
	sess, err := s.session(req.SessionID)
	if err != nil {
		return nil, err
	}
	v := common.NewValidator()
	v.Field("reviewer", req.Reviewer, common.Required)
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	if _, err := sess.Override(req.FindingIDs, strings.TrimSpace(req.Reviewer), strings.TrimSpace(req.Note)); err != nil {
		return nil, err
	}
	return sess.View(), nil
}

// Commit writes the session's record. Replace re-imports over a game that
// already has a final box score.
func (s *Service) Commit(ctx context.Context, id string, replace bool) (*review.View, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	if replace {
		sess.SetReplace(true)
	}
	if _, err := sess.Commit(ctx); err != nil {
		return nil, err
	}
	return sess.View(), nil
}

func (s *Service) Abandon(_ context.Context, id string) (*review.View, error) {
	if strings.TrimSpace(id) == "" {
		return nil, common.InvalidArgumentError("session_id is required")
	}
	sess, err := s.sessions.Get(strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Abandon(sess.ID()); err != nil {
		return nil, err
	}
	return sess.View(), nil
}

func (s *Service) List(context.Context) []review.Summary {
	return s.sessions.List()
}

// Workbook renders the session as a review workbook.
func (s *Service) Workbook(_ context.Context, id string) ([]byte, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	return s.exporter.ReviewWorkbook(sess.View())
}
