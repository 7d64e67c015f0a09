package server

import (
	"context"
	"encoding/base64"
	"log/slog"
	"path/filepath"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
	"github.com/joseph-ayodele/boxscore-tracker/internal/review"
	"github.com/joseph-ayodele/boxscore-tracker/internal/services/session"
	"github.com/joseph-ayodele/boxscore-tracker/internal/utils"
)

// ReviewService exposes review sessions over gRPC.
type ReviewService struct {
	svc    *session.Service
	logger *slog.Logger
}

func NewReviewService(svc *session.Service, logger *slog.Logger) *ReviewService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewService{svc: svc, logger: logger}
}

var _ ReviewServer = (*ReviewService)(nil)

func (s *ReviewService) view(v *review.View, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, common.ToStatus(err)
	}
	out, err := utils.ToStruct(v)
	if err != nil {
		s.logger.Error("grpc.encode.failed", "session_id", v.ID, "error", err)
		return nil, common.InternalErrorf("encode session: %v", err)
	}
	return out, nil
}

// StartSession takes {path, home, away, date?}.
func (s *ReviewService) StartSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.view(s.svc.Start(ctx, session.StartRequest{
		Path: utils.StringField(req, "path"),
		Home: utils.StringField(req, "home"),
		Away: utils.StringField(req, "away"),
		Date: utils.StringField(req, "date"),
	}))
}

func (s *ReviewService) GetSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.view(s.svc.Get(ctx, utils.StringField(req, "session_id")))
}

// Edit takes {session_id, path, value}; value keeps its JSON type.
func (s *ReviewService) Edit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	value, ok := utils.ValueField(req, "value")
	if !ok {
		return nil, common.InvalidArgumentError("value is required")
	}
	return s.view(s.svc.Edit(ctx, session.EditRequest{
		SessionID: utils.StringField(req, "session_id"),
		Path:      utils.StringField(req, "path"),
		Value:     value,
	}))
}

// AddRow takes {session_id, section} and answers the session plus "row",
// the path of the new empty row.
func (s *ReviewService) AddRow(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	v, path, err := s.svc.AddRow(ctx, utils.StringField(req, "session_id"), utils.StringField(req, "section"))
	out, err := s.view(v, err)
	if err != nil {
		return nil, err
	}
	out.Fields["row"] = structpb.NewStringValue(path)
	return out, nil
}

// RemoveRow takes {session_id, path}.
func (s *ReviewService) RemoveRow(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.view(s.svc.RemoveRow(ctx, utils.StringField(req, "session_id"), utils.StringField(req, "path")))
}

// Override takes {session_id, finding_ids, reviewer, note?}.
func (s *ReviewService) Override(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.view(s.svc.Override(ctx, session.OverrideRequest{
		SessionID:  utils.StringField(req, "session_id"),
		FindingIDs: utils.StringsField(req, "finding_ids"),
		Reviewer:   utils.StringField(req, "reviewer"),
		Note:       utils.StringField(req, "note"),
	}))
}

// Commit takes {session_id, replace?}.
func (s *ReviewService) Commit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.view(s.svc.Commit(ctx, utils.StringField(req, "session_id"), utils.BoolField(req, "replace")))
}

func (s *ReviewService) Abandon(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.view(s.svc.Abandon(ctx, utils.StringField(req, "session_id")))
}

func (s *ReviewService) ListSessions(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	out, err := utils.ToStruct(map[string]any{"sessions": s.svc.List(ctx)})
	if err != nil {
		return nil, common.InternalErrorf("encode sessions: %v", err)
	}
	return out, nil
}

// ExportWorkbook returns the review workbook base64-encoded under "xlsx".
func (s *ReviewService) ExportWorkbook(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := utils.StringField(req, "session_id")
	data, err := s.svc.Workbook(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	v, err := s.svc.Get(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	name := "session-" + v.ID + ".review.xlsx"
	if v.Record != nil && v.Record.Meta.SourceName != "" {
		base := filepath.Base(v.Record.Meta.SourceName)
		name = strings.TrimSuffix(base, filepath.Ext(base)) + ".review.xlsx"
	}
	return structpb.NewStruct(map[string]any{
		"session_id": v.ID,
		"filename":   name,
		"xlsx":       base64.StdEncoding.EncodeToString(data),
	})
}
