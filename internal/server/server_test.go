package server_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/joseph-ayodele/boxscore-tracker/constants"
	"github.com/joseph-ayodele/boxscore-tracker/internal/candidate"
	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
	"github.com/joseph-ayodele/boxscore-tracker/internal/core"
	"github.com/joseph-ayodele/boxscore-tracker/internal/extract"
	"github.com/joseph-ayodele/boxscore-tracker/internal/llm"
	"github.com/joseph-ayodele/boxscore-tracker/internal/repository"
	"github.com/joseph-ayodele/boxscore-tracker/internal/server"
	"github.com/joseph-ayodele/boxscore-tracker/internal/services/session"
	"github.com/joseph-ayodele/boxscore-tracker/internal/testsupport"
)

type harness struct {
	app    *core.App
	client *server.ReviewClient
	conn   *grpc.ClientConn
	fields *testsupport.FakeFields
	file   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	cfg := testsupport.NewConfig(t)
	h := &harness{}
	h.fields = &testsupport.FakeFields{Fn: func(llm.ExtractRequest) (*candidate.Record, error) {
		return nil, common.NewExtractionFailure("no record configured", false, nil)
	}}
	text := &testsupport.FakeText{Result: extract.TextExtractionResult{Text: "box", Method: "pdf-text", Format: constants.PDF, Confidence: 0.9}}

	app, err := core.Open(ctx, cfg, testsupport.Logger(t), core.WithTextExtractor(text), core.WithFieldExtractor(h.fields))
	require.NoError(t, err)
	t.Cleanup(app.Close)
	h.app = app

	league := testsupport.MustSeedLeague(t, app.DB)
	h.fields.Fn = func(llm.ExtractRequest) (*candidate.Record, error) {
		rec := testsupport.CleanRecord(league.Roster)
		rec.Players[0]["points"].Value = 18.0
		rec.Players[0]["minutes"].Value = 45.0
		return rec, nil
	}

	lis := bufconn.Listen(1 << 20)
	srv := server.New(server.NewReviewService(session.NewService(app.Processor, app.Exporter, app.Logger), app.Logger), app.Logger)
	sctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(sctx, lis)
	}()
	t.Cleanup(func() { cancel(); <-done })

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	h.conn = conn
	h.client = server.NewReviewClient(conn)

	h.file = filepath.Join(t.TempDir(), "final.pdf")
	require.NoError(t, os.WriteFile(h.file, []byte("%PDF box score"), 0o600))
	return h
}

func (h *harness) call(t *testing.T, method string, req map[string]any) map[string]any {
	t.Helper()
	out, err := h.client.Call(context.Background(), method, req)
	require.NoError(t, err, method)
	return out
}

func outstanding(v map[string]any) []any {
	list, _ := v["outstanding"].([]any)
	return list
}

func TestReviewServiceFixOverrideCommit(t *testing.T) {
	h := newHarness(t)

	v := h.call(t, server.MethodStartSession, map[string]any{"path": h.file, "home": "harbor hawks", "away": "SUM", "date": "2024-06-01"})
	id := v["id"].(string)
	assert.Equal(t, "REVIEWING", v["state"])
	assert.ElementsMatch(t, []any{"minutes_max@players[0].minutes", "score_player_sum@teams[0]"}, outstanding(v))

	v = h.call(t, server.MethodEdit, map[string]any{"session_id": id, "path": "players[2].points", "value": 12})
	assert.Equal(t, []any{"minutes_max@players[0].minutes"}, outstanding(v))

	_, err := h.client.Call(context.Background(), server.MethodCommit, map[string]any{"session_id": id})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	v = h.call(t, server.MethodOverride, map[string]any{"session_id": id, "finding_ids": []any{"minutes_max@players[0].minutes"}, "reviewer": "sam", "note": "double overtime"})
	assert.Equal(t, "OVERRIDDEN", v["state"])

	v = h.call(t, server.MethodCommit, map[string]any{"session_id": id})
	assert.Equal(t, "COMMITTED", v["state"])
	result := v["result"].(map[string]any)
	gameID := int(result["game_id"].(float64))

	detail, err := repository.NewGameRepository(h.app.DB, nil).GetGameDetail(context.Background(), gameID)
	require.NoError(t, err)
	require.Len(t, detail.Audits, 1)
	assert.Equal(t, "sam", detail.Audits[0].Reviewer)

	list := h.call(t, server.MethodListSessions, map[string]any{})
	sessions := list["sessions"].([]any)
	require.Len(t, sessions, 1)
	assert.Equal(t, "COMMITTED", sessions[0].(map[string]any)["state"])
}

func TestReviewServiceRows(t *testing.T) {
	h := newHarness(t)

	v := h.call(t, server.MethodStartSession, map[string]any{"path": h.file, "home": "HAW", "away": "SUM"})
	id := v["id"].(string)

	v = h.call(t, server.MethodAddRow, map[string]any{"session_id": id, "section": "players"})
	assert.Equal(t, "players[10]", v["row"])
	assert.Contains(t, outstanding(v), "required@players[10].player_id")

	v = h.call(t, server.MethodRemoveRow, map[string]any{"session_id": id, "path": "players[10]"})
	assert.NotContains(t, outstanding(v), "required@players[10].player_id")
	players := v["record"].(map[string]any)["players"].([]any)
	assert.Len(t, players, 10)

	_, err := h.client.Call(context.Background(), server.MethodAddRow, map[string]any{"session_id": id, "section": "game"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	_, err = h.client.Call(context.Background(), server.MethodRemoveRow, map[string]any{"session_id": id, "path": "players[0].points"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestReviewServiceErrorCodes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	v := h.call(t, server.MethodStartSession, map[string]any{"path": h.file, "home": "HAW", "away": "SUM"})
	id := v["id"].(string)

	tests := []struct {
		name   string
		method string
		req    map[string]any
		want   codes.Code
	}{
		{"missing session", server.MethodGetSession, map[string]any{"session_id": "nope"}, codes.NotFound},
		{"no session id", server.MethodGetSession, map[string]any{}, codes.InvalidArgument},
		{"bad path", server.MethodEdit, map[string]any{"session_id": id, "path": "players[99].points", "value": 1}, codes.InvalidArgument},
		{"no value", server.MethodEdit, map[string]any{"session_id": id, "path": "players[0].points"}, codes.InvalidArgument},
		{"unknown finding", server.MethodOverride, map[string]any{"session_id": id, "finding_ids": []any{"winner@game"}, "reviewer": "sam"}, codes.InvalidArgument},
		{"no reviewer", server.MethodOverride, map[string]any{"session_id": id, "finding_ids": []any{"minutes_max@players[0].minutes"}}, codes.InvalidArgument},
		{"not committable", server.MethodCommit, map[string]any{"session_id": id}, codes.FailedPrecondition},
		{"missing start args", server.MethodStartSession, map[string]any{"path": h.file}, codes.InvalidArgument},
		{"unknown team", server.MethodStartSession, map[string]any{"path": h.file, "home": "Nobody", "away": "SUM"}, codes.NotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.client.Call(ctx, tt.method, tt.req)
			assert.Equal(t, tt.want, status.Code(err), err)
		})
	}

	h.fields.Fn = func(llm.ExtractRequest) (*candidate.Record, error) {
		return nil, common.NewExtractionFailure("timed out", true, nil)
	}
	_, err := h.client.Call(ctx, server.MethodStartSession, map[string]any{"path": h.file, "home": "HAW", "away": "SUM"})
	assert.Equal(t, codes.Unavailable, status.Code(err))

	v = h.call(t, server.MethodAbandon, map[string]any{"session_id": id})
	assert.Equal(t, "ABANDONED", v["state"])
	_, err = h.client.Call(ctx, server.MethodGetSession, map[string]any{"session_id": id})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestReviewServiceExportWorkbook(t *testing.T) {
	h := newHarness(t)
	v := h.call(t, server.MethodStartSession, map[string]any{"path": h.file, "home": "HAW", "away": "SUM"})

	out := h.call(t, server.MethodExportWorkbook, map[string]any{"session_id": v["id"]})
	assert.Equal(t, "final.review.xlsx", out["filename"])
	data, err := base64.StdEncoding.DecodeString(out["xlsx"].(string))
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Findings")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	resp, err := healthpb.NewHealthClient(h.conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: server.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
