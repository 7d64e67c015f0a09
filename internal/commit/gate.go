package commit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/boxscore-tracker/constants"
	"github.com/joseph-ayodele/boxscore-tracker/internal/candidate"
	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
	"github.com/joseph-ayodele/boxscore-tracker/internal/consistency"
	"github.com/joseph-ayodele/boxscore-tracker/internal/entity"
	"github.com/joseph-ayodele/boxscore-tracker/internal/repository"
	"github.com/joseph-ayodele/boxscore-tracker/internal/validator"
)

// Override is a finding a reviewer accepted by id. Fingerprint pins the
// values the reviewer saw; it stops applying once they change.
type Override struct {
	FindingID   string    `json:"finding_id"`
	Fingerprint string    `json:"fingerprint"`
	Kind        string    `json:"kind"`
	Message     string    `json:"message"`
	Reviewer    string    `json:"reviewer"`
	Note        string    `json:"note,omitempty"`
	AcceptedAt  time.Time `json:"accepted_at"`
}

func fingerprint(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:8])
}

// ViolationFingerprint hashes the rule, value and message of v.
func ViolationFingerprint(v validator.Violation) string {
	return fingerprint(v.ID, v.Rule, fmt.Sprint(v.Value), v.Message)
}

// WarningFingerprint hashes the expected and actual numbers of w.
func WarningFingerprint(w consistency.Warning) string {
	return fingerprint(w.ID, w.Kind, strconv.Itoa(w.Expected), strconv.Itoa(w.Actual), w.Message)
}

// Request is one record handed to the gate.
type Request struct {
	Record    *candidate.Record
	Roster    *entity.Roster
	State     constants.SessionState
	Overrides []Override
	Replace   bool
}

// Gate is the only writer of box scores. It re-checks the record it is given
// and writes it through the repository in one transaction.
type Gate struct {
	boxscores   repository.BoxScoreRepository
	limits      validator.Limits
	consistency consistency.Config
	logger      *slog.Logger
}

func NewGate(boxscores repository.BoxScoreRepository, limits validator.Limits, cfg consistency.Config, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		boxscores:   boxscores,
		limits:      limits,
		consistency: cfg,
		logger:      logger,
	}
}

// arithmetic warning kinds the store verifies again after writing
var verifiedKinds = map[string]bool{
	consistency.KindPlayerSum:      true,
	consistency.KindScoreTeamTotal: true,
	consistency.KindScorePlayerSum: true,
	consistency.KindWinner:         true,
}

func (g *Gate) Commit(ctx context.Context, req *Request) (*repository.CommitResult, error) {
	logger := common.LoggerWith(ctx, g.logger)
	if req == nil || req.Record == nil {
		return nil, fmt.Errorf("%w: no record", common.ErrNotCommittable)
	}
	if !req.State.Committable() {
		return nil, fmt.Errorf("%w: session is %s", common.ErrNotCommittable, req.State)
	}

	violations := validator.Validate(req.Record, req.Roster, g.limits)
	if blocking := validator.BlockingOnly(violations); len(blocking) > 0 {
		logger.Warn("commit.gate.blocked", "blocking", len(blocking), "first", blocking[0].ID)
		for _, v := range blocking {
			if v.Rule == validator.RuleOwnership {
				return nil, common.NewOwnershipFailure(v.Message)
			}
		}
		return nil, fmt.Errorf("%w: %d blocking violations, first %s", common.ErrNotCommittable, len(blocking), blocking[0].ID)
	}

	accepted := make(map[string]string, len(req.Overrides))
	for _, o := range req.Overrides {
		accepted[o.FindingID] = o.Fingerprint
	}
	warnings := consistency.Check(req.Record, g.consistency)
	var outstanding []string
	for _, v := range violations {
		if fp, ok := accepted[v.ID]; !ok || fp != ViolationFingerprint(v) {
			outstanding = append(outstanding, v.ID)
		}
	}
	for _, w := range warnings {
		if fp, ok := accepted[w.ID]; !ok || fp != WarningFingerprint(w) {
			outstanding = append(outstanding, w.ID)
		}
	}
	if len(outstanding) > 0 {
		return nil, fmt.Errorf("%w: findings not accepted: %s", common.ErrNotCommittable, strings.Join(outstanding, ", "))
	}

	ws, err := BuildWriteSet(req.Record)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrNotCommittable, err)
	}
	ws.Replace = req.Replace
	ws.Tolerance = g.consistency.ConsistencyConfig
	for _, w := range warnings {
		if verifiedKinds[w.Kind] {
			ws.Excused = append(ws.Excused, repository.Discrepancy{Kind: w.Kind, TeamID: w.TeamID, Category: w.Category})
		}
	}
	for _, o := range req.Overrides {
		a := entity.OverrideAudit{
			FindingID:  o.FindingID,
			Kind:       o.Kind,
			Message:    o.Message,
			Reviewer:   o.Reviewer,
			AcceptedAt: o.AcceptedAt,
		}
		if o.Note != "" {
			note := o.Note
			a.Note = &note
		}
		ws.Audits = append(ws.Audits, a)
	}

	res, err := g.boxscores.Commit(ctx, ws)
	if err != nil {
		return nil, err
	}
	logger.Info("commit.gate.done", "game_id", res.GameID, "players", len(res.PlayerBoxScoreIDs), "audits", len(res.AuditIDs))
	return res, nil
}
