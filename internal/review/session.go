package review

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/boxscore-tracker/constants"
	"github.com/joseph-ayodele/boxscore-tracker/internal/candidate"
	"github.com/joseph-ayodele/boxscore-tracker/internal/commit"
	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
	"github.com/joseph-ayodele/boxscore-tracker/internal/consistency"
	"github.com/joseph-ayodele/boxscore-tracker/internal/entity"
	"github.com/joseph-ayodele/boxscore-tracker/internal/repository"
	"github.com/joseph-ayodele/boxscore-tracker/internal/validator"
)

// Committer writes a finished record; *commit.Gate implements it.
type Committer interface {
	Commit(ctx context.Context, req *commit.Request) (*repository.CommitResult, error)
}

// Deps are the collaborators a session checks and commits with.
type Deps struct {
	Roster      *entity.Roster
	Limits      validator.Limits
	Consistency consistency.Config
	Committer   Committer
	Logger      *slog.Logger
	Now         func() time.Time
}

// View is a snapshot of a session. Record is a copy; changing it does not
// change the session.
type View struct {
	ID          string                   `json:"id"`
	State       constants.SessionState   `json:"state"`
	Record      *candidate.Record        `json:"record,omitempty"`
	Violations  []validator.Violation    `json:"violations"`
	Warnings    []consistency.Warning    `json:"warnings"`
	Overrides   []commit.Override        `json:"overrides"`
	Outstanding []string                 `json:"outstanding"`
	Result      *repository.CommitResult `json:"result,omitempty"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

// Session owns one candidate record from extraction until it is committed
// or abandoned. Every operation holds the session lock.
type Session struct {
	mu sync.Mutex

	id         string
	state      constants.SessionState
	rec        *candidate.Record
	deps       Deps
	logger     *slog.Logger
	violations []validator.Violation
	warnings   []consistency.Warning
	accepted   []commit.Override
	replace    bool
	result     *repository.CommitResult
	createdAt  time.Time
	updatedAt  time.Time
}

// New opens a DRAFT session over rec with its findings already computed.
func New(rec *candidate.Record, deps Deps) *Session {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	now := deps.Now().UTC()
	s := &Session{
		id:        uuid.NewString(),
		state:     constants.SessionDraft,
		rec:       rec,
		deps:      deps,
		createdAt: now,
		updatedAt: now,
	}
	s.logger = deps.Logger.With("session_id", s.id)
	s.evaluate()
	s.logger.Info("review.session.new",
		"source", rec.Meta.SourceName,
		"violations", len(s.violations),
		"warnings", len(s.warnings),
	)
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() constants.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetReplace makes the eventual commit re-import over an existing final game.
func (s *Session) SetReplace(replace bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replace = replace
}

func (s *Session) View() *View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := &View{
		ID:          s.id,
		State:       s.state,
		Violations:  append([]validator.Violation(nil), s.violations...),
		Warnings:    append([]consistency.Warning(nil), s.warnings...),
		Overrides:   append([]commit.Override(nil), s.accepted...),
		Outstanding: s.outstanding(),
		Result:      s.result,
		CreatedAt:   s.createdAt,
		UpdatedAt:   s.updatedAt,
	}
	if s.rec != nil {
		v.Record = s.rec.Clone()
	}
	return v
}

// evaluate re-runs both checkers over the whole record and drops acceptances
// whose finding no longer exists or now reports different values.
func (s *Session) evaluate() {
	s.violations = validator.Validate(s.rec, s.deps.Roster, s.deps.Limits)
	s.warnings = consistency.Check(s.rec, s.deps.Consistency)

	current := s.fingerprints()
	kept := s.accepted[:0]
	for _, o := range s.accepted {
		fp, ok := current[o.FindingID]
		switch {
		case !ok:
			s.logger.Info("review.override.resolved", "finding_id", o.FindingID)
		case fp != o.Fingerprint:
			s.logger.Info("review.override.stale", "finding_id", o.FindingID)
		default:
			kept = append(kept, o)
		}
	}
	s.accepted = kept
}

func (s *Session) fingerprints() map[string]string {
	fps := make(map[string]string, len(s.violations)+len(s.warnings))
	for _, v := range s.violations {
		fps[v.ID] = commit.ViolationFingerprint(v)
	}
	for _, w := range s.warnings {
		fps[w.ID] = commit.WarningFingerprint(w)
	}
	return fps
}

func (s *Session) isAccepted(id string) bool {
	for _, o := range s.accepted {
		if o.FindingID == id {
			return true
		}
	}
	return false
}

// outstanding lists blocking violations and findings nobody accepted yet.
func (s *Session) outstanding() []string {
	var out []string
	for _, v := range s.violations {
		if v.Severity == validator.Blocking || !s.isAccepted(v.ID) {
			out = append(out, v.ID)
		}
	}
	for _, w := range s.warnings {
		if !s.isAccepted(w.ID) {
			out = append(out, w.ID)
		}
	}
	return out
}

// settle picks the review state from the current findings.
func (s *Session) settle() {
	switch {
	case len(s.violations) == 0 && len(s.warnings) == 0:
		s.state = constants.SessionClean
	case len(s.outstanding()) == 0 && len(s.accepted) > 0:
		s.state = constants.SessionOverridden
	default:
		s.state = constants.SessionReviewing
	}
	s.updatedAt = s.deps.Now().UTC()
}

func (s *Session) live() error {
	if s.state.Terminal() {
		return fmt.Errorf("%w: session %s is %s", common.ErrInvalidState, s.id, s.state)
	}
	return nil
}

// StartReview moves a DRAFT session into review.
func (s *Session) StartReview() (constants.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != constants.SessionDraft {
		return s.state, fmt.Errorf("%w: review already started (%s)", common.ErrInvalidState, s.state)
	}
	s.state = constants.SessionReviewing
	s.settle()
	s.logger.Info("review.start", "state", s.state)
	return s.state, nil
}

// Edit sets one field and re-checks the record. A DRAFT session enters
// review on its first edit.
func (s *Session) Edit(path string, value any) (constants.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.live(); err != nil {
		return s.state, err
	}
	if err := s.rec.Edit(path, value); err != nil {
		return s.state, err
	}
	s.evaluate()
	s.settle()
	s.logger.Info("review.edit",
		"path", path,
		"state", s.state,
		"violations", len(s.violations),
		"warnings", len(s.warnings),
	)
	return s.state, nil
}

// AddRow appends an empty teams or players row and re-checks the record.
// It returns the new row's path.
func (s *Session) AddRow(section string) (string, constants.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.live(); err != nil {
		return "", s.state, err
	}
	p, err := s.rec.AddRow(section)
	if err != nil {
		return "", s.state, err
	}
	s.evaluate()
	s.settle()
	s.logger.Info("review.row.add", "path", p.String(), "state", s.state)
	return p.String(), s.state, nil
}

// RemoveRow deletes a teams or players row and re-checks the record.
func (s *Session) RemoveRow(path string) (constants.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.live(); err != nil {
		return s.state, err
	}
	if err := s.rec.RemoveRow(path); err != nil {
		return s.state, err
	}
	s.evaluate()
	s.settle()
	s.logger.Info("review.row.remove",
		"path", path,
		"state", s.state,
		"violations", len(s.violations),
		"warnings", len(s.warnings),
	)
	return s.state, nil
}

// Override accepts non-blocking findings by id. Every id is checked before
// any is recorded.
func (s *Session) Override(ids []string, reviewer, note string) (constants.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.live(); err != nil {
		return s.state, err
	}
	if len(ids) == 0 {
		return s.state, fmt.Errorf("%w: no finding ids given", common.ErrUnknownFinding)
	}

	resolved := make([]finding, len(ids))
	for i, id := range ids {
		f, err := s.lookup(id)
		if err != nil {
			return s.state, err
		}
		resolved[i] = f
	}

	now := s.deps.Now().UTC()
	for i, id := range ids {
		if s.isAccepted(id) {
			continue
		}
		s.accepted = append(s.accepted, commit.Override{
			FindingID:   id,
			Fingerprint: resolved[i].fingerprint,
			Kind:        resolved[i].kind,
			Message:     resolved[i].message,
			Reviewer:    reviewer,
			Note:        note,
			AcceptedAt:  now,
		})
	}
	if s.state == constants.SessionDraft {
		s.state = constants.SessionReviewing
	}
	s.settle()
	s.logger.Info("review.override", "ids", ids, "reviewer", reviewer, "state", s.state)
	return s.state, nil
}

type finding struct{ kind, message, fingerprint string }

// lookup finds an overridable finding by id.
func (s *Session) lookup(id string) (finding, error) {
	for _, v := range s.violations {
		if v.ID != id {
			continue
		}
		if v.Severity == validator.Blocking {
			return finding{}, fmt.Errorf("%w: %s", common.ErrNotOverridable, id)
		}
		return finding{v.Rule, v.Message, commit.ViolationFingerprint(v)}, nil
	}
	for _, w := range s.warnings {
		if w.ID == id {
			return finding{w.Kind, w.Message, commit.WarningFingerprint(w)}, nil
		}
	}
	return finding{}, fmt.Errorf("%w: %s", common.ErrUnknownFinding, id)
}

// Commit hands a CLEAN or OVERRIDDEN record to the commit gate. On failure
// the session keeps its state and record so the commit can be retried.
func (s *Session) Commit(ctx context.Context) (*repository.CommitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx = common.WithSessionID(ctx, s.id)
	if !s.state.Committable() {
		return nil, fmt.Errorf("%w: session %s is %s", common.ErrNotCommittable, s.id, s.state)
	}
	if s.deps.Committer == nil {
		return nil, common.NewPersistenceFailure("no store configured", common.ErrInternal)
	}
	res, err := s.deps.Committer.Commit(ctx, &commit.Request{
		Record:    s.rec,
		Roster:    s.deps.Roster,
		State:     s.state,
		Overrides: append([]commit.Override(nil), s.accepted...),
		Replace:   s.replace,
	})
	if err != nil {
		s.logger.Warn("review.commit.failed", "state", s.state, "error", err)
		return nil, err
	}
	s.state = constants.SessionCommitted
	s.result = res
	s.rec = nil
	s.updatedAt = s.deps.Now().UTC()
	s.logger.Info("review.commit.done", "game_id", res.GameID)
	return res, nil
}

// Abandon discards the record. Nothing is written.
func (s *Session) Abandon() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.live(); err != nil {
		return err
	}
	s.state = constants.SessionAbandoned
	s.rec = nil
	s.updatedAt = s.deps.Now().UTC()
	s.logger.Info("review.abandon")
	return nil
}
