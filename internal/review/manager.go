package review

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/joseph-ayodele/boxscore-tracker/constants"
	"github.com/joseph-ayodele/boxscore-tracker/internal/candidate"
	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
)

// Summary is the listing form of a session.
type Summary struct {
	ID          string                 `json:"id"`
	State       constants.SessionState `json:"state"`
	Source      string                 `json:"source"`
	Outstanding int                    `json:"outstanding"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// Manager keeps the live sessions of a process, keyed by session id.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *slog.Logger
}

func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		logger:   logger,
	}
}

// Open starts a session over rec and registers it.
func (m *Manager) Open(rec *candidate.Record, deps Deps) *Session {
	if deps.Logger == nil {
		deps.Logger = m.logger
	}
	s := New(rec, deps)
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, common.ErrNotFound)
	}
	return s, nil
}

// Abandon abandons and unregisters a session.
func (m *Manager) Abandon(id string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	if err := s.Abandon(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// List returns every registered session, most recently updated first.
func (m *Manager) List() []Summary {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	out := make([]Summary, 0, len(sessions))
	for _, s := range sessions {
		v := s.View()
		sum := Summary{
			ID:          v.ID,
			State:       v.State,
			Outstanding: len(v.Outstanding),
			UpdatedAt:   v.UpdatedAt,
		}
		if v.Record != nil {
			sum.Source = v.Record.Meta.SourceName
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Evict drops terminal sessions last touched before cutoff and returns how
// many were removed.
func (m *Manager) Evict(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		v := s.View()
		if v.State.Terminal() && v.UpdatedAt.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	if n > 0 {
		m.logger.Info("review.manager.evict", "removed", n, "remaining", len(m.sessions))
	}
	return n
}
