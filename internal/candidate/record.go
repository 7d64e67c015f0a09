package candidate

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
)

// Origin tells machine-guessed values from human-confirmed ones.
type Origin string

const (
	OriginExtracted Origin = "extracted"
	OriginEdited    Origin = "edited"
)

// SchemaErrorConfidence is assigned to fields the service response got wrong
// against the request schema.
const SchemaErrorConfidence = 0.2

// Field is one candidate value. Value keeps whatever type the service
// produced, so wrong types survive to validation.
type Field struct {
	Value      any      `json:"value"`
	Origin     Origin   `json:"origin"`
	Confidence float64  `json:"confidence"`
	Notes      []string `json:"notes,omitempty"`
}

// Section is a row of fields keyed by field name.
type Section map[string]*Field

// SchemaError is one JSON-schema complaint about the service response.
type SchemaError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Meta is record-level provenance.
type Meta struct {
	SourceName      string        `json:"source_name,omitempty"`
	SourceSHA256    string        `json:"source_sha256,omitempty"`
	InputMethod     string        `json:"input_method,omitempty"`
	PrepConfidence  float64       `json:"prep_confidence"`
	ModelConfidence *float64      `json:"model_confidence,omitempty"`
	Model           string        `json:"model,omitempty"`
	LowConfidence   bool          `json:"low_confidence"`
	SchemaErrors    []SchemaError `json:"schema_errors,omitempty"`
	DroppedKeys     []string      `json:"dropped_keys,omitempty"`
	ExtractedAt     time.Time     `json:"extracted_at"`
}

// Record is the provisional game, team rows and player rows of one document.
type Record struct {
	Game    Section   `json:"game"`
	Teams   []Section `json:"teams"`
	Players []Section `json:"players"`
	Meta    Meta      `json:"meta"`
}

// New returns an empty record.
func New() *Record {
	return &Record{Game: Section{}}
}

// Clone deep-copies the record so callers can hold a snapshot.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := &Record{
		Game:    r.Game.clone(),
		Teams:   make([]Section, len(r.Teams)),
		Players: make([]Section, len(r.Players)),
		Meta:    r.Meta,
	}
	for i, s := range r.Teams {
		out.Teams[i] = s.clone()
	}
	for i, s := range r.Players {
		out.Players[i] = s.clone()
	}
	if r.Meta.ModelConfidence != nil {
		v := *r.Meta.ModelConfidence
		out.Meta.ModelConfidence = &v
	}
	out.Meta.SchemaErrors = append([]SchemaError(nil), r.Meta.SchemaErrors...)
	out.Meta.DroppedKeys = append([]string(nil), r.Meta.DroppedKeys...)
	return out
}

func (s Section) clone() Section {
	if s == nil {
		return nil
	}
	out := make(Section, len(s))
	for k, f := range s {
		if f == nil {
			out[k] = nil
			continue
		}
		cp := *f
		cp.Notes = append([]string(nil), f.Notes...)
		out[k] = &cp
	}
	return out
}

// Value returns the field value or nil when the field is absent.
func (s Section) Value(name string) any {
	if f := s[name]; f != nil {
		return f.Value
	}
	return nil
}

// Int returns the field as a whole number.
func (s Section) Int(name string) (int, bool) {
	n, ok := common.AsInt(s.Value(name))
	return int(n), ok
}

// Float returns the field as a number.
func (s Section) Float(name string) (float64, bool) {
	return common.AsFloat(s.Value(name))
}

// Text returns the field when it holds a string.
func (s Section) Text(name string) (string, bool) {
	v, ok := s.Value(name).(string)
	return v, ok
}

// section resolves the row a path points into.
func (r *Record) section(p Path) (Section, error) {
	switch p.Section {
	case SectionGame:
		if r.Game == nil {
			r.Game = Section{}
		}
		return r.Game, nil
	case SectionTeams:
		if p.Index < 0 || p.Index >= len(r.Teams) {
			return nil, fmt.Errorf("%w: %s out of range (%d team rows)", common.ErrInvalidPath, p, len(r.Teams))
		}
		if r.Teams[p.Index] == nil {
			r.Teams[p.Index] = Section{}
		}
		return r.Teams[p.Index], nil
	case SectionPlayers:
		if p.Index < 0 || p.Index >= len(r.Players) {
			return nil, fmt.Errorf("%w: %s out of range (%d player rows)", common.ErrInvalidPath, p, len(r.Players))
		}
		if r.Players[p.Index] == nil {
			r.Players[p.Index] = Section{}
		}
		return r.Players[p.Index], nil
	}
	return nil, fmt.Errorf("%w: %s", common.ErrInvalidPath, p)
}

// Get returns the field at path; an addressable but absent field is nil.
func (r *Record) Get(path string) (*Field, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	if _, ok := Lookup(p.Section, p.Field); !ok {
		return nil, fmt.Errorf("%w: unknown field %q", common.ErrInvalidPath, path)
	}
	sec, err := r.section(p)
	if err != nil {
		return nil, err
	}
	return sec[p.Field], nil
}

// Edit sets the field at path as human-confirmed. Unknown paths are rejected
// without mutating the record.
func (r *Record) Edit(path string, value any) error {
	p, err := ParsePath(path)
	if err != nil {
		return err
	}
	if _, ok := Lookup(p.Section, p.Field); !ok {
		return fmt.Errorf("%w: unknown field %q", common.ErrInvalidPath, path)
	}
	sec, err := r.section(p)
	if err != nil {
		return err
	}
	f := sec[p.Field]
	if f == nil {
		f = &Field{}
		sec[p.Field] = f
	}
	if f.Origin == OriginExtracted && f.Value != nil {
		f.Notes = append(f.Notes, fmt.Sprintf("extracted value %v", f.Value))
	}
	f.Value = value
	f.Origin = OriginEdited
	f.Confidence = 1.0
	return nil
}

// AddRow appends an empty teams or players row and returns its path.
func (r *Record) AddRow(section string) (Path, error) {
	switch section {
	case SectionTeams:
		r.Teams = append(r.Teams, Section{})
		return TeamPath(len(r.Teams)-1, ""), nil
	case SectionPlayers:
		r.Players = append(r.Players, Section{})
		return PlayerPath(len(r.Players)-1, ""), nil
	}
	return Path{}, fmt.Errorf("%w: rows can be added to teams or players, not %q", common.ErrInvalidPath, section)
}

// RemoveRow deletes the row a path such as players[3] names. Later rows move
// up one index.
func (r *Record) RemoveRow(path string) error {
	p, err := ParsePath(path)
	if err != nil {
		return err
	}
	if p.Section == SectionGame || p.Field != "" {
		return fmt.Errorf("%w: %q does not name a team or player row", common.ErrInvalidPath, path)
	}
	if _, err := r.section(p); err != nil {
		return err
	}
	switch p.Section {
	case SectionTeams:
		r.Teams = append(r.Teams[:p.Index], r.Teams[p.Index+1:]...)
	case SectionPlayers:
		r.Players = append(r.Players[:p.Index], r.Players[p.Index+1:]...)
	}
	return nil
}

// ParseValue turns reviewer input into a JSON value: numbers, booleans, null
// and quoted strings decode as JSON; anything else is kept as a bare string.
func ParseValue(s string) any {
	s = strings.TrimSpace(s)
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		switch v.(type) {
		case map[string]any, []any:
			return s
		}
		return v
	}
	return s
}

// TeamIndex returns the index of the team row for teamID, or -1.
func (r *Record) TeamIndex(teamID int) int {
	for i, t := range r.Teams {
		if id, ok := t.Int("team_id"); ok && id == teamID {
			return i
		}
	}
	return -1
}
