package candidate

import (
	"fmt"
	"sort"

	"github.com/joseph-ayodele/boxscore-tracker/constants"
	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
)

// Response keys outside the sections.
const (
	KeyConfidence      = "confidence"
	KeyFieldConfidence = "field_confidence"
)

// DefaultFieldConfidence is used when the service reports no confidence.
const DefaultFieldConfidence = 0.8

// FromResponse turns a decoded service object into a record. Fields outside
// the section field lists are dropped and named in Meta.DroppedKeys. The
// object must carry at least one of the three sections.
func FromResponse(obj map[string]any) (*Record, error) {
	rec := New()
	base := DefaultFieldConfidence
	if c, ok := common.AsFloat(obj[KeyConfidence]); ok && c >= 0 && c <= 1 {
		base = c
		rec.Meta.ModelConfidence = &c
	}
	perField, _ := obj[KeyFieldConfidence].(map[string]any)

	found := 0
	var dropped []string
	for key, raw := range obj {
		switch key {
		case KeyConfidence, KeyFieldConfidence:
		case SectionGame:
			m, ok := raw.(map[string]any)
			if !ok {
				dropped = append(dropped, key)
				continue
			}
			found++
			rec.Game, dropped = decodeSection(SectionGame, -1, m, base, perField, dropped)
		case SectionTeams, SectionPlayers:
			rows, ok := raw.([]any)
			if !ok {
				dropped = append(dropped, key)
				continue
			}
			found++
			secs := make([]Section, 0, len(rows))
			for i, row := range rows {
				m, ok := row.(map[string]any)
				if !ok {
					dropped = append(dropped, fmt.Sprintf("%s[%d]", key, i))
					m = map[string]any{}
				}
				var sec Section
				sec, dropped = decodeSection(key, i, m, base, perField, dropped)
				secs = append(secs, sec)
			}
			if key == SectionTeams {
				rec.Teams = secs
			} else {
				rec.Players = secs
			}
		default:
			dropped = append(dropped, key)
		}
	}
	if found == 0 {
		return nil, fmt.Errorf("response carries none of %s, %s, %s", SectionGame, SectionTeams, SectionPlayers)
	}
	sort.Strings(dropped)
	rec.Meta.DroppedKeys = dropped
	return rec, nil
}

func decodeSection(section string, idx int, m map[string]any, base float64, perField map[string]any, dropped []string) (Section, []string) {
	sec := make(Section, len(m))
	conf := func(path Path) float64 {
		if c, ok := common.AsFloat(perField[path.String()]); ok && c >= 0 && c <= 1 {
			return c
		}
		return base
	}
	var labels []string
	for name, v := range m {
		path := Path{Section: section, Index: idx, Field: name}
		if _, ok := Lookup(section, name); !ok {
			labels = append(labels, name)
			continue
		}
		sec[name] = &Field{Value: v, Origin: OriginExtracted, Confidence: conf(path)}
	}
	// column labels such as "pts" or "+/-" land on their stat unless the
	// canonical name was also given
	sort.Strings(labels)
	for _, label := range labels {
		path := Path{Section: section, Index: idx, Field: label}
		stat, ok := constants.CanonicalStat(label)
		if _, known := Lookup(section, string(stat)); !ok || !known || sec[string(stat)] != nil {
			dropped = append(dropped, path.String())
			continue
		}
		sec[string(stat)] = &Field{
			Value:      m[label],
			Origin:     OriginExtracted,
			Confidence: conf(path),
			Notes:      []string{fmt.Sprintf("reported as %q", label)},
		}
	}
	return sec, dropped
}

// MarkSchemaErrors records schema complaints on the record and lowers the
// confidence of each field they point at.
func (r *Record) MarkSchemaErrors(errs []SchemaError) {
	if len(errs) == 0 {
		return
	}
	r.Meta.SchemaErrors = append(r.Meta.SchemaErrors, errs...)
	r.Meta.LowConfidence = true
	for _, e := range errs {
		p, err := ParsePath(e.Path)
		if err != nil || p.Field == "" {
			continue
		}
		sec, err := r.section(p)
		if err != nil {
			continue
		}
		if f := sec[p.Field]; f != nil {
			f.Confidence = SchemaErrorConfidence
			f.Notes = append(f.Notes, "schema: "+e.Message)
		}
	}
}
