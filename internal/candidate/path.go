package candidate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
)

// Section names used in field paths.
const (
	SectionGame    = "game"
	SectionTeams   = "teams"
	SectionPlayers = "players"
)

// Path addresses one candidate field: game.home_score, teams[0].points,
// players[4].minutes.
type Path struct {
	Section string
	Index   int // -1 for the game section
	Field   string
}

var rePath = regexp.MustCompile(`^(?:(game)|(teams|players)\[(\d+)\])(?:\.([a-z0-9_]+))?$`)

// ParsePath parses a field path. A path without a field names the section
// row itself (teams[1]); Field is empty then.
func ParsePath(s string) (Path, error) {
	m := rePath.FindStringSubmatch(s)
	if m == nil {
		return Path{}, fmt.Errorf("%w: %q", common.ErrInvalidPath, s)
	}
	if m[1] != "" {
		return Path{Section: SectionGame, Index: -1, Field: m[4]}, nil
	}
	idx, err := strconv.Atoi(m[3])
	if err != nil {
		return Path{}, fmt.Errorf("%w: %q", common.ErrInvalidPath, s)
	}
	return Path{Section: m[2], Index: idx, Field: m[4]}, nil
}

func (p Path) String() string {
	base := p.Section
	if p.Section != SectionGame && p.Index >= 0 {
		base = fmt.Sprintf("%s[%d]", p.Section, p.Index)
	}
	if p.Field == "" {
		return base
	}
	return base + "." + p.Field
}

// GamePath, TeamPath and PlayerPath build paths without parsing.
func GamePath(field string) Path { return Path{Section: SectionGame, Index: -1, Field: field} }

func TeamPath(i int, field string) Path { return Path{Section: SectionTeams, Index: i, Field: field} }

func PlayerPath(i int, field string) Path {
	return Path{Section: SectionPlayers, Index: i, Field: field}
}

// sectionOrder ranks sections for ordering findings.
func sectionOrder(section string) int {
	switch section {
	case SectionGame:
		return 0
	case SectionTeams:
		return 1
	default:
		return 2
	}
}

// Less orders paths by section, then row index, then canonical field order.
func Less(a, b Path) bool {
	if sa, sb := sectionOrder(a.Section), sectionOrder(b.Section); sa != sb {
		return sa < sb
	}
	if a.Index != b.Index {
		return a.Index < b.Index
	}
	return FieldRank(a.Section, a.Field) < FieldRank(b.Section, b.Field)
}

// FromPointer converts a JSON pointer such as /teams/0/points into a field
// path string; pointers outside the sections come back unchanged.
func FromPointer(ptr string) string {
	parts := strings.Split(strings.TrimPrefix(ptr, "/"), "/")
	switch {
	case len(parts) >= 1 && parts[0] == SectionGame:
		if len(parts) >= 2 {
			return GamePath(parts[1]).String()
		}
		return SectionGame
	case len(parts) >= 2 && (parts[0] == SectionTeams || parts[0] == SectionPlayers):
		idx, err := strconv.Atoi(parts[1])
		if err != nil {
			return ptr
		}
		p := Path{Section: parts[0], Index: idx}
		if len(parts) >= 3 {
			p.Field = parts[2]
		}
		return p.String()
	}
	return ptr
}
