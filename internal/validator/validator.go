package validator

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/joseph-ayodele/boxscore-tracker/constants"
	"github.com/joseph-ayodele/boxscore-tracker/internal/candidate"
	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
	"github.com/joseph-ayodele/boxscore-tracker/internal/entity"
)

// Severity decides whether a violation can be overridden.
type Severity string

const (
	Blocking Severity = "BLOCKING"
	Advisory Severity = "ADVISORY"
)

// Blocking rules.
const (
	RuleRequired        = common.RuleRequired
	RuleType            = common.RuleType
	RuleRange           = common.RuleRange
	RuleEnum            = common.RuleEnum
	RuleFormat          = common.RuleFormat
	RuleMakesExceed     = "makes_exceed_attempts"
	RuleThreesExceed    = "threes_exceed_field_goals"
	RuleTeamCount       = "team_count"
	RuleTeamMismatch    = "team_mismatch"
	RuleDuplicatePlayer = "duplicate_player"
	RuleOwnership       = "ownership"
	RuleScheduledScores = "scheduled_with_scores"
)

// Advisory rules.
const (
	RuleMinutesMax    = "minutes_max"
	RulePercentage    = "percentage_mismatch"
	RuleReboundSum    = "rebound_sum"
	RuleFoulLimit     = "foul_limit"
	RuleLowConfidence = "low_confidence"
	RuleNameMismatch  = "name_mismatch"
)

// Violation is one schema finding. ID is rule@path and stays stable while the
// record is unchanged.
type Violation struct {
	ID       string   `json:"id"`
	Path     string   `json:"path"`
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Value    any      `json:"value"`
	Message  string   `json:"message"`

	at candidate.Path
}

// Limits are the advisory thresholds.
type Limits struct {
	MaxMinutes      float64
	FoulLimit       int
	LowConfidence   float64
	PercentageSlack float64
}

// DefaultPercentageSlack absorbs box scores that round to one decimal of a percent.
const DefaultPercentageSlack = 0.011

func DefaultLimits() Limits {
	return Limits{MaxMinutes: 40, FoulLimit: 6, LowConfidence: 0.5, PercentageSlack: DefaultPercentageSlack}
}

// LimitsFromConfig maps the validation config onto Limits.
func LimitsFromConfig(cfg common.ValidationConfig) Limits {
	l := DefaultLimits()
	if cfg.MaxMinutes > 0 {
		l.MaxMinutes = cfg.MaxMinutes
	}
	if cfg.FoulLimit > 0 {
		l.FoulLimit = cfg.FoulLimit
	}
	if cfg.LowConfidence > 0 {
		l.LowConfidence = float64(cfg.LowConfidence)
	}
	return l
}

type checker struct {
	rec    *candidate.Record
	roster *entity.Roster
	limits Limits
	out    []Violation
	// fields that failed a type or range rule; later rules skip them
	bad map[string]bool
}

func (c *checker) add(p candidate.Path, rule string, sev Severity, value any, format string, args ...any) {
	path := p.String()
	c.out = append(c.out, Violation{
		ID:       rule + "@" + path,
		Path:     path,
		Rule:     rule,
		Severity: sev,
		Value:    value,
		Message:  fmt.Sprintf(format, args...),
		at:       p,
	})
}

// Validate checks the record against the field lists and the roster. It is
// pure: the same record and roster always give the same ordered result.
func Validate(rec *candidate.Record, roster *entity.Roster, limits Limits) []Violation {
	c := &checker{rec: rec, roster: roster, limits: limits, bad: map[string]bool{}}

	c.fields(rec.Game, candidate.SectionGame, -1)
	for i, t := range rec.Teams {
		c.fields(t, candidate.SectionTeams, i)
	}
	for i, p := range rec.Players {
		c.fields(p, candidate.SectionPlayers, i)
	}

	c.game()
	c.teams()
	c.players()
	for i, t := range rec.Teams {
		c.shooting(t, candidate.SectionTeams, i)
		c.advisory(t, candidate.SectionTeams, i)
	}
	for i, p := range rec.Players {
		c.shooting(p, candidate.SectionPlayers, i)
		c.advisory(p, candidate.SectionPlayers, i)
	}
	c.confidence()

	sort.SliceStable(c.out, func(i, j int) bool {
		a, b := c.out[i], c.out[j]
		if a.at != b.at {
			return candidate.Less(a.at, b.at)
		}
		return a.Rule < b.Rule
	})
	return c.out
}

func rulesFor(kind candidate.Kind) []common.ValidationRule {
	switch kind {
	case candidate.KindCount, candidate.KindJersey:
		return []common.ValidationRule{common.Integer, common.NonNegative}
	case candidate.KindSigned:
		return []common.ValidationRule{common.Integer}
	case candidate.KindPercentage:
		return []common.ValidationRule{common.Number, common.Fraction}
	case candidate.KindMinutes:
		return []common.ValidationRule{common.Number, common.NonNegative}
	case candidate.KindText:
		return []common.ValidationRule{common.String, common.MaxLength(120)}
	case candidate.KindDate:
		return []common.ValidationRule{common.String, common.Date}
	case candidate.KindStatus:
		return []common.ValidationRule{common.String, common.OneOf(constants.GameStatuses...)}
	case candidate.KindBool:
		return []common.ValidationRule{common.Bool}
	case candidate.KindTeamRef, candidate.KindPlayerRef:
		return []common.ValidationRule{common.Integer}
	}
	return nil
}

// fields runs the required, type and range rules over one section.
func (c *checker) fields(sec candidate.Section, section string, idx int) {
	for _, def := range candidate.FieldsOf(section) {
		p := candidate.Path{Section: section, Index: idx, Field: def.Name}
		v := sec.Value(def.Name)
		rules := rulesFor(def.Kind)
		if def.Required {
			rules = append([]common.ValidationRule{common.Required}, rules...)
		}
		errs := common.NewValidator().Field(p.String(), v, rules...).Errors()
		for _, e := range errs {
			c.bad[p.String()] = true
			c.add(p, e.Rule, Blocking, v, "%s %s", def.Name, e.Message)
		}
	}
}

// intOK returns a field's whole-number value when it passed the type rules.
func (c *checker) intOK(sec candidate.Section, p candidate.Path) (int, bool) {
	if c.bad[p.String()] {
		return 0, false
	}
	return sec.Int(p.Field)
}

func (c *checker) floatOK(sec candidate.Section, p candidate.Path) (float64, bool) {
	if c.bad[p.String()] {
		return 0, false
	}
	return sec.Float(p.Field)
}

func (c *checker) gameTeams() (home, away int, ok bool) {
	g := c.rec.Game
	home, okH := c.intOK(g, candidate.GamePath("home_team_id"))
	away, okA := c.intOK(g, candidate.GamePath("away_team_id"))
	return home, away, okH && okA
}

func (c *checker) game() {
	g := c.rec.Game
	for _, name := range []string{"home_team_id", "away_team_id"} {
		p := candidate.GamePath(name)
		if id, ok := c.intOK(g, p); ok && c.roster.Team(id) == nil {
			c.add(p, RuleOwnership, Blocking, id, "team %d is not one of the hinted teams", id)
		}
	}
	home, away, ok := c.gameTeams()
	if ok && home == away {
		c.add(candidate.GamePath("away_team_id"), RuleTeamMismatch, Blocking, away, "home and away team are both %d", home)
	}
	wp := candidate.GamePath("winner_team_id")
	if w, wok := c.intOK(g, wp); wok && ok && w != home && w != away {
		c.add(wp, RuleTeamMismatch, Blocking, w, "winner %d did not play in this game", w)
	}
	sp := candidate.GamePath("status")
	if st, sok := g.Text("status"); sok && !c.bad[sp.String()] && st == string(constants.GameStatusScheduled) {
		if g.Value("home_score") != nil || g.Value("away_score") != nil || len(c.rec.Teams) > 0 || len(c.rec.Players) > 0 {
			c.add(sp, RuleScheduledScores, Blocking, st, "a box score is stored as a final game; status %q cannot carry scores", st)
		}
	}
}

// sameName compares names ignoring case and spacing.
func sameName(a, b string) bool {
	fold := cases.Fold()
	norm := func(s string) string { return strings.Join(strings.Fields(fold.String(s)), " ") }
	return norm(a) == norm(b)
}

func (c *checker) teams() {
	if n := len(c.rec.Teams); n != 2 {
		c.add(candidate.Path{Section: candidate.SectionTeams, Index: -1}, RuleTeamCount, Blocking, n, "expected 2 team rows, got %d", n)
	}
	home, away, ok := c.gameTeams()
	if !ok {
		return
	}
	seen := map[int]int{}
	for i, t := range c.rec.Teams {
		p := candidate.TeamPath(i, "team_id")
		id, idOK := c.intOK(t, p)
		if !idOK {
			continue
		}
		if id != home && id != away {
			c.add(p, RuleTeamMismatch, Blocking, id, "team %d is neither the home (%d) nor the away (%d) team", id, home, away)
			continue
		}
		if prev, dup := seen[id]; dup {
			c.add(p, RuleTeamMismatch, Blocking, id, "team %d already has a row at teams[%d]", id, prev)
			continue
		}
		seen[id] = i
	}
}

func (c *checker) players() {
	home, away, gameOK := c.gameTeams()
	seen := map[int]int{}
	for i, row := range c.rec.Players {
		pp := candidate.PlayerPath(i, "player_id")
		tp := candidate.PlayerPath(i, "team_id")
		pid, pidOK := c.intOK(row, pp)
		tid, tidOK := c.intOK(row, tp)

		if pidOK {
			if prev, dup := seen[pid]; dup {
				c.add(pp, RuleDuplicatePlayer, Blocking, pid, "player %d already appears at players[%d]", pid, prev)
			} else {
				seen[pid] = i
			}
		}
		if tidOK && gameOK && tid != home && tid != away {
			c.add(tp, RuleOwnership, Blocking, tid, "row is filed under team %d, which is not in this game", tid)
			continue
		}
		if !pidOK {
			continue
		}
		known := c.roster.Player(pid)
		switch {
		case known == nil:
			c.add(pp, RuleOwnership, Blocking, pid, "player %d is not on either roster", pid)
		case tidOK && known.TeamID != tid:
			c.add(tp, RuleOwnership, Blocking, tid, "player %d (%s) belongs to team %d, not %d", pid, known.MediaName, known.TeamID, tid)
		}
		np := candidate.PlayerPath(i, "name")
		if known == nil || c.bad[np.String()] {
			continue
		}
		if name, ok := row.Text("name"); ok && strings.TrimSpace(name) != "" &&
			!sameName(name, known.MediaName) && !sameName(name, known.FirstName+" "+known.LastName) {
			c.add(np, RuleNameMismatch, Advisory, name, "row name %q does not match %s, the roster name of player %d", name, known.MediaName, pid)
		}
	}
}

func (c *checker) shooting(sec candidate.Section, section string, idx int) {
	path := func(s constants.Stat) candidate.Path {
		return candidate.Path{Section: section, Index: idx, Field: string(s)}
	}
	for _, pair := range constants.ShotPairs {
		mp, ap := path(pair[0]), path(pair[1])
		made, mok := c.intOK(sec, mp)
		att, aok := c.intOK(sec, ap)
		if mok && aok && made > att {
			c.add(mp, RuleMakesExceed, Blocking, made, "%s %d exceeds %s %d", pair[0], made, pair[1], att)
		}
	}
	threes := []struct{ sub, total constants.Stat }{
		{constants.ThreePointersMade, constants.FieldGoalsMade},
		{constants.ThreePointersAtt, constants.FieldGoalsAttempted},
	}
	for _, t := range threes {
		sp, tp := path(t.sub), path(t.total)
		sub, sok := c.intOK(sec, sp)
		total, tok := c.intOK(sec, tp)
		if sok && tok && sub > total {
			c.add(sp, RuleThreesExceed, Blocking, sub, "%s %d exceeds %s %d", t.sub, sub, t.total, total)
		}
	}
}

func (c *checker) advisory(sec candidate.Section, section string, idx int) {
	path := func(s constants.Stat) candidate.Path {
		return candidate.Path{Section: section, Index: idx, Field: string(s)}
	}

	for _, ps := range constants.PercentageStats {
		pp := path(ps.Stat)
		pct, pok := c.floatOK(sec, pp)
		made, mok := c.intOK(sec, path(ps.Made))
		att, aok := c.intOK(sec, path(ps.Attempted))
		if !pok || !mok || !aok {
			continue
		}
		var want float64
		if att > 0 {
			want = float64(made) / float64(att)
		}
		if math.Abs(pct-want) > c.limits.PercentageSlack {
			c.add(pp, RulePercentage, Advisory, pct, "%s %.3f disagrees with %d/%d (%.3f)", ps.Stat, pct, made, att, want)
		}
	}

	tp := path(constants.TotalRebounds)
	total, tok := c.intOK(sec, tp)
	off, ook := c.intOK(sec, path(constants.OffensiveRebounds))
	def, dok := c.intOK(sec, path(constants.DefensiveRebounds))
	if tok && ook && dok && total != off+def {
		c.add(tp, RuleReboundSum, Advisory, total, "total rebounds %d != offensive %d + defensive %d", total, off, def)
	}

	if section != candidate.SectionPlayers {
		return
	}
	mp := candidate.PlayerPath(idx, string(constants.Minutes))
	if m, ok := c.floatOK(sec, mp); ok && m > c.limits.MaxMinutes {
		c.add(mp, RuleMinutesMax, Advisory, m, "%.1f minutes played exceeds the %.0f-minute game", m, c.limits.MaxMinutes)
	}
	fp := path(constants.Fouls)
	if f, ok := c.intOK(sec, fp); ok && c.limits.FoulLimit > 0 && f > c.limits.FoulLimit {
		c.add(fp, RuleFoulLimit, Advisory, f, "%d fouls exceeds the foul-out limit of %d", f, c.limits.FoulLimit)
	}
}

// confidence flags machine-extracted fields the service was unsure about.
func (c *checker) confidence() {
	visit := func(sec candidate.Section, section string, idx int) {
		for _, def := range candidate.FieldsOf(section) {
			f := sec[def.Name]
			if f == nil || f.Origin == candidate.OriginEdited || f.Confidence >= c.limits.LowConfidence {
				continue
			}
			p := candidate.Path{Section: section, Index: idx, Field: def.Name}
			c.add(p, RuleLowConfidence, Advisory, f.Value, "extraction confidence %.2f is below %.2f", f.Confidence, c.limits.LowConfidence)
		}
	}
	visit(c.rec.Game, candidate.SectionGame, -1)
	for i, t := range c.rec.Teams {
		visit(t, candidate.SectionTeams, i)
	}
	for i, p := range c.rec.Players {
		visit(p, candidate.SectionPlayers, i)
	}
}

// HasBlocking reports whether any violation prevents commit.
func HasBlocking(vs []Violation) bool {
	for _, v := range vs {
		if v.Severity == Blocking {
			return true
		}
	}
	return false
}

// BlockingOnly filters vs down to the blocking violations.
func BlockingOnly(vs []Violation) []Violation {
	var out []Violation
	for _, v := range vs {
		if v.Severity == Blocking {
			out = append(out, v)
		}
	}
	return out
}
