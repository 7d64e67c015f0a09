package export

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/boxscore-tracker/internal/candidate"
	"github.com/joseph-ayodele/boxscore-tracker/internal/consistency"
	"github.com/joseph-ayodele/boxscore-tracker/internal/review"
	"github.com/joseph-ayodele/boxscore-tracker/internal/validator"
)

// Sheet names of the review workbook.
const (
	SheetGame     = "Game"
	SheetTeams    = "Teams"
	SheetPlayers  = "Players"
	SheetFindings = "Findings"
)

// lowConfidence marks extracted fields worth a second look.
const lowConfidence = 0.5

// Service renders review sessions as XLSX workbooks for offline correction.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// flag is the worst finding touching one cell.
type flag struct {
	level    int // 1 low confidence, 2 advisory or warning, 3 blocking
	messages []string
}

type styles struct {
	header, blocking, advisory, low int
}

// ReviewWorkbook renders the candidate record of v with one sheet per
// section, flagged cells and a findings sheet. A committed or abandoned
// session has no record; only its findings sheet is written.
func (s *Service) ReviewWorkbook(v *review.View) ([]byte, error) {
	start := time.Now()
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_failed", "error", err)
		}
	}()

	st, err := newStyles(f)
	if err != nil {
		return nil, fmt.Errorf("xlsx styles: %w", err)
	}
	flags := cellFlags(v)

	if err := f.SetSheetName("Sheet1", SheetGame); err != nil {
		return nil, err
	}
	if v.Record != nil {
		writeGame(f, v.Record, flags, st)
		writeRows(f, SheetTeams, candidate.SectionTeams, candidate.TeamFields, v.Record.Teams, flags, st)
		writeRows(f, SheetPlayers, candidate.SectionPlayers, candidate.PlayerFields, v.Record.Players, flags, st)
	}
	writeFindings(f, v, st)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.xlsx.ok",
		"session_id", v.ID,
		"violations", len(v.Violations),
		"warnings", len(v.Warnings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	var err error
	fill := func(color string) *excelize.Style {
		return &excelize.Style{Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}}
	}
	if st.header, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return st, err
	}
	if st.blocking, err = f.NewStyle(fill("FFC7CE")); err != nil {
		return st, err
	}
	if st.advisory, err = f.NewStyle(fill("FFEB9C")); err != nil {
		return st, err
	}
	st.low, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Italic: true, Color: "9C5700"}})
	return st, err
}

// cellFlags collects findings per field path.
func cellFlags(v *review.View) map[string]*flag {
	flags := map[string]*flag{}
	add := func(path string, level int, msg string) {
		fl := flags[path]
		if fl == nil {
			fl = &flag{}
			flags[path] = fl
		}
		fl.level = max(fl.level, level)
		fl.messages = append(fl.messages, msg)
	}
	for _, vi := range v.Violations {
		level := 2
		if vi.Severity == validator.Blocking {
			level = 3
		}
		add(vi.Path, level, vi.ID+": "+vi.Message)
	}
	for _, w := range v.Warnings {
		add(warningCell(w), 2, w.ID+": "+w.Message)
	}
	return flags
}

// warningCell is the cell a consistency warning is drawn on.
func warningCell(w consistency.Warning) string {
	switch w.Kind {
	case consistency.KindWinner:
		return candidate.GamePath("winner_team_id").String()
	case consistency.KindPlayerSum:
		return candidate.TeamPath(w.TeamIndex, w.Category).String()
	case consistency.KindRoster:
		return candidate.TeamPath(w.TeamIndex, "team_id").String()
	default:
		return candidate.TeamPath(w.TeamIndex, "points").String()
	}
}

func setCell(f *excelize.File, sheet string, col, row int, v any) string {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	_ = f.SetCellValue(sheet, cell, v)
	return cell
}

func header(f *excelize.File, sheet string, cols []string, st styles) {
	for i, h := range cols {
		setCell(f, sheet, i+1, 1, h)
	}
	last, _ := excelize.CoordinatesToCellName(len(cols), 1)
	_ = f.SetCellStyle(sheet, "A1", last, st.header)
	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

// mark styles a value cell by its findings and field confidence.
func mark(f *excelize.File, sheet, cell, path string, fld *candidate.Field, flags map[string]*flag, st styles) {
	fl := flags[path]
	level := 0
	var notes []string
	if fl != nil {
		level, notes = fl.level, fl.messages
	}
	if fld != nil && fld.Origin == candidate.OriginExtracted && fld.Confidence < lowConfidence && level == 0 {
		level = 1
	}
	if fld != nil {
		notes = append(notes, fld.Notes...)
	}
	switch level {
	case 3:
		_ = f.SetCellStyle(sheet, cell, cell, st.blocking)
	case 2:
		_ = f.SetCellStyle(sheet, cell, cell, st.advisory)
	case 1:
		_ = f.SetCellStyle(sheet, cell, cell, st.low)
	}
	if len(notes) > 0 {
		_ = f.AddComment(sheet, excelize.Comment{
			Cell:      cell,
			Author:    "boxscore",
			Paragraph: []excelize.RichTextRun{{Text: strings.Join(notes, "\n")}},
		})
	}
}

func value(fld *candidate.Field) any {
	if fld == nil {
		return nil
	}
	return fld.Value
}

func writeGame(f *excelize.File, rec *candidate.Record, flags map[string]*flag, st styles) {
	header(f, SheetGame, []string{"Field", "Value", "Confidence", "Origin"}, st)
	row := 2
	for _, def := range candidate.GameFields {
		fld := rec.Game[def.Name]
		path := candidate.GamePath(def.Name).String()
		setCell(f, SheetGame, 1, row, path)
		cell := setCell(f, SheetGame, 2, row, value(fld))
		if fld != nil {
			setCell(f, SheetGame, 3, row, fld.Confidence)
			setCell(f, SheetGame, 4, row, string(fld.Origin))
		}
		mark(f, SheetGame, cell, path, fld, flags, st)
		row++
	}

	row++
	meta := rec.Meta
	for _, kv := range [][2]any{
		{"source", meta.SourceName},
		{"sha256", meta.SourceSHA256},
		{"input method", meta.InputMethod},
		{"prep confidence", meta.PrepConfidence},
		{"model", meta.Model},
		{"low confidence", meta.LowConfidence},
		{"schema errors", len(meta.SchemaErrors)},
		{"dropped keys", strings.Join(meta.DroppedKeys, ", ")},
	} {
		setCell(f, SheetGame, 1, row, kv[0])
		setCell(f, SheetGame, 2, row, kv[1])
		row++
	}
	_ = f.SetColWidth(SheetGame, "A", "A", 24)
	_ = f.SetColWidth(SheetGame, "B", "B", 36)
}

func writeRows(f *excelize.File, sheet, section string, specs []candidate.FieldSpec, rows []candidate.Section, flags map[string]*flag, st styles) {
	if _, err := f.NewSheet(sheet); err != nil {
		return
	}
	cols := []string{"#"}
	for _, def := range specs {
		cols = append(cols, def.Name)
	}
	header(f, sheet, cols, st)
	for i, sec := range rows {
		row := i + 2
		setCell(f, sheet, 1, row, i)
		for j, def := range specs {
			fld := sec[def.Name]
			cell := setCell(f, sheet, j+2, row, value(fld))
			path := candidate.Path{Section: section, Index: i, Field: def.Name}.String()
			mark(f, sheet, cell, path, fld, flags, st)
		}
		// a section-level finding such as a team count lands on the row number
		if fl := flags[candidate.Path{Section: section, Index: i}.String()]; fl != nil {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			mark(f, sheet, cell, candidate.Path{Section: section, Index: i}.String(), nil, flags, st)
		}
	}
}

func writeFindings(f *excelize.File, v *review.View, st styles) {
	if _, err := f.NewSheet(SheetFindings); err != nil {
		return
	}
	header(f, SheetFindings, []string{"ID", "Source", "Rule", "Severity", "Path", "Message", "Status"}, st)

	accepted := map[string]string{}
	for _, o := range v.Overrides {
		accepted[o.FindingID] = "accepted by " + o.Reviewer
	}
	status := func(id string) string {
		if s, ok := accepted[id]; ok {
			return s
		}
		return "outstanding"
	}

	type line struct {
		cols  []any
		level int
	}
	var lines []line
	for _, vi := range v.Violations {
		level := 2
		if vi.Severity == validator.Blocking {
			level = 3
		}
		lines = append(lines, line{[]any{vi.ID, "validator", vi.Rule, string(vi.Severity), vi.Path, vi.Message, status(vi.ID)}, level})
	}
	for _, w := range v.Warnings {
		lines = append(lines, line{[]any{w.ID, "consistency", w.Kind, "WARNING", warningCell(w), w.Message, status(w.ID)}, 2})
	}
	if v.Record != nil {
		for _, e := range v.Record.Meta.SchemaErrors {
			lines = append(lines, line{[]any{"", "schema", "schema", "INFO", e.Path, e.Message, ""}, 1})
		}
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].level > lines[j].level })

	for i, ln := range lines {
		row := i + 2
		for c, val := range ln.cols {
			setCell(f, SheetFindings, c+1, row, val)
		}
		first, _ := excelize.CoordinatesToCellName(1, row)
		last, _ := excelize.CoordinatesToCellName(len(ln.cols), row)
		switch ln.level {
		case 3:
			_ = f.SetCellStyle(SheetFindings, first, last, st.blocking)
		case 2:
			if !strings.HasPrefix(status(ln.cols[0].(string)), "accepted") {
				_ = f.SetCellStyle(SheetFindings, first, last, st.advisory)
			}
		}
	}
	_ = f.SetColWidth(SheetFindings, "A", "A", 40)
	_ = f.SetColWidth(SheetFindings, "E", "E", 28)
	_ = f.SetColWidth(SheetFindings, "F", "F", 70)
}
