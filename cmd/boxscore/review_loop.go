package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/joseph-ayodele/boxscore-tracker/internal/candidate"
	"github.com/joseph-ayodele/boxscore-tracker/internal/review"
	"github.com/joseph-ayodele/boxscore-tracker/internal/services/session"
	"github.com/joseph-ayodele/boxscore-tracker/internal/validator"
)

const reviewHelp = `Commands:
  show [PATH]              findings, or one field (e.g. players[2].points)
  edit PATH VALUE          set a field; VALUE is JSON or a bare string
  add teams|players        append an empty row and print its path
  remove ROW               delete a row (e.g. players[11]); later rows shift up
  override ID... [-- NOTE] accept non-blocking findings by id
  export FILE.xlsx         write the review workbook
  commit                   store the record (CLEAN or OVERRIDDEN only)
  abandon                  discard the record
  help
`

// errInputEnded is returned when input runs out before commit or abandon.
var errInputEnded = errors.New("input ended before commit")

// reviewLoop drives one session from line commands.
type reviewLoop struct {
	svc      *session.Service
	id       string
	reviewer string
	replace  bool
	in       io.Reader
	out      io.Writer
	prompt   bool
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (l *reviewLoop) run(ctx context.Context) error {
	v, err := l.svc.Get(ctx, l.id)
	if err != nil {
		return err
	}
	l.printView(v)
	if l.prompt {
		fmt.Fprint(l.out, "Type help for commands.\n")
	}

	scanner := bufio.NewScanner(l.in)
	for {
		if l.prompt {
			fmt.Fprint(l.out, "review> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		done, err := l.exec(ctx, line)
		if err != nil {
			fmt.Fprintf(l.out, "error: %v\n", err)
			continue
		}
		if done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if _, err := l.svc.Abandon(ctx, l.id); err == nil {
		fmt.Fprintf(l.out, "Session %s abandoned\n", l.id)
	}
	return errInputEnded
}

// exec runs one command and reports whether the session is finished.
func (l *reviewLoop) exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "help", "?":
		fmt.Fprint(l.out, reviewHelp)
	case "show":
		v, err := l.svc.Get(ctx, l.id)
		if err != nil {
			return false, err
		}
		if len(fields) == 1 {
			l.printView(v)
			return false, nil
		}
		return false, l.printField(v, fields[1])
	case "edit":
		if len(fields) < 3 {
			return false, errors.New("usage: edit PATH VALUE")
		}
		value := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(strings.TrimPrefix(line, "edit")), fields[1]))
		v, err := l.svc.Edit(ctx, session.EditRequest{SessionID: l.id, Path: fields[1], Value: candidate.ParseValue(value)})
		if err != nil {
			return false, err
		}
		l.printView(v)
	case "add":
		if len(fields) != 2 {
			return false, errors.New("usage: add teams|players")
		}
		v, path, err := l.svc.AddRow(ctx, l.id, fields[1])
		if err != nil {
			return false, err
		}
		fmt.Fprintf(l.out, "Added %s\n", path)
		l.printView(v)
	case "remove":
		if len(fields) != 2 {
			return false, errors.New("usage: remove ROW")
		}
		v, err := l.svc.RemoveRow(ctx, l.id, fields[1])
		if err != nil {
			return false, err
		}
		fmt.Fprintf(l.out, "Removed %s\n", fields[1])
		l.printView(v)
	case "override":
		ids, note := splitNote(fields[1:])
		if len(ids) == 0 {
			return false, errors.New("usage: override ID... [-- NOTE]")
		}
		v, err := l.svc.Override(ctx, session.OverrideRequest{SessionID: l.id, FindingIDs: ids, Reviewer: l.reviewer, Note: note})
		if err != nil {
			return false, err
		}
		l.printView(v)
	case "export":
		if len(fields) != 2 {
			return false, errors.New("usage: export FILE.xlsx")
		}
		data, err := l.svc.Workbook(ctx, l.id)
		if err != nil {
			return false, err
		}
		if err := os.WriteFile(fields[1], data, 0o644); err != nil {
			return false, fmt.Errorf("write workbook: %w", err)
		}
		fmt.Fprintf(l.out, "Wrote %s\n", fields[1])
	case "commit":
		v, err := l.svc.Commit(ctx, l.id, l.replace)
		if err != nil {
			return false, err
		}
		printCommit(l.out, v)
		return true, nil
	case "abandon", "quit", "exit":
		if _, err := l.svc.Abandon(ctx, l.id); err != nil {
			return false, err
		}
		fmt.Fprintf(l.out, "Session %s abandoned\n", l.id)
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q (try help)", fields[0])
	}
	return false, nil
}

func splitNote(args []string) ([]string, string) {
	for i, a := range args {
		if a == "--" {
			return args[:i], strings.Join(args[i+1:], " ")
		}
	}
	return args, ""
}

func printCommit(w io.Writer, v *review.View) {
	if v.Result == nil {
		fmt.Fprintf(w, "Session %s is %s\n", v.ID, v.State)
		return
	}
	r := v.Result
	fmt.Fprintf(w, "Committed game %d: %d team lines, %d player lines, %d accepted findings\n",
		r.GameID, len(r.TeamBoxScoreIDs), len(r.PlayerBoxScoreIDs), len(r.AuditIDs))
}

func (l *reviewLoop) printField(v *review.View, path string) error {
	if v.Record == nil {
		return fmt.Errorf("session %s has no record", v.ID)
	}
	f, err := v.Record.Get(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(l.out, "%s = %v  (%s, confidence %.2f)\n", path, f.Value, f.Origin, f.Confidence)
	for _, n := range f.Notes {
		fmt.Fprintf(l.out, "  note: %s\n", n)
	}
	return nil
}

func (l *reviewLoop) printView(v *review.View) {
	source := ""
	if v.Record != nil {
		source = v.Record.Meta.SourceName
	}
	fmt.Fprintf(l.out, "Session %s  %s  %s\n", v.ID, v.State, source)
	rows := findingRows(v)
	if len(rows) == 0 {
		fmt.Fprintln(l.out, "No findings")
		return
	}
	fmt.Fprintln(l.out, renderTable([]string{"ID", "Severity", "Message", "Status"}, rows, nil))
	fmt.Fprintf(l.out, "%d outstanding\n", len(v.Outstanding))
}

func findingRows(v *review.View) [][]string {
	accepted := make(map[string]string, len(v.Overrides))
	for _, o := range v.Overrides {
		accepted[o.FindingID] = o.Reviewer
	}
	status := func(id string) string {
		if who, ok := accepted[id]; ok {
			return "accepted by " + who
		}
		return "outstanding"
	}

	var blocking, rest [][]string
	for _, f := range v.Violations {
		row := []string{f.ID, string(f.Severity), f.Message, status(f.ID)}
		if f.Severity == validator.Blocking {
			blocking = append(blocking, row)
		} else {
			rest = append(rest, row)
		}
	}
	for _, w := range v.Warnings {
		rest = append(rest, []string{w.ID, "WARNING", w.Message, status(w.ID)})
	}
	sort.SliceStable(rest, func(i, j int) bool { return rest[i][0] < rest[j][0] })
	return append(blocking, rest...)
}
