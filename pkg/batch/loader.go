// Package batch loads task files and runs their tasks one after another.
package batch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/Amr-9/VanityHunter/pkg/generator"
)

// Columns is the expected field order of a task file row.
var Columns = []string{"currency", "pattern_type", "pattern", "target_count", "ignore_case", "priority"}

var errFieldCount = fmt.Errorf("want %d fields: %s", len(Columns), strings.Join(Columns, ","))

// RowError describes a task file row that was skipped.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// LoadFile reads a task file. See Parse.
func LoadFile(path string) ([]generator.Task, []*RowError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads CSV rows of currency,pattern_type,pattern,target_count,
// ignore_case,priority. Blank lines and lines starting with # are ignored, as
// is a leading header row. Invalid rows are skipped and reported; the
// returned error is set only when the input itself cannot be read. Tasks are
// stably sorted by priority, 1 first.
func Parse(r io.Reader) ([]generator.Task, []*RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	var (
		tasks []generator.Task
		diags []*RowError
		first = true
	)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				diags = append(diags, &RowError{Line: perr.Line, Err: perr.Err})
				continue
			}
			return nil, nil, err
		}

		line, _ := cr.FieldPos(0)
		if skipRow(row) {
			continue
		}
		if first {
			first = false
			if strings.EqualFold(strings.TrimSpace(row[0]), Columns[0]) {
				continue
			}
		}

		task, err := parseRow(row)
		if err != nil {
			diags = append(diags, &RowError{Line: line, Err: err})
			continue
		}
		tasks = append(tasks, task)
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Priority < tasks[j].Priority
	})
	return tasks, diags, nil
}

func skipRow(row []string) bool {
	if len(row) == 0 {
		return true
	}
	first := strings.TrimSpace(row[0])
	if strings.HasPrefix(first, "#") {
		return true
	}
	return len(row) == 1 && first == ""
}

func parseRow(row []string) (generator.Task, error) {
	if len(row) != len(Columns) {
		return generator.Task{}, errFieldCount
	}
	for i := range row {
		row[i] = strings.TrimSpace(row[i])
	}

	currency, err := generator.ParseCurrency(row[0])
	if err != nil {
		return generator.Task{}, err
	}
	kind, err := generator.ParsePatternType(row[1])
	if err != nil {
		return generator.Task{}, err
	}
	target, err := strconv.Atoi(row[3])
	if err != nil {
		return generator.Task{}, fmt.Errorf("target_count %q: %w", row[3], err)
	}
	ignoreCase, err := parseBool(row[4])
	if err != nil {
		return generator.Task{}, err
	}
	priority, err := strconv.Atoi(row[5])
	if err != nil {
		return generator.Task{}, fmt.Errorf("priority %q: %w", row[5], err)
	}

	task := generator.Task{
		Currency:    currency,
		PatternType: kind,
		Pattern:     row[2],
		TargetCount: target,
		IgnoreCase:  ignoreCase,
		Priority:    priority,
	}
	if err := task.Validate(); err != nil {
		return generator.Task{}, err
	}
	return task, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "y":
		return true, nil
	case "false", "0", "no", "n", "":
		return false, nil
	default:
		return false, fmt.Errorf("ignore_case %q: want true or false", s)
	}
}
