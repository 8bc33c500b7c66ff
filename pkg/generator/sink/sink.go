// Package sink persists found keys as one CSV file per task.
//
// Large or unbounded tasks stream to a temporary file that is fsynced after
// every batch and linked into place on Commit; a crash leaves the temporary
// file behind and no canonical file. Small tasks are buffered in memory and
// written once.
package sink

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Amr-9/VanityHunter/pkg/generator"
)

// Sink receives matches for a single task.
type Sink interface {
	// Write persists records. The slice is not retained.
	Write(records []generator.KeyRecord) error
	// Commit finalizes the output and returns its path, or "" when nothing
	// was written.
	Commit() (string, error)
	// Abort releases resources without publishing the canonical file.
	Abort() error
	// Count returns the number of records written so far.
	Count() int
}

// StreamingThreshold is the largest target count kept in memory.
const StreamingThreshold = 10

// TempPrefix marks in-progress files.
const TempPrefix = "temp_"

const fileMode = 0o600

// Header lists the CSV columns.
var Header = []string{"Currency", "Pattern_Type", "Pattern", "Address", "Private_Key", "Worker_ID", "Found_Time", "Attempts"}

// UseStreaming reports whether a task with the given target count streams
// to disk.
func UseStreaming(target int) bool {
	return target == 0 || target > StreamingThreshold
}

// Open creates dir if needed and returns the sink for task.
func Open(dir string, task generator.Task, now time.Time) (Sink, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, &generator.PersistenceError{Op: "mkdir", Path: dir, Err: err}
	}
	name := FileName(task, now)
	if UseStreaming(task.TargetCount) {
		return openStream(dir, name, task)
	}
	return &MemorySink{dir: dir, name: name, task: task}, nil
}

// FileName returns {currency}_{pattern_type}_{pattern}_{YYYYMMDD_HHMMSS}.csv.
func FileName(task generator.Task, now time.Time) string {
	return fmt.Sprintf("%s_%s_%s_%s.csv", task.Currency, task.PatternType, task.Pattern, now.Format("20060102_150405"))
}

func row(task generator.Task, rec generator.KeyRecord) []string {
	return []string{
		rec.Currency.String(),
		string(task.PatternType),
		task.Pattern,
		rec.Address,
		rec.PrivateKey,
		strconv.Itoa(rec.WorkerID),
		rec.FoundTime.Format(time.RFC3339),
		strconv.FormatUint(rec.Attempts, 10),
	}
}

// candidate returns dir/name for n == 0 and dir/base_N.ext otherwise.
func candidate(dir, name string, n int) string {
	if n == 0 {
		return filepath.Join(dir, name)
	}
	ext := filepath.Ext(name)
	return filepath.Join(dir, fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), n, ext))
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// createTemp opens a fresh temp_ file next to the final name. O_EXCL keeps
// concurrent runs from sharing one.
func createTemp(dir, name string) (*os.File, error) {
	ext := filepath.Ext(name)
	base := TempPrefix + strings.TrimSuffix(name, ext)
	path := filepath.Join(dir, base+ext)
	for i := 1; ; i++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fileMode)
		if err == nil {
			return f, nil
		}
		if !os.IsExist(err) {
			return nil, &generator.PersistenceError{Op: "create", Path: path, Err: err}
		}
		path = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, i, ext))
	}
}

// publish moves a finished temp file to the first free canonical path. A
// hard link never replaces an existing file, so concurrent runs cannot clobber
// each other.
func publish(tempPath, dir, name string) (string, error) {
	_ = setHidden(tempPath, false)
	for n := 0; ; n++ {
		final := candidate(dir, name, n)
		err := os.Link(tempPath, final)
		switch {
		case err == nil:
			if err := os.Remove(tempPath); err != nil {
				return "", &generator.PersistenceError{Op: "remove", Path: tempPath, Err: err}
			}
		case errors.Is(err, fs.ErrExist):
			continue
		default:
			// No hard links on this filesystem: rename, which is only
			// collision-safe within one process.
			if exists(final) {
				continue
			}
			if err := os.Rename(tempPath, final); err != nil {
				return "", &generator.PersistenceError{Op: "rename", Path: final, Err: err}
			}
		}
		syncDir(dir)
		return final, nil
	}
}

// syncDir makes a rename durable. Not every platform can fsync a directory,
// so failures are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

func writeRows(w *csv.Writer, task generator.Task, records []generator.KeyRecord) error {
	for _, rec := range records {
		if err := w.Write(row(task, rec)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
