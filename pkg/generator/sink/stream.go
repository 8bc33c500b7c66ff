package sink

import (
	"encoding/csv"
	"errors"
	"os"

	"github.com/Amr-9/VanityHunter/pkg/generator"
)

var errClosed = errors.New("sink already closed")

// StreamSink appends every batch to a temporary file and fsyncs it.
type StreamSink struct {
	dir  string
	name string
	task generator.Task

	file   *os.File
	w      *csv.Writer
	count  int
	closed bool
}

func openStream(dir, name string, task generator.Task) (*StreamSink, error) {
	f, err := createTemp(dir, name)
	if err != nil {
		return nil, err
	}
	_ = setHidden(f.Name(), true)

	s := &StreamSink{dir: dir, name: name, task: task, file: f, w: csv.NewWriter(f)}
	if err := s.w.Write(Header); err != nil {
		return nil, s.fail("write", err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return nil, s.fail("write", err)
	}
	if err := f.Sync(); err != nil {
		return nil, s.fail("sync", err)
	}
	return s, nil
}

// fail closes the file and wraps err. The temp file stays on disk.
func (s *StreamSink) fail(op string, err error) error {
	s.closed = true
	_ = s.file.Close()
	return &generator.PersistenceError{Op: op, Path: s.file.Name(), Err: err}
}

// TempPath returns the path of the in-progress file.
func (s *StreamSink) TempPath() string { return s.file.Name() }

func (s *StreamSink) Write(records []generator.KeyRecord) error {
	if s.closed {
		return &generator.PersistenceError{Op: "write", Path: s.file.Name(), Err: errClosed}
	}
	if len(records) == 0 {
		return nil
	}
	if err := writeRows(s.w, s.task, records); err != nil {
		return s.fail("write", err)
	}
	if err := s.file.Sync(); err != nil {
		return s.fail("sync", err)
	}
	s.count += len(records)
	return nil
}

func (s *StreamSink) Commit() (string, error) {
	if s.closed {
		return "", &generator.PersistenceError{Op: "commit", Path: s.file.Name(), Err: errClosed}
	}
	s.closed = true
	temp := s.file.Name()
	if err := s.file.Close(); err != nil {
		return "", &generator.PersistenceError{Op: "close", Path: temp, Err: err}
	}

	if s.count == 0 {
		if err := os.Remove(temp); err != nil {
			return "", &generator.PersistenceError{Op: "remove", Path: temp, Err: err}
		}
		return "", nil
	}
	return publish(temp, s.dir, s.name)
}

// Abort closes the temp file and leaves it in place for recovery.
func (s *StreamSink) Abort() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.file.Close()
}

func (s *StreamSink) Count() int { return s.count }
