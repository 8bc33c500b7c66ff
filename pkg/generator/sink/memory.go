package sink

import (
	"encoding/csv"

	"github.com/Amr-9/VanityHunter/pkg/generator"
)

// MemorySink buffers records and writes the file once on Commit.
type MemorySink struct {
	dir     string
	name    string
	task    generator.Task
	records []generator.KeyRecord
}

func (m *MemorySink) Write(records []generator.KeyRecord) error {
	m.records = append(m.records, records...)
	return nil
}

func (m *MemorySink) Commit() (string, error) {
	if len(m.records) == 0 {
		return "", nil
	}

	f, err := createTemp(m.dir, m.name)
	if err != nil {
		return "", err
	}
	temp := f.Name()

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		f.Close()
		return "", &generator.PersistenceError{Op: "write", Path: temp, Err: err}
	}
	if err := writeRows(w, m.task, m.records); err != nil {
		f.Close()
		return "", &generator.PersistenceError{Op: "write", Path: temp, Err: err}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return "", &generator.PersistenceError{Op: "sync", Path: temp, Err: err}
	}
	if err := f.Close(); err != nil {
		return "", &generator.PersistenceError{Op: "close", Path: temp, Err: err}
	}

	return publish(temp, m.dir, m.name)
}

func (m *MemorySink) Abort() error {
	m.records = nil
	return nil
}

func (m *MemorySink) Count() int { return len(m.records) }

var _ Sink = (*MemorySink)(nil)
var _ Sink = (*StreamSink)(nil)
