package sink

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Amr-9/VanityHunter/pkg/generator"
)

var testTime = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func testTask(target int) generator.Task {
	return generator.Task{
		Currency:    generator.BTC,
		PatternType: generator.Prefix,
		Pattern:     "1A",
		TargetCount: target,
		Priority:    1,
	}
}

func records(n int) []generator.KeyRecord {
	out := make([]generator.KeyRecord, n)
	for i := range out {
		out[i] = generator.KeyRecord{
			Address:    "1Aaddress",
			PrivateKey: "Kkey",
			Currency:   generator.BTC,
			FoundTime:  testTime,
			WorkerID:   i % 3,
			Attempts:   uint64(100 + i),
		}
	}
	return out
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestFileName(t *testing.T) {
	got := FileName(testTask(1), testTime)
	if want := "BTC_prefix_1A_20240309_140507.csv"; got != want {
		t.Errorf("FileName() = %q, want %q", got, want)
	}
}

func TestUseStreaming(t *testing.T) {
	tests := map[int]bool{0: true, 1: false, 10: false, 11: true, 1000: true}
	for target, want := range tests {
		if got := UseStreaming(target); got != want {
			t.Errorf("UseStreaming(%d) = %v, want %v", target, got, want)
		}
	}
}

func TestOpenSelectsImplementation(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir, testTask(5), testTime)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*MemorySink); !ok {
		t.Errorf("target 5: got %T, want *MemorySink", s)
	}

	s, err = Open(filepath.Join(dir, "nested", "out"), testTask(0), testTime)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Abort()
	if _, ok := s.(*StreamSink); !ok {
		t.Errorf("target 0: got %T, want *StreamSink", s)
	}
}

func TestStreamCommit(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, testTask(0), testTime)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Write(records(3)); err != nil {
		t.Fatal(err)
	}
	if err := s.Write(records(2)); err != nil {
		t.Fatal(err)
	}
	if s.Count() != 5 {
		t.Errorf("Count() = %d, want 5", s.Count())
	}

	path, err := s.Commit()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "BTC_prefix_1A_20240309_140507.csv" {
		t.Errorf("Commit() path = %s", path)
	}

	rows := readCSV(t, path)
	if len(rows) != 6 {
		t.Fatalf("rows = %d, want header + 5", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(Header, ",") {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][6] != "2024-03-09T14:05:07Z" || rows[1][7] != "100" {
		t.Errorf("first row = %v", rows[1])
	}

	for _, name := range listDir(t, dir) {
		if strings.HasPrefix(name, TempPrefix) {
			t.Errorf("temp file %s left after commit", name)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if os.PathSeparator == '/' && info.Mode().Perm() != fileMode {
		t.Errorf("mode = %v, want %v", info.Mode().Perm(), os.FileMode(fileMode))
	}
}

func TestStreamCrashLeavesTemp(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, testTask(0), testTime)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Write(records(4)); err != nil {
		t.Fatal(err)
	}
	// No Commit: the process dies here.
	temp := s.(*StreamSink).TempPath()

	if _, err := os.Stat(filepath.Join(dir, FileName(testTask(0), testTime))); !os.IsNotExist(err) {
		t.Errorf("canonical file exists before commit: %v", err)
	}
	if rows := readCSV(t, temp); len(rows) != 5 {
		t.Errorf("temp rows = %d, want header + 4", len(rows))
	}

	if err := s.Abort(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(temp); err != nil {
		t.Errorf("Abort removed temp file: %v", err)
	}
}

func TestStreamEmptyCommitRemovesTemp(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, testTask(0), testTime)
	if err != nil {
		t.Fatal(err)
	}
	path, err := s.Commit()
	if err != nil {
		t.Fatal(err)
	}
	if path != "" {
		t.Errorf("Commit() = %q, want empty", path)
	}
	if names := listDir(t, dir); len(names) != 0 {
		t.Errorf("dir not empty: %v", names)
	}
}

func TestStreamWriteAfterCommit(t *testing.T) {
	s, err := Open(t.TempDir(), testTask(0), testTime)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Commit(); err != nil {
		t.Fatal(err)
	}
	var perr *generator.PersistenceError
	if err := s.Write(records(1)); !errors.As(err, &perr) {
		t.Errorf("Write() after Commit error = %v", err)
	}
}

func TestMemoryCommit(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, testTask(3), testTime)
	if err != nil {
		t.Fatal(err)
	}
	if names := listDir(t, dir); len(names) != 0 {
		t.Errorf("memory sink wrote before commit: %v", names)
	}

	if err := s.Write(records(3)); err != nil {
		t.Fatal(err)
	}
	path, err := s.Commit()
	if err != nil {
		t.Fatal(err)
	}
	if rows := readCSV(t, path); len(rows) != 4 {
		t.Errorf("rows = %d, want 4", len(rows))
	}
	if names := listDir(t, dir); len(names) != 1 {
		t.Errorf("dir = %v, want only the output file", names)
	}
}

func TestMemoryEmptyCommit(t *testing.T) {
	dir := t.TempDir()
	s, _ := Open(dir, testTask(1), testTime)
	path, err := s.Commit()
	if err != nil || path != "" {
		t.Errorf("Commit() = %q, %v", path, err)
	}
	if names := listDir(t, dir); len(names) != 0 {
		t.Errorf("dir not empty: %v", names)
	}
}

func TestCollisionSuffix(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 3; i++ {
		s, err := Open(dir, testTask(1), testTime)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Write(records(1)); err != nil {
			t.Fatal(err)
		}
		path, err := s.Commit()
		if err != nil {
			t.Fatal(err)
		}
		paths = append(paths, filepath.Base(path))
	}

	want := []string{
		"BTC_prefix_1A_20240309_140507.csv",
		"BTC_prefix_1A_20240309_140507_1.csv",
		"BTC_prefix_1A_20240309_140507_2.csv",
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("commit %d path = %s, want %s", i, paths[i], want[i])
		}
	}
}

func TestCommitNeverReplacesExistingFile(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, testTask(0), testTime)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Write(records(2)); err != nil {
		t.Fatal(err)
	}

	// Another run publishes the same name while this one is still streaming.
	taken := filepath.Join(dir, FileName(testTask(0), testTime))
	if err := os.WriteFile(taken, []byte("other run\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	path, err := s.Commit()
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if path == taken {
		t.Fatalf("Commit() reused %s", taken)
	}
	if want := strings.TrimSuffix(taken, ".csv") + "_1.csv"; path != want {
		t.Errorf("Commit() path = %s, want %s", path, want)
	}
	if data, _ := os.ReadFile(taken); string(data) != "other run\n" {
		t.Errorf("existing file overwritten: %q", data)
	}
	if _, err := os.Stat(s.(*StreamSink).TempPath()); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}
}

func TestConcurrentTempNames(t *testing.T) {
	dir := t.TempDir()
	a, err := Open(dir, testTask(0), testTime)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Abort()
	b, err := Open(dir, testTask(0), testTime)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Abort()

	if a.(*StreamSink).TempPath() == b.(*StreamSink).TempPath() {
		t.Error("two open sinks share a temp file")
	}
}
