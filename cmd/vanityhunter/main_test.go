package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/Amr-9/VanityHunter/internal/config"
	"github.com/Amr-9/VanityHunter/pkg/batch"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return out.String(), err
}

func csvFiles(t *testing.T, dir string) []string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		t.Fatal(err)
	}
	return files
}

func TestSingleTask(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "", "--currency", "eth", "--prefix", "0xa", "-n", "2", "-o", dir, "-y", "--log-level", "error")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "ETH prefix=a completed") {
		t.Errorf("output:\n%s", out)
	}

	files := csvFiles(t, dir)
	if len(files) != 1 || !strings.HasPrefix(filepath.Base(files[0]), "ETH_prefix_a_") {
		t.Fatalf("output files = %v", files)
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Split(strings.TrimSpace(string(data)), "\n"); len(lines) != 3 {
		t.Errorf("CSV has %d lines, want header and 2 rows:\n%s", len(lines), data)
	}
}

func TestBatchFile(t *testing.T) {
	dir := t.TempDir()
	tasks := filepath.Join(dir, "tasks.csv")
	content := "currency,pattern_type,pattern,target_count,ignore_case,priority\n" +
		"SOL,prefix,abc,1,false,1\n" +
		"TRX,prefix,T,1,false,2\n" +
		"BSC,suffix,f,1,false,1\n"
	if err := os.WriteFile(tasks, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "out")

	out, err := execute(t, "", "-c", tasks, "-o", outDir, "-y", "--log-level", "error")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, s := range []string{"line 2", "PLAN (2 tasks)", "completed 2", "2 keys found"} {
		if !strings.Contains(out, s) {
			t.Errorf("output missing %q:\n%s", s, out)
		}
	}
	// BSC has priority 1 and runs first.
	if strings.Index(out, "BSC suffix=f completed") > strings.Index(out, "TRX prefix=T completed") {
		t.Error("tasks ran out of priority order")
	}
	if files := csvFiles(t, outDir); len(files) != 2 {
		t.Errorf("output files = %v", files)
	}
}

func TestInvalidInvocations(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"both patterns", []string{"--currency", "btc", "--prefix", "1A", "--suffix", "z"}, config.ErrBothPatterns},
		{"task and batch", []string{"-c", "tasks.csv", "--currency", "btc", "--prefix", "1A"}, config.ErrTaskAndBatch},
		{"missing pattern", []string{"--currency", "btc"}, config.ErrNoTaskSpecified},
		{"negative workers", []string{"-c", "tasks.csv", "--workers=-1"}, config.ErrNegativeWorkers},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, "", tt.args...); !errors.Is(err, tt.want) {
				t.Errorf("Execute() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := execute(t, "", "--currency", "btc", "--prefix", "2A", "-o", t.TempDir()); err == nil {
		t.Error("invalid pattern accepted")
	}
}

func TestInteractiveEndOfInput(t *testing.T) {
	out, err := execute(t, "", "-o", t.TempDir())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "SELECT NETWORK") {
		t.Errorf("output:\n%s", out)
	}
}

func TestInteractiveSearch(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "eth\nb\n\n1\nq\n", "-o", dir, "--log-level", "error")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "ETH prefix=b completed") {
		t.Errorf("output:\n%s", out)
	}
	if files := csvFiles(t, dir); len(files) != 1 {
		t.Errorf("output files = %v", files)
	}
}

func TestExitStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []batch.Status
		total    int
		want     error
	}{
		{"all completed", []batch.Status{batch.StatusCompleted, batch.StatusDeclined}, 2, nil},
		{"failure", []batch.Status{batch.StatusCompleted, batch.StatusFailed}, 2, errTasksFailed},
		{"interrupted", []batch.Status{batch.StatusInterrupted}, 3, errInterrupted},
		{"not started", []batch.Status{batch.StatusCompleted}, 2, errInterrupted},
	}
	for _, tt := range tests {
		results := make([]batch.Result, len(tt.statuses))
		for i, s := range tt.statuses {
			results[i].Status = s
		}
		if got := exitStatus(results, tt.total); !errors.Is(got, tt.want) {
			t.Errorf("%s: exitStatus() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
