package ui

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/klauspost/cpuid/v2"

	"github.com/Amr-9/VanityHunter/pkg/batch"
	"github.com/Amr-9/VanityHunter/pkg/generator"
)

// maxPrinted bounds the records shown per task; the CSV holds all of them.
const maxPrinted = 10

var (
	colorTitle = color.New(color.FgCyan, color.Bold)
	colorLabel = color.New(color.FgMagenta, color.Bold)
	colorValue = color.New(color.FgYellow)
	colorOK    = color.New(color.FgGreen, color.Bold)
	colorWarn  = color.New(color.FgYellow, color.Bold)
	colorError = color.New(color.FgRed, color.Bold)
	colorDim   = color.New(color.Faint)
)

// PrintWelcomeBanner shows the program name and the host CPU.
func PrintWelcomeBanner(w io.Writer, version string) {
	fmt.Fprintln(w)
	colorTitle.Fprintln(w, "  ╔══════════════════════════════════════════════════════════╗")
	colorTitle.Fprintf(w, "  ║   VANITY HUNTER  %-40s║\n", "v"+version)
	colorTitle.Fprintln(w, "  ╚══════════════════════════════════════════════════════════╝")

	brand := strings.TrimSpace(cpuid.CPU.BrandName)
	if brand == "" {
		brand = runtime.GOARCH
	}
	colorDim.Fprintf(w, "    %s • %d logical cores", brand, runtime.NumCPU())
	if cpuid.CPU.PhysicalCores > 0 {
		colorDim.Fprintf(w, " (%d physical)", cpuid.CPU.PhysicalCores)
	}
	if feats := hashFeatures(); feats != "" {
		colorDim.Fprintf(w, " • %s", feats)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)
}

// hashFeatures lists the CPU extensions that speed up SHA-256 hashing.
func hashFeatures() string {
	var feats []string
	for _, f := range []struct {
		id   cpuid.FeatureID
		name string
	}{
		{cpuid.SHA, "SHA-NI"},
		{cpuid.AVX2, "AVX2"},
		{cpuid.AVX512F, "AVX512"},
		{cpuid.ASIMD, "NEON"},
	} {
		if cpuid.CPU.Supports(f.id) {
			feats = append(feats, f.name)
		}
	}
	return strings.Join(feats, " ")
}

// PrintTaskPlan lists tasks in execution order with their difficulty.
func PrintTaskPlan(w io.Writer, tasks []generator.Task) {
	colorLabel.Fprintf(w, "    📅 PLAN (%d tasks)\n", len(tasks))
	for i, task := range tasks {
		target := "∞"
		if task.TargetCount > 0 {
			target = FormatNumber(uint64(task.TargetCount))
		}
		fmt.Fprintf(w, "    %2d. %-6s %s=%s ", i+1, task.Currency, task.PatternType, colorValue.Sprint(task.Pattern))
		d, err := generator.EstimateDifficulty(task.Pattern, task.PatternType, task.Currency)
		if err != nil {
			colorError.Fprintf(w, "(%v)\n", err)
			continue
		}
		colorDim.Fprintf(w, "×%s priority=%d %s 1/%s ~%s\n",
			target, task.Priority, d.Tier, FormatProbability(d.Probability), FormatDuration(d.Projected))
	}
	fmt.Fprintln(w)
}

// PrintDiagnostics reports task file rows that were skipped.
func PrintDiagnostics(w io.Writer, diags []*batch.RowError) {
	for _, d := range diags {
		colorWarn.Fprintf(w, "    ⚠ %v, skipped\n", d)
	}
	if len(diags) > 0 {
		fmt.Fprintln(w)
	}
}

// PrintFound shows one found key.
func PrintFound(w io.Writer, rec generator.KeyRecord) {
	colorOK.Fprintf(w, "    ✨ %s\n", rec.Address)
	colorLabel.Fprint(w, "       🔑 ")
	colorValue.Fprintln(w, rec.PrivateKey)
}

// PrintResult summarizes one finished task.
func PrintResult(w io.Writer, res batch.Result) {
	s := res.Summary.Stats
	fmt.Fprintln(w)
	switch res.Status {
	case batch.StatusCompleted:
		colorOK.Fprintf(w, "    ✓ %s completed\n", res.Task)
	case batch.StatusInterrupted:
		colorWarn.Fprintf(w, "    ⏸ %s interrupted\n", res.Task)
	case batch.StatusDeclined:
		colorDim.Fprintf(w, "    ↷ %s declined\n", res.Task)
		return
	default:
		colorError.Fprintf(w, "    ✗ %s %s: %v\n", res.Task, res.Status, res.Err)
		if res.Status == batch.StatusSkipped {
			return
		}
	}

	elapsed := time.Duration(s.ElapsedSecs * float64(time.Second))
	fmt.Fprintf(w, "      ⏱  %s   📊 %s attempts   ⚡ %s   🎯 %d found\n",
		FormatDuration(elapsed), FormatNumber(s.Attempts), FormatHashRate(s.HashRate), s.Persisted)
	if s.DroppedResults > 0 || s.Discarded > 0 || res.Summary.Killed > 0 {
		colorWarn.Fprintf(w, "      dropped %d, discarded %d, killed workers %d\n",
			s.DroppedResults, s.Discarded, res.Summary.Killed)
	}
	records := res.Summary.Records
	if len(records) > maxPrinted {
		colorDim.Fprintf(w, "      showing the last %d of %d\n", maxPrinted, len(records))
		records = records[len(records)-maxPrinted:]
	}
	for _, rec := range records {
		PrintFound(w, rec)
	}
	if res.Summary.Output != "" {
		colorLabel.Fprint(w, "      💾 ")
		fmt.Fprintln(w, res.Summary.Output)
	}
}

// PrintBatchSummary counts task outcomes.
func PrintBatchSummary(w io.Writer, results []batch.Result, total int) {
	counts := map[batch.Status]int{}
	found := 0
	for _, r := range results {
		counts[r.Status]++
		found += r.Summary.Stats.Persisted
	}
	fmt.Fprintln(w)
	colorTitle.Fprintln(w, "    ══════════════════ BATCH SUMMARY ══════════════════")
	fmt.Fprintf(w, "    completed %d • interrupted %d • skipped %d • declined %d • failed %d • not started %d\n",
		counts[batch.StatusCompleted], counts[batch.StatusInterrupted], counts[batch.StatusSkipped],
		counts[batch.StatusDeclined], counts[batch.StatusFailed], total-len(results))
	colorOK.Fprintf(w, "    %d keys found\n", found)
	colorError.Fprintln(w, "    ⚠  KEEP YOUR PRIVATE KEYS SECRET!")
}

// FormatHashRate formats hash rate nicely
func FormatHashRate(rate float64) string {
	if rate >= 1000000 {
		return fmt.Sprintf("%.1fM/s", rate/1000000)
	}
	if rate >= 1000 {
		return fmt.Sprintf("%.1fK/s", rate/1000)
	}
	return fmt.Sprintf("%.0f/s", rate)
}

// FormatProbability prints small values in full and large ones in
// scientific notation.
func FormatProbability(p float64) string {
	if p < 1e15 {
		return FormatNumber(uint64(p))
	}
	return fmt.Sprintf("%.2e", p)
}

// FormatNumber adds commas to large numbers
func FormatNumber(n uint64) string {
	s := fmt.Sprintf("%d", n)
	if n < 1000 {
		return s
	}
	result := make([]byte, 0, len(s)+(len(s)-1)/3)
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}
	return string(result)
}

// FormatDuration formats duration in a human-readable way
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	if d < 24*time.Hour {
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		return fmt.Sprintf("%dh %dm", h, m)
	}
	days := d.Hours() / 24
	if days < 365 {
		return fmt.Sprintf("%.1f days", days)
	}
	return fmt.Sprintf("%.1f years", days/365)
}
