// Package cpu runs the vanity search on CPU goroutines.
//
// An Engine owns one task from start to finish: it sizes the worker pool from
// the pattern difficulty, consumes matches and telemetry from bounded
// channels, writes matches through a sink.Sink and shuts the workers down in
// three escalating steps.
package cpu

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Amr-9/VanityHunter/pkg/generator"
	"github.com/Amr-9/VanityHunter/pkg/generator/codec"
	"github.com/Amr-9/VanityHunter/pkg/generator/sink"
)

// State is the engine lifecycle position.
type State int32

const (
	StateIdle State = iota
	StateSizing
	StateRunning
	StateDraining
	StateFinalizing
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSizing:
		return "sizing"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateFinalizing:
		return "finalizing"
	case StateTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// ErrEngineUsed is returned when Run is called twice on one Engine.
var ErrEngineUsed = errors.New("engine already ran a task")

// Options tunes an Engine. Zero fields take the DefaultOptions value.
type Options struct {
	Workers            int // 0 sizes the pool from difficulty
	CooperativeTimeout time.Duration
	ForcedTimeout      time.Duration
	KillTimeout        time.Duration
	StatsInterval      time.Duration
	FlushInterval      time.Duration
	TelemetryInterval  time.Duration
	SendTimeout        time.Duration
	BatchAttempts      uint64
	FlushThreshold     int
	RetainTail         int
	ScalarPolicy       codec.ScalarPolicy
	Logger             zerolog.Logger
	Observer           func(generator.Stats) // Called from the monitor loop; must not block
}

// DefaultOptions returns the standard tuning.
func DefaultOptions() Options {
	return Options{
		CooperativeTimeout: 2 * time.Second,
		ForcedTimeout:      time.Second,
		KillTimeout:        500 * time.Millisecond,
		StatsInterval:      2 * time.Second,
		FlushInterval:      time.Second,
		TelemetryInterval:  time.Second,
		SendTimeout:        100 * time.Millisecond,
		BatchAttempts:      50_000,
		FlushThreshold:     1000,
		RetainTail:         100,
		ScalarPolicy:       codec.Rejection,
		Logger:             zerolog.Nop(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.CooperativeTimeout <= 0 {
		o.CooperativeTimeout = d.CooperativeTimeout
	}
	if o.ForcedTimeout <= 0 {
		o.ForcedTimeout = d.ForcedTimeout
	}
	if o.KillTimeout <= 0 {
		o.KillTimeout = d.KillTimeout
	}
	if o.StatsInterval <= 0 {
		o.StatsInterval = d.StatsInterval
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = d.FlushInterval
	}
	if o.TelemetryInterval <= 0 {
		o.TelemetryInterval = d.TelemetryInterval
	}
	if o.SendTimeout <= 0 {
		o.SendTimeout = d.SendTimeout
	}
	if o.BatchAttempts == 0 {
		o.BatchAttempts = d.BatchAttempts
	}
	if o.FlushThreshold <= 0 {
		o.FlushThreshold = d.FlushThreshold
	}
	if o.RetainTail <= 0 {
		o.RetainTail = d.RetainTail
	}
	return o
}

// Summary describes a finished task.
type Summary struct {
	Task        generator.Task
	Difficulty  generator.Difficulty
	Stats       generator.Stats
	Workers     int                   // Pool size chosen during sizing
	Records     []generator.KeyRecord // Most recent matches, at most RetainTail
	Output      string                // Committed file, "" when nothing was found
	Killed      int                   // Workers abandoned at the kill level
	Interrupted bool                  // The context was cancelled before the target was met
	State       State
}

// Engine runs a single task. Create a new Engine per task.
type Engine struct {
	opts  Options
	log   zerolog.Logger
	state atomic.Int32
	stats atomic.Pointer[generator.Stats]

	droppedResults atomic.Uint64
	droppedStats   atomic.Uint64

	// newSource builds the key source of one worker; tests replace it.
	newSource func(task generator.Task, workerID int) (keySource, error)
}

// NewEngine creates an idle engine.
func NewEngine(opts Options) *Engine {
	opts = opts.withDefaults()
	e := &Engine{opts: opts, log: opts.Logger}
	e.newSource = func(task generator.Task, _ int) (keySource, error) {
		return codec.New(task.Currency, codec.WithPolicy(opts.ScalarPolicy))
	}
	return e
}

// State returns the current lifecycle state. Safe for concurrent use.
func (e *Engine) State() State {
	return State(e.state.Load())
}

func (e *Engine) setState(s State) {
	e.state.Store(int32(s))
	e.log.Debug().Stringer("state", s).Msg("Engine state")
}

// Stats returns the latest published aggregate. Safe for concurrent use.
func (e *Engine) Stats() generator.Stats {
	if s := e.stats.Load(); s != nil {
		return *s
	}
	return generator.Stats{}
}

// SizeWorkers turns a CPU count and difficulty tier into a pool size. An
// override > 0 replaces the computed value. The result is clamped to
// [1, 2*cpus].
func SizeWorkers(cpus int, tier generator.Tier, override int) int {
	if cpus < 1 {
		cpus = 1
	}
	n := override
	if n <= 0 {
		n = int(math.Round(float64(cpus) * tier.Multiplier()))
	}
	return min(max(n, 1), 2*cpus)
}

// Run searches for task and writes matches to out. It returns when the
// target is met, ctx is cancelled or every worker has failed. Cancellation
// is a normal completion: matches found so far are committed.
func (e *Engine) Run(ctx context.Context, task generator.Task, out sink.Sink) (Summary, error) {
	if !e.state.CompareAndSwap(int32(StateIdle), int32(StateSizing)) {
		return Summary{}, ErrEngineUsed
	}
	e.log.Debug().Stringer("state", StateSizing).Msg("Engine state")

	summary := Summary{Task: task}
	// Setup failures release the sink; a streaming temp file stays on disk.
	fail := func(err error) (Summary, error) {
		if out != nil {
			if aerr := out.Abort(); aerr != nil {
				e.log.Warn().Err(aerr).Msg("Abort output")
			}
		}
		e.setState(StateTerminal)
		summary.State = StateTerminal
		return summary, err
	}

	if err := task.Validate(); err != nil {
		return fail(err)
	}
	matcher, err := generator.NewMatcher(task)
	if err != nil {
		return fail(err)
	}
	diff, err := generator.EstimateDifficulty(task.Pattern, task.PatternType, task.Currency)
	if err != nil {
		return fail(err)
	}
	summary.Difficulty = diff
	n := SizeWorkers(runtime.NumCPU(), diff.Tier, e.opts.Workers)
	summary.Workers = n

	m := newMonitor(e, task, out, n)
	for i := 0; i < n; i++ {
		src, err := e.newSource(task, i)
		if err != nil {
			m.hardCancel()
			return fail(fmt.Errorf("create key source: %w", err))
		}
		m.workers[i] = &worker{
			id:             i,
			currency:       task.Currency,
			src:            src,
			matcher:        matcher,
			results:        m.results,
			stats:          m.statsCh,
			reports:        m.reports,
			stop:           m.stop,
			hard:           m.hard,
			sendTimeout:    e.opts.SendTimeout,
			statsInterval:  e.opts.StatsInterval,
			batchCap:       e.opts.BatchAttempts,
			droppedResults: &e.droppedResults,
			droppedStats:   &e.droppedStats,
		}
	}

	e.log.Info().
		Str("task", task.String()).
		Int("workers", n).
		Stringer("tier", diff.Tier).
		Float64("probability", diff.Probability).
		Dur("projected", diff.Projected).
		Msg("Search started")

	e.setState(StateRunning)
	m.start = time.Now()
	for _, w := range m.workers {
		w.start = m.start
		m.launch(w)
	}

	m.loop(ctx)

	e.setState(StateDraining)
	summary.Killed = m.drain()

	e.setState(StateFinalizing)
	summary.Output = m.finalize()
	summary.Interrupted = ctx.Err() != nil && !m.targetMet()
	summary.Stats = m.aggregate()
	summary.Stats.Workers = 0
	summary.Records = append([]generator.KeyRecord(nil), m.tail...)
	e.stats.Store(&summary.Stats)

	e.setState(StateTerminal)
	summary.State = StateTerminal

	ev := e.log.Info()
	if m.err != nil {
		ev = e.log.Error().Err(m.err)
	}
	ev.Str("task", task.String()).
		Uint64("attempts", summary.Stats.Attempts).
		Int("found", summary.Stats.Persisted).
		Uint64("dropped", summary.Stats.DroppedResults).
		Uint64("discarded", summary.Stats.Discarded).
		Int("killed", summary.Killed).
		Str("output", summary.Output).
		Msg("Search finished")

	return summary, m.err
}
