package batch

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Amr-9/VanityHunter/pkg/generator"
	"github.com/Amr-9/VanityHunter/pkg/generator/cpu"
	"github.com/Amr-9/VanityHunter/pkg/generator/sink"
)

// Status is the outcome of one task.
type Status string

const (
	StatusCompleted   Status = "completed"   // Target met
	StatusInterrupted Status = "interrupted" // Cancelled; partial results committed
	StatusSkipped     Status = "skipped"     // Invalid task
	StatusDeclined    Status = "declined"    // Long-running task not confirmed
	StatusFailed      Status = "failed"      // Persistence or generation failure
)

// Result is the outcome of one task.
type Result struct {
	Task    generator.Task
	Status  Status
	Summary cpu.Summary
	Err     error
}

// Runner executes tasks sequentially, one Engine and one sink per task.
type Runner struct {
	OutputDir string
	Options   cpu.Options
	Log       zerolog.Logger

	// Confirm is asked before tasks projected to run longer than
	// generator.LongRunningThreshold. Nil accepts every task.
	Confirm func(task generator.Task, d generator.Difficulty) bool

	// OnStart is called once the engine of a task exists, before it runs.
	OnStart func(index int, task generator.Task, e *cpu.Engine)
	// OnFinish is called after every task, including skipped ones.
	OnFinish func(index int, res Result)

	now func() time.Time
}

// Run executes tasks in order. It stops after the first interrupted task;
// later tasks are not started. Every other failure moves on to the next task.
func (r *Runner) Run(ctx context.Context, tasks []generator.Task) []Result {
	results := make([]Result, 0, len(tasks))
	for i, task := range tasks {
		if ctx.Err() != nil {
			r.Log.Warn().Int("remaining", len(tasks)-i).Msg("Batch interrupted, remaining tasks not started")
			break
		}

		res := r.runTask(ctx, i, task)
		results = append(results, res)
		if r.OnFinish != nil {
			r.OnFinish(i, res)
		}
		if res.Status == StatusInterrupted {
			break
		}
	}
	return results
}

// RunTask executes a single task.
func (r *Runner) RunTask(ctx context.Context, task generator.Task) Result {
	return r.runTask(ctx, 0, task)
}

func (r *Runner) runTask(ctx context.Context, index int, task generator.Task) Result {
	log := r.Log.With().Str("task", task.String()).Logger()
	res := Result{Task: task}

	if err := task.Validate(); err != nil {
		log.Warn().Err(err).Msg("Task skipped")
		res.Status, res.Err = StatusSkipped, err
		return res
	}

	diff, err := generator.EstimateDifficulty(task.Pattern, task.PatternType, task.Currency)
	if err != nil {
		res.Status, res.Err = StatusSkipped, err
		return res
	}
	if diff.LongRunning() && r.Confirm != nil && !r.Confirm(task, diff) {
		log.Info().Dur("projected", diff.Projected).Msg("Task declined")
		res.Status = StatusDeclined
		return res
	}

	now := time.Now
	if r.now != nil {
		now = r.now
	}
	out, err := sink.Open(r.OutputDir, task, now())
	if err != nil {
		log.Error().Err(err).Msg("Open output")
		res.Status, res.Err = StatusFailed, err
		return res
	}

	opts := r.Options
	opts.Logger = log
	engine := cpu.NewEngine(opts)
	if r.OnStart != nil {
		r.OnStart(index, task, engine)
	}

	res.Summary, res.Err = engine.Run(ctx, task, out)
	res.Status = classify(res.Summary, res.Err)
	return res
}

func classify(s cpu.Summary, err error) Status {
	var cfgErr *generator.ConfigurationError
	switch {
	case err == nil && s.Interrupted:
		return StatusInterrupted
	case err == nil:
		return StatusCompleted
	case errors.As(err, &cfgErr):
		return StatusSkipped
	default:
		return StatusFailed
	}
}
