package cpu

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Amr-9/VanityHunter/pkg/generator"
	"github.com/Amr-9/VanityHunter/pkg/generator/sink"
)

// monitor is the state of one Run. Only the Run goroutine touches it.
type monitor struct {
	e    *Engine
	log  zerolog.Logger
	task generator.Task
	out  sink.Sink
	size int

	workers    []*worker
	results    chan generator.KeyRecord
	statsCh    chan generator.WorkerStats
	reports    chan batchReport
	stop       chan struct{}
	hard       context.Context
	hardCancel context.CancelFunc

	start       time.Time
	running     int
	stopping    bool
	workerStats map[int]generator.WorkerStats
	buffer      []generator.KeyRecord // Accepted, not yet written
	tail        []generator.KeyRecord // Most recent accepted, for reporting
	discarded   uint64
	err         error
	persistErr  bool // The sink failed; nothing more is written
}

func newMonitor(e *Engine, task generator.Task, out sink.Sink, n int) *monitor {
	hard, cancel := context.WithCancel(context.Background())
	return &monitor{
		e:           e,
		log:         e.log.With().Str("task", task.String()).Logger(),
		task:        task,
		out:         out,
		size:        n,
		workers:     make([]*worker, n),
		results:     make(chan generator.KeyRecord, n*100),
		statsCh:     make(chan generator.WorkerStats, n*10),
		reports:     make(chan batchReport, n),
		stop:        make(chan struct{}),
		hard:        hard,
		hardCancel:  cancel,
		workerStats: make(map[int]generator.WorkerStats, n),
	}
}

// loop consumes both channels until the target is met, ctx is cancelled or a
// fatal error occurs.
func (m *monitor) loop(ctx context.Context) {
	flush := time.NewTicker(m.e.opts.FlushInterval)
	defer flush.Stop()
	telemetry := time.NewTicker(m.e.opts.TelemetryInterval)
	defer telemetry.Stop()

	for !m.stopping {
		select {
		case rec := <-m.results:
			m.onResult(rec)
		case ws := <-m.statsCh:
			m.onStats(ws)
		case r := <-m.reports:
			m.onReport(r)
		case <-flush.C:
			m.flush()
		case <-telemetry.C:
			m.publish()
		case <-ctx.Done():
			m.log.Info().Msg("Cancellation received, stopping workers")
			m.stopping = true
		}
	}
}

func (m *monitor) accepted() int {
	return m.out.Count() + len(m.buffer)
}

func (m *monitor) targetMet() bool {
	return m.task.TargetCount > 0 && m.accepted() >= m.task.TargetCount
}

func (m *monitor) onResult(rec generator.KeyRecord) {
	if m.targetMet() {
		m.discarded++
		return
	}

	m.buffer = append(m.buffer, rec)
	m.tail = append(m.tail, rec)
	if over := len(m.tail) - m.e.opts.RetainTail; over > 0 {
		m.tail = append(m.tail[:0], m.tail[over:]...)
	}
	m.log.Info().
		Str("address", rec.Address).
		Int("worker", rec.WorkerID).
		Uint64("attempts", rec.Attempts).
		Msg("Match found")

	switch {
	case m.targetMet():
		m.flush()
		m.stopping = true
	case len(m.buffer) >= m.e.opts.FlushThreshold:
		m.flush()
	}
}

// onStats keeps the newest snapshot per worker. Snapshots may arrive out of
// order with batch reports, so an older one never replaces a newer one.
func (m *monitor) onStats(ws generator.WorkerStats) {
	if prev, ok := m.workerStats[ws.WorkerID]; ok && ws.Attempts < prev.Attempts {
		return
	}
	m.workerStats[ws.WorkerID] = ws
}

func (m *monitor) onReport(r batchReport) {
	m.onStats(r.stats)
	m.running--

	switch r.reason {
	case exitFailed:
		m.log.Error().Err(r.err).Int("worker", r.stats.WorkerID).Msg("Worker retired")
		if m.running == 0 && !m.stopping {
			m.err = fmt.Errorf("all workers failed: %w", r.err)
			m.stopping = true
		}
	case exitCapped, exitTarget:
		if m.stopping || m.targetMet() {
			return
		}
		m.log.Debug().
			Int("worker", r.stats.WorkerID).
			Stringer("reason", r.reason).
			Uint64("attempts", r.stats.Attempts).
			Msg("Re-dispatching worker")
		m.launch(m.workers[r.stats.WorkerID])
	}
}

// launch starts the next batch of w.
func (m *monitor) launch(w *worker) {
	m.running++
	go w.run(m.batchTarget())
}

// batchTarget splits the remaining matches evenly across the pool.
func (m *monitor) batchTarget() uint64 {
	if m.task.TargetCount == 0 {
		return 0
	}
	remaining := max(m.task.TargetCount-m.accepted(), 1)
	return uint64((remaining + m.size - 1) / m.size)
}

// flush writes the buffer through the sink. A failure is fatal for the task.
func (m *monitor) flush() {
	if len(m.buffer) == 0 || m.persistErr {
		return
	}
	if err := m.out.Write(m.buffer); err != nil {
		m.fail("write", err)
		return
	}
	m.buffer = m.buffer[:0]
}

func (m *monitor) fail(op string, err error) {
	var perr *generator.PersistenceError
	if !errors.As(err, &perr) {
		err = &generator.PersistenceError{Op: op, Err: err}
	}
	m.log.Error().Err(err).Msg("Persisting matches failed")
	m.err = err
	m.persistErr = true
	m.stopping = true
}

func (m *monitor) aggregate() generator.Stats {
	var s generator.Stats
	for _, ws := range m.workerStats {
		s.Attempts += ws.Attempts
		s.Matches += ws.Found
	}
	if !m.start.IsZero() {
		s.ElapsedSecs = time.Since(m.start).Seconds()
	}
	if s.ElapsedSecs > 0 {
		s.HashRate = float64(s.Attempts) / s.ElapsedSecs
	}
	s.Persisted = m.out.Count()
	s.Found = s.Persisted + len(m.buffer)
	s.Workers = m.running
	s.DroppedResults = m.e.droppedResults.Load()
	s.DroppedStats = m.e.droppedStats.Load()
	s.Discarded = m.discarded
	return s
}

// publish stores the aggregate for Engine.Stats and notifies the observer.
func (m *monitor) publish() {
	s := m.aggregate()
	m.e.stats.Store(&s)
	if m.e.opts.Observer != nil {
		m.e.opts.Observer(s)
	}
	m.log.Debug().
		Uint64("attempts", s.Attempts).
		Float64("speed", s.HashRate).
		Int("found", s.Found).
		Int("workers", s.Workers).
		Uint64("dropped", s.DroppedResults).
		Msg("Progress")
}
