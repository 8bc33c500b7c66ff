package cpu

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Amr-9/VanityHunter/pkg/generator"
	"github.com/Amr-9/VanityHunter/pkg/generator/codec"
)

// keySource produces candidate keys. *codec.Codec is the production source.
type keySource interface {
	Generate() (codec.Key, error)
}

type exitReason int

const (
	exitStopped exitReason = iota // stop signal or hard context observed
	exitTarget                    // batch target reached
	exitCapped                    // batch attempt cap reached
	exitFailed                    // key generation failed
)

func (r exitReason) String() string {
	switch r {
	case exitStopped:
		return "stopped"
	case exitTarget:
		return "target"
	case exitCapped:
		return "capped"
	case exitFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// batchReport is posted once per batch on the completion channel.
type batchReport struct {
	stats  generator.WorkerStats
	reason exitReason
	err    error
}

// worker is one search goroutine. Its counters are owned by the goroutine
// running the current batch and survive re-dispatch.
type worker struct {
	id       int
	currency generator.Currency
	src      keySource
	matcher  *generator.Matcher

	results chan<- generator.KeyRecord
	stats   chan<- generator.WorkerStats
	reports chan<- batchReport
	stop    <-chan struct{}
	hard    context.Context

	sendTimeout   time.Duration
	statsInterval time.Duration
	batchCap      uint64

	droppedResults *atomic.Uint64
	droppedStats   *atomic.Uint64

	start    time.Time
	attempts uint64
	found    uint64
	dropped  uint64
}

// run searches until the batch ends and then posts exactly one report.
// A zero target means the batch only ends on the cap or the stop signal.
func (w *worker) run(target uint64) {
	var (
		batchAttempts uint64
		batchFound    uint64
		reason        exitReason
		err           error
		lastStats     = time.Now()
	)

loop:
	for {
		select {
		case <-w.stop:
			reason = exitStopped
			break loop
		case <-w.hard.Done():
			reason = exitStopped
			break loop
		default:
		}

		if w.batchCap > 0 && batchAttempts >= w.batchCap {
			reason = exitCapped
			break
		}

		key, genErr := w.src.Generate()
		if genErr != nil {
			reason = exitFailed
			err = &generator.GenerationError{WorkerID: w.id, Err: genErr}
			break
		}
		w.attempts++
		batchAttempts++

		if w.matcher.Matches(key.Address) {
			w.found++
			batchFound++
			rec := generator.KeyRecord{
				Address:    key.Address,
				PrivateKey: key.EncodedKey,
				Currency:   w.currency,
				FoundTime:  time.Now(),
				WorkerID:   w.id,
				Attempts:   w.attempts,
			}
			if !w.sendResult(rec) {
				w.dropped++
				w.droppedResults.Add(1)
			}
			if target > 0 && batchFound >= target {
				reason = exitTarget
				break
			}
		}

		if now := time.Now(); now.Sub(lastStats) >= w.statsInterval {
			w.sendStats(now)
			lastStats = now
		}
	}

	w.reports <- batchReport{stats: w.snapshot(time.Now()), reason: reason, err: err}
}

// sendResult tries twice, each bounded by sendTimeout. It gives up at once
// when the hard context is cancelled.
func (w *worker) sendResult(rec generator.KeyRecord) bool {
	for try := 0; try < 2; try++ {
		timer := time.NewTimer(w.sendTimeout)
		select {
		case w.results <- rec:
			timer.Stop()
			return true
		case <-w.hard.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
	}
	return false
}

// sendStats makes a single bounded attempt. Snapshots are cumulative, so a
// lost one is superseded by the next.
func (w *worker) sendStats(now time.Time) {
	timer := time.NewTimer(w.sendTimeout)
	defer timer.Stop()
	select {
	case w.stats <- w.snapshot(now):
	case <-w.hard.Done():
		w.droppedStats.Add(1)
	case <-timer.C:
		w.droppedStats.Add(1)
	}
}

func (w *worker) snapshot(now time.Time) generator.WorkerStats {
	uptime := now.Sub(w.start)
	var speed float64
	if uptime > 0 {
		speed = float64(w.attempts) / uptime.Seconds()
	}
	return generator.WorkerStats{
		WorkerID: w.id,
		Attempts: w.attempts,
		Found:    w.found,
		Dropped:  w.dropped,
		Speed:    speed,
		Uptime:   uptime,
	}
}
