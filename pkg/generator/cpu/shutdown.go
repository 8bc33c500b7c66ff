package cpu

import "time"

// drain stops the pool in three steps and returns the number of workers that
// were abandoned.
//
//  1. cooperative: close the stop channel, wait CooperativeTimeout
//  2. forced: cancel the hard context so pending sends abort, wait ForcedTimeout
//  3. kill: wait a last KillTimeout, then stop waiting
//
// Goroutines cannot be preempted; an abandoned worker exits on its next
// iteration and its late output is never read.
func (m *monitor) drain() int {
	close(m.stop)
	defer m.hardCancel()

	opts := m.e.opts
	if m.await(opts.CooperativeTimeout) {
		return 0
	}

	m.log.Warn().Int("workers", m.running).Dur("timeout", opts.CooperativeTimeout).Msg("Workers ignored stop signal, forcing")
	m.hardCancel()
	if m.await(opts.ForcedTimeout) {
		return 0
	}

	m.log.Error().Int("workers", m.running).Msg("Workers still running, abandoning")
	if m.await(opts.KillTimeout) {
		return 0
	}
	return m.running
}

// await keeps consuming channels until every worker has reported or the
// timeout expires.
func (m *monitor) await(timeout time.Duration) bool {
	if m.running <= 0 {
		return true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for m.running > 0 {
		select {
		case rec := <-m.results:
			m.onResult(rec)
		case ws := <-m.statsCh:
			m.onStats(ws)
		case r := <-m.reports:
			m.onReport(r)
		case <-timer.C:
			return false
		}
	}
	return true
}

// finalize drains what is already buffered in the channels, flushes and then
// commits the sink, or aborts it after a persistence failure.
func (m *monitor) finalize() string {
residual:
	for {
		select {
		case rec := <-m.results:
			m.onResult(rec)
		case ws := <-m.statsCh:
			m.onStats(ws)
		case r := <-m.reports:
			m.onReport(r)
		default:
			break residual
		}
	}

	m.flush()
	if m.persistErr {
		if err := m.out.Abort(); err != nil {
			m.log.Warn().Err(err).Msg("Abort sink")
		}
		return ""
	}

	path, err := m.out.Commit()
	if err != nil {
		m.fail("commit", err)
		return ""
	}
	return path
}
