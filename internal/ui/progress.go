package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/schollz/progressbar/v3"

	"github.com/Amr-9/VanityHunter/pkg/generator"
	"github.com/Amr-9/VanityHunter/pkg/generator/cpu"
)

const pollInterval = 250 * time.Millisecond

// Progress renders live statistics of one running engine.
type Progress struct {
	w    io.Writer
	e    *cpu.Engine
	task generator.Task
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// Track starts rendering e until Stop is called or the engine terminates.
func Track(w io.Writer, e *cpu.Engine, task generator.Task) *Progress {
	p := &Progress{w: w, e: e, task: task, done: make(chan struct{})}
	p.wg.Add(1)
	go p.render()
	return p
}

// Stop ends rendering and waits for the display to clear.
func (p *Progress) Stop() {
	p.once.Do(func() { close(p.done) })
	p.wg.Wait()
}

func (p *Progress) render() {
	defer p.wg.Done()

	total := int64(-1)
	if p.task.TargetCount > 0 {
		total = int64(p.task.TargetCount)
	}
	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription(p.task.String()),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("found"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionFullWidth(),
	)

	var spin *spinner.Spinner
	defer func() {
		if spin != nil {
			spin.Stop()
		} else {
			bar.Clear()
		}
	}()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
		}

		state := p.e.State()
		if state == cpu.StateTerminal {
			return
		}
		if state >= cpu.StateDraining {
			if spin == nil {
				bar.Clear()
				spin = spinner.New(spinner.CharSets[14], 120*time.Millisecond, spinner.WithWriter(p.w))
				spin.Start()
			}
			spin.Suffix = fmt.Sprintf(" %s: %s", p.task, state)
			continue
		}

		s := p.e.Stats()
		bar.Describe(fmt.Sprintf("%s │ %s attempts │ %s │ %d workers",
			p.task, FormatNumber(s.Attempts), FormatHashRate(s.HashRate), s.Workers))
		_ = bar.Set64(int64(s.Found))
	}
}
