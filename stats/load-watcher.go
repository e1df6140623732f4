package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	c "github.com/relloyd/tableload/constants"
	h "github.com/relloyd/tableload/helper"
	"github.com/relloyd/tableload/logger"
)

// LoadWatcher logs the progress of a table load at a fixed frequency.
// The loader owns the row counter and must update it with sync/atomic.
type LoadWatcher struct {
	log       logger.Logger
	name      string
	frequency time.Duration
	rows      *int64
	started   time.Time
	finished  time.Time
	done      chan struct{}
	wg        sync.WaitGroup
	running   h.AtomBool
}

// Progress is a point in time view of a load.
type Progress struct {
	Name          string
	Running       bool
	Elapsed       time.Duration
	Rows          int64
	RowsPerSecond int64
}

func (p Progress) String() string {
	state := "complete"
	if p.Running {
		state = "running"
	}
	return fmt.Sprintf("Progress of %v (%v): rows=%v elapsed=%v rowsPerSecond=%v",
		p.Name, state, p.Rows, p.Elapsed.Round(time.Millisecond), p.RowsPerSecond)
}

func NewLoadWatcher(log logger.Logger, name string) *LoadWatcher {
	return &LoadWatcher{
		log:       log,
		name:      name,
		frequency: time.Second * c.StatsCaptureFrequencySeconds,
	}
}

// Start logs the progress of *rows until Stop is called.
func (w *LoadWatcher) Start(rows *int64) {
	if w.running.Get() {
		return
	}
	w.rows = rows
	w.started = time.Now()
	w.done = make(chan struct{})
	w.running.Set(true)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.frequency)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.log.Info(w.Progress())
			case <-w.done:
				return
			}
		}
	}()
}

// Stop ends the periodic logging. Calling it more than once is harmless.
func (w *LoadWatcher) Stop() {
	if !w.running.Get() {
		return
	}
	close(w.done)
	w.wg.Wait()
	w.finished = time.Now()
	w.running.Set(false)
	w.log.Debug(w.Progress())
}

func (w *LoadWatcher) Progress() Progress {
	p := Progress{Name: w.name, Running: w.running.Get()}
	if w.rows == nil {
		return p
	}
	if p.Running {
		p.Elapsed = time.Since(w.started)
	} else {
		p.Elapsed = w.finished.Sub(w.started)
	}
	p.Rows = atomic.LoadInt64(w.rows)
	secs := int64(p.Elapsed.Seconds())
	if secs < 1 {
		secs = 1
	}
	p.RowsPerSecond = p.Rows / secs
	return p
}
