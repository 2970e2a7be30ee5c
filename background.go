package gc

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// background runs the paced collector goroutine a Heap started with
// [WithAutomaticCollection]. It parks on a condition variable between
// polls instead of a plain timer so shutdown can wake it immediately
// rather than waiting out the rest of the current interval.
type background struct {
	mu   sync.Mutex
	cond *sync.Cond
	stop bool
	done chan struct{}

	interval time.Duration
	step     int
	heap     *Heap
	logger   *zap.Logger
}

func (h *Heap) startBackground(interval time.Duration, step int) {
	bg := &background{
		interval: interval,
		step:     step,
		heap:     h,
		logger:   h.logger,
		done:     make(chan struct{}),
	}
	bg.cond = sync.NewCond(&bg.mu)
	h.bg = bg
	go bg.run()
}

func (bg *background) run() {
	defer close(bg.done)
	defer func() {
		if r := recover(); r != nil {
			bg.heap.reportFatal(fmt.Errorf("background collector panic: %v", r))
		}
	}()

	for {
		bg.mu.Lock()
		if !bg.stop {
			timer := time.AfterFunc(bg.interval, func() {
				bg.mu.Lock()
				bg.cond.Broadcast()
				bg.mu.Unlock()
			})
			bg.cond.Wait()
			timer.Stop()
		}
		stopping := bg.stop
		bg.mu.Unlock()

		if stopping {
			return
		}

		if bg.heap.ShouldCollect() {
			bg.heap.CollectIncremental(bg.step)
		}
	}
}

// shutdown sets the stop flag, wakes the collector goroutine immediately,
// and waits for it to exit.
func (bg *background) shutdown() {
	bg.mu.Lock()
	bg.stop = true
	bg.cond.Broadcast()
	bg.mu.Unlock()
	<-bg.done
}
