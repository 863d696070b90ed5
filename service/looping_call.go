package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	xlog "go.bryk.io/compute/log"
)

// LoopingCall runs fn at a fixed interval on its own goroutine until
// Stop is called, mirroring the source's cooperative periodic timer used
// for report_state and periodic_tasks. A panicking fn is recovered,
// logged and does not terminate the loop; the next tick still fires.
type LoopingCall struct {
	fn       func()
	interval time.Duration
	log      xlog.Logger
	ctx      context.Context
	halt     context.CancelFunc
	wg       sync.WaitGroup
}

// NewLoopingCall builds a LoopingCall for fn, not yet started. A nil
// logger discards recovered panics' log output.
func NewLoopingCall(fn func(), interval time.Duration, ll xlog.Logger) *LoopingCall {
	if ll == nil {
		ll = xlog.Discard()
	}
	ctx, halt := context.WithCancel(context.Background())
	return &LoopingCall{fn: fn, interval: interval, log: ll, ctx: ctx, halt: halt}
}

// Start begins invoking fn every interval. When now is true, fn also
// fires immediately rather than waiting for the first tick.
func (lc *LoopingCall) Start(now bool) {
	lc.wg.Add(1)
	go func() {
		defer lc.wg.Done()
		if now {
			lc.invoke()
		}
		ticker := time.NewTicker(lc.interval)
		defer ticker.Stop()
		for {
			select {
			case <-lc.ctx.Done():
				return
			case <-ticker.C:
				lc.invoke()
			}
		}
	}()
}

// invoke runs fn, recovering and logging a panic rather than letting it
// kill the timer goroutine.
func (lc *LoopingCall) invoke() {
	defer func() {
		if r := recover(); r != nil {
			lc.log.WithField("error", fmt.Sprintf("%v", r)).Error("looping call recovered from a panic")
		}
	}()
	lc.fn()
}

// Stop halts the timer. Safe to call more than once.
func (lc *LoopingCall) Stop() {
	lc.halt()
}

// Wait blocks until the timer's goroutine has fully exited.
func (lc *LoopingCall) Wait() {
	lc.wg.Wait()
}
