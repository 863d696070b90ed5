package service

import (
	"sync/atomic"
	"testing"
	"time"

	tdd "github.com/stretchr/testify/assert"
)

func TestLoopingCallFiresOnInterval(t *testing.T) {
	assert := tdd.New(t)
	var count int32
	lc := NewLoopingCall(func() { atomic.AddInt32(&count, 1) }, 10*time.Millisecond, nil)
	lc.Start(false)
	time.Sleep(55 * time.Millisecond)
	lc.Stop()
	lc.Wait()

	assert.True(atomic.LoadInt32(&count) >= 3, "expected several ticks to have fired")
}

func TestLoopingCallStartNowFiresImmediately(t *testing.T) {
	assert := tdd.New(t)
	var count int32
	lc := NewLoopingCall(func() { atomic.AddInt32(&count, 1) }, time.Hour, nil)
	lc.Start(true)
	time.Sleep(5 * time.Millisecond)
	lc.Stop()
	lc.Wait()

	assert.Equal(int32(1), atomic.LoadInt32(&count))
}

func TestLoopingCallSurvivesPanic(t *testing.T) {
	assert := tdd.New(t)
	var count int32
	lc := NewLoopingCall(func() {
		n := atomic.AddInt32(&count, 1)
		if n == 1 {
			panic("boom")
		}
	}, 10*time.Millisecond, nil)
	lc.Start(false)
	time.Sleep(55 * time.Millisecond)
	lc.Stop()
	lc.Wait()

	assert.True(atomic.LoadInt32(&count) >= 3, "expected ticks to keep firing after a panic")
}
