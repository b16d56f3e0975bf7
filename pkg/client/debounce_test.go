package client

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CollapsesBursts(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)

	var calls int32
	for i := 0; i < 10; i++ {
		d.Trigger(func() { atomic.AddInt32(&calls, 1) })
		time.Sleep(2 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected burst to collapse into 1 call, got %d", got)
	}
}

func TestDebouncer_LastTriggerWins(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var got atomic.Value
	d.Trigger(func() { got.Store("first") })
	d.Trigger(func() { got.Store("second") })

	time.Sleep(80 * time.Millisecond)

	if v := got.Load(); v != "second" {
		t.Errorf("expected the last triggered call to run, got %v", v)
	}
}

func TestDebouncer_Flush(t *testing.T) {
	d := NewDebouncer(time.Hour)

	var calls int32
	d.Trigger(func() { atomic.AddInt32(&calls, 1) })
	d.Flush()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected flush to run pending call, got %d runs", got)
	}

	// Flush with nothing pending is a no-op.
	d.Flush()
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected no extra runs after empty flush, got %d", got)
	}
}

func TestDebouncer_Stop(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)

	var calls int32
	d.Trigger(func() { atomic.AddInt32(&calls, 1) })
	d.Stop()

	time.Sleep(50 * time.Millisecond)

	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Errorf("expected stop to cancel pending call, got %d runs", got)
	}
}
