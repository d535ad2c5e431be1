package sdl3

import (
	"errors"
	"sync"
	"testing"

	"github.com/gogpu/sdl3/driver"
)

func TestAddWatchNil(t *testing.T) {
	ctx, _ := newTestContext(t)
	defer ctx.Release() //nolint:errcheck

	events, err := ctx.Events()
	if err != nil {
		t.Fatalf("Events() error: %v", err)
	}
	defer events.Release() //nolint:errcheck

	if _, err := events.AddWatch(nil); !errors.Is(err, ErrNilWatcher) {
		t.Errorf("AddWatch(nil) = %v, want ErrNilWatcher", err)
	}
}

func TestWatchDispatch(t *testing.T) {
	ctx, stub := newTestContext(t)
	defer ctx.Release() //nolint:errcheck

	events, err := ctx.Events()
	if err != nil {
		t.Fatalf("Events() error: %v", err)
	}
	defer events.Release() //nolint:errcheck

	var mu sync.Mutex
	var seen []uint32
	watch, err := events.AddWatch(WatchFunc(func(e Event) {
		mu.Lock()
		seen = append(seen, e.Type)
		mu.Unlock()
	}))
	if err != nil {
		t.Fatalf("AddWatch() error: %v", err)
	}

	stub.PushEvent(driver.Event{Type: 0x100})
	stub.PushEvent(driver.Event{Type: 0x200})

	mu.Lock()
	got := len(seen)
	mu.Unlock()
	if got != 2 {
		t.Fatalf("watch saw %d events, want 2", got)
	}

	// Watched events still reach the poll queue.
	ev, ok := events.Poll()
	if !ok || ev.Type != 0x100 {
		t.Errorf("Poll() = %+v, %v, want type 0x100", ev, ok)
	}

	watch.Remove()
	stub.PushEvent(driver.Event{Type: 0x300})
	mu.Lock()
	got = len(seen)
	mu.Unlock()
	if got != 2 {
		t.Errorf("watch saw %d events after Remove, want 2", got)
	}
}

func TestWatchRemoveIdempotent(t *testing.T) {
	ctx, _ := newTestContext(t)
	defer ctx.Release() //nolint:errcheck

	events, err := ctx.Events()
	if err != nil {
		t.Fatalf("Events() error: %v", err)
	}
	defer events.Release() //nolint:errcheck

	watch, err := events.AddWatch(WatchFunc(func(Event) {}))
	if err != nil {
		t.Fatalf("AddWatch() error: %v", err)
	}
	watch.Remove()
	watch.Remove() // no panic, no double unregister

	if got := ctx.watches.Len(); got != 0 {
		t.Errorf("watch registry length = %d, want 0", got)
	}
}

func TestWatchSelfRemoval(t *testing.T) {
	ctx, stub := newTestContext(t)
	defer ctx.Release() //nolint:errcheck

	events, err := ctx.Events()
	if err != nil {
		t.Fatalf("Events() error: %v", err)
	}
	defer events.Release() //nolint:errcheck

	calls := 0
	var watch *EventWatch
	watch, err = events.AddWatch(WatchFunc(func(Event) {
		calls++
		watch.Remove() // removing from inside the callback must not deadlock
	}))
	if err != nil {
		t.Fatalf("AddWatch() error: %v", err)
	}

	stub.PushEvent(driver.Event{Type: 1})
	stub.PushEvent(driver.Event{Type: 2})
	if calls != 1 {
		t.Errorf("watch ran %d times, want 1", calls)
	}
}

func TestMultipleWatches(t *testing.T) {
	ctx, stub := newTestContext(t)
	defer ctx.Release() //nolint:errcheck

	events, err := ctx.Events()
	if err != nil {
		t.Fatalf("Events() error: %v", err)
	}
	defer events.Release() //nolint:errcheck

	var a, b int
	wa, err := events.AddWatch(WatchFunc(func(Event) { a++ }))
	if err != nil {
		t.Fatalf("AddWatch() error: %v", err)
	}
	defer wa.Remove()
	wb, err := events.AddWatch(WatchFunc(func(Event) { b++ }))
	if err != nil {
		t.Fatalf("AddWatch() error: %v", err)
	}
	defer wb.Remove()

	stub.PushEvent(driver.Event{Type: 7})
	if a != 1 || b != 1 {
		t.Errorf("watches saw (%d, %d) events, want (1, 1)", a, b)
	}
}
