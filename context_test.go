package sdl3

import (
	"errors"
	"testing"

	"github.com/gogpu/sdl3/driver"
)

// newTestContext initializes a context over a private stub instance so the
// test can inspect native-side counts.
func newTestContext(t *testing.T, opts ...Option) (*Context, *driver.Stub) {
	t.Helper()
	stub := driver.NewStub()
	name := "stub-" + t.Name()
	driver.Register(name, func() driver.API { return stub })
	t.Cleanup(func() { driver.Unregister(name) })

	ctx, err := Init(append([]Option{WithDriver(name), WithAnyThread()}, opts...)...)
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	return ctx, stub
}

func TestInitUnknownDriver(t *testing.T) {
	_, err := Init(WithDriver("no-such-driver"), WithAnyThread())
	if !errors.Is(err, ErrNoDriver) {
		t.Fatalf("Init() = %v, want ErrNoDriver", err)
	}
}

func TestInitAndRelease(t *testing.T) {
	ctx, stub := newTestContext(t)
	if got := stub.RootInitCount(); got != 1 {
		t.Errorf("RootInitCount() = %d, want 1", got)
	}
	if got := ctx.Driver(); got != driver.DriverStub {
		t.Errorf("Driver() = %q, want %q", got, driver.DriverStub)
	}
	if err := ctx.Release(); err != nil {
		t.Fatalf("Release() error: %v", err)
	}
	if got := stub.RootInitCount(); got != 0 {
		t.Errorf("RootInitCount() after release = %d, want 0", got)
	}
}

func TestSubsystemRefCounting(t *testing.T) {
	ctx, stub := newTestContext(t)
	defer ctx.Release() //nolint:errcheck

	video, err := ctx.Video()
	if err != nil {
		t.Fatalf("Video() error: %v", err)
	}
	if got := stub.InitCount(driver.InitVideo); got != 1 {
		t.Fatalf("InitCount(video) = %d, want 1", got)
	}

	// A second handle reuses the initialized subsystem.
	video2, err := ctx.Video()
	if err != nil {
		t.Fatalf("second Video() error: %v", err)
	}
	if got := stub.InitCount(driver.InitVideo); got != 1 {
		t.Errorf("InitCount(video) after second handle = %d, want 1 (no re-init)", got)
	}
	if got := ctx.Registry().Count(driver.InitVideo); got != 2 {
		t.Errorf("Registry().Count(video) = %d, want 2", got)
	}

	clone, err := video.Clone()
	if err != nil {
		t.Fatalf("Clone() error: %v", err)
	}
	if got := ctx.Registry().Count(driver.InitVideo); got != 3 {
		t.Errorf("Registry().Count(video) after clone = %d, want 3", got)
	}

	for _, h := range []*VideoSubsystem{clone, video2, video} {
		if err := h.Release(); err != nil {
			t.Fatalf("Release() error: %v", err)
		}
	}
	if got := stub.InitCount(driver.InitVideo); got != 0 {
		t.Errorf("InitCount(video) after last release = %d, want 0", got)
	}
	if got := ctx.Registry().Count(driver.InitVideo); got != 0 {
		t.Errorf("Registry().Count(video) = %d, want 0", got)
	}
}

func TestSubsystemReacquireAfterFirstHandleReleased(t *testing.T) {
	ctx, stub := newTestContext(t)
	defer ctx.Release() //nolint:errcheck

	first, err := ctx.Video()
	if err != nil {
		t.Fatalf("Video() error: %v", err)
	}
	second, err := ctx.Video()
	if err != nil {
		t.Fatalf("second Video() error: %v", err)
	}

	// Releasing the first handle must not break later acquisitions while a
	// sibling keeps the subsystem alive.
	if err := first.Release(); err != nil {
		t.Fatalf("first.Release() error: %v", err)
	}
	third, err := ctx.Video()
	if err != nil {
		t.Fatalf("Video() after first release error: %v", err)
	}
	if got := stub.InitCount(driver.InitVideo); got != 1 {
		t.Errorf("InitCount(video) = %d, want 1 (no re-init)", got)
	}

	for _, h := range []*VideoSubsystem{second, third} {
		if err := h.Release(); err != nil {
			t.Fatalf("Release() error: %v", err)
		}
	}
	if got := stub.InitCount(driver.InitVideo); got != 0 {
		t.Errorf("InitCount(video) after all releases = %d, want 0", got)
	}
}

func TestSubsystemDoubleRelease(t *testing.T) {
	ctx, _ := newTestContext(t)
	defer ctx.Release() //nolint:errcheck

	audio, err := ctx.Audio()
	if err != nil {
		t.Fatalf("Audio() error: %v", err)
	}
	if err := audio.Release(); err != nil {
		t.Fatalf("first Release() error: %v", err)
	}
	if err := audio.Release(); !errors.Is(err, ErrReleased) {
		t.Errorf("second Release() = %v, want ErrReleased", err)
	}
}

func TestReleaseOrdering(t *testing.T) {
	ctx, stub := newTestContext(t)

	events, err := ctx.Events()
	if err != nil {
		t.Fatalf("Events() error: %v", err)
	}

	// Root release with a live subsystem must fail and tear nothing down.
	err = ctx.Release()
	if !errors.Is(err, ErrSubsystemsLive) {
		t.Fatalf("Release() with live subsystem = %v, want ErrSubsystemsLive", err)
	}
	if got := stub.RootInitCount(); got != 1 {
		t.Fatalf("RootInitCount() after failed release = %d, want 1 (not torn down)", got)
	}

	// The context stays usable.
	if _, ok := events.Poll(); ok {
		t.Error("Poll() on empty queue returned an event")
	}

	if err := events.Release(); err != nil {
		t.Fatalf("events.Release() error: %v", err)
	}
	if err := ctx.Release(); err != nil {
		t.Fatalf("Release() after subsystems = %v, want nil", err)
	}
	if got := stub.RootInitCount(); got != 0 {
		t.Errorf("RootInitCount() = %d, want 0", got)
	}
}

func TestSubsystemReinitAfterQuit(t *testing.T) {
	ctx, stub := newTestContext(t)
	defer ctx.Release() //nolint:errcheck

	joy, err := ctx.Joystick()
	if err != nil {
		t.Fatalf("Joystick() error: %v", err)
	}
	if err := joy.Release(); err != nil {
		t.Fatalf("Release() error: %v", err)
	}
	if got := stub.InitCount(driver.InitJoystick); got != 0 {
		t.Fatalf("InitCount(joystick) = %d, want 0", got)
	}

	// Acquiring again starts a fresh chain and re-initializes natively.
	joy2, err := ctx.Joystick()
	if err != nil {
		t.Fatalf("Joystick() after quit error: %v", err)
	}
	if got := stub.InitCount(driver.InitJoystick); got != 1 {
		t.Errorf("InitCount(joystick) after reacquire = %d, want 1", got)
	}
	if err := joy2.Release(); err != nil {
		t.Fatalf("joy2.Release() error: %v", err)
	}
}

func TestMainThreadContract(t *testing.T) {
	stub := driver.NewStub()
	name := "stub-" + t.Name()
	driver.Register(name, func() driver.API { return stub })
	t.Cleanup(func() { driver.Unregister(name) })

	// No WithAnyThread: the Init goroutine becomes the main thread.
	ctx, err := Init(WithDriver(name))
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	defer func() {
		if err := ctx.Release(); err != nil {
			t.Errorf("Release() error: %v", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		_, err := ctx.Video()
		errCh <- err
	}()
	if err := <-errCh; !errors.Is(err, ErrNotMainThread) {
		t.Errorf("Video() from other goroutine = %v, want ErrNotMainThread", err)
	}

	// On the main goroutine it works.
	video, err := ctx.Video()
	if err != nil {
		t.Fatalf("Video() on main goroutine error: %v", err)
	}

	// Subsystem release is allowed from any goroutine.
	done := make(chan error, 1)
	go func() { done <- video.Release() }()
	if err := <-done; err != nil {
		t.Errorf("Release() from other goroutine error: %v", err)
	}
}

func TestSharedCountersOption(t *testing.T) {
	ctx, _ := newTestContext(t, WithSharedCounters())
	defer ctx.Release() //nolint:errcheck

	video, err := ctx.Video()
	if err != nil {
		t.Fatalf("Video() error: %v", err)
	}
	defer video.Release() //nolint:errcheck

	if !video.tok.Shared() {
		t.Error("WithSharedCounters: subsystem token not shared")
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		kind ErrorKind
		want string
	}{
		{"configuration", KindConfiguration, "configuration"},
		{"state", KindState, "state"},
		{"resource", KindResource, "resource"},
		{"native", KindNative, "native"},
		{"unknown", ErrorKind(99), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}

	err := NewError(KindState, "sdl3.Test", ErrReleased)
	if !errors.Is(err, ErrReleased) {
		t.Error("Error does not unwrap to its cause")
	}
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindState {
		t.Error("errors.As failed to recover *Error with kind")
	}
}
