package sdl3

import (
	"errors"
	"fmt"
)

// Sentinel errors reported by the root package. Match with errors.Is.
var (
	// ErrReleased is returned when a token, handle, or context is used
	// after its final release.
	ErrReleased = errors.New("sdl3: already released")

	// ErrSubsystemsLive is returned by Context.Release while subsystem
	// handles are still outstanding. The context is not torn down.
	ErrSubsystemsLive = errors.New("sdl3: subsystem handles still outstanding")

	// ErrNotMainThread is returned when a main-thread-only operation is
	// called from another goroutine.
	ErrNotMainThread = errors.New("sdl3: not on the main thread")

	// ErrNilWatcher is returned when AddWatch is given a nil watcher.
	ErrNilWatcher = errors.New("sdl3: nil event watcher")

	// ErrNoDriver is returned by Init when no driver is available.
	ErrNoDriver = errors.New("sdl3: no driver available")
)

// ErrorKind classifies a failure so callers can branch on the category
// without string matching.
type ErrorKind int

const (
	// KindConfiguration is caller misconfiguration: wrong thread, wrong
	// release order, nil watcher, unknown driver.
	KindConfiguration ErrorKind = iota + 1

	// KindState is a violated object lifecycle rule: use after release,
	// an operation in the wrong command buffer state, a foreign device.
	KindState

	// KindResource is a failed native allocation or resource creation.
	KindResource

	// KindNative is any other failure reported by the native library,
	// carrying its diagnostic string.
	KindNative
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindState:
		return "state"
	case KindResource:
		return "resource"
	case KindNative:
		return "native"
	default:
		return "unknown"
	}
}

// Error is the structured error type shared by sdl3 and the gpu package.
// It wraps an underlying cause (often one of the sentinel errors) and is
// transparent to errors.Is and errors.As.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Op is the operation that failed, e.g. "sdl3.Init" or "gpu.Submit".
	Op string

	// Err is the underlying cause. For KindNative this wraps the native
	// diagnostic.
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds an *Error. Exported for the gpu sub-package.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func configErr(op string, err error) error { return &Error{Kind: KindConfiguration, Op: op, Err: err} }
func stateErr(op string, err error) error  { return &Error{Kind: KindState, Op: op, Err: err} }
func nativeErr(op string, err error) error { return &Error{Kind: KindNative, Op: op, Err: err} }
