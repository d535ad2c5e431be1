package sdl3

// Option configures Init.
type Option func(*initOptions)

// initOptions holds optional configuration for context creation.
type initOptions struct {
	driverName     string
	anyThread      bool
	sharedCounters bool
}

// WithDriver selects a registered driver by name instead of the default
// priority order. Tests use this to run against the in-memory stub:
//
//	ctx, err := sdl3.Init(sdl3.WithDriver("stub"), sdl3.WithAnyThread())
func WithDriver(name string) Option {
	return func(o *initOptions) {
		o.driverName = name
	}
}

// WithAnyThread lifts the main-thread restriction. Intended for tests,
// where the testing framework controls goroutine placement. Production
// code should let the package enforce the native library's threading
// contract.
func WithAnyThread() Option {
	return func(o *initOptions) {
		o.anyThread = true
	}
}

// WithSharedCounters makes every token chain use the shared counter layout
// from the start, so any handle can cross a plugin boundary without an
// explicit Pin. Costs one heap allocation per chain; hosts that never load
// plugins can leave it off.
func WithSharedCounters() Option {
	return func(o *initOptions) {
		o.sharedCounters = true
	}
}
