package gridcalc

import "time"

// DefaultMaxChainHops bounds how far a reference chain is followed before it
// is reported as recursive.
const DefaultMaxChainHops = 100

// Clock supplies the current time to NOW and TODAY.
type Clock interface {
	Now() time.Time
}

// WallClock is the default Clock using system time.
type WallClock struct{}

// Now returns time.Now().
func (WallClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

// Options holds configuration for the Evaluator and the Grid.
type Options struct {
	clock        Clock
	listeners    []EvalListener
	maxChainHops int
	csvEncoding  string
}

func defaultOptions() *Options {
	return &Options{
		clock:        WallClock{},
		maxChainHops: DefaultMaxChainHops,
		csvEncoding:  "utf-8",
	}
}

func buildOptions(opts []Option) *Options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Option configures the Evaluator, the Grid or the CSV writer.
type Option func(*Options)

// WithClock sets the time source for NOW and TODAY (default: WallClock).
func WithClock(c Clock) Option {
	return func(o *Options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithListener adds a listener that is notified before/after each evaluation.
func WithListener(l EvalListener) Option {
	return func(o *Options) { o.listeners = append(o.listeners, l) }
}

// WithMaxChainHops sets how many references a chain may follow (default: 100).
func WithMaxChainHops(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.maxChainHops = n
		}
	}
}

// WithEncoding selects the CSV output encoding: "utf-8" (default),
// "windows-1252" or "iso-8859-1".
func WithEncoding(name string) Option {
	return func(o *Options) { o.csvEncoding = name }
}
