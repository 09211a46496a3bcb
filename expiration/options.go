package expiration

import "time"

// Option is the interface for the options of the scheduler.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) {
	f(o)
}

// WithNow sets the function that returns the current time.
func WithNow(now func() time.Time) Option {
	return optionFunc(func(o *options) {
		o.now = now
	})
}

// WithPanicHandler sets the function that receives panics recovered from the expire callback.
// The recovered value is wrapped in *panics.ErrRecovered of github.com/sourcegraph/conc/panics.
func WithPanicHandler(f func(error)) Option {
	return optionFunc(func(o *options) {
		o.onPanic = f
	})
}

// WithCapacity sets the expected number of pending tasks.
func WithCapacity(capacity int) Option {
	if capacity < 0 {
		panic("capacity must not be negative")
	}
	return optionFunc(func(o *options) {
		o.capacity = capacity
	})
}

type options struct {
	now      func() time.Time
	onPanic  func(error)
	capacity int
}

func defaultOptions() options {
	return options{
		now: time.Now,
	}
}
