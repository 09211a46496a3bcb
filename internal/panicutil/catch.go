package panicutil

import (
	"github.com/sourcegraph/conc/panics"
)

// Catch runs f and returns a recovered panic as *panics.ErrRecovered.
// It returns nil when f returns normally.
func Catch(f func()) error {
	var pc panics.Catcher
	pc.Try(f)
	return pc.Recovered().AsError()
}

// Guard wraps f so that a panic inside it is passed to onPanic instead of unwinding the caller.
// onPanic may be nil, in which case the panic is dropped.
func Guard(f func(), onPanic func(error)) func() {
	return func() {
		if err := Catch(f); err != nil && onPanic != nil {
			onPanic(err)
		}
	}
}
