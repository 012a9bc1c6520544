// Package xlog provides a Logger interface so CCtx/DCtx can report block
// and frame sizes without pulling in a logging dependency.
//
// The standard library's log.Logger panics when called through a nil
// pointer, so there is no cheap way to make logging optional by just
// leaving a *log.Logger field unset. glog avoids that but requires
// flag.Parse to be called first, which a library has no business doing
// on a caller's behalf. The interface below sidesteps both problems: Print
// and Printf no-op on a nil Logger, and any type with an Output method
// (including *log.Logger) already satisfies it.
package xlog

import "fmt"

// Logger is satisfied by *log.Logger and anything else exposing the same
// calldepth-aware Output method.
type Logger interface {
	Output(calldepth int, s string) error
}

// Print writes v to l, or does nothing if l is nil.
func Print(l Logger, v ...interface{}) {
	if l != nil {
		l.Output(2, fmt.Sprint(v...))
	}
}

// Printf writes a formatted message to l, or does nothing if l is nil.
func Printf(l Logger, format string, v ...interface{}) {
	if l != nil {
		l.Output(2, fmt.Sprintf(format, v...))
	}
}
