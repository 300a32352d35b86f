package responses

import "time"

// An Observer learns of every response a Registry sends.
type Observer interface {
	ObserveResponse(name string, code int, elapsed time.Duration)
}

// ObserverFunc adapts a function into an Observer.
type ObserverFunc func(name string, code int, elapsed time.Duration)

// ObserveResponse calls f.
func (f ObserverFunc) ObserveResponse(name string, code int, elapsed time.Duration) {
	f(name, code, elapsed)
}
