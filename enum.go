package trailhead

// Enumerable is the interface implemented by types that can only be represented by enumerable, constant values.
//
// Request payloads validate Enumerable fields with the "enum" rule.
type Enumerable interface {
	String() string
	Valid() error
}
