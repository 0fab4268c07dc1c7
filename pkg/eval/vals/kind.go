// Package vals defines the value model of rill: the types that flow
// through pipelines, and the operations defined uniformly across them.
//
// Values are represented by native Go values where possible: nil (the
// nothing value), bool, int64, float64, string, time.Duration, time.Time
// (dates), []byte (binary data), List and *Record. Lazily produced data
// is a [Stream]. Types owned by other packages participate in the uniform
// operations by implementing the Kinder, Equaler and Reprer interfaces.
package vals

import (
	"fmt"
	"time"
)

// Kinder wraps the Kind method.
type Kinder interface {
	Kind() string
}

// Kind returns the kind of the value: "nothing", "bool", "int", "float",
// "string", "duration", "date", "binary", "list", "record", "stream", or
// whatever a Kinder reports. For unknown types it returns the Go type
// name preceded by "!!".
func Kind(v any) string {
	switch v := v.(type) {
	case nil:
		return "nothing"
	case bool:
		return "bool"
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "string"
	case time.Duration:
		return "duration"
	case time.Time:
		return "date"
	case []byte:
		return "binary"
	case List:
		return "list"
	case *Record:
		return "record"
	case Stream:
		return "stream"
	case Kinder:
		return v.Kind()
	default:
		return fmt.Sprintf("!!%T", v)
	}
}
