package evaltest

import (
	"errors"
	"math"
	"reflect"
	"regexp"

	"github.com/rillsh/rill/pkg/eval"
)

// Error matchers for use with Case.Throws. A plain error matches an
// exception whose reason is deeply equal to it.

type errorMatcher interface{ matchError(error) bool }

// AnyError is an error that can be passed to Case.Throws to match any
// non-nil error.
var AnyError = anyError{}

type anyError struct{}

func (anyError) Error() string { return "any error" }

func (anyError) matchError(e error) bool { return e != nil }

// ErrorWithType returns an error that can be passed to Case.Throws to
// match any error with the same dynamic type as the argument.
func ErrorWithType(v error) error { return errWithType{v} }

type errWithType struct{ v error }

func (e errWithType) Error() string { return "error with type " + reflect.TypeOf(e.v).String() }

func (e errWithType) matchError(e2 error) bool {
	return e2 != nil && reflect.TypeOf(e.v) == reflect.TypeOf(eval.Reason(e2))
}

// ErrorWithMessage returns an error that can be passed to Case.Throws to
// match any error whose message contains the given text.
func ErrorWithMessage(text string) error { return errWithMessage{text} }

type errWithMessage struct{ text string }

func (e errWithMessage) Error() string { return "error with message containing " + e.text }

func (e errWithMessage) matchError(e2 error) bool {
	return e2 != nil && regexp.MustCompile(regexp.QuoteMeta(e.text)).
		MatchString(eval.Reason(e2).Error())
}

// Cancelled is an error that can be passed to Case.Throws to match a
// cancellation.
var Cancelled = cancelledError{}

type cancelledError struct{}

func (cancelledError) Error() string { return "cancelled" }

func (cancelledError) matchError(e error) bool { return eval.IsCancelled(e) }

func matchErr(want, got error) bool {
	if want == nil {
		return got == nil
	}
	if matcher, ok := want.(errorMatcher); ok {
		return matcher.matchError(got)
	}
	if got == nil {
		return false
	}
	reason := eval.Reason(got)
	return errors.Is(reason, want) || reflect.DeepEqual(want, reason)
}

// ValueMatcher is implemented by special values that can be passed to
// Case.Puts to customize how an output value is matched.
type ValueMatcher interface{ matchValue(any) bool }

// ApproximatelyThreshold defines the threshold for matching float64
// values approximately.
const ApproximatelyThreshold = 1e-15

// Approximately can be passed to Case.Puts to match a float64 within the
// threshold.
type Approximately struct{ F float64 }

func (a Approximately) matchValue(value any) bool {
	f, ok := value.(float64)
	if !ok {
		return false
	}
	w := a.F
	if math.IsNaN(w) {
		return math.IsNaN(f)
	}
	if math.IsInf(w, 0) {
		return w == f
	}
	return math.Abs(f-w) <= ApproximatelyThreshold
}

// StringMatching can be passed to Case.Puts to match a string against a
// regexp pattern.
type StringMatching struct{ Pattern string }

func (s StringMatching) matchValue(value any) bool {
	str, ok := value.(string)
	if !ok {
		return false
	}
	return regexp.MustCompile(s.Pattern).MatchString(str)
}
