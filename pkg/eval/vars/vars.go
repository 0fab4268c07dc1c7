// Package vars contains basic types for manipulating rill variables.
package vars

// Var represents a variable: one named cell in a scope frame.
type Var interface {
	Set(v any) error
	Get() any
}

type ptrVar struct {
	ptr *any
}

// FromInit creates a variable with an initial value.
func FromInit(v any) Var {
	return ptrVar{&v}
}

// FromPtr creates a variable aliasing an existing location.
func FromPtr(p *any) Var {
	return ptrVar{p}
}

func (pv ptrVar) Get() any {
	return *pv.ptr
}

func (pv ptrVar) Set(v any) error {
	*pv.ptr = v
	return nil
}

type roVar struct {
	value any
}

// NewReadOnly creates a read-only variable with the given value.
func NewReadOnly(v any) Var {
	return roVar{v}
}

func (rv roVar) Get() any {
	return rv.value
}

func (rv roVar) Set(v any) error {
	return errSetReadOnly
}

type setReadOnlyError struct{}

var errSetReadOnly error = setReadOnlyError{}

func (setReadOnlyError) Error() string {
	return "cannot set read-only variable"
}
