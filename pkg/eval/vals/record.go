package vals

import (
	"github.com/iancoleman/orderedmap"
)

// Record is a mapping from field names to values. Field order is the
// insertion order and is significant: iteration, representation and
// equality all observe it. Field lookup is by exact, case-sensitive name.
type Record struct {
	fields *orderedmap.OrderedMap
}

// NewRecord returns an empty Record.
func NewRecord() *Record {
	return &Record{fields: orderedmap.New()}
}

// MakeRecord returns a Record with the given alternating key/value pairs.
// It panics if the number of arguments is odd or a key is not a string;
// it is meant for tests and builtins with known-good inputs.
func MakeRecord(pairs ...any) *Record {
	if len(pairs)%2 != 0 {
		panic("MakeRecord: odd number of arguments")
	}
	r := NewRecord()
	for i := 0; i < len(pairs); i += 2 {
		r.Set(pairs[i].(string), pairs[i+1])
	}
	return r
}

// Set sets a field. Setting an existing field keeps its original
// position.
func (r *Record) Set(name string, value any) {
	r.fields.Set(name, value)
}

// Get looks up a field by exact name.
func (r *Record) Get(name string) (any, bool) {
	return r.fields.Get(name)
}

// Has reports whether the record has the named field.
func (r *Record) Has(name string) bool {
	_, ok := r.fields.Get(name)
	return ok
}

// Delete removes a field if present.
func (r *Record) Delete(name string) {
	r.fields.Delete(name)
}

// Keys returns the field names in insertion order.
func (r *Record) Keys() []string {
	return r.fields.Keys()
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.fields.Keys())
}

// Clone returns a shallow copy of the record.
func (r *Record) Clone() *Record {
	c := NewRecord()
	for _, k := range r.Keys() {
		v, _ := r.Get(k)
		c.Set(k, v)
	}
	return c
}
