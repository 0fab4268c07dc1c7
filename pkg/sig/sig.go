// Package sig defines command signatures.
//
// A signature declares a command's name, positional parameters, flags and
// the shapes of the values it accepts and produces. Signatures are
// registered in a [Registry] before any source referencing the command is
// parsed; the parser resolves every call against the registry and rejects
// unknown names and arity or flag mismatches before evaluation begins.
package sig

import (
	"fmt"
	"strings"
)

// Shape describes the shape of values a parameter, flag or pipeline port
// accepts.
type Shape uint8

// Possible Shape values.
const (
	ShapeAny Shape = iota
	ShapeNothing
	ShapeBool
	ShapeInt
	ShapeFloat
	// ShapeNumber accepts both Int and Float.
	ShapeNumber
	ShapeString
	ShapeDuration
	ShapeDate
	ShapeBinary
	ShapeList
	ShapeRecord
	ShapeBlock
	// ShapeCondition makes the parser accept a bare expression and wrap
	// it in an implicit one-parameter block, so that "where $it > 1"
	// works without explicit block syntax.
	ShapeCondition
	ShapeError
)

var shapeNames = [...]string{
	ShapeAny: "any", ShapeNothing: "nothing", ShapeBool: "bool",
	ShapeInt: "int", ShapeFloat: "float", ShapeNumber: "number",
	ShapeString: "string", ShapeDuration: "duration", ShapeDate: "date",
	ShapeBinary: "binary", ShapeList: "list", ShapeRecord: "record",
	ShapeBlock: "block", ShapeCondition: "condition", ShapeError: "error",
}

func (s Shape) String() string {
	if int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return fmt.Sprintf("shape(%d)", uint8(s))
}

// Param describes one positional parameter.
type Param struct {
	Name     string
	Shape    Shape
	Optional bool
}

// Flag describes one named flag. A flag without an argument evaluates to
// true when present.
type Flag struct {
	Long   string
	Short  rune
	HasArg bool
	Shape  Shape
}

// Signature is the declarative contract of one command. The zero value is
// not useful; use [New] and the builder methods:
//
//	sig.New("take").Required("n", sig.ShapeInt).Pipe(sig.ShapeList, sig.ShapeList)
type Signature struct {
	// Name is the full command name. It may contain spaces, as in
	// "str length"; the parser matches the longest registered name
	// against the leading barewords of a call.
	Name string

	Params    []Param
	RestParam *Param
	Flags     []Flag

	Input  Shape
	Output Shape
}

// New returns a new Signature with the given name, accepting and
// producing any shape and taking no parameters.
func New(name string) *Signature {
	return &Signature{Name: name}
}

// Required appends a required positional parameter and returns s.
func (s *Signature) Required(name string, shape Shape) *Signature {
	s.Params = append(s.Params, Param{Name: name, Shape: shape})
	return s
}

// Optional appends an optional positional parameter and returns s.
// Optional parameters must follow all required ones.
func (s *Signature) Optional(name string, shape Shape) *Signature {
	s.Params = append(s.Params, Param{Name: name, Shape: shape, Optional: true})
	return s
}

// Rest declares a trailing rest parameter collecting any number of
// arguments, and returns s.
func (s *Signature) Rest(name string, shape Shape) *Signature {
	s.RestParam = &Param{Name: name, Shape: shape}
	return s
}

// Flag appends a flag and returns s. Pass 0 for short if the flag has no
// short form. A flag declared with shape ShapeBool takes no argument.
func (s *Signature) Flag(long string, short rune, shape Shape) *Signature {
	s.Flags = append(s.Flags, Flag{
		Long: long, Short: short, HasArg: shape != ShapeBool, Shape: shape})
	return s
}

// Pipe declares the input and output shapes of the command's pipeline
// ports and returns s.
func (s *Signature) Pipe(input, output Shape) *Signature {
	s.Input = input
	s.Output = output
	return s
}

// MinArity returns the number of required positional parameters.
func (s *Signature) MinArity() int {
	n := 0
	for _, p := range s.Params {
		if !p.Optional {
			n++
		}
	}
	return n
}

// MaxArity returns the maximum number of positional arguments, or -1 if
// the signature has a rest parameter.
func (s *Signature) MaxArity() int {
	if s.RestParam != nil {
		return -1
	}
	return len(s.Params)
}

// FindFlag finds a flag by its long name, or nil.
func (s *Signature) FindFlag(long string) *Flag {
	for i := range s.Flags {
		if s.Flags[i].Long == long {
			return &s.Flags[i]
		}
	}
	return nil
}

// FindShortFlag finds a flag by its short form, or nil.
func (s *Signature) FindShortFlag(short rune) *Flag {
	for i := range s.Flags {
		if s.Flags[i].Short != 0 && s.Flags[i].Short == short {
			return &s.Flags[i]
		}
	}
	return nil
}

// Words returns the space-separated words of the command name.
func (s *Signature) Words() []string {
	return strings.Fields(s.Name)
}
