package vals

// List is an ordered sequence of values. Lists preserve positional order;
// all list-producing operations in the language append in order.
type List = []any

// MakeList returns a List containing the given values.
func MakeList(vs ...any) List {
	return List(vs)
}
