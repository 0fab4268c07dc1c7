package parse

// Source describes a piece of source code.
type Source struct {
	// Name describes where the source comes from, like a file path or
	// "[tty]".
	Name string
	// Code is the source code itself.
	Code string
}

// SourceForTest returns a Source used in tests.
func SourceForTest(code string) Source {
	return Source{Name: "[test]", Code: code}
}
