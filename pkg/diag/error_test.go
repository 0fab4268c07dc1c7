package diag

import (
	"errors"
	"strings"
	"testing"
)

func TestError(t *testing.T) {
	err := &Error{
		Type:    "parse error",
		Message: "should be ')'",
		Context: *contextOf("put (1", 6, 6),
	}
	if got := err.Error(); !strings.Contains(got, "should be ')'") {
		t.Errorf("Error() = %q", got)
	}
	if got := err.Range(); got != (Ranging{6, 6}) {
		t.Errorf("Range() = %v", got)
	}
	shown := err.Show("")
	if !strings.HasPrefix(shown, "Parse error:") {
		t.Errorf("Show() = %q, want leading title", shown)
	}
}

func TestShowError(t *testing.T) {
	var sb strings.Builder
	ShowError(&sb, &Error{
		Type: "parse error", Message: "bad", Context: *contextOf("x", 0, 1)})
	if !strings.Contains(sb.String(), "Parse error:") {
		t.Errorf("ShowError of a Shower = %q", sb.String())
	}

	sb.Reset()
	ShowError(&sb, errors.New("plain failure"))
	if got := sb.String(); got != "Plain failure\n" {
		t.Errorf("ShowError of a plain error = %q", got)
	}
}
