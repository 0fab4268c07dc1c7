package vals

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Reprer wraps the Repr method.
type Reprer interface {
	// Repr returns a string that represents the value.
	Repr() string
}

// Repr returns a representation of the value that reads like the source
// literal producing it where one exists.
func Repr(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return formatFloat(v)
	case string:
		return reprString(v)
	case time.Duration:
		return v.String()
	case time.Time:
		return v.Format(time.RFC3339)
	case []byte:
		return "0x[" + hex.EncodeToString(v) + "]"
	case List:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = Repr(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Record:
		var sb strings.Builder
		sb.WriteByte('{')
		for i, k := range v.Keys() {
			if i > 0 {
				sb.WriteString(", ")
			}
			e, _ := v.Get(k)
			sb.WriteString(k)
			sb.WriteString(": ")
			sb.WriteString(Repr(e))
		}
		sb.WriteByte('}')
		return sb.String()
	case Stream:
		return "<stream>"
	case Reprer:
		return v.Repr()
	default:
		return fmt.Sprintf("<unknown %v>", v)
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	// Keep floats recognizable as floats.
	if !strings.ContainsAny(s, ".eEnI") {
		s += ".0"
	}
	return s
}

func reprString(s string) string {
	if isBareword(s) {
		return s
	}
	return strconv.Quote(s)
}

func isBareword(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '_', r == '.', r == '/':
		default:
			return false
		}
	}
	return true
}
