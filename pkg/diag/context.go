package diag

import (
	"fmt"
	"strings"
)

// Context is a range of text within a named piece of source code. It is
// used in errors that point back at a part of the source, like parse
// errors and stack trace entries.
type Context struct {
	Name   string
	Source string
	Ranging

	culprit culprit
}

// NewContext creates a new Context.
func NewContext(name, source string, r Ranger) *Context {
	return &Context{Name: name, Source: source, Ranging: r.Range()}
}

// Culprit returns the text of the range within the source.
func (c *Context) Culprit() string {
	return c.Source[c.From:c.To]
}

// The text of the range along with its surroundings, cut at line
// boundaries, plus the 1-based line numbers the range spans.
type culprit struct {
	valid bool

	// Text on the first line of the range before the range itself.
	head string
	// Source[From:To], with a trailing newline stripped.
	body string
	// Text on the last line of the range after the range itself.
	tail string

	beginLine int
	endLine   int
}

func (c *Context) findCulprit() *culprit {
	if c.culprit.valid {
		return &c.culprit
	}

	before := c.Source[:c.From]
	body := c.Source[c.From:c.To]
	after := c.Source[c.To:]

	head := before[strings.LastIndexByte(before, '\n')+1:]
	beginLine := strings.Count(before, "\n") + 1

	var tail string
	if strings.HasSuffix(body, "\n") {
		body = body[:len(body)-1]
	} else if i := strings.IndexByte(after, '\n'); i == -1 {
		tail = after
	} else {
		tail = after[:i]
	}

	c.culprit = culprit{
		true, head, body, tail, beginLine, beginLine + strings.Count(body, "\n")}
	return &c.culprit
}

// Show shows the context: the name of the source, the line range, and the
// relevant source text with the range highlighted.
func (c *Context) Show(indent string) string {
	if err := c.checkPosition(); err != nil {
		return err.Error()
	}
	return c.Name + ", " + c.lineRange() +
		"\n" + indent + "  " + c.relevantSource(indent+"  ")
}

// ShowCompact is like Show, but with no line break between the position
// description and the source excerpt.
func (c *Context) ShowCompact(indent string) string {
	if err := c.checkPosition(); err != nil {
		return err.Error()
	}
	desc := c.Name + ", " + c.lineRange() + " "
	// Extra indent so that following lines line up with the first one.
	descIndent := strings.Repeat(" ", len(desc))
	return desc + c.relevantSource(indent+descIndent)
}

func (c *Context) checkPosition() error {
	if c.From == -1 {
		return fmt.Errorf("%s, unknown position", c.Name)
	} else if c.From < 0 || c.To > len(c.Source) || c.From > c.To {
		return fmt.Errorf("%s, invalid position %d-%d", c.Name, c.From, c.To)
	}
	return nil
}

func (c *Context) lineRange() string {
	cu := c.findCulprit()
	if cu.beginLine == cu.endLine {
		return fmt.Sprintf("line %d:", cu.beginLine)
	}
	return fmt.Sprintf("line %d-%d:", cu.beginLine, cu.endLine)
}

func (c *Context) relevantSource(indent string) string {
	cu := c.findCulprit()

	var sb strings.Builder
	sb.WriteString(cu.head)

	body := cu.body
	if body == "" {
		body = culpritPlaceHolder
	}
	for i, line := range strings.Split(body, "\n") {
		if i > 0 {
			sb.WriteByte('\n')
			sb.WriteString(indent)
		}
		sb.WriteString(culpritLineBegin)
		sb.WriteString(line)
		sb.WriteString(culpritLineEnd)
	}

	sb.WriteString(cu.tail)
	return sb.String()
}

// Variables controlling the style of the culprit. Overridable for
// environments that cannot render ANSI sequences.
var (
	culpritLineBegin   = "\033[1;4m"
	culpritLineEnd     = "\033[m"
	culpritPlaceHolder = "^"
)

// DisableANSI turns off the ANSI styling of shown errors and contexts.
func DisableANSI() {
	culpritLineBegin = ""
	culpritLineEnd = ""
	messageBegin = ""
	messageEnd = ""
}
