package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
)

// style is an ANSI SGR sequence.
type style string

const (
	styleRed   style = "\033[31m"
	styleCyan  style = "\033[36m"
	styleGray  style = "\033[90m"
	styleBold  style = "\033[1m"
	styleAlert style = "\033[1;31m"
	styleReset style = "\033[0m"
)

var colorEnabled = true

// DisableColors turns off ANSI styling in Format and Print.
func DisableColors() { colorEnabled = false }

// EnableColors turns ANSI styling back on.
func EnableColors() { colorEnabled = true }

func (s style) paint(text string) string {
	if !colorEnabled || text == "" {
		return text
	}
	return string(s) + text + string(styleReset)
}

// Format returns the error laid out for a terminal: a header line, the
// source excerpt when a location is known, then detail, cause and hint.
func (e *Error) Format() string {
	var b strings.Builder

	header := "ERROR:"
	if e.Code != "" {
		header = "ERROR " + e.Code + ":"
	}
	fmt.Fprintf(&b, "\n%s %s\n\n", styleAlert.paint(header), styleBold.paint(e.Message))

	if e.Location != nil {
		fmt.Fprintf(&b, "  %s\n\n", styleCyan.paint(e.Location.String()))
		if len(e.Context) > 0 {
			e.writeExcerpt(&b)
			b.WriteByte('\n')
		}
	}

	if lines := wrapText(e.Detail, 70); len(lines) > 0 {
		for _, line := range lines {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		b.WriteByte('\n')
	}
	if e.Wrapped != nil {
		fmt.Fprintf(&b, "  %s%s\n\n", styleGray.paint("Cause: "), e.Wrapped)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  %s%s\n\n", styleCyan.paint("Hint: "), e.Suggestion)
	}
	return b.String()
}

// writeExcerpt prints the context lines centred on the error line, marking
// that line with an arrow and, when the column is known, a caret under it.
func (e *Error) writeExcerpt(w io.Writer) {
	first := max(e.Location.Line-len(e.Context)/2, 1)
	gutter := styleGray.paint(" │ ")

	for i, text := range e.Context {
		n := first + i
		if n != e.Location.Line {
			fmt.Fprintf(w, "    %4d%s%s\n", n, gutter, text)
			continue
		}
		fmt.Fprintf(w, "  %s%4d%s%s\n", styleRed.paint("→ "), n, gutter, text)
		if col := e.Location.Column; col > 0 {
			fmt.Fprintf(w, "       %s%s%s\n", styleGray.paint("│ "), strings.Repeat(" ", col-1), styleRed.paint("^"))
		}
	}
}

// FormatCompact returns a single-line form.
func (e *Error) FormatCompact() string {
	var b strings.Builder
	if e.Location != nil {
		b.WriteString(e.Location.String())
		b.WriteString(": ")
	}
	b.WriteString(e.Error())
	return b.String()
}

type jsonError struct {
	Code       string    `json:"code,omitempty"`
	Category   Category  `json:"category"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	Location   *Location `json:"location,omitempty"`
	Suggestion string    `json:"suggestion,omitempty"`
	Cause      string    `json:"cause,omitempty"`
}

// MarshalJSON encodes the error for API responses.
func (e *Error) MarshalJSON() ([]byte, error) {
	out := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Location:   e.Location,
		Suggestion: e.Suggestion,
	}
	if e.Wrapped != nil {
		out.Cause = e.Wrapped.Error()
	}
	return json.Marshal(out)
}

// wrapText greedily fills lines of at most width bytes. A single word
// longer than width gets a line of its own.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	lines := []string{words[0]}
	for _, word := range words[1:] {
		last := &lines[len(lines)-1]
		if len(*last)+1+len(word) > width {
			lines = append(lines, word)
			continue
		}
		*last += " " + word
	}
	return lines
}

// Print writes err to w, formatted if it carries a code.
func Print(w io.Writer, err error) {
	var coded *Error
	if stderrors.As(err, &coded) {
		fmt.Fprint(w, coded.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", styleAlert.paint("ERROR:"), err)
}
