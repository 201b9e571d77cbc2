package errors

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"os"
	"strings"
)

// Category represents the type of error.
type Category string

const (
	CategoryRouting    Category = "routing"
	CategoryNavigation Category = "navigation"
	CategoryProtocol   Category = "protocol"
	CategoryConfig     Category = "config"
	CategoryCLI        Category = "cli"
)

// Location is a position in a file, such as a config document.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

// String returns the location as "file:line:column".
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Error is a coded tool error. Library packages return plain sentinel
// errors; the CLI, config loader and dev server lift them into an Error so
// they print with a code and a hint.
type Error struct {
	Code     string // registered identifier, "W001".."W006"
	Category Category
	Message  string // one-line summary from the registry
	Detail   string // longer explanation, wrapped when formatted

	Location *Location // position in a config document, if known
	Context  []string  // source lines around Location

	Suggestion string
	Wrapped    error
}

// Error renders "code: message: cause", omitting absent parts.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Code != "" {
		b.WriteString(e.Code)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Wrapped != nil {
		b.WriteString(": ")
		b.WriteString(e.Wrapped.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Wrapped }

// WithLocation records a file position and reads the lines around it.
func (e *Error) WithLocation(file string, line, column int) *Error {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = sourceLines(file, line, 3)
	return e
}

// WithSuggestion adds a fix hint.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithDetail replaces the registered explanation.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// Wrap sets the underlying error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// sourceLines returns up to span lines of file centred on line. A file
// that cannot be read yields no context; the location alone still prints.
func sourceLines(file string, line, span int) []string {
	f, err := os.Open(file)
	if err != nil {
		return nil
	}
	defer f.Close()

	from, to := line-span/2, line+span/2
	var out []string
	sc := bufio.NewScanner(f)
	for n := 1; n <= to && sc.Scan(); n++ {
		if n >= from {
			out = append(out, sc.Text())
		}
	}
	return out
}

// New creates an Error from a registered code.
func New(code string) *Error {
	t, ok := registry[code]
	if !ok {
		return &Error{Code: code, Message: "Unknown error"}
	}
	return &Error{Code: code, Category: t.Category, Message: t.Message, Detail: t.Detail}
}

// Newf creates an uncoded Error with a formatted message.
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError returns err's *Error if it has one, or wraps err under code.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	var coded *Error
	if stderrors.As(err, &coded) {
		return coded
	}
	return New(code).Wrap(err)
}

// HasCode reports whether err is, or wraps, an *Error with code.
func HasCode(err error, code string) bool {
	var coded *Error
	return stderrors.As(err, &coded) && coded.Code == code
}
