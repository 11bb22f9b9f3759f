package lexer

import (
	"fmt"
	"sort"
	"strings"
)

// Error describes a single lexical error: malformed token, unterminated
// string, bad escape, invalid unicode escape, or unsupported character
// (spec.md §7, taxon 2).
type Error struct {
	File string
	Line int
	Msg  string
}

func (e *Error) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// ErrorList accumulates every lexical error found in a source so that a
// caller can report more than just the first one, sorted by position.
type ErrorList []*Error

// Add appends a new error to the list.
func (l *ErrorList) Add(file string, line int, msg string) {
	*l = append(*l, &Error{File: file, Line: line, Msg: msg})
}

// Sort orders the errors by line number, stable on insertion order for ties.
func (l ErrorList) Sort() {
	sort.SliceStable(l, func(i, j int) bool { return l[i].Line < l[j].Line })
}

// Err returns l as an error if it is non-empty, else nil. The returned error's
// Unwrap() []error exposes every individual *Error.
func (l ErrorList) Err() error {
	if len(l) == 0 {
		return nil
	}
	return errList(l)
}

type errList ErrorList

func (l errList) Error() string {
	var sb strings.Builder
	for i, e := range l {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(e.Error())
	}
	return sb.String()
}

func (l errList) Unwrap() []error {
	errs := make([]error, len(l))
	for i, e := range l {
		errs[i] = e
	}
	return errs
}
