package board

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrAmbiguous = errors.New("ambiguous name")
)

// LookupError reports a board or list name that matched nothing, or matched
// more than one entry when compared case-insensitively.
type LookupError struct {
	Kind    string // board or list
	Name    string
	Matches []string
	Err     error
}

func (e *LookupError) Error() string {
	if errors.Is(e.Err, ErrAmbiguous) {
		return fmt.Sprintf("%s %q is ambiguous, matches %s", e.Kind, e.Name, strings.Join(e.Matches, ", "))
	}
	return fmt.Sprintf("%s %q does not exist", e.Kind, e.Name)
}

func (e *LookupError) Unwrap() error { return e.Err }

// FindBoard returns the only board whose name equals name ignoring case.
func FindBoard(boards []Board, name string) (Board, error) {
	return findByName(boards, name, "board", func(b Board) string { return b.Name })
}

// FindList returns the only list whose name equals name ignoring case.
func FindList(lists []List, name string) (List, error) {
	return findByName(lists, name, "list", func(l List) string { return l.Name })
}

func findByName[T any](items []T, name, kind string, nameOf func(T) string) (T, error) {
	var found T
	var matches []string
	for _, item := range items {
		if strings.EqualFold(nameOf(item), name) {
			found = item
			matches = append(matches, nameOf(item))
		}
	}

	switch len(matches) {
	case 1:
		return found, nil
	case 0:
		var zero T
		return zero, &LookupError{Kind: kind, Name: name, Err: ErrNotFound}
	default:
		var zero T
		return zero, &LookupError{Kind: kind, Name: name, Matches: matches, Err: ErrAmbiguous}
	}
}
