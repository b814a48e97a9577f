package pathfmt

import (
	"errors"
	"fmt"
	"strings"
)

// ParseErrorKind classifies template syntax failures.
type ParseErrorKind int

const (
	UnclosedPlaceholder ParseErrorKind = iota + 1
	UnknownPlaceholder
)

var (
	ErrUnclosedPlaceholder = errors.New("unclosed placeholder")
	ErrUnknownPlaceholder  = errors.New("unknown placeholder")
)

// ParseError reports why a format string could not become a Template.
type ParseError struct {
	Kind ParseErrorKind
	// Name is set for UnknownPlaceholder.
	Name string
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case UnclosedPlaceholder:
		return "unclosed placeholder '{' in format string"
	case UnknownPlaceholder:
		return fmt.Sprintf("unknown placeholder %q (valid placeholders: %s)", e.Name, strings.Join(Names(), ", "))
	default:
		return "invalid format string"
	}
}

// Is lets errors.Is match the kind sentinels.
func (e *ParseError) Is(target error) bool {
	switch target {
	case ErrUnclosedPlaceholder:
		return e.Kind == UnclosedPlaceholder
	case ErrUnknownPlaceholder:
		return e.Kind == UnknownPlaceholder
	}
	return false
}

// MissingFieldsError is returned by Render when required placeholders could
// not be resolved. Fields are unique and ordered by first appearance.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	if len(e.Fields) == 0 {
		return "format renders an empty path"
	}
	return "missing required metadata: " + strings.Join(e.Fields, ", ")
}

// MissingFields extracts the missing field names from err, if any.
func MissingFields(err error) ([]string, bool) {
	var missing *MissingFieldsError
	if errors.As(err, &missing) {
		return append([]string(nil), missing.Fields...), true
	}
	return nil, false
}
