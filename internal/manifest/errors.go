package manifest

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel causes for InputFormatError, usable with errors.Is.
var (
	ErrEmptyInput    = errors.New("manifest needs a header and at least one data row")
	ErrNoItemsParsed = errors.New("no items could be parsed from the manifest")
)

// InputFormatError reports a manifest that cannot be turned into items.
type InputFormatError struct {
	Lines int   // non-empty lines seen
	Err   error // ErrEmptyInput or ErrNoItemsParsed
}

func (e *InputFormatError) Error() string {
	return fmt.Sprintf("invalid manifest (%d lines): %v", e.Lines, e.Err)
}

func (e *InputFormatError) Unwrap() error {
	return e.Err
}

// MissingColumnsError reports a header in which not every role was found.
type MissingColumnsError struct {
	Header  []string
	Found   []Role
	Missing []Role
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("header is missing required columns: missing %s; found %s",
		joinRoles(e.Missing), joinRoles(e.Found))
}

func joinRoles(roles []Role) string {
	if len(roles) == 0 {
		return "none"
	}
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}
