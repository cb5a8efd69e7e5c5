package versioneer

import (
	"errors"
	"fmt"
)

var (
	// ErrParse is matched by every *ParseError.
	ErrParse = errors.New("parse error")
	// ErrUnsupportedOperator is matched by every *UnsupportedOperatorError.
	ErrUnsupportedOperator = errors.New("unsupported operator")
)

// Parsed input kinds.
const (
	KindVersion     = "version"
	KindRequirement = "requirement"
)

// ParseError reports a malformed version or requirement string.
type ParseError struct {
	Kind  string // KindVersion or KindRequirement
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s %q: %v", e.Kind, e.Input, e.Err)
	}
	return fmt.Sprintf("invalid %s %q", e.Kind, e.Input)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrParse) hold for any ParseError.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// UnsupportedOperatorError reports a comparator operator outside the modeled set
// (e.g. '!=' or '~>').
type UnsupportedOperatorError struct {
	Op    string
	Input string
}

func (e *UnsupportedOperatorError) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("unsupported requirement operator %q in %q", e.Op, e.Input)
	}
	return fmt.Sprintf("unsupported requirement operator %q", e.Op)
}

// Is makes errors.Is(err, ErrUnsupportedOperator) hold for any UnsupportedOperatorError.
func (e *UnsupportedOperatorError) Is(target error) bool { return target == ErrUnsupportedOperator }
