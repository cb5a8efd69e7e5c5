package release

import (
	"errors"
	"fmt"
)

// Sentinel errors for broad classification.
var (
	ErrMemberNotFound    = errors.New("workspace member not found")
	ErrVersionNotHigher  = errors.New("new version must be higher than current version")
	ErrPrereleaseVersion = errors.New("pre-release and build metadata versions are not supported")
)

// ErrorKind is a coarse-grained categorization for errors.
type ErrorKind string

const (
	KindNotFound        ErrorKind = "not_found"
	KindInvalidManifest ErrorKind = "invalid_manifest"
	KindInvalidVersion  ErrorKind = "invalid_version"
	KindEdit            ErrorKind = "edit"
)

// OpError wraps an underlying error with operation context and a kind.
type OpError struct {
	Op   string
	Kind ErrorKind
	Path string // Optional: relevant manifest path
	Err  error
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Path != "" {
		base += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsKind helps callers classify errors.
func IsKind(err error, kind ErrorKind) bool {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind == kind
	}
	return false
}
