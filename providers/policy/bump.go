/*
Package policy decides how disruptive a version bump is and what it means for the
version requirements of dependents.

Both decisions are pure functions of their inputs and safe for concurrent use.
*/
package policy

import (
	"fmt"

	"github.com/dephub/cargo-bump/providers/versioneer"
)

// Severity classifies a version transition.
type Severity int

// Bump severities, from least to most disruptive.
const (
	Patch Severity = iota + 1
	Minor
	Major
)

// String returns the lower-case severity name.
func (s Severity) String() string {
	switch s {
	case Patch:
		return "patch"
	case Minor:
		return "minor"
	case Major:
		return "major"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// PreconditionError is the panic value of Classify when called with a pair of versions
// it has no answer for. It signals a bug in the caller.
type PreconditionError struct {
	Old, New versioneer.Version
	Reason   string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("bump %s -> %s: %s", e.Old, e.New, e.Reason)
}

// CheckBump reports the *PreconditionError Classify would panic with for cur and next,
// or nil when the pair can be classified.
func CheckBump(cur, next versioneer.Version) error {
	if !next.GreaterThan(cur) {
		return &PreconditionError{Old: cur, New: next, Reason: "new version must be higher than current version"}
	}
	if cur.Major() > 0 && cur.Major() == next.Major() && cur.Minor() == next.Minor() && cur.Patch() == next.Patch() {
		return &PreconditionError{Old: cur, New: next, Reason: "pre-release and build metadata bumps are not supported"}
	}
	return nil
}

// Classify returns the severity of the transition from cur to next.
//
// Below 1.0.0 the policy is stricter than plain semver: every 0.0.x change and every
// 0.x minor change is Major, and 0.x patch changes are at least Minor.
//
// next must be strictly higher than cur, and for stable versions at least one of the
// major, minor and patch fields must differ. Violations panic with *PreconditionError,
// use CheckBump to validate untrusted input first.
func Classify(cur, next versioneer.Version) Severity {
	if err := CheckBump(cur, next); err != nil {
		panic(err)
	}

	if cur.Major() == 0 && cur.Minor() == 0 {
		// 0.0.x -> <anything>
		return Major
	}

	if cur.Major() == 0 {
		if next.Major() > 0 {
			// stabilization, 0.x -> 1.x
			return Major
		}
		if next.Minor() > cur.Minor() {
			// 0.x -> 0.y where y > x
			return Major
		}
		// 0.x.y -> 0.x.z
		return Minor
	}

	switch {
	case next.Major() > cur.Major():
		return Major
	case next.Minor() > cur.Minor():
		return Minor
	}
	return Patch
}
