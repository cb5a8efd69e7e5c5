package policy

import (
	"github.com/dephub/cargo-bump/providers/versioneer"
)

// OutcomeKind tags the result of Reconcile.
type OutcomeKind int

// Reconcile outcomes.
const (
	// RequirementStale means the requirement did not admit the old version either. This is
	// either an inconsistency in the workspace or an intentional pin to an older line, so
	// the requirement is left alone.
	RequirementStale OutcomeKind = iota + 1
	// RequirementStillValid means the requirement needs no edit.
	RequirementStillValid
	// RequirementNeedsUpdate means the requirement must be replaced by Outcome.Requirement.
	RequirementNeedsUpdate
)

// String returns the outcome name.
func (k OutcomeKind) String() string {
	switch k {
	case RequirementStale:
		return "stale"
	case RequirementStillValid:
		return "still-valid"
	case RequirementNeedsUpdate:
		return "needs-update"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (k OutcomeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Outcome is the result of reconciling one requirement against a version bump.
type Outcome struct {
	Kind OutcomeKind
	// Requirement is the replacement requirement, set only for RequirementNeedsUpdate.
	Requirement versioneer.Requirement
}

// Reconcile decides whether req, written against cur, has to change now that the
// dependency moves to next.
//
// next must be higher than cur whenever req matches cur but not next (see Classify).
func Reconcile(req versioneer.Requirement, cur, next versioneer.Version) Outcome {
	if !req.Matches(cur) {
		return Outcome{Kind: RequirementStale}
	}

	if req.Matches(next) {
		return Outcome{Kind: RequirementStillValid}
	}

	switch Classify(cur, next) {
	case Patch, Minor:
		// e.g. '=1.2.3' with 1.2.3 -> 1.2.4: the literal match fails but the bump is
		// compatible, so the pin is kept
		return Outcome{Kind: RequirementStillValid}
	default:
		return Outcome{Kind: RequirementNeedsUpdate, Requirement: MinimalRequirement(next)}
	}
}

// MinimalRequirement returns the shortest caret requirement pinned to v's leading
// significant component: 1.0.0 -> "1", 1.1.0 -> "1.1", 1.0.1 -> "1.0.1".
// Pre-release versions keep their full form.
func MinimalRequirement(v versioneer.Version) versioneer.Requirement {
	c := versioneer.Comparator{
		Op:    versioneer.OpCaret,
		Major: v.Major(),
		Minor: v.Minor(),
		Patch: v.Patch(),
		Pre:   v.Prerelease(),
	}

	switch {
	case c.Pre != "":
		c.Segments = 3
	case c.Patch == 0 && c.Minor == 0:
		c.Segments = 1
	case c.Patch == 0:
		c.Segments = 2
	default:
		c.Segments = 3
	}

	return versioneer.NewRequirement(c)
}
