/*
Package versioneer provides semantic versions and Cargo version requirements.

Usage:

	v, err := versioneer.ParseVersion("1.3.4")
	req, err := versioneer.ParseRequirement("1.2, <1.8")
	ok := req.Matches(v)
*/
package versioneer

import (
	"github.com/Masterminds/semver/v3"
)

// zeroVersion backs the zero value of Version.
var zeroVersion = semver.New(0, 0, 0, "", "")

// Version represents a fixed semantic version (e.g. '1.0.3' or '2.0.0-rc.1+build.5').
//
// Versions are immutable and ordered by semver precedence: pre-release versions sort
// below their release and build metadata is ignored.
type Version struct {
	sv *semver.Version
}

// ParseVersion parses a strict 'MAJOR.MINOR.PATCH[-PRERELEASE][+BUILD]' string.
func ParseVersion(value string) (Version, error) {
	sv, err := semver.StrictNewVersion(value)
	if err != nil {
		return Version{}, &ParseError{Kind: KindVersion, Input: value, Err: err}
	}
	return Version{sv: sv}, nil
}

// MustParseVersion is like ParseVersion but panics on malformed input.
// It is intended for tests and package level variables.
func MustParseVersion(value string) Version {
	v, err := ParseVersion(value)
	if err != nil {
		panic(err)
	}
	return v
}

// NewVersion constructs a release version from its numeric segments.
func NewVersion(major, minor, patch uint64) Version {
	return Version{sv: semver.New(major, minor, patch, "", "")}
}

func (v Version) semver() *semver.Version {
	if v.sv == nil {
		return zeroVersion
	}
	return v.sv
}

// Major method returns integer value of the major version segment (e.g. '?.0.0')
func (v Version) Major() uint64 { return v.semver().Major() }

// Minor method returns integer value of the minor version segment (e.g. '0.?.0')
func (v Version) Minor() uint64 { return v.semver().Minor() }

// Patch method returns integer value of the patch version segment (e.g. '0.0.?')
func (v Version) Patch() uint64 { return v.semver().Patch() }

// Prerelease returns the pre-release identifiers without the leading '-'.
func (v Version) Prerelease() string { return v.semver().Prerelease() }

// Metadata returns the build metadata without the leading '+'.
func (v Version) Metadata() string { return v.semver().Metadata() }

// IsRelease reports whether the version carries neither pre-release nor build metadata.
func (v Version) IsRelease() bool {
	return v.Prerelease() == "" && v.Metadata() == ""
}

// Compare returns -1, 0 or 1 when v is lower, equal or higher than o by precedence.
func (v Version) Compare(o Version) int {
	return v.semver().Compare(o.semver())
}

// LessThan reports whether v has lower precedence than o.
func (v Version) LessThan(o Version) bool { return v.Compare(o) < 0 }

// GreaterThan reports whether v has higher precedence than o.
func (v Version) GreaterThan(o Version) bool { return v.Compare(o) > 0 }

// String returns the canonical version string.
func (v Version) String() string { return v.semver().String() }

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
