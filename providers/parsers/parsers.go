/*
Package parsers provides parsers for Cargo manifest files (Cargo.toml).

Goals:
  - Parsing manifests into readable structs
  - Listing the dependency entries of a manifest in a normalized form

Usage:

	parser := parsers.NewCargoParser(fetcher, "crates/core/Cargo.toml")
	cns, err := parser.Constraints(ctx)
*/
package parsers

import (
	"context"
	"errors"
)

var (
	ErrFileNotFound = errors.New("file not found")
	// ErrInvalidManifest is wrapped by every manifest decoding error.
	ErrInvalidManifest = errors.New("invalid manifest")
)

// Dependency tables of a Cargo manifest.
const (
	TableDependencies      = "dependencies"
	TableDevDependencies   = "dev-dependencies"
	TableBuildDependencies = "build-dependencies"
)

// DependencyTables lists the dependency tables in manifest order.
var DependencyTables = []string{TableDependencies, TableDevDependencies, TableBuildDependencies}

// DependencyParser represents basic interface for parsers in this package.
type DependencyParser interface {
	// Constraints have to return list of dependencies (with constraints or not).
	Constraints(context.Context) ([]Constraint, error)
}

// Constraint represents one dependency entry of a manifest.
type Constraint struct {
	// Name is the package name, which differs from Key for renamed dependencies.
	Name string
	// Key is the manifest key of the entry.
	Key string
	// Table is one of the Table* constants.
	Table string
	// Version is the raw requirement, empty when the entry has none.
	Version string
	// Path is set for path dependencies.
	Path string
	// Workspace marks 'workspace = true' entries inheriting from [workspace.dependencies].
	Workspace bool
}
