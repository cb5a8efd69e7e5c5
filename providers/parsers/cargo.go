package parsers

import (
	"context"
	"fmt"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/dephub/cargo-bump/providers/fetchers"
)

// NewCargoParser constructs Cargo manifest parser reading manifestPath.
func NewCargoParser(fetcher fetchers.FileFetcher, manifestPath string) *CargoParser {
	return &CargoParser{fetcher: fetcher, path: manifestPath}
}

// CargoParser represents concrete Cargo parser implementation.
type CargoParser struct {
	fetcher fetchers.FileFetcher
	path    string
}

var _ DependencyParser = (*CargoParser)(nil)

// CargoManifest represents Cargo manifest file (Cargo.toml).
//
// Dependency tables are kept undecoded since an entry is either a requirement string or
// a table, see (*CargoManifest).Constraints.
type CargoManifest struct {
	Package           *CargoPackage   `toml:"package"`
	Workspace         *CargoWorkspace `toml:"workspace"`
	Dependencies      map[string]any  `toml:"dependencies"`
	DevDependencies   map[string]any  `toml:"dev-dependencies"`
	BuildDependencies map[string]any  `toml:"build-dependencies"`
}

// CargoPackage represents the [package] table.
type CargoPackage struct {
	Name string `toml:"name"`
	// Version is either a string or {workspace = true}.
	Version any `toml:"version"`
}

// CargoWorkspace represents the [workspace] table.
type CargoWorkspace struct {
	Members      []string           `toml:"members"`
	Exclude      []string           `toml:"exclude"`
	Package      *CargoWorkspacePkg `toml:"package"`
	Dependencies map[string]any     `toml:"dependencies"`
}

// CargoWorkspacePkg represents the [workspace.package] table.
type CargoWorkspacePkg struct {
	Version string `toml:"version"`
}

// Manifest fetches and decodes the manifest.
func (c CargoParser) Manifest(ctx context.Context) (*CargoManifest, error) {
	b, err := c.fetcher.FileContent(ctx, c.path)
	if err != nil {
		if err == fetchers.ErrFileNotFound {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("unable to fetch cargo manifest %q from the source: %w", c.path, err)
	}
	return ParseCargoManifest(b)
}

// Constraints method returns the dependency entries of every dependency table.
func (c CargoParser) Constraints(ctx context.Context) ([]Constraint, error) {
	m, err := c.Manifest(ctx)
	if err != nil {
		return nil, err
	}
	return m.Constraints()
}

// ParseCargoManifest decodes manifest content.
func ParseCargoManifest(b []byte) (*CargoManifest, error) {
	var m CargoManifest
	if err := toml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("%w: unable to parse cargo file content: %v", ErrInvalidManifest, err)
	}
	if m.Package == nil && m.Workspace == nil {
		return nil, fmt.Errorf("%w: neither [package] nor [workspace] found", ErrInvalidManifest)
	}
	if m.Package != nil && m.Package.Name == "" {
		return nil, fmt.Errorf("%w: package name is missing", ErrInvalidManifest)
	}
	return &m, nil
}

// PackageVersion returns the package version and whether it is inherited from
// [workspace.package]. Cargo defaults a missing version to 0.0.0.
func (m *CargoManifest) PackageVersion() (version string, inherited bool, err error) {
	if m.Package == nil {
		return "", false, fmt.Errorf("%w: not a package manifest", ErrInvalidManifest)
	}
	switch v := m.Package.Version.(type) {
	case nil:
		return "0.0.0", false, nil
	case string:
		return v, false, nil
	case map[string]any:
		if ws, _ := v["workspace"].(bool); ws {
			return "", true, nil
		}
	}
	return "", false, fmt.Errorf("%w: unsupported package version %v", ErrInvalidManifest, m.Package.Version)
}

// Constraints returns entries of all dependency tables, ordered by table then key.
func (m *CargoManifest) Constraints() ([]Constraint, error) {
	tables := map[string]map[string]any{
		TableDependencies:      m.Dependencies,
		TableDevDependencies:   m.DevDependencies,
		TableBuildDependencies: m.BuildDependencies,
	}

	res := []Constraint{}
	for _, table := range DependencyTables {
		cns, err := tableConstraints(table, tables[table])
		if err != nil {
			return nil, err
		}
		res = append(res, cns...)
	}
	return res, nil
}

// WorkspaceConstraints returns the entries of [workspace.dependencies].
func (m *CargoManifest) WorkspaceConstraints() ([]Constraint, error) {
	if m.Workspace == nil {
		return []Constraint{}, nil
	}
	return tableConstraints("workspace.dependencies", m.Workspace.Dependencies)
}

func tableConstraints(table string, entries map[string]any) ([]Constraint, error) {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	res := make([]Constraint, 0, len(keys))
	for _, key := range keys {
		cst, err := parseCargoDependency(table, key, entries[key])
		if err != nil {
			return nil, err
		}
		res = append(res, cst)
	}
	return res, nil
}

// parseCargoDependency normalizes one entry, both 'foo = "1.2"' and
// 'foo = { version = "1.2", path = "../foo", package = "bar" }' forms.
func parseCargoDependency(table, key string, raw any) (Constraint, error) {
	cst := Constraint{Name: key, Key: key, Table: table}

	switch v := raw.(type) {
	case string:
		cst.Version = v
		return cst, nil
	case map[string]any:
		var ok bool
		for field, dst := range map[string]*string{"version": &cst.Version, "path": &cst.Path, "package": &cst.Name} {
			val, found := v[field]
			if !found {
				continue
			}
			if *dst, ok = val.(string); !ok {
				return cst, fmt.Errorf("%w: %s.%s.%s must be a string", ErrInvalidManifest, table, key, field)
			}
		}
		if ws, found := v["workspace"]; found {
			if cst.Workspace, ok = ws.(bool); !ok {
				return cst, fmt.Errorf("%w: %s.%s.workspace must be a boolean", ErrInvalidManifest, table, key)
			}
		}
		return cst, nil
	}
	return cst, fmt.Errorf("%w: unsupported dependency specification for %s.%s", ErrInvalidManifest, table, key)
}
