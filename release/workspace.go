/*
Package release provides the workspace level api for bumping a workspace member: the
member graph, release planning and applying a plan to the manifests.

Usage:

	ws, err := release.Load(ctx, fetchers.NewDirFetcher("."), "Cargo.toml", nil)
	plan, err := ws.NewPlan("core", versioneer.MustParseVersion("2.0.0"))
	changes, err := ws.Apply(ctx, plan, false)
*/
package release

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/dephub/cargo-bump/internal/logger"
	"github.com/dephub/cargo-bump/providers/changelog"
	"github.com/dephub/cargo-bump/providers/fetchers"
	"github.com/dephub/cargo-bump/providers/parsers"
	"github.com/dephub/cargo-bump/providers/versioneer"
)

// Workspace represents a loaded Cargo workspace.
type Workspace struct {
	// RootManifest is the path of the workspace root manifest.
	RootManifest string
	// Members are sorted by name.
	Members []*Member

	store      fetchers.Store
	changelogs *changelog.Locator
}

// Member represents one workspace package.
type Member struct {
	Name         string
	Version      versioneer.Version
	ManifestPath string
	Dir          string
	// InheritedVersion marks 'version.workspace = true' packages whose version lives in
	// the root [workspace.package] table.
	InheritedVersion bool
	// Dependencies are the path dependencies on other members, of every kind.
	Dependencies []Dependency
	// Dependents are the members depending on this one.
	Dependents []Dependent
	// Changelog is the changelog path, empty when the member has none.
	Changelog string
}

// Dependency represents a path dependency on another member.
type Dependency struct {
	// Name is the depended on member name.
	Name string
	// Key is the manifest key, which differs from Name for renamed dependencies.
	Key string
	// Table is one of parsers.Table* constants.
	Table       string
	Requirement versioneer.Requirement
	Path        string
	// Inherited marks 'workspace = true' entries, their requirement lives in the root
	// [workspace.dependencies] table.
	Inherited bool
}

// Dependent is a reverse dependency edge.
type Dependent struct {
	Member     *Member
	Dependency Dependency
}

// Label returns the multi-select label of the dependent, '<name> : <requirement>'.
func (d Dependent) Label() string {
	if d.Dependency.Table != parsers.TableDependencies {
		return fmt.Sprintf("%s (%s) : %s", d.Member.Name, d.Dependency.Table, d.Dependency.Requirement)
	}
	return fmt.Sprintf("%s : %s", d.Member.Name, d.Dependency.Requirement)
}

// Load reads the workspace whose root manifest is rootManifest.
//
// A root manifest without [workspace] is a single package workspace. changelogs
// defaults to a locator over store with the default file names.
func Load(ctx context.Context, store fetchers.Store, rootManifest string, changelogs *changelog.Locator) (*Workspace, error) {
	const op = "release.load"

	if changelogs == nil {
		changelogs = changelog.NewLocator(store)
	}
	ws := &Workspace{RootManifest: rootManifest, store: store, changelogs: changelogs}

	root, err := readManifest(ctx, store, rootManifest)
	if err != nil {
		return nil, err
	}
	rootDir := path.Dir(rootManifest)

	manifests := map[string]*parsers.CargoManifest{}
	var paths []string
	if root.Package != nil {
		manifests[rootManifest] = root
		paths = append(paths, rootManifest)
	}

	if root.Workspace != nil {
		found, err := memberManifests(ctx, store, rootDir, root.Workspace)
		if err != nil {
			return nil, &OpError{Op: op, Kind: KindNotFound, Path: rootManifest, Err: err}
		}
		for _, p := range found {
			if _, ok := manifests[p]; ok {
				continue
			}
			m, err := readManifest(ctx, store, p)
			if err != nil {
				return nil, err
			}
			if m.Package == nil {
				return nil, &OpError{Op: op, Kind: KindInvalidManifest, Path: p, Err: errors.New("workspace member has no [package]")}
			}
			manifests[p] = m
			paths = append(paths, p)
		}
	}

	byName := map[string]*Member{}
	for _, p := range paths {
		member, err := newMember(root, p, manifests[p])
		if err != nil {
			return nil, err
		}
		if _, dup := byName[member.Name]; dup {
			return nil, &OpError{Op: op, Kind: KindInvalidManifest, Path: p, Err: fmt.Errorf("duplicate package name %q", member.Name)}
		}
		if member.Changelog, _, err = changelogs.Find(ctx, member.Dir); err != nil && err != changelog.ErrNotFound {
			return nil, &OpError{Op: op, Kind: KindNotFound, Path: member.Dir, Err: err}
		}
		byName[member.Name] = member
		ws.Members = append(ws.Members, member)
	}
	sort.Slice(ws.Members, func(i, j int) bool { return ws.Members[i].Name < ws.Members[j].Name })

	if err := ws.link(root, manifests); err != nil {
		return nil, err
	}

	logger.L().Info("workspace.loaded", "manifest", rootManifest, "members", len(ws.Members))
	return ws, nil
}

// Member returns the member called name.
func (ws *Workspace) Member(name string) (*Member, error) {
	for _, m := range ws.Members {
		if m.Name == name {
			return m, nil
		}
	}
	return nil, &OpError{Op: "release.member", Kind: KindNotFound, Err: fmt.Errorf("%w: %s", ErrMemberNotFound, name)}
}

// Unreleased returns the unreleased changelog section of m, found is false when m has
// no changelog.
func (ws *Workspace) Unreleased(ctx context.Context, m *Member) (section string, found bool, err error) {
	return ws.changelogs.Unreleased(ctx, m.Dir, m.Version.String())
}

// NormalDependencies returns the number of members m depends on through [dependencies].
func (m *Member) NormalDependencies() int {
	seen := map[string]bool{}
	for _, d := range m.Dependencies {
		if d.Table == parsers.TableDependencies {
			seen[d.Name] = true
		}
	}
	return len(seen)
}

// DependentMembers returns the number of distinct members depending on m.
func (m *Member) DependentMembers() int {
	seen := map[string]bool{}
	for _, d := range m.Dependents {
		seen[d.Member.Name] = true
	}
	return len(seen)
}

// Label returns the selection label 'name version (dependencies: N, dependents: M,
// changelog)'. The bracket only lists what applies and is omitted when empty.
func (m *Member) Label() string {
	var meta []string
	if n := m.NormalDependencies(); n > 0 {
		meta = append(meta, fmt.Sprintf("dependencies: %d", n))
	}
	if n := m.DependentMembers(); n > 0 {
		meta = append(meta, fmt.Sprintf("dependents: %d", n))
	}
	if m.Changelog != "" {
		meta = append(meta, "changelog")
	}

	label := fmt.Sprintf("%s %s", m.Name, m.Version)
	if len(meta) > 0 {
		label += " (" + strings.Join(meta, ", ") + ")"
	}
	return label
}

func readManifest(ctx context.Context, store fetchers.FileFetcher, p string) (*parsers.CargoManifest, error) {
	m, err := parsers.NewCargoParser(store, p).Manifest(ctx)
	if err != nil {
		kind := KindInvalidManifest
		if err == parsers.ErrFileNotFound {
			kind = KindNotFound
		}
		return nil, &OpError{Op: "release.read_manifest", Kind: kind, Path: p, Err: err}
	}
	return m, nil
}

// memberManifests expands [workspace] members patterns into manifest paths.
func memberManifests(ctx context.Context, store fetchers.Store, rootDir string, ws *parsers.CargoWorkspace) ([]string, error) {
	var res []string
	for _, pattern := range ws.Members {
		matches, err := store.Glob(ctx, path.Join(rootDir, pattern, "Cargo.toml"))
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 && !strings.ContainsAny(pattern, "*?[") {
			return nil, fmt.Errorf("workspace member %q has no Cargo.toml", pattern)
		}
		for _, p := range matches {
			if !excluded(rootDir, path.Dir(p), ws.Exclude) {
				res = append(res, p)
			}
		}
	}
	return res, nil
}

func excluded(rootDir, dir string, exclude []string) bool {
	for _, ex := range exclude {
		ex = path.Join(rootDir, ex)
		if dir == ex || strings.HasPrefix(dir, ex+"/") {
			return true
		}
	}
	return false
}

func newMember(root *parsers.CargoManifest, manifestPath string, m *parsers.CargoManifest) (*Member, error) {
	const op = "release.load_member"

	raw, inherited, err := m.PackageVersion()
	if err != nil {
		return nil, &OpError{Op: op, Kind: KindInvalidManifest, Path: manifestPath, Err: err}
	}
	if inherited {
		if root.Workspace == nil || root.Workspace.Package == nil || root.Workspace.Package.Version == "" {
			return nil, &OpError{Op: op, Kind: KindInvalidManifest, Path: manifestPath, Err: errors.New("version inherited but [workspace.package] has no version")}
		}
		raw = root.Workspace.Package.Version
	}

	version, err := versioneer.ParseVersion(raw)
	if err != nil {
		return nil, &OpError{Op: op, Kind: KindInvalidVersion, Path: manifestPath, Err: err}
	}

	return &Member{
		Name:             m.Package.Name,
		Version:          version,
		ManifestPath:     manifestPath,
		Dir:              path.Dir(manifestPath),
		InheritedVersion: inherited,
	}, nil
}

// link resolves the path dependencies between members and fills the reverse edges.
func (ws *Workspace) link(root *parsers.CargoManifest, manifests map[string]*parsers.CargoManifest) error {
	const op = "release.link"

	rootDir := path.Dir(ws.RootManifest)
	inherited := map[string]parsers.Constraint{}
	cns, err := root.WorkspaceConstraints()
	if err != nil {
		return &OpError{Op: op, Kind: KindInvalidManifest, Path: ws.RootManifest, Err: err}
	}
	for _, c := range cns {
		inherited[c.Key] = c
	}

	byDir := map[string]*Member{}
	for _, m := range ws.Members {
		byDir[m.Dir] = m
	}

	for _, m := range ws.Members {
		cns, err := manifests[m.ManifestPath].Constraints()
		if err != nil {
			return &OpError{Op: op, Kind: KindInvalidManifest, Path: m.ManifestPath, Err: err}
		}

		for _, c := range cns {
			base := m.Dir
			if c.Workspace {
				wc, ok := inherited[c.Key]
				if !ok {
					return &OpError{Op: op, Kind: KindInvalidManifest, Path: m.ManifestPath, Err: fmt.Errorf("%s.%s is not declared in [workspace.dependencies]", c.Table, c.Key)}
				}
				c.Name, c.Version, c.Path = wc.Name, wc.Version, wc.Path
				base = rootDir
			}
			if c.Path == "" {
				continue
			}
			target, ok := byDir[path.Join(base, c.Path)]
			if !ok {
				// path dependency outside of the workspace
				continue
			}

			raw := c.Version
			if raw == "" {
				raw = "*"
			}
			req, err := versioneer.ParseRequirement(raw)
			if err != nil {
				return &OpError{Op: op, Kind: KindInvalidManifest, Path: m.ManifestPath, Err: fmt.Errorf("%s.%s: %w", c.Table, c.Key, err)}
			}

			dep := Dependency{
				Name:        target.Name,
				Key:         c.Key,
				Table:       c.Table,
				Requirement: req,
				Path:        c.Path,
				Inherited:   c.Workspace,
			}
			m.Dependencies = append(m.Dependencies, dep)
			target.Dependents = append(target.Dependents, Dependent{Member: m, Dependency: dep})
		}
	}
	return nil
}
