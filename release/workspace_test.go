package release

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dephub/cargo-bump/providers/changelog"
	"github.com/dephub/cargo-bump/providers/fetchers"
	"github.com/dephub/cargo-bump/providers/parsers"
)

const rootManifestMock = `[workspace]
members = ["crates/*"]
exclude = ["crates/experimental"]

[workspace.package]
version = "0.3.0"

[workspace.dependencies]
macros = { path = "crates/macros", version = "0.3" }
`

const appManifestMock = `[package]
name = "app"
version = "0.1.0"

[dependencies]
core = { path = "../core", version = "1.2" } # pinned
macros.workspace = true
serde = "1"

[dev-dependencies]
core-test = { package = "core", path = "../core", version = "=1.2.3" }
`

// workspaceMockFiles returns a fresh workspace file map:
//
//	app    -> core (1.2, dev =1.2.3), macros (inherited 0.3)
//	cli    -> core (0.9, stale)
//	core   1.2.3 with changelog
//	macros 0.3.0 inherited from [workspace.package]
func workspaceMockFiles() map[string][]byte {
	return map[string][]byte{
		"Cargo.toml":            []byte(rootManifestMock),
		"crates/app/Cargo.toml": []byte(appManifestMock),
		"crates/cli/Cargo.toml": []byte(`[package]
name = "cli"
version = "2.0.0"

[dependencies]
core = { path = "../core", version = "0.9" }
`),
		"crates/core/Cargo.toml": []byte(`[package]
name = "core"
version = "1.2.3"

[dependencies]
serde = "1"
`),
		"crates/core/CHANGELOG.md": []byte("# Changelog\n## Unreleased\n- new api\n## 1.2.3\n- first\n"),
		"crates/macros/Cargo.toml": []byte(`[package]
name = "macros"
version.workspace = true
`),
		"crates/experimental/Cargo.toml": []byte(`[package]
name = "core"
version = "9.9.9"
`),
	}
}

func loadMockWorkspace(t *testing.T, files map[string][]byte) *Workspace {
	t.Helper()
	ws, err := Load(context.Background(), fetchers.ByteMapFetcher{Files: files}, "Cargo.toml", nil)
	require.NoError(t, err)
	return ws
}

func memberNames(ws *Workspace) []string {
	var names []string
	for _, m := range ws.Members {
		names = append(names, m.Name)
	}
	return names
}

func TestLoad(t *testing.T) {
	ws := loadMockWorkspace(t, workspaceMockFiles())

	assert.Equal(t, []string{"app", "cli", "core", "macros"}, memberNames(ws))

	core, err := ws.Member("core")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", core.Version.String())
	assert.Equal(t, "crates/core/Cargo.toml", core.ManifestPath)
	assert.Equal(t, "crates/core", core.Dir)
	assert.Equal(t, "crates/core/CHANGELOG.md", core.Changelog)
	assert.Empty(t, core.Dependencies)

	require.Len(t, core.Dependents, 3)
	assert.Equal(t, "app : 1.2", core.Dependents[0].Label())
	assert.Equal(t, "app (dev-dependencies) : =1.2.3", core.Dependents[1].Label())
	assert.Equal(t, "core-test", core.Dependents[1].Dependency.Key)
	assert.Equal(t, "core", core.Dependents[1].Dependency.Name)
	assert.Equal(t, "cli : 0.9", core.Dependents[2].Label())

	app, err := ws.Member("app")
	require.NoError(t, err)
	require.Len(t, app.Dependencies, 3)
	assert.Equal(t, Dependency{
		Name: "macros", Key: "macros", Table: parsers.TableDependencies,
		Requirement: app.Dependencies[1].Requirement, Path: "crates/macros", Inherited: true,
	}, app.Dependencies[1])
	assert.Equal(t, "0.3", app.Dependencies[1].Requirement.String())

	macros, err := ws.Member("macros")
	require.NoError(t, err)
	assert.True(t, macros.InheritedVersion)
	assert.Equal(t, "0.3.0", macros.Version.String())

	_, err = ws.Member("experimental")
	assert.True(t, errors.Is(err, ErrMemberNotFound))
	assert.True(t, IsKind(err, KindNotFound))
}

func TestMember_Label(t *testing.T) {
	ws := loadMockWorkspace(t, workspaceMockFiles())

	expected := map[string]string{
		"app":    "app 0.1.0 (dependencies: 2)",
		"cli":    "cli 2.0.0 (dependencies: 1)",
		"core":   "core 1.2.3 (dependents: 2, changelog)",
		"macros": "macros 0.3.0 (dependents: 1)",
	}
	for _, m := range ws.Members {
		assert.Equal(t, expected[m.Name], m.Label())
	}

	lonely := &Member{Name: "lonely", Version: ws.Members[0].Version}
	assert.Equal(t, "lonely 0.1.0", lonely.Label())
}

func TestWorkspace_Unreleased(t *testing.T) {
	ws := loadMockWorkspace(t, workspaceMockFiles())
	ctx := context.Background()

	core, _ := ws.Member("core")
	section, found, err := ws.Unreleased(ctx, core)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "- new api", section)

	cli, _ := ws.Member("cli")
	_, found, err = ws.Unreleased(ctx, cli)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLoad_SinglePackage(t *testing.T) {
	files := map[string][]byte{
		"solo/Cargo.toml": []byte("[package]\nname = \"solo\"\nversion = \"0.1.0\"\n"),
		"solo/HISTORY.md": []byte("## Unreleased\n"),
	}
	bf := fetchers.ByteMapFetcher{Files: files}
	ws, err := Load(context.Background(), bf, "solo/Cargo.toml", changelog.NewLocator(bf, "HISTORY.md"))
	require.NoError(t, err)

	require.Len(t, ws.Members, 1)
	assert.Equal(t, "solo", ws.Members[0].Name)
	assert.Equal(t, "solo", ws.Members[0].Dir)
	assert.Equal(t, "solo/HISTORY.md", ws.Members[0].Changelog)
	assert.Equal(t, "solo 0.1.0 (changelog)", ws.Members[0].Label())
}

func TestLoad_RootPackage(t *testing.T) {
	ws := loadMockWorkspace(t, map[string][]byte{
		"Cargo.toml": []byte(`[package]
name = "root"
version = "1.0.0"

[dependencies]
lib = { path = "lib", version = "1" }

[workspace]
members = ["lib"]
`),
		"lib/Cargo.toml": []byte("[package]\nname = \"lib\"\nversion = \"1.0.0\"\n"),
	})

	assert.Equal(t, []string{"lib", "root"}, memberNames(ws))
	lib, _ := ws.Member("lib")
	require.Len(t, lib.Dependents, 1)
	assert.Equal(t, "root : 1", lib.Dependents[0].Label())
	assert.Equal(t, ".", lib.Dependents[0].Member.Dir)
}

func TestLoad_Errors(t *testing.T) {
	cases := []struct {
		Name   string
		Modify func(files map[string][]byte)
		Kind   ErrorKind
		Err    string
	}{
		{"missing root", func(f map[string][]byte) { delete(f, "Cargo.toml") }, KindNotFound, "file not found"},
		{"broken root", func(f map[string][]byte) { f["Cargo.toml"] = []byte("[workspace") }, KindInvalidManifest, "unable to parse cargo file content"},
		{"duplicate name", func(f map[string][]byte) {
			f["Cargo.toml"] = []byte("[workspace]\nmembers = [\"crates/*\"]\n[workspace.package]\nversion = \"0.3.0\"\n[workspace.dependencies]\nmacros = { path = \"crates/macros\" }\n")
		}, KindInvalidManifest, "duplicate package name \"core\""},
		{"missing literal member", func(f map[string][]byte) {
			f["Cargo.toml"] = []byte("[workspace]\nmembers = [\"tools/cli\"]\n")
		}, KindNotFound, "workspace member \"tools/cli\" has no Cargo.toml"},
		{"virtual member", func(f map[string][]byte) {
			f["crates/cli/Cargo.toml"] = []byte("[workspace]\n")
		}, KindInvalidManifest, "workspace member has no [package]"},
		{"bad version", func(f map[string][]byte) {
			f["crates/cli/Cargo.toml"] = []byte("[package]\nname = \"cli\"\nversion = \"2.0\"\n")
		}, KindInvalidVersion, "invalid version"},
		{"undeclared inherited dependency", func(f map[string][]byte) {
			f["crates/cli/Cargo.toml"] = []byte("[package]\nname = \"cli\"\nversion = \"2.0.0\"\n[dependencies]\nfoo.workspace = true\n")
		}, KindInvalidManifest, "dependencies.foo is not declared in [workspace.dependencies]"},
		{"inherited version without workspace version", func(f map[string][]byte) {
			f["Cargo.toml"] = []byte("[workspace]\nmembers = [\"crates/*\"]\nexclude = [\"crates/experimental\"]\n[workspace.dependencies]\nmacros = { path = \"crates/macros\" }\n")
		}, KindInvalidManifest, "[workspace.package] has no version"},
		{"bad requirement", func(f map[string][]byte) {
			f["crates/cli/Cargo.toml"] = []byte("[package]\nname = \"cli\"\nversion = \"2.0.0\"\n[dependencies]\ncore = { path = \"../core\", version = \"!=1\" }\n")
		}, KindInvalidManifest, "unsupported requirement operator"},
	}

	for _, tcase := range cases {
		t.Run(tcase.Name, func(t *testing.T) {
			files := workspaceMockFiles()
			tcase.Modify(files)

			ws, err := Load(context.Background(), fetchers.ByteMapFetcher{Files: files}, "Cargo.toml", nil)
			require.Error(t, err)
			assert.Nil(t, ws)
			assert.True(t, IsKind(err, tcase.Kind), "unexpected error kind: %v", err)
			assert.Contains(t, err.Error(), tcase.Err)
		})
	}
}
