package parsers

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/dephub/cargo-bump/providers/fetchers"
)

const rootManifest = `
[workspace]
members = ["crates/*", "tools/cli"]
exclude = ["crates/experimental"]

[workspace.package]
version = "0.4.1"

[workspace.dependencies]
core = { path = "crates/core", version = "0.4" }
serde = "1"
`

const memberManifest = `
[package]
name = "app"
version = "1.2.3"
edition = "2021"

[dependencies]
serde = "1.0"
core = { workspace = true }
util = { path = "../util", version = "=0.1.0" }
renamed = { path = "../other", version = "2", package = "other" }

[dependencies.macros]
path = "../macros"
version = "0.3"

[dev-dependencies]
util.path = "../util"
util.version = "0.1"

[build-dependencies]
cc = { version = "1.0", features = ["parallel"] }
`

func TestCargoConstraintsMethod(t *testing.T) {
	bf := fetchers.ByteMapFetcher{Files: map[string][]byte{
		"crates/app/Cargo.toml": []byte(memberManifest),
	}}
	parser := NewCargoParser(bf, "crates/app/Cargo.toml")

	cns, err := parser.Constraints(context.Background())
	if err != nil {
		t.Fatalf("unexpected error on cargo constraints call : %v", err)
	}

	expectedConstraints := []Constraint{
		{Name: "core", Key: "core", Table: TableDependencies, Workspace: true},
		{Name: "macros", Key: "macros", Table: TableDependencies, Version: "0.3", Path: "../macros"},
		{Name: "other", Key: "renamed", Table: TableDependencies, Version: "2", Path: "../other"},
		{Name: "serde", Key: "serde", Table: TableDependencies, Version: "1.0"},
		{Name: "util", Key: "util", Table: TableDependencies, Version: "=0.1.0", Path: "../util"},
		{Name: "util", Key: "util", Table: TableDevDependencies, Version: "0.1", Path: "../util"},
		{Name: "cc", Key: "cc", Table: TableBuildDependencies, Version: "1.0"},
	}

	if !reflect.DeepEqual(cns, expectedConstraints) {
		t.Errorf("unexpected cargo constraints, got: '%+v", cns)
	}
}

func TestCargoManifest_Package(t *testing.T) {
	m, err := ParseCargoManifest([]byte(memberManifest))
	if err != nil {
		t.Fatal(err)
	}
	if m.Package.Name != "app" {
		t.Errorf("expected package name 'app', got %q", m.Package.Name)
	}
	version, inherited, err := m.PackageVersion()
	if err != nil || inherited || version != "1.2.3" {
		t.Errorf("unexpected package version %q (inherited: %v, err: %v)", version, inherited, err)
	}

	m, err = ParseCargoManifest([]byte("[package]\nname = \"a\"\nversion.workspace = true\n"))
	if err != nil {
		t.Fatal(err)
	}
	if _, inherited, err = m.PackageVersion(); err != nil || !inherited {
		t.Errorf("expected inherited version, got inherited: %v, err: %v", inherited, err)
	}

	m, err = ParseCargoManifest([]byte("[package]\nname = \"a\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if version, _, _ = m.PackageVersion(); version != "0.0.0" {
		t.Errorf("expected default version 0.0.0, got %q", version)
	}
}

func TestCargoManifest_Workspace(t *testing.T) {
	m, err := ParseCargoManifest([]byte(rootManifest))
	if err != nil {
		t.Fatal(err)
	}
	if m.Package != nil {
		t.Errorf("expected virtual manifest, got package %+v", m.Package)
	}
	if !reflect.DeepEqual(m.Workspace.Members, []string{"crates/*", "tools/cli"}) {
		t.Errorf("unexpected members %v", m.Workspace.Members)
	}
	if !reflect.DeepEqual(m.Workspace.Exclude, []string{"crates/experimental"}) {
		t.Errorf("unexpected exclude %v", m.Workspace.Exclude)
	}
	if m.Workspace.Package == nil || m.Workspace.Package.Version != "0.4.1" {
		t.Errorf("unexpected workspace package %+v", m.Workspace.Package)
	}

	cns, err := m.WorkspaceConstraints()
	if err != nil {
		t.Fatal(err)
	}
	expected := []Constraint{
		{Name: "core", Key: "core", Table: "workspace.dependencies", Version: "0.4", Path: "crates/core"},
		{Name: "serde", Key: "serde", Table: "workspace.dependencies", Version: "1"},
	}
	if !reflect.DeepEqual(cns, expected) {
		t.Errorf("unexpected workspace constraints, got: '%+v", cns)
	}

	if _, _, err := m.PackageVersion(); !errors.Is(err, ErrInvalidManifest) {
		t.Errorf("expected ErrInvalidManifest for virtual manifest version, got %v", err)
	}
}

func TestCargoConstraintsMethod_Errors(t *testing.T) {
	// Table test cases
	cases := []struct {
		Name  string
		Files map[string][]byte
		Err   string
	}{
		{"missing", map[string][]byte{"blablabla": []byte("")}, ErrFileNotFound.Error()},
		{"broken", map[string][]byte{"Cargo.toml": []byte("[package")}, "unable to parse cargo file content"},
		{"empty", map[string][]byte{"Cargo.toml": []byte("")}, "neither [package] nor [workspace]"},
		{"no name", map[string][]byte{"Cargo.toml": []byte("[package]\nversion = \"1.0.0\"")}, "package name is missing"},
		{"bad entry", map[string][]byte{"Cargo.toml": []byte("[package]\nname = \"a\"\n[dependencies]\nb = 1")}, "unsupported dependency specification for dependencies.b"},
		{"bad version", map[string][]byte{"Cargo.toml": []byte("[package]\nname = \"a\"\n[dependencies]\nb = { version = 1 }")}, "dependencies.b.version must be a string"},
		{"bad workspace", map[string][]byte{"Cargo.toml": []byte("[package]\nname = \"a\"\n[dependencies]\nb = { workspace = \"yes\" }")}, "dependencies.b.workspace must be a boolean"},
	}

	for _, v := range cases {
		t.Run(v.Name, func(t *testing.T) {
			bf := fetchers.ByteMapFetcher{Files: v.Files}
			parser := NewCargoParser(bf, "Cargo.toml")

			cns, err := parser.Constraints(context.Background())
			if err == nil || !strings.Contains(err.Error(), v.Err) {
				t.Errorf("expected error containing %q, got %v", v.Err, err)
			}
			if cns != nil {
				t.Errorf("expected nil constraints, got: %+v", cns)
			}
		})
	}
}
