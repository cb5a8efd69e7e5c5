package versioneer

import (
	"errors"
	"fmt"
	"testing"
)

func TestRequirement_Parts(t *testing.T) {
	raw := ">= 1.2, <1.8.0-rc.1"
	req, err := ParseRequirement(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Value() != raw {
		t.Fatalf("unexpected requirement value, expected %q, got %q", raw, req.Value())
	}

	expected := []Comparator{
		{Op: OpGreaterEq, Major: 1, Minor: 2, Segments: 2},
		{Op: OpLess, Major: 1, Minor: 8, Patch: 0, Pre: "rc.1", Segments: 3},
	}
	got := req.Comparators()
	if len(got) != len(expected) {
		t.Fatalf("expected %d comparators, got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("comparator %d: expected '%+v', got '%+v'", i, expected[i], got[i])
		}
	}
}

func TestRequirement_Errors(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"1.2.3.4",
		"v1.2",
		"01.2",
		"1.*.3",
		"*, >=1",
		"1.2-alpha",
		">=",
		"1.2.3+build",
		"1.*-beta",
		"1,,2",
	}

	for _, raw := range cases {
		t.Run(fmt.Sprintf("%q", raw), func(t *testing.T) {
			_, err := ParseRequirement(raw)
			if err == nil {
				t.Fatalf("expected error on invalid requirement %q, got none", raw)
			}
			if !errors.Is(err, ErrParse) {
				t.Errorf("expected parse error, got %v", err)
			}
			if errors.Is(err, ErrUnsupportedOperator) {
				t.Errorf("parse error should not be an unsupported operator error: %v", err)
			}
		})
	}
}

func TestRequirement_UnsupportedOperator(t *testing.T) {
	cases := map[string]string{
		"!=1.2":       "!=",
		"~>1.2":       "~>",
		"==1":         "==",
		"=>1.0":       "=>",
		"1.2, !<=1.3": "!<=",
	}

	for raw, op := range cases {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseRequirement(raw)
			var uoe *UnsupportedOperatorError
			if !errors.As(err, &uoe) {
				t.Fatalf("expected unsupported operator error, got %v", err)
			}
			if uoe.Op != op || uoe.Input != raw {
				t.Errorf("expected operator %q in %q, got '%+v'", op, raw, uoe)
			}
			if !errors.Is(err, ErrUnsupportedOperator) {
				t.Error("expected errors.Is to match ErrUnsupportedOperator")
			}
		})
	}
}

func TestRequirementAndVersion_MatchMethod(t *testing.T) {
	// Table test
	cases := []struct {
		Requirement string
		Version     string
		Result      bool
	}{
		// Caret (default)
		{"1", "1.3.4", true},
		{"1", "2.0.0", false},
		{"1", "0.9.0", false},
		{"1.2", "1.2.3", true},
		{"1.2", "1.9.0", true},
		{"1.2", "1.1.9", false},
		{"1.2", "2.0.0", false},
		{"1.2.3", "1.2.3", true},
		{"1.2.3", "1.2.4", true},
		{"1.2.3", "1.3.0", true},
		{"1.2.3", "1.2.2", false},
		{"^1.2.3", "2.0.0", false},
		{"0.2", "0.2.9", true},
		{"0.2", "0.3.0", false},
		{"0.2.3", "0.2.4", true},
		{"0.2.3", "0.2.2", false},
		{"0.2.3", "0.3.0", false},
		{"0.0.3", "0.0.3", true},
		{"0.0.3", "0.0.4", false},
		{"0.0", "0.0.5", true},
		{"0.0", "0.1.0", false},
		{"0", "0.5.0", true},
		{"0", "1.0.0", false},
		// Tilde
		{"~1", "1.9.9", true},
		{"~1", "2.0.0", false},
		{"~1.2", "1.2.9", true},
		{"~1.2", "1.3.0", false},
		{"~1.2.3", "1.2.9", true},
		{"~1.2.3", "1.2.2", false},
		{"~1.2.3", "1.3.0", false},
		// Exact
		{"=1.2.3", "1.2.3", true},
		{"=1.2.3", "1.2.4", false},
		{"=1.2", "1.2.7", true},
		{"=1.2", "1.3.0", false},
		// Comparisons
		{">1", "1.9.9", false},
		{">1", "2.0.0", true},
		{">1.2", "1.2.9", false},
		{">1.2", "1.3.0", true},
		{">1.2.3", "1.2.4", true},
		{">1.2.3", "1.2.3", false},
		{">=1.2", "1.2.0", true},
		{">=1.2", "1.1.9", false},
		{"<1.2", "1.1.9", true},
		{"<1.2", "1.2.0", false},
		{"<=1.2", "1.2.9", true},
		{"<=1.2", "1.3.0", false},
		{">=1.2, <1.5", "1.4.9", true},
		{">=1.2, <1.5", "1.5.0", false},
		// Wildcards
		{"*", "9.9.9", true},
		{"1.*", "1.9.0", true},
		{"1.*", "2.0.0", false},
		{"1.2.*", "1.2.9", true},
		{"1.2.x", "1.3.0", false},
		{">=1.*", "3.0.0", true},
		// Pre-releases
		{"*", "1.0.0-alpha", false},
		{"1.2.3", "1.2.4-alpha", false},
		{">=1.2.3-alpha", "1.2.3-beta", true},
		{">=1.2.3-beta", "1.2.3-alpha", false},
		{"^1.2.3-alpha", "1.2.3", true},
		{"^1.2.3-alpha", "1.2.4-alpha", false},
		{"=1.2.3-alpha", "1.2.3-alpha", true},
	}

	for _, tcase := range cases {
		caseName := fmt.Sprintf("%q->%q", tcase.Version, tcase.Requirement)
		t.Run(caseName, func(t *testing.T) {
			req, err := ParseRequirement(tcase.Requirement)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			ver, err := ParseVersion(tcase.Version)
			if err != nil {
				t.Fatalf("unexpected error on version creation: %v", err)
			}
			if req.Matches(ver) != tcase.Result {
				t.Errorf("incorrect requirement(%q)->version(%q) match result, expected '%t', got '%t'", tcase.Requirement, tcase.Version, tcase.Result, !tcase.Result)
			}
		})
	}
}

func TestFormatRequirement(t *testing.T) {
	cases := []struct {
		Raw      string
		Expected string
	}{
		{"^1.2", "1.2"},
		{"1.2.3", "1.2.3"},
		{"^0.0.1", "0.0.1"},
		{">= 1.0, < 2", ">=1.0, <2"},
		{"=1.2.3", "=1.2.3"},
		{">1", ">1"},
		{"<=1.4", "<=1.4"},
		{"~1", "~1"},
		{"~1.2.3", "~1.2.3"},
		{"1.*", "1.*"},
		{"1.X", "1.*"},
		{"=1.2.*", "1.2.*"},
		{">=1.*", ">=1"},
		{"*", "*"},
		{"x", "*"},
		{"^1.2.3-rc.1", "1.2.3-rc.1"},
	}

	for _, tcase := range cases {
		t.Run(tcase.Raw, func(t *testing.T) {
			req := MustParseRequirement(tcase.Raw)
			got, err := FormatRequirement(req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tcase.Expected {
				t.Errorf("expected %q, got %q", tcase.Expected, got)
			}
			if req.String() != tcase.Expected {
				t.Errorf("String() expected %q, got %q", tcase.Expected, req.String())
			}
		})
	}
}

func TestFormatRequirement_UnsupportedOperator(t *testing.T) {
	req := NewRequirement(Comparator{Op: Op(42), Major: 1, Segments: 1})

	_, err := FormatRequirement(req)
	if !errors.Is(err, ErrUnsupportedOperator) {
		t.Fatalf("expected unsupported operator error, got %v", err)
	}
	if _, err := req.MarshalText(); err == nil {
		t.Error("expected MarshalText error, got none")
	}
}

func TestNewRequirement(t *testing.T) {
	req := NewRequirement(
		Comparator{Op: OpGreaterEq, Major: 1, Minor: 2, Segments: 2},
		Comparator{Op: OpLess, Major: 2, Segments: 1},
	)
	if req.Value() != ">=1.2, <2" {
		t.Errorf("unexpected value %q", req.Value())
	}
	if !req.Matches(MustParseVersion("1.9.0")) {
		t.Error("expected 1.9.0 to match")
	}

	empty := NewRequirement()
	if empty.String() != "*" || !empty.Matches(MustParseVersion("0.0.1")) {
		t.Errorf("expected empty requirement to be '*', got %q", empty.String())
	}
}
