package versioneer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

/*
Cargo version requirements semantic parsing implementation.
*/

// Op represents a requirement comparator operator.
type Op int

// Supported comparator operators.
const (
	OpExact     Op = iota + 1 // '=1.2.3'
	OpGreater                 // '>1.2.3'
	OpGreaterEq               // '>=1.2.3'
	OpLess                    // '<1.2.3'
	OpLessEq                  // '<=1.2.3'
	OpTilde                   // '~1.2.3'
	OpCaret                   // '^1.2.3' or bare '1.2.3'
	OpWildcard                // '1.*' or '1.2.*'
)

// String returns the operator symbol as written in requirements.
func (o Op) String() string {
	switch o {
	case OpCaret:
		return "^"
	case OpWildcard:
		return "*"
	}
	if sym, ok := cargoCfg.symbols[o]; ok {
		return sym
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// cargoOprFunc represents cargo comparator check function.
// It returns true if the version is satisfied by the comparator.
type cargoOprFunc func(v Version, c Comparator) bool

// cargoConfig is used to store cargo parser configuration.
type cargoConfig struct {
	operators          map[string]Op       // Operator tokens mapped to operators (e.g. '>=')
	matchers           map[Op]cargoOprFunc // Operators mapped to check functions
	symbols            map[Op]string       // Operators mapped to their serialized sigil
	operatorChars      string              // Characters an operator token is made of
	versionRgx         string              // Partial version regexp (e.g. 1.2.*, 1.2.3-rc.1)
	versionRgxCompiled *regexp.Regexp      // Compiled partial version regexp
}

// cargoCfg is a global cargo parser configuration.
var cargoCfg cargoConfig

// Cargo parser config initialization and expressions compiling.
func init() {
	cargoCfg.versionRgx = `^([0-9]+|[*xX])(?:\.([0-9]+|[*xX]))?(?:\.([0-9]+|[*xX]))?(?:-([0-9A-Za-z\-]+(?:\.[0-9A-Za-z\-]+)*))?$`
	cargoCfg.operatorChars = "=<>~^!"
	cargoCfg.operators = map[string]Op{
		"":   OpCaret,
		"=":  OpExact,
		">":  OpGreater,
		">=": OpGreaterEq,
		"<":  OpLess,
		"<=": OpLessEq,
		"~":  OpTilde,
		"^":  OpCaret,
	}
	cargoCfg.matchers = map[Op]cargoOprFunc{
		OpExact:     cargoConstraintExact,
		OpGreater:   cargoConstraintGreater,
		OpGreaterEq: cargoConstraintGreaterEq,
		OpLess:      cargoConstraintLess,
		OpLessEq:    cargoConstraintLessEq,
		OpTilde:     cargoConstraintTilde,
		OpCaret:     cargoConstraintCaret,
		OpWildcard:  cargoConstraintExact,
	}
	// Caret and wildcard comparators are written without a sigil, the form
	// Cargo.toml files use for the default operator.
	cargoCfg.symbols = map[Op]string{
		OpExact:     "=",
		OpGreater:   ">",
		OpGreaterEq: ">=",
		OpLess:      "<",
		OpLessEq:    "<=",
		OpTilde:     "~",
		OpCaret:     "",
		OpWildcard:  "",
	}
	cargoCfg.versionRgxCompiled = regexp.MustCompile(cargoCfg.versionRgx)
}

// comparePre compares v against the comparator pre-release at v's own major.minor.patch.
func comparePre(v Version, c Comparator) int {
	return v.semver().Compare(semver.New(v.Major(), v.Minor(), v.Patch(), c.Pre, ""))
}

func cargoConstraintExact(v Version, c Comparator) bool {
	if v.Major() != c.Major {
		return false
	}
	if c.Segments >= 2 && v.Minor() != c.Minor {
		return false
	}
	if c.Segments >= 3 && v.Patch() != c.Patch {
		return false
	}
	return v.Prerelease() == c.Pre
}

func cargoConstraintGreater(v Version, c Comparator) bool {
	if v.Major() != c.Major {
		return v.Major() > c.Major
	}
	if c.Segments < 2 {
		return false
	}
	if v.Minor() != c.Minor {
		return v.Minor() > c.Minor
	}
	if c.Segments < 3 {
		return false
	}
	if v.Patch() != c.Patch {
		return v.Patch() > c.Patch
	}
	return comparePre(v, c) > 0
}

func cargoConstraintLess(v Version, c Comparator) bool {
	if v.Major() != c.Major {
		return v.Major() < c.Major
	}
	if c.Segments < 2 {
		return false
	}
	if v.Minor() != c.Minor {
		return v.Minor() < c.Minor
	}
	if c.Segments < 3 {
		return false
	}
	if v.Patch() != c.Patch {
		return v.Patch() < c.Patch
	}
	return comparePre(v, c) < 0
}

func cargoConstraintGreaterEq(v Version, c Comparator) bool {
	return cargoConstraintExact(v, c) || cargoConstraintGreater(v, c)
}

func cargoConstraintLessEq(v Version, c Comparator) bool {
	return cargoConstraintExact(v, c) || cargoConstraintLess(v, c)
}

func cargoConstraintTilde(v Version, c Comparator) bool {
	if v.Major() != c.Major {
		return false
	}
	if c.Segments >= 2 && v.Minor() != c.Minor {
		return false
	}
	if c.Segments >= 3 && v.Patch() != c.Patch {
		return v.Patch() > c.Patch
	}
	return comparePre(v, c) >= 0
}

func cargoConstraintCaret(v Version, c Comparator) bool {
	if v.Major() != c.Major {
		return false
	}
	if c.Segments < 2 {
		return true
	}
	if c.Segments < 3 {
		// '^1.2' allows any later minor, '^0.2' pins the minor
		if c.Major > 0 {
			return v.Minor() >= c.Minor
		}
		return v.Minor() == c.Minor
	}

	switch {
	case c.Major > 0:
		if v.Minor() != c.Minor {
			return v.Minor() > c.Minor
		}
		if v.Patch() != c.Patch {
			return v.Patch() > c.Patch
		}
	case c.Minor > 0:
		if v.Minor() != c.Minor {
			return false
		}
		if v.Patch() != c.Patch {
			return v.Patch() > c.Patch
		}
	default:
		// '^0.0.3' is basically '=0.0.3'
		if v.Minor() != c.Minor || v.Patch() != c.Patch {
			return false
		}
	}

	return comparePre(v, c) >= 0
}

// Comparator represents one unary constraint of a requirement (e.g. for '>=1.2, <1.8' one
// of the comparators is '<1.8').
type Comparator struct {
	Op       Op
	Major    uint64
	Minor    uint64
	Patch    uint64
	Pre      string // pre-release, only with Segments == 3
	Segments int    // number of version segments present: 1 = '1', 2 = '1.2', 3 = '1.2.3'
}

// match method checks the version.
func (c Comparator) match(v Version) bool {
	fn, ok := cargoCfg.matchers[c.Op]
	if !ok {
		return false
	}
	return fn(v, c)
}

// allowsPrerelease reports whether c explicitly opts in to pre-releases of v's major.minor.patch.
func (c Comparator) allowsPrerelease(v Version) bool {
	return c.Segments == 3 && c.Pre != "" &&
		c.Major == v.Major() && c.Minor == v.Minor() && c.Patch == v.Patch()
}

// String returns the comparator in Cargo.toml form.
func (c Comparator) String() string {
	s, err := formatComparator(c)
	if err != nil {
		return fmt.Sprintf("%s%d", c.Op, c.Major)
	}
	return s
}

// Requirement represents Cargo version requirement: a conjunction of comparators.
// The zero value (no comparators) is the '*' requirement.
type Requirement struct {
	value       string
	comparators []Comparator
}

// NewRequirement builds a requirement out of comparators.
func NewRequirement(comparators ...Comparator) Requirement {
	r := Requirement{comparators: append([]Comparator(nil), comparators...)}
	r.value, _ = FormatRequirement(r)
	return r
}

// MustParseRequirement is like ParseRequirement but panics on malformed input.
func MustParseRequirement(value string) Requirement {
	r, err := ParseRequirement(value)
	if err != nil {
		panic(err)
	}
	return r
}

// ParseRequirement constructs ready-to-use cargo Requirement instance.
func ParseRequirement(value string) (Requirement, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return Requirement{}, &ParseError{Kind: KindRequirement, Input: value, Err: errors.New("empty requirement")}
	}
	if isWildcard(trimmed) {
		return Requirement{value: value}, nil
	}

	// https://doc.rust-lang.org/cargo/reference/specifying-dependencies.html
	parts := strings.Split(trimmed, ",")
	comparators := make([]Comparator, 0, len(parts))
	for _, part := range parts {
		c, err := parseCargoComparator(part)
		if err != nil {
			var uoe *UnsupportedOperatorError
			if errors.As(err, &uoe) {
				uoe.Input = value
				return Requirement{}, uoe
			}
			return Requirement{}, &ParseError{Kind: KindRequirement, Input: value, Err: err}
		}
		comparators = append(comparators, *c)
	}

	return Requirement{value: value, comparators: comparators}, nil
}

// parseCargoComparator is a utility function to convert raw string unary constraint into Comparator.
func parseCargoComparator(raw string) (*Comparator, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, errors.New("empty comparator")
	}

	opEnd := strings.IndexFunc(s, func(r rune) bool { return !strings.ContainsRune(cargoCfg.operatorChars, r) })
	if opEnd == -1 {
		return nil, fmt.Errorf("comparator %q has no version", s)
	}
	token, rest := s[:opEnd], strings.TrimSpace(s[opEnd:])

	op, ok := cargoCfg.operators[token]
	if !ok {
		return nil, &UnsupportedOperatorError{Op: token}
	}

	matches := cargoCfg.versionRgxCompiled.FindStringSubmatch(rest)
	if matches == nil {
		return nil, fmt.Errorf("version %q is not supported", rest)
	}

	var (
		segments = []string{matches[1], matches[2], matches[3]}
		pre      = matches[4]
		values   [3]uint64
		wildcard bool
	)

	c := &Comparator{Op: op}
	for i, seg := range segments {
		if seg == "" {
			break
		}
		if isWildcard(seg) {
			wildcard = true
			continue
		}
		if wildcard {
			return nil, fmt.Errorf("unexpected segment %q after wildcard in %q", seg, rest)
		}
		n, err := parseSegment(seg)
		if err != nil {
			return nil, err
		}
		values[i] = n
		c.Segments = i + 1
	}
	c.Major, c.Minor, c.Patch = values[0], values[1], values[2]

	if wildcard {
		if pre != "" {
			return nil, fmt.Errorf("pre-release is not allowed after wildcard in %q", rest)
		}
		if c.Segments == 0 {
			return nil, fmt.Errorf("wildcard %q can not be combined with other comparators", s)
		}
		// Mark constraint as wildcard only for bare and '=' forms; '>=1.*' is just '>=1'
		if token == "" || op == OpExact {
			c.Op = OpWildcard
		}
		return c, nil
	}

	if pre != "" && c.Segments < 3 {
		return nil, fmt.Errorf("pre-release requires a full version in %q", rest)
	}
	c.Pre = pre

	return c, nil
}

// parseSegment parses a numeric version segment, rejecting leading zeros.
func parseSegment(seg string) (uint64, error) {
	if len(seg) > 1 && seg[0] == '0' {
		return 0, fmt.Errorf("segment %q has a leading zero", seg)
	}
	n, err := strconv.ParseUint(seg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("segment parse error: %w", err)
	}
	return n, nil
}

func isWildcard(s string) bool {
	return s == "*" || s == "x" || s == "X"
}

// Matches method validates that the version is in the requirement.
//
// Pre-release versions only match when some comparator names the same
// major.minor.patch with a pre-release of its own.
func (r Requirement) Matches(v Version) bool {
	for _, c := range r.comparators {
		if !c.match(v) {
			return false
		}
	}

	if v.Prerelease() == "" {
		return true
	}
	for _, c := range r.comparators {
		if c.allowsPrerelease(v) {
			return true
		}
	}
	return false
}

// Comparators returns a copy of the requirement comparators.
func (r Requirement) Comparators() []Comparator {
	return append([]Comparator(nil), r.comparators...)
}

// Value method returns original unmodified raw value of the requirement.
func (r Requirement) Value() string {
	return r.value
}

// String returns the requirement in Cargo.toml form, falling back to the raw value
// when the requirement holds an operator that can not be written.
func (r Requirement) String() string {
	s, err := FormatRequirement(r)
	if err != nil {
		return r.value
	}
	return s
}

// MarshalText implements encoding.TextMarshaler.
func (r Requirement) MarshalText() ([]byte, error) {
	s, err := FormatRequirement(r)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// FormatRequirement renders a requirement the way Cargo.toml files spell it: caret and
// wildcard comparators carry no sigil ('1.2', '1.*'), every other operator keeps its
// symbol, comparators are joined with ", " and the empty requirement is "*".
func FormatRequirement(r Requirement) (string, error) {
	if len(r.comparators) == 0 {
		return "*", nil
	}

	var b strings.Builder
	for i, c := range r.comparators {
		if i > 0 {
			b.WriteString(", ")
		}
		s, err := formatComparator(c)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

func formatComparator(c Comparator) (string, error) {
	sym, ok := cargoCfg.symbols[c.Op]
	if !ok {
		return "", &UnsupportedOperatorError{Op: c.Op.String()}
	}

	var b strings.Builder
	b.WriteString(sym)
	fmt.Fprintf(&b, "%d", c.Major)
	switch {
	case c.Segments >= 3:
		fmt.Fprintf(&b, ".%d.%d", c.Minor, c.Patch)
		if c.Pre != "" {
			b.WriteString("-" + c.Pre)
		}
	case c.Segments == 2:
		fmt.Fprintf(&b, ".%d", c.Minor)
		if c.Op == OpWildcard {
			b.WriteString(".*")
		}
	default:
		if c.Op == OpWildcard {
			b.WriteString(".*")
		}
	}
	return b.String(), nil
}
