/*
Package tomledit replaces string values in TOML documents without reformatting them.

Only the bytes of the replaced value change; comments, whitespace and key order are kept.
*/
package tomledit

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/pelletier/go-toml/v2/unstable"
)

var (
	ErrKeyNotFound = errors.New("key not found")
	ErrNotString   = errors.New("value is not a string")
	ErrInvalidDoc  = errors.New("invalid toml document")
)

// SetString replaces the string value at keyPath (e.g. ["package", "version"]) with value.
//
// keyPath is matched against header tables, dotted keys and inline tables alike, so
// ["dependencies", "foo", "version"] finds all of:
//
//	[dependencies]
//	foo = { version = "1" }
//
//	[dependencies.foo]
//	version = "1"
//
//	[dependencies]
//	foo.version = "1"
func SetString(doc []byte, keyPath []string, value string) ([]byte, error) {
	if len(keyPath) == 0 {
		return nil, fmt.Errorf("%w: empty key path", ErrKeyNotFound)
	}

	raw, err := findString(doc, keyPath)
	if err != nil {
		return nil, err
	}

	start, end := int(raw.Offset), int(raw.Offset+raw.Length)
	quoted := quote(value, doc[start] == '\'')

	res := make([]byte, 0, len(doc)-(end-start)+len(quoted))
	res = append(res, doc[:start]...)
	res = append(res, quoted...)
	res = append(res, doc[end:]...)
	return res, nil
}

// GetString returns the string value at keyPath.
func GetString(doc []byte, keyPath []string) (string, error) {
	raw, err := findString(doc, keyPath)
	if err != nil {
		return "", err
	}
	return unquote(doc[raw.Offset : raw.Offset+raw.Length]), nil
}

func findString(doc []byte, keyPath []string) (unstable.Range, error) {
	p := unstable.Parser{}
	p.Reset(doc)

	var table []string
	arrayTable := false

	for p.NextExpression() {
		e := p.Expression()
		switch e.Kind {
		case unstable.Table:
			table, arrayTable = keyParts(e.Key()), false
		case unstable.ArrayTable:
			// [[bin]] and friends can't be addressed by a plain key path
			table, arrayTable = keyParts(e.Key()), true
		case unstable.KeyValue:
			if arrayTable {
				continue
			}
			at := append(append([]string{}, table...), keyParts(e.Key())...)
			raw, found, err := lookup(e.Value(), at, keyPath)
			if found || err != nil {
				return raw, err
			}
		}
	}
	if err := p.Error(); err != nil {
		return unstable.Range{}, fmt.Errorf("%w: %v", ErrInvalidDoc, err)
	}

	return unstable.Range{}, fmt.Errorf("%w: %s", ErrKeyNotFound, strings.Join(keyPath, "."))
}

// lookup searches value, located at path at, for keyPath.
func lookup(value *unstable.Node, at, keyPath []string) (unstable.Range, bool, error) {
	switch {
	case equal(at, keyPath):
		if value.Kind != unstable.String {
			return unstable.Range{}, false, fmt.Errorf("%w: %s is %s", ErrNotString, strings.Join(keyPath, "."), value.Kind)
		}
		return value.Raw, true, nil
	case hasPrefix(at, keyPath):
		// 'version.workspace = true' while looking for 'version'
		return unstable.Range{}, false, fmt.Errorf("%w: %s is a table", ErrNotString, strings.Join(keyPath, "."))
	case !hasPrefix(keyPath, at) || value.Kind != unstable.InlineTable:
		return unstable.Range{}, false, nil
	}

	it := value.Children()
	for it.Next() {
		kv := it.Node()
		if kv.Kind != unstable.KeyValue {
			continue
		}
		sub := append(append([]string{}, at...), keyParts(kv.Key())...)
		raw, found, err := lookup(kv.Value(), sub, keyPath)
		if found || err != nil {
			return raw, found, err
		}
	}
	return unstable.Range{}, false, nil
}

func keyParts(it unstable.Iterator) []string {
	var parts []string
	for it.Next() {
		parts = append(parts, string(it.Node().Data))
	}
	return parts
}

func equal(a, b []string) bool {
	return len(a) == len(b) && hasPrefix(a, b)
}

// hasPrefix reports whether s starts with prefix.
func hasPrefix(s, prefix []string) bool {
	if len(prefix) > len(s) {
		return false
	}
	for i := range prefix {
		if s[i] != prefix[i] {
			return false
		}
	}
	return true
}

// quote renders s as a TOML string, as a literal string when literal is requested and s
// allows it.
func quote(s string, literal bool) string {
	if literal && !strings.ContainsAny(s, "'\r\n") {
		return "'" + s + "'"
	}

	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if unicode.IsControl(r) {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// unquote decodes a raw string token by parsing it as a one-line document.
func unquote(raw []byte) string {
	p := unstable.Parser{}
	p.Reset(append([]byte("v = "), raw...))
	if p.NextExpression() {
		return string(p.Expression().Value().Data)
	}
	return string(raw)
}
