/*
Package changelog finds a package changelog and extracts its unreleased section.
*/
package changelog

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/dephub/cargo-bump/providers/fetchers"
)

var (
	ErrNotFound = errors.New("changelog not found")
)

// DefaultFileNames are the changelog file names looked up next to a manifest, in order.
var DefaultFileNames = []string{"CHANGELOG.md", "RELEASES.md", "CHANGES.md"}

// unreleasedMarker ends the heading line opening the unreleased section.
const unreleasedMarker = "Unreleased"

// NewLocator constructs Locator. DefaultFileNames are used when names is empty.
func NewLocator(fetcher fetchers.FileFetcher, names ...string) *Locator {
	if len(names) == 0 {
		names = DefaultFileNames
	}
	return &Locator{fetcher: fetcher, names: names}
}

// Locator looks changelogs up through a fetcher.
type Locator struct {
	fetcher fetchers.FileFetcher
	names   []string
}

// Find returns the path and content of the first existing changelog in dir.
func (l *Locator) Find(ctx context.Context, dir string) (string, []byte, error) {
	for _, name := range l.names {
		p := path.Join(dir, name)
		b, err := l.fetcher.FileContent(ctx, p)
		if err == nil {
			return p, b, nil
		}
		if err != fetchers.ErrFileNotFound {
			return "", nil, fmt.Errorf("unable to read changelog %q: %w", p, err)
		}
	}
	return "", nil, ErrNotFound
}

// Unreleased returns the unreleased section of the changelog in dir, see
// ExtractUnreleased. found is false when dir has no changelog.
func (l *Locator) Unreleased(ctx context.Context, dir, version string) (section string, found bool, err error) {
	_, b, err := l.Find(ctx, dir)
	if err != nil {
		if err == ErrNotFound {
			return "", false, nil
		}
		return "", false, err
	}
	return ExtractUnreleased(b, version), true, nil
}

// ExtractUnreleased returns the lines following the first line ending with "Unreleased",
// up to the first line ending with version. Lines are joined with "\n".
//
// The section is empty when there is no "Unreleased" line.
func ExtractUnreleased(content []byte, version string) string {
	var lines []string
	started := false

	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), len(content)+1)
	for sc.Scan() {
		line := sc.Text()
		if !started {
			started = strings.HasSuffix(line, unreleasedMarker)
			continue
		}
		if strings.HasSuffix(line, version) {
			break
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
