// SPDX-License-Identifier: MPL-2.0

package parts

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// fileFilter selects files by stage/prime filter entries. Entries starting
// with "-" exclude; when at least one include is present only included files
// pass. A pattern naming a directory selects everything below it.
type fileFilter struct {
	includes []string
	excludes []string
}

func newFileFilter(entries []string) (fileFilter, error) {
	var f fileFilter
	for _, entry := range entries {
		pattern, exclude := strings.CutPrefix(entry, "-")
		pattern = strings.TrimPrefix(strings.TrimSpace(pattern), "./")
		if pattern == "" {
			return fileFilter{}, fmt.Errorf("empty filter entry %q", entry)
		}
		if !doublestar.ValidatePattern(pattern) {
			return fileFilter{}, fmt.Errorf("invalid filter pattern %q", entry)
		}
		if exclude {
			f.excludes = append(f.excludes, pattern)
		} else {
			f.includes = append(f.includes, pattern)
		}
	}
	return f, nil
}

// allows reports whether rel (slash separated) passes the filter.
func (f fileFilter) allows(rel string) bool {
	if matchesAny(f.excludes, rel) {
		return false
	}
	if len(f.includes) == 0 {
		return true
	}
	return matchesAny(f.includes, rel)
}

// matchesAny matches rel and each of its parent directories against patterns.
func matchesAny(patterns []string, rel string) bool {
	for candidate := rel; candidate != "." && candidate != "/" && candidate != ""; candidate = path.Dir(candidate) {
		for _, pattern := range patterns {
			if ok, _ := doublestar.Match(pattern, candidate); ok {
				return true
			}
		}
	}
	return false
}
