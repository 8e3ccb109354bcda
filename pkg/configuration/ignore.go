package configuration

import (
	"bufio"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ignoreMatcher holds the compiled patterns loaded from a ".dropcloneignore"
// style file: one doublestar glob per non-empty, non-comment line, matched
// against a path relative to the entry's source directory. This supplements
// the regex exclude/include lists with the glob-file convention every
// directory-mirroring tool in this lineage supports.
type ignoreMatcher struct {
	patterns []string
}

// loadIgnoreFile reads path and compiles each line into a glob pattern.
func loadIgnoreFile(path string) (*ignoreMatcher, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, newConfigError(ErrFileNotFound, err, "cannot open ignore file: %s", path)
	}
	defer file.Close()

	var patterns []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !doublestar.ValidatePattern(line) {
			return nil, newConfigError(ErrParseError, nil, "invalid ignore pattern in %s: %s", path, line)
		}
		patterns = append(patterns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, newConfigError(ErrParseError, err, "could not read ignore file: %s", path)
	}

	return &ignoreMatcher{patterns: patterns}, nil
}

// match reports whether relativePath matches any of the loaded glob
// patterns.
func (m *ignoreMatcher) match(relativePath string) bool {
	if m == nil {
		return false
	}
	for _, pattern := range m.patterns {
		if ok, _ := doublestar.Match(pattern, relativePath); ok {
			return true
		}
	}
	return false
}
