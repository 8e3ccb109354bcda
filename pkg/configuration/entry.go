package configuration

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/adamczapla/dropclone/pkg/core"
)

// EntryConfiguration is the YAML-facing shape of a single configured clone
// pair, before compilation into a core.CloneEntry.
type EntryConfiguration struct {
	Source      string   `yaml:"source"`
	Destination string   `yaml:"destination"`
	Mode        string   `yaml:"mode"`
	Exclude     []string `yaml:"exclude,omitempty"`
	Include     []string `yaml:"include,omitempty"`
	IgnoreFile  string   `yaml:"ignoreFile,omitempty"`
}

// compiledEntry holds the validated, regex-compiled form of an
// EntryConfiguration, produced by sanitize and consumed by Compile.
type compiledEntry struct {
	source      string
	destination string
	mode        core.CloneMode
	exclude     []*regexp.Regexp
	include     []*regexp.Regexp
	ignore      *ignoreMatcher
}

// sanitize validates the raw entry and produces its compiled form: both
// paths must be absolute, mode must be "copy" or "move", and exclude/
// include are mutually exclusive.
func (e EntryConfiguration) sanitize() (compiledEntry, error) {
	if e.Source == "" {
		return compiledEntry{}, newConfigError(ErrMissingRequiredField, nil, "missing required field: 'source'")
	}
	if e.Destination == "" {
		return compiledEntry{}, newConfigError(ErrMissingRequiredField, nil, "missing required field: 'destination'")
	}
	if !filepath.IsAbs(e.Source) {
		return compiledEntry{}, newConfigError(ErrPathNotAbsolute, nil, "'%s' must be an absolute path", e.Source)
	}
	if !filepath.IsAbs(e.Destination) {
		return compiledEntry{}, newConfigError(ErrPathNotAbsolute, nil, "'%s' must be an absolute path", e.Destination)
	}

	mode, err := parseCloneMode(e.Mode)
	if err != nil {
		return compiledEntry{}, err
	}

	if len(e.Exclude) > 0 && len(e.Include) > 0 {
		return compiledEntry{}, newConfigError(ErrConflictingFields, nil, "'exclude' and 'include' are mutually exclusive")
	}

	exclude, err := compilePatterns(e.Exclude)
	if err != nil {
		return compiledEntry{}, err
	}
	include, err := compilePatterns(e.Include)
	if err != nil {
		return compiledEntry{}, err
	}

	var ignore *ignoreMatcher
	if e.IgnoreFile != "" {
		ignore, err = loadIgnoreFile(e.IgnoreFile)
		if err != nil {
			return compiledEntry{}, err
		}
	}

	return compiledEntry{
		source:      filepath.Clean(e.Source),
		destination: filepath.Clean(e.Destination),
		mode:        mode,
		exclude:     exclude,
		include:     include,
		ignore:      ignore,
	}, nil
}

// parseCloneMode converts the raw "copy"/"move" string into a
// core.CloneMode, case-insensitively.
func parseCloneMode(raw string) (core.CloneMode, error) {
	switch strings.ToLower(raw) {
	case "copy":
		return core.ModeCopy, nil
	case "move":
		return core.ModeMove, nil
	default:
		return 0, newConfigError(ErrInvalidCloneMode, nil, "'%s' must be (copy or move)", raw)
	}
}

// compilePatterns compiles a list of raw regular expressions, matching
// case-insensitively via Go's (?i) flag.
func compilePatterns(raw []string) ([]*regexp.Regexp, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	result := make([]*regexp.Regexp, 0, len(raw))
	for _, pattern := range raw {
		compiled, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, newConfigError(ErrParseError, err, "could not compile pattern: %s", pattern)
		}
		result = append(result, compiled)
	}
	return result, nil
}

// Compile produces the core.CloneEntry and opaque filter predicate this
// compiledEntry describes. The filter implements §6's composition: a path
// is included iff it's a descendant of source, and then passes the
// exclude/include regex test (against the path relative to source) and any
// configured ignore-file glob.
func (c compiledEntry) Compile() core.CloneEntry {
	source := c.source
	exclude := c.exclude
	include := c.include
	ignore := c.ignore

	filter := func(absolutePath string) bool {
		if !isDescendant(absolutePath, source) {
			return false
		}

		rel, err := filepath.Rel(source, absolutePath)
		if err != nil {
			return false
		}
		rel = filepath.ToSlash(rel)

		if ignore != nil && ignore.match(rel) {
			return false
		}

		switch {
		case len(exclude) > 0:
			for _, pattern := range exclude {
				if pattern.MatchString(rel) {
					return false
				}
			}
			return true
		case len(include) > 0:
			for _, pattern := range include {
				if pattern.MatchString(rel) {
					return true
				}
			}
			return false
		default:
			return true
		}
	}

	return core.CloneEntry{
		SourceDirectory:      c.source,
		DestinationDirectory: c.destination,
		Mode:                 c.mode,
		Filter:               filter,
	}
}

// isDescendant reports whether path is equal to root or lies beneath it.
func isDescendant(path, root string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}

// pathNode is a single node in the path-component trie used by hasConflict
// to detect overlapping source/destination directories across entries.
type pathNode struct {
	children   map[string]*pathNode
	isTerminal bool
}

func newPathNode() *pathNode {
	return &pathNode{children: make(map[string]*pathNode)}
}

// hasConflict inserts path's components into the trie rooted at root,
// returning true if path overlaps with (is an ancestor or descendant of) a
// previously inserted path.
func hasConflict(root *pathNode, path string) bool {
	current := root
	components := strings.Split(filepath.Clean(path), string(filepath.Separator))

	for _, component := range components {
		if component == "" {
			continue
		}
		if current.isTerminal {
			return true
		}
		child, ok := current.children[component]
		if !ok {
			child = newPathNode()
			current.children[component] = child
		}
		current = child
	}

	if current.isTerminal || len(current.children) > 0 {
		return true
	}
	current.isTerminal = true
	return false
}
