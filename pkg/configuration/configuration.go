// Package configuration parses and validates the YAML configuration file
// that describes dropclone's configured source/destination pairs, producing
// core.CloneEntry values the synchronization engine consumes.
package configuration

import (
	"os"
	"path/filepath"

	"github.com/adamczapla/dropclone/pkg/core"
	"gopkg.in/yaml.v3"
)

// Configuration is the top-level shape of a dropclone YAML config file.
type Configuration struct {
	LogDirectory string               `yaml:"logDirectory,omitempty"`
	Entries      []EntryConfiguration `yaml:"entries"`

	path string
}

// Load reads and parses the YAML file at path. It does not validate the
// entries; call Compile for that.
func Load(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newConfigError(ErrFileNotFound, err, "cannot open config file: %s", path)
	}

	var config Configuration
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, newConfigError(ErrParseError, err, "could not parse config file: %s", path)
	}
	config.path = filepath.Clean(path)

	return &config, nil
}

// sanitizeLogDirectory resolves LogDirectory to an absolute path relative
// to the config file's own directory when it isn't already absolute,
// matching clone_config::sanitize's fallback-with-warning behavior. The
// caller supplies a warn func so this package doesn't depend on pkg/logging
// directly.
func (c *Configuration) sanitizeLogDirectory(warn func(format string, args ...interface{})) error {
	dir := filepath.Clean(c.LogDirectory)
	if !filepath.IsAbs(dir) {
		if c.LogDirectory == "" {
			dir = filepath.Join(filepath.Dir(c.path), "log")
		} else {
			dir = filepath.Join(filepath.Dir(c.path), dir)
		}
		if warn != nil {
			warn("log_directory path is not configured or not absolute -- using fallback: '%s'", dir)
		}
	}
	c.LogDirectory = dir
	return os.MkdirAll(dir, 0o755)
}

// Compile validates every entry, checks for overlapping source/destination
// paths across entries, and returns the compiled core.CloneEntry list ready
// to hand to core.NewCloneManager. warn receives non-fatal warnings (only
// the log-directory fallback, currently).
func (c *Configuration) Compile(warn func(format string, args ...interface{})) ([]core.CloneEntry, error) {
	if len(c.Entries) == 0 {
		return nil, newConfigError(ErrNoEntriesDefined, nil, "no entries defined in config file '%s'", c.path)
	}

	if err := c.sanitizeLogDirectory(warn); err != nil {
		return nil, newConfigError(ErrFileNotFound, err, "could not create log directory: %s", c.LogDirectory)
	}

	sourceTrie := newPathNode()
	destinationTrie := newPathNode()

	result := make([]core.CloneEntry, 0, len(c.Entries))
	for _, raw := range c.Entries {
		compiled, err := raw.sanitize()
		if err != nil {
			return nil, err
		}

		if hasConflict(sourceTrie, compiled.source) {
			return nil, newConfigError(ErrOverlappingPath, nil,
				"overlapping path detected in 'source_directory': %s", compiled.source)
		}
		if hasConflict(destinationTrie, compiled.destination) {
			return nil, newConfigError(ErrOverlappingPath, nil,
				"overlapping path detected in 'destination_directory': %s", compiled.destination)
		}

		result = append(result, compiled.Compile())
	}

	return result, nil
}
