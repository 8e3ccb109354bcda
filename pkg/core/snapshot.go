package core

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// PathFilter is the opaque predicate consulted by PathSnapshot.Make to
// decide whether an absolute path should be included in the snapshot. The
// concrete predicate (derived from compiled include/exclude regular
// expressions) lives outside this package, in pkg/configuration; the core
// only ever sees this function type.
type PathFilter func(absolutePath string) bool

// PathSnapshot is a set of (relative path -> PathInfo) entries rooted at a
// directory, along with a stable, order-independent hash and the local_diff
// operator used to compare it against another snapshot.
type PathSnapshot struct {
	root         string
	entries      map[string]PathInfo
	files        map[string]PathInfo
	directories  *orderedDirectories
	conflicts    map[string]PathInfo
	creationTime time.Time
	hash         uint64
	cache        *StatCache
}

// NewPathSnapshot creates an empty snapshot rooted at root. The creation
// time is captured immediately, since it's used by Diff to disambiguate
// which of two snapshots being compared is the newer one.
func NewPathSnapshot(root string) *PathSnapshot {
	return &PathSnapshot{
		root:         filepath.Clean(root),
		entries:      make(map[string]PathInfo),
		files:        make(map[string]PathInfo),
		directories:  newOrderedDirectories(),
		conflicts:    make(map[string]PathInfo),
		creationTime: time.Now(),
	}
}

// UseCache attaches an optional StatCache that Make will consult to avoid
// rebuilding a PathInfo for paths whose stat tuple hasn't changed since a
// previous scan. Passing nil disables caching.
func (s *PathSnapshot) UseCache(cache *StatCache) {
	s.cache = cache
}

// Root returns the snapshot's root directory.
func (s *PathSnapshot) Root() string { return s.root }

// Hash returns the snapshot's cached, order-independent content hash.
// Unequal hashes prove that something changed; equal hashes do not prove the
// snapshots are identical, but CloneManager.Sync treats them as "no change"
// and short-circuits the sync tick.
func (s *PathSnapshot) Hash() uint64 { return s.hash }

// Entries returns the full entry set (files and directories).
func (s *PathSnapshot) Entries() map[string]PathInfo { return s.entries }

// Files returns the subset of entries that are not directories.
func (s *PathSnapshot) Files() map[string]PathInfo { return s.files }

// Directories returns the ordered (ascending) directory entries.
func (s *PathSnapshot) Directories() *orderedDirectories { return s.directories }

// Conflicts returns the set of paths that could not be observed cleanly
// during Make, keyed by relative path.
func (s *PathSnapshot) Conflicts() map[string]PathInfo { return s.conflicts }

// HasData reports whether the snapshot contains any files or directories.
func (s *PathSnapshot) HasData() bool {
	return len(s.files) > 0 || s.directories.len() > 0
}

// Rebase reinterprets the snapshot as rooted at newRoot without touching
// any of its entries. This is a pure logical operation: it changes which
// root a selection's relative keys resolve against, with no filesystem I/O.
// It's used, for example, to reinterpret a selection of updated files as
// living under a destination's ".backup" staging directory.
func (s *PathSnapshot) Rebase(newRoot string) *PathSnapshot {
	return &PathSnapshot{
		root:         filepath.Clean(newRoot),
		entries:      s.entries,
		files:        s.files,
		directories:  s.directories,
		conflicts:    s.conflicts,
		creationTime: s.creationTime,
		hash:         s.hash,
	}
}

// insert adds the given relative path/info pair to entries and, depending
// on IsDirectory, to files or directories. Matching the "first wins"
// construction rule, an existing entry for the same path is never
// overwritten; this is unreachable in practice since relative paths from a
// single filesystem walk are unique by construction.
func (s *PathSnapshot) insert(rel string, info PathInfo) {
	if _, exists := s.entries[rel]; exists {
		return
	}
	s.entries[rel] = info
	if info.IsDirectory {
		s.directories.set(rel, info)
	} else {
		s.files[rel] = info
	}
}

// Make populates the snapshot by recursively walking its root, applying
// filter to every absolute path encountered. Permission-denied errors on
// individual entries are recorded into Conflicts and do not abort the walk;
// any other traversal error fails the whole operation.
func (s *PathSnapshot) Make(filter PathFilter) error {
	walkErr := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if path == s.root {
			if err != nil {
				return newCodedError(ErrFailedToTraverseDirectory, err,
					"failed to traverse directory: %s", s.root)
			}
			return nil
		}

		rel := filepath.ToSlash(mustRel(s.root, path))

		if err != nil {
			if os.IsPermission(err) {
				s.conflicts[rel] = PathInfo{Conflict: ConflictAccessDenied}
				return nil
			}
			return newCodedError(ErrFailedToTraverseDirectory, err,
				"failed to traverse directory: %s in %s", path, s.root)
		}

		if filter != nil && !filter(path) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			if os.IsPermission(err) {
				s.conflicts[rel] = PathInfo{Conflict: ConflictAccessDenied}
				return nil
			}
			return newCodedError(ErrFailedToTraverseDirectory, err,
				"failed to traverse directory: %s in %s", path, s.root)
		}

		var size uint64
		if !info.IsDir() {
			size = uint64(info.Size())
		}

		if cached, ok := s.cache.lookup(rel, info.ModTime(), int64(size), info.Mode()); ok {
			s.insert(rel, cached)
			return nil
		}

		pathInfo := PathInfo{
			LastWriteTime: info.ModTime(),
			FileSize:      size,
			FilePerms:     info.Mode().Perm(),
			IsDirectory:   info.IsDir(),
		}
		s.cache.store(rel, info.ModTime(), int64(size), info.Mode(), pathInfo)
		s.insert(rel, pathInfo)

		return nil
	})
	if walkErr != nil {
		return walkErr
	}

	s.hash = s.computeHash()
	return nil
}

// mustRel computes a path relative to root. It panics on failure, which can
// only happen if path is not actually beneath root -- a condition that
// indicates a bug in the walk above, not a runtime condition callers need
// to handle.
func mustRel(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		panic("path not relative to snapshot root: " + err.Error())
	}
	return rel
}

// computeHash folds every entry's (time, size, perms) triple into a single
// hash using XOR, a commutative and associative combiner chosen
// specifically so the result does not depend on iteration (i.e. traversal)
// order.
func (s *PathSnapshot) computeHash() uint64 {
	var h uint64
	for _, info := range s.entries {
		h ^= hashTriple(info)
	}
	return h
}

// AddFiles copies file entries from source into the receiver, keeping only
// those for which pred returns true. The receiver's root is unchanged.
func (s *PathSnapshot) AddFiles(source *PathSnapshot, pred func(path string, info PathInfo) bool) {
	for path, info := range source.files {
		if pred == nil || pred(path, info) {
			s.insert(path, info)
		}
	}
}

// AddDirectories copies directory entries from source into the receiver,
// keeping only those for which pred returns true. The receiver's root is
// unchanged.
func (s *PathSnapshot) AddDirectories(source *PathSnapshot, pred func(path string, info PathInfo) bool) {
	for _, path := range source.directories.ascending() {
		info, _ := source.directories.get(path)
		if pred == nil || pred(path, info) {
			s.insert(path, info)
		}
	}
}

// Diff performs "self - other": it produces a new snapshot, rooted at
// self's root, whose entries are classified according to how self differs
// from other. Only self's entries are examined: an entry of self that is
// missing from other is Added when self is the newer snapshot and Deleted
// when self is the older one, and an entry whose metadata differs is
// Updated. Entries present only in other, and unchanged entries, are never
// emitted.
func (s *PathSnapshot) Diff(other *PathSnapshot) *PathSnapshot {
	result := NewPathSnapshot(s.root)
	selfIsNewer := !s.creationTime.Before(other.creationTime)

	for path, v := range s.entries {
		w, exists := other.entries[path]
		if !exists {
			info := v
			if selfIsNewer {
				info.PathStatus = StatusAdded
			} else {
				info.PathStatus = StatusDeleted
			}
			result.insert(path, info)
			continue
		}
		if !v.Equal(w) {
			info := v
			info.PathStatus = StatusUpdated
			result.insert(path, info)
		}
	}

	result.prune()
	return result
}

// prune implements the structural-pruning rule: a directory marked Updated
// is downgraded to Unchanged (and removed from the diff) if no file or
// directory entry strictly underneath it, at any depth,
// carries a status other than Deleted. Directories are processed from
// deepest to shallowest so that a directory's own pruning decision is
// settled before its ancestors are evaluated.
func (s *PathSnapshot) prune() {
	dirs := s.directories.ascending()
	sort.Slice(dirs, func(i, j int) bool {
		di := strings.Count(dirs[i], "/")
		dj := strings.Count(dirs[j], "/")
		if di != dj {
			return di > dj
		}
		return dirs[i] > dirs[j]
	})

	for _, dir := range dirs {
		info, ok := s.directories.get(dir)
		if !ok || info.PathStatus != StatusUpdated {
			continue
		}

		needsRecreate := false
		for path, entry := range s.entries {
			if path == dir || !isUnder(path, dir) {
				continue
			}
			if entry.PathStatus != StatusDeleted {
				needsRecreate = true
				break
			}
		}

		if !needsRecreate {
			delete(s.entries, dir)
			s.directories.delete(dir)
		}
	}
}
