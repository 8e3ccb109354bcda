package core

import (
	"os"
	"time"
)

// PathStatus classifies how a PathInfo relates to a baseline snapshot, as
// produced by PathSnapshot.Diff.
type PathStatus uint8

const (
	// StatusUnchanged indicates that an entry is identical between the two
	// snapshots being compared.
	StatusUnchanged PathStatus = iota
	// StatusAdded indicates that an entry exists in the newer snapshot but
	// not in the older one.
	StatusAdded
	// StatusUpdated indicates that an entry's metadata differs between the
	// two snapshots.
	StatusUpdated
	// StatusDeleted indicates that an entry exists in the older snapshot but
	// not in the newer one.
	StatusDeleted
	// StatusStructurallyRequired marks an entry (always a directory) that
	// must be created or removed purely to support one of its descendants,
	// even though the directory's own metadata is unchanged.
	StatusStructurallyRequired
)

// Conflict classifies an observation that PathSnapshot.Make could not
// resolve cleanly.
type Conflict uint8

const (
	// ConflictNone indicates no conflict.
	ConflictNone Conflict = iota
	// ConflictSizeMismatch indicates that two entries share a modification
	// time but disagree on size.
	ConflictSizeMismatch
	// ConflictPermissionMismatch indicates that two entries share a
	// modification time and size but disagree on permissions.
	ConflictPermissionMismatch
	// ConflictAccessDenied indicates that the filesystem denied access to a
	// path during a walk.
	ConflictAccessDenied
)

// PathInfo describes the observable metadata of a single filesystem entry.
type PathInfo struct {
	// LastWriteTime is the entry's last content modification time.
	LastWriteTime time.Time
	// FileSize is the entry's size in bytes. It is always 0 for
	// directories, by convention.
	FileSize uint64
	// FilePerms holds the POSIX permission bits of the entry.
	FilePerms os.FileMode
	// IsDirectory indicates whether the entry is a directory.
	IsDirectory bool
	// PathStatus classifies this entry relative to some baseline, populated
	// only on entries emitted from PathSnapshot.Diff.
	PathStatus PathStatus
	// Conflict records why this entry could not be observed cleanly, if at
	// all.
	Conflict Conflict
}

// permissionBits isolates the rwx permission bits (mode & os.ModePerm, i.e.
// 0o777) from a
// os.FileMode, which may also carry Go's type bits (directory, symlink,
// etc.) that aren't part of the POSIX permission value being compared.
func permissionBits(mode os.FileMode) os.FileMode {
	return mode & os.ModePerm
}

// Equal reports structural equality: two PathInfo values are equal iff
// their last write time, file size, file permissions, and directory-ness
// all match.
func (p PathInfo) Equal(other PathInfo) bool {
	return p.LastWriteTime.Equal(other.LastWriteTime) &&
		p.FileSize == other.FileSize &&
		permissionBits(p.FilePerms) == permissionBits(other.FilePerms) &&
		p.IsDirectory == other.IsDirectory
}

// hashTriple computes an order-dependent hash of a single PathInfo's
// (time, size, perms) triple. Combination across a snapshot's entries must
// be done with a commutative, associative combiner (see PathSnapshot.computeHash)
// so that the resulting snapshot hash is independent of traversal order.
func hashTriple(info PathInfo) uint64 {
	const offset64 = 14695981039346656037
	const prime64 = 1099511628211

	h := uint64(offset64)
	mix := func(v uint64) {
		h ^= v
		h *= prime64
	}

	mix(uint64(info.LastWriteTime.UnixNano()))
	mix(info.FileSize)
	mix(uint64(permissionBits(info.FilePerms)))

	return h
}
