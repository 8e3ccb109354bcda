package core

import (
	"os"
	"path/filepath"

	"github.com/adamczapla/dropclone/pkg/logging"
)

// CloneMode selects how a configured entry is synchronized. Both modes
// always apply deletions and mirror additions/updates identically; the
// field exists to distinguish configuration intent (the user is told
// Move deletes from the source) from this engine's actual behavior, which
// never mutates the source tree under either mode.
type CloneMode uint8

const (
	// ModeCopy mirrors additions, updates, and deletions from source to
	// destination.
	ModeCopy CloneMode = iota
	// ModeMove behaves identically to ModeCopy in this engine, since it
	// never mutates the source tree.
	ModeMove
)

const (
	backupDirName = ".backup"
)

// CloneEntry is one configured source/destination pair, together with the
// compiled filter that decides which source paths participate in
// synchronization. It is produced by pkg/configuration; core only consumes
// it.
type CloneEntry struct {
	SourceDirectory      string
	DestinationDirectory string
	Mode                 CloneMode
	Filter               PathFilter
}

// CloneManager drives repeated synchronization of one CloneEntry, holding
// the last successful source snapshot between ticks so that Sync only needs
// to examine what changed.
type CloneManager struct {
	entry          CloneEntry
	previousSource *PathSnapshot
	cache          *StatCache
	logger         *logging.Logger
}

// NewCloneManager creates a manager for entry. logger should be the "sync"
// channel logger; it's forwarded to every command and transaction this
// manager creates.
func NewCloneManager(entry CloneEntry, logger *logging.Logger) *CloneManager {
	previous := NewPathSnapshot(entry.SourceDirectory)
	return &CloneManager{
		entry:          entry,
		previousSource: previous,
		cache:          NewStatCache(4096),
		logger:         logger,
	}
}

// Entry returns the manager's configured clone entry.
func (m *CloneManager) Entry() CloneEntry { return m.entry }

// Sync performs one synchronization tick: it builds a fresh snapshot of the
// source, short-circuits if nothing changed since the previous tick, and
// otherwise assembles and runs the copy and remove transactions needed to
// bring the destination in line.
func (m *CloneManager) Sync() error {
	currentSource := NewPathSnapshot(m.entry.SourceDirectory)
	currentSource.UseCache(m.cache)
	if err := currentSource.Make(m.entry.Filter); err != nil {
		return err
	}

	if currentSource.Hash() == m.previousSource.Hash() {
		m.logger.Debugf("sync %s: no change (hash %x)", m.entry.SourceDirectory, currentSource.Hash())
		return nil
	}

	updates := currentSource.Diff(m.previousSource)
	if err := m.copy(updates, m.entry.DestinationDirectory); err != nil {
		return err
	}

	removals := m.previousSource.Diff(currentSource)
	if err := m.remove(removals, m.entry.DestinationDirectory); err != nil {
		return err
	}

	m.previousSource = currentSource
	return nil
}

// copy applies the additions and updates present in diffSnapshot to
// destinationRoot using a four-command transaction: new
// files are copied directly, updated files are staged aside into a backup
// directory, the new versions are copied in, and the backup is discarded.
// Staging the update through a backup gives rollback a cheap anchor to
// restore from if the new-version copy fails partway through.
func (m *CloneManager) copy(diffSnapshot *PathSnapshot, destinationRoot string) error {
	added := NewPathSnapshot(diffSnapshot.Root())
	added.AddFiles(diffSnapshot, func(_ string, info PathInfo) bool {
		return info.PathStatus == StatusAdded || info.PathStatus == StatusStructurallyRequired
	})
	added.AddDirectories(diffSnapshot, func(_ string, info PathInfo) bool {
		return info.PathStatus == StatusAdded || info.PathStatus == StatusStructurallyRequired
	})

	updated := NewPathSnapshot(diffSnapshot.Root())
	updated.AddFiles(diffSnapshot, func(_ string, info PathInfo) bool {
		return info.PathStatus == StatusUpdated
	})
	updated.AddDirectories(diffSnapshot, func(_ string, info PathInfo) bool {
		return info.PathStatus == StatusUpdated
	})

	if !added.HasData() && !updated.HasData() {
		return nil
	}

	tx := NewCloneTransaction(m.logger)

	if added.HasData() {
		tx.Add(NewCopyCommand(added, destinationRoot, BehaviorNone, m.logger))
	}

	if updated.HasData() {
		backupRoot := filepath.Join(destinationRoot, backupDirName)
		renamed := updated.Rebase(destinationRoot)
		backup := renamed.Rebase(backupRoot)

		tx.Add(NewRenameCommand(renamed, backupRoot, m.logger))
		tx.Add(NewCopyCommand(updated, destinationRoot, BehaviorDuplicate, m.logger))
		tx.Add(NewRemoveCommand(backup, m.logger))
	}

	if err := tx.Start(); err != nil {
		return err
	}

	// The backup RemoveCommand leaves .backup (holding its .trash) in place;
	// once the transaction has committed nothing undoes it, so the whole
	// backup directory is discarded here.
	if updated.HasData() {
		backupRoot := filepath.Join(destinationRoot, backupDirName)
		if err := os.RemoveAll(backupRoot); err != nil {
			m.logger.Warnf("sync %s: cleanup of %s failed: %v", m.entry.SourceDirectory, backupRoot, err)
		}
	}
	return nil
}

// remove applies the deletions present in diffSnapshot to destinationRoot
// via a single RemoveCommand.
func (m *CloneManager) remove(diffSnapshot *PathSnapshot, destinationRoot string) error {
	removed := NewPathSnapshot(destinationRoot)
	removed.AddFiles(diffSnapshot, func(_ string, info PathInfo) bool {
		return info.PathStatus == StatusDeleted || info.PathStatus == StatusStructurallyRequired
	})
	removed.AddDirectories(diffSnapshot, func(_ string, info PathInfo) bool {
		return info.PathStatus == StatusDeleted || info.PathStatus == StatusStructurallyRequired
	})

	if !removed.HasData() {
		return nil
	}

	tx := NewCloneTransaction(m.logger)
	tx.Add(NewRemoveCommand(removed, m.logger))
	return tx.Start()
}
