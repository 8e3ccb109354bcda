package core

import (
	"os"
	"path/filepath"

	"github.com/adamczapla/dropclone/pkg/logging"
)

// CommandState is a state in a Command's execute/undo state machine.
type CommandState uint8

const (
	// StateUninitialized is the initial state before Execute or Undo runs.
	StateUninitialized CommandState = iota
	// StateSuccess indicates the operation completed cleanly.
	StateSuccess
	// StateFailure indicates the operation failed outright.
	StateFailure
	// StatePartialSuccess indicates the operation's primary effect
	// succeeded but a secondary cleanup step (e.g. removing a staging
	// directory) did not.
	StatePartialSuccess
)

// BehaviorPolicy controls whether a CopyCommand overwrites files that
// already exist at the destination.
type BehaviorPolicy uint8

const (
	// BehaviorNone skips files that already exist at the destination.
	BehaviorNone BehaviorPolicy = iota
	// BehaviorDuplicate overwrites files that already exist at the
	// destination.
	BehaviorDuplicate
)

// Command is the closed sum of filesystem mutations a CloneTransaction can
// execute: Copy, Rename, or Remove. It is intentionally not open to new
// implementations outside this package -- the transaction dispatches over
// the three concrete types.
type Command interface {
	// Execute performs the command's effect. It is a no-op, without
	// touching the filesystem, if the command's state machine says it
	// shouldn't run.
	Execute() error
	// Undo reverses the command's effect, to the extent possible. Unlike
	// Execute, it never returns an error: failures are recorded in
	// UndoState and logged, so that a multi-command rollback can continue
	// past a single command's undo failure.
	Undo()
	// ExecuteState reports the outcome of the most recent Execute call.
	ExecuteState() CommandState
	// UndoState reports the outcome of the most recent Undo call.
	UndoState() CommandState
	// Selection returns the snapshot selection this command operates on,
	// used for reporting unrecovered entries after a failed rollback.
	Selection() *PathSnapshot
	// Name identifies the command kind for logging purposes.
	Name() string
	// resetState restores execute/undo state to Uninitialized, used by a
	// transaction after a clean rollback so the transaction can be retried
	// from scratch on the next sync tick.
	resetState()
}

// commandBase holds the state shared by all three command variants.
type commandBase struct {
	snapshot     *PathSnapshot
	executeState CommandState
	undoState    CommandState
	logger       *logging.Logger
}

func (c *commandBase) ExecuteState() CommandState { return c.executeState }
func (c *commandBase) UndoState() CommandState     { return c.undoState }
func (c *commandBase) Selection() *PathSnapshot    { return c.snapshot }

func (c *commandBase) resetState() {
	c.executeState = StateUninitialized
	c.undoState = StateUninitialized
}

// skipExecute is the state-machine guard: execute is skipped, without I/O,
// if this command already failed to execute or if its own undo previously
// failed.
func (c *commandBase) skipExecute() bool {
	return c.executeState == StateFailure || c.undoState == StateFailure
}

// skipUndo implements the corresponding guard for undo: it's a no-op if
// execute never ran (or failed), or if undo already succeeded.
func (c *commandBase) skipUndo() bool {
	return c.executeState == StateUninitialized ||
		c.executeState == StateFailure ||
		c.undoState == StateSuccess
}

func (c *commandBase) logEnter(name string) {
	c.logger.Debugf("enter %s", name)
}

func (c *commandBase) logLeave(name string) {
	c.logger.Debugf("leave %s", name)
}

// CopyCommand copies new files and their containing directories into a
// destination root.
type CopyCommand struct {
	commandBase
	destinationRoot string
	behavior        BehaviorPolicy
}

// NewCopyCommand creates a CopyCommand that copies the files and
// directories in snapshot into destinationRoot. behavior controls whether
// existing destination files are overwritten.
func NewCopyCommand(snapshot *PathSnapshot, destinationRoot string, behavior BehaviorPolicy, logger *logging.Logger) *CopyCommand {
	return &CopyCommand{
		commandBase:     commandBase{snapshot: snapshot, logger: logger},
		destinationRoot: destinationRoot,
		behavior:        behavior,
	}
}

// Name implements Command.Name.
func (c *CopyCommand) Name() string { return "copy_command" }

// Execute implements Command.Execute.
func (c *CopyCommand) Execute() error {
	if c.skipExecute() {
		c.logger.Debugf("execute skipped for %s", c.Name())
		return nil
	}
	c.logEnter(c.Name() + ".execute")

	if err := createDirectories(c.snapshot.Directories(), c.destinationRoot, false); err != nil {
		c.executeState = StateFailure
		return newCodedError(ErrCopyFailed, err, "copy_command execute: create directories under %s", c.destinationRoot)
	}

	overwrite := c.behavior == BehaviorDuplicate
	if err := copyFiles(c.snapshot.Files(), c.snapshot.Root(), c.destinationRoot, overwrite, false); err != nil {
		c.executeState = StateFailure
		return newCodedError(ErrCopyFailed, err, "copy_command execute: %s -> %s", c.snapshot.Root(), c.destinationRoot)
	}

	c.executeState = StateSuccess
	c.logLeave(c.Name() + ".execute")
	return nil
}

// Undo implements Command.Undo: it removes the files this command copied,
// then the directories it created, descending so children are removed
// before parents.
func (c *CopyCommand) Undo() {
	if c.skipUndo() {
		c.logger.Warnf("%s: undo before execute or already undone", c.Name())
		return
	}
	c.logEnter(c.Name() + ".undo")

	if err := removeFiles(c.snapshot.Files(), c.destinationRoot, true); err != nil {
		c.undoState = StateFailure
		c.logger.Errorf("%s undo failed: %v", c.Name(), err)
		return
	}
	if err := removeDirectories(c.snapshot.Directories(), c.destinationRoot, true); err != nil {
		c.undoState = StateFailure
		c.logger.Errorf("%s undo failed: %v", c.Name(), err)
		return
	}

	c.undoState = StateSuccess
	c.logLeave(c.Name() + ".undo")
}

// RenameCommand renames files from a source selection into a destination
// root, using the filesystem's rename primitive as the unit of atomicity.
type RenameCommand struct {
	commandBase
	destinationRoot string
}

// NewRenameCommand creates a RenameCommand that moves the files in snapshot
// into destinationRoot.
func NewRenameCommand(snapshot *PathSnapshot, destinationRoot string, logger *logging.Logger) *RenameCommand {
	return &RenameCommand{
		commandBase:     commandBase{snapshot: snapshot, logger: logger},
		destinationRoot: destinationRoot,
	}
}

// Name implements Command.Name.
func (c *RenameCommand) Name() string { return "rename_command" }

// Execute implements Command.Execute. If the selection is empty, this is a
// no-op; otherwise it ensures destinationRoot exists, recreates the
// selection's directory structure under it, and renames each file in turn.
func (c *RenameCommand) Execute() error {
	if c.skipExecute() {
		c.logger.Debugf("execute skipped for %s", c.Name())
		return nil
	}
	c.logEnter(c.Name() + ".execute")

	if !c.snapshot.HasData() {
		c.executeState = StateSuccess
		c.logLeave(c.Name() + ".execute")
		return nil
	}

	if err := ensureDirectory(c.destinationRoot, 0o755); err != nil {
		c.executeState = StateFailure
		return newCodedError(ErrRenameFailed, err, "rename_command execute: ensure %s", c.destinationRoot)
	}
	if err := createDirectories(c.snapshot.Directories(), c.destinationRoot, false); err != nil {
		c.executeState = StateFailure
		return newCodedError(ErrRenameFailed, err, "rename_command execute: create directories under %s", c.destinationRoot)
	}
	if err := renameFiles(c.snapshot.Files(), c.snapshot.Root(), c.destinationRoot, false); err != nil {
		c.executeState = StateFailure
		return newCodedError(ErrRenameFailed, err, "rename_command execute: %s -> %s", c.snapshot.Root(), c.destinationRoot)
	}

	c.executeState = StateSuccess
	c.logLeave(c.Name() + ".execute")
	return nil
}

// Undo implements Command.Undo: it renames files back to their original
// location, removes the mirrored directory tree, and removes the
// destination root itself if it's now empty.
func (c *RenameCommand) Undo() {
	if c.skipUndo() {
		c.logger.Warnf("%s: undo before execute or already undone", c.Name())
		return
	}
	c.logEnter(c.Name() + ".undo")

	if err := renameFiles(c.snapshot.Files(), c.destinationRoot, c.snapshot.Root(), true); err != nil {
		c.undoState = StateFailure
		c.logger.Errorf("%s undo failed: %v", c.Name(), err)
		return
	}
	if err := removeDirectories(c.snapshot.Directories(), c.destinationRoot, true); err != nil {
		c.undoState = StateFailure
		c.logger.Errorf("%s undo failed: %v", c.Name(), err)
		return
	}
	if err := removeEmptyDirectory(c.destinationRoot); err != nil {
		c.undoState = StateFailure
		c.logger.Errorf("%s undo failed: %v", c.Name(), err)
		return
	}

	c.undoState = StateSuccess
	c.logLeave(c.Name() + ".undo")
}

// removeEmptyDirectory removes path if it exists and is empty, tolerating
// both a missing path and a non-empty directory as a no-op.
func removeEmptyDirectory(path string) error {
	entries, err := os.ReadDir(path)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return err
	}
	if len(entries) > 0 {
		return nil
	}
	return os.Remove(path)
}

// RemoveCommand removes a selection of files and directories, first
// staging them under a ".trash" directory so the removal can be undone on
// a non-transactional filesystem.
type RemoveCommand struct {
	commandBase
}

// NewRemoveCommand creates a RemoveCommand over snapshot.
func NewRemoveCommand(snapshot *PathSnapshot, logger *logging.Logger) *RemoveCommand {
	return &RemoveCommand{commandBase: commandBase{snapshot: snapshot, logger: logger}}
}

// Name implements Command.Name.
func (c *RemoveCommand) Name() string { return "remove_command" }

const trashDirName = ".trash"

// Execute implements Command.Execute.
func (c *RemoveCommand) Execute() error {
	if c.skipExecute() {
		c.logger.Debugf("execute skipped for %s", c.Name())
		return nil
	}
	c.logEnter(c.Name() + ".execute")

	root := c.snapshot.Root()
	if _, err := os.Stat(root); os.IsNotExist(err) {
		c.logLeave(c.Name() + ".execute")
		return nil
	}

	trashPath := filepath.Join(root, trashDirName)
	if err := ensureDirectory(trashPath, 0o755); err != nil {
		c.executeState = StateFailure
		return newCodedError(ErrRemoveFailed, err, "remove_command execute: create trash under %s", root)
	}
	if err := createDirectories(c.snapshot.Directories(), trashPath, false); err != nil {
		c.executeState = StateFailure
		return newCodedError(ErrRemoveFailed, err, "remove_command execute: mirror directories under %s", trashPath)
	}
	if err := copyFiles(c.snapshot.Files(), root, trashPath, true, false); err != nil {
		c.executeState = StateFailure
		return newCodedError(ErrRemoveFailed, err, "remove_command execute: stage files under %s", trashPath)
	}
	if err := removeFiles(c.snapshot.Files(), root, false); err != nil {
		c.executeState = StateFailure
		return newCodedError(ErrRemoveFailed, err, "remove_command execute: remove files under %s", root)
	}
	if err := removeDirectories(c.snapshot.Directories(), root, false); err != nil {
		c.executeState = StateFailure
		return newCodedError(ErrRemoveFailed, err, "remove_command execute: remove directories under %s", root)
	}

	c.executeState = StateSuccess

	// This is a non-recursive removal. root still holds trashPath, created
	// above, so it fails and the state becomes PartialSuccess; root and
	// .trash are left in place, which is what keeps Undo able to restore
	// from trash.
	if err := os.Remove(root); err != nil {
		c.executeState = StatePartialSuccess
		c.logger.Warnf("%s: final cleanup of %s failed: %v", c.Name(), root, err)
	}

	c.logLeave(c.Name() + ".execute")
	return nil
}

// Undo implements Command.Undo: it restores files and directories from the
// trash directory, then removes the trash directory.
func (c *RemoveCommand) Undo() {
	if c.executeState != StateSuccess && c.executeState != StatePartialSuccess {
		c.logger.Warnf("%s: undo before execute or execute failed", c.Name())
		return
	}
	if c.undoState == StateSuccess {
		return
	}
	c.logEnter(c.Name() + ".undo")

	root := c.snapshot.Root()
	trashPath := filepath.Join(root, trashDirName)
	if _, err := os.Stat(trashPath); os.IsNotExist(err) {
		c.logLeave(c.Name() + ".undo")
		return
	}

	if err := createDirectories(c.snapshot.Directories(), root, true); err != nil {
		c.undoState = StateFailure
		c.logger.Errorf("%s undo failed: %v", c.Name(), err)
		return
	}
	if err := copyFiles(c.snapshot.Files(), trashPath, root, false, true); err != nil {
		c.undoState = StateFailure
		c.logger.Errorf("%s undo failed: %v", c.Name(), err)
		return
	}

	c.undoState = StateSuccess

	if err := os.RemoveAll(trashPath); err != nil {
		c.undoState = StatePartialSuccess
		c.logger.Warnf("%s: cleanup of %s failed: %v", c.Name(), trashPath, err)
	}

	c.logLeave(c.Name() + ".undo")
}
