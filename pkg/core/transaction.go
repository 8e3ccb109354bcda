package core

import (
	"time"

	"github.com/eknkc/basex"
	"github.com/google/uuid"

	"github.com/adamczapla/dropclone/pkg/logging"
)

// undoRetryBackoff is the bounded sleep between undo retries: a fixed
// constant rather than a tunable default.
const undoRetryBackoff = 500 * time.Millisecond

var base62, _ = basex.NewEncoding("0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz")

// newTransactionID returns a short, base62-encoded identifier derived from a
// random UUID, used only to correlate log lines emitted by a single
// transaction run.
func newTransactionID() string {
	id := uuid.New()
	return base62.Encode(id[:])
}

// CloneTransaction is an ordered group of commands executed under
// all-or-nothing semantics: either every command reaches Success (or
// PartialSuccess for a Remove), or every already-executed command is rolled
// back in LIFO order and the transaction reports a classified failure.
type CloneTransaction struct {
	id        string
	commands  []Command
	processed []Command
	logger    *logging.Logger
}

// NewCloneTransaction creates an empty transaction. logger is used for the
// sync channel per command and transaction-level messages.
func NewCloneTransaction(logger *logging.Logger) *CloneTransaction {
	return &CloneTransaction{id: newTransactionID(), logger: logger}
}

// Add appends a command to the transaction's FIFO execute order.
func (t *CloneTransaction) Add(cmd Command) {
	t.commands = append(t.commands, cmd)
}

// Start executes every added command in order. On the first execute
// failure it rolls back everything already executed and returns a
// classified *CodedError (ErrStartFailed or ErrRollbackFailed). An empty
// transaction is a no-op.
func (t *CloneTransaction) Start() error {
	if len(t.commands) == 0 {
		return nil
	}
	t.logger.Debugf("transaction %s: start (%d commands)", t.id, len(t.commands))

	var startErr error
	for _, cmd := range t.commands {
		if err := cmd.Execute(); err != nil {
			startErr = err
			t.logger.Errorf("transaction %s: %s execute failed: %v", t.id, cmd.Name(), err)
			t.tryUndo(cmd, 3)
			break
		}
		t.processed = append(t.processed, cmd)
	}

	if startErr == nil {
		t.logger.Debugf("transaction %s: committed", t.id)
		t.reset()
		return nil
	}

	t.rollback()

	if t.anyUndoFailed() {
		t.logUnrecoveredEntries()
		t.reset()
		return newCodedError(ErrRollbackFailed, startErr, "transaction %s: rollback did not fully converge", t.id)
	}

	t.resetCommandStatuses()
	return newCodedError(ErrStartFailed, startErr, "transaction %s: execute failed, rollback succeeded", t.id)
}

// rollback pops the processed-command stack in LIFO order, attempting undo
// on each even if a previous undo in the same rollback failed.
func (t *CloneTransaction) rollback() {
	for i := len(t.processed) - 1; i >= 0; i-- {
		t.tryUndo(t.processed[i], 1)
	}
}

// tryUndo calls Undo, retrying up to maxRetries times with a bounded
// backoff while the command's undo state remains Failure. Retries absorb
// transient races, such as another process briefly holding a file handle.
func (t *CloneTransaction) tryUndo(cmd Command, maxRetries int) {
	cmd.Undo()
	attempts := 0
	for cmd.UndoState() == StateFailure && attempts < maxRetries {
		attempts++
		time.Sleep(undoRetryBackoff)
		cmd.Undo()
	}
}

// anyUndoFailed reports whether any command in the transaction ended the
// rollback with undo_status = Failure.
func (t *CloneTransaction) anyUndoFailed() bool {
	for _, cmd := range t.commands {
		if cmd.UndoState() == StateFailure {
			return true
		}
	}
	return false
}

// logUnrecoveredEntries emits one error line per remaining file and
// directory in the selection of every command whose undo did not converge,
// so an operator can reconcile the inconsistency manually.
func (t *CloneTransaction) logUnrecoveredEntries() {
	for _, cmd := range t.commands {
		if cmd.UndoState() != StateFailure {
			continue
		}
		selection := cmd.Selection()
		if selection == nil {
			continue
		}
		for path := range selection.Files() {
			t.logger.Errorf("transaction %s: unrecovered file after %s: %s", t.id, cmd.Name(), path)
		}
		for _, path := range selection.Directories().ascending() {
			t.logger.Errorf("transaction %s: unrecovered directory after %s: %s", t.id, cmd.Name(), path)
		}
	}
}

// resetCommandStatuses restores every command's execute/undo state to
// Uninitialized without discarding the command list, used after a clean
// rollback so StartFailed reflects a transaction the caller can safely
// retry on the next tick.
func (t *CloneTransaction) resetCommandStatuses() {
	for _, cmd := range t.commands {
		cmd.resetState()
	}
	t.processed = nil
}

// reset empties both the command list and the processed stack, restoring
// the transaction to a fresh state for reuse.
func (t *CloneTransaction) reset() {
	t.commands = nil
	t.processed = nil
}
