package core

import "testing"

// fakeCommand is a minimal, scriptable Command implementation used to drive
// CloneTransaction through specific execute/undo outcomes without touching
// the filesystem.
type fakeCommand struct {
	commandBase
	name          string
	failExecute   bool
	failUndo      bool
	executeCalls  int
	undoCalls     int
}

func (f *fakeCommand) Name() string { return f.name }

func (f *fakeCommand) Execute() error {
	f.executeCalls++
	if f.skipExecute() {
		return nil
	}
	if f.failExecute {
		f.executeState = StateFailure
		return newCodedError(ErrCopyFailed, nil, "fake command %s failed", f.name)
	}
	f.executeState = StateSuccess
	return nil
}

func (f *fakeCommand) Undo() {
	f.undoCalls++
	if f.skipUndo() {
		return
	}
	if f.failUndo {
		f.undoState = StateFailure
		return
	}
	f.undoState = StateSuccess
}

func TestTransactionEmptyIsNoOp(t *testing.T) {
	tx := NewCloneTransaction(nil)
	if err := tx.Start(); err != nil {
		t.Fatalf("empty transaction should succeed, got %v", err)
	}
}

func TestTransactionAllSucceed(t *testing.T) {
	tx := NewCloneTransaction(nil)
	a := &fakeCommand{name: "a"}
	b := &fakeCommand{name: "b"}
	tx.Add(a)
	tx.Add(b)

	if err := tx.Start(); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if a.executeCalls != 1 || b.executeCalls != 1 {
		t.Errorf("expected each command executed exactly once, got a=%d b=%d", a.executeCalls, b.executeCalls)
	}
	if a.undoCalls != 0 || b.undoCalls != 0 {
		t.Error("undo should not be called when every command succeeds")
	}
}

func TestTransactionStartFailedOnCleanRollback(t *testing.T) {
	tx := NewCloneTransaction(nil)
	a := &fakeCommand{name: "a"}
	b := &fakeCommand{name: "b", failExecute: true}
	c := &fakeCommand{name: "c"}
	tx.Add(a)
	tx.Add(b)
	tx.Add(c)

	err := tx.Start()
	if err == nil {
		t.Fatal("expected an error from a failing transaction")
	}
	coded, ok := err.(*CodedError)
	if !ok || coded.Code != ErrStartFailed {
		t.Fatalf("expected ErrStartFailed, got %v", err)
	}

	if c.executeCalls != 0 {
		t.Error("command c should never execute once b fails")
	}
	if a.undoCalls == 0 {
		t.Error("command a should have been rolled back")
	}
}

func TestTransactionRollbackFailedWhenUndoDoesNotConverge(t *testing.T) {
	tx := NewCloneTransaction(nil)
	a := &fakeCommand{name: "a", failUndo: true}
	b := &fakeCommand{name: "b", failExecute: true}
	tx.Add(a)
	tx.Add(b)

	err := tx.Start()
	if err == nil {
		t.Fatal("expected an error from a failing transaction")
	}
	coded, ok := err.(*CodedError)
	if !ok || coded.Code != ErrRollbackFailed {
		t.Fatalf("expected ErrRollbackFailed, got %v", err)
	}
	if a.UndoState() != StateFailure {
		t.Errorf("expected command a's undo to remain Failure, got %v", a.UndoState())
	}
}

func TestTransactionResetAfterCleanRollback(t *testing.T) {
	tx := NewCloneTransaction(nil)
	a := &fakeCommand{name: "a"}
	b := &fakeCommand{name: "b", failExecute: true}
	tx.Add(a)
	tx.Add(b)

	if err := tx.Start(); err == nil {
		t.Fatal("expected failure")
	}
	if a.ExecuteState() != StateUninitialized || a.UndoState() != StateUninitialized {
		t.Errorf("expected command states reset after a clean rollback, got execute=%v undo=%v",
			a.ExecuteState(), a.UndoState())
	}
}
