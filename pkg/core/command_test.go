package core

import (
	"os"
	"path/filepath"
	"testing"
)

func selectionFromWalk(t *testing.T, root string) *PathSnapshot {
	t.Helper()
	s := NewPathSnapshot(root)
	if err := s.Make(nil); err != nil {
		t.Fatal(err)
	}
	return s
}

func fileExists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	if err == nil {
		return true
	}
	if os.IsNotExist(err) {
		return false
	}
	t.Fatal(err)
	return false
}

func TestCopyCommandExecuteAndUndo(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "hello")
	writeFile(t, filepath.Join(src, "sub", "b.txt"), "world")

	selection := selectionFromWalk(t, src)
	cmd := NewCopyCommand(selection, dst, BehaviorNone, nil)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if cmd.ExecuteState() != StateSuccess {
		t.Fatalf("expected StateSuccess, got %v", cmd.ExecuteState())
	}
	if !fileExists(t, filepath.Join(dst, "a.txt")) || !fileExists(t, filepath.Join(dst, "sub", "b.txt")) {
		t.Fatal("expected copied files to exist at destination")
	}

	cmd.Undo()
	if cmd.UndoState() != StateSuccess {
		t.Fatalf("expected undo StateSuccess, got %v", cmd.UndoState())
	}
	if fileExists(t, filepath.Join(dst, "a.txt")) || fileExists(t, filepath.Join(dst, "sub", "b.txt")) {
		t.Fatal("expected undo to remove the copied files")
	}
	if fileExists(t, filepath.Join(dst, "sub")) {
		t.Fatal("expected undo to remove the created directory")
	}
}

func TestCopyCommandSkipsExistingByDefault(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "new content")
	writeFile(t, filepath.Join(dst, "a.txt"), "original content")

	selection := selectionFromWalk(t, src)
	cmd := NewCopyCommand(selection, dst, BehaviorNone, nil)
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}

	content, err := os.ReadFile(filepath.Join(dst, "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "original content" {
		t.Errorf("expected existing destination file to be preserved, got %q", content)
	}
}

func TestCopyCommandOverwritesWithDuplicateBehavior(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "new content")
	writeFile(t, filepath.Join(dst, "a.txt"), "original content")

	selection := selectionFromWalk(t, src)
	cmd := NewCopyCommand(selection, dst, BehaviorDuplicate, nil)
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}

	content, err := os.ReadFile(filepath.Join(dst, "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "new content" {
		t.Errorf("expected BehaviorDuplicate to overwrite, got %q", content)
	}
}

func TestCommandStateMachineSkipsExecuteOnPriorFailure(t *testing.T) {
	selection := NewPathSnapshot(t.TempDir())
	cmd := &CopyCommand{commandBase: commandBase{snapshot: selection}, destinationRoot: t.TempDir()}
	cmd.executeState = StateFailure

	if err := cmd.Execute(); err != nil {
		t.Fatalf("expected skipped execute to return nil, got %v", err)
	}
	if cmd.ExecuteState() != StateFailure {
		t.Error("skipped execute must not change execute state")
	}
}

func TestCommandStateMachineUndoBeforeExecuteIsNoOp(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "hello")

	selection := selectionFromWalk(t, src)
	cmd := NewCopyCommand(selection, dst, BehaviorNone, nil)

	cmd.Undo()
	if cmd.UndoState() != StateUninitialized {
		t.Errorf("undo before execute must remain Uninitialized, got %v", cmd.UndoState())
	}
	if fileExists(t, filepath.Join(dst, "a.txt")) {
		t.Error("undo before execute must not touch the filesystem")
	}
}

func TestRenameCommandExecuteAndUndo(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "backup")
	writeFile(t, filepath.Join(src, "a.txt"), "content")

	selection := selectionFromWalk(t, src)
	cmd := NewRenameCommand(selection, dst, nil)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if fileExists(t, filepath.Join(src, "a.txt")) {
		t.Error("expected file to be moved away from source")
	}
	if !fileExists(t, filepath.Join(dst, "a.txt")) {
		t.Error("expected file to exist at destination after rename")
	}

	cmd.Undo()
	if cmd.UndoState() != StateSuccess {
		t.Fatalf("expected undo success, got %v", cmd.UndoState())
	}
	if !fileExists(t, filepath.Join(src, "a.txt")) {
		t.Error("expected undo to move the file back")
	}
	if fileExists(t, dst) {
		t.Error("expected undo to remove the now-empty destination root")
	}
}

func TestRenameCommandEmptySelectionIsNoOp(t *testing.T) {
	selection := NewPathSnapshot(t.TempDir())
	dst := filepath.Join(t.TempDir(), "backup")
	cmd := NewRenameCommand(selection, dst, nil)

	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if cmd.ExecuteState() != StateSuccess {
		t.Errorf("expected empty-selection execute to succeed, got %v", cmd.ExecuteState())
	}
	if fileExists(t, dst) {
		t.Error("empty-selection rename must not create the destination root")
	}
}

func TestRemoveCommandExecuteAndUndo(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "x", "y.txt"), "content")

	selection := selectionFromWalk(t, root)
	cmd := NewRemoveCommand(selection, nil)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	// The root directory still holds the populated .trash staging
	// directory, so the command's final cleanup attempt fails and the
	// state downgrades to PartialSuccess -- this is what keeps Undo able
	// to restore from trash below.
	if cmd.ExecuteState() != StatePartialSuccess {
		t.Fatalf("expected StatePartialSuccess, got %v", cmd.ExecuteState())
	}
	if fileExists(t, filepath.Join(root, "x", "y.txt")) || fileExists(t, filepath.Join(root, "x")) {
		t.Error("expected the original files and directories to be gone after execute")
	}

	cmd.Undo()
	if cmd.UndoState() != StateSuccess {
		t.Fatalf("expected undo success, got %v", cmd.UndoState())
	}
	if !fileExists(t, filepath.Join(root, "x", "y.txt")) {
		t.Error("expected y.txt to be restored from trash")
	}
	if fileExists(t, filepath.Join(root, ".trash")) {
		t.Error("expected trash directory to be cleaned up after undo")
	}
}
