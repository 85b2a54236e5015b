package policy

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherFileChange(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "rules.yaml")
	changeChan := make(chan string, 4)

	watcher, err := newFileWatcher(target, func(path string) {
		changeChan <- path
	}, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer watcher.Close()

	if err := os.WriteFile(target, []byte("repeat_threshold: 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case path := <-changeChan:
		if path != watcher.path {
			t.Errorf("expected change for %s, got %s", watcher.path, path)
		}
	case <-time.After(2 * time.Second):
		t.Error("timeout waiting for file change detection")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	changeChan := make(chan string, 1)

	watcher, err := newFileWatcher(filepath.Join(dir, "rules.yaml"), func(path string) {
		changeChan <- path
	}, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer watcher.Close()

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case path := <-changeChan:
		t.Errorf("unexpected change detection for %s", path)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestEngineHotReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("repeat_threshold: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	engine, err := NewEngine(&fakeCounter{}, path)
	if err != nil {
		t.Fatalf("create engine: %v", err)
	}
	defer engine.Close()

	if err := os.WriteFile(path, []byte("repeat_threshold: 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if engine.Rules().RepeatThreshold == 7 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Errorf("rules not reloaded, threshold still %d", engine.Rules().RepeatThreshold)
}
