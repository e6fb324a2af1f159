package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

// collector records callback invocations for assertions.
type collector struct {
	mu      sync.Mutex
	files   []string
	removed []string
}

func (c *collector) onFile(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = append(c.files, path)
}

func (c *collector) onRemove(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removed = append(c.removed, path)
}

func (c *collector) waitForFile(t *testing.T, path string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		for _, f := range c.files {
			if f == path {
				c.mu.Unlock()
				return
			}
		}
		c.mu.Unlock()
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for file callback: %s", path)
}

func TestWatcher_newFile(t *testing.T) {
	dir := t.TempDir()
	c := &collector{}
	w := New([]string{dir}, []string{".pdf", ".txt"}, false, c.onFile, c.onRemove,
		zap.NewNop(), WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "handout.txt")
	if err := os.WriteFile(path, []byte("Keep the incision dry."), 0644); err != nil {
		t.Fatal(err)
	}
	c.waitForFile(t, path, 3*time.Second)
}

func TestWatcher_extensionFilter(t *testing.T) {
	dir := t.TempDir()
	c := &collector{}
	w := New([]string{dir}, []string{".pdf"}, false, c.onFile, c.onRemove,
		zap.NewNop(), WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	ignored := filepath.Join(dir, "notes.xlsx")
	if err := os.WriteFile(ignored, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.files) != 0 {
		t.Errorf("filtered extension triggered callback: %v", c.files)
	}
}

func TestWatcher_existingFilesScanned(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "already-there.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0644); err != nil {
		t.Fatal(err)
	}

	c := &collector{}
	w := New([]string{dir}, []string{".pdf"}, false, c.onFile, c.onRemove, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	// Startup scan runs synchronously in Start
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.files) != 1 || c.files[0] != path {
		t.Errorf("existing file not scanned: %v", c.files)
	}
}

func TestWatcher_remove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doomed.txt")
	if err := os.WriteFile(path, []byte("y"), 0644); err != nil {
		t.Fatal(err)
	}

	c := &collector{}
	w := New([]string{dir}, nil, false, c.onFile, c.onRemove,
		zap.NewNop(), WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		n := len(c.removed)
		c.mu.Unlock()
		if n > 0 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("timed out waiting for remove callback")
}

func TestWatcher_recursiveNewDirectory(t *testing.T) {
	dir := t.TempDir()
	c := &collector{}
	w := New([]string{dir}, []string{".txt"}, true, c.onFile, c.onRemove,
		zap.NewNop(), WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	sub := filepath.Join(dir, "batch-2026-08")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher a moment to register the new directory
	time.Sleep(200 * time.Millisecond)

	path := filepath.Join(sub, "dropped.txt")
	if err := os.WriteFile(path, []byte("Change the dressing daily."), 0644); err != nil {
		t.Fatal(err)
	}
	c.waitForFile(t, path, 3*time.Second)
}

func TestWatcher_stopIdempotent(t *testing.T) {
	w := New([]string{t.TempDir()}, nil, false, nil, nil, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	w.Stop()
	w.Stop()
}
