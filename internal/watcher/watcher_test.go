package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.yaml")
	if err := os.WriteFile(path, []byte("brands: [samsung]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var calls []string
	w := New(path, func(p string) {
		mu.Lock()
		calls = append(calls, p)
		mu.Unlock()
	}, WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// A burst of writes should collapse into one reload.
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("brands: [samsung, apple]\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(calls)
		mu.Unlock()
		if n >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("onChange never fired")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Let any stray debounce timers fire before counting.
	time.Sleep(200 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 1 {
		t.Errorf("onChange fired %d times, want 1", len(calls))
	}
	if calls[0] != filepath.Clean(path) {
		t.Errorf("onChange path = %q, want %q", calls[0], path)
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.yaml")
	if err := os.WriteFile(path, []byte("brands: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	fired := 0
	w := New(path, func(string) {
		mu.Lock()
		fired++
		mu.Unlock()
	}, WithDebounce(30*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if fired != 0 {
		t.Errorf("onChange fired %d times for a sibling file, want 0", fired)
	}
}

func TestWatcher_StartIdempotentAndStop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.yaml")
	if err := os.WriteFile(path, []byte("brands: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := New(path, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(ctx); err != nil {
		t.Errorf("second Start() error = %v", err)
	}
	w.Stop()
	w.Stop() // must be safe to call twice
}
