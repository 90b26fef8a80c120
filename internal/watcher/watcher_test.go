package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/superteamvn/stvbot/internal/config"
)

type recordingHandler struct {
	mu      sync.Mutex
	changed []string
	removed []string
}

func (h *recordingHandler) FileChanged(ctx context.Context, path string) {
	h.mu.Lock()
	h.changed = append(h.changed, path)
	h.mu.Unlock()
}

func (h *recordingHandler) FileRemoved(ctx context.Context, path string) {
	h.mu.Lock()
	h.removed = append(h.removed, path)
	h.mu.Unlock()
}

func (h *recordingHandler) counts() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.changed), len(h.removed)
}

func startWatcher(t *testing.T, dir string, h Handler) context.CancelFunc {
	t.Helper()
	cfg := &config.WatchConfig{Directories: []string{dir}, Extensions: []string{".txt"}}
	w := New(cfg, h, WithSettleDelay(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	time.Sleep(100 * time.Millisecond)
	return cancel
}

func TestWatcherPicksUpNewFile(t *testing.T) {
	dir := t.TempDir()
	h := &recordingHandler{}
	cancel := startWatcher(t, dir, h)
	defer cancel()

	path := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if changed, _ := h.counts(); changed >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("file change never reported")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestWatcherIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	h := &recordingHandler{}
	cancel := startWatcher(t, dir, h)
	defer cancel()

	if err := os.WriteFile(filepath.Join(dir, "image.png"), []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)

	if changed, _ := h.counts(); changed != 0 {
		t.Fatalf("changed = %d, want 0 for filtered extension", changed)
	}
}

func TestWatcherReportsRemoval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	h := &recordingHandler{}
	cancel := startWatcher(t, dir, h)
	defer cancel()

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, removed := h.counts(); removed >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("removal never reported")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestWatcherSyncsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "existing.txt"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	h := &recordingHandler{}
	cancel := startWatcher(t, dir, h)
	defer cancel()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if changed, _ := h.counts(); changed >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("existing file never synced")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		path string
		exts []string
		want bool
	}{
		{"/kb/a.txt", []string{".txt"}, true},
		{"/kb/a.TXT", []string{"txt"}, true},
		{"/kb/a.pdf", []string{".txt"}, false},
		{"/kb/a.bin", nil, true},
	}
	for _, tt := range tests {
		w := New(&config.WatchConfig{Extensions: tt.exts}, nil)
		if got := w.matches(tt.path); got != tt.want {
			t.Errorf("matches(%q, %v) = %v, want %v", tt.path, tt.exts, got, tt.want)
		}
	}
}
