package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTestYAML(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestWatchDeliversUpdate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeTestYAML(t, path, "world:\n  size: 500\n")

	w, err := Watch(path)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	writeTestYAML(t, path, "world:\n  size: 750\n")

	select {
	case cfg := <-w.Updates:
		if cfg.World.Size != 750 {
			t.Errorf("world size = %f, want 750", cfg.World.Size)
		}
	case err := <-w.Errors:
		t.Fatalf("unexpected watch error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("no update delivered")
	}
}

func TestWatchCloseWhileEventsInFlight(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeTestYAML(t, path, "world:\n  size: 500\n")

	w, err := Watch(path)
	if err != nil {
		t.Fatal(err)
	}

	// Keep events flowing while the watcher shuts down.
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
				writeTestYAML(t, path, "world:\n  size: 600\n")
			}
		}
	}()

	time.Sleep(10 * time.Millisecond)
	if err := w.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
	close(stop)
	<-done

	// The run loop closes both channels on exit; draining them must
	// terminate rather than block or panic.
	for range w.Updates {
	}
	for range w.Errors {
	}

	if err := w.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}
