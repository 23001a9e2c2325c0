package livereload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const timeout = 2 * time.Second

func TestPoller(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "world.pmtiles"), "v1")
	writeFile(t, filepath.Join(dir, "index.html"), "<h1>map</h1>")

	p := NewPoller(os.DirFS(dir), "public", ".pmtiles")
	assertStatus(t, p.Status(), Status{})

	// Changes to anything other than an archive are ignored.
	writeFile(t, filepath.Join(dir, "index.html"), "<h1>new map</h1>")
	p.Poll()
	assertStatus(t, p.Status(), Status{})

	writeFile(t, filepath.Join(dir, "tiles", "roads.pmtiles"), "roads")
	p.Poll()
	assertStatus(t, p.Status(), Status{
		Generation: 1,
		Changed:    []string{"/public/tiles/roads.pmtiles"},
	})

	// Polling without changes publishes nothing new.
	p.Poll()
	assertStatus(t, p.Status(), Status{
		Generation: 1,
		Changed:    []string{"/public/tiles/roads.pmtiles"},
	})

	writeFile(t, filepath.Join(dir, "world.pmtiles"), "version two")
	if err := os.Remove(filepath.Join(dir, "tiles", "roads.pmtiles")); err != nil {
		t.Fatal(err)
	}
	p.Poll()
	assertStatus(t, p.Status(), Status{
		Generation: 2,
		Changed:    []string{"/public/tiles/roads.pmtiles", "/public/world.pmtiles"},
	})
}

func TestSubscription(t *testing.T) {
	dir := t.TempDir()
	p := NewPoller(os.DirFS(dir), "public", ".pmtiles")

	sub := p.Subscribe()
	assertNextReceive(t, sub.C(), Status{})

	writeFile(t, filepath.Join(dir, "a.pmtiles"), "a")
	p.Poll()
	writeFile(t, filepath.Join(dir, "b.pmtiles"), "b")
	p.Poll()

	// The subscriber fell behind, so it only sees the latest status.
	assertNextReceive(t, sub.C(), Status{Generation: 2, Changed: []string{"/public/b.pmtiles"}})
	assertBlocked(t, sub.C())

	sub.Cancel()
	sub.Cancel()
	writeFile(t, filepath.Join(dir, "c.pmtiles"), "c")
	p.Poll()
	assertBlocked(t, sub.C())
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	p := NewPoller(os.DirFS(dir), "public", ".pmtiles")

	for _, interval := range []time.Duration{0, -time.Second} {
		if err := p.Run(context.Background(), interval); !errors.Is(err, ErrInvalidInterval) {
			t.Errorf("Run with interval %v: got %v, want %v", interval, err, ErrInvalidInterval)
		}
	}

	sub := p.Subscribe()
	defer sub.Cancel()
	assertNextReceive(t, sub.C(), Status{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, 10*time.Millisecond) }()

	writeFile(t, filepath.Join(dir, "world.pmtiles"), "tiles")
	assertNextReceive(t, sub.C(), Status{Generation: 1, Changed: []string{"/public/world.pmtiles"}})

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v after cancellation, want nil", err)
		}
	case <-time.After(timeout):
		t.Fatalf("Run did not return within %v of cancellation", timeout)
	}
}

func writeFile(t *testing.T, name, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(name, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func assertStatus(t *testing.T, got, want Status) {
	t.Helper()
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("wrong status (-want +got)\n%s", diff)
	}
}

func assertNextReceive(t *testing.T, ch <-chan Status, want Status) {
	t.Helper()

	select {
	case got := <-ch:
		assertStatus(t, got, want)
	case <-time.After(timeout):
		t.Fatalf("reached %v timeout before subscriber was notified", timeout)
	}
}

func assertBlocked(t *testing.T, ch <-chan Status) {
	t.Helper()

	select {
	case got := <-ch:
		t.Fatalf("unexpected status %v", got)
	default:
	}
}
