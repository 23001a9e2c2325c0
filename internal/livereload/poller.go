// Package livereload notifies map clients when tile archives under the public
// root are added, changed, or removed, so that a page under development can
// reload its sources without a manual refresh.
package livereload

import (
	"context"
	"errors"
	"io/fs"
	"path"
	"slices"
	"sync"
	"time"

	"github.com/ahamlinman/tilehost/internal/log"
)

// Status describes the most recent set of changes seen by a Poller.
type Status struct {
	// Generation increases by one every time a change is detected. It is zero
	// before any change has been seen.
	Generation uint64
	// Changed lists the logical paths of the archives that changed in this
	// generation, in lexical order.
	Changed []string
}

type fingerprint struct {
	size    int64
	modTime time.Time
}

// Poller periodically scans a file system for tile archives and publishes a
// new Status whenever any of them change.
type Poller struct {
	fsys   fs.FS
	prefix string
	ext    string

	mu     sync.Mutex
	prints map[string]fingerprint
	status Status
	subs   map[*Subscription]struct{}
}

// NewPoller creates a Poller for the archives with extension ext in fsys. The
// logical paths reported in a Status are the archive paths within fsys joined
// to prefix. The initial scan is performed immediately, and does not count as a
// change.
func NewPoller(fsys fs.FS, prefix, ext string) *Poller {
	p := &Poller{
		fsys:   fsys,
		prefix: path.Join("/", prefix),
		ext:    ext,
	}
	prints, err := p.scan()
	if err != nil {
		log.Tprintf(p, "Initial scan failed: %v", err)
	}
	p.prints = prints
	return p
}

// ErrInvalidInterval is returned by Run when the polling interval is not
// positive.
var ErrInvalidInterval = errors.New("polling interval must be positive")

// Run polls for changes every interval until ctx is canceled. It returns
// ErrInvalidInterval immediately when interval is not positive.
func (p *Poller) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.Poll()
		}
	}
}

// Poll scans for changes once, and publishes a new Status to all subscribers if
// any are found.
func (p *Poller) Poll() {
	prints, err := p.scan()
	if err != nil {
		log.Tprintf(p, "Scan failed: %v", err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	changed := diff(p.prints, prints)
	p.prints = prints
	if len(changed) == 0 {
		return
	}

	p.status = Status{Generation: p.status.Generation + 1, Changed: changed}
	log.Tprintf(p, "Generation %d: %v", p.status.Generation, changed)
	for sub := range p.subs {
		sub.update(p.status)
	}
}

// Status returns the most recently published Status.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Poller) scan() (map[string]fingerprint, error) {
	prints := make(map[string]fingerprint)
	err := fs.WalkDir(p.fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(name) != p.ext {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			// The archive was removed between listing and stat.
			return nil
		}
		prints[path.Join(p.prefix, name)] = fingerprint{info.Size(), info.ModTime()}
		return nil
	})
	return prints, err
}

func diff(prev, next map[string]fingerprint) []string {
	var changed []string
	for name, fp := range next {
		if old, ok := prev[name]; !ok || old.size != fp.size || !old.modTime.Equal(fp.modTime) {
			changed = append(changed, name)
		}
	}
	for name := range prev {
		if _, ok := next[name]; !ok {
			changed = append(changed, name)
		}
	}
	slices.Sort(changed)
	return changed
}
