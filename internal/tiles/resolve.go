package tiles

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("resource not found")

// Resource is a single piece of content addressed by a request.
type Resource struct {
	// Path is the logical, slash-separated path of the resource, always rooted
	// under the public directory (e.g. "/public/tiles/world.pmtiles").
	Path string
	// File is the path of the backing file on the local filesystem.
	File string
	// Size is the length of the backing file in bytes. It is only populated
	// for range-enabled resources.
	Size int64
	// RangeEnabled is set for tile archives, which are served through the
	// byte-range pipeline rather than the static file handler.
	RangeEnabled bool
}

// Resolver maps request paths to resources under a fixed public root.
type Resolver struct {
	root   string
	prefix string // e.g. "/public/"
	index  string // e.g. "/public/index.html"
}

// NewResolver creates a Resolver for the public root described by cfg.
func NewResolver(cfg Config) *Resolver {
	cfg = cfg.withDefaults()
	public := path.Join("/", cfg.PublicDir)
	return &Resolver{
		root:   cfg.Root,
		prefix: public + "/",
		index:  path.Join(public, cfg.Index),
	}
}

// Resolve maps urlPath to a Resource. The root path resolves to the index
// document, and any path outside of the public root is rewritten to be beneath
// it.
//
// Only range-enabled resources are checked for existence. Resolve returns an
// error wrapping ErrNotFound when such a resource is missing or is a directory.
func (r *Resolver) Resolve(urlPath string) (Resource, error) {
	res := Resource{Path: r.logicalPath(urlPath)}
	res.File = filepath.Join(r.root, filepath.FromSlash(res.Path))
	res.RangeEnabled = path.Ext(res.Path) == ArchiveExt
	if !res.RangeEnabled {
		return res, nil
	}

	info, err := os.Stat(res.File)
	if err != nil {
		return Resource{}, fmt.Errorf("%w: %s: %v", ErrNotFound, res.Path, err)
	}
	if info.IsDir() {
		return Resource{}, fmt.Errorf("%w: %s is a directory", ErrNotFound, res.Path)
	}

	res.Size = info.Size()
	return res, nil
}

func (r *Resolver) logicalPath(urlPath string) string {
	// Cleaning a rooted path drops any ".." components that would climb above
	// the root, so the rewritten path can never leave the public directory.
	p := path.Clean("/" + urlPath)
	if strings.HasSuffix(urlPath, "/") && p != "/" {
		p += "/"
	}

	switch {
	case p == "/":
		return r.index
	case strings.HasPrefix(p, r.prefix):
		return p
	default:
		return strings.TrimSuffix(r.prefix, "/") + p
	}
}
