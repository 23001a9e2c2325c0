// Package tiles serves map tile archives to HTTP clients with support for
// single byte-range requests, so that map renderers can read small windows of a
// large archive without downloading it whole.
//
// Requests for anything other than a tile archive are resolved to a path under
// the public root and handed to a separate static file handler.
package tiles

// ArchiveExt is the file extension of tile archives. Only resources with this
// extension go through the byte-range pipeline.
const ArchiveExt = ".pmtiles"

// Config describes where content is served from and how responses are shaped.
// A Config is read-only once it has been used to construct a Handler.
type Config struct {
	// Root is the project root directory. All content is served from the
	// public directory beneath it.
	Root string

	// PublicDir is the name of the public directory under Root. Defaults to
	// "public".
	PublicDir string

	// Index is the name of the document under PublicDir served for "/".
	// Defaults to "index.html".
	Index string

	// NoCache adds response headers instructing clients not to cache anything.
	NoCache bool

	// RateLimit caps the throughput of each tile archive response in bytes per
	// second. Zero or negative means unlimited.
	RateLimit int
}

func (c Config) withDefaults() Config {
	if c.Root == "" {
		c.Root = "."
	}
	if c.PublicDir == "" {
		c.PublicDir = "public"
	}
	if c.Index == "" {
		c.Index = "index.html"
	}
	return c
}
