package tiles

import (
	"errors"
	"net/http"

	"github.com/ahamlinman/tilehost/internal/log"
)

// Handler serves tile archives and delegates all other content to a static
// file handler.
//
// GET requests for tile archives honor a single-range Range header. HEAD
// requests for tile archives always describe the full archive, even when a
// Range header is present. OPTIONS requests for any path receive an empty
// response suitable for CORS preflight.
type Handler struct {
	resolver *Resolver
	streamer *Streamer
	static   http.Handler
	noCache  bool
	methods  map[string]http.HandlerFunc
}

// NewHandler creates a Handler serving content as described by cfg. Requests
// that do not address a tile archive are passed to static, with their URL path
// rewritten to the logical path of the resolved resource.
func NewHandler(cfg Config, static http.Handler) *Handler {
	h := &Handler{
		resolver: NewResolver(cfg),
		streamer: NewStreamer(cfg.RateLimit),
		static:   static,
		noCache:  cfg.NoCache,
	}
	h.methods = map[string]http.HandlerFunc{
		http.MethodGet:     h.handleGet,
		http.MethodHead:    h.handleHead,
		http.MethodOptions: h.handleOptions,
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	SetPolicyHeaders(w.Header(), h.noCache)

	handle, ok := h.methods[r.Method]
	if !ok {
		w.Header().Set("Allow", allowedMethods)
		http.Error(w, "405 Method Not Allowed", http.StatusMethodNotAllowed)
		log.Rprintf(r, "Method not allowed")
		return
	}
	handle(w, r)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resolve(w, r)
	if !ok {
		return
	}
	if !res.RangeEnabled {
		h.serveStatic(w, r, res)
		return
	}
	h.serveArchive(w, r, res)
}

func (h *Handler) serveArchive(w http.ResponseWriter, r *http.Request, res Resource) {
	br, partial := ParseRange(r.Header.Get("Range"), res.Size)
	err := h.streamer.Stream(w, res, br, partial)
	switch {
	case errors.Is(err, errHeadersSent):
		log.Rprintf(r, "Aborting response: %v", err)
		panic(http.ErrAbortHandler)
	case err != nil:
		log.Rprintf(r, "Failed to serve archive: %v", err)
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
	case partial:
		log.Rprintf(r, "Served %s (%d bytes of %d)", br.ContentRange(res.Size), br.Len(), res.Size)
	default:
		log.Rprintf(r, "Served full archive (%d bytes)", res.Size)
	}
}

func (h *Handler) handleHead(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resolve(w, r)
	if !ok {
		return
	}
	if !res.RangeEnabled {
		h.serveStatic(w, r, res)
		return
	}

	// Range is deliberately not consulted here; HEAD always describes the full
	// archive.
	h.streamer.Head(w, res)
}

func (h *Handler) handleOptions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Length", "0")
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) (Resource, bool) {
	res, err := h.resolver.Resolve(r.URL.Path)
	switch {
	case errors.Is(err, ErrNotFound):
		log.Rprintf(r, "Not found: %v", err)
		http.Error(w, "404 Not Found", http.StatusNotFound)
		return Resource{}, false
	case err != nil:
		log.Rprintf(r, "Failed to resolve: %v", err)
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
		return Resource{}, false
	}
	return res, true
}

func (h *Handler) serveStatic(w http.ResponseWriter, r *http.Request, res Resource) {
	r2 := r.Clone(r.Context())
	r2.URL.Path = res.Path
	r2.URL.RawPath = ""
	h.static.ServeHTTP(w, r2)
}
