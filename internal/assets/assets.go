// Package assets serves ordinary static files, such as the HTML, JavaScript,
// and style documents of a map client, from a file system.
package assets

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/ahamlinman/tilehost/internal/log"
)

const indexPage = "index.html"

// errMissingSlash is returned by open for a directory named without a trailing
// slash, which has to be redirected so that relative links in its index page
// resolve against the directory.
var errMissingSlash = errors.New("directory path without trailing slash")

// Handler serves files from an fs.FS to HTTP clients, with two differences
// from http.FileServer.
//
// First, a request for a directory is served the index page inside of that
// directory, and directory listings are never served.
//
// Second, request paths are used exactly as given, so a caller can rewrite
// them to point anywhere inside of the file system before delegating here.
type Handler struct {
	fsys fs.FS
}

// NewHandler creates a Handler serving from fsys.
func NewHandler(fsys fs.FS) *Handler {
	return &Handler{fsys: fsys}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f, info, err := h.open(r.URL.Path)
	switch {
	case errors.Is(err, errMissingSlash):
		log.Rprintf(r, "Redirecting directory")
		localRedirect(w, r, path.Base(r.URL.Path)+"/")
		return
	case errors.Is(err, fs.ErrNotExist):
		log.Rprintf(r, "Not found")
		http.Error(w, "404 Not Found", http.StatusNotFound)
		return
	case errors.Is(err, fs.ErrPermission):
		log.Rprintf(r, "Forbidden: %v", err)
		http.Error(w, "403 Forbidden", http.StatusForbidden)
		return
	case err != nil:
		log.Rprintf(r, "Failed to open: %v", err)
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	content, err := readSeeker(f)
	if err != nil {
		log.Rprintf(r, "Failed to read: %v", err)
		http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
		return
	}

	// http.ServeContent picks the Content-Type from the extension of the name,
	// and falls back to sniffing the content.
	http.ServeContent(w, r, info.Name(), info.ModTime(), content)
}

// open opens the file named by urlPath, or the index page within it if it names
// a directory. Directories without an index page are reported as not existing.
func (h *Handler) open(urlPath string) (fs.File, fs.FileInfo, error) {
	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" {
		name = "."
	}

	f, info, err := h.openFile(name)
	if err != nil {
		return nil, nil, err
	}
	if !info.IsDir() {
		return f, info, nil
	}

	f.Close()
	if name != "." && !strings.HasSuffix(urlPath, "/") {
		return nil, nil, errMissingSlash
	}

	f, info, err = h.openFile(path.Join(name, indexPage))
	if err != nil {
		return nil, nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, fs.ErrNotExist
	}
	return f, info, nil
}

func (h *Handler) openFile(name string) (fs.File, fs.FileInfo, error) {
	f, err := h.fsys.Open(name)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, info, nil
}

// localRedirect redirects to target relative to the current request path. The
// path seen here may have been rewritten by the caller, so a relative Location
// keeps the client on the path it originally asked for.
func localRedirect(w http.ResponseWriter, r *http.Request, target string) {
	if q := r.URL.RawQuery; q != "" {
		target += "?" + q
	}
	w.Header().Set("Location", target)
	w.WriteHeader(http.StatusMovedPermanently)
}

// readSeeker returns f itself when it supports seeking, as files from os.DirFS
// do. Other files, such as those inside of a ZIP archive, are read into memory.
func readSeeker(f fs.File) (io.ReadSeeker, error) {
	if rs, ok := f.(io.ReadSeeker); ok {
		return rs, nil
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}
