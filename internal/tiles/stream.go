package tiles

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"golang.org/x/time/rate"
)

// ChunkSize is the size of each read from a backing file, and therefore of
// each write to the client, while streaming a tile archive.
const ChunkSize = 8 * 1024

const archiveContentType = "application/octet-stream"

// errHeadersSent wraps streaming failures that happen after the status line
// and headers have been written, when no error response is possible anymore.
var errHeadersSent = errors.New("response headers already sent")

// Streamer writes the contents of range-enabled resources to HTTP clients.
//
// A Streamer holds no per-request state, and is safe for concurrent use by
// multiple goroutines.
type Streamer struct {
	rateLimit int
}

// NewStreamer creates a Streamer. When rateLimit is positive, every response
// is individually limited to that many bytes per second.
func NewStreamer(rateLimit int) *Streamer {
	return &Streamer{rateLimit: rateLimit}
}

// Head writes the headers that a full GET of res would produce, without any
// body.
func (s *Streamer) Head(w http.ResponseWriter, res Resource) {
	h := w.Header()
	h.Set("Content-Type", archiveContentType)
	h.Set("Content-Length", strconv.FormatInt(res.Size, 10))
	w.WriteHeader(http.StatusOK)
}

// Stream writes res to w. When partial is true, only the bytes covered by br
// are written with a 206 Partial Content status. Otherwise br is ignored and
// the full resource is written with a 200 OK status.
//
// When Stream fails before anything has been written to w, the caller is free
// to send an error response. When it fails afterward, the returned error
// satisfies errors.Is(err, errHeadersSent) and the response is unrecoverable.
func (s *Streamer) Stream(w http.ResponseWriter, res Resource, br ByteRange, partial bool) error {
	if !partial {
		br = ByteRange{Start: 0, End: res.Size - 1}
	}

	f, err := os.Open(res.File)
	if err != nil {
		return fmt.Errorf("opening %s: %w", res.Path, err)
	}
	defer f.Close()

	if br.Start > 0 {
		if _, err := f.Seek(br.Start, io.SeekStart); err != nil {
			return fmt.Errorf("seeking %s to %d: %w", res.Path, br.Start, err)
		}
	}

	h := w.Header()
	h.Set("Content-Type", archiveContentType)
	h.Set("Content-Length", strconv.FormatInt(br.Len(), 10))
	if partial {
		h.Set("Content-Range", br.ContentRange(res.Size))
		w.WriteHeader(http.StatusPartialContent)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	if err := s.copyChunks(w, f, br.Len()); err != nil {
		return fmt.Errorf("%w: streaming %s: %w", errHeadersSent, res.Path, err)
	}
	return nil
}

// copyChunks copies exactly n bytes from r to w, one chunk at a time.
func (s *Streamer) copyChunks(w io.Writer, r io.Reader, n int64) error {
	var limiter *rate.Limiter
	if s.rateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.rateLimit), max(s.rateLimit, ChunkSize))
	}

	buf := make([]byte, ChunkSize)
	for n > 0 {
		chunk := buf[:min(int64(len(buf)), n)]
		read, rerr := r.Read(chunk)
		if read > 0 {
			if limiter != nil {
				// Streaming is never canceled, so neither is waiting on the limiter.
				if err := limiter.WaitN(context.Background(), read); err != nil {
					return err
				}
			}
			if _, err := w.Write(chunk[:read]); err != nil {
				return err
			}
			n -= int64(read)
		}

		switch {
		case n == 0:
			return nil
		case errors.Is(rerr, io.EOF):
			return io.ErrUnexpectedEOF
		case rerr != nil:
			return rerr
		}
	}
	return nil
}
