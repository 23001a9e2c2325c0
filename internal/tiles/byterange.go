package tiles

import (
	"errors"
	"net/textproto"
	"strconv"
	"strings"
)

// ByteRange is an inclusive interval of bytes within a resource. A ByteRange
// returned by ParseRange always satisfies 0 <= Start <= End <= size-1 for the
// size it was parsed against.
type ByteRange struct {
	Start, End int64
}

// Len returns the number of bytes covered by br.
func (br ByteRange) Len() int64 {
	return br.End - br.Start + 1
}

// ContentRange formats br as the value of a Content-Range header for a resource
// of the given total size.
func (br ByteRange) ContentRange(size int64) string {
	return "bytes " + strconv.FormatInt(br.Start, 10) + "-" +
		strconv.FormatInt(br.End, 10) + "/" + strconv.FormatInt(size, 10)
}

// ParseRange parses the value of a Range header against a resource of the
// given size. It reports false when the header is absent, malformed, or cannot
// describe any byte of the resource, in which case the full resource should be
// served. ParseRange never fails outright.
//
// Only the first range of a multi-range header is considered. Bounds outside of
// the resource are clamped into it rather than rejected.
//
// A range with no start, like "bytes=-500", covers bytes 0 through 500. This
// differs from the usual "last 500 bytes" reading of RFC 9110, and is kept for
// compatibility with existing clients of this server.
func ParseRange(header string, size int64) (ByteRange, bool) {
	const prefix = "bytes="
	if size <= 0 || !strings.HasPrefix(header, prefix) {
		return ByteRange{}, false
	}

	first, _, _ := strings.Cut(header[len(prefix):], ",")
	startPart, endPart, ok := strings.Cut(first, "-")
	if !ok {
		return ByteRange{}, false
	}
	startPart, endPart = textproto.TrimString(startPart), textproto.TrimString(endPart)

	var br ByteRange
	if startPart != "" {
		start, err := parseOffset(startPart)
		if err != nil {
			return ByteRange{}, false
		}
		br.Start = start
	}

	br.End = size - 1
	if endPart != "" {
		end, err := parseOffset(endPart)
		if err != nil {
			return ByteRange{}, false
		}
		br.End = end
	}

	br.Start = clamp(br.Start, 0, size-1)
	br.End = clamp(br.End, br.Start, size-1)
	return br, true
}

// parseOffset parses a decimal byte offset. Offsets too large for an int64
// saturate instead of failing, since they are clamped to the resource anyway.
func parseOffset(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		return n, nil
	}
	return n, err
}

func clamp(x, lo, hi int64) int64 {
	return max(lo, min(x, hi))
}
