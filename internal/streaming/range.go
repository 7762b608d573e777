package streaming

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidRange indicates a Range header that cannot be satisfied.
var ErrInvalidRange = errors.New("invalid byte range")

// ByteRange is a single resolved byte span within a file of known size.
// Both bounds are inclusive.
type ByteRange struct {
	Start int64
	End   int64
}

// Length returns the number of bytes the range covers.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// ParseRange resolves a Range request header against a file size.
// Supported form is bytes=<start>-<end> where either bound may be empty:
// a missing start defaults to 0 and a missing end to size-1. Returns
// (nil, nil) when the header is absent or carries multiple ranges, which
// callers treat as a full-file request. A range that does not overlap the
// file returns ErrInvalidRange.
func ParseRange(header string, size int64) (*ByteRange, error) {
	if header == "" {
		return nil, nil
	}

	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil, ErrInvalidRange
	}

	// Multi-range requests fall back to a full response.
	if strings.Contains(spec, ",") {
		return nil, nil
	}

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return nil, ErrInvalidRange
	}
	startStr = strings.TrimSpace(startStr)
	endStr = strings.TrimSpace(endStr)

	r := ByteRange{Start: 0, End: size - 1}

	if startStr != "" {
		start, err := strconv.ParseInt(startStr, 10, 64)
		if err != nil || start < 0 {
			return nil, ErrInvalidRange
		}
		r.Start = start
	}

	if endStr != "" {
		end, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || end < 0 {
			return nil, ErrInvalidRange
		}
		if end < size {
			r.End = end
		}
	}

	if r.Start >= size || r.Start > r.End {
		return nil, ErrInvalidRange
	}

	return &r, nil
}
