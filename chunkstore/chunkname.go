package chunkstore

import (
	"fmt"
	"regexp"
	"strconv"
)

var chunkNamePattern = regexp.MustCompile(`^([0-9]+)-([0-9]+)$`)

// FormatChunkName renders the byte range [start, end) as a chunk filename.
// Offsets are zero padded to the decimal width of the total file size so the
// server can sort chunk names lexicographically.
func FormatChunkName(start, end, total int64) string {
	width := len(strconv.FormatInt(total, 10))
	return fmt.Sprintf("%0*d-%0*d", width, start, width, end)
}

// ParseChunkName reports the byte range of a chunk filename, ok is false for
// anything that is not a chunk name.
func ParseChunkName(name string) (start int64, end int64, ok bool) {
	m := chunkNamePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, 0, false
	}
	start, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	end, err = strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return start, end, true
}
