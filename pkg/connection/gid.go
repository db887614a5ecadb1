package connection

import (
	"runtime"
	"strconv"
	"strings"
)

// goroutineID returns the numeric ID of the calling goroutine, parsed
// from the first line of its stack trace ("goroutine 12 [running]:").
// This is a diagnostics-only affinity check; nothing behavioral keys off
// the value itself.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	s := strings.TrimPrefix(string(buf[:n]), "goroutine ")
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
