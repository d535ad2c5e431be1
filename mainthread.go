package sdl3

import (
	"bytes"
	"runtime"
	"strconv"
)

// goroutineID returns the numeric id of the calling goroutine, parsed from
// the first line of its stack header. Used only to enforce the main-thread
// contract; never for scheduling.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// Header shape: "goroutine 123 [running]:"
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return -1
	}
	id, err := strconv.ParseInt(string(fields[1]), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
