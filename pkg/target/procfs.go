package target

import (
	"bytes"
	"fmt"
	"io/ioutil"
)

// Process states as reported in the third field of /proc/<pid>/stat.
const (
	statusSleeping  = 'S'
	statusRunning   = 'R'
	statusTraceStop = 't'
	statusZombie    = 'Z'

	// Kernel 2.6 reported trace stop as T, which on 3.x+ kernels means
	// job control stop instead.
	statusTraceStopT = 'T'
)

// procState returns the run state of pid, or 0 if it cannot be read.
//
// The second field of /proc/pid/stat is the task name in parenthesis
// and may itself contain spaces and parenthesis, so the state field is
// located relative to the last closing parenthesis rather than by
// field splitting.
func procState(pid int) byte {
	dat, err := ioutil.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return 0
	}
	idx := bytes.LastIndexByte(dat, ')')
	if idx < 0 || idx+2 >= len(dat) {
		return 0
	}
	return dat[idx+2]
}
