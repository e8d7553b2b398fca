//go:build linux

package native

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// availableProcessors reads the scheduling affinity mask of the calling
// process, which tracks taskset masks and container CPU sets where plain
// CPU counting does not.
func availableProcessors() int {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return runtime.NumCPU()
	}
	if n := set.Count(); n > 0 {
		return n
	}
	return runtime.NumCPU()
}
