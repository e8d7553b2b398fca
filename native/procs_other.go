//go:build !linux

package native

import "runtime"

func availableProcessors() int {
	return runtime.NumCPU()
}
