//go:build unix

package runner

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// ChildrenCPUTime returns user+system time of all terminated and waited-for children.
func ChildrenCPUTime() (time.Duration, error) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_CHILDREN, &ru); err != nil {
		return 0, fmt.Errorf("getrusage: %w", err)
	}
	return time.Duration(ru.Utime.Nano() + ru.Stime.Nano()), nil
}
