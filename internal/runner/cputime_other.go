//go:build !unix

package runner

import (
	"errors"
	"time"
)

// ChildrenCPUTime is unavailable without getrusage.
func ChildrenCPUTime() (time.Duration, error) {
	return 0, errors.New("child CPU accounting is not supported on this platform")
}
