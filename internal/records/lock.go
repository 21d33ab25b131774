package records

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds the output lock.
var ErrLocked = errors.New("output is locked by another run")

// LockSuffix is appended to the output path to name its lock file.
const LockSuffix = ".lock"

// LockOutput takes an exclusive, non-blocking lock on outputPath so that only
// one run appends to it at a time. Call the returned function to release it.
func LockOutput(outputPath string) (func() error, error) {
	lock := flock.New(outputPath + LockSuffix)

	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, outputPath)
	}
	return lock.Unlock, nil
}
