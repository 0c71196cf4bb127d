package infra

import (
	"errors"
	"fmt"
	"os"
)

// WithTempFile creates a private temporary file, hands it to fn and always
// closes and removes it afterwards, including when fn returns an error or
// panics. Cleanup failures go to onCleanupErr (if set) and never replace the
// error returned by fn.
func WithTempFile(dir, pattern string, fn func(f *os.File) error, onCleanupErr func(error)) (err error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	defer func() {
		closeErr := f.Close()
		if closeErr != nil && errors.Is(closeErr, os.ErrClosed) {
			closeErr = nil
		}
		removeErr := os.Remove(f.Name())
		if removeErr != nil && errors.Is(removeErr, os.ErrNotExist) {
			removeErr = nil
		}
		if cleanupErr := errors.Join(closeErr, removeErr); cleanupErr != nil && onCleanupErr != nil {
			onCleanupErr(fmt.Errorf("cleaning up %s: %w", f.Name(), cleanupErr))
		}
	}()

	return fn(f)
}
