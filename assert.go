package cbuild

import "fmt"

// contractErr reports a contract violation: it logs a warning through the
// package logger, panics under the cbuilddebug build tag, and otherwise
// returns an error wrapping sentinel for the caller to handle.
//
// The violated object is never modified; callers return immediately with
// the error.
func contractErr(sentinel error, format string, args ...any) error {
	err := fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))

	warnf("contract violation: %v", err)

	if debugAsserts {
		panic(err)
	}

	return err
}
