package replay

import (
	"errors"
	"fmt"
)

// ErrSessionBusy is returned when ProcessLog is called while a replay is running
var ErrSessionBusy = errors.New("replay already in progress")

// FaultError reports a persistence failure while finalizing a match.
// The replay stops because stored state no longer matches replay progress.
type FaultError struct {
	MatchID string
	Err     error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("failed to persist match %s: %v", e.MatchID, e.Err)
}

func (e *FaultError) Unwrap() error {
	return e.Err
}
