package engine

import (
	"errors"
	"fmt"

	"subline/internal/events"
)

// ErrNoSuchSubmission is returned when the referenced submission has no
// events on record.
var ErrNoSuchSubmission = errors.New("no such submission")

// SaveError reports a persistence failure. The attempted events were not
// committed; the stored state is unchanged.
type SaveError struct {
	Message string
	Err     error
}

func (e *SaveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("save failed: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("save failed: %s", e.Message)
}

func (e *SaveError) Unwrap() error { return e.Err }

// InvalidStack reports that a consequent event emitted by a rule failed
// validation. User events are allowed to fail; rule output is not, so this
// is a defect in the rule, never a caller error.
type InvalidStack struct {
	Invalid *events.InvalidEvent
}

func (e *InvalidStack) Error() string {
	return fmt.Sprintf("consequent event failed validation: %v", e.Invalid)
}

func (e *InvalidStack) Unwrap() error { return e.Invalid }
