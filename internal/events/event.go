// Package events defines the closed set of submission events. Each variant
// carries its payload, a validation contract against the current aggregate
// state, and a pure projection producing the next state.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"subline/internal/domain"
)

// Type identifies an event variant.
type Type string

// Data is implemented by every event variant. Validate and Project are the
// two dispatch sites of the closed union: every variant handles both.
type Data interface {
	// Type is the stable storage identifier of the variant.
	Type() Type
	// Name is the imperative form, e.g. "set title".
	Name() string
	// Named is the past-tense form for audit narration, e.g. "title set".
	Named() string
	// Validate checks preconditions against the current state. It returns
	// an *InvalidEvent when the event cannot be applied.
	Validate(e *Event, s *domain.Submission) error
	// Project folds the event into a clone of the current state and
	// returns the new state. It must not fail for an event that passed
	// Validate.
	Project(e *Event, s *domain.Submission) (*domain.Submission, error)
}

// Event is the unit of change for a submission. Events are immutable after
// construction except for the Committed flag and the late-bound
// SubmissionID.
type Event struct {
	// ID is derived deterministically from the event's meaningful fields;
	// see ComputeID.
	ID      string
	Creator domain.Agent
	// Proxy is an agent acting on behalf of the creator, if any.
	Proxy *domain.Agent
	// Client is the client through which the creator acted, if any.
	Client       *domain.Agent
	SubmissionID int64
	Created      time.Time
	// Committed records whether the event has been durably persisted.
	Committed bool
	Data      Data
}

// New constructs an event for the given creator and payload. A zero created
// time means "now".
func New(creator domain.Agent, created time.Time, data Data) *Event {
	if created.IsZero() {
		created = time.Now().UTC()
	}
	e := &Event{Creator: creator, Created: created.UTC(), Data: data}
	e.ID = e.ComputeID()
	return e
}

// ComputeID derives the event identifier from the creation timestamp, the
// variant type, the creator identity, and the payload. Two events with
// identical meaningful content are indistinguishable and deduplicate under
// set semantics.
func (e *Event) ComputeID() string {
	payload, _ := json.Marshal(e.Data)
	seed := e.Created.UTC().Format(time.RFC3339Nano) + ":" +
		string(e.Data.Type()) + ":" +
		e.Creator.Identifier() + ":" + string(payload)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}

// Validate checks the event against the current state, including the
// existence preconditions shared by all variants: only a creation event may
// apply to a nonexistent submission, and a creation event may not apply to
// an existing one.
func (e *Event) Validate(s *domain.Submission) error {
	_, isCreation := e.Data.(*CreateSubmission)
	if s == nil && !isCreation {
		return Invalid(e, "submission does not exist")
	}
	if s != nil && isCreation {
		return Invalid(e, "submission already exists")
	}
	return e.Data.Validate(e, s)
}

// Apply validates the event and projects it onto a clone of the current
// state, returning the new state. The prior state is never aliased.
func (e *Event) Apply(s *domain.Submission) (*domain.Submission, error) {
	if err := e.Validate(s); err != nil {
		return nil, err
	}
	next, err := e.Data.Project(e, s.Clone())
	if err != nil {
		return nil, err
	}
	next.Updated = e.Created
	if next.SubmissionID == 0 && e.SubmissionID != 0 {
		next.SubmissionID = e.SubmissionID
	}
	return next, nil
}

// InvalidEvent reports that an event failed a validation precondition. It
// carries the offending event and a human-readable reason.
type InvalidEvent struct {
	Event  *Event
	Reason string
}

func (ie *InvalidEvent) Error() string {
	return fmt.Sprintf("cannot %s: %s", ie.Event.Data.Name(), ie.Reason)
}

// Invalid builds an *InvalidEvent with a formatted reason.
func Invalid(e *Event, format string, args ...any) *InvalidEvent {
	return &InvalidEvent{Event: e, Reason: fmt.Sprintf(format, args...)}
}

// ByTime orders events by creation timestamp, ties broken by identifier
// for determinism.
func ByTime(a, b *Event) bool {
	if a.Created.Equal(b.Created) {
		return a.ID < b.ID
	}
	return a.Created.Before(b.Created)
}
