package server

import (
	"encoding/json"
	"time"

	"subline/internal/domain"
	"subline/internal/events"
)

// EventInput is the wire form of one event payload.
type EventInput struct {
	Type string `json:"type" example:"metadata.set_title" doc:"Event variant type"`
	// Payload holds the variant fields; its schema depends on Type.
	Payload json.RawMessage `json:"payload,omitempty" doc:"Variant payload"`
	// Created is optional; omitted means now.
	Created time.Time `json:"created,omitempty"`
}

// decode builds a domain event from the wire form.
func (in EventInput) decode(creator domain.Agent, proxy *domain.Agent) (*events.Event, error) {
	data, err := events.DecodePayload(events.Type(in.Type), in.Payload)
	if err != nil {
		return nil, err
	}
	e := events.New(creator, in.Created, data)
	e.Proxy = proxy
	return e, nil
}

// EventOutput is the wire form of one committed event.
type EventOutput struct {
	ID           string          `json:"event_id"`
	SubmissionID int64           `json:"submission_id"`
	Type         string          `json:"type"`
	Created      time.Time       `json:"created"`
	Creator      domain.Agent    `json:"creator"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

func toEventOutput(e *events.Event) EventOutput {
	payload, _ := events.EncodePayload(e.Data)
	return EventOutput{
		ID:           e.ID,
		SubmissionID: e.SubmissionID,
		Type:         string(e.Data.Type()),
		Created:      e.Created,
		Creator:      e.Creator,
		Payload:      payload,
	}
}

// SubmissionOutput is the wire form of submission state.
type SubmissionOutput struct {
	Submission *domain.Submission   `json:"submission"`
	Events     []EventOutput        `json:"events,omitempty"`
	Compiles   []domain.Compilation `json:"compilations,omitempty"`
}

func toSubmissionOutput(s *domain.Submission, evs []*events.Event) SubmissionOutput {
	out := SubmissionOutput{Submission: s}
	for _, e := range evs {
		out.Events = append(out.Events, toEventOutput(e))
	}
	if len(s.Processes) > 0 {
		out.Compiles = s.Compilations()
	}
	return out
}

// SubmissionSummary is one row of the submission listing.
type SubmissionSummary struct {
	SubmissionID int64  `json:"submission_id"`
	Status       string `json:"status"`
	Title        string `json:"title,omitempty"`
	OwnerID      string `json:"owner_id"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}
