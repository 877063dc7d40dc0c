package events

import (
	"subline/internal/domain"
)

// TypeAddProcessStatus identifies process status observations.
const TypeAddProcessStatus Type = "process.add_status"

// AddProcessStatus appends one observation of an external process to the
// submission's process log. The log is append-only; compilation views are
// derived from it, never stored.
type AddProcessStatus struct {
	Process    domain.Process      `json:"process"`
	Status     domain.ProcessState `json:"status"`
	Identifier string              `json:"identifier"`
	Service    string              `json:"service,omitempty"`
	Version    string              `json:"version,omitempty"`
	Reason     string              `json:"reason,omitempty"`
}

func (AddProcessStatus) Type() Type    { return TypeAddProcessStatus }
func (AddProcessStatus) Name() string  { return "add process status" }
func (AddProcessStatus) Named() string { return "process status added" }

func (d AddProcessStatus) Validate(e *Event, s *domain.Submission) error {
	switch d.Process {
	case domain.ProcessCompilation, domain.ProcessPlainTextExtraction, domain.ProcessClassification:
	default:
		return Invalid(e, "unknown process: %s", d.Process)
	}
	switch d.Status {
	case domain.ProcessRequested, domain.ProcessSucceeded, domain.ProcessFailed:
	default:
		return Invalid(e, "unknown process status: %s", d.Status)
	}
	if d.Identifier == "" {
		return Invalid(e, "missing process identifier")
	}
	if d.Process == domain.ProcessCompilation {
		if _, _, _, err := domain.SplitProcessIdentifier(d.Identifier); err != nil {
			return Invalid(e, "malformed compilation identifier: %s", d.Identifier)
		}
	}
	return nil
}

func (d AddProcessStatus) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	s.Processes = append(s.Processes, domain.ProcessStatus{
		Creator:    e.Creator,
		Created:    e.Created,
		Process:    d.Process,
		Status:     d.Status,
		Identifier: d.Identifier,
		Service:    d.Service,
		Version:    d.Version,
		Reason:     d.Reason,
	})
	return s, nil
}
