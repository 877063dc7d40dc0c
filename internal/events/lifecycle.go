package events

import (
	"subline/internal/domain"
)

// Variant type identifiers for lifecycle events.
const (
	TypeCreateSubmission   Type = "submission.create"
	TypeRemoveSubmission   Type = "submission.remove"
	TypeConfirmContact     Type = "submission.confirm_contact"
	TypeConfirmAuthorship  Type = "submission.confirm_authorship"
	TypeConfirmPolicy      Type = "submission.confirm_policy"
	TypeFinalizeSubmission Type = "submission.finalize"
	TypeUnFinalize         Type = "submission.unfinalize"
	TypePublish            Type = "submission.publish"
)

// CreateSubmission starts a new submission owned by the event creator.
type CreateSubmission struct{}

func (CreateSubmission) Type() Type    { return TypeCreateSubmission }
func (CreateSubmission) Name() string  { return "create submission" }
func (CreateSubmission) Named() string { return "submission created" }

func (CreateSubmission) Validate(e *Event, s *domain.Submission) error {
	// Existence preconditions are enforced in Event.Validate.
	return nil
}

func (CreateSubmission) Project(e *Event, _ *domain.Submission) (*domain.Submission, error) {
	sub := domain.NewSubmission(e.Creator, e.Created)
	sub.Proxy = e.Proxy
	sub.Client = e.Client
	return sub, nil
}

// RemoveSubmission removes a submission from the workflow. Deletion is a
// status value; the event history remains.
type RemoveSubmission struct {
	Reason string `json:"reason,omitempty"`
}

func (RemoveSubmission) Type() Type    { return TypeRemoveSubmission }
func (RemoveSubmission) Name() string  { return "remove submission" }
func (RemoveSubmission) Named() string { return "submission removed" }

func (RemoveSubmission) Validate(e *Event, s *domain.Submission) error {
	if s.Published() {
		return Invalid(e, "cannot remove a published submission")
	}
	return nil
}

func (RemoveSubmission) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	s.Status = domain.StatusDeleted
	return s, nil
}

// ConfirmContactInformation records that the submitter verified their
// contact information.
type ConfirmContactInformation struct{}

func (ConfirmContactInformation) Type() Type    { return TypeConfirmContact }
func (ConfirmContactInformation) Name() string  { return "confirm contact information" }
func (ConfirmContactInformation) Named() string { return "contact information confirmed" }

func (ConfirmContactInformation) Validate(e *Event, s *domain.Submission) error {
	return submissionNotFinalized(e, s)
}

func (ConfirmContactInformation) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	s.ContactVerified = true
	return s, nil
}

// ConfirmAuthorship records whether the submitter asserts authorship of
// the work.
type ConfirmAuthorship struct {
	SubmitterIsAuthor bool `json:"submitter_is_author"`
}

func (ConfirmAuthorship) Type() Type    { return TypeConfirmAuthorship }
func (ConfirmAuthorship) Name() string  { return "confirm authorship" }
func (ConfirmAuthorship) Named() string { return "authorship confirmed" }

func (ConfirmAuthorship) Validate(e *Event, s *domain.Submission) error {
	return submissionNotFinalized(e, s)
}

func (d ConfirmAuthorship) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	v := d.SubmitterIsAuthor
	s.SubmitterIsAuthor = &v
	return s, nil
}

// ConfirmPolicy records acceptance of the submission policy.
type ConfirmPolicy struct{}

func (ConfirmPolicy) Type() Type    { return TypeConfirmPolicy }
func (ConfirmPolicy) Name() string  { return "confirm policy" }
func (ConfirmPolicy) Named() string { return "policy confirmed" }

func (ConfirmPolicy) Validate(e *Event, s *domain.Submission) error {
	return submissionNotFinalized(e, s)
}

func (ConfirmPolicy) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	s.AcceptsPolicy = true
	return s, nil
}

// FinalizeSubmission declares the submission ready for announcement.
type FinalizeSubmission struct{}

func (FinalizeSubmission) Type() Type    { return TypeFinalizeSubmission }
func (FinalizeSubmission) Name() string  { return "finalize submission" }
func (FinalizeSubmission) Named() string { return "submission finalized" }

func (FinalizeSubmission) Validate(e *Event, s *domain.Submission) error {
	if s.Finalized() {
		return Invalid(e, "submission already finalized")
	}
	if !s.Active() {
		return Invalid(e, "submission must be active")
	}
	switch {
	case !s.ContactVerified:
		return Invalid(e, "contact information not confirmed")
	case !s.AcceptsPolicy:
		return Invalid(e, "policy not accepted")
	case s.License == nil:
		return Invalid(e, "missing license")
	case s.PrimaryClassification == nil:
		return Invalid(e, "missing primary classification")
	case s.SourceContent == nil:
		return Invalid(e, "missing source content")
	case s.Metadata.Title == "":
		return Invalid(e, "missing title")
	case s.Metadata.Abstract == "":
		return Invalid(e, "missing abstract")
	case s.Metadata.AuthorsDisplay == "":
		return Invalid(e, "missing authors")
	}
	return nil
}

func (FinalizeSubmission) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	s.Status = domain.StatusSubmitted
	return s, nil
}

// UnFinalizeSubmission pulls the submission back from the announcement
// queue.
type UnFinalizeSubmission struct{}

func (UnFinalizeSubmission) Type() Type    { return TypeUnFinalize }
func (UnFinalizeSubmission) Name() string  { return "unfinalize submission" }
func (UnFinalizeSubmission) Named() string { return "submission unfinalized" }

func (UnFinalizeSubmission) Validate(e *Event, s *domain.Submission) error {
	if !s.Finalized() {
		return Invalid(e, "submission is not finalized")
	}
	if s.Published() {
		return Invalid(e, "cannot unfinalize a published submission")
	}
	return nil
}

func (UnFinalizeSubmission) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	s.Status = domain.StatusWorking
	return s, nil
}

// Publish announces the submission, assigning its public paper ID.
type Publish struct {
	PaperID string `json:"paper_id"`
}

func (Publish) Type() Type    { return TypePublish }
func (Publish) Name() string  { return "publish submission" }
func (Publish) Named() string { return "submission published" }

func (d Publish) Validate(e *Event, s *domain.Submission) error {
	if s.Status != domain.StatusSubmitted && s.Status != domain.StatusScheduled {
		return Invalid(e, "only a finalized submission can be published")
	}
	if s.IsOnHold() {
		return Invalid(e, "submission is on hold")
	}
	if d.PaperID == "" {
		return Invalid(e, "missing paper id")
	}
	return nil
}

func (d Publish) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	s.Status = domain.StatusPublished
	s.PaperID = d.PaperID
	return s, nil
}
