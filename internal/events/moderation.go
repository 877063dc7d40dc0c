package events

import (
	"subline/internal/domain"
)

// Variant type identifiers for moderation and administrative events.
const (
	TypeCreateComment    Type = "moderation.create_comment"
	TypeDeleteComment    Type = "moderation.delete_comment"
	TypeAddDelegate      Type = "moderation.add_delegate"
	TypeRemoveDelegate   Type = "moderation.remove_delegate"
	TypeAddFlag          Type = "moderation.add_flag"
	TypeRemoveFlag       Type = "moderation.remove_flag"
	TypeAddProposal      Type = "moderation.add_proposal"
	TypeAddHold          Type = "moderation.add_hold"
	TypeRemoveHold       Type = "moderation.remove_hold"
	TypeAddAnnotation    Type = "moderation.add_annotation"
	TypeRemoveAnnotation Type = "moderation.remove_annotation"
)

// CreateComment attaches an administrative note to the submission. The
// comment id is the id of this event.
type CreateComment struct {
	Body  string `json:"body"`
	Scope string `json:"scope,omitempty"`
}

func (CreateComment) Type() Type    { return TypeCreateComment }
func (CreateComment) Name() string  { return "create comment" }
func (CreateComment) Named() string { return "comment created" }

func (d CreateComment) Validate(e *Event, s *domain.Submission) error {
	if d.Body == "" {
		return Invalid(e, "comment body is empty")
	}
	return nil
}

func (d CreateComment) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	scope := d.Scope
	if scope == "" {
		scope = "private"
	}
	s.Comments[e.ID] = domain.Comment{
		CommentID: e.ID,
		Creator:   e.Creator,
		Created:   e.Created,
		Body:      d.Body,
		Scope:     scope,
	}
	return s, nil
}

// DeleteComment removes an administrative note.
type DeleteComment struct {
	CommentID string `json:"comment_id"`
}

func (DeleteComment) Type() Type    { return TypeDeleteComment }
func (DeleteComment) Name() string  { return "delete comment" }
func (DeleteComment) Named() string { return "comment deleted" }

func (d DeleteComment) Validate(e *Event, s *domain.Submission) error {
	if _, ok := s.Comments[d.CommentID]; !ok {
		return Invalid(e, "no such comment: %s", d.CommentID)
	}
	return nil
}

func (d DeleteComment) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	delete(s.Comments, d.CommentID)
	return s, nil
}

// AddDelegate grants another agent editing authority over the submission.
type AddDelegate struct {
	Delegate domain.Agent `json:"delegate"`
}

func (AddDelegate) Type() Type    { return TypeAddDelegate }
func (AddDelegate) Name() string  { return "add delegate" }
func (AddDelegate) Named() string { return "delegate added" }

func (d AddDelegate) Validate(e *Event, s *domain.Submission) error {
	if !e.Creator.Equal(s.Owner) {
		return Invalid(e, "only the owner may delegate")
	}
	return nil
}

func (d AddDelegate) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	s.Delegations[e.ID] = domain.Delegation{
		DelegationID: e.ID,
		Delegate:     d.Delegate,
		Creator:      e.Creator,
		Created:      e.Created,
	}
	return s, nil
}

// RemoveDelegate revokes a previously granted delegation.
type RemoveDelegate struct {
	DelegationID string `json:"delegation_id"`
}

func (RemoveDelegate) Type() Type    { return TypeRemoveDelegate }
func (RemoveDelegate) Name() string  { return "remove delegate" }
func (RemoveDelegate) Named() string { return "delegate removed" }

func (d RemoveDelegate) Validate(e *Event, s *domain.Submission) error {
	if !e.Creator.Equal(s.Owner) {
		return Invalid(e, "only the owner may revoke a delegation")
	}
	if _, ok := s.Delegations[d.DelegationID]; !ok {
		return Invalid(e, "no such delegation: %s", d.DelegationID)
	}
	return nil
}

func (d RemoveDelegate) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	delete(s.Delegations, d.DelegationID)
	return s, nil
}

// AddFlag raises a quality-control flag against the submission.
type AddFlag struct {
	FlagType string `json:"flag_type"`
	Reason   string `json:"reason,omitempty"`
}

func (AddFlag) Type() Type    { return TypeAddFlag }
func (AddFlag) Name() string  { return "add flag" }
func (AddFlag) Named() string { return "flag added" }

func (d AddFlag) Validate(e *Event, s *domain.Submission) error {
	if d.FlagType == "" {
		return Invalid(e, "missing flag type")
	}
	return nil
}

func (d AddFlag) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	s.Flags[e.ID] = domain.Flag{
		FlagID:  e.ID,
		Creator: e.Creator,
		Created: e.Created,
		Type:    d.FlagType,
		Reason:  d.Reason,
	}
	return s, nil
}

// RemoveFlag clears a previously raised flag.
type RemoveFlag struct {
	FlagID string `json:"flag_id"`
}

func (RemoveFlag) Type() Type    { return TypeRemoveFlag }
func (RemoveFlag) Name() string  { return "remove flag" }
func (RemoveFlag) Named() string { return "flag removed" }

func (d RemoveFlag) Validate(e *Event, s *domain.Submission) error {
	if _, ok := s.Flags[d.FlagID]; !ok {
		return Invalid(e, "no such flag: %s", d.FlagID)
	}
	return nil
}

func (d RemoveFlag) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	delete(s.Flags, d.FlagID)
	return s, nil
}

// AddProposal records a suggested change awaiting moderator review.
type AddProposal struct {
	ProposalType string `json:"proposal_type"`
	Category     string `json:"category,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

func (AddProposal) Type() Type    { return TypeAddProposal }
func (AddProposal) Name() string  { return "add proposal" }
func (AddProposal) Named() string { return "proposal added" }

func (d AddProposal) Validate(e *Event, s *domain.Submission) error {
	if d.ProposalType == "" {
		return Invalid(e, "missing proposal type")
	}
	if d.Category != "" {
		return mustBeValidCategory(e, d.Category)
	}
	return nil
}

func (d AddProposal) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	s.Proposals[e.ID] = domain.Proposal{
		ProposalID: e.ID,
		Creator:    e.Creator,
		Created:    e.Created,
		Type:       d.ProposalType,
		Category:   d.Category,
		Reason:     d.Reason,
	}
	return s, nil
}

// AddHold blocks announcement of the submission. The hold id is the id of
// this event.
type AddHold struct {
	HoldType string `json:"hold_type"`
	Reason   string `json:"hold_reason,omitempty"`
}

func (AddHold) Type() Type    { return TypeAddHold }
func (AddHold) Name() string  { return "add hold" }
func (AddHold) Named() string { return "hold added" }

func (d AddHold) Validate(e *Event, s *domain.Submission) error {
	if d.HoldType == "" {
		return Invalid(e, "missing hold type")
	}
	return nil
}

func (d AddHold) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	s.Holds[e.ID] = domain.Hold{
		EventID: e.ID,
		Creator: e.Creator,
		Created: e.Created,
		Type:    d.HoldType,
		Reason:  d.Reason,
	}
	return s, nil
}

// RemoveHold releases a hold.
type RemoveHold struct {
	HoldEventID string `json:"hold_event_id"`
}

func (RemoveHold) Type() Type    { return TypeRemoveHold }
func (RemoveHold) Name() string  { return "remove hold" }
func (RemoveHold) Named() string { return "hold removed" }

func (d RemoveHold) Validate(e *Event, s *domain.Submission) error {
	if _, ok := s.Holds[d.HoldEventID]; !ok {
		return Invalid(e, "no such hold: %s", d.HoldEventID)
	}
	return nil
}

func (d RemoveHold) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	delete(s.Holds, d.HoldEventID)
	return s, nil
}

// AddAnnotation attaches a quality-control annotation. The annotation id is
// deterministic for its type and target so repeated rule evaluation is
// idempotent.
type AddAnnotation struct {
	AnnotationType string `json:"annotation_type"`
	MatchingID     int64  `json:"matching_id,omitempty"`
	MatchingTitle  string `json:"matching_title,omitempty"`
	MatchingOwner  string `json:"matching_owner,omitempty"`
}

func (AddAnnotation) Type() Type    { return TypeAddAnnotation }
func (AddAnnotation) Name() string  { return "add annotation" }
func (AddAnnotation) Named() string { return "annotation added" }

func (d AddAnnotation) Validate(e *Event, s *domain.Submission) error {
	if d.AnnotationType == "" {
		return Invalid(e, "missing annotation type")
	}
	return nil
}

func (d AddAnnotation) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	id := domain.AnnotationID(d.AnnotationType, d.MatchingID)
	s.Annotations[id] = domain.Annotation{
		AnnotationID:  id,
		Creator:       e.Creator,
		Created:       e.Created,
		Type:          d.AnnotationType,
		MatchingID:    d.MatchingID,
		MatchingTitle: d.MatchingTitle,
		MatchingOwner: d.MatchingOwner,
	}
	return s, nil
}

// RemoveAnnotation detaches a quality-control annotation.
type RemoveAnnotation struct {
	AnnotationID string `json:"annotation_id"`
}

func (RemoveAnnotation) Type() Type    { return TypeRemoveAnnotation }
func (RemoveAnnotation) Name() string  { return "remove annotation" }
func (RemoveAnnotation) Named() string { return "annotation removed" }

func (d RemoveAnnotation) Validate(e *Event, s *domain.Submission) error {
	if _, ok := s.Annotations[d.AnnotationID]; !ok {
		return Invalid(e, "no such annotation: %s", d.AnnotationID)
	}
	return nil
}

func (d RemoveAnnotation) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	delete(s.Annotations, d.AnnotationID)
	return s, nil
}
