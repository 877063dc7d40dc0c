package events

import (
	"subline/internal/domain"
)

// Variant type identifiers for user request events.
const (
	TypeRequestWithdrawal Type = "request.withdrawal"
	TypeRequestCrossList  Type = "request.cross_list"
	TypeApproveRequest    Type = "request.approve"
	TypeRejectRequest     Type = "request.reject"
	TypeApplyRequest      Type = "request.apply"
)

const withdrawalReasonMaxLength = 400

// RequestWithdrawal asks to withdraw a published submission. The request
// enters the approval workflow pending; the withdrawal itself takes effect
// when the request is applied.
type RequestWithdrawal struct {
	Reason string `json:"reason"`
}

func (RequestWithdrawal) Type() Type    { return TypeRequestWithdrawal }
func (RequestWithdrawal) Name() string  { return "request withdrawal" }
func (RequestWithdrawal) Named() string { return "withdrawal requested" }

func (d RequestWithdrawal) Validate(e *Event, s *domain.Submission) error {
	if d.Reason == "" {
		return Invalid(e, "missing reason for withdrawal")
	}
	if len(d.Reason) > withdrawalReasonMaxLength {
		return Invalid(e, "reason must be no more than %d characters long", withdrawalReasonMaxLength)
	}
	if !s.Published() {
		return Invalid(e, "only published submissions can be withdrawn")
	}
	return noActiveRequests(e, s)
}

func (d RequestWithdrawal) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	id := domain.RequestID(e.Created, domain.RequestWithdrawal, e.Creator)
	s.UserRequests[id] = &domain.UserRequest{
		RequestID:           id,
		Kind:                domain.RequestWithdrawal,
		Creator:             e.Creator,
		Created:             e.Created,
		Updated:             e.Created,
		Status:              domain.RequestPending,
		ReasonForWithdrawal: d.Reason,
	}
	return s, nil
}

// RequestCrossList asks to add secondary categories to a published
// submission, subject to approval.
type RequestCrossList struct {
	Categories []string `json:"categories"`
}

func (RequestCrossList) Type() Type    { return TypeRequestCrossList }
func (RequestCrossList) Name() string  { return "request cross-list" }
func (RequestCrossList) Named() string { return "cross-list requested" }

func (d RequestCrossList) Validate(e *Event, s *domain.Submission) error {
	if len(d.Categories) == 0 {
		return Invalid(e, "no categories requested")
	}
	for _, cat := range d.Categories {
		if err := mustBeValidCategory(e, cat); err != nil {
			return err
		}
		if err := cannotBePrimary(e, cat, s); err != nil {
			return err
		}
		if err := cannotBeSecondary(e, cat, s); err != nil {
			return err
		}
	}
	if !s.Published() {
		return Invalid(e, "only published submissions can be cross-listed")
	}
	return noActiveRequests(e, s)
}

func (d RequestCrossList) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	classifications := make([]domain.Classification, 0, len(d.Categories))
	for _, cat := range d.Categories {
		classifications = append(classifications, domain.Classification{Category: cat})
	}
	id := domain.RequestID(e.Created, domain.RequestCrossList, e.Creator)
	s.UserRequests[id] = &domain.UserRequest{
		RequestID:       id,
		Kind:            domain.RequestCrossList,
		Creator:         e.Creator,
		Created:         e.Created,
		Updated:         e.Created,
		Status:          domain.RequestPending,
		Classifications: classifications,
	}
	return s, nil
}

func pendingRequest(e *Event, s *domain.Submission, id string) (*domain.UserRequest, error) {
	r, ok := s.UserRequests[id]
	if !ok {
		return nil, Invalid(e, "no such request: %s", id)
	}
	if !r.IsPending() {
		return nil, Invalid(e, "request %s is %s, not pending", id, r.Status)
	}
	return r, nil
}

// ApproveRequest moves a pending request to approved.
type ApproveRequest struct {
	RequestID string `json:"request_id"`
}

func (ApproveRequest) Type() Type    { return TypeApproveRequest }
func (ApproveRequest) Name() string  { return "approve request" }
func (ApproveRequest) Named() string { return "request approved" }

func (d ApproveRequest) Validate(e *Event, s *domain.Submission) error {
	_, err := pendingRequest(e, s, d.RequestID)
	return err
}

func (d ApproveRequest) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	r := s.UserRequests[d.RequestID]
	r.Status = domain.RequestApproved
	r.Updated = e.Created
	return s, nil
}

// RejectRequest moves a pending request to rejected. Rejected is terminal.
type RejectRequest struct {
	RequestID string `json:"request_id"`
}

func (RejectRequest) Type() Type    { return TypeRejectRequest }
func (RejectRequest) Name() string  { return "reject request" }
func (RejectRequest) Named() string { return "request rejected" }

func (d RejectRequest) Validate(e *Event, s *domain.Submission) error {
	_, err := pendingRequest(e, s, d.RequestID)
	return err
}

func (d RejectRequest) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	r := s.UserRequests[d.RequestID]
	r.Status = domain.RequestRejected
	r.Updated = e.Created
	return s, nil
}

// ApplyRequest carries out an approved request. For withdrawals the
// submission moves to withdrawn; for cross-lists the requested categories
// become secondaries. Applied is terminal.
type ApplyRequest struct {
	RequestID string `json:"request_id"`
}

func (ApplyRequest) Type() Type    { return TypeApplyRequest }
func (ApplyRequest) Name() string  { return "apply request" }
func (ApplyRequest) Named() string { return "request applied" }

func (d ApplyRequest) Validate(e *Event, s *domain.Submission) error {
	r, ok := s.UserRequests[d.RequestID]
	if !ok {
		return Invalid(e, "no such request: %s", d.RequestID)
	}
	if !r.IsApproved() {
		return Invalid(e, "request %s is %s, not approved", d.RequestID, r.Status)
	}
	return nil
}

func (d ApplyRequest) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	r := s.UserRequests[d.RequestID]
	switch r.Kind {
	case domain.RequestWithdrawal:
		s.ReasonForWithdrawal = r.ReasonForWithdrawal
		s.Status = domain.StatusWithdrawn
	case domain.RequestCrossList:
		s.SecondaryClassification = append(s.SecondaryClassification, r.Classifications...)
	}
	r.Status = domain.RequestApplied
	r.Updated = e.Created
	return s, nil
}
