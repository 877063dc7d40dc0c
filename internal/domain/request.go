package domain

import (
	"time"

	"github.com/google/uuid"
)

// RequestKind identifies the concrete kind of a user request.
type RequestKind string

const (
	RequestWithdrawal RequestKind = "withdrawal"
	RequestCrossList  RequestKind = "cross_list"
)

// RequestStatus is the sub-state-machine of a user request.
// PENDING -> {APPROVED, REJECTED}; APPROVED -> APPLIED.
// APPLIED and REJECTED are terminal.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
	RequestApplied  RequestStatus = "applied"
)

// UserRequest is a submitter-initiated change that requires moderator
// approval before it takes effect.
type UserRequest struct {
	RequestID string        `json:"request_id"`
	Kind      RequestKind   `json:"kind"`
	Creator   Agent         `json:"creator"`
	Created   time.Time     `json:"created"`
	Updated   time.Time     `json:"updated"`
	Status    RequestStatus `json:"status"`

	// ReasonForWithdrawal is set for withdrawal requests.
	ReasonForWithdrawal string `json:"reason_for_withdrawal,omitempty"`
	// Classifications are set for cross-list requests.
	Classifications []Classification `json:"classifications,omitempty"`
}

// RequestID derives the identifier of a request deterministically from its
// creation time, kind, and creator so that replay reproduces it exactly.
func RequestID(created time.Time, kind RequestKind, creator Agent) string {
	seed := created.UTC().Format(time.RFC3339Nano) + ":" + string(kind) + ":" + creator.Identifier()
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}

// Categories lists the category codes of a cross-list request.
func (r *UserRequest) Categories() []string {
	cats := make([]string, 0, len(r.Classifications))
	for _, c := range r.Classifications {
		cats = append(cats, c.Category)
	}
	return cats
}

func (r *UserRequest) IsPending() bool  { return r.Status == RequestPending }
func (r *UserRequest) IsApproved() bool { return r.Status == RequestApproved }
func (r *UserRequest) IsRejected() bool { return r.Status == RequestRejected }
func (r *UserRequest) IsApplied() bool  { return r.Status == RequestApplied }

// IsActive reports whether the request still blocks new requests.
func (r *UserRequest) IsActive() bool { return r.IsPending() || r.IsApproved() }
