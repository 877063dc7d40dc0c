package domain

import (
	"testing"
	"time"
)

func TestCloneIsDeep(t *testing.T) {
	owner := Agent{Type: AgentUser, NativeID: "u1"}
	s := NewSubmission(owner, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	s.SubmissionID = 7
	s.PrimaryClassification = &Classification{Category: "cs.AI"}
	s.SecondaryClassification = []Classification{{Category: "cs.LG"}}
	s.Metadata.Authors = []Author{{Surname: "Lovelace"}}
	s.Holds["h1"] = Hold{EventID: "h1", Type: HoldSourceOversize}
	s.UserRequests["r1"] = &UserRequest{
		RequestID:       "r1",
		Kind:            RequestCrossList,
		Status:          RequestPending,
		Classifications: []Classification{{Category: "stat.ML"}},
	}

	c := s.Clone()
	c.PrimaryClassification.Category = "math.CO"
	c.SecondaryClassification[0].Category = "econ.EM"
	c.Metadata.Authors[0].Surname = "Babbage"
	c.Holds["h2"] = Hold{EventID: "h2"}
	c.UserRequests["r1"].Status = RequestApproved
	c.UserRequests["r1"].Classifications[0].Category = "q-bio.NC"

	if s.PrimaryClassification.Category != "cs.AI" {
		t.Error("primary classification aliased")
	}
	if s.SecondaryClassification[0].Category != "cs.LG" {
		t.Error("secondary classifications aliased")
	}
	if s.Metadata.Authors[0].Surname != "Lovelace" {
		t.Error("author list aliased")
	}
	if len(s.Holds) != 1 {
		t.Error("holds map aliased")
	}
	if s.UserRequests["r1"].Status != RequestPending {
		t.Error("request aliased")
	}
	if s.UserRequests["r1"].Classifications[0].Category != "stat.ML" {
		t.Error("request classifications aliased")
	}
}

func TestCloneNil(t *testing.T) {
	var s *Submission
	if s.Clone() != nil {
		t.Error("nil clone should stay nil")
	}
}

func TestStatusPredicates(t *testing.T) {
	cases := []struct {
		status    Status
		active    bool
		finalized bool
	}{
		{StatusWorking, true, false},
		{StatusSubmitted, true, true},
		{StatusScheduled, true, true},
		{StatusPublished, false, true},
		{StatusDeleted, false, false},
		{StatusWithdrawn, true, true},
	}
	for _, tc := range cases {
		s := &Submission{Status: tc.status}
		if s.Active() != tc.active {
			t.Errorf("%s: Active() = %v, want %v", tc.status, s.Active(), tc.active)
		}
		if s.Finalized() != tc.finalized {
			t.Errorf("%s: Finalized() = %v, want %v", tc.status, s.Finalized(), tc.finalized)
		}
	}
}

func TestIsOnHold(t *testing.T) {
	s := &Submission{Status: StatusSubmitted}
	if s.IsOnHold() {
		t.Error("hold reported without holds")
	}
	s.Holds = map[string]Hold{"h1": {EventID: "h1"}}
	if !s.IsOnHold() {
		t.Error("hold not reported")
	}
	s = &Submission{Status: StatusOnHold}
	if !s.IsOnHold() {
		t.Error("hold status not reported")
	}
}

func TestHoldsOfType(t *testing.T) {
	s := &Submission{Holds: map[string]Hold{
		"h1": {EventID: "h1", Type: HoldSourceOversize},
		"h2": {EventID: "h2", Type: HoldSourceCompressedOversize},
		"h3": {EventID: "h3", Type: HoldSourceOversize},
	}}
	if got := len(s.HoldsOfType(HoldSourceOversize)); got != 2 {
		t.Errorf("got %d oversize holds, want 2", got)
	}
	if got := len(s.HoldsOfType("other")); got != 0 {
		t.Errorf("got %d holds of unknown type, want 0", got)
	}
}

func TestActiveRequests(t *testing.T) {
	s := &Submission{UserRequests: map[string]*UserRequest{
		"a": {RequestID: "a", Status: RequestPending},
		"b": {RequestID: "b", Status: RequestRejected},
		"c": {RequestID: "c", Status: RequestApplied},
	}}
	if got := len(s.ActiveRequests()); got != 1 {
		t.Errorf("got %d active requests, want 1", got)
	}
	s.UserRequests["a"].Status = RequestApproved
	if !s.HasActiveRequests() {
		t.Error("approved request should count as active")
	}
	s.UserRequests["a"].Status = RequestApplied
	if s.HasActiveRequests() {
		t.Error("applied request should not count as active")
	}
}

func TestRequestIDDeterministic(t *testing.T) {
	u := Agent{Type: AgentUser, NativeID: "u1"}
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if RequestID(ts, RequestWithdrawal, u) != RequestID(ts, RequestWithdrawal, u) {
		t.Error("identical inputs produced different request ids")
	}
	if RequestID(ts, RequestWithdrawal, u) == RequestID(ts, RequestCrossList, u) {
		t.Error("different kinds produced the same request id")
	}
}

func TestAuthorCanonical(t *testing.T) {
	a := Author{Forename: "Ada", Surname: "Lovelace", Affiliation: "Analytical Engine"}
	if got := a.Canonical(); got != "Ada Lovelace (Analytical Engine)" {
		t.Errorf("canonical = %q", got)
	}
	b := Author{Forename: "Charles", Initials: "X.", Surname: "Babbage"}
	if got := b.Canonical(); got != "Charles X. Babbage" {
		t.Errorf("canonical = %q", got)
	}
}

func TestAnnotationIDDeterministic(t *testing.T) {
	a := AnnotationID(AnnotationPossibleDuplicate, 42)
	b := AnnotationID(AnnotationPossibleDuplicate, 42)
	if a != b {
		t.Error("identical inputs produced different annotation ids")
	}
	if a == AnnotationID(AnnotationPossibleDuplicate, 43) {
		t.Error("different matches produced the same annotation id")
	}
}
