package events

import (
	"errors"
	"testing"
	"time"

	"subline/internal/domain"
)

func TestFinalizeRequiresCompleteSubmission(t *testing.T) {
	s := newSubmission(t)
	_, err := New(testUser, testTime.Add(time.Second), &FinalizeSubmission{}).Apply(s)
	var invalid *InvalidEvent
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidEvent for incomplete submission, got %v", err)
	}
}

func TestUnfinalizeReturnsToWorking(t *testing.T) {
	s, ts := publishedSubmission(t)
	if _, err := New(testUser, ts.Add(time.Second), &UnFinalizeSubmission{}).Apply(s); err == nil {
		t.Error("unfinalize accepted on a published submission")
	}

	s = newSubmission(t)
	ts = testTime
	step := func(d Data) {
		ts = ts.Add(time.Second)
		s = mustApply(t, s, ts, d)
	}
	step(&ConfirmContactInformation{})
	step(&ConfirmPolicy{})
	step(&SetLicense{LicenseURI: "https://creativecommons.org/licenses/by/4.0/"})
	step(&SetPrimaryClassification{Category: "cs.AI"})
	step(&SetUploadPackage{Identifier: "upload1", UncompressedSize: 100, CompressedSize: 30})
	step(NewSetTitle("A Title That Will Do Fine"))
	step(NewSetAbstract("An abstract that is long enough to pass validation."))
	step(NewSetAuthors(nil, "A. Author"))
	step(&FinalizeSubmission{})
	if s.Status != domain.StatusSubmitted {
		t.Fatalf("status = %s, want %s", s.Status, domain.StatusSubmitted)
	}
	step(&UnFinalizeSubmission{})
	if s.Status != domain.StatusWorking {
		t.Errorf("status = %s, want %s", s.Status, domain.StatusWorking)
	}
}

func TestPublishBlockedByHold(t *testing.T) {
	s := newSubmission(t)
	ts := testTime
	step := func(d Data) {
		ts = ts.Add(time.Second)
		s = mustApply(t, s, ts, d)
	}
	step(&ConfirmContactInformation{})
	step(&ConfirmPolicy{})
	step(&SetLicense{LicenseURI: "https://creativecommons.org/licenses/by/4.0/"})
	step(&SetPrimaryClassification{Category: "cs.AI"})
	step(&SetUploadPackage{Identifier: "upload1", UncompressedSize: 100, CompressedSize: 30})
	step(NewSetTitle("Held at the Gate"))
	step(NewSetAbstract("An abstract that is long enough to pass validation."))
	step(NewSetAuthors(nil, "A. Author"))
	step(&FinalizeSubmission{})
	step(&AddHold{HoldType: domain.HoldSourceOversize, Reason: "too big"})

	if !s.IsOnHold() {
		t.Fatal("submission not on hold after AddHold")
	}
	if _, err := New(testUser, ts.Add(time.Second), &Publish{PaperID: "2403.00002"}).Apply(s); err == nil {
		t.Error("publish accepted while on hold")
	}

	var holdID string
	for id := range s.Holds {
		holdID = id
	}
	step(&RemoveHold{HoldEventID: holdID})
	if s.IsOnHold() {
		t.Fatal("hold not released")
	}
	step(&Publish{PaperID: "2403.00002"})
	if s.Status != domain.StatusPublished || s.PaperID != "2403.00002" {
		t.Errorf("status = %s paper = %s", s.Status, s.PaperID)
	}
}

func TestRemoveSubmission(t *testing.T) {
	s := newSubmission(t)
	s = mustApply(t, s, testTime.Add(time.Second), &RemoveSubmission{Reason: "duplicate"})
	if s.Status != domain.StatusDeleted {
		t.Errorf("status = %s, want %s", s.Status, domain.StatusDeleted)
	}

	published, ts := publishedSubmission(t)
	if _, err := New(testUser, ts.Add(time.Second), &RemoveSubmission{}).Apply(published); err == nil {
		t.Error("remove accepted on a published submission")
	}
}

func TestProcessStatusAppendsOnly(t *testing.T) {
	s := newSubmission(t)
	id := domain.ProcessIdentifier("upload1", "sum1", "pdf")
	ts := testTime
	step := func(d Data) {
		ts = ts.Add(time.Second)
		s = mustApply(t, s, ts, d)
	}
	step(&AddProcessStatus{Process: domain.ProcessCompilation, Status: domain.ProcessRequested, Identifier: id})
	step(&AddProcessStatus{Process: domain.ProcessCompilation, Status: domain.ProcessSucceeded, Identifier: id})
	if len(s.Processes) != 2 {
		t.Fatalf("got %d process records, want 2", len(s.Processes))
	}

	if _, err := New(testUser, ts.Add(time.Second), &AddProcessStatus{
		Process: domain.ProcessCompilation, Status: domain.ProcessRequested, Identifier: "malformed",
	}).Apply(s); err == nil {
		t.Error("malformed compilation identifier accepted")
	}
	if _, err := New(testUser, ts.Add(time.Second), &AddProcessStatus{
		Process: "mystery", Status: domain.ProcessRequested, Identifier: id,
	}).Apply(s); err == nil {
		t.Error("unknown process accepted")
	}
}
