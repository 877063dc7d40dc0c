package domain

import (
	"testing"
	"time"
)

var compilationBase = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func record(offset time.Duration, status ProcessState, identifier string) ProcessStatus {
	return ProcessStatus{
		Process:    ProcessCompilation,
		Status:     status,
		Identifier: identifier,
		Created:    compilationBase.Add(offset),
	}
}

func TestCompilationsGroupsRuns(t *testing.T) {
	id := ProcessIdentifier("upload1", "sum1", "pdf")
	s := &Submission{Processes: []ProcessStatus{
		record(0, ProcessRequested, id),
		record(time.Minute, ProcessSucceeded, id),
		record(2*time.Minute, ProcessRequested, id),
		record(3*time.Minute, ProcessFailed, id),
	}}

	got := s.Compilations()
	if len(got) != 2 {
		t.Fatalf("got %d compilations, want 2", len(got))
	}
	if got[0].Status != CompilationSucceeded || got[1].Status != CompilationFailed {
		t.Errorf("statuses = %s, %s", got[0].Status, got[1].Status)
	}
	if !got[1].StartTime.Equal(compilationBase.Add(2 * time.Minute)) {
		t.Errorf("second run start = %v", got[1].StartTime)
	}
	if got[1].EndTime == nil || !got[1].EndTime.Equal(compilationBase.Add(3*time.Minute)) {
		t.Errorf("second run end = %v", got[1].EndTime)
	}
}

func TestCompilationsSplitOnIdentifierChange(t *testing.T) {
	first := ProcessIdentifier("upload1", "sum1", "pdf")
	second := ProcessIdentifier("upload1", "sum2", "pdf")
	s := &Submission{Processes: []ProcessStatus{
		record(0, ProcessRequested, first),
		record(time.Minute, ProcessRequested, second),
		record(2*time.Minute, ProcessSucceeded, second),
	}}

	got := s.Compilations()
	if len(got) != 2 {
		t.Fatalf("got %d compilations, want 2", len(got))
	}
	if got[0].Status != CompilationInProgress {
		t.Errorf("abandoned run status = %s", got[0].Status)
	}
	if got[0].EndTime != nil {
		t.Error("abandoned run has an end time")
	}
	if got[1].Checksum != "sum2" || got[1].Status != CompilationSucceeded {
		t.Errorf("second run = %+v", got[1])
	}
}

func TestCompilationStartIsEarliestRequested(t *testing.T) {
	id := ProcessIdentifier("upload1", "sum1", "pdf")
	s := &Submission{Processes: []ProcessStatus{
		record(0, ProcessRequested, id),
		record(time.Minute, ProcessRequested, id),
		record(2*time.Minute, ProcessSucceeded, id),
	}}

	got := s.Compilations()
	if len(got) != 1 {
		t.Fatalf("got %d compilations, want 1", len(got))
	}
	if !got[0].StartTime.Equal(compilationBase) {
		t.Errorf("start = %v, want %v", got[0].StartTime, compilationBase)
	}
}

func TestCompilationsIgnoreOtherProcesses(t *testing.T) {
	id := ProcessIdentifier("upload1", "sum1", "pdf")
	s := &Submission{Processes: []ProcessStatus{
		record(0, ProcessRequested, id),
		{Process: ProcessPlainTextExtraction, Status: ProcessRequested, Identifier: "upload1", Created: compilationBase.Add(30 * time.Second)},
		record(time.Minute, ProcessSucceeded, id),
	}}

	got := s.Compilations()
	if len(got) != 1 || got[0].Status != CompilationSucceeded {
		t.Fatalf("compilations = %+v", got)
	}
}

func TestLatestCompilation(t *testing.T) {
	s := &Submission{}
	if s.LatestCompilation() != nil {
		t.Error("expected nil for a submission without process records")
	}

	id := ProcessIdentifier("upload1", "sum1", "pdf")
	s.Processes = []ProcessStatus{
		record(0, ProcessRequested, id),
		record(time.Minute, ProcessFailed, id),
		record(2*time.Minute, ProcessRequested, id),
	}
	latest := s.LatestCompilation()
	if latest == nil || latest.Status != CompilationInProgress {
		t.Errorf("latest = %+v", latest)
	}
}

func TestSplitProcessIdentifier(t *testing.T) {
	src, sum, format, err := SplitProcessIdentifier("upload1::sum1::pdf")
	if err != nil || src != "upload1" || sum != "sum1" || format != "pdf" {
		t.Errorf("got %q %q %q err=%v", src, sum, format, err)
	}
	if _, _, _, err := SplitProcessIdentifier("upload1::sum1"); err == nil {
		t.Error("expected error for two-part identifier")
	}
}
