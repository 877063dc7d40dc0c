package rules

import (
	"context"
	"testing"
	"time"

	"subline/internal/domain"
	"subline/internal/events"
	"subline/internal/repo"
)

type fakeTitleFinder struct {
	titles []repo.TitleRecord
}

func (f *fakeTitleFinder) ListActiveTitles(ctx context.Context, excludeID int64) ([]repo.TitleRecord, error) {
	var out []repo.TitleRecord
	for _, t := range f.titles {
		if t.SubmissionID != excludeID {
			out = append(out, t)
		}
	}
	return out, nil
}

func titleDeps(finder TitleFinder) Deps {
	return Deps{Titles: finder}
}

func titledSubmission(t *testing.T, title string) (*events.Event, *domain.Submission, *domain.Submission) {
	t.Helper()
	s, err := events.New(ruleUser, ruleTime, &events.CreateSubmission{}).Apply(nil)
	if err != nil {
		t.Fatal(err)
	}
	s.SubmissionID = 5
	e := events.New(ruleUser, ruleTime.Add(time.Second), events.NewSetTitle(title))
	after, err := e.Apply(s)
	if err != nil {
		t.Fatal(err)
	}
	return e, s, after
}

func TestDuplicateTitleAnnotatesMatches(t *testing.T) {
	finder := &fakeTitleFinder{titles: []repo.TitleRecord{
		{SubmissionID: 2, Title: "a   survey OF nothing much", OwnerID: "u2"},
		{SubmissionID: 3, Title: "A Survey of Nothing Much", OwnerID: "u3"},
		{SubmissionID: 4, Title: "A Different Title Entirely", OwnerID: "u4"},
	}}
	r := DuplicateTitleRule{}

	e, before, after := titledSubmission(t, "A Survey of Nothing Much")
	if !r.Triggered(e, before, after) {
		t.Fatal("rule not triggered by title change")
	}
	out, err := r.Apply(context.Background(), titleDeps(finder), e, before, after)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d payloads, want 2", len(out))
	}
	for _, d := range out {
		add, ok := d.(*events.AddAnnotation)
		if !ok {
			t.Fatalf("payload = %#v", d)
		}
		if add.AnnotationType != domain.AnnotationPossibleDuplicate {
			t.Errorf("annotation type = %s", add.AnnotationType)
		}
		if add.MatchingID != 2 && add.MatchingID != 3 {
			t.Errorf("matching id = %d", add.MatchingID)
		}
	}
}

func TestDuplicateTitleRemovesStaleAnnotations(t *testing.T) {
	finder := &fakeTitleFinder{titles: []repo.TitleRecord{
		{SubmissionID: 2, Title: "A Survey of Nothing Much", OwnerID: "u2"},
		{SubmissionID: 8, Title: "A Fresh Take on Something", OwnerID: "u8"},
	}}
	r := DuplicateTitleRule{}

	e, before, after := titledSubmission(t, "A Survey of Nothing Much")
	out, err := r.Apply(context.Background(), titleDeps(finder), e, before, after)
	if err != nil {
		t.Fatal(err)
	}
	state := after
	for _, d := range out {
		ev := events.New(Creator, ruleTime.Add(2*time.Second), d)
		state, err = ev.Apply(state)
		if err != nil {
			t.Fatal(err)
		}
	}
	if len(state.Annotations) != 1 {
		t.Fatalf("got %d annotations, want 1", len(state.Annotations))
	}

	// Retitle onto the other record: the old annotation goes, a new one comes.
	e2 := events.New(ruleUser, ruleTime.Add(3*time.Second), events.NewSetTitle("A Fresh Take on Something"))
	retitled, err := e2.Apply(state)
	if err != nil {
		t.Fatal(err)
	}
	out, err = r.Apply(context.Background(), titleDeps(finder), e2, state, retitled)
	if err != nil {
		t.Fatal(err)
	}
	var removes, adds int
	for _, d := range out {
		switch p := d.(type) {
		case *events.RemoveAnnotation:
			removes++
			if p.AnnotationID != domain.AnnotationID(domain.AnnotationPossibleDuplicate, 2) {
				t.Errorf("removed annotation %s", p.AnnotationID)
			}
		case *events.AddAnnotation:
			adds++
			if p.MatchingID != 8 {
				t.Errorf("added match %d", p.MatchingID)
			}
		default:
			t.Errorf("payload = %#v", d)
		}
	}
	if removes != 1 || adds != 1 {
		t.Errorf("removes = %d adds = %d", removes, adds)
	}
}

func TestDuplicateTitleIsIdempotent(t *testing.T) {
	finder := &fakeTitleFinder{titles: []repo.TitleRecord{
		{SubmissionID: 2, Title: "A Survey of Nothing Much", OwnerID: "u2"},
	}}
	r := DuplicateTitleRule{}

	e, before, after := titledSubmission(t, "A Survey of Nothing Much")
	out, err := r.Apply(context.Background(), titleDeps(finder), e, before, after)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d payloads, want 1", len(out))
	}
	state := after
	ev := events.New(Creator, ruleTime.Add(2*time.Second), out[0])
	if state, err = ev.Apply(state); err != nil {
		t.Fatal(err)
	}
	again, err := r.Apply(context.Background(), titleDeps(finder), e, after, state)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 0 {
		t.Errorf("second evaluation emitted %d payloads", len(again))
	}
}

func TestDuplicateTitleWithoutFinderEmitsNothing(t *testing.T) {
	r := DuplicateTitleRule{}
	e, before, after := titledSubmission(t, "A Survey of Nothing Much")
	out, err := r.Apply(context.Background(), Deps{}, e, before, after)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Errorf("got %d payloads without a title finder", len(out))
	}
}

func TestDuplicateTitleNotTriggeredBeforeFirstSave(t *testing.T) {
	r := DuplicateTitleRule{}
	s, _ := events.New(ruleUser, ruleTime, &events.CreateSubmission{}).Apply(nil)
	e := events.New(ruleUser, ruleTime.Add(time.Second), events.NewSetTitle("A Title Without an Identifier"))
	after, err := e.Apply(s)
	if err != nil {
		t.Fatal(err)
	}
	if r.Triggered(e, s, after) {
		t.Error("rule triggered for a submission without an assigned id")
	}
}
