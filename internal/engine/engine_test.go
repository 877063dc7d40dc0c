package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"subline/internal/config"
	"subline/internal/db"
	"subline/internal/domain"
	"subline/internal/events"
	"subline/internal/logger"
	"subline/internal/migrate"
)

var (
	engineUser = domain.Agent{
		Type:         domain.AgentUser,
		NativeID:     "u1",
		Email:        "u1@example.org",
		Endorsements: []string{"cs.AI"},
	}
	engineTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := New(conn, config.Default(), logger.Nop())
	e.Now = func() time.Time { return engineTime }
	e.Rules.Now = func() time.Time { return engineTime.Add(time.Hour) }
	return e
}

func createSubmission(t *testing.T, e *Engine) *domain.Submission {
	t.Helper()
	state, _, err := e.Save(context.Background(), 0,
		events.New(engineUser, engineTime, &events.CreateSubmission{}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return state
}

func TestSaveCreatesSubmission(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	state := createSubmission(t, e)
	if state.SubmissionID == 0 {
		t.Fatal("no submission id assigned")
	}
	if state.Status != domain.StatusWorking {
		t.Errorf("status = %s", state.Status)
	}

	fast, err := e.LoadFast(ctx, state.SubmissionID)
	if err != nil {
		t.Fatalf("load fast: %v", err)
	}
	replayed, log, err := e.Load(ctx, state.SubmissionID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(log) != 1 {
		t.Errorf("log has %d events, want 1", len(log))
	}
	if fast.Status != replayed.Status || fast.SubmissionID != replayed.SubmissionID {
		t.Error("materialized state and replay disagree")
	}
}

func TestSaveRequiresEvents(t *testing.T) {
	e := testEngine(t)
	if _, _, err := e.Save(context.Background(), 0); err == nil {
		t.Error("empty save accepted")
	}
}

func TestSaveUnknownSubmission(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()
	_, _, err := e.Save(ctx, 999,
		events.New(engineUser, engineTime, events.NewSetTitle("A Title for Nobody")))
	if !errors.Is(err, ErrNoSuchSubmission) {
		t.Errorf("save: err = %v, want ErrNoSuchSubmission", err)
	}
	if _, err := e.LoadFast(ctx, 999); !errors.Is(err, ErrNoSuchSubmission) {
		t.Errorf("load fast: err = %v, want ErrNoSuchSubmission", err)
	}
	if _, _, err := e.Load(ctx, 999); !errors.Is(err, ErrNoSuchSubmission) {
		t.Errorf("load: err = %v, want ErrNoSuchSubmission", err)
	}
}

func TestSaveDeduplicatesIdenticalEvents(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()
	state := createSubmission(t, e)

	title := events.New(engineUser, engineTime.Add(time.Second), events.NewSetTitle("A Title Worth Repeating"))
	_, committed, err := e.Save(ctx, state.SubmissionID, title)
	if err != nil {
		t.Fatalf("first save: %v", err)
	}
	if len(committed) != 1 {
		t.Fatalf("first save committed %d events", len(committed))
	}

	// Same creator, timestamp, and payload means the same event id.
	duplicate := events.New(engineUser, engineTime.Add(time.Second), events.NewSetTitle("A Title Worth Repeating"))
	_, committed, err = e.Save(ctx, state.SubmissionID, duplicate)
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if len(committed) != 0 {
		t.Errorf("second save committed %d events, want 0", len(committed))
	}
	_, log, err := e.Load(ctx, state.SubmissionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(log) != 2 {
		t.Errorf("log has %d events, want 2", len(log))
	}
}

func TestSaveIsAtomic(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()
	state := createSubmission(t, e)

	good := events.New(engineUser, engineTime.Add(time.Second), events.NewSetTitle("A Perfectly Good Title"))
	bad := events.New(engineUser, engineTime.Add(2*time.Second), events.NewSetTitle("Ends With a Period."))
	_, _, err := e.Save(ctx, state.SubmissionID, good, bad)
	var invalid *events.InvalidEvent
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want InvalidEvent", err)
	}

	// Nothing from the failed batch is visible.
	fast, err := e.LoadFast(ctx, state.SubmissionID)
	if err != nil {
		t.Fatal(err)
	}
	if fast.Metadata.Title != "" {
		t.Errorf("title = %q after rollback", fast.Metadata.Title)
	}
	_, log, err := e.Load(ctx, state.SubmissionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(log) != 1 {
		t.Errorf("log has %d events, want 1", len(log))
	}
}

func TestSaveRunsSizeRule(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()
	state := createSubmission(t, e)

	// Consequent events must sort between their trigger and the next save.
	e.Rules.Now = func() time.Time { return engineTime.Add(1500 * time.Millisecond) }
	upload := events.New(engineUser, engineTime.Add(time.Second), &events.SetUploadPackage{
		Identifier:       "upload1",
		UncompressedSize: 2_392_593_992,
		CompressedSize:   30_992,
	})
	state, committed, err := e.Save(ctx, state.SubmissionID, upload)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !state.IsOnHold() {
		t.Fatal("oversize upload did not place the submission on hold")
	}
	var hold *events.Event
	for _, ev := range committed {
		if _, ok := ev.Data.(*events.AddHold); ok {
			hold = ev
		}
	}
	if hold == nil {
		t.Fatal("no hold event committed")
	}
	if hold.Creator.Type != domain.AgentSystem {
		t.Errorf("hold creator = %+v", hold.Creator)
	}

	// The consequent event is in the durable log.
	_, log, err := e.Load(ctx, state.SubmissionID)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, ev := range log {
		if ev.ID == hold.ID {
			found = true
		}
	}
	if !found {
		t.Error("hold event missing from the event log")
	}

	// Re-uploading under the limit releases the hold.
	e.Rules.Now = func() time.Time { return engineTime.Add(2500 * time.Millisecond) }
	fix := events.New(engineUser, engineTime.Add(2*time.Second), &events.UpdateUploadPackage{
		UncompressedSize: 2_593_992,
		CompressedSize:   30_992,
	})
	state, _, err = e.Save(ctx, state.SubmissionID, fix)
	if err != nil {
		t.Fatalf("save fix: %v", err)
	}
	if state.IsOnHold() {
		t.Error("hold not released after re-upload")
	}
	fast, err := e.LoadFast(ctx, state.SubmissionID)
	if err != nil {
		t.Fatal(err)
	}
	if fast.IsOnHold() {
		t.Error("materialized state still on hold")
	}
}

func TestSaveAnnotatesDuplicateTitles(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	first := createSubmission(t, e)
	_, _, err := e.Save(ctx, first.SubmissionID,
		events.New(engineUser, engineTime.Add(time.Second), events.NewSetTitle("An Unmistakably Unique Title")))
	if err != nil {
		t.Fatal(err)
	}

	other := domain.Agent{Type: domain.AgentUser, NativeID: "u2"}
	second, _, err := e.Save(ctx, 0,
		events.New(other, engineTime.Add(2*time.Second), &events.CreateSubmission{}))
	if err != nil {
		t.Fatal(err)
	}
	second, _, err = e.Save(ctx, second.SubmissionID,
		events.New(other, engineTime.Add(3*time.Second), events.NewSetTitle("an  unmistakably UNIQUE title")))
	if err != nil {
		t.Fatal(err)
	}
	if len(second.Annotations) != 1 {
		t.Fatalf("got %d annotations, want 1", len(second.Annotations))
	}
	for _, a := range second.Annotations {
		if a.Type != domain.AnnotationPossibleDuplicate {
			t.Errorf("annotation type = %s", a.Type)
		}
		if a.MatchingID != first.SubmissionID {
			t.Errorf("matching id = %d, want %d", a.MatchingID, first.SubmissionID)
		}
	}
}

func TestLoadFastMatchesReplay(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()
	state := createSubmission(t, e)

	steps := []events.Data{
		events.NewSetTitle("Consistency Between Views"),
		events.NewSetAbstract("An abstract that is long enough to pass validation."),
		&events.ConfirmPolicy{},
	}
	for i, d := range steps {
		if _, _, err := e.Save(ctx, state.SubmissionID,
			events.New(engineUser, engineTime.Add(time.Duration(i+1)*time.Second), d)); err != nil {
			t.Fatalf("save step %d: %v", i, err)
		}
	}

	fast, err := e.LoadFast(ctx, state.SubmissionID)
	if err != nil {
		t.Fatal(err)
	}
	replayed, _, err := e.Load(ctx, state.SubmissionID)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(fast, replayed) {
		t.Errorf("materialized state and replay disagree:\nfast    = %+v\nreplay  = %+v", fast, replayed)
	}
	// Collection maps survive the JSON round trip as empty, not nil.
	if fast.Holds == nil || fast.UserRequests == nil || fast.Annotations == nil {
		t.Error("fast-loaded state has nil collection maps")
	}
}

func TestSaveCreateAndTitleInOneBatch(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	first := createSubmission(t, e)
	if _, _, err := e.Save(ctx, first.SubmissionID,
		events.New(engineUser, engineTime.Add(time.Second), events.NewSetTitle("A Title Submitted Twice"))); err != nil {
		t.Fatal(err)
	}

	// Creation and title in a single batch: the duplicate-title lookup runs
	// while the save transaction is open and must complete against it.
	other := domain.Agent{Type: domain.AgentUser, NativeID: "u2"}
	state, committed, err := e.Save(ctx, 0,
		events.New(other, engineTime.Add(2*time.Second), &events.CreateSubmission{}),
		events.New(other, engineTime.Add(3*time.Second), events.NewSetTitle("A Title Submitted Twice")))
	if err != nil {
		t.Fatalf("batched create: %v", err)
	}
	if len(committed) != 3 {
		t.Errorf("committed %d events, want 3 (create, title, annotation)", len(committed))
	}
	if len(state.Annotations) != 1 {
		t.Fatalf("got %d annotations, want 1", len(state.Annotations))
	}
	for _, a := range state.Annotations {
		if a.MatchingID != first.SubmissionID {
			t.Errorf("matching id = %d, want %d", a.MatchingID, first.SubmissionID)
		}
	}
}

func TestSaveUnableToDetermineSubmission(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	// No submission id and no creation event: nothing identifies the target.
	_, _, err := e.Save(ctx, 0,
		events.New(engineUser, engineTime, events.NewSetTitle("A Title With No Home")))
	if !errors.Is(err, ErrNoSuchSubmission) {
		t.Errorf("err = %v, want ErrNoSuchSubmission", err)
	}

	// An event that carries the submission id itself is enough.
	state := createSubmission(t, e)
	ev := events.New(engineUser, engineTime.Add(time.Second), events.NewSetTitle("A Title Carried by the Event"))
	ev.SubmissionID = state.SubmissionID
	got, _, err := e.Save(ctx, 0, ev)
	if err != nil {
		t.Fatalf("save with event-carried id: %v", err)
	}
	if got.Metadata.Title != "A Title Carried by the Event" {
		t.Errorf("title = %q", got.Metadata.Title)
	}
}
