// Package engine is the command handler for submissions. Save validates,
// projects, and persists events, then runs rule evaluation; Load replays
// the event log; LoadFast reads the materialized state.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"subline/internal/config"
	"subline/internal/domain"
	"subline/internal/events"
	"subline/internal/repo"
	"subline/internal/rules"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Rules  *rules.Engine
	Config *config.Config
	Log    zerolog.Logger
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config, log zerolog.Logger) *Engine {
	return &Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Rules:  rules.New(cfg, log),
		Config: cfg,
		Log:    log,
		Now:    time.Now,
	}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Save applies one or more new events to a submission and persists the
// result atomically. Pass submissionID zero together with a creation event
// to start a new submission.
//
// The new events are merged with the stored history, deduplicated by id,
// and replayed in creation-time order. Each uncommitted event that survives
// validation is appended to the log and handed to rule evaluation; any
// consequent events join the same time-ordered work queue. Either every
// event commits or none does.
//
// It returns the resulting state and the events committed by this call,
// consequent events included.
func (e *Engine) Save(ctx context.Context, submissionID int64, evs ...*events.Event) (*domain.Submission, []*events.Event, error) {
	if len(evs) == 0 {
		return nil, nil, &SaveError{Message: "no events to save"}
	}
	for _, ev := range evs {
		if ev.ID == "" {
			ev.ID = ev.ComputeID()
		}
		if submissionID == 0 && ev.SubmissionID != 0 {
			submissionID = ev.SubmissionID
		}
	}
	for _, ev := range evs {
		if ev.SubmissionID == 0 {
			ev.SubmissionID = submissionID
		}
	}

	var existing []*events.Event
	if submissionID != 0 {
		var err error
		existing, err = e.Repo.ListEvents(ctx, submissionID)
		if err != nil {
			return nil, nil, &SaveError{Message: "loading event log", Err: err}
		}
		if len(existing) == 0 {
			return nil, nil, fmt.Errorf("submission %d: %w", submissionID, ErrNoSuchSubmission)
		}
	}

	queue := merge(existing, evs)
	if submissionID == 0 {
		if _, ok := queue[0].Data.(*events.CreateSubmission); !ok {
			return nil, nil, fmt.Errorf("unable to determine submission: %w", ErrNoSuchSubmission)
		}
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, &SaveError{Message: "begin transaction", Err: err}
	}
	defer tx.Rollback()

	// Rule lookups must ride the save transaction: a second connection
	// would block on the write lock this transaction holds.
	deps := rules.Deps{Titles: rules.TitleFinderFunc(
		func(ctx context.Context, excludeID int64) ([]repo.TitleRecord, error) {
			return e.Repo.ListActiveTitles(ctx, tx, excludeID)
		})}

	var (
		state      *domain.Submission
		committed  []*events.Event
		consequent = map[string]bool{}
	)
	for len(queue) > 0 {
		ev := queue[0]
		queue = queue[1:]

		next, err := ev.Apply(state)
		if err != nil {
			var invalid *events.InvalidEvent
			if errors.As(err, &invalid) {
				if _, isConsequent := consequent[ev.ID]; isConsequent {
					return nil, nil, &InvalidStack{Invalid: invalid}
				}
				if ev.Committed {
					return nil, nil, &SaveError{Message: "stored event no longer replays", Err: err}
				}
				return nil, nil, err
			}
			return nil, nil, &SaveError{Message: "applying event", Err: err}
		}
		before := state
		state = next

		if ev.Committed {
			continue
		}
		if state.SubmissionID == 0 {
			id, err := e.Repo.InsertSubmission(ctx, tx, state)
			if err != nil {
				return nil, nil, &SaveError{Message: "inserting submission", Err: err}
			}
			state.SubmissionID = id
		}
		ev.SubmissionID = state.SubmissionID
		if err := e.Repo.AppendEvent(ctx, tx, ev); err != nil {
			return nil, nil, &SaveError{Message: "appending event", Err: err}
		}
		ev.Committed = true
		committed = append(committed, ev)

		e.Log.Info().
			Int64("submission_id", state.SubmissionID).
			Str("event_id", ev.ID).
			Str("event_type", string(ev.Data.Type())).
			Msg(ev.Data.Named())

		followups, err := e.Rules.Evaluate(ctx, deps, ev, before, state)
		if err != nil {
			return nil, nil, &SaveError{Message: "evaluating rules", Err: err}
		}
		for _, f := range followups {
			consequent[f.ID] = true
		}
		queue = merge(queue, followups)
	}

	if err := e.Repo.UpdateSubmissionState(ctx, tx, state); err != nil {
		return nil, nil, &SaveError{Message: "updating submission state", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, &SaveError{Message: "commit", Err: err}
	}
	return state, committed, nil
}

// Load reconstructs the submission state by replaying its full event log.
// The replay never runs rules; every stored consequent event is already in
// the log.
func (e *Engine) Load(ctx context.Context, submissionID int64) (*domain.Submission, []*events.Event, error) {
	evs, err := e.Repo.ListEvents(ctx, submissionID)
	if err != nil {
		return nil, nil, err
	}
	if len(evs) == 0 {
		return nil, nil, fmt.Errorf("submission %d: %w", submissionID, ErrNoSuchSubmission)
	}
	var state *domain.Submission
	for _, ev := range evs {
		state, err = ev.Apply(state)
		if err != nil {
			return nil, nil, fmt.Errorf("replaying event %s: %w", ev.ID, err)
		}
	}
	return state, evs, nil
}

// LoadFast reads the materialized state without touching the event log.
func (e *Engine) LoadFast(ctx context.Context, submissionID int64) (*domain.Submission, error) {
	s, err := e.Repo.GetSubmissionState(ctx, submissionID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("submission %d: %w", submissionID, ErrNoSuchSubmission)
	}
	return s, err
}

// merge combines two event slices, drops duplicate ids, and returns the
// result in replay order.
func merge(a, b []*events.Event) []*events.Event {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]*events.Event, 0, len(a)+len(b))
	for _, ev := range append(append([]*events.Event{}, a...), b...) {
		if seen[ev.ID] {
			continue
		}
		seen[ev.ID] = true
		out = append(out, ev)
	}
	sort.SliceStable(out, func(i, j int) bool { return events.ByTime(out[i], out[j]) })
	return out
}
