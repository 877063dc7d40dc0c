// Package rules evaluates policy rules after each event is applied. A
// triggered rule emits consequent events that re-enter the same
// validate-project-persist pipeline as user events.
package rules

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"subline/internal/config"
	"subline/internal/domain"
	"subline/internal/events"
)

// Deps carries the per-save resources rules may read. Lookups run through
// the save transaction, so a rule sees exactly the snapshot its consequent
// events will be committed against.
type Deps struct {
	Titles TitleFinder
}

// Rule inspects one applied event and the states around it, and may emit
// consequent event payloads.
type Rule interface {
	// Name identifies the rule in logs.
	Name() string
	// Triggered reports whether the rule applies to this event.
	Triggered(e *events.Event, before, after *domain.Submission) bool
	// Apply returns the consequent payloads of the rule. It must be
	// idempotent: evaluating twice against the same state emits nothing
	// the second time.
	Apply(ctx context.Context, deps Deps, e *events.Event, before, after *domain.Submission) ([]events.Data, error)
}

// Engine holds the configured rule set.
type Engine struct {
	Rules []Rule
	Log   zerolog.Logger
	Now   func() time.Time
}

// Creator is the system agent under which consequent events are recorded.
var Creator = domain.SystemAgent("subline.rules")

// New builds the rule set for a configuration.
func New(cfg *config.Config, log zerolog.Logger) *Engine {
	e := &Engine{Log: log, Now: time.Now}
	if cfg == nil || !cfg.Rules.Enabled {
		return e
	}
	e.Rules = append(e.Rules, &SizeHoldRule{
		UncompressedLimit: cfg.Rules.UncompressedSizeLimit,
		CompressedLimit:   cfg.Rules.CompressedSizeLimit,
	})
	if cfg.Rules.DuplicateTitles {
		e.Rules = append(e.Rules, &DuplicateTitleRule{})
	}
	return e
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Evaluate runs every triggered rule against the applied event and returns
// the combined consequent events, stamped with the engine clock and the
// rules system agent.
func (e *Engine) Evaluate(ctx context.Context, deps Deps, applied *events.Event, before, after *domain.Submission) ([]*events.Event, error) {
	var out []*events.Event
	for _, r := range e.Rules {
		if !r.Triggered(applied, before, after) {
			continue
		}
		payloads, err := r.Apply(ctx, deps, applied, before, after)
		if err != nil {
			return nil, err
		}
		if len(payloads) > 0 {
			e.Log.Debug().
				Str("rule", r.Name()).
				Int64("submission_id", after.SubmissionID).
				Int("consequent_events", len(payloads)).
				Msg("rule triggered")
		}
		for _, d := range payloads {
			ev := events.New(Creator, e.now(), d)
			ev.SubmissionID = applied.SubmissionID
			out = append(out, ev)
		}
	}
	return out, nil
}
