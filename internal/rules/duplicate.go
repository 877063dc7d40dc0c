package rules

import (
	"context"
	"strings"

	"subline/internal/domain"
	"subline/internal/events"
	"subline/internal/repo"
)

// TitleFinder looks up the titles of other active submissions.
type TitleFinder interface {
	ListActiveTitles(ctx context.Context, excludeID int64) ([]repo.TitleRecord, error)
}

// TitleFinderFunc adapts a function to the TitleFinder interface.
type TitleFinderFunc func(ctx context.Context, excludeID int64) ([]repo.TitleRecord, error)

func (f TitleFinderFunc) ListActiveTitles(ctx context.Context, excludeID int64) ([]repo.TitleRecord, error) {
	return f(ctx, excludeID)
}

// DuplicateTitleRule annotates a submission whose title exactly matches,
// after normalization, the title of another active submission. Each
// evaluation recomputes the match set: stale annotations are removed and
// current matches re-added, so annotations always reflect the latest title.
type DuplicateTitleRule struct{}

func (DuplicateTitleRule) Name() string { return "duplicate-title" }

func (DuplicateTitleRule) Triggered(e *events.Event, before, after *domain.Submission) bool {
	_, ok := e.Data.(*events.SetTitle)
	return ok && after.SubmissionID != 0
}

func (r DuplicateTitleRule) Apply(ctx context.Context, deps Deps, e *events.Event, before, after *domain.Submission) ([]events.Data, error) {
	if deps.Titles == nil {
		return nil, nil
	}
	titles, err := deps.Titles.ListActiveTitles(ctx, after.SubmissionID)
	if err != nil {
		return nil, err
	}

	want := map[string]repo.TitleRecord{}
	normalized := normalizeTitle(after.Metadata.Title)
	if normalized != "" {
		for _, t := range titles {
			if normalizeTitle(t.Title) == normalized {
				want[domain.AnnotationID(domain.AnnotationPossibleDuplicate, t.SubmissionID)] = t
			}
		}
	}

	var out []events.Data
	for id, a := range after.Annotations {
		if a.Type != domain.AnnotationPossibleDuplicate {
			continue
		}
		if _, still := want[id]; !still {
			out = append(out, &events.RemoveAnnotation{AnnotationID: id})
		}
	}
	for id, t := range want {
		if _, exists := after.Annotations[id]; exists {
			continue
		}
		out = append(out, &events.AddAnnotation{
			AnnotationType: domain.AnnotationPossibleDuplicate,
			MatchingID:     t.SubmissionID,
			MatchingTitle:  t.Title,
			MatchingOwner:  t.OwnerID,
		})
	}
	return out, nil
}

// normalizeTitle lowercases and collapses whitespace for comparison.
func normalizeTitle(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}
