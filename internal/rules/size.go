package rules

import (
	"context"
	"fmt"

	"subline/internal/domain"
	"subline/internal/events"
)

// SizeHoldRule places a submission on hold when its source package exceeds
// the configured size limits, and releases the hold when a re-upload brings
// it back under.
type SizeHoldRule struct {
	UncompressedLimit int64
	CompressedLimit   int64
}

func (SizeHoldRule) Name() string { return "size-hold" }

func (SizeHoldRule) Triggered(e *events.Event, before, after *domain.Submission) bool {
	switch e.Data.(type) {
	case *events.SetUploadPackage, *events.UpdateUploadPackage, *events.UnsetUploadPackage:
		return true
	}
	return false
}

func (r SizeHoldRule) Apply(ctx context.Context, _ Deps, e *events.Event, before, after *domain.Submission) ([]events.Data, error) {
	var out []events.Data
	out = append(out, r.reconcile(after, domain.HoldSourceOversize,
		r.uncompressedOver(after),
		fmt.Sprintf("the uncompressed source exceeds the limit of %d bytes", r.UncompressedLimit))...)
	out = append(out, r.reconcile(after, domain.HoldSourceCompressedOversize,
		r.compressedOver(after),
		fmt.Sprintf("the compressed source exceeds the limit of %d bytes", r.CompressedLimit))...)
	return out, nil
}

func (r SizeHoldRule) uncompressedOver(s *domain.Submission) bool {
	return s.SourceContent != nil && s.SourceContent.UncompressedSize > r.UncompressedLimit
}

func (r SizeHoldRule) compressedOver(s *domain.Submission) bool {
	return s.SourceContent != nil && s.SourceContent.CompressedSize > r.CompressedLimit
}

// reconcile emits the payloads needed to make the holds of one type match
// the oversize condition: one AddHold when over and none exists, RemoveHold
// for each when not over.
func (r SizeHoldRule) reconcile(s *domain.Submission, holdType string, over bool, reason string) []events.Data {
	existing := s.HoldsOfType(holdType)
	if over {
		if len(existing) > 0 {
			return nil
		}
		return []events.Data{&events.AddHold{HoldType: holdType, Reason: reason}}
	}
	var out []events.Data
	for _, h := range existing {
		out = append(out, &events.RemoveHold{HoldEventID: h.EventID})
	}
	return out
}
