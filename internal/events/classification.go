package events

import (
	"subline/internal/domain"
	"subline/internal/taxonomy"
)

// Variant type identifiers for classification events.
const (
	TypeSetPrimaryClassification   Type = "classification.set_primary"
	TypeAddSecondaryClassification Type = "classification.add_secondary"
	TypeRemoveSecondaryClass       Type = "classification.remove_secondary"
)

// SetPrimaryClassification assigns the primary category of the submission.
type SetPrimaryClassification struct {
	Category string `json:"category"`
}

func (SetPrimaryClassification) Type() Type    { return TypeSetPrimaryClassification }
func (SetPrimaryClassification) Name() string  { return "set primary classification" }
func (SetPrimaryClassification) Named() string { return "primary classification set" }

func (d SetPrimaryClassification) Validate(e *Event, s *domain.Submission) error {
	if err := submissionNotFinalized(e, s); err != nil {
		return err
	}
	if err := mustBeValidCategory(e, d.Category); err != nil {
		return err
	}
	if err := cannotBeSecondary(e, d.Category, s); err != nil {
		return err
	}
	if !taxonomy.IsEndorsed(e.Creator, d.Category) {
		return Invalid(e, "creator is not endorsed for category %s", d.Category)
	}
	return nil
}

func (d SetPrimaryClassification) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	s.PrimaryClassification = &domain.Classification{Category: d.Category}
	return s, nil
}

// AddSecondaryClassification adds a cross-list category.
type AddSecondaryClassification struct {
	Category string `json:"category"`
}

func (AddSecondaryClassification) Type() Type    { return TypeAddSecondaryClassification }
func (AddSecondaryClassification) Name() string  { return "add secondary classification" }
func (AddSecondaryClassification) Named() string { return "secondary classification added" }

func (d AddSecondaryClassification) Validate(e *Event, s *domain.Submission) error {
	if err := submissionNotFinalized(e, s); err != nil {
		return err
	}
	if err := mustBeValidCategory(e, d.Category); err != nil {
		return err
	}
	if err := cannotBePrimary(e, d.Category, s); err != nil {
		return err
	}
	return cannotBeSecondary(e, d.Category, s)
}

func (d AddSecondaryClassification) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	s.SecondaryClassification = append(s.SecondaryClassification,
		domain.Classification{Category: d.Category})
	return s, nil
}

// RemoveSecondaryClassification removes a cross-list category.
type RemoveSecondaryClassification struct {
	Category string `json:"category"`
}

func (RemoveSecondaryClassification) Type() Type    { return TypeRemoveSecondaryClass }
func (RemoveSecondaryClassification) Name() string  { return "remove secondary classification" }
func (RemoveSecondaryClassification) Named() string { return "secondary classification removed" }

func (d RemoveSecondaryClassification) Validate(e *Event, s *domain.Submission) error {
	if err := submissionNotFinalized(e, s); err != nil {
		return err
	}
	if err := mustBeValidCategory(e, d.Category); err != nil {
		return err
	}
	return mustBeSecondary(e, d.Category, s)
}

func (d RemoveSecondaryClassification) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	kept := s.SecondaryClassification[:0]
	for _, c := range s.SecondaryClassification {
		if c.Category != d.Category {
			kept = append(kept, c)
		}
	}
	s.SecondaryClassification = kept
	return s, nil
}
