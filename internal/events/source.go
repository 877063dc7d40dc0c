package events

import (
	"subline/internal/domain"
)

// Variant type identifiers for source package events.
const (
	TypeSetUploadPackage    Type = "source.set_upload_package"
	TypeUpdateUploadPackage Type = "source.update_upload_package"
	TypeUnsetUploadPackage  Type = "source.unset_upload_package"
	TypeConfirmPreview      Type = "source.confirm_preview"
)

// SetUploadPackage attaches an uploaded source package to the submission.
// Size limits are not validated here; oversize packages place the
// submission on hold via rule evaluation instead.
type SetUploadPackage struct {
	Identifier       string              `json:"identifier"`
	Checksum         string              `json:"checksum,omitempty"`
	Format           domain.SourceFormat `json:"format,omitempty"`
	UncompressedSize int64               `json:"uncompressed_size"`
	CompressedSize   int64               `json:"compressed_size"`
}

func (SetUploadPackage) Type() Type    { return TypeSetUploadPackage }
func (SetUploadPackage) Name() string  { return "set upload package" }
func (SetUploadPackage) Named() string { return "upload package set" }

func (d SetUploadPackage) Validate(e *Event, s *domain.Submission) error {
	if err := submissionNotFinalized(e, s); err != nil {
		return err
	}
	if d.Identifier == "" {
		return Invalid(e, "missing upload identifier")
	}
	return nil
}

func (d SetUploadPackage) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	s.SourceContent = &domain.SourceContent{
		Identifier:       d.Identifier,
		Checksum:         d.Checksum,
		Format:           d.Format,
		UncompressedSize: d.UncompressedSize,
		CompressedSize:   d.CompressedSize,
	}
	return s, nil
}

// UpdateUploadPackage replaces the content of a previously attached source
// package, e.g. after re-upload.
type UpdateUploadPackage struct {
	Checksum         string              `json:"checksum,omitempty"`
	Format           domain.SourceFormat `json:"format,omitempty"`
	UncompressedSize int64               `json:"uncompressed_size"`
	CompressedSize   int64               `json:"compressed_size"`
}

func (UpdateUploadPackage) Type() Type    { return TypeUpdateUploadPackage }
func (UpdateUploadPackage) Name() string  { return "update upload package" }
func (UpdateUploadPackage) Named() string { return "upload package updated" }

func (d UpdateUploadPackage) Validate(e *Event, s *domain.Submission) error {
	if err := submissionNotFinalized(e, s); err != nil {
		return err
	}
	if s.SourceContent == nil {
		return Invalid(e, "submission has no source package")
	}
	return nil
}

func (d UpdateUploadPackage) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	s.SourceContent.Checksum = d.Checksum
	if d.Format != domain.FormatUnknown {
		s.SourceContent.Format = d.Format
	}
	s.SourceContent.UncompressedSize = d.UncompressedSize
	s.SourceContent.CompressedSize = d.CompressedSize
	return s, nil
}

// UnsetUploadPackage detaches the source package from the submission.
type UnsetUploadPackage struct{}

func (UnsetUploadPackage) Type() Type    { return TypeUnsetUploadPackage }
func (UnsetUploadPackage) Name() string  { return "unset upload package" }
func (UnsetUploadPackage) Named() string { return "upload package unset" }

func (UnsetUploadPackage) Validate(e *Event, s *domain.Submission) error {
	if err := submissionNotFinalized(e, s); err != nil {
		return err
	}
	if s.SourceContent == nil {
		return Invalid(e, "submission has no source package")
	}
	return nil
}

func (UnsetUploadPackage) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	s.SourceContent = nil
	return s, nil
}

// ConfirmPreview records that the submitter reviewed and approved the
// compiled preview of the current source package.
type ConfirmPreview struct{}

func (ConfirmPreview) Type() Type    { return TypeConfirmPreview }
func (ConfirmPreview) Name() string  { return "confirm preview" }
func (ConfirmPreview) Named() string { return "preview confirmed" }

func (ConfirmPreview) Validate(e *Event, s *domain.Submission) error {
	if err := submissionNotFinalized(e, s); err != nil {
		return err
	}
	if s.SourceContent == nil {
		return Invalid(e, "submission has no source package")
	}
	return nil
}

func (ConfirmPreview) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	return s, nil
}
