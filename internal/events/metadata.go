package events

import (
	"regexp"
	"strings"

	"subline/internal/domain"
)

// Variant type identifiers for metadata setters.
const (
	TypeSetTitle         Type = "metadata.set_title"
	TypeSetAbstract      Type = "metadata.set_abstract"
	TypeSetComments      Type = "metadata.set_comments"
	TypeSetDOI           Type = "metadata.set_doi"
	TypeSetMSCClass      Type = "metadata.set_msc_class"
	TypeSetACMClass      Type = "metadata.set_acm_class"
	TypeSetJournalRef    Type = "metadata.set_journal_ref"
	TypeSetReportNumber  Type = "metadata.set_report_num"
	TypeSetAuthors       Type = "metadata.set_authors"
	TypeSetLicense       Type = "metadata.set_license"
)

// Title length bounds.
const (
	titleMinLength = 5
	titleMaxLength = 240
)

// SetTitle replaces the submission title.
type SetTitle struct {
	Title string `json:"title"`
}

// NewSetTitle normalizes whitespace in the provided value.
func NewSetTitle(title string) *SetTitle {
	return &SetTitle{Title: cleanupWhitespace(title)}
}

func (SetTitle) Type() Type    { return TypeSetTitle }
func (SetTitle) Name() string  { return "set title" }
func (SetTitle) Named() string { return "title set" }

func (d SetTitle) Validate(e *Event, s *domain.Submission) error {
	if err := submissionNotFinalized(e, s); err != nil {
		return err
	}
	if err := noHTMLEscapes(e, d.Title); err != nil {
		return err
	}
	if n := len(d.Title); n < titleMinLength || n > titleMaxLength {
		return Invalid(e, "title must be between %d and %d characters", titleMinLength, titleMaxLength)
	}
	if err := noTrailingPeriod(e, d.Title); err != nil {
		return err
	}
	if isAllUpper(d.Title) {
		return Invalid(e, "title must not be all-caps")
	}
	return nil
}

func (d SetTitle) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	s.Metadata.Title = d.Title
	return s, nil
}

// Abstract length bounds.
const (
	abstractMinLength = 20
	abstractMaxLength = 1920
)

// SetAbstract replaces the submission abstract.
type SetAbstract struct {
	Abstract string `json:"abstract"`
}

// NewSetAbstract tidies the provided value: single spaces, trimmed, with
// paragraph breaks preserved as "\n  ".
func NewSetAbstract(abstract string) *SetAbstract {
	return &SetAbstract{Abstract: cleanupAbstract(abstract)}
}

var (
	spaceBeforeNewline = regexp.MustCompile(`[ \t]+\n`)
	indentAfterNewline = regexp.MustCompile(`\n[ \t]+`)
	bareNewline        = regexp.MustCompile(`(\S)\n(\S)`)
	multiSpace         = regexp.MustCompile(`[ ]{2,}`)
)

func cleanupAbstract(value string) string {
	value = strings.TrimSpace(value)
	value = strings.ReplaceAll(value, "\t", " ")
	value = spaceBeforeNewline.ReplaceAllString(value, "\n")
	value = indentAfterNewline.ReplaceAllString(value, "\n  ")
	value = bareNewline.ReplaceAllString(value, "$1 $2")
	value = multiSpace.ReplaceAllString(value, " ")
	return value
}

func (SetAbstract) Type() Type    { return TypeSetAbstract }
func (SetAbstract) Name() string  { return "set abstract" }
func (SetAbstract) Named() string { return "abstract set" }

func (d SetAbstract) Validate(e *Event, s *domain.Submission) error {
	if err := submissionNotFinalized(e, s); err != nil {
		return err
	}
	if n := len(d.Abstract); n < abstractMinLength || n > abstractMaxLength {
		return Invalid(e, "abstract must be between %d and %d characters", abstractMinLength, abstractMaxLength)
	}
	return nil
}

func (d SetAbstract) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	s.Metadata.Abstract = d.Abstract
	return s, nil
}

const commentsMaxLength = 400

// SetComments replaces the submitter comments field.
type SetComments struct {
	Comments string `json:"comments"`
}

// NewSetComments normalizes whitespace and strips a trailing period.
func NewSetComments(comments string) *SetComments {
	return &SetComments{Comments: cleanupTrailingDots(cleanupWhitespace(comments))}
}

func (SetComments) Type() Type    { return TypeSetComments }
func (SetComments) Name() string  { return "set comments" }
func (SetComments) Named() string { return "comments set" }

func (d SetComments) Validate(e *Event, s *domain.Submission) error {
	if err := submissionNotFinalized(e, s); err != nil {
		return err
	}
	if d.Comments == "" { // Blank values are OK.
		return nil
	}
	if len(d.Comments) > commentsMaxLength {
		return Invalid(e, "comments must be no more than %d characters long", commentsMaxLength)
	}
	return nil
}

func (d SetComments) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	s.Metadata.Comments = d.Comments
	return s, nil
}

// SetDOI replaces the external DOI field. Multiple DOIs may be separated
// by commas or semicolons.
type SetDOI struct {
	DOI string `json:"doi"`
}

// NewSetDOI normalizes whitespace in the provided value.
func NewSetDOI(doi string) *SetDOI {
	return &SetDOI{DOI: cleanupWhitespace(doi)}
}

func (SetDOI) Type() Type    { return TypeSetDOI }
func (SetDOI) Name() string  { return "set DOI" }
func (SetDOI) Named() string { return "DOI set" }

func (d SetDOI) Validate(e *Event, s *domain.Submission) error {
	if err := submissionNotFinalized(e, s); err != nil {
		return err
	}
	if d.DOI == "" { // Can be blank.
		return nil
	}
	for _, value := range strings.FieldsFunc(d.DOI, func(r rune) bool { return r == ',' || r == ';' }) {
		if !validDOI(strings.TrimSpace(value)) {
			return Invalid(e, "invalid DOI: %s", strings.TrimSpace(value))
		}
	}
	return nil
}

func (d SetDOI) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	s.Metadata.DOI = d.DOI
	return s, nil
}

// SetMSCClassification replaces the MSC classification string.
type SetMSCClassification struct {
	MSCClass string `json:"msc_class"`
}

var mscPrefixPattern = regexp.MustCompile(`(?i)^MSC([\s:\-]{0,4}(classification|class|number))?([\s:\-]{0,4}\(?2000\)?)?[\s:\-]*`)

// NewSetMSCClassification canonicalizes the value: comma-separated, single
// spacing, no leading "MSC" tag, no trailing period.
func NewSetMSCClassification(value string) *SetMSCClassification {
	value = cleanupTrailingDots(cleanupWhitespace(value))
	value = strings.ReplaceAll(value, ";", ",")
	parts := strings.Split(value, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	value = strings.Join(parts, ", ")
	value = mscPrefixPattern.ReplaceAllString(value, "")
	return &SetMSCClassification{MSCClass: value}
}

func (SetMSCClassification) Type() Type    { return TypeSetMSCClass }
func (SetMSCClassification) Name() string  { return "set MSC classification" }
func (SetMSCClassification) Named() string { return "MSC classification set" }

func (d SetMSCClassification) Validate(e *Event, s *domain.Submission) error {
	return submissionNotFinalized(e, s)
}

func (d SetMSCClassification) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	s.Metadata.MSCClass = d.MSCClass
	return s, nil
}

// SetACMClassification replaces the ACM classification string.
type SetACMClassification struct {
	ACMClass string `json:"acm_class"`
}

var (
	acmPrefixPattern  = regexp.MustCompile(`(?i)^ACM-class:\s+`)
	acmMissingDot     = regexp.MustCompile(`^([A-K])(\d)`)
	acmTrailingUpperM = regexp.MustCompile(`M$`)
)

// NewSetACMClassification canonicalizes the value: semicolon-separated
// upper-case codes with dotted sections.
func NewSetACMClassification(value string) *SetACMClassification {
	value = cleanupTrailingDots(cleanupWhitespace(value))
	value = acmPrefixPattern.ReplaceAllString(value, "")
	value = strings.ReplaceAll(value, ",", ";")
	parts := strings.Split(value, ";")
	for i, p := range parts {
		p = strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(p)), ".")
		p = acmMissingDot.ReplaceAllString(p, "$1.$2")
		p = acmTrailingUpperM.ReplaceAllString(p, "m")
		parts[i] = p
	}
	return &SetACMClassification{ACMClass: strings.Join(parts, ";")}
}

func (SetACMClassification) Type() Type    { return TypeSetACMClass }
func (SetACMClassification) Name() string  { return "set ACM classification" }
func (SetACMClassification) Named() string { return "ACM classification set" }

func (d SetACMClassification) Validate(e *Event, s *domain.Submission) error {
	if err := submissionNotFinalized(e, s); err != nil {
		return err
	}
	if d.ACMClass == "" { // Blank values are OK.
		return nil
	}
	for _, code := range strings.Split(d.ACMClass, ";") {
		if !validACMClass(strings.TrimSpace(code)) {
			return Invalid(e, "not a valid ACM class: %s", strings.TrimSpace(code))
		}
	}
	return nil
}

func (d SetACMClassification) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	s.Metadata.ACMClass = d.ACMClass
	return s, nil
}

// SetJournalReference replaces the journal reference field.
type SetJournalReference struct {
	JournalRef string `json:"journal_ref"`
}

func (SetJournalReference) Type() Type    { return TypeSetJournalRef }
func (SetJournalReference) Name() string  { return "set journal reference" }
func (SetJournalReference) Named() string { return "journal reference set" }

// Words that belong in comments, not a journal reference.
var journalRefDisallowed = []string{"submit", "in press", "appear", "accept", "to be publ"}

func (d SetJournalReference) Validate(e *Event, s *domain.Submission) error {
	if err := submissionNotFinalized(e, s); err != nil {
		return err
	}
	if d.JournalRef == "" { // Blank values are OK.
		return nil
	}
	lowered := strings.ToLower(d.JournalRef)
	for _, word := range journalRefDisallowed {
		if strings.Contains(lowered, word) {
			return Invalid(e, "the word %q should appear in the comments, not the journal ref", word)
		}
	}
	if !journalRefHasYear(d.JournalRef) {
		return Invalid(e, "journal reference must include a year")
	}
	return nil
}

func (d SetJournalReference) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	s.Metadata.JournalRef = d.JournalRef
	return s, nil
}

// SetReportNumber replaces the report number field.
type SetReportNumber struct {
	ReportNumber string `json:"report_num"`
}

// NewSetReportNumber normalizes whitespace and strips a trailing period.
func NewSetReportNumber(value string) *SetReportNumber {
	return &SetReportNumber{ReportNumber: cleanupTrailingDots(cleanupWhitespace(value))}
}

func (SetReportNumber) Type() Type    { return TypeSetReportNumber }
func (SetReportNumber) Name() string  { return "set report number" }
func (SetReportNumber) Named() string { return "report number set" }

func (d SetReportNumber) Validate(e *Event, s *domain.Submission) error {
	if err := submissionNotFinalized(e, s); err != nil {
		return err
	}
	if d.ReportNumber == "" { // Blank values are OK.
		return nil
	}
	if !validReportNumber(d.ReportNumber) {
		return Invalid(e, "report number must contain two consecutive digits")
	}
	return nil
}

func (d SetReportNumber) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	s.Metadata.ReportNumber = d.ReportNumber
	return s, nil
}

// SetAuthors replaces the author list and display string.
type SetAuthors struct {
	Authors        []domain.Author `json:"authors,omitempty"`
	AuthorsDisplay string          `json:"authors_display"`
}

// NewSetAuthors builds the event payload, generating a display string from
// per-author canonical forms when none is supplied.
func NewSetAuthors(authors []domain.Author, display string) *SetAuthors {
	if display == "" {
		parts := make([]string, 0, len(authors))
		for _, a := range authors {
			if a.Display != "" {
				parts = append(parts, a.Display)
			} else {
				parts = append(parts, a.Canonical())
			}
		}
		display = strings.Join(parts, ", ")
	}
	return &SetAuthors{Authors: authors, AuthorsDisplay: cleanupWhitespace(display)}
}

func (SetAuthors) Type() Type    { return TypeSetAuthors }
func (SetAuthors) Name() string  { return "set authors" }
func (SetAuthors) Named() string { return "authors set" }

func (d SetAuthors) Validate(e *Event, s *domain.Submission) error {
	if err := submissionNotFinalized(e, s); err != nil {
		return err
	}
	if containsEtAl(d.AuthorsDisplay) {
		return Invalid(e, "authors should not contain et al")
	}
	return nil
}

func (d SetAuthors) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	s.Metadata.Authors = d.Authors
	s.Metadata.AuthorsDisplay = d.AuthorsDisplay
	return s, nil
}

// SetLicense records the license selected by the submitter.
type SetLicense struct {
	LicenseName string `json:"license_name,omitempty"`
	LicenseURI  string `json:"license_uri"`
}

func (SetLicense) Type() Type    { return TypeSetLicense }
func (SetLicense) Name() string  { return "set license" }
func (SetLicense) Named() string { return "license set" }

func (d SetLicense) Validate(e *Event, s *domain.Submission) error {
	if err := submissionNotFinalized(e, s); err != nil {
		return err
	}
	if d.LicenseURI == "" {
		return Invalid(e, "missing license URI")
	}
	return nil
}

func (d SetLicense) Project(e *Event, s *domain.Submission) (*domain.Submission, error) {
	s.License = &domain.License{Name: d.LicenseName, URI: d.LicenseURI}
	return s, nil
}
