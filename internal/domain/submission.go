package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a submission.
type Status string

const (
	StatusWorking   Status = "working"
	StatusSubmitted Status = "submitted"
	StatusOnHold    Status = "hold"
	StatusScheduled Status = "scheduled"
	StatusPublished Status = "published"
	StatusError     Status = "error"
	StatusDeleted   Status = "deleted"
	StatusWithdrawn Status = "withdrawn"
)

// Classification is a single category assignment.
type Classification struct {
	Category string `json:"category"`
}

// License selected by the submitter.
type License struct {
	Name string `json:"name,omitempty"`
	URI  string `json:"uri"`
}

// SourceFormat identifies the source package format.
type SourceFormat string

const (
	FormatUnknown    SourceFormat = ""
	FormatInvalid    SourceFormat = "invalid"
	FormatTeX        SourceFormat = "tex"
	FormatPostscript SourceFormat = "ps"
	FormatHTML       SourceFormat = "html"
	FormatPDFTeX     SourceFormat = "pdftex"
	// FormatPDF shares a code with Postscript-derived PDF in the legacy
	// system; the collapse is intentional and preserved.
	FormatPDF SourceFormat = "ps"
)

// SourceContent describes the uploaded source package.
type SourceContent struct {
	Identifier       string       `json:"identifier"`
	Checksum         string       `json:"checksum"`
	Format           SourceFormat `json:"format"`
	UncompressedSize int64        `json:"uncompressed_size"`
	CompressedSize   int64        `json:"compressed_size"`
}

// Author of a submission.
type Author struct {
	Order       int    `json:"order"`
	Forename    string `json:"forename,omitempty"`
	Surname     string `json:"surname,omitempty"`
	Initials    string `json:"initials,omitempty"`
	Affiliation string `json:"affiliation,omitempty"`
	Email       string `json:"email,omitempty"`
	Display     string `json:"display,omitempty"`
}

// Canonical returns the canonical display form of the author name.
func (a Author) Canonical() string {
	name := strings.Join(strings.Fields(a.Forename+" "+a.Initials+" "+a.Surname), " ")
	if a.Affiliation != "" {
		return name + " (" + a.Affiliation + ")"
	}
	return name
}

// Metadata holds the descriptive fields of a submission.
type Metadata struct {
	Title          string   `json:"title,omitempty"`
	Abstract       string   `json:"abstract,omitempty"`
	Authors        []Author `json:"authors,omitempty"`
	AuthorsDisplay string   `json:"authors_display,omitempty"`
	DOI            string   `json:"doi,omitempty"`
	MSCClass       string   `json:"msc_class,omitempty"`
	ACMClass       string   `json:"acm_class,omitempty"`
	ReportNumber   string   `json:"report_num,omitempty"`
	JournalRef     string   `json:"journal_ref,omitempty"`
	Comments       string   `json:"comments,omitempty"`
}

// Delegation grants editing authority to a non-owning agent.
type Delegation struct {
	DelegationID string    `json:"delegation_id"`
	Delegate     Agent     `json:"delegate"`
	Creator      Agent     `json:"creator"`
	Created      time.Time `json:"created"`
}

// Comment is a moderation/administrative note on a submission.
type Comment struct {
	CommentID string    `json:"comment_id"`
	Creator   Agent     `json:"creator"`
	Created   time.Time `json:"created"`
	Body      string    `json:"body"`
	Scope     string    `json:"scope"`
}

// Flag is a quality-control marker raised against a submission.
type Flag struct {
	FlagID  string    `json:"flag_id"`
	Creator Agent     `json:"creator"`
	Created time.Time `json:"created"`
	Type    string    `json:"flag_type"`
	Reason  string    `json:"reason,omitempty"`
}

// Proposal is a suggested change (e.g. reclassification) awaiting review.
type Proposal struct {
	ProposalID string    `json:"proposal_id"`
	Creator    Agent     `json:"creator"`
	Created    time.Time `json:"created"`
	Type       string    `json:"proposal_type"`
	Category   string    `json:"category,omitempty"`
	Reason     string    `json:"reason,omitempty"`
}

// Hold type constants used by the rule engine.
const (
	HoldSourceOversize           = "source_oversize"
	HoldSourceCompressedOversize = "source_compressed_oversize"
)

// Hold blocks announcement of a submission, usually for QA/QC purposes.
type Hold struct {
	// EventID is the event that created the hold.
	EventID string    `json:"event_id"`
	Creator Agent     `json:"creator"`
	Created time.Time `json:"created"`
	Type    string    `json:"hold_type"`
	Reason  string    `json:"hold_reason,omitempty"`
}

// AnnotationPossibleDuplicate is the annotation type recorded by the
// duplicate-title rule.
const AnnotationPossibleDuplicate = "possible_duplicate"

// AnnotationID derives a deterministic identifier for an annotation from
// its type and the submission it points at, so that re-evaluating a rule
// yields the same annotation rather than a duplicate.
func AnnotationID(annotationType string, matchingID int64) string {
	seed := fmt.Sprintf("%s:%d", annotationType, matchingID)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}

// Annotation is a quality-control annotation attached by rule evaluation.
type Annotation struct {
	AnnotationID  string    `json:"annotation_id"`
	Creator       Agent     `json:"creator"`
	Created       time.Time `json:"created"`
	Type          string    `json:"annotation_type"`
	MatchingID    int64     `json:"matching_id,omitempty"`
	MatchingTitle string    `json:"matching_title,omitempty"`
	MatchingOwner string    `json:"matching_owner,omitempty"`
}

// Submission is the aggregate root. Its state is exactly the fold of its
// event history, in creation-time order, over an empty aggregate.
type Submission struct {
	SubmissionID int64  `json:"submission_id,omitempty"`
	Creator      Agent  `json:"creator"`
	Owner        Agent  `json:"owner"`
	Proxy        *Agent `json:"proxy,omitempty"`
	Client       *Agent `json:"client,omitempty"`

	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`

	Status   Status   `json:"status"`
	Metadata Metadata `json:"metadata"`

	PrimaryClassification   *Classification  `json:"primary_classification,omitempty"`
	SecondaryClassification []Classification `json:"secondary_classification,omitempty"`
	License                 *License         `json:"license,omitempty"`
	SourceContent           *SourceContent   `json:"source_content,omitempty"`

	ContactVerified   bool  `json:"submitter_contact_verified"`
	SubmitterIsAuthor *bool `json:"submitter_is_author,omitempty"`
	AcceptsPolicy     bool  `json:"submitter_accepts_policy"`

	PaperID string `json:"paper_id,omitempty"`
	Version int    `json:"version"`

	ReasonForWithdrawal string `json:"reason_for_withdrawal,omitempty"`

	// Prior published versions of this submission.
	Versions []*Submission `json:"versions,omitempty"`

	Delegations  map[string]Delegation   `json:"delegations,omitempty"`
	UserRequests map[string]*UserRequest `json:"user_requests,omitempty"`
	Proposals    map[string]Proposal     `json:"proposals,omitempty"`
	Annotations  map[string]Annotation   `json:"annotations,omitempty"`
	Flags        map[string]Flag         `json:"flags,omitempty"`
	Comments     map[string]Comment      `json:"comments,omitempty"`
	Holds        map[string]Hold         `json:"holds,omitempty"`

	Processes []ProcessStatus `json:"processes,omitempty"`
}

// NewSubmission returns an empty aggregate owned by the given creator.
func NewSubmission(creator Agent, created time.Time) *Submission {
	return &Submission{
		Creator:      creator,
		Owner:        creator,
		Created:      created,
		Updated:      created,
		Status:       StatusWorking,
		Version:      1,
		Delegations:  map[string]Delegation{},
		UserRequests: map[string]*UserRequest{},
		Proposals:    map[string]Proposal{},
		Annotations:  map[string]Annotation{},
		Flags:        map[string]Flag{},
		Comments:     map[string]Comment{},
		Holds:        map[string]Hold{},
	}
}

// Active reports whether the submission is still moving through the
// workflow.
func (s *Submission) Active() bool {
	return s.Status != StatusDeleted && s.Status != StatusPublished
}

// Published reports whether the submission has been announced.
func (s *Submission) Published() bool { return s.Status == StatusPublished }

// Deleted reports whether the submission has been removed.
func (s *Submission) Deleted() bool { return s.Status == StatusDeleted }

// Finalized reports whether the submitter has declared the submission
// ready for announcement.
func (s *Submission) Finalized() bool {
	return s.Status != StatusWorking && s.Status != StatusDeleted
}

// IsOnHold reports whether announcement is currently blocked.
func (s *Submission) IsOnHold() bool {
	return len(s.Holds) > 0 || s.Status == StatusOnHold
}

// SecondaryCategories lists category codes of the secondary classifications.
func (s *Submission) SecondaryCategories() []string {
	cats := make([]string, 0, len(s.SecondaryClassification))
	for _, c := range s.SecondaryClassification {
		cats = append(cats, c.Category)
	}
	return cats
}

// ActiveRequests returns user requests that are pending or approved.
func (s *Submission) ActiveRequests() []*UserRequest {
	var active []*UserRequest
	for _, r := range s.UserRequests {
		if r.IsActive() {
			active = append(active, r)
		}
	}
	return active
}

// HasActiveRequests reports whether any request is pending or approved.
func (s *Submission) HasActiveRequests() bool {
	return len(s.ActiveRequests()) > 0
}

// HoldsOfType returns the holds with the given hold type.
func (s *Submission) HoldsOfType(holdType string) []Hold {
	var out []Hold
	for _, h := range s.Holds {
		if h.Type == holdType {
			out = append(out, h)
		}
	}
	return out
}

// InitCollections replaces nil collection maps with empty ones. State
// decoded from JSON loses empty maps to omitempty; projections expect them
// to be present.
func (s *Submission) InitCollections() {
	if s.Delegations == nil {
		s.Delegations = map[string]Delegation{}
	}
	if s.UserRequests == nil {
		s.UserRequests = map[string]*UserRequest{}
	}
	if s.Proposals == nil {
		s.Proposals = map[string]Proposal{}
	}
	if s.Annotations == nil {
		s.Annotations = map[string]Annotation{}
	}
	if s.Flags == nil {
		s.Flags = map[string]Flag{}
	}
	if s.Comments == nil {
		s.Comments = map[string]Comment{}
	}
	if s.Holds == nil {
		s.Holds = map[string]Hold{}
	}
}

// Clone returns a deep copy of the submission. Projections mutate a clone
// so that the prior state is never aliased.
func (s *Submission) Clone() *Submission {
	if s == nil {
		return nil
	}
	c := *s
	if s.Proxy != nil {
		p := *s.Proxy
		c.Proxy = &p
	}
	if s.Client != nil {
		cl := *s.Client
		c.Client = &cl
	}
	if s.PrimaryClassification != nil {
		pc := *s.PrimaryClassification
		c.PrimaryClassification = &pc
	}
	c.SecondaryClassification = append([]Classification(nil), s.SecondaryClassification...)
	if s.License != nil {
		l := *s.License
		c.License = &l
	}
	if s.SourceContent != nil {
		sc := *s.SourceContent
		c.SourceContent = &sc
	}
	if s.SubmitterIsAuthor != nil {
		b := *s.SubmitterIsAuthor
		c.SubmitterIsAuthor = &b
	}
	c.Metadata.Authors = append([]Author(nil), s.Metadata.Authors...)
	c.Versions = append([]*Submission(nil), s.Versions...)
	c.Delegations = make(map[string]Delegation, len(s.Delegations))
	for k, v := range s.Delegations {
		c.Delegations[k] = v
	}
	c.UserRequests = make(map[string]*UserRequest, len(s.UserRequests))
	for k, v := range s.UserRequests {
		r := *v
		r.Classifications = append([]Classification(nil), v.Classifications...)
		c.UserRequests[k] = &r
	}
	c.Proposals = make(map[string]Proposal, len(s.Proposals))
	for k, v := range s.Proposals {
		c.Proposals[k] = v
	}
	c.Annotations = make(map[string]Annotation, len(s.Annotations))
	for k, v := range s.Annotations {
		c.Annotations[k] = v
	}
	c.Flags = make(map[string]Flag, len(s.Flags))
	for k, v := range s.Flags {
		c.Flags[k] = v
	}
	c.Comments = make(map[string]Comment, len(s.Comments))
	for k, v := range s.Comments {
		c.Comments[k] = v
	}
	c.Holds = make(map[string]Hold, len(s.Holds))
	for k, v := range s.Holds {
		c.Holds[k] = v
	}
	c.Processes = append([]ProcessStatus(nil), s.Processes...)
	return &c
}
