package events

import (
	"regexp"
	"strings"
	"unicode"

	"subline/internal/domain"
	"subline/internal/taxonomy"
)

// Shared validation predicates. Each either returns nil or an
// *InvalidEvent carrying the offending event and a reason. They take a bare
// aggregate so they can be unit-tested without a full event batch.

func submissionNotFinalized(e *Event, s *domain.Submission) error {
	if s.Finalized() {
		return Invalid(e, "cannot apply to a finalized submission")
	}
	return nil
}

func mustBeValidCategory(e *Event, category string) error {
	if category == "" || !taxonomy.IsValidCategory(category) {
		return Invalid(e, "not a valid category: %s", category)
	}
	return nil
}

func cannotBePrimary(e *Event, category string, s *domain.Submission) error {
	if s.PrimaryClassification != nil && s.PrimaryClassification.Category == category {
		return Invalid(e, "the same category cannot be used as both the primary and a secondary category")
	}
	return nil
}

func cannotBeSecondary(e *Event, category string, s *domain.Submission) error {
	for _, c := range s.SecondaryClassification {
		if c.Category == category {
			return Invalid(e, "category %s is already a secondary on this submission", category)
		}
	}
	return nil
}

func mustBeSecondary(e *Event, category string, s *domain.Submission) error {
	for _, c := range s.SecondaryClassification {
		if c.Category == category {
			return nil
		}
	}
	return Invalid(e, "no such category on submission")
}

func noActiveRequests(e *Event, s *domain.Submission) error {
	if s.HasActiveRequests() {
		return Invalid(e, "another request is still pending or approved")
	}
	return nil
}

// noTrailingPeriod rejects values ending in a period unless it closes an
// ellipsis.
func noTrailingPeriod(e *Event, value string) error {
	if strings.HasSuffix(value, ".") && !strings.HasSuffix(value, "...") {
		return Invalid(e, "must not contain trailing periods except ellipses")
	}
	return nil
}

var htmlEscapePattern = regexp.MustCompile(`&(?:[a-z]{3,4}|#x?[0-9a-f]{1,4});`)

func noHTMLEscapes(e *Event, value string) error {
	if htmlEscapePattern.MatchString(strings.ToLower(value)) {
		return Invalid(e, "must not contain HTML escapes")
	}
	return nil
}

func isAllUpper(value string) bool {
	hasLetter := false
	for _, r := range value {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}

var doiPattern = regexp.MustCompile(`^10\.\d{4,5}/\S+$`)

func validDOI(value string) bool {
	return doiPattern.MatchString(value)
}

var acmClassPattern = regexp.MustCompile(`^[A-K]\.[0-9m](\.(\d{1,2}|m)(\.[a-o])?)?$`)

func validACMClass(value string) bool {
	return acmClassPattern.MatchString(value)
}

var journalYearPattern = regexp.MustCompile(`(\A|\D)(19|20)\d\d(\D|\z)`)

func journalRefHasYear(value string) bool {
	return journalYearPattern.MatchString(value)
}

var reportNumberPattern = regexp.MustCompile(`\d\d`)

func validReportNumber(value string) bool {
	return reportNumberPattern.MatchString(value)
}

var etAlPattern = regexp.MustCompile(`et al\.?($|\s*\()`)

func containsEtAl(value string) bool {
	return etAlPattern.MatchString(value)
}

// cleanupWhitespace collapses runs of whitespace to single spaces and trims.
func cleanupWhitespace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

var trailingDotsPattern = regexp.MustCompile(`\s*\.[\s.]*$`)

// cleanupTrailingDots removes a trailing period and surrounding noise.
func cleanupTrailingDots(value string) string {
	return trailingDotsPattern.ReplaceAllString(value, "")
}
