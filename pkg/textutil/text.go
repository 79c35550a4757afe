// Package textutil normalizes and validates the free text staff type into
// checklists, logs and task labels.
package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/safechecks/safechecks/pkg/errclass"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// MaxLabelLen bounds labels and names so a single cell stays readable.
const MaxLabelLen = 200

// Clean NFC-normalizes s, strips control characters and collapses runs
// of whitespace to a single space.
func Clean(s string) string {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// ValidateLabel cleans a human-readable label and rejects empty or
// oversized values.
func ValidateLabel(field, s string) (string, error) {
	s = Clean(s)
	if s == "" {
		return "", errclass.ErrValidation.WithMessagef("%s must not be empty", field)
	}
	if len([]rune(s)) > MaxLabelLen {
		return "", errclass.ErrValidation.WithMessagef("%s exceeds %d characters", field, MaxLabelLen)
	}
	return s, nil
}

// ValidateID checks identifiers used as check, task and equipment keys.
func ValidateID(id string) error {
	if id == "" {
		return errclass.ErrValidation.WithMessage("id must not be empty")
	}
	if !idRegex.MatchString(id) {
		return errclass.ErrValidation.WithMessagef("id must match [a-zA-Z0-9._-]+: %q", id)
	}
	return nil
}

// ContainsFold reports whether s contains any of the keywords, ignoring case.
func ContainsFold(s string, keywords ...string) bool {
	lower := strings.ToLower(s)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
