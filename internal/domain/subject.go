package domain

import (
	"fmt"
	"strings"
)

// SubjectType identifies which kind of entity a revision belongs to
type SubjectType string

const (
	SubjectPage         SubjectType = "page"
	SubjectForm         SubjectType = "form"
	SubjectContentBlock SubjectType = "content_block"
	SubjectMember       SubjectType = "member"
	SubjectTestimonial  SubjectType = "testimonial"
)

var subjectLabels = map[SubjectType]string{
	SubjectPage:         "Page",
	SubjectForm:         "Form",
	SubjectContentBlock: "Content block",
	SubjectMember:       "User",
	SubjectTestimonial:  "Testimonial",
}

// SubjectTypes returns all known subject types
func SubjectTypes() []SubjectType {
	return []SubjectType{SubjectPage, SubjectForm, SubjectContentBlock, SubjectMember, SubjectTestimonial}
}

// ParseSubjectType converts a path or query value into a SubjectType.
// Hyphenated forms ("content-block") are accepted.
func ParseSubjectType(s string) (SubjectType, error) {
	t := SubjectType(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !t.Valid() {
		return "", fmt.Errorf("unknown subject type: %q", s)
	}
	return t, nil
}

// Valid reports whether t is one of the known subject types
func (t SubjectType) Valid() bool {
	_, ok := subjectLabels[t]
	return ok
}

// Label returns the human readable name used in revision descriptions
func (t SubjectType) Label() string {
	if label, ok := subjectLabels[t]; ok {
		return label
	}
	return string(t)
}

// Subject is the (type, id) pair a revision is attached to
type Subject struct {
	Type SubjectType `json:"type"`
	ID   uint64      `json:"id"`
}

// Valid reports whether both halves of the identity are present
func (s Subject) Valid() bool {
	return s.Type != "" && s.ID != 0
}

func (s Subject) String() string {
	return fmt.Sprintf("%s:%d", s.Type, s.ID)
}
