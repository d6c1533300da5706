package parser

import (
	"strings"

	"assessrag/internal/domain"
)

const nameMarker = "Assessment Name:"

// field labels in rendered document order
const (
	labelType        = "Assessment Type"
	labelSkills      = "Skills Measured"
	labelRoles       = "Job Roles"
	labelDescription = "Description"
	labelDuration    = "Duration"
)

var labels = []string{labelType, labelSkills, labelRoles, labelDescription, labelDuration}

// AssessmentParser extracts display fields from chunk text rendered by the
// catalog. Fields are located by label, so a chunk cut before a label simply
// leaves that field empty.
type AssessmentParser struct{}

func NewAssessmentParser() *AssessmentParser {
	return &AssessmentParser{}
}

// Parse reports ok=false when the text holds no assessment name.
func (p *AssessmentParser) Parse(text string) (domain.Assessment, bool) {
	flat := strings.ReplaceAll(text, "\n", " ")

	_, content, found := strings.Cut(flat, nameMarker)
	if !found {
		return domain.Assessment{}, false
	}
	// a second record in the same chunk must not bleed into this one
	if i := strings.Index(content, nameMarker); i >= 0 {
		content = content[:i]
	}

	a := domain.Assessment{
		Name:        between(content, "", labels),
		Type:        between(content, labelType, labels[1:]),
		Skills:      between(content, labelSkills, labels[2:]),
		Roles:       between(content, labelRoles, labels[3:]),
		Description: between(content, labelDescription, labels[4:]),
		Duration:    between(content, labelDuration, nil),
	}
	if a.Name == "" {
		return domain.Assessment{}, false
	}
	return a, true
}

// between returns the text after key up to the nearest of the later labels
// in next, or to the end when none follows. A missing key yields "".
func between(content, key string, next []string) string {
	start := 0
	if key != "" {
		i := strings.Index(content, key)
		if i < 0 {
			return ""
		}
		start = i + len(key)
	}

	rest := content[start:]
	end := len(rest)
	for _, label := range next {
		if j := strings.Index(rest, label); j >= 0 && j < end {
			end = j
		}
	}
	return strings.Trim(rest[:end], " :")
}
