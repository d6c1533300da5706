package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessrag/internal/domain"
)

const fullDoc = `Assessment Name: Java 8 (New)
Assessment Type: Knowledge & Skills
Skills Measured: Java, OOP, Collections
Job Roles: Software Engineer, Developer
Description: Multi-choice test of Java 8 language features.
Duration: 18 minutes`

func TestParseFullDocument(t *testing.T) {
	a, ok := NewAssessmentParser().Parse(fullDoc)
	require.True(t, ok)

	assert.Equal(t, domain.Assessment{
		Name:        "Java 8 (New)",
		Type:        "Knowledge & Skills",
		Skills:      "Java, OOP, Collections",
		Roles:       "Software Engineer, Developer",
		Description: "Multi-choice test of Java 8 language features.",
		Duration:    "18 minutes",
	}, a)
}

func TestParseTruncatedChunk(t *testing.T) {
	text := "Assessment Name: Verbal Reasoning\nAssessment Type: Ability\nSkills Measured: Compreh"

	a, ok := NewAssessmentParser().Parse(text)
	require.True(t, ok)
	assert.Equal(t, "Verbal Reasoning", a.Name)
	assert.Equal(t, "Ability", a.Type)
	assert.Equal(t, "Compreh", a.Skills)
	assert.Empty(t, a.Roles)
	assert.Empty(t, a.Duration)
}

func TestParseNoMarker(t *testing.T) {
	cases := []string{
		"",
		"Job Roles: Analyst\nDescription: trailing half of a record",
		"Assessment Name:   \nAssessment Type: Ability",
	}
	for _, text := range cases {
		_, ok := NewAssessmentParser().Parse(text)
		assert.False(t, ok, "text %q", text)
	}
}

func TestParseStopsAtNextRecord(t *testing.T) {
	text := "Duration: 10 minutes\n\nAssessment Name: SQL Server\nAssessment Type: Knowledge\n\nAssessment Name: Excel"

	a, ok := NewAssessmentParser().Parse(text)
	require.True(t, ok)
	assert.Equal(t, "SQL Server", a.Name)
	assert.Equal(t, "Knowledge", a.Type)
}

func TestParseFieldsStopAtNearestLabel(t *testing.T) {
	a, ok := NewAssessmentParser().Parse("Assessment Name: Excel\nDuration: 30 minutes")
	require.True(t, ok)
	assert.Equal(t, "Excel", a.Name)
	assert.Empty(t, a.Type)
	assert.Equal(t, "30 minutes", a.Duration)

	a, ok = NewAssessmentParser().Parse("Assessment Name: OPQ\nAssessment Type: Personality\nDescription: Work styles.\nDuration: 25 minutes")
	require.True(t, ok)
	assert.Equal(t, "Personality", a.Type)
	assert.Empty(t, a.Skills)
	assert.Empty(t, a.Roles)
	assert.Equal(t, "Work styles.", a.Description)
	assert.Equal(t, "25 minutes", a.Duration)
}
