package port

import "assessrag/internal/domain"

// Parser extracts display fields from chunk text. ok is false when the text
// carries no recognisable assessment.
type Parser interface {
	Parse(text string) (a domain.Assessment, ok bool)
}
