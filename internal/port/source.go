package port

import "assessrag/internal/domain"

// DocumentSource produces the ordered catalog documents to index.
type DocumentSource interface {
	Documents() ([]domain.Document, error)
}
