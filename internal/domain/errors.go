package domain

import "errors"

var (
	// ErrConfiguration reports invalid chunking or component settings.
	ErrConfiguration = errors.New("configuration error")

	// ErrDimensionMismatch reports disagreeing vector lengths between the
	// embedder, the query and the index.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrIndexCorruption reports an index that no longer lines up with the
	// chunk set it is queried against.
	ErrIndexCorruption = errors.New("index corruption")

	// ErrInvalidArgument reports caller-correctable input such as k <= 0.
	ErrInvalidArgument = errors.New("invalid argument")

	ErrIndexNotBuilt = errors.New("index not built")
)
