package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"assessrag/internal/domain"
)

// separatorLevels lists natural boundaries from strongest to weakest. A window
// is cut after the last occurrence of the strongest level found inside it;
// when none qualifies the window is cut at its full width.
var separatorLevels = [][][]rune{
	{[]rune("\n\n")},
	{[]rune("\n")},
	{[]rune(". "), []rune("! "), []rune("? ")},
	{[]rune(" ")},
}

// RecursiveChunker splits documents into overlapping character windows,
// preferring paragraph, line, sentence and word boundaries over hard cuts.
//
// Unlike naive fixed-width slicing, a window may end before windowSize runes
// when a boundary exists in its second half. Consecutive chunks of a document
// always share exactly overlap runes, so dropping the first overlap runes of
// every chunk but the first and concatenating reconstructs the document.
type RecursiveChunker struct {
	windowSize int
	overlap    int
}

func NewRecursiveChunker(windowSize, overlap int) (*RecursiveChunker, error) {
	if windowSize <= 0 {
		return nil, fmt.Errorf("%w: window size must be positive, got %d", domain.ErrConfiguration, windowSize)
	}
	if overlap < 0 || overlap >= windowSize {
		return nil, fmt.Errorf("%w: overlap must be in [0, %d), got %d", domain.ErrConfiguration, windowSize, overlap)
	}
	return &RecursiveChunker{
		windowSize: windowSize,
		overlap:    overlap,
	}, nil
}

// Chunk splits every document in order. Output is grouped by document and
// then by sequence number.
func (c *RecursiveChunker) Chunk(docs []domain.Document) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for _, doc := range docs {
		chunks = append(chunks, c.chunkDocument(doc)...)
	}
	return chunks, nil
}

func (c *RecursiveChunker) chunkDocument(doc domain.Document) []domain.Chunk {
	runes := []rune(doc.Text)
	n := len(runes)

	var chunks []domain.Chunk
	offset := 0
	for seq := 0; offset < n; seq++ {
		end := offset + c.windowSize
		if end >= n {
			end = n
		} else {
			end = c.cutPoint(runes, offset, end)
		}

		text := string(runes[offset:end])
		chunks = append(chunks, domain.Chunk{
			ID:       generateChunkID(doc.Index, seq, offset, text),
			DocIndex: doc.Index,
			Seq:      seq,
			Offset:   offset,
			Text:     text,
		})

		if end == n {
			break
		}
		offset = end - c.overlap
	}

	return chunks
}

// cutPoint picks where the window [offset, end) should end. Candidate cuts
// must leave the chunk longer than the overlap, so the next window always
// advances, and at least half the window wide.
func (c *RecursiveChunker) cutPoint(runes []rune, offset, end int) int {
	minCut := offset + c.windowSize/2
	if floor := offset + c.overlap + 1; floor > minCut {
		minCut = floor
	}

	for _, level := range separatorLevels {
		best := -1
		for _, sep := range level {
			if cut := lastCutAfter(runes, sep, minCut, end); cut > best {
				best = cut
			}
		}
		if best != -1 {
			return best
		}
	}
	return end
}

// lastCutAfter returns the position just past the last occurrence of sep that
// ends within [minCut, end], or -1.
func lastCutAfter(runes, sep []rune, minCut, end int) int {
	for cut := end; cut >= minCut; cut-- {
		start := cut - len(sep)
		if start < 0 {
			break
		}
		if hasPrefixAt(runes, sep, start) {
			return cut
		}
	}
	return -1
}

func hasPrefixAt(runes, sep []rune, at int) bool {
	for i, r := range sep {
		if runes[at+i] != r {
			return false
		}
	}
	return true
}

// generateChunkID covers the text as well as the position, so two catalogs
// chunked into the same shape never share IDs.
func generateChunkID(docIndex, seq, offset int, text string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d:%d@%d\x00", docIndex, seq, offset)
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil)[:8])
}
