// Package chunker splits document text into overlapping, ordered chunks.
package chunker

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/papercomputeco/ragline/pkg/vector"
)

const (
	DefaultSize    = 1000
	DefaultOverlap = 200
)

// Chunker splits text into windows of at most size characters where each
// window repeats the last overlap characters of the one before it.
type Chunker struct {
	size    int
	overlap int
}

// New creates a Chunker. The overlap must be smaller than the size.
func New(size, overlap int) (*Chunker, error) {
	if size < 1 {
		return nil, &vector.ConfigurationError{
			Field:  "chunk_size",
			Reason: fmt.Sprintf("must be at least 1, got %d", size),
		}
	}
	if overlap < 0 || overlap >= size {
		return nil, &vector.ConfigurationError{
			Field:  "chunk_overlap",
			Reason: fmt.Sprintf("must be in [0, %d), got %d", size, overlap),
		}
	}

	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the maximum chunk length in characters.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the number of characters shared by consecutive chunks.
func (c *Chunker) Overlap() int { return c.overlap }

// Chunk splits content into chunks of the given document. Empty content
// yields no chunks.
func (c *Chunker) Chunk(documentID, title, content string) []vector.Chunk {
	parts := c.Split(content)
	chunks := make([]vector.Chunk, len(parts))
	for i, p := range parts {
		chunks[i] = vector.Chunk{
			DocumentID:  documentID,
			Title:       title,
			Content:     p,
			ChunkIndex:  i,
			TotalChunks: len(parts),
		}
	}
	return chunks
}

// Split returns the chunk texts of content in order.
func (c *Chunker) Split(content string) []string {
	if content == "" {
		return nil
	}

	r, off := decode(content)
	n := len(r)

	var parts []string
	start := 0
	for {
		if n-start <= c.size {
			parts = append(parts, content[off[start]:])
			return parts
		}

		end := c.breakPoint(r, start)
		parts = append(parts, content[off[start]:off[end]])
		start = end - c.overlap
	}
}

// decode returns the characters of s with their byte offsets, plus a final
// offset of len(s). An invalid byte counts as one character so slicing s by
// the offsets keeps it intact.
func decode(s string) ([]rune, []int) {
	r := make([]rune, 0, len(s))
	off := make([]int, 0, len(s)+1)
	for i := 0; i < len(s); {
		ch, w := utf8.DecodeRuneInString(s[i:])
		r = append(r, ch)
		off = append(off, i)
		i += w
	}
	return r, append(off, len(s))
}

// breakPoint picks where the window starting at start ends. It looks in the
// second half of the window for a paragraph break, then a sentence end, then
// whitespace, and cuts at the window size when none is found. The result is
// always past start+overlap so every step makes progress.
func (c *Chunker) breakPoint(r []rune, start int) int {
	limit := start + c.size
	lower := max(start+c.overlap+1, start+c.size/2)

	for _, isBreak := range []func([]rune, int) bool{paragraphEnd, sentenceEnd, wordEnd} {
		for end := limit; end >= lower; end-- {
			if isBreak(r, end) {
				return end
			}
		}
	}

	return limit
}

func paragraphEnd(r []rune, end int) bool {
	return end >= 2 && r[end-1] == '\n' && r[end-2] == '\n'
}

func sentenceEnd(r []rune, end int) bool {
	if end < 2 || !unicode.IsSpace(r[end-1]) {
		return false
	}
	return strings.ContainsRune(".!?…", r[end-2])
}

func wordEnd(r []rune, end int) bool {
	return end >= 1 && unicode.IsSpace(r[end-1])
}

// Reassemble joins chunks produced with the given overlap back into the
// original content.
func Reassemble(chunks []vector.Chunk, overlap int) string {
	var b strings.Builder
	for i, c := range chunks {
		if i == 0 {
			b.WriteString(c.Content)
			continue
		}
		b.WriteString(skip(c.Content, overlap))
	}
	return b.String()
}

// skip drops the first n characters of s, counting invalid bytes as one
// character each.
func skip(s string, n int) string {
	i := 0
	for ; n > 0 && i < len(s); n-- {
		_, w := utf8.DecodeRuneInString(s[i:])
		i += w
	}
	return s[i:]
}
