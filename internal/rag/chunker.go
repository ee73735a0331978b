package rag

import (
	"regexp"
	"strings"
)

// maxMinViableWords is the largest minimum size applied to a trailing chunk.
// A trailing window shorter than min(50, chunkSize) words carries too little
// signal to be worth indexing.
const maxMinViableWords = 50

var (
	boilerplateStart = regexp.MustCompile(`\*\*\* START OF (THIS|THE) PROJECT GUTENBERG EBOOK`)
	boilerplateEnd   = regexp.MustCompile(`\*\*\* END OF (THIS|THE) PROJECT GUTENBERG EBOOK`)
)

// StripBoilerplate removes the Project Gutenberg header and footer, keeping
// only the book content. When either delimiter is missing the whole text is
// returned unmodified rather than failing.
func StripBoilerplate(text string) string {
	start := boilerplateStart.FindStringIndex(text)
	end := boilerplateEnd.FindStringIndex(text)
	if start != nil && end != nil && start[1] <= end[0] {
		return strings.TrimSpace(text[start[1]:end[0]])
	}
	return strings.TrimSpace(text)
}

// Split cuts text into overlapping word windows. The window advances by
// max(1, chunkSize-overlap) words. A trailing window below the viable
// minimum is discarded. Empty input yields an empty slice.
func Split(text string, chunkSize, overlap int) []Chunk {
	if chunkSize <= 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}
	step := chunkSize - overlap
	if step < 1 {
		step = 1
	}
	minWords := maxMinViableWords
	if chunkSize < minWords {
		minWords = chunkSize
	}

	words := strings.Fields(text)
	var chunks []Chunk
	seq := 0
	for i := 0; i < len(words); i += step {
		end := i + chunkSize
		if end > len(words) {
			end = len(words)
		}
		if end-i < minWords {
			break
		}
		chunks = append(chunks, Chunk{
			Seq:  seq,
			Text: strings.Join(words[i:end], " "),
		})
		seq++
		if end == len(words) {
			break
		}
	}
	return chunks
}
