package util

import "strings"

// TextChunk is one window of a chunked document. Offset is the rune offset of
// the window start in the original text, kept so selected chunks can be put
// back in document order after relevance scoring.
type TextChunk struct {
	Offset int
	Text   string
}

func ChunkText(text string, chunkSize, overlap int) []string {
	chunks := ChunkTextWithOffsets(text, chunkSize, overlap)
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, c.Text)
	}
	return out
}

func ChunkTextWithOffsets(text string, chunkSize, overlap int) []TextChunk {
	if chunkSize <= 0 {
		chunkSize = 1200
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}
	runes := []rune(text)
	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}
	out := make([]TextChunk, 0)
	for i := 0; i < len(runes); i += step {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		part := strings.TrimSpace(string(runes[i:end]))
		if part != "" {
			out = append(out, TextChunk{Offset: i, Text: part})
		}
		if end == len(runes) {
			break
		}
	}
	return out
}
