package chunker

import (
	"strings"
	"unicode"
)

// overBudgetPct is the slack allowed before a packed chunk is re-split on
// sentence boundaries. Paragraph packing alone can overshoot when a single
// paragraph is huge.
const overBudgetPct = 120

// Split partitions text into ordered chunks of at most targetSize characters,
// preferring paragraph boundaries and falling back to sentence boundaries.
// A single sentence longer than targetSize is emitted whole rather than cut
// mid-word. Concatenating the chunks reproduces the text content, modulo
// boundary whitespace. Empty chunks are never returned.
func Split(text string, targetSize int) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if targetSize <= 0 {
		targetSize = 1
	}
	if len(text) <= targetSize {
		return []string{strings.TrimSpace(text)}
	}

	packed := pack(splitParagraphs(text), targetSize, "\n\n")

	limit := targetSize * overBudgetPct / 100
	chunks := make([]string, 0, len(packed))
	for _, chunk := range packed {
		if len(chunk) <= limit {
			chunks = append(chunks, chunk)
			continue
		}
		chunks = append(chunks, pack(splitSentences(chunk), targetSize, " ")...)
	}
	return chunks
}

// pack greedily joins parts into buffers of at most targetSize, flushing a
// buffer when the next part would overflow it. A part larger than targetSize
// on its own becomes a chunk by itself.
func pack(parts []string, targetSize int, sep string) []string {
	var chunks []string
	var buf strings.Builder
	flush := func() {
		if buf.Len() == 0 {
			return
		}
		chunks = append(chunks, buf.String())
		buf.Reset()
	}
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		need := len(part)
		if buf.Len() > 0 {
			need += len(sep)
		}
		if buf.Len() > 0 && buf.Len()+need > targetSize {
			flush()
		}
		if buf.Len() > 0 {
			buf.WriteString(sep)
		}
		buf.WriteString(part)
	}
	flush()
	return chunks
}

func splitParagraphs(text string) []string {
	lines := strings.Split(text, "\n")
	var paragraphs []string
	var current []string
	flush := func() {
		if len(current) == 0 {
			return
		}
		paragraphs = append(paragraphs, strings.Join(current, "\n"))
		current = nil
	}
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return paragraphs
}

// splitSentences cuts after terminal punctuation followed by whitespace.
// Handles both western terminators and CJK full-width ones, which are not
// followed by a space.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '.', '!', '?':
			if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
				continue
			}
			sentences = append(sentences, string(runes[start:i+1]))
			start = i + 1
		case '。', '！', '？', '…':
			sentences = append(sentences, string(runes[start:i+1]))
			start = i + 1
		}
	}
	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}
	return sentences
}
