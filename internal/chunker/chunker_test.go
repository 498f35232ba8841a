package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_ShortTextYieldsSingleChunk(t *testing.T) {
	chunks := Split("hello world", 1000)
	require.Equal(t, []string{"hello world"}, chunks)
}

func TestSplit_EmptyTextYieldsNoChunks(t *testing.T) {
	require.Empty(t, Split("", 1000))
	require.Empty(t, Split("   \n\n  \t ", 1000))
}

func TestSplit_PacksParagraphsGreedily(t *testing.T) {
	text := strings.Join([]string{
		strings.Repeat("a", 40),
		strings.Repeat("b", 40),
		strings.Repeat("c", 40),
	}, "\n\n")

	chunks := Split(text, 90)
	require.Len(t, chunks, 2)
	require.Contains(t, chunks[0], strings.Repeat("a", 40))
	require.Contains(t, chunks[0], strings.Repeat("b", 40))
	require.Equal(t, strings.Repeat("c", 40), chunks[1])
}

func TestSplit_LosslessContent(t *testing.T) {
	paragraphs := []string{
		"The quick brown fox jumps over the lazy dog. It was a bright day.",
		"Second paragraph talks about something else entirely! Short one.",
		"Third paragraph. With several sentences? Yes, with several sentences.",
		strings.Repeat("word ", 200),
	}
	text := strings.Join(paragraphs, "\n\n")

	chunks := Split(text, 120)
	require.NotEmpty(t, chunks)

	// Content survives chunking once whitespace is normalized away.
	squash := func(s string) string {
		return strings.Join(strings.Fields(s), " ")
	}
	require.Equal(t, squash(text), squash(strings.Join(chunks, " ")))
}

func TestSplit_NoEmptyChunks(t *testing.T) {
	text := "one\n\n\n\n\n\ntwo\n\n \n\nthree"
	for _, chunk := range Split(text, 4) {
		require.NotEmpty(t, strings.TrimSpace(chunk))
	}
}

func TestSplit_NeverSplitsWords(t *testing.T) {
	words := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot"}
	text := "Sentence with " + strings.Join(words, " and ") + ". Another sentence follows here. And one more to round things out."

	chunks := Split(text, 40)
	for _, chunk := range chunks {
		for _, w := range strings.Fields(chunk) {
			trimmed := strings.Trim(w, ".,!?")
			for _, full := range words {
				if strings.Contains(full, trimmed) && trimmed != full && len(trimmed) > 2 {
					t.Fatalf("word fragment %q found in chunk %q", trimmed, chunk)
				}
			}
		}
	}
}

func TestSplit_OversizedParagraphFallsBackToSentences(t *testing.T) {
	// One paragraph with no blank lines, far over budget.
	var sb strings.Builder
	for i := 0; i < 50; i++ {
		sb.WriteString("This sentence is number ")
		sb.WriteString(strings.Repeat("x", 10))
		sb.WriteString(". ")
	}
	chunks := Split(sb.String(), 100)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		require.LessOrEqual(t, len(chunk), 120, "chunk exceeds sentence-packed budget: %q", chunk)
	}
}

func TestSplit_SingleHugeSentenceEmittedWhole(t *testing.T) {
	sentence := strings.Repeat("nobreaks ", 50)
	chunks := Split(sentence, 40)
	require.Equal(t, 1, len(chunks))
	require.Equal(t, strings.TrimSpace(sentence), chunks[0])
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("Some paragraph content here.\n\n", 100)
	first := Split(text, 300)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, Split(text, 300))
	}
}

func TestSplit_LargeDocumentScenario(t *testing.T) {
	// 250k chars at 90k target should land on 3 chunks.
	paragraph := strings.Repeat("The mitochondria is the powerhouse of the cell. ", 20)
	var sb strings.Builder
	for sb.Len() < 250000 {
		sb.WriteString(paragraph)
		sb.WriteString("\n\n")
	}
	text := sb.String()[:250000]

	chunks := Split(text, 90000)
	require.Len(t, chunks, 3)
	for _, chunk := range chunks {
		require.NotEmpty(t, chunk)
	}
}
