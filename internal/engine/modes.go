package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

type Mode string

const (
	ModeSummary    Mode = "summary"
	ModeNotes      Mode = "notes"
	ModeQuiz       Mode = "quiz"
	ModeFlashcards Mode = "flashcards"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeSummary:
		return ModeSummary, nil
	case ModeNotes:
		return ModeNotes, nil
	case ModeQuiz:
		return ModeQuiz, nil
	case ModeFlashcards:
		return ModeFlashcards, nil
	}
	return "", fmt.Errorf("unknown artifact mode: %s", s)
}

func Modes() []Mode {
	return []Mode{ModeSummary, ModeNotes, ModeQuiz, ModeFlashcards}
}

// ChunkContext is what a chunk prompt gets to work with: the chunk itself,
// its position, and a short digest of output accumulated so far to keep the
// generated pieces coherent across chunks.
type ChunkContext struct {
	Text   string
	Index  int
	Total  int
	First  bool
	Last   bool
	Digest string
}

// PromptSet is the per-mode strategy. The engine drives the same map-reduce
// flow for every artifact type; a mode contributes only its prompts and its
// post-processing.
type PromptSet interface {
	Mode() Mode
	ChunkPrompt(c ChunkContext) string
	CombinePrompt(parts []string) string
	PostProcess(ctx context.Context, text string) (string, error)
}

func ForMode(mode Mode) (PromptSet, error) {
	switch mode {
	case ModeSummary:
		return summaryPrompts{}, nil
	case ModeNotes:
		return notesPrompts{}, nil
	case ModeQuiz:
		return quizPrompts{}, nil
	case ModeFlashcards:
		return flashcardPrompts{}, nil
	}
	return nil, fmt.Errorf("unknown artifact mode: %s", mode)
}

func positionLine(c ChunkContext) string {
	switch {
	case c.Total == 1:
		return "This is the complete document."
	case c.First:
		return fmt.Sprintf("This is part 1 of %d of the document.", c.Total)
	case c.Last:
		return fmt.Sprintf("This is the final part (%d of %d) of the document.", c.Index+1, c.Total)
	default:
		return fmt.Sprintf("This is part %d of %d of the document.", c.Index+1, c.Total)
	}
}

func digestLine(c ChunkContext) string {
	if c.Digest == "" {
		return ""
	}
	return fmt.Sprintf("\nFor continuity, the output so far ends with:\n...%s\n", c.Digest)
}

func labelledParts(parts []string) string {
	var sb strings.Builder
	for i, part := range parts {
		if i > 0 {
			sb.WriteString("\n\n---\n\n")
		}
		fmt.Fprintf(&sb, "PART %d:\n%s", i+1, part)
	}
	return sb.String()
}

type summaryPrompts struct{}

func (summaryPrompts) Mode() Mode { return ModeSummary }

func (p summaryPrompts) ChunkPrompt(c ChunkContext) string {
	return fmt.Sprintf(`You are a study assistant.
%s
Write a thorough study summary of the content below in markdown.
- Keep key facts, definitions and arguments.
- Use the same language as the content.
- Output ONLY the summary markdown.
%s
CONTENT:
%s`, positionLine(c), digestLine(c), c.Text)
}

func (p summaryPrompts) CombinePrompt(parts []string) string {
	return fmt.Sprintf(`You are a study assistant.
Below are partial study summaries of consecutive parts of one document.
Merge them into ONE coherent study summary in markdown.
- Remove duplication across parts.
- Preserve all distinct facts and definitions.
- Output ONLY the merged summary markdown.

%s`, labelledParts(parts))
}

func (p summaryPrompts) PostProcess(ctx context.Context, text string) (string, error) {
	return strings.TrimSpace(text), nil
}

type notesPrompts struct{}

func (notesPrompts) Mode() Mode { return ModeNotes }

func (p notesPrompts) ChunkPrompt(c ChunkContext) string {
	return fmt.Sprintf(`You are a study assistant.
%s
Turn the content below into concise revision notes in markdown.
- Use headings and bullet points.
- Highlight terms to memorize in **bold**.
- Use the same language as the content.
- Output ONLY the notes markdown.
%s
CONTENT:
%s`, positionLine(c), digestLine(c), c.Text)
}

func (p notesPrompts) CombinePrompt(parts []string) string {
	return fmt.Sprintf(`You are a study assistant.
Below are revision notes for consecutive parts of one document.
Merge them into ONE coherent set of revision notes in markdown.
- Merge overlapping sections, remove duplication.
- Keep the heading structure flowing naturally.
- Output ONLY the merged notes markdown.

%s`, labelledParts(parts))
}

func (p notesPrompts) PostProcess(ctx context.Context, text string) (string, error) {
	return strings.TrimSpace(text), nil
}

type quizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

type quizPrompts struct{}

func (quizPrompts) Mode() Mode { return ModeQuiz }

func (p quizPrompts) ChunkPrompt(c ChunkContext) string {
	return fmt.Sprintf(`You are a quiz writer.
%s
Write 5 multiple-choice questions testing understanding of the content below.
Return a JSON array only, each element: {"question": "...", "options": ["...","...","...","..."], "answer": "..."}.
- The answer must be one of the options, verbatim.
- Use the same language as the content.
- No extra text outside the JSON array.
%s
CONTENT:
%s`, positionLine(c), digestLine(c), c.Text)
}

func (p quizPrompts) CombinePrompt(parts []string) string {
	return fmt.Sprintf(`You are a quiz writer.
Below are JSON arrays of quiz questions generated from consecutive parts of one document.
Merge them into ONE JSON array.
- Drop near-duplicate questions.
- Keep at most 20 questions, the most instructive ones.
- Return the JSON array only, no extra text.

%s`, labelledParts(parts))
}

// PostProcess parses the model's JSON, drops malformed entries, and renders
// the quiz as markdown.
func (p quizPrompts) PostProcess(ctx context.Context, text string) (string, error) {
	payload := extractJSONArray(text)
	var questions []quizQuestion
	if err := json.Unmarshal([]byte(payload), &questions); err != nil {
		return "", fmt.Errorf("parse quiz json: %w", err)
	}
	valid := questions[:0]
	for _, q := range questions {
		if strings.TrimSpace(q.Question) == "" || len(q.Options) < 2 || strings.TrimSpace(q.Answer) == "" {
			continue
		}
		valid = append(valid, q)
	}
	if len(valid) == 0 {
		return "", fmt.Errorf("quiz has no valid questions")
	}
	var sb strings.Builder
	sb.WriteString("# Quiz\n")
	for i, q := range valid {
		fmt.Fprintf(&sb, "\n**%d. %s**\n\n", i+1, strings.TrimSpace(q.Question))
		for j, opt := range q.Options {
			fmt.Fprintf(&sb, "- %c) %s\n", 'A'+j, strings.TrimSpace(opt))
		}
		fmt.Fprintf(&sb, "\n<details><summary>Answer</summary>%s</details>\n", strings.TrimSpace(q.Answer))
	}
	return sb.String(), nil
}

type flashcardPrompts struct{}

func (flashcardPrompts) Mode() Mode { return ModeFlashcards }

func (p flashcardPrompts) ChunkPrompt(c ChunkContext) string {
	return fmt.Sprintf(`You are a flashcard writer.
%s
Write flashcards for the content below, one per key fact or term.
Format each card exactly as:
Q: <question>
A: <answer>
- One blank line between cards.
- Use the same language as the content.
- Output ONLY the cards.
%s
CONTENT:
%s`, positionLine(c), digestLine(c), c.Text)
}

func (p flashcardPrompts) CombinePrompt(parts []string) string {
	return fmt.Sprintf(`You are a flashcard writer.
Below are flashcards generated from consecutive parts of one document.
Merge them into ONE deck in the same "Q: / A:" format.
- Drop duplicate cards.
- Keep the most instructive card when two overlap.
- Output ONLY the cards.

%s`, labelledParts(parts))
}

// PostProcess re-parses the Q/A pairs and drops duplicate questions the
// model let through.
func (p flashcardPrompts) PostProcess(ctx context.Context, text string) (string, error) {
	cards := parseFlashcards(text)
	if len(cards) == 0 {
		return "", fmt.Errorf("no flashcards found")
	}
	seen := make(map[string]bool)
	var sb strings.Builder
	sb.WriteString("# Flashcards\n")
	for _, card := range cards {
		key := strings.ToLower(strings.Join(strings.Fields(card[0]), " "))
		if seen[key] {
			continue
		}
		seen[key] = true
		fmt.Fprintf(&sb, "\nQ: %s\nA: %s\n", card[0], card[1])
	}
	return sb.String(), nil
}

func parseFlashcards(text string) [][2]string {
	var cards [][2]string
	var question string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Q:"):
			question = strings.TrimSpace(strings.TrimPrefix(line, "Q:"))
		case strings.HasPrefix(line, "A:"):
			answer := strings.TrimSpace(strings.TrimPrefix(line, "A:"))
			if question != "" && answer != "" {
				cards = append(cards, [2]string{question, answer})
			}
			question = ""
		}
	}
	return cards
}

// extractJSONArray strips code fences and surrounding prose around the
// first JSON array in the output.
func extractJSONArray(output string) string {
	clean := strings.TrimSpace(output)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)
	start := strings.Index(clean, "[")
	end := strings.LastIndex(clean, "]")
	if start >= 0 && end > start {
		clean = clean[start : end+1]
	}
	return clean
}
