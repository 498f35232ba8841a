package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarkdownRenderer_BasicBlocks(t *testing.T) {
	r := newMarkdownRenderer()
	html, err := r.Render("# Title\n\n- item one\n- item two\n")
	require.NoError(t, err)
	require.Contains(t, html, "<h1 id=\"title\">Title</h1>")
	require.Contains(t, html, "<li>item one</li>")
}

func TestMarkdownRenderer_KeepsRawDetailsBlocks(t *testing.T) {
	r := newMarkdownRenderer()
	html, err := r.Render("**1. What is X?**\n\n<details><summary>Answer</summary>B</details>\n")
	require.NoError(t, err)
	require.Contains(t, html, "<details><summary>Answer</summary>B</details>")
}

func TestMarkdownRenderer_GFMTable(t *testing.T) {
	r := newMarkdownRenderer()
	html, err := r.Render("| a | b |\n|---|---|\n| 1 | 2 |\n")
	require.NoError(t, err)
	require.Contains(t, html, "<table>")
}
