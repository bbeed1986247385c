package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLines(t *testing.T) {
	got := Lines("one\n\n  two  \r\n   \nthree")
	assert.Equal(t, []string{"one", "  two  ", "three"}, got)
	assert.Empty(t, Lines("\n\n"))
}

func TestMarkdown(t *testing.T) {
	src := "# Intro\n" +
		"\n" +
		"Hello **world**, see `code`.\n" +
		"Second line\n" +
		"\n" +
		"- one\n" +
		"- *two*\n" +
		"\n" +
		"```go\n" +
		"x := 1\n" +
		"```\n" +
		"\n" +
		"<https://example.com>\n" +
		"\n" +
		"---\n" +
		"\n" +
		"[Closing](https://example.com) thoughts\n"

	want := []string{
		"Intro",
		"Hello world, see code.",
		"Second line",
		"one",
		"two",
		"x := 1",
		"https://example.com",
		"Closing thoughts",
	}
	assert.Equal(t, want, Markdown([]byte(src)))
}

func TestMarkdown_PlainTextPassesThrough(t *testing.T) {
	src := "Welcome everyone\nToday we cover three things\n\nThanks for watching"
	assert.Equal(t, []string{
		"Welcome everyone",
		"Today we cover three things",
		"Thanks for watching",
	}, Markdown([]byte(src)))
}

func TestParse_Frontmatter(t *testing.T) {
	data := []byte("---\nname: Morning Show\nindex: 4\nguid: 0b5d9e2a-6e1f-4c33-9a43-0e6c9a7d1a01\n---\nFirst\n\nSecond\n")

	doc, err := Parse(data, false)
	require.NoError(t, err)
	assert.Equal(t, "Morning Show", doc.Meta.Name)
	require.NotNil(t, doc.Meta.Index)
	assert.Equal(t, 4, *doc.Meta.Index)
	assert.Equal(t, "0b5d9e2a-6e1f-4c33-9a43-0e6c9a7d1a01", doc.Meta.GUID)
	assert.Equal(t, []string{"First", "Second"}, doc.Chapters)
}

func TestParse_NoFrontmatter(t *testing.T) {
	doc, err := Parse([]byte("# Title\nBody text\n"), true)
	require.NoError(t, err)
	assert.Equal(t, Meta{}, doc.Meta)
	assert.Equal(t, []string{"Title", "Body text"}, doc.Chapters)
}

func TestParse_UnterminatedFrontmatter(t *testing.T) {
	_, err := Parse([]byte("---\nname: x\nbody"), false)
	assert.ErrorIs(t, err, ErrUnterminatedFrontmatter)
}

func TestParse_BadYAML(t *testing.T) {
	_, err := Parse([]byte("---\nindex: [oops\n---\nbody\n"), false)
	assert.Error(t, err)
}

func TestParse_Empty(t *testing.T) {
	doc, err := Parse(nil, false)
	require.NoError(t, err)
	assert.Empty(t, doc.Chapters)
}
