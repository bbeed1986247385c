package prompt

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	guidA = "0B5D9E2A-6E1F-4C33-9A43-0E6C9A7D1A01"
	guidB = "7C1E8F5B-2D4A-4B9E-8C11-3F2A6B9E4D02"
)

func writeRaw(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"Hello, World!", DefaultSlugLength, "hello-world"},
		{"  --Weekly  Update--  ", DefaultSlugLength, "weekly-update"},
		{"!!!", DefaultSlugLength, "prompt"},
		{"", DefaultSlugLength, "prompt"},
		{"abc def ghi", 4, "abc"},
		{"Ünïcode Stüff", DefaultSlugLength, "n-code-st-ff"},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Slugify(tc.in, tc.max))
		})
	}
}

func TestNormalizeGUID(t *testing.T) {
	got, err := NormalizeGUID(strings.ToLower(guidA))
	require.NoError(t, err)
	assert.Equal(t, guidA, got)

	_, err = NormalizeGUID("not-a-guid")
	assert.ErrorIs(t, err, ErrInvalidGUID)
}

func TestNewGUID(t *testing.T) {
	g := NewGUID()
	assert.Equal(t, strings.ToUpper(g), g)
	_, err := NormalizeGUID(g)
	assert.NoError(t, err)
}

func TestParse_RequiresAllKeys(t *testing.T) {
	_, err := Parse([]byte(`{"GUID": "x", "chapters": [], "friendlyName": "n"}`))
	assert.ErrorIs(t, err, ErrNotAPrompt)

	_, err = Parse([]byte(`[1, 2]`))
	assert.ErrorIs(t, err, ErrNotAPrompt)

	p, err := Parse([]byte(`{"GUID": "x", "chapters": ["a"], "friendlyName": "n", "index": 3, "extra": true}`))
	require.NoError(t, err)
	assert.Equal(t, 3, p.Index)
}

func TestParse_LenientIndex(t *testing.T) {
	tests := []struct {
		index   string
		want    int
		wantErr bool
	}{
		{`5`, 5, false},
		{`5.9`, 5, false},
		{`"7"`, 7, false},
		{`" 8 "`, 8, false},
		{`true`, 1, false},
		{`"five"`, 0, true},
		{`"5.0"`, 0, true},
		{`null`, 0, true},
		{`[1]`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.index, func(t *testing.T) {
			p, err := Parse([]byte(`{"GUID": "x", "chapters": ["a"], "friendlyName": "n", "index": ` + tt.index + `}`))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotAPrompt)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Index)
		})
	}
}

func TestStore_ListsStringIndexFiles(t *testing.T) {
	dir := t.TempDir()
	data := `{"GUID": "` + guidA + `", "chapters": ["a"], "friendlyName": "Legacy", "index": "5"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, guidA+".json"), []byte(data), 0o644))

	s := NewStore(dir)
	entries, err := s.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 5, entries[0].Prompt.Index)

	next, err := s.NextIndex()
	require.NoError(t, err)
	assert.Equal(t, 6, next)
}

func TestStore_WriteFormat(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	path, err := s.Write(&Prompt{
		GUID:         strings.ToLower(guidA),
		Chapters:     []string{"Café <intro>", "Second"},
		FriendlyName: "Morning Show",
		Index:        2,
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, guidA+".json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := `{
    "GUID": "` + guidA + `",
    "chapters": [
        "Café <intro>",
        "Second"
    ],
    "friendlyName": "Morning Show",
    "index": 2
}
`
	if diff := cmp.Diff(want, string(data)); diff != "" {
		t.Errorf("file content mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_WriteValidates(t *testing.T) {
	s := NewStore(t.TempDir())

	_, err := s.Write(&Prompt{GUID: guidA, FriendlyName: "x"})
	assert.ErrorIs(t, err, ErrNoChapters)

	_, err = s.Write(&Prompt{GUID: guidA, Chapters: []string{"a"}})
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = s.Write(&Prompt{GUID: "nope", FriendlyName: "x", Chapters: []string{"a"}})
	assert.ErrorIs(t, err, ErrInvalidGUID)
}

func TestStore_ListSkipsNonPrompts(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	_, err := s.Write(&Prompt{GUID: guidB, FriendlyName: "B", Chapters: []string{"b"}, Index: 1})
	require.NoError(t, err)
	_, err = s.Write(&Prompt{GUID: guidA, FriendlyName: "A", Chapters: []string{"a"}, Index: 5})
	require.NoError(t, err)
	writeRaw(t, dir, "broken.json", "{not json")
	writeRaw(t, dir, "other.json", `{"hello": "world"}`)
	writeRaw(t, dir, "notes.txt", "ignored")

	entries, err := s.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, guidA+".json", entries[0].File())
	assert.Equal(t, guidB+".json", entries[1].File())

	next, err := s.NextIndex()
	require.NoError(t, err)
	assert.Equal(t, 6, next)
}

func TestStore_NextIndexEmpty(t *testing.T) {
	next, err := NewStore(t.TempDir()).NextIndex()
	require.NoError(t, err)
	assert.Equal(t, 1, next)
}

func TestStore_Find(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	_, err := s.Write(&Prompt{GUID: guidA, FriendlyName: "Daily Standup", Chapters: []string{"a"}, Index: 1})
	require.NoError(t, err)
	_, err = s.Write(&Prompt{GUID: guidB, FriendlyName: "Weekly Review", Chapters: []string{"b"}, Index: 2})
	require.NoError(t, err)

	tests := []struct {
		name  string
		match Match
		want  []string
	}{
		{"guid case-insensitive", Match{GUID: strings.ToLower(guidA)}, []string{guidA}},
		{"name trimmed case-insensitive", Match{Name: "  daily standup "}, []string{guidA}},
		{"file exact", Match{File: guidB + ".json"}, []string{guidB}},
		{"file is case-sensitive", Match{File: strings.ToLower(guidB) + ".json"}, nil},
		{"any criterion", Match{GUID: guidA, Name: "Weekly Review"}, []string{guidA, guidB}},
		{"no match", Match{Name: "missing"}, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			entries, err := s.Find(tc.match)
			require.NoError(t, err)
			var got []string
			for _, e := range entries {
				got = append(got, e.Prompt.GUID)
			}
			assert.Equal(t, tc.want, got)
		})
	}

	_, err = s.Find(Match{})
	assert.True(t, errors.Is(err, ErrNoMatchQuery))
}

func TestStore_Delete(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	_, err := s.Write(&Prompt{GUID: guidA, FriendlyName: "A", Chapters: []string{"a"}, Index: 1})
	require.NoError(t, err)

	entries, err := s.Find(Match{GUID: guidA})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NoError(t, s.Delete(entries[0]))

	_, err = os.Stat(entries[0].Path)
	assert.True(t, os.IsNotExist(err))
	assert.Error(t, s.Delete(entries[0]))
}

func TestStore_Names(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	_, err := s.Write(&Prompt{GUID: guidA, FriendlyName: "Same", Chapters: []string{"a"}, Index: 1})
	require.NoError(t, err)
	_, err = s.Write(&Prompt{GUID: guidB, FriendlyName: "Same", Chapters: []string{"b"}, Index: 2})
	require.NoError(t, err)

	names, err := s.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"Same"}, names)
}
