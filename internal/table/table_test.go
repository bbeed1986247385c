package table

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tessro/elgato-prompter-text/internal/prompt"
)

func sampleRows() []Row {
	return Rows([]prompt.Entry{
		{Path: "/p/AAA.json", Prompt: &prompt.Prompt{GUID: "aaa", FriendlyName: "Alpha Show", Index: 10, Chapters: []string{"one", "two"}}},
		{Path: "/p/BBB.json", Prompt: &prompt.Prompt{GUID: "BBB", FriendlyName: "Beta", Index: 2, Chapters: []string{"only"}}},
		{Path: "/p/CCC.json", Prompt: &prompt.Prompt{GUID: "CCC", FriendlyName: "Gamma <live>", Index: 1, Chapters: []string{"a", "b", "c"}}},
	})
}

func TestRows(t *testing.T) {
	rows := sampleRows()
	want := Row{
		Index:         10,
		FriendlyName:  "Alpha Show",
		GUID:          "AAA",
		ChaptersCount: 2,
		File:          "AAA.json",
		Slug:          "alpha-show",
		Chapters:      []string{"one", "two"},
	}
	if diff := cmp.Diff(want, rows[0]); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveColumns(t *testing.T) {
	cols, err := ResolveColumns(Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultColumns, cols)

	cols, err = ResolveColumns(Options{Columns: []string{"GUID", "index"}, ShowChapters: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"GUID", "index", "chapters"}, cols)

	cols, err = ResolveColumns(Options{Columns: []string{"chapters"}, ShowChapters: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"chapters"}, cols)

	_, err = ResolveColumns(Options{Columns: []string{"index", "bogus", "nope"}})
	require.ErrorIs(t, err, ErrUnknownColumn)
	assert.Contains(t, err.Error(), "bogus, nope")
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want []int
	}{
		{"numeric index sort", Options{Sort: ColIndex, Limit: -1}, []int{1, 2, 10}},
		{"reverse", Options{Sort: ColIndex, Reverse: true, Limit: -1}, []int{10, 2, 1}},
		{"text sort", Options{Sort: ColFriendlyName, Limit: -1}, []int{10, 2, 1}},
		{"chapter count", Options{Sort: ColChaptersCount, Limit: -1}, []int{2, 10, 1}},
		{"limit", Options{Sort: ColIndex, Limit: 2}, []int{1, 2}},
		{"zero limit", Options{Sort: ColIndex, Limit: 0}, nil},
		{"no sort keeps order", Options{Limit: -1}, []int{10, 2, 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rows, err := Select(sampleRows(), tc.opts)
			require.NoError(t, err)
			var got []int
			for _, r := range rows {
				got = append(got, r.Index)
			}
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := Select(sampleRows(), Options{Sort: "bogus"})
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestRender_Plain(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, sampleRows(), Options{
		Columns: []string{ColIndex, ColFriendlyName},
		Sort:    ColIndex,
		Limit:   -1,
		Format:  FormatPlain,
	})
	require.NoError(t, err)

	want := "index  friendlyName\n" +
		"-----  ------------\n" +
		"1      Gamma <live>\n" +
		"2      Beta\n" +
		"10     Alpha Show\n"
	assert.Equal(t, want, buf.String())
}

func TestRender_PlainChapters(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, sampleRows()[:1], Options{
		Columns:      []string{ColGUID},
		ShowChapters: true,
		Limit:        -1,
		Format:       FormatPlain,
	})
	require.NoError(t, err)
	assert.Equal(t, "GUID  chapters\n----  ---------\nAAA   one | two\n", buf.String())
}

func TestRender_Table(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, sampleRows(), Options{Sort: ColIndex, Limit: -1, Format: FormatTable})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "friendlyName")
	assert.Contains(t, out, "chaptersCount")
	assert.Contains(t, out, "Alpha Show")
	assert.Less(t, strings.Index(out, "Gamma"), strings.Index(out, "Alpha Show"))
}

func TestRender_TableTruncatesChapters(t *testing.T) {
	rows := Rows([]prompt.Entry{{
		Path:   "/p/AAA.json",
		Prompt: &prompt.Prompt{GUID: "AAA", FriendlyName: "Long", Index: 1, Chapters: []string{strings.Repeat("x", 50)}},
	}})

	var buf bytes.Buffer
	err := Render(&buf, rows, Options{Columns: []string{ColChapters}, Limit: -1, ChapterWidth: 10})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "xxxxxxxxx…")
	assert.NotContains(t, buf.String(), strings.Repeat("x", 11))
}

func TestRender_Empty(t *testing.T) {
	for _, f := range []Format{FormatTable, FormatPlain} {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, nil, Options{Format: f, Limit: -1}))
		assert.Equal(t, EmptyMessage+"\n", buf.String())
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, nil, Options{Format: FormatJSON, Limit: -1}))
	assert.Equal(t, "[]\n", buf.String())
}

func TestRender_UnknownColumnBeforeEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, nil, Options{Columns: []string{"bogus"}, Limit: -1})
	assert.ErrorIs(t, err, ErrUnknownColumn)
	assert.Empty(t, buf.String())
}

func TestRender_UnknownFormat(t *testing.T) {
	err := Render(&bytes.Buffer{}, sampleRows(), Options{Format: "xml", Limit: -1})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestRender_JSONKeepsColumnOrder(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, sampleRows(), Options{
		Columns: []string{ColFriendlyName, ColIndex, ColChapters},
		Sort:    ColIndex,
		Limit:   1,
		Format:  FormatJSON,
	})
	require.NoError(t, err)

	want := `[
  {
    "friendlyName": "Gamma <live>",
    "index": 1,
    "chapters": [
      "a",
      "b",
      "c"
    ]
  }
]
`
	assert.Equal(t, want, buf.String())
}

func TestRender_YAML(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, sampleRows(), Options{
		Columns: []string{ColSlug, ColIndex},
		Sort:    ColIndex,
		Limit:   -1,
		Format:  FormatYAML,
	})
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 3)
	assert.Equal(t, "gamma-live", got[0]["slug"])
	assert.Equal(t, 1, got[0]["index"])

	out := buf.String()
	assert.Less(t, strings.Index(out, "slug"), strings.Index(out, "index"))
}
