// Package prompt stores teleprompter scripts as one JSON file per prompt.
package prompt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Errors returned by store operations.
var (
	ErrNoChapters   = errors.New("prompt needs at least one chapter")
	ErrInvalidGUID  = errors.New("invalid GUID")
	ErrNotAPrompt   = errors.New("file is not a prompt")
	ErrEmptyName    = errors.New("friendly name cannot be empty")
	ErrNoMatchQuery = errors.New("provide a GUID, name, or file to match")
)

// requiredKeys must all be present for a JSON object to count as a prompt.
var requiredKeys = []string{"GUID", "chapters", "friendlyName", "index"}

// Prompt is a single teleprompter script.
type Prompt struct {
	GUID         string   `json:"GUID" yaml:"guid"`
	Chapters     []string `json:"chapters" yaml:"chapters"`
	FriendlyName string   `json:"friendlyName" yaml:"friendlyName"`
	Index        int      `json:"index" yaml:"index"`
}

// NewGUID returns a random upper-case UUID.
func NewGUID() string {
	return strings.ToUpper(uuid.NewString())
}

// NormalizeGUID validates guid and returns it upper-cased.
func NormalizeGUID(guid string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(guid))
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidGUID, guid, err)
	}
	return strings.ToUpper(parsed.String()), nil
}

// FileName returns the file name a prompt is stored under.
func (p *Prompt) FileName() string {
	return strings.ToUpper(p.GUID) + ".json"
}

// Validate checks the fields needed before writing.
func (p *Prompt) Validate() error {
	if strings.TrimSpace(p.FriendlyName) == "" {
		return ErrEmptyName
	}
	if len(p.Chapters) == 0 {
		return ErrNoChapters
	}
	if _, err := NormalizeGUID(p.GUID); err != nil {
		return err
	}
	return nil
}

// Marshal renders p as the on-disk JSON: 4-space indent, non-ASCII kept,
// trailing newline.
func (p *Prompt) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Parse decodes a prompt. Objects missing any required key are rejected
// with ErrNotAPrompt.
func Parse(data []byte) (*Prompt, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAPrompt, err)
	}
	for _, key := range requiredKeys {
		if _, ok := raw[key]; !ok {
			return nil, fmt.Errorf("%w: missing %q", ErrNotAPrompt, key)
		}
	}

	var doc struct {
		GUID         string          `json:"GUID"`
		Chapters     []string        `json:"chapters"`
		FriendlyName string          `json:"friendlyName"`
		Index        json.RawMessage `json:"index"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAPrompt, err)
	}
	index, err := parseIndex(doc.Index)
	if err != nil {
		return nil, fmt.Errorf("%w: index: %v", ErrNotAPrompt, err)
	}
	return &Prompt{
		GUID:         doc.GUID,
		Chapters:     doc.Chapters,
		FriendlyName: doc.FriendlyName,
		Index:        index,
	}, nil
}

// parseIndex accepts the index forms other tools write: integers, floats
// (truncated), integer strings and booleans.
func parseIndex(raw json.RawMessage) (int, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, fmt.Errorf("invalid number %v", x)
		}
		return int(x), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(x))
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("unsupported value %s", raw)
}

// Entry is a prompt together with the file it was read from.
type Entry struct {
	Path   string
	Prompt *Prompt
}

// File returns the entry's base file name.
func (e Entry) File() string {
	return filepath.Base(e.Path)
}

// Store manages the prompt files in one directory.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store's directory.
func (s *Store) Dir() string {
	return s.dir
}

// EnsureDir creates the store directory if needed.
func (s *Store) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}
	return nil
}

// List returns every valid prompt in the directory, sorted by file name.
// Files that are not prompts are skipped.
func (s *Store) List() ([]Entry, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	entries := make([]Entry, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Debug("skip unreadable prompt file", "path", path, "error", err)
			continue
		}
		p, err := Parse(data)
		if err != nil {
			slog.Debug("skip non-prompt file", "path", path, "error", err)
			continue
		}
		entries = append(entries, Entry{Path: path, Prompt: p})
	}
	return entries, nil
}

// NextIndex returns one more than the highest index in the directory.
func (s *Store) NextIndex() (int, error) {
	entries, err := s.List()
	if err != nil {
		return 0, err
	}
	highest := 0
	for _, e := range entries {
		if e.Prompt.Index > highest {
			highest = e.Prompt.Index
		}
	}
	return highest + 1, nil
}

// Write stores p as <GUID>.json and returns the path written.
func (s *Store) Write(p *Prompt) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	p.GUID = strings.ToUpper(p.GUID)

	if err := s.EnsureDir(); err != nil {
		return "", err
	}

	data, err := p.Marshal()
	if err != nil {
		return "", fmt.Errorf("encode prompt: %w", err)
	}

	path := filepath.Join(s.dir, p.FileName())
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write prompt: %w", err)
	}
	return path, nil
}

// Match selects prompts. A prompt matches if any non-empty field matches:
// GUID case-insensitively, Name trimmed and case-insensitively, File exactly.
type Match struct {
	GUID string
	Name string
	File string
}

// IsZero reports whether no criteria are set.
func (m Match) IsZero() bool {
	return m.GUID == "" && m.Name == "" && m.File == ""
}

func (m Match) matches(e Entry) bool {
	if m.GUID != "" && strings.EqualFold(e.Prompt.GUID, m.GUID) {
		return true
	}
	if m.File != "" && e.File() == m.File {
		return true
	}
	if name := strings.TrimSpace(m.Name); name != "" &&
		strings.EqualFold(strings.TrimSpace(e.Prompt.FriendlyName), name) {
		return true
	}
	return false
}

// Find returns the prompts selected by m.
func (s *Store) Find(m Match) ([]Entry, error) {
	if m.IsZero() {
		return nil, ErrNoMatchQuery
	}
	entries, err := s.List()
	if err != nil {
		return nil, err
	}
	var matches []Entry
	for _, e := range entries {
		if m.matches(e) {
			matches = append(matches, e)
		}
	}
	return matches, nil
}

// Delete removes an entry's file.
func (s *Store) Delete(e Entry) error {
	if err := os.Remove(e.Path); err != nil {
		return fmt.Errorf("delete %s: %w", e.File(), err)
	}
	return nil
}

// Names returns the distinct friendly names in the store.
func (s *Store) Names() ([]string, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var names []string
	for _, e := range entries {
		if !seen[e.Prompt.FriendlyName] {
			seen[e.Prompt.FriendlyName] = true
			names = append(names, e.Prompt.FriendlyName)
		}
	}
	return names, nil
}

var slugRegex = regexp.MustCompile(`[^a-z0-9]+`)

// DefaultSlugLength is the maximum length Slugify produces.
const DefaultSlugLength = 48

// Slugify lower-cases value, collapses runs of other characters into "-",
// and cuts the result at maxLen. Empty results become "prompt".
func Slugify(value string, maxLen int) string {
	slug := slugRegex.ReplaceAllString(strings.ToLower(strings.TrimSpace(value)), "-")
	slug = strings.Trim(slug, "-")
	if maxLen > 0 && len(slug) > maxLen {
		slug = strings.TrimRight(slug[:maxLen], "-")
	}
	if slug == "" {
		return "prompt"
	}
	return slug
}
