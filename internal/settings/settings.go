// Package settings keeps the prompter's AppSettings.json library list in
// sync with the prompt files.
//
// AppSettings.json lives in the parent of the prompt directory and is owned
// by the desktop application, so every key other than the library list is
// preserved, in its original order.
package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the settings file name.
const FileName = "AppSettings.json"

// LibraryKey holds the ordered list of prompt GUIDs shown by the app.
const LibraryKey = "applogic.prompter.libraryList"

// PathFor returns the settings path for a prompt directory.
func PathFor(promptDir string) string {
	abs, err := filepath.Abs(promptDir)
	if err != nil {
		abs = promptDir
	}
	return filepath.Join(filepath.Dir(abs), FileName)
}

// File is a loaded settings document.
type File struct {
	path string
	doc  *object
}

// Load reads the settings file at path. A missing file yields an empty
// document; a top-level value that is not an object is treated as empty.
func Load(path string) (*File, error) {
	f := &File{path: path, doc: &object{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return f, nil
	}
	if err := json.Unmarshal(trimmed, f.doc); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return f, nil
}

// Path returns the settings file path.
func (f *File) Path() string {
	return f.path
}

// Library returns the library list as strings. A missing or non-list value
// reads as empty; non-string items appear as their JSON text.
func (f *File) Library() []string {
	items := f.libraryItems()
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, itemString(item))
	}
	return out
}

func (f *File) libraryItems() []json.RawMessage {
	raw, ok := f.doc.get(LibraryKey)
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

// itemString returns a string item's value, or the raw JSON text otherwise.
func itemString(item json.RawMessage) string {
	var s string
	if err := json.Unmarshal(item, &s); err != nil {
		return string(item)
	}
	return s
}

func (f *File) setLibrary(items []json.RawMessage) error {
	if items == nil {
		items = []json.RawMessage{}
	}
	raw, err := marshalNoEscape(items)
	if err != nil {
		return err
	}
	f.doc.set(LibraryKey, raw)
	return nil
}

// AddGUID appends guid (upper-cased) to the library list if absent.
// It reports whether the list changed.
func (f *File) AddGUID(guid string) (bool, error) {
	guid = strings.ToUpper(guid)
	items := f.libraryItems()
	for _, item := range items {
		if itemString(item) == guid {
			return false, f.setLibrary(items)
		}
	}
	raw, err := json.Marshal(guid)
	if err != nil {
		return false, err
	}
	return true, f.setLibrary(append(items, raw))
}

// RemoveGUIDs drops every listed GUID, compared case-insensitively, and
// returns how many entries were removed.
func (f *File) RemoveGUIDs(guids []string) (int, error) {
	drop := make(map[string]bool, len(guids))
	for _, g := range guids {
		drop[strings.ToUpper(g)] = true
	}

	items := f.libraryItems()
	kept := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		if !drop[strings.ToUpper(itemString(item))] {
			kept = append(kept, item)
		}
	}
	return len(items) - len(kept), f.setLibrary(kept)
}

// Save writes the document atomically: a sibling .tmp file is written and
// renamed over the original.
func (f *File) Save() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	data, err := f.doc.indent()
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

// AddGUID loads the settings next to promptDir, adds guid, and saves.
func AddGUID(promptDir, guid string) (string, error) {
	f, err := Load(PathFor(promptDir))
	if err != nil {
		return "", err
	}
	if _, err := f.AddGUID(guid); err != nil {
		return "", err
	}
	return f.path, f.Save()
}

// RemoveGUIDs loads the settings next to promptDir, removes guids, and saves.
func RemoveGUIDs(promptDir string, guids []string) (string, error) {
	f, err := Load(PathFor(promptDir))
	if err != nil {
		return "", err
	}
	if _, err := f.RemoveGUIDs(guids); err != nil {
		return "", err
	}
	return f.path, f.Save()
}
