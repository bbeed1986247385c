// Package script turns free text into prompter chapters.
//
// The prompter shows one chapter per line, so every source format is
// reduced to a list of non-blank lines. A script file may start with YAML
// frontmatter naming the prompt.
package script

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// ErrUnterminatedFrontmatter is returned when an opening "---" has no match.
var ErrUnterminatedFrontmatter = errors.New("missing closing frontmatter delimiter")

// Meta is the optional frontmatter of a script file.
type Meta struct {
	Name  string `yaml:"name"`
	Index *int   `yaml:"index"`
	GUID  string `yaml:"guid"`
}

// Document is a parsed script file.
type Document struct {
	Meta     Meta
	Chapters []string
}

// Lines returns every non-blank line of s with line endings removed.
func Lines(s string) []string {
	var out []string
	scanner := bufio.NewScanner(strings.NewReader(s))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// Markdown renders markdown source as plain chapters: one per heading,
// paragraph line, list item and code line. Formatting is dropped.
func Markdown(src []byte) []string {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var chapters []string
	var line strings.Builder
	flush := func() {
		if s := strings.TrimSpace(line.String()); s != "" {
			chapters = append(chapters, s)
		}
		line.Reset()
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				line.Write(node.Segment.Value(src))
				if node.SoftLineBreak() || node.HardLineBreak() {
					flush()
				}
			}
		case *ast.String:
			if entering {
				line.Write(node.Value)
			}
		case *ast.AutoLink:
			if entering {
				line.Write(node.Label(src))
			}
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				flush()
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					line.Write(seg.Value(src))
					flush()
				}
			}
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph, *ast.Heading, *ast.TextBlock:
			if !entering {
				flush()
			}
		}
		return ast.WalkContinue, nil
	})
	flush()

	return chapters
}

// Parse reads a script file. Frontmatter is optional; the body is split
// with Markdown when markdown is set and with Lines otherwise.
func Parse(data []byte, markdown bool) (*Document, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	if fm != nil {
		if err := yaml.Unmarshal(fm, &doc.Meta); err != nil {
			return nil, fmt.Errorf("parse frontmatter: %w", err)
		}
	}

	if markdown {
		doc.Chapters = Markdown(body)
	} else {
		doc.Chapters = Lines(string(body))
	}
	return doc, nil
}

// splitFrontmatter separates YAML frontmatter from the body.
// Data that does not open with --- has no frontmatter.
func splitFrontmatter(data []byte) ([]byte, []byte, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() {
		return nil, data, scanner.Err()
	}
	if strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff")) != "---" {
		return nil, data, nil
	}

	var fmLines []string
	foundClose := false
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "---" {
			foundClose = true
			break
		}
		fmLines = append(fmLines, line)
	}
	if !foundClose {
		return nil, nil, ErrUnterminatedFrontmatter
	}

	var bodyLines []string
	for scanner.Scan() {
		bodyLines = append(bodyLines, scanner.Text())
	}

	fm := []byte(strings.Join(fmLines, "\n"))
	body := []byte(strings.Join(bodyLines, "\n"))
	return fm, body, scanner.Err()
}
