// Package parser extracts frontmatter, references, and link definitions
// from Markdown content. It is the external-parser boundary of the graph
// core: its output is fed to the workspace via set.
package parser

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/ansuz/internal/model"
	"github.com/starford/ansuz/internal/uri"
)

var (
	// [[target]] or [[target|alias]]; the target cannot contain brackets
	// or pipes.
	wikilinkRe = regexp.MustCompile(`\[\[([^\]\[|]+)(?:\|([^\]]+))?\]\]`)
	// [text](target), with an optional leading ! for images.
	mdLinkRe = regexp.MustCompile(`(!?)\[([^\]]*)\]\(([^)\s]+)(?:\s+"[^"]*")?\)`)
	// [label]: target definition lines.
	defRe = regexp.MustCompile(`^\s*\[([^\]]+)\]:\s*(\S+)`)
)

// Result holds the output of parsing a Markdown document.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Title       string
	Links       []model.Reference
	Definitions []model.Definition
}

// Parse extracts frontmatter, title, references, and definitions from raw
// Markdown bytes. References keep their source position: line and column
// are zero-based, with lines counted over the whole document including
// frontmatter.
func Parse(data []byte) (*Result, error) {
	fm, body, bodyLine := splitFrontmatter(data)

	res := &Result{
		Frontmatter: fm,
		Body:        body,
		Title:       deriveTitle(fm, body),
	}

	for i, line := range strings.Split(body, "\n") {
		lineNo := bodyLine + i

		if m := defRe.FindStringSubmatch(line); m != nil {
			res.Definitions = append(res.Definitions, model.Definition{
				Label:  strings.TrimSpace(m[1]),
				Target: m[2],
			})
			continue
		}

		masked := line
		for _, idx := range wikilinkRe.FindAllStringSubmatchIndex(line, -1) {
			start, end := idx[0], idx[1]
			target := strings.TrimSpace(line[idx[2]:idx[3]])
			if target != "" {
				res.Links = append(res.Links, model.Reference{
					Kind:  model.RefShort,
					Value: target,
					Range: span(lineNo, start, end),
				})
			}
			masked = masked[:start] + strings.Repeat(" ", end-start) + masked[end:]
		}

		for _, idx := range mdLinkRe.FindAllStringSubmatchIndex(masked, -1) {
			if idx[2] != idx[3] { // image: leading "!"
				continue
			}
			target := masked[idx[6]:idx[7]]
			if target == "" || strings.HasPrefix(target, "#") || uri.HasScheme(target) {
				continue
			}
			res.Links = append(res.Links, model.Reference{
				Kind:  model.RefDirect,
				Value: target,
				Range: span(lineNo, idx[0], idx[1]),
			})
		}
	}

	return res, nil
}

// ToNote parses data and shapes it as a workspace note at path.
func ToNote(path string, data []byte) (*model.Note, error) {
	res, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return &model.Note{
		ID:          uri.ForDocument(path),
		Title:       res.Title,
		Links:       res.Links,
		Definitions: res.Definitions,
	}, nil
}

func span(line, start, end int) model.Range {
	return model.Range{
		Start: model.Position{Line: line, Column: start},
		End:   model.Position{Line: line, Column: end},
	}
}

// splitFrontmatter separates YAML frontmatter (between leading ---
// delimiters) from the body and reports the body's starting line. Invalid
// or missing frontmatter yields the whole content as body.
func splitFrontmatter(data []byte) (map[string]any, string, int) {
	const delim = "---"
	if !bytes.HasPrefix(data, []byte(delim)) {
		return nil, string(data), 0
	}
	rest := data[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data), 0
	}

	yamlBlock := rest[:idx]
	after := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(after), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return nil, string(data), 0
	}

	consumed := len(data) - len(body)
	bodyLine := bytes.Count(data[:consumed], []byte("\n"))
	return fm, body, bodyLine
}

// deriveTitle returns the frontmatter "title" if present, otherwise the
// first H1 heading, otherwise empty.
func deriveTitle(fm map[string]any, body string) string {
	if fm != nil {
		if t, ok := fm["title"].(string); ok && t != "" {
			return t
		}
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
