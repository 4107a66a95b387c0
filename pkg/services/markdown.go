package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"

	"blog-admin/pkg/models"
)

// Renderer turns article markdown into HTML for previews. A single
// instance is safe to share between requests.
type Renderer struct {
	engine goldmark.Markdown
}

func NewRenderer(cfg models.MarkdownConfig) *Renderer {
	return &Renderer{engine: newGoldmarkEngine(cfg)}
}

func (r *Renderer) Render(source string) (string, error) {
	var buf bytes.Buffer
	if err := r.engine.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("markdown render: %w", err)
	}
	return buf.String(), nil
}

func newGoldmarkEngine(cfg models.MarkdownConfig) goldmark.Markdown {
	rendererOptions := []renderer.Option{}
	if cfg.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}
	if !cfg.SafeMode {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	options := []goldmark.Option{
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithExtensions(collectExtensions(cfg.Extensions)...),
	}
	if len(rendererOptions) > 0 {
		options = append(options, goldmark.WithRendererOptions(rendererOptions...))
	}
	return goldmark.New(options...)
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
	"typographer":   extension.Typographer,
}

// collectExtensions maps configured names to goldmark extenders. Unknown
// names are skipped; an empty list means GFM with linkify and task lists.
func collectExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{extension.GFM, extension.Linkify, extension.TaskList}
	}

	var out []goldmark.Extender
	seen := map[string]struct{}{}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := seen[key]; dup {
			continue
		}
		ext, ok := extensionRegistry[key]
		if !ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ext)
	}
	return out
}
