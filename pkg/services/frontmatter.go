package services

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/adrg/frontmatter"
	"github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"blog-admin/pkg/models"
)

const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
	FormatJSON = "json"
)

// documentMeta is the front matter written on export.
type documentMeta struct {
	Title     string   `yaml:"title" toml:"title" json:"title"`
	Status    string   `yaml:"status" toml:"status" json:"status"`
	Tags      []string `yaml:"tags" toml:"tags" json:"tags"`
	Author    string   `yaml:"author,omitempty" toml:"author,omitempty" json:"author,omitempty"`
	CreatedAt string   `yaml:"created_at,omitempty" toml:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt string   `yaml:"updated_at,omitempty" toml:"updated_at,omitempty" json:"updated_at,omitempty"`
	Content   string   `yaml:"-" toml:"-" json:"content,omitempty"`
}

// importMeta is what an imported document may carry. Hugo style
// "draft: true|false" is honoured when status is absent.
type importMeta struct {
	Title   string   `yaml:"title" toml:"title" json:"title"`
	Status  string   `yaml:"status" toml:"status" json:"status"`
	Tags    []string `yaml:"tags" toml:"tags" json:"tags"`
	Draft   *bool    `yaml:"draft" toml:"draft" json:"draft"`
	Content string   `yaml:"-" toml:"-" json:"content"`
}

// NormalizeFormat maps user input to a supported export format.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "yaml", "yml", "md", "markdown":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", wrapValidation(fmt.Errorf("unsupported format: %s", format))
	}
}

// ExportArticle renders an article as a markdown document with front matter.
func ExportArticle(article models.Article, format string) ([]byte, error) {
	format, err := NormalizeFormat(format)
	if err != nil {
		return nil, err
	}

	meta := documentMeta{
		Title:  article.Title,
		Status: article.Status,
		Tags:   article.TagNames(),
		Author: article.Author.Username,
	}
	if !article.CreatedAt.IsZero() {
		meta.CreatedAt = article.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !article.UpdatedAt.IsZero() {
		meta.UpdatedAt = article.UpdatedAt.UTC().Format(time.RFC3339)
	}

	if format == FormatJSON {
		meta.Content = article.Content
		return ConstructFileContent(meta, "", format)
	}
	return ConstructFileContent(meta, article.Content, format)
}

// ConstructFileContent writes fm in the given format followed by body.
func ConstructFileContent(fm any, body string, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatYAML:
		buf.WriteString("---\n")
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(fm); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		buf.WriteString("---\n")
	case FormatTOML:
		buf.WriteString("+++\n")
		enc := toml.NewEncoder(&buf)
		if err := enc.Encode(fm); err != nil {
			return nil, err
		}
		buf.WriteString("+++\n")
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(fm); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}

	if body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// ParseArticleDocument reads a markdown document (optionally with YAML,
// TOML or JSON front matter) into a create request. The result still has
// to pass validation when sent.
func ParseArticleDocument(data []byte) (models.CreateArticleRequest, error) {
	var meta importMeta
	body, err := frontmatter.Parse(bytes.NewReader(data), &meta)
	if err != nil {
		return models.CreateArticleRequest{}, wrapValidation(fmt.Errorf("parse front matter: %w", err))
	}

	content := trimBlankLines(string(body))
	if content == "" && meta.Content != "" {
		content = trimBlankLines(meta.Content)
	}

	req := models.CreateArticleRequest{
		Title:   strings.TrimSpace(meta.Title),
		Content: content,
		Status:  strings.ToLower(strings.TrimSpace(meta.Status)),
		Tags:    models.CleanTags(meta.Tags),
	}
	// Without a status or draft flag the caller's default applies.
	if req.Status == "" && meta.Draft != nil {
		req.Status = models.StatusPublished
		if *meta.Draft {
			req.Status = models.StatusDraft
		}
	}
	if req.Title == "" {
		req.Title = firstHeading(content)
	}
	return req, nil
}

func firstHeading(content string) string {
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}

func normalizeLineEndings(input string) string {
	return strings.ReplaceAll(input, "\r\n", "\n")
}

// trimBlankLines drops surrounding blank lines and trailing whitespace but
// keeps the indentation of the first line.
func trimBlankLines(input string) string {
	lines := strings.Split(normalizeLineEndings(input), "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	return strings.TrimRightFunc(strings.Join(lines, "\n"), unicode.IsSpace)
}
