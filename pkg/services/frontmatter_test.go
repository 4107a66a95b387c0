package services

import (
	"strings"
	"testing"
	"time"

	"blog-admin/pkg/models"
)

func exportSample() models.Article {
	return models.Article{
		ID:        3,
		Title:     "Hello",
		Content:   "# Hello\n\nSome *text*.",
		Status:    models.StatusPublished,
		Author:    models.Author{ID: 1, Username: "amy"},
		Tags:      []models.Tag{{ID: 1, Name: "go"}, {ID: 2, Name: "web"}},
		CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestExportArticleFormats(t *testing.T) {
	for _, format := range []string{"yaml", "toml", "json"} {
		t.Run(format, func(t *testing.T) {
			doc, err := ExportArticle(exportSample(), format)
			if err != nil {
				t.Fatalf("ExportArticle: %v", err)
			}

			req, err := ParseArticleDocument(doc)
			if err != nil {
				t.Fatalf("ParseArticleDocument: %v\n%s", err, doc)
			}
			if req.Title != "Hello" || req.Status != models.StatusPublished {
				t.Fatalf("unexpected request %+v\n%s", req, doc)
			}
			if strings.Join(req.Tags, ",") != "go,web" {
				t.Fatalf("tags = %v", req.Tags)
			}
			if req.Content != "# Hello\n\nSome *text*." {
				t.Fatalf("content = %q", req.Content)
			}
		})
	}
}

func TestExportArticleYAMLLayout(t *testing.T) {
	doc, err := ExportArticle(exportSample(), "")
	if err != nil {
		t.Fatal(err)
	}
	text := string(doc)
	if !strings.HasPrefix(text, "---\ntitle: Hello\n") {
		t.Fatalf("unexpected yaml document:\n%s", text)
	}
	if !strings.Contains(text, "created_at: \"2024-05-01T10:00:00Z\"") && !strings.Contains(text, "created_at: 2024-05-01T10:00:00Z") {
		t.Fatalf("created_at missing:\n%s", text)
	}
	if strings.Contains(text, "updated_at") {
		t.Fatalf("zero updated_at should be omitted:\n%s", text)
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	if _, err := ExportArticle(exportSample(), "xml"); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseArticleDocumentFallbacks(t *testing.T) {
	req, err := ParseArticleDocument([]byte("# From Heading\r\n\r\nBody text\r\n"))
	if err != nil {
		t.Fatalf("ParseArticleDocument: %v", err)
	}
	if req.Title != "From Heading" || req.Status != "" {
		t.Fatalf("unexpected request %+v", req)
	}
	if strings.Contains(req.Content, "\r") {
		t.Fatalf("line endings not normalized: %q", req.Content)
	}

	hugo := "+++\ntitle = \"Hugo post\"\ndraft = false\ntags = [\"a\", \" \"]\n+++\n\nbody\n"
	req, err = ParseArticleDocument([]byte(hugo))
	if err != nil {
		t.Fatalf("ParseArticleDocument: %v", err)
	}
	if req.Status != models.StatusPublished || len(req.Tags) != 1 {
		t.Fatalf("unexpected hugo request %+v", req)
	}

	req, err = ParseArticleDocument([]byte("---\ndraft: true\n---\nbody\n"))
	if err != nil {
		t.Fatalf("ParseArticleDocument: %v", err)
	}
	if req.Status != models.StatusDraft {
		t.Fatalf("draft: true should map to draft, got %q", req.Status)
	}
}

func TestExportKeepsLeadingIndentation(t *testing.T) {
	article := exportSample()
	article.Content = "    go test ./...\n\nRun the suite first."
	for _, format := range []string{"yaml", "toml", "json"} {
		t.Run(format, func(t *testing.T) {
			doc, err := ExportArticle(article, format)
			if err != nil {
				t.Fatalf("ExportArticle: %v", err)
			}
			req, err := ParseArticleDocument(doc)
			if err != nil {
				t.Fatalf("ParseArticleDocument: %v\n%s", err, doc)
			}
			if req.Content != article.Content {
				t.Fatalf("content = %q, want %q", req.Content, article.Content)
			}
		})
	}
}
