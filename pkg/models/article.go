package models

import (
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Article is a blog post as returned by the backend.
type Article struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	Author    Author    `json:"author"`
	Tags      []Tag     `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Author struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type Tag struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// TagNames returns the tag names in server order.
func (a Article) TagNames() []string {
	names := make([]string, 0, len(a.Tags))
	for _, t := range a.Tags {
		names = append(names, t.Name)
	}
	return names
}

// IsPublished reports whether the article is live.
func (a Article) IsPublished() bool {
	return a.Status == StatusPublished
}

// StatusLabel is the human readable status shown in lists and previews.
func StatusLabel(status string) string {
	if status == StatusPublished {
		return "Published"
	}
	return "Draft"
}

type CreateArticleRequest struct {
	Title   string   `json:"title" form:"title" binding:"required,notblank,max=200"`
	Content string   `json:"content" form:"content" binding:"required,notblank"`
	Status  string   `json:"status" form:"status" binding:"required,oneof=draft published"`
	Tags    []string `json:"tags" form:"-"`
}

type UpdateArticleRequest struct {
	ID uint `json:"id" form:"id" binding:"required"`
	CreateArticleRequest
}

type ListArticleRequest struct {
	Page     int    `json:"page" binding:"required,min=1"`
	PageSize int    `json:"page_size" binding:"required,min=1,max=100"`
	Status   string `json:"status,omitempty"`
	AuthorID uint   `json:"author_id,omitempty"`
	Tag      string `json:"tag,omitempty"`
}

// ListResponse is one page of articles. The backend names the slice
// "articles" while older clients expect "items"; both decode into Items.
type ListResponse struct {
	Total int64     `json:"total"`
	Items []Article `json:"items"`
}

func (r *ListResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		Total    int64     `json:"total"`
		Items    []Article `json:"items"`
		Articles []Article `json:"articles"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Total = raw.Total
	r.Items = raw.Items
	if len(r.Items) == 0 && len(raw.Articles) > 0 {
		r.Items = raw.Articles
	}
	if r.Items == nil {
		r.Items = []Article{}
	}
	return nil
}

// ParseTags splits a comma separated tag field, trimming blanks.
func ParseTags(value string) []string {
	return CleanTags(strings.Split(value, ","))
}

// CleanTags trims every tag and drops empty ones.
func CleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
