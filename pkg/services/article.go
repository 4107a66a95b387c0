package services

import (
	"context"
	"strings"

	"blog-admin/pkg/models"
)

// ArticleService performs article CRUD against the backend.
type ArticleService struct {
	client *Client
	tags   *TagCache
}

// NewArticleService builds the service; tags may be nil.
func NewArticleService(client *Client, tags *TagCache) *ArticleService {
	return &ArticleService{client: client, tags: tags}
}

type idRequest struct {
	ID uint `json:"id"`
}

func (s *ArticleService) Create(ctx context.Context, req models.CreateArticleRequest) (*models.Article, error) {
	req = normalizeArticle(req)
	if err := Validate(req); err != nil {
		return nil, err
	}

	var article models.Article
	if err := s.client.Post(ctx, PathArticleCreate, req, &article); err != nil {
		return nil, err
	}
	s.observe(article)
	return &article, nil
}

func (s *ArticleService) Update(ctx context.Context, req models.UpdateArticleRequest) (*models.Article, error) {
	req.CreateArticleRequest = normalizeArticle(req.CreateArticleRequest)
	if err := Validate(req); err != nil {
		return nil, err
	}

	var article models.Article
	if err := s.client.Post(ctx, PathArticleUpdate, req, &article); err != nil {
		return nil, err
	}
	s.observe(article)
	return &article, nil
}

func (s *ArticleService) Delete(ctx context.Context, id uint) error {
	if id == 0 {
		return wrapValidation(errMissingID)
	}
	return s.client.Post(ctx, PathArticleDelete, idRequest{ID: id}, nil)
}

func (s *ArticleService) Get(ctx context.Context, id uint) (*models.Article, error) {
	if id == 0 {
		return nil, wrapValidation(errMissingID)
	}

	var article models.Article
	if err := s.client.Post(ctx, PathArticleDetail, idRequest{ID: id}, &article); err != nil {
		return nil, err
	}
	s.observe(article)
	return &article, nil
}

func (s *ArticleService) List(ctx context.Context, req models.ListArticleRequest) (*models.ListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if err := Validate(req); err != nil {
		return nil, err
	}

	var list models.ListResponse
	if err := s.client.Post(ctx, PathArticleList, req, &list); err != nil {
		return nil, err
	}
	if list.Items == nil {
		list.Items = []models.Article{}
	}
	s.observe(list.Items...)
	return &list, nil
}

func (s *ArticleService) observe(articles ...models.Article) {
	if s.tags != nil {
		s.tags.Observe(articles...)
	}
}

// normalizeArticle applies the editor rules: trimmed title, draft by
// default, no blank tags. Content is sent as typed.
func normalizeArticle(req models.CreateArticleRequest) models.CreateArticleRequest {
	req.Title = strings.TrimSpace(req.Title)
	req.Status = strings.TrimSpace(req.Status)
	if req.Status == "" {
		req.Status = models.StatusDraft
	}
	req.Tags = models.CleanTags(req.Tags)
	return req
}
