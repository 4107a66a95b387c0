package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"blog-admin/pkg/models"
	"blog-admin/pkg/services"
)

// articlePayload is the JSON body of the create and update endpoints.
// Normalisation and validation happen in the article service.
type articlePayload struct {
	ID      uint     `json:"id"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Status  string   `json:"status"`
	Tags    []string `json:"tags"`
}

func (p articlePayload) request() models.CreateArticleRequest {
	return models.CreateArticleRequest{Title: p.Title, Content: p.Content, Status: p.Status, Tags: p.Tags}
}

// apiError writes err as a JSON error. A backend 401 has already cleared
// the session.
func (s *Server) apiError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log().WithContext(c.Request.Context()).Error("backend call failed", "path", c.Request.URL.Path, "error", err)
	}
	if services.IsUnauthorized(err) {
		c.AbortWithStatusJSON(status, gin.H{"error": "Unauthorized"})
		return
	}
	c.JSON(status, gin.H{"error": services.Message(err)})
}

func queryID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Query("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}

func (s *Server) ListArticlesAPI(c *gin.Context) {
	us := currentSession(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	req := models.ListArticleRequest{
		Page:     page,
		PageSize: s.pageSize(),
		Status:   c.Query("status"),
		Tag:      c.Query("tag"),
	}
	if user := us.store.User(); user != nil {
		req.AuthorID = user.ID
	}

	list, err := us.articles.List(c.Request.Context(), req)
	if err != nil {
		s.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total":     list.Total,
		"items":     list.Items,
		"page":      req.Page,
		"page_size": req.PageSize,
	})
}

func (s *Server) GetArticleAPI(c *gin.Context) {
	id, ok := queryID(c)
	if !ok {
		return
	}
	article, err := currentSession(c).articles.Get(c.Request.Context(), id)
	if err != nil {
		s.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

func (s *Server) CreateArticleAPI(c *gin.Context) {
	var p articlePayload
	if err := c.BindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	article, err := currentSession(c).articles.Create(c.Request.Context(), p.request())
	if err != nil {
		s.apiError(c, err)
		return
	}
	c.JSON(http.StatusCreated, article)
}

func (s *Server) UpdateArticleAPI(c *gin.Context) {
	var p articlePayload
	if err := c.BindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	article, err := currentSession(c).articles.Update(c.Request.Context(), models.UpdateArticleRequest{
		ID:                   p.ID,
		CreateArticleRequest: p.request(),
	})
	if err != nil {
		s.apiError(c, err)
		return
	}
	s.Tags.Invalidate()
	c.JSON(http.StatusOK, article)
}

func (s *Server) DeleteArticleAPI(c *gin.Context) {
	var req struct {
		ID uint `json:"id"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := currentSession(c).articles.Delete(c.Request.Context(), req.ID); err != nil {
		s.apiError(c, err)
		return
	}
	s.Tags.Invalidate()
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// PreviewAPI renders markdown for the editor's live preview.
func (s *Server) PreviewAPI(c *gin.Context) {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	html, err := s.Renderer.Render(req.Content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Preview failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"html": html})
}

func (s *Server) TagsAPI(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	c.JSON(http.StatusOK, gin.H{"tags": s.Tags.Suggest(c.Query("q"), limit)})
}

func (s *Server) ConfigAPI(c *gin.Context) {
	c.JSON(http.StatusOK, s.Editor)
}
