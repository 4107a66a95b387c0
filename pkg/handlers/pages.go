package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"blog-admin/pkg/models"
	"blog-admin/pkg/services"
)

// articleForm is what the editor page posts. Tags arrive comma separated.
type articleForm struct {
	models.CreateArticleRequest
	TagList string `form:"tags"`
}

func (f articleForm) request() models.CreateArticleRequest {
	req := f.CreateArticleRequest
	req.Tags = models.ParseTags(f.TagList)
	return req
}

func (s *Server) page(c *gin.Context, status int, name string, data gin.H) {
	data["Auth"] = currentSession(c).store.State()
	c.HTML(status, name, data)
}

// sessionLost handles a backend 401: the session is already cleared, so
// the user is sent back to sign in.
func (s *Server) sessionLost(c *gin.Context, err error) bool {
	if !services.IsUnauthorized(err) {
		return false
	}
	s.log().WithContext(c.Request.Context()).Warn("backend rejected session", "path", c.Request.URL.Path)
	s.denied(c)
	return true
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (s *Server) ArticlesPage(c *gin.Context) {
	us := currentSession(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	req := models.ListArticleRequest{Page: page, PageSize: s.pageSize()}
	if user := us.store.User(); user != nil {
		req.AuthorID = user.ID
	}

	list, err := us.articles.List(c.Request.Context(), req)
	if s.sessionLost(c, err) {
		return
	}
	data := gin.H{"Title": "My articles", "Articles": []models.Article{}}
	if err != nil {
		s.log().WithContext(c.Request.Context()).Error("failed to fetch articles", "error", err)
		data["Error"] = "Failed to load articles: " + services.Message(err)
		data["Pagination"] = models.NewPagination(0, page, req.PageSize)
		s.page(c, http.StatusOK, "articles.html", data)
		return
	}
	data["Articles"] = list.Items
	data["Pagination"] = models.NewPagination(list.Total, page, req.PageSize)
	s.page(c, http.StatusOK, "articles.html", data)
}

func (s *Server) NewArticlePage(c *gin.Context) {
	s.page(c, http.StatusOK, "editor.html", gin.H{
		"Title":  "New article",
		"Action": "/articles/new",
		"Form":   articleForm{CreateArticleRequest: models.CreateArticleRequest{Status: s.Editor.DefaultStatus}},
	})
}

func (s *Server) CreateArticle(c *gin.Context) {
	var form articleForm
	if err := c.ShouldBind(&form); err != nil {
		s.editorFailed(c, "New article", "/articles/new", form, services.BindingError(err))
		return
	}
	_, err := currentSession(c).articles.Create(c.Request.Context(), form.request())
	if s.sessionLost(c, err) {
		return
	}
	if err != nil {
		s.editorFailed(c, "New article", "/articles/new", form, err)
		return
	}
	c.Redirect(http.StatusFound, "/articles")
}

func (s *Server) ArticlePage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		s.notFound(c)
		return
	}
	article, err := currentSession(c).articles.Get(c.Request.Context(), id)
	if s.sessionLost(c, err) {
		return
	}
	if err != nil {
		s.page(c, statusFor(err), "article.html", gin.H{"Title": "Article", "Error": services.Message(err)})
		return
	}

	rendered, err := s.Renderer.Render(article.Content)
	if err != nil {
		s.log().Error("failed to render article", "id", id, "error", err)
	}
	s.page(c, http.StatusOK, "article.html", gin.H{
		"Title":   article.Title,
		"Article": article,
		"HTML":    rendered,
	})
}

func (s *Server) EditArticlePage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		s.notFound(c)
		return
	}
	article, err := currentSession(c).articles.Get(c.Request.Context(), id)
	if s.sessionLost(c, err) {
		return
	}
	action := "/articles/edit/" + c.Param("id")
	if err != nil {
		s.editorFailed(c, "Edit article", action, articleForm{}, err)
		return
	}
	s.page(c, http.StatusOK, "editor.html", gin.H{
		"Title":  "Edit article",
		"Action": action,
		"Form": articleForm{
			CreateArticleRequest: models.CreateArticleRequest{
				Title:   article.Title,
				Content: article.Content,
				Status:  article.Status,
			},
			TagList: strings.Join(article.TagNames(), ", "),
		},
	})
}

func (s *Server) UpdateArticle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		s.notFound(c)
		return
	}
	action := "/articles/edit/" + c.Param("id")
	var form articleForm
	if err := c.ShouldBind(&form); err != nil {
		s.editorFailed(c, "Edit article", action, form, services.BindingError(err))
		return
	}
	_, err := currentSession(c).articles.Update(c.Request.Context(), models.UpdateArticleRequest{
		ID:                   id,
		CreateArticleRequest: form.request(),
	})
	if s.sessionLost(c, err) {
		return
	}
	if err != nil {
		s.editorFailed(c, "Edit article", action, form, err)
		return
	}
	s.Tags.Invalidate()
	c.Redirect(http.StatusFound, "/articles")
}

func (s *Server) DeleteArticle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		s.notFound(c)
		return
	}
	err := currentSession(c).articles.Delete(c.Request.Context(), id)
	if s.sessionLost(c, err) {
		return
	}
	if err != nil {
		s.log().WithContext(c.Request.Context()).Error("failed to delete article", "id", id, "error", err)
		c.String(statusFor(err), "Delete failed: %s", services.Message(err))
		return
	}
	s.Tags.Invalidate()
	c.Redirect(http.StatusFound, "/articles")
}

func (s *Server) editorFailed(c *gin.Context, title, action string, form articleForm, err error) {
	s.page(c, statusFor(err), "editor.html", gin.H{
		"Title":  title,
		"Action": action,
		"Form":   form,
		"Error":  "Save failed, please retry: " + services.Message(err),
	})
}

func (s *Server) notFound(c *gin.Context) {
	s.page(c, http.StatusNotFound, "article.html", gin.H{"Title": "Article", "Error": "Article not found"})
}
