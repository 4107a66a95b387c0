package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"blog-admin/pkg/services"
)

var exportContentTypes = map[string]string{
	services.FormatYAML: "text/markdown; charset=utf-8",
	services.FormatTOML: "text/markdown; charset=utf-8",
	services.FormatJSON: "application/json; charset=utf-8",
}

// ExportArticle downloads an article as a markdown document with front
// matter. format defaults to the editor's export format.
func (s *Server) ExportArticle(c *gin.Context) {
	id, ok := queryID(c)
	if !ok {
		return
	}
	format, err := services.NormalizeFormat(c.DefaultQuery("format", s.Editor.ExportFormat))
	if err != nil {
		s.apiError(c, err)
		return
	}

	article, err := currentSession(c).articles.Get(c.Request.Context(), id)
	if err != nil {
		s.apiError(c, err)
		return
	}
	data, err := services.ExportArticle(*article, format)
	if err != nil {
		s.log().Error("failed to export article", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Export failed"})
		return
	}

	ext := "md"
	if format == services.FormatJSON {
		ext = "json"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="article-%d.%s"`, article.ID, ext))
	c.Data(http.StatusOK, exportContentTypes[format], data)
}

// ImportArticle creates an article from an uploaded markdown document. An
// optional "status" form field overrides the document's status, which in
// turn falls back to the editor default.
func (s *Server) ImportArticle(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	req, err := services.ParseUpload(file)
	if err != nil {
		s.apiError(c, err)
		return
	}
	if status := c.PostForm("status"); status != "" {
		req.Status = status
	} else if req.Status == "" {
		req.Status = s.Editor.DefaultStatus
	}

	article, err := currentSession(c).articles.Create(c.Request.Context(), req)
	if err != nil {
		s.apiError(c, err)
		return
	}
	s.log().WithContext(c.Request.Context()).Info("article imported", "id", article.ID, "file", file.Filename)
	c.JSON(http.StatusCreated, article)
}
