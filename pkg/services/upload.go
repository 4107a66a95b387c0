package services

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"blog-admin/pkg/models"
)

// MaxDocumentSize caps imported markdown documents.
const MaxDocumentSize = 2 << 20

var allowedDocumentExts = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
	".json":     true,
}

// ReadDocument checks that r holds a text document of acceptable size and
// returns its bytes.
func ReadDocument(name string, r io.Reader) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext != "" && !allowedDocumentExts[ext] {
		return nil, wrapValidation(fmt.Errorf("unsupported file type %q", ext))
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if len(data) > MaxDocumentSize {
		return nil, wrapValidation(errors.New("document is too large"))
	}
	if len(data) == 0 {
		return nil, wrapValidation(errors.New("document is empty"))
	}

	mtype := mimetype.Detect(data)
	if !isTextual(mtype) {
		return nil, wrapValidation(fmt.Errorf("document must be text, got %s", mtype.String()))
	}
	return data, nil
}

func isTextual(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// ParseDocument reads a named document into a create request. The file
// name stands in for the title when neither front matter nor a heading
// provides one.
func ParseDocument(name string, r io.Reader) (models.CreateArticleRequest, error) {
	data, err := ReadDocument(name, r)
	if err != nil {
		return models.CreateArticleRequest{}, err
	}
	req, err := ParseArticleDocument(data)
	if err != nil {
		return req, err
	}
	if req.Title == "" {
		base := filepath.Base(name)
		req.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return req, nil
}

// ParseUpload reads a multipart upload and turns it into a create request.
func ParseUpload(header *multipart.FileHeader) (models.CreateArticleRequest, error) {
	src, err := header.Open()
	if err != nil {
		return models.CreateArticleRequest{}, err
	}
	defer src.Close()
	return ParseDocument(header.Filename, src)
}
