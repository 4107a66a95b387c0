package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"blog-admin/pkg/services"
)

const sessionContextKey = "blog.session"

// sessionStorage exposes the browser cookie session as services.Storage.
// Every write is saved right away so the Set-Cookie header goes out before
// the handler renders.
type sessionStorage struct {
	session sessions.Session
}

func (s sessionStorage) Get(key string) (string, bool) {
	v, ok := s.session.Get(key).(string)
	return v, ok
}

func (s sessionStorage) Set(key, value string) error {
	s.session.Set(key, value)
	return s.session.Save()
}

func (s sessionStorage) Remove(key string) error {
	s.session.Delete(key)
	return s.session.Save()
}

// userSession is the per-request view of the signed-in user and the
// backend services bound to their token.
type userSession struct {
	store    *services.AuthStore
	auth     *services.AuthService
	articles *services.ArticleService
}

// LoadSession restores the auth store from the cookie session and wires a
// backend client to it. A 401 from the backend clears the cookie.
func (s *Server) LoadSession(c *gin.Context) {
	authClient := services.NewClient(s.APIBaseURL,
		services.WithHTTPClient(s.HTTPClient),
		services.WithLogger(s.clientLogger),
	)
	auth := services.NewAuthService(authClient, services.WithPasswordPrehash(s.Prehash))

	store := services.NewAuthStore(sessionStorage{session: sessions.Default(c)}, auth, s.sessionLogger)
	store.Initialize(c.Request.Context())

	client := services.NewClient(s.APIBaseURL,
		services.WithHTTPClient(s.HTTPClient),
		services.WithLogger(s.clientLogger),
		services.WithTokenSource(store),
		services.WithUnauthorizedHandler(store.ClearCredentials),
	)

	c.Set(sessionContextKey, &userSession{
		store:    store,
		auth:     auth,
		articles: services.NewArticleService(client, s.Tags),
	})
	c.Next()
}

func currentSession(c *gin.Context) *userSession {
	if v, ok := c.Get(sessionContextKey); ok {
		if us, ok := v.(*userSession); ok {
			return us
		}
	}
	return nil
}

func isAPI(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/")
}

// AuthRequired lets signed-in users through. API calls get a 401 body,
// pages are sent to the login form.
func (s *Server) AuthRequired(c *gin.Context) {
	us := currentSession(c)
	if us == nil || !us.store.IsAuthenticated() {
		s.denied(c)
		return
	}
	c.Next()
}

func (s *Server) denied(c *gin.Context) {
	if isAPI(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.Redirect(http.StatusFound, "/login")
	c.Abort()
}
