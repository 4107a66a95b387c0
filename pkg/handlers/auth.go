package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"blog-admin/pkg/models"
	"blog-admin/pkg/services"
)

func (s *Server) Home(c *gin.Context) {
	if us := currentSession(c); us != nil && us.store.IsAuthenticated() {
		c.Redirect(http.StatusFound, "/articles")
		return
	}
	c.Redirect(http.StatusFound, "/login")
}

func (s *Server) LoginPage(c *gin.Context) {
	if us := currentSession(c); us != nil && us.store.IsAuthenticated() {
		c.Redirect(http.StatusFound, "/articles")
		return
	}
	data := gin.H{"Title": "Sign in"}
	if c.Query("registered") == "1" {
		data["Notice"] = "Registration successful, please sign in."
	}
	c.HTML(http.StatusOK, "login.html", data)
}

func (s *Server) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "login.html", gin.H{
			"Title": "Sign in",
			"Email": req.Email,
			"Error": services.Message(services.BindingError(err)),
		})
		return
	}

	us := currentSession(c)
	if err := us.store.Login(c.Request.Context(), req.Email, req.Password); err != nil {
		s.log().WithContext(c.Request.Context()).Warn("login failed", "email", req.Email, "error", err)
		c.HTML(statusFor(err), "login.html", gin.H{
			"Title": "Sign in",
			"Email": req.Email,
			"Error": loginMessage(err),
		})
		return
	}
	c.Redirect(http.StatusFound, "/articles")
}

// loginMessage keeps a 401 on the login call from reading as "please log
// in first".
func loginMessage(err error) string {
	if services.IsUnauthorized(err) {
		return "Invalid email or password"
	}
	return services.Message(err)
}

func (s *Server) RegisterPage(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", gin.H{"Title": "Create account"})
}

func (s *Server) Register(c *gin.Context) {
	var req models.RegisterRequest
	bindErr := c.ShouldBind(&req)

	var err error
	if bindErr != nil {
		err = services.BindingError(bindErr)
	} else {
		_, err = currentSession(c).auth.Register(c.Request.Context(), req)
	}
	if err != nil {
		status := statusFor(err)
		c.HTML(status, "register.html", gin.H{
			"Title":    "Create account",
			"Username": req.Username,
			"Email":    req.Email,
			"Failure": models.ErrorResponse{
				Error:      "Registration failed",
				Message:    services.Message(err),
				StatusCode: status,
			},
		})
		return
	}
	c.Redirect(http.StatusFound, "/login?registered=1")
}

func (s *Server) Logout(c *gin.Context) {
	if us := currentSession(c); us != nil {
		if err := us.store.Logout(); err != nil {
			s.log().Error("failed to clear session", "error", err)
		}
	}
	c.Redirect(http.StatusFound, "/login")
}

// statusFor maps a service error to the status the console answers with.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case services.IsValidation(err):
		return http.StatusBadRequest
	case services.IsUnauthorized(err):
		return http.StatusUnauthorized
	}
	var apiErr *services.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return apiErr.Status
	}
	return http.StatusBadGateway
}
