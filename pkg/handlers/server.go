package handlers

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"blog-admin/pkg/config"
	"blog-admin/pkg/logging"
	"blog-admin/pkg/models"
	"blog-admin/pkg/services"
)

//go:embed templates/*.html
var templateFS embed.FS

// DateLayout is how timestamps are shown on article pages.
const DateLayout = "2006-01-02 15:04:05"

// Server holds what every request shares: backend location, editor
// settings, the tag cache and the markdown renderer. Per-user state lives
// in the browser session.
type Server struct {
	APIBaseURL string
	HTTPClient *http.Client
	Editor     models.EditorConfig
	Prehash    bool
	Tags       *services.TagCache
	Renderer   *services.Renderer

	logger        logging.Logger
	clientLogger  logging.Logger
	sessionLogger logging.Logger
}

// NewServer builds a Server from the package config and the loaded editor
// settings.
func NewServer(editor models.EditorConfig, provider logging.Provider) *Server {
	return &Server{
		APIBaseURL:    config.APIBaseURL,
		HTTPClient:    &http.Client{Timeout: config.RequestTimeout},
		Editor:        editor,
		Prehash:       config.PasswordPrehash,
		Tags:          services.NewTagCache(editor.Tags...),
		Renderer:      services.NewRenderer(editor.Markdown),
		logger:        logging.WebLogger(provider),
		clientLogger:  logging.ClientLogger(provider),
		sessionLogger: logging.SessionLogger(provider),
	}
}

func (s *Server) log() logging.Logger {
	if s.logger == nil {
		return logging.NoOp()
	}
	return s.logger
}

func (s *Server) pageSize() int {
	if s.Editor.PageSize > 0 {
		return s.Editor.PageSize
	}
	return config.PageSize
}

// Routes loads the templates and registers every page and API route. The
// sessions middleware must already be installed on r.
func (s *Server) Routes(r *gin.Engine) {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := services.RegisterValidations(v); err != nil {
			s.log().Error("failed to register form validations", "error", err)
		}
	}
	r.SetHTMLTemplate(template.Must(template.New("").Funcs(templateFuncs()).ParseFS(templateFS, "templates/*.html")))

	r.Use(s.LoadSession)

	// --- Auth Routes ---
	r.GET("/", s.Home)
	r.GET("/login", s.LoginPage)
	r.POST("/login", s.Login)
	r.GET("/register", s.RegisterPage)
	r.POST("/register", s.Register)
	r.GET("/logout", s.Logout)

	// --- Main App (Authorized) ---
	authorized := r.Group("/")
	authorized.Use(s.AuthRequired)
	{
		authorized.GET("/articles", s.ArticlesPage)
		authorized.GET("/articles/new", s.NewArticlePage)
		authorized.POST("/articles/new", s.CreateArticle)
		authorized.GET("/articles/:id", s.ArticlePage)
		authorized.GET("/articles/edit/:id", s.EditArticlePage)
		authorized.POST("/articles/edit/:id", s.UpdateArticle)
		authorized.POST("/articles/:id/delete", s.DeleteArticle)

		api := authorized.Group("/api")
		{
			api.GET("/articles", s.ListArticlesAPI)
			api.GET("/article", s.GetArticleAPI)
			api.POST("/article", s.UpdateArticleAPI)
			api.POST("/create", s.CreateArticleAPI)
			api.POST("/delete", s.DeleteArticleAPI)
			api.POST("/preview", s.PreviewAPI)
			api.GET("/tags", s.TagsAPI)
			api.GET("/config", s.ConfigAPI)
			api.GET("/export", s.ExportArticle)
			api.POST("/import", s.ImportArticle)
		}
	}
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(DateLayout)
		},
		"statusLabel": models.StatusLabel,
		"safeHTML":    func(s string) template.HTML { return template.HTML(s) },
	}
}
