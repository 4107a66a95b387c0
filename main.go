package main

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"

	"blog-admin/pkg/config"
	"blog-admin/pkg/handlers"
	"blog-admin/pkg/logging"
)

func main() {
	// Initialize config
	config.Init()

	provider, err := logging.NewGoLogger(logging.Config{Level: config.LogLevel, Format: config.LogFormat})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.ModuleLogger(provider, "")

	if config.SessionSecret == "" {
		config.SessionSecret = base64.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32))
		logger.Warn("SESSION_SECRET not set, sessions will not survive a restart")
	}
	if err := config.Validate(true); err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}

	editor, err := config.LoadEditorConfig(config.EditorConfigPath)
	if err != nil {
		logger.Fatal("failed to load editor config", "path", config.EditorConfigPath, "error", err)
	}

	r := gin.Default()

	// Session Setup
	store := cookie.NewStore([]byte(config.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   strings.HasPrefix(config.AppURL, "https://"),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(config.SessionName, store))

	handlers.NewServer(editor, provider).Routes(r)

	logger.Info("blog admin listening", "addr", config.ListenAddr, "backend", config.APIBaseURL)
	if err := r.Run(config.ListenAddr); err != nil {
		logger.Fatal("server stopped", "error", err)
	}
}
