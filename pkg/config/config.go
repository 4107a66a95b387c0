package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"blog-admin/pkg/models"
)

var (
	APIBaseURL = "http://localhost:8080"
	AppURL     = "http://localhost:3000"
	ListenAddr = ":3000"

	// Session settings
	SessionSecret = ""
	SessionName   = "blog-admin"
	SessionFile   = ""

	RequestTimeout  = 10 * time.Second
	PageSize        = 10
	PasswordPrehash = false

	EditorConfigPath = "config.yml"

	// Logging settings
	LogLevel  = "info"
	LogFormat = "console"
)

func Init() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found or error loading it.")
	}
	load()
}

func load() {
	APIBaseURL = strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8080"), "/")
	AppURL = strings.TrimRight(getEnv("APP_URL", "http://localhost:3000"), "/")
	ListenAddr = getEnv("LISTEN_ADDR", ":3000")

	SessionSecret = getEnv("SESSION_SECRET", "")
	SessionName = getEnv("SESSION_NAME", "blog-admin")
	SessionFile = getEnv("SESSION_FILE", defaultSessionFile())

	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			RequestTimeout = d
		}
	}
	if v := os.Getenv("PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			PageSize = n
		}
	}
	if v := os.Getenv("PASSWORD_PREHASH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			PasswordPrehash = b
		}
	}

	EditorConfigPath = getEnv("EDITOR_CONFIG", "config.yml")
	LogLevel = getEnv("LOG_LEVEL", "info")
	LogFormat = getEnv("LOG_FORMAT", "console")
}

// Validate checks the loaded settings. The web console additionally needs a
// session secret; the CLI does not.
func Validate(requireSecret bool) error {
	settings := struct {
		APIBaseURL     string
		PageSize       int
		RequestTimeout time.Duration
		SessionSecret  string
		LogFormat      string
	}{APIBaseURL, PageSize, RequestTimeout, SessionSecret, LogFormat}

	return validation.ValidateStruct(&settings,
		validation.Field(&settings.APIBaseURL, validation.Required, is.URL),
		validation.Field(&settings.PageSize, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&settings.RequestTimeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&settings.SessionSecret, validation.When(requireSecret, validation.Required, validation.Length(32, 0))),
		validation.Field(&settings.LogFormat, validation.In("json", "console", "pretty")),
	)
}

// LoadEditorConfig reads the editor YAML file. A missing file is not an
// error and yields the defaults.
func LoadEditorConfig(path string) (models.EditorConfig, error) {
	cfg := models.DefaultEditorConfig()
	cfg.PageSize = PageSize
	if path == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return cfg, fmt.Errorf("parse editor config %s: %w", path, err)
	}

	if cfg.DefaultStatus != models.StatusPublished {
		cfg.DefaultStatus = models.StatusDraft
	}
	if cfg.PageSize < 1 || cfg.PageSize > 100 {
		cfg.PageSize = PageSize
	}
	cfg.Tags = models.CleanTags(cfg.Tags)
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".blog-admin-session"
	}
	return filepath.Join(home, ".blog-admin", "session")
}
