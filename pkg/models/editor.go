package models

// EditorConfig drives the article editor and preview. It is read from the
// YAML file named by EDITOR_CONFIG.
type EditorConfig struct {
	DefaultStatus string         `yaml:"default_status" json:"default_status"`
	PageSize      int            `yaml:"page_size" json:"page_size"`
	ExportFormat  string         `yaml:"export_format" json:"export_format"`
	Markdown      MarkdownConfig `yaml:"markdown" json:"markdown"`
	Tags          []string       `yaml:"tags" json:"tags"`
}

type MarkdownConfig struct {
	Extensions []string `yaml:"extensions" json:"extensions"`
	HardWraps  bool     `yaml:"hard_wraps" json:"hard_wraps"`
	SafeMode   bool     `yaml:"safe_mode" json:"safe_mode"`
}

// DefaultEditorConfig is used when no config file is present.
func DefaultEditorConfig() EditorConfig {
	return EditorConfig{
		DefaultStatus: StatusDraft,
		PageSize:      10,
		ExportFormat:  "yaml",
		Markdown: MarkdownConfig{
			SafeMode: true,
		},
	}
}
