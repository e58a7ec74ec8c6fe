package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Content backends.
const (
	BackendLocal  = "local"
	BackendGitHub = "github"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Content ContentConfig     `yaml:"content"`
	Uploads UploadsConfig     `yaml:"uploads"`
	Auth    AuthConfig        `yaml:"auth"`
	GitHub  GitHubConfig      `yaml:"github"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Content.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if c.Content.Backend == BackendGitHub {
		return c.GitHub.Validate()
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// ContentConfig selects the record storage backend and, for the local
// backend, the content directory holding the record files.
type ContentConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	// Normalise empty backend to local for single-machine setups.
	if c.Backend == "" {
		c.Backend = BackendLocal
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendLocal, BackendGitHub)),
	); err != nil {
		return err
	}
	if c.Backend == BackendLocal && c.Path == "" {
		return fmt.Errorf("content: backend is %q but path is empty", BackendLocal)
	}
	return nil
}

// UploadsConfig holds the local image upload directory and the public
// base path it is served under.
type UploadsConfig struct {
	Path    string `yaml:"path"`
	BaseURL string `yaml:"base_url"`
}

// AuthConfig holds the admin access gate configuration.
//
// AdminSecret is the single shared secret compared verbatim against the
// session cookie. SecureCookies should be enabled behind TLS.
type AuthConfig struct {
	AdminSecret   string `yaml:"admin_secret"`
	SecureCookies bool   `yaml:"secure_cookies"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.AdminSecret, validation.Required),
	)
}

// GitHubConfig holds the remote versioned-store configuration, used when
// the content backend is "github".
type GitHubConfig struct {
	Token      string `yaml:"token"`
	Repo       string `yaml:"repo"` // "owner/name"
	Branch     string `yaml:"branch"`
	ContentDir string `yaml:"content_dir"`
	UploadsDir string `yaml:"uploads_dir"`
	PublicBase string `yaml:"public_base"` // empty = raw.githubusercontent.com
}

// Validate validates the GitHub configuration.
func (c *GitHubConfig) Validate() error {
	if c.Branch == "" {
		c.Branch = "main"
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Token, validation.Required),
		validation.Field(&c.Repo, validation.Required),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Content: ContentConfig{
			Backend: BackendLocal,
			Path:    "./content/recipes",
		},
		Uploads: UploadsConfig{
			Path:    "./public/uploads/recipes",
			BaseURL: "/uploads/recipes",
		},
		GitHub: GitHubConfig{
			Branch:     "main",
			ContentDir: "content/recipes",
			UploadsDir: "public/uploads/recipes",
		},
	}
}
