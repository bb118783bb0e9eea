// Package config loads the server configuration from an optional YAML file
// and CODECOMMENTS_* environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/evcraddock/code-comments/internal/db"
)

// Config holds server configuration.
type Config struct {
	BaseURL           string   `yaml:"base_url"` // e.g. http://localhost:8080 or https://example.com/review
	Port              string   `yaml:"port"`
	DBPath            string   `yaml:"db_path"`
	SiteName          string   `yaml:"site_name"`
	RepoName          string   `yaml:"repo_name"`
	RepoDir           string   `yaml:"repo_dir"`
	TicketURL         string   `yaml:"ticket_url"`
	WikiURL           string   `yaml:"wiki_url"`
	FormattingHelpURL string   `yaml:"formatting_help_url"`
	DefaultHandler    string   `yaml:"default_handler"`
	AdminUsers        []string `yaml:"admin_users"`
	TrustedUserHeader string   `yaml:"trusted_user_header"`
	CookieSecret      string   `yaml:"cookie_secret"`
	DevMode           bool     `yaml:"dev_mode"`
	CORSOrigins       []string `yaml:"cors_origins"`
	BehindProxy       bool     `yaml:"behind_proxy"`
	HtdocsDir         string   `yaml:"htdocs_dir"`
	SMTPHost          string   `yaml:"smtp_host"`
	SMTPPort          string   `yaml:"smtp_port"`
	SMTPUser          string   `yaml:"smtp_user"`
	SMTPPass          string   `yaml:"smtp_pass"`
	SMTPFrom          string   `yaml:"smtp_from"`
	NotifyRecipients  []string `yaml:"notify_recipients"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	// Without a home directory db_path must be set explicitly; Validate
	// reports it.
	dbPath, _ := db.DefaultPath()
	return Config{
		BaseURL:        "http://localhost:8080",
		Port:           "8080",
		DBPath:         dbPath,
		SiteName:       "Code Comments",
		RepoDir:        ".",
		DefaultHandler: "code-comments",
		SMTPPort:       "587",
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// (skipped when path is empty), then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"CODECOMMENTS_BASE_URL":            &c.BaseURL,
		"CODECOMMENTS_PORT":                &c.Port,
		"CODECOMMENTS_DB_PATH":             &c.DBPath,
		"CODECOMMENTS_SITE_NAME":           &c.SiteName,
		"CODECOMMENTS_REPO_NAME":           &c.RepoName,
		"CODECOMMENTS_REPO_DIR":            &c.RepoDir,
		"CODECOMMENTS_TICKET_URL":          &c.TicketURL,
		"CODECOMMENTS_WIKI_URL":            &c.WikiURL,
		"CODECOMMENTS_FORMATTING_HELP_URL": &c.FormattingHelpURL,
		"CODECOMMENTS_DEFAULT_HANDLER":     &c.DefaultHandler,
		"CODECOMMENTS_TRUSTED_USER_HEADER": &c.TrustedUserHeader,
		"CODECOMMENTS_COOKIE_SECRET":       &c.CookieSecret,
		"CODECOMMENTS_HTDOCS_DIR":          &c.HtdocsDir,
		"CODECOMMENTS_SMTP_HOST":           &c.SMTPHost,
		"CODECOMMENTS_SMTP_PORT":           &c.SMTPPort,
		"CODECOMMENTS_SMTP_USER":           &c.SMTPUser,
		"CODECOMMENTS_SMTP_PASS":           &c.SMTPPass,
		"CODECOMMENTS_SMTP_FROM":           &c.SMTPFrom,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	lists := map[string]*[]string{
		"CODECOMMENTS_ADMIN_USERS":       &c.AdminUsers,
		"CODECOMMENTS_CORS_ORIGINS":      &c.CORSOrigins,
		"CODECOMMENTS_NOTIFY_RECIPIENTS": &c.NotifyRecipients,
	}
	for key, dst := range lists {
		if v := os.Getenv(key); v != "" {
			*dst = splitList(v)
		}
	}

	if v := os.Getenv("CODECOMMENTS_DEV_MODE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CODECOMMENTS_DEV_MODE: %w", err)
		}
		c.DevMode = b
	}
	return nil
}

// Validate checks that required settings are usable.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute URL, got %q", c.BaseURL)
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("port must be a number, got %q", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	return nil
}

// BasePath returns the path component of BaseURL without a trailing slash.
func (c Config) BasePath() string {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return ""
	}
	return strings.TrimRight(u.Path, "/")
}

// Origin returns the scheme and host of BaseURL.
func (c Config) Origin() string {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
