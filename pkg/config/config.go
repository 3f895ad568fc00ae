package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/codewithjohnson/folio/pkg/contact"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

const samplePlaceholderStorageDir = "/home/user/.local/share/folio"

type Config struct {
	ContentDir    string        `toml:"content_dir"`
	StorageDir    string        `toml:"storage_dir"`
	IncludeDrafts bool          `toml:"include_drafts"`
	Site          SiteConfig    `toml:"site"`
	Author        AuthorConfig  `toml:"author"`
	Contact       ContactConfig `toml:"contact"`
	Server        ServerConfig  `toml:"server"`
	GitHub        GitHubConfig  `toml:"github"`
	Log           LogConfig     `toml:"log"`
}

type SiteConfig struct {
	Title        string `toml:"title"`
	Description  string `toml:"description"`
	URL          string `toml:"url"`
	Locale       string `toml:"locale"`
	PostsPerPage int    `toml:"posts_per_page"`
}

type AuthorConfig struct {
	Name       string          `toml:"name"`
	Occupation string          `toml:"occupation"`
	Company    string          `toml:"company"`
	Tagline    string          `toml:"tagline"`
	Avatar     string          `toml:"avatar"`
	Bio        string          `toml:"bio"`
	Skills     []string        `toml:"skills"`
	Social     []contact.Entry `toml:"social"`
}

type ContactConfig struct {
	Email       string `toml:"email"`
	ScheduleURL string `toml:"schedule_url"`
}

type ServerConfig struct {
	Host            string   `toml:"host"`
	Port            int      `toml:"port"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
	Compress        bool     `toml:"compress"`
}

type GitHubConfig struct {
	User         string   `toml:"user"`
	Token        string   `toml:"token"`
	Limit        int      `toml:"limit"`
	CacheTTL     Duration `toml:"cache_ttl"`
	ProjectsFile string   `toml:"projects_file"`
}

type LogConfig struct {
	Debug         bool     `toml:"debug"`
	DebugServices []string `toml:"debug_services"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// Addr is the listen address of the web server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Defaults returns the configuration used when no file exists.
func Defaults() (*Config, error) {
	storageDir, err := GetDefaultStorageDir()
	if err != nil {
		return nil, fmt.Errorf("getting default storage directory: %w", err)
	}
	return &Config{
		ContentDir: "content",
		StorageDir: storageDir,
		Site: SiteConfig{
			Title:        "Code with Johnson",
			Description:  "Software engineering, web performance and the occasional experiment.",
			URL:          "http://localhost:8080",
			Locale:       "en-US",
			PostsPerPage: 5,
		},
		Author: AuthorConfig{
			Name:       "Johnson",
			Occupation: "Software Engineer",
			Tagline:    "Software Engineer • Researcher • Scientist • Web Performance",
		},
		Contact: ContactConfig{
			Email:       "codewithjohnson@gmail.com",
			ScheduleURL: "https://calendly.com/codewithjohnson",
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ShutdownTimeout: Duration{30 * time.Second},
			Compress:        true,
		},
		GitHub: GitHubConfig{
			Limit:        6,
			CacheTTL:     Duration{time.Hour},
			ProjectsFile: "projects.yaml",
		},
	}, nil
}

// LoadConfig reads configPath over the defaults. A missing file yields the
// defaults. Environment overrides are applied last.
func LoadConfig(configPath string) (*Config, error) {
	cfg, err := Defaults()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unmarshaling config: %w", err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.fillZeroes()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from FOLIO_* environment variables.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv("FOLIO_CONTENT_DIR"); ok && v != "" {
		c.ContentDir = v
	}
	if v, ok := os.LookupEnv("FOLIO_STORAGE_DIR"); ok && v != "" {
		c.StorageDir = v
	}
	if v, ok := os.LookupEnv("FOLIO_GITHUB_TOKEN"); ok {
		c.GitHub.Token = v
	}
	if v, ok := os.LookupEnv("FOLIO_HOST"); ok && v != "" {
		c.Server.Host = v
	}
	if v, ok := os.LookupEnv("FOLIO_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid FOLIO_PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	return nil
}

// fillZeroes sets defaults for keys the file left empty. List values are
// filled here rather than in Defaults so a configured list replaces them.
func (c *Config) fillZeroes() {
	if len(c.Author.Skills) == 0 {
		c.Author.Skills = []string{"Go", "Postgres", "JavaScript", "TypeScript", "Python", "React", "Node.js", "Docker", "AWS"}
	}
	if len(c.Author.Social) == 0 && c.Contact.Email != "" {
		c.Author.Social = []contact.Entry{{Kind: contact.Mail, Href: "mailto:" + c.Contact.Email}}
	}
	if c.Site.PostsPerPage <= 0 {
		c.Site.PostsPerPage = 5
	}
	if c.Site.Locale == "" {
		c.Site.Locale = "en-US"
	}
	if c.Server.ShutdownTimeout.Duration == 0 {
		c.Server.ShutdownTimeout = Duration{30 * time.Second}
	}
	if c.GitHub.CacheTTL.Duration == 0 {
		c.GitHub.CacheTTL = Duration{time.Hour}
	}
}

// Validate reports settings the site cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.ContentDir == "" {
		errs = append(errs, errors.New("content_dir is required"))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Contact.Email != "" {
		if _, ok := contact.Link(contact.Mail, "mailto:"+c.Contact.Email); !ok {
			errs = append(errs, fmt.Errorf("contact.email %q is not a valid address", c.Contact.Email))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadDotEnv loads KEY=value pairs from the given files (".env" when none
// are given) into the environment. Existing variables win and missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("loading %s: %w", strings.Join(existing, ", "), err)
	}
	return nil
}

func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// SaveTemplateConfig writes the commented sample, pointing storage_dir at
// the configured directory.
func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	template, err := c.generateConfigTemplate()
	if err != nil {
		return fmt.Errorf("generating config template: %w", err)
	}
	return os.WriteFile(configPath, []byte(template), 0644)
}

func (c *Config) generateConfigTemplate() (string, error) {
	storageDir := c.StorageDir
	if storageDir == "" {
		var err error
		storageDir, err = GetDefaultStorageDir()
		if err != nil {
			return "", fmt.Errorf("getting default storage directory: %w", err)
		}
	}
	return strings.Replace(configTemplate, samplePlaceholderStorageDir, storageDir, 1), nil
}

// GetDefaultStorageDir returns $XDG_DATA_HOME/folio, creating it.
func GetDefaultStorageDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	dir := filepath.Join(dataDir, "folio")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating storage directory %s: %w", dir, err)
	}
	return dir, nil
}

// GetConfigDir returns $XDG_CONFIG_HOME/folio, creating it.
func GetConfigDir() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	dir := filepath.Join(configDir, "folio")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return dir, nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
