package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/spiffcs/cherrypick/internal/model"
)

var (
	// ErrNoRelease is returned when no release label is configured.
	ErrNoRelease = errors.New("no release configured")
	// ErrNoRepositories is returned when a release lists no repositories.
	ErrNoRepositories = errors.New("no repositories configured")
	// ErrReservedRepoName is returned for a repository named like the bucket
	// that holds revisions found in no repository.
	ErrReservedRepoName = errors.New(`repository name "unknown" is reserved`)
)

// DefaultExternalRefField is the Redmine custom field holding the Bugzilla id.
const DefaultExternalRefField = 6

// Config represents the application configuration
type Config struct {
	Project       string   `yaml:"project,omitempty" toml:"project,omitempty"`
	Release       string   `yaml:"release,omitempty" toml:"release,omitempty"`
	ReleaseBranch string   `yaml:"release_branch,omitempty" toml:"release_branch,omitempty"`
	Namespace     string   `yaml:"namespace,omitempty" toml:"namespace,omitempty"`
	Repos         []Repo   `yaml:"repos,omitempty" toml:"repos,omitempty"`
	Ignores       []int    `yaml:"ignores,omitempty" toml:"ignores,omitempty"`
	OutputDir     string   `yaml:"output_dir,omitempty" toml:"output_dir,omitempty"`
	DefaultFormat string   `yaml:"default_format,omitempty" toml:"default_format,omitempty"`
	Workers       int      `yaml:"workers,omitempty" toml:"workers,omitempty"`
	Bugzilla      Bugzilla `yaml:"bugzilla,omitempty" toml:"bugzilla,omitempty"`
	Redmine       Redmine  `yaml:"redmine,omitempty" toml:"redmine,omitempty"`
}

// Repo is one repository taking part in a release.
type Repo struct {
	Name string `yaml:"name" toml:"name"`
	// Path of the local clone. Defaults to <namespace>/<name>.
	Path string `yaml:"path,omitempty" toml:"path,omitempty"`
	URL  string `yaml:"url,omitempty" toml:"url,omitempty"`
	// GitHub is an owner/name slug. When set the repository is queried
	// through the GitHub API instead of a local clone.
	GitHub string `yaml:"github,omitempty" toml:"github,omitempty"`
	// Branch overrides the release branch for this repository.
	Branch string `yaml:"branch,omitempty" toml:"branch,omitempty"`
}

// Bugzilla configures the defect tracker.
type Bugzilla struct {
	Enabled  bool     `yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	URL      string   `yaml:"url,omitempty" toml:"url,omitempty"`
	Username string   `yaml:"username,omitempty" toml:"username,omitempty"`
	Product  string   `yaml:"product,omitempty" toml:"product,omitempty"`
	Statuses []string `yaml:"statuses,omitempty" toml:"statuses,omitempty"`
	Flags    []string `yaml:"flags,omitempty" toml:"flags,omitempty"`
	BugsFile string   `yaml:"bugs_file,omitempty" toml:"bugs_file,omitempty"`
}

// Redmine configures the issue tracker.
type Redmine struct {
	URL              string `yaml:"url,omitempty" toml:"url,omitempty"`
	ExternalRefField int    `yaml:"external_ref_field,omitempty" toml:"external_ref_field,omitempty"`
}

// DefaultConfigDir returns the default config directory
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".cherrypick"
	}
	return filepath.Join(configDir, "cherrypick")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the current directory
func LocalConfigPath() string {
	return ".cherrypick.yaml"
}

// ConfigFileExists returns true if the config file exists on disk
func ConfigFileExists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// Load loads the configuration from disk.
// It first loads the global config from XDG config directory, then merges
// any local .cherrypick.yaml config on top (local values take precedence).
func Load() (*Config, error) {
	cfg := defaults()

	if _, err := os.Stat(ConfigPath()); err == nil {
		global, err := readFile(ConfigPath())
		if err != nil {
			return nil, fmt.Errorf("failed to load global config file: %w", err)
		}
		cfg = mergeConfig(cfg, global)
	}

	if _, err := os.Stat(LocalConfigPath()); err == nil {
		local, err := readFile(LocalConfigPath())
		if err != nil {
			return nil, fmt.Errorf("failed to load local config file: %w", err)
		}
		cfg = mergeConfig(cfg, local)
	}

	return cfg, nil
}

// LoadRelease loads the global and local config and merges the release file
// at path on top. Files ending in .toml are parsed as TOML, everything else
// as YAML.
func LoadRelease(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	release, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load release config %s: %w", path, err)
	}

	return mergeConfig(cfg, release), nil
}

func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return &cfg, nil
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

func defaults() *Config {
	return &Config{
		DefaultFormat: "yaml",
		OutputDir:     "releases",
		Redmine:       Redmine{ExternalRefField: DefaultExternalRefField},
	}
}

// mergeConfig merges local config on top of base config.
// Local values take precedence; unset local values preserve base values.
func mergeConfig(base, local *Config) *Config {
	result := *base

	if local.Project != "" {
		result.Project = local.Project
	}
	if local.Release != "" {
		result.Release = local.Release
	}
	if local.ReleaseBranch != "" {
		result.ReleaseBranch = local.ReleaseBranch
	}
	if local.Namespace != "" {
		result.Namespace = local.Namespace
	}
	if local.OutputDir != "" {
		result.OutputDir = local.OutputDir
	}
	if local.DefaultFormat != "" {
		result.DefaultFormat = local.DefaultFormat
	}
	if local.Workers > 0 {
		result.Workers = local.Workers
	}

	// Merge arrays (local replaces if non-empty)
	if len(local.Repos) > 0 {
		result.Repos = local.Repos
	}
	if len(local.Ignores) > 0 {
		result.Ignores = local.Ignores
	}

	result.Bugzilla = mergeBugzilla(base.Bugzilla, local.Bugzilla)

	if local.Redmine.URL != "" {
		result.Redmine.URL = local.Redmine.URL
	}
	if local.Redmine.ExternalRefField > 0 {
		result.Redmine.ExternalRefField = local.Redmine.ExternalRefField
	}

	return &result
}

func mergeBugzilla(base, local Bugzilla) Bugzilla {
	result := base
	if local.Enabled {
		result.Enabled = true
	}
	if local.URL != "" {
		result.URL = local.URL
	}
	if local.Username != "" {
		result.Username = local.Username
	}
	if local.Product != "" {
		result.Product = local.Product
	}
	if len(local.Statuses) > 0 {
		result.Statuses = local.Statuses
	}
	if len(local.Flags) > 0 {
		result.Flags = local.Flags
	}
	if local.BugsFile != "" {
		result.BugsFile = local.BugsFile
	}
	return result
}

// Validate checks that the config describes a runnable release.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Release) == "" {
		return ErrNoRelease
	}
	if len(c.Repos) == 0 {
		return ErrNoRepositories
	}

	seen := make(map[string]bool, len(c.Repos))
	for i, r := range c.Repos {
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("repos[%d]: name is required", i)
		}
		if r.Name == model.UnknownRepository {
			return fmt.Errorf("repos[%d]: %w", i, ErrReservedRepoName)
		}
		if seen[r.Name] {
			return fmt.Errorf("repos[%d]: duplicate repository %q", i, r.Name)
		}
		seen[r.Name] = true
		if c.BranchFor(r) == "" {
			return fmt.Errorf("repository %s: no release branch configured", r.Name)
		}
	}
	return nil
}

// RepoNames returns the configured repository names in order.
func (c *Config) RepoNames() []string {
	names := make([]string, len(c.Repos))
	for i, r := range c.Repos {
		names[i] = r.Name
	}
	return names
}

// BranchFor returns the release branch to check for r.
func (c *Config) BranchFor(r Repo) string {
	if r.Branch != "" {
		return r.Branch
	}
	return c.ReleaseBranch
}

// PathFor returns where the local clone of r lives.
func (c *Config) PathFor(r Repo) string {
	if r.Path != "" {
		return r.Path
	}
	if c.Namespace != "" {
		return filepath.Join(c.Namespace, r.Name)
	}
	return r.Name
}

// IsIgnored reports whether the issue id is on the ignore list.
func (c *Config) IsIgnored(id int) bool {
	for _, ignored := range c.Ignores {
		if ignored == id {
			return true
		}
	}
	return false
}

// GetRedmineAPIKey returns the Redmine API key from the REDMINE_API_KEY environment variable.
func (c *Config) GetRedmineAPIKey() string {
	return os.Getenv("REDMINE_API_KEY")
}

// GetBugzillaCredentials returns the Bugzilla login. The username falls back
// to the config file; the password is only read from the environment.
func (c *Config) GetBugzillaCredentials() (username, password string) {
	username = os.Getenv("BUGZILLA_USERNAME")
	if username == "" {
		username = c.Bugzilla.Username
	}
	return username, os.Getenv("BUGZILLA_PASSWORD")
}

// GetGitHubToken returns the GitHub token from the GITHUB_TOKEN environment variable.
func (c *Config) GetGitHubToken() string {
	return os.Getenv("GITHUB_TOKEN")
}

// SettableKeys lists the keys accepted by Set.
var SettableKeys = []string{
	"default_format",
	"output_dir",
	"workers",
	"project",
	"redmine.url",
	"bugzilla.url",
	"bugzilla.product",
	"bugzilla.username",
}

// Set assigns a single key. Credentials are rejected; they are only read
// from the environment.
func (c *Config) Set(key, value string) error {
	switch key {
	case "default_format", "format":
		switch value {
		case "yaml", "json", "table", "markdown":
			c.DefaultFormat = value
		default:
			return fmt.Errorf("invalid format: %s (must be yaml, json, table or markdown)", value)
		}
	case "output_dir":
		c.OutputDir = value
	case "workers":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid workers value %q: must be a positive integer", value)
		}
		c.Workers = n
	case "project":
		c.Project = value
	case "redmine.url":
		c.Redmine.URL = value
	case "bugzilla.url":
		c.Bugzilla.URL = value
	case "bugzilla.product":
		c.Bugzilla.Product = value
	case "bugzilla.username":
		c.Bugzilla.Username = value
	case "token", "password", "api_key", "bugzilla.password", "redmine.api_key":
		return fmt.Errorf("credentials cannot be stored in config files; set GITHUB_TOKEN, REDMINE_API_KEY or BUGZILLA_PASSWORD instead")
	default:
		return fmt.Errorf("unknown config key: %s (settable: %s)", key, strings.Join(SettableKeys, ", "))
	}
	return nil
}

// SetGlobal updates one key in the global config file. Other values in
// that file are kept; local and release files are never touched.
func SetGlobal(key, value string) error {
	cfg := &Config{}
	if ConfigFileExists() {
		existing, err := readFile(ConfigPath())
		if err != nil {
			return fmt.Errorf("failed to load global config file: %w", err)
		}
		cfg = existing
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	return cfg.Save()
}

// Save writes the configuration to the global config file.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return SaveTo(ConfigPath(), string(data))
}

// DefaultConfig returns a fully populated config with all default values.
// This is useful for generating a complete config file template.
func DefaultConfig() *Config {
	cfg := defaults()
	cfg.Workers = 4
	cfg.Bugzilla = Bugzilla{
		URL:      "https://bugzilla.redhat.com/jsonrpc.cgi",
		Product:  "Red Hat Satellite 6",
		Statuses: []string{"POST"},
		Flags:    []string{},
	}
	cfg.Repos = []Repo{}
	cfg.Ignores = []int{}
	return cfg
}

// ToYAML returns the config as a YAML string
func (c *Config) ToYAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// ConfigPathInfo contains information about config file paths
type ConfigPathInfo struct {
	GlobalPath   string
	GlobalExists bool
	LocalPath    string
	LocalExists  bool
}

// GetConfigPaths returns path info for both global and local configs
func GetConfigPaths() ConfigPathInfo {
	globalPath := ConfigPath()
	localPath := LocalConfigPath()

	absLocalPath, err := filepath.Abs(localPath)
	if err != nil {
		absLocalPath = localPath
	}

	_, globalErr := os.Stat(globalPath)
	_, localErr := os.Stat(localPath)

	return ConfigPathInfo{
		GlobalPath:   globalPath,
		GlobalExists: globalErr == nil,
		LocalPath:    absLocalPath,
		LocalExists:  localErr == nil,
	}
}

// MinimalConfig returns a minimal config template with comments
func MinimalConfig() string {
	return `# cherrypick configuration file
# See: cherrypick config defaults  (for all available options)

# Output format: yaml, json or table
default_format: yaml

# Where reports are written (<output_dir>/<release>/cherry_picks_<release>)
output_dir: releases

# Redmine server; the API key is read from REDMINE_API_KEY
# redmine:
#   url: https://projects.theforeman.org
#   external_ref_field: 6

# Bugzilla server; BUGZILLA_USERNAME and BUGZILLA_PASSWORD are read from the environment
# bugzilla:
#   url: https://bugzilla.redhat.com/jsonrpc.cgi
#   product: Red Hat Satellite 6

# Release settings usually live in a per-release file passed on the command line:
# release: "6.2.0"
# release_branch: "6.2-stable"
# namespace: repos
# repos:
#   - name: foreman
#     url: https://github.com/theforeman/foreman.git
#   - name: katello
#     github: Katello/katello
`
}

// SaveTo writes content to a specific path, creating directories as needed
func SaveTo(path string, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}
