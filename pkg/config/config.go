// Package config loads draftwire's application settings from a YAML config
// file and DRAFTWIRE_* environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	appName   = "draftwire"
	envPrefix = "DRAFTWIRE"
)

// Config holds application settings. Credentials live in their own file
// since they carry a token; everything here is non-secret.
type Config struct {
	// PostsDir is the directory holding the documents to publish.
	PostsDir string `mapstructure:"posts_dir"`

	// MirrorDir is where the repository mirror lives.
	MirrorDir string `mapstructure:"mirror_dir"`

	// CredentialsFile is the path of the stored credentials.
	CredentialsFile string `mapstructure:"credentials_file"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`

	// GitHost is the host for git-over-HTTPS remotes.
	GitHost string `mapstructure:"git_host"`

	// APIBaseURL overrides the hosting API endpoint. Empty means the
	// public GitHub API.
	APIBaseURL string `mapstructure:"api_base_url"`

	// OAuthClientID is the OAuth app used for device-flow login.
	OAuthClientID string `mapstructure:"oauth_client_id"`

	// AuthorName and AuthorEmail override the commit author identity.
	AuthorName  string `mapstructure:"author_name"`
	AuthorEmail string `mapstructure:"author_email"`
}

// Load reads configuration from an optional explicit file, the user config
// directory, and the environment, in increasing priority of environment
// over file over defaults. A missing config file is fine; defaults apply.
func Load(explicitFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(appName)
	v.SetConfigType("yaml")

	configDir, err := os.UserConfigDir()
	if err == nil {
		v.AddConfigPath(filepath.Join(configDir, appName))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range defaults(configDir) {
		v.SetDefault(key, value)
	}

	if explicitFile != "" {
		v.SetConfigFile(explicitFile)
	}

	if err := v.ReadInConfig(); err != nil {
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if explicitFile != "" || !isNotFound {
			return nil, fmt.Errorf("failed to read configuration: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return cfg, nil
}

func defaults(configDir string) map[string]any {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	if configDir == "" {
		configDir = cacheDir
	}

	// Every key needs a default so environment-only overrides bind.
	return map[string]any{
		"posts_dir":        ".",
		"mirror_dir":       filepath.Join(cacheDir, appName, "mirror"),
		"credentials_file": filepath.Join(configDir, appName, "credentials.yaml"),
		"log_level":        "info",
		"git_host":         "github.com",
		"api_base_url":     "",
		"oauth_client_id":  "",
		"author_name":      "",
		"author_email":     "",
	}
}
