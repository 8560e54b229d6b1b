// Package config loads the wallabagsync JSON configuration file and writes a
// starter template when none exists yet.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// ErrCreatedTemplate signals that no config file was found and a template was
// written in its place. Startup must halt so the user can fill it in.
var ErrCreatedTemplate = errors.New("created template config file")

// Config is the on-disk configuration. CheckInterval is accepted for
// compatibility with older config files; scheduling is the job of whatever
// invokes the binary, so the value is ignored.
type Config struct {
	WallabagURL     string `json:"wallabag_url"`
	ClientID        string `json:"client_id"`
	ClientSecret    string `json:"client_secret"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	OutputDirectory string `json:"output_directory"`
	ExportFormat    string `json:"export_format,omitempty"`
	CheckInterval   int    `json:"check_interval,omitempty"`
}

// Load reads and validates the config file at path. If the file does not
// exist, a template is written there and ErrCreatedTemplate is returned.
func Load(path string) (*Config, error) {
	fileContent, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := writeTemplate(path); err != nil {
			return nil, fmt.Errorf("write template config: %w", err)
		}
		return nil, ErrCreatedTemplate
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(fileContent, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.WallabagURL = strings.TrimRight(strings.TrimSpace(cfg.WallabagURL), "/")
	parsed, err := url.Parse(cfg.WallabagURL)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return nil, fmt.Errorf("config %s: wallabag_url %q is not an absolute URL", path, cfg.WallabagURL)
	}

	if cfg.OutputDirectory == "" {
		cfg.OutputDirectory = "wallabag_exports"
	}

	switch cfg.ExportFormat {
	case "":
		cfg.ExportFormat = "html"
	case "html", "epub":
	default:
		return nil, fmt.Errorf("config %s: unknown export_format %q", path, cfg.ExportFormat)
	}

	return &cfg, nil
}

func writeTemplate(path string) error {
	template := Config{
		WallabagURL:     "https://your-wallabag-instance.com",
		ClientID:        "your_client_id",
		ClientSecret:    "your_client_secret",
		Username:        "your_username",
		Password:        "your_password",
		OutputDirectory: "wallabag_exports",
		ExportFormat:    "html",
		CheckInterval:   300,
	}

	content, err := json.MarshalIndent(template, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, content, 0644)
}
