package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/dephub/cargo-bump/providers/changelog"
)

// FileName is the config file looked up next to the workspace root manifest.
const FileName = "cargo-bump.yaml"

// DefaultCommitMessage is the commit message template placed on the clipboard.
const DefaultCommitMessage = "chore({{.Package}}): prepare release {{.Version}}"

var ErrInvalidConfig = errors.New("invalid config")

// Config holds the tool settings.
type Config struct {
	ChangelogFiles []string
	CommitMessage  string
	Clipboard      bool
	LogFile        string

	commitTmpl *template.Template
}

type yamlConfig struct {
	ChangelogFiles []string `yaml:"changelog_files"`
	CommitMessage  string   `yaml:"commit_message"`
	Clipboard      *bool    `yaml:"clipboard"`
	LogFile        string   `yaml:"log_file"`
}

// Default returns the built-in settings.
func Default() Config {
	cfg := Config{
		ChangelogFiles: append([]string(nil), changelog.DefaultFileNames...),
		CommitMessage:  DefaultCommitMessage,
		Clipboard:      true,
	}
	cfg.commitTmpl = template.Must(template.New("commit_message").Parse(cfg.CommitMessage))
	return cfg
}

// Load reads the config at path. A missing file yields the defaults unless required is set.
func Load(path string, required bool) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.LogFile != "" && !filepath.IsAbs(cfg.LogFile) {
		cfg.LogFile = filepath.Join(filepath.Dir(path), cfg.LogFile)
	}
	return cfg, nil
}

// Parse parses and validates config content, applying it on top of the defaults.
func Parse(data []byte) (Config, error) {
	var y yamlConfig
	if err := yaml.Unmarshal(data, &y); err != nil {
		return Config{}, fmt.Errorf("%w: parsing config YAML: %v", ErrInvalidConfig, err)
	}

	cfg := Default()
	if y.ChangelogFiles != nil {
		cfg.ChangelogFiles = y.ChangelogFiles
	}
	if y.CommitMessage != "" {
		cfg.CommitMessage = y.CommitMessage
	}
	if y.Clipboard != nil {
		cfg.Clipboard = *y.Clipboard
	}
	cfg.LogFile = y.LogFile

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	for i, name := range c.ChangelogFiles {
		if name == "" {
			return fmt.Errorf("%w: changelog_files[%d] is empty", ErrInvalidConfig, i)
		}
		if strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("%w: changelog_files[%d] must be a file name: %s", ErrInvalidConfig, i, name)
		}
	}

	tmpl, err := template.New("commit_message").Option("missingkey=error").Parse(c.CommitMessage)
	if err != nil {
		return fmt.Errorf("%w: commit_message: %v", ErrInvalidConfig, err)
	}
	c.commitTmpl = tmpl

	// catch references to unknown fields early
	if _, err := c.RenderCommitMessage("pkg", "0.0.0"); err != nil {
		return fmt.Errorf("%w: commit_message: %v", ErrInvalidConfig, err)
	}
	return nil
}

// RenderCommitMessage renders the commit message for a released package.
func (c Config) RenderCommitMessage(pkg, version string) (string, error) {
	tmpl := c.commitTmpl
	if tmpl == nil {
		var err error
		if tmpl, err = template.New("commit_message").Parse(c.CommitMessage); err != nil {
			return "", err
		}
	}

	var buf bytes.Buffer
	data := struct{ Package, Version string }{pkg, version}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
