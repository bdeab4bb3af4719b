package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema. Nested
// sections map naturally to the flag namespace.
type FileConfig struct {
	Session   string `yaml:"session" json:"session"`
	Output    string `yaml:"output" json:"output"`
	OutputPDF string `yaml:"outputPDF" json:"outputPDF"`

	LLM struct {
		BaseURL string `yaml:"base" json:"base"`
		Model   string `yaml:"model" json:"model"`
		APIKey  string `yaml:"key" json:"key"`
	} `yaml:"llm" json:"llm"`

	Max struct {
		Words           int `yaml:"words" json:"words"`
		AttachmentWords int `yaml:"attachmentWords" json:"attachmentWords"`
	} `yaml:"max" json:"max"`

	Store struct {
		Dir         string `yaml:"dir" json:"dir"`
		StrictPerms bool   `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"store" json:"store"`

	DryRun  bool `yaml:"dryRun" json:"dryRun"`
	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields
// that are currently unset/zero in cfg. Flags should already have been
// parsed; this lets file config supply defaults while preserving explicit
// flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	const (
		sessionDefault  = "session.json"
		outputDefault   = "draft_export.txt"
		storeDirDefault = ".draftgate-store"
	)

	if (cfg.SessionPath == "" || cfg.SessionPath == sessionDefault) && fc.Session != "" {
		cfg.SessionPath = fc.Session
	}
	if (cfg.OutputPath == "" || cfg.OutputPath == outputDefault) && fc.Output != "" {
		cfg.OutputPath = fc.Output
	}
	if cfg.OutputPDF == "" && fc.OutputPDF != "" {
		cfg.OutputPDF = fc.OutputPDF
	}

	if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if cfg.LLMModel == "" && fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}

	if cfg.MaxWords == 0 && fc.Max.Words > 0 {
		cfg.MaxWords = fc.Max.Words
	}
	if cfg.MaxAttachmentWords == 0 && fc.Max.AttachmentWords > 0 {
		cfg.MaxAttachmentWords = fc.Max.AttachmentWords
	}

	if (cfg.StoreDir == "" || cfg.StoreDir == storeDirDefault) && fc.Store.Dir != "" {
		cfg.StoreDir = fc.Store.Dir
	}
	if !cfg.StrictPerms && fc.Store.StrictPerms {
		cfg.StrictPerms = true
	}

	if !cfg.DryRun && fc.DryRun {
		cfg.DryRun = true
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}

// ValidateConfig performs minimal schema validation for required settings.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.SessionPath) == "" {
		return errors.New("config: session path is required")
	}
	if strings.TrimSpace(cfg.OutputPath) == "" {
		return errors.New("config: output path is required")
	}
	if cfg.MaxWords < 0 || cfg.MaxAttachmentWords < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	return nil
}
