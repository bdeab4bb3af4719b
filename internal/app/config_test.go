package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFile_YAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "draftgate.yaml")
	data := `
session: matters/bail.json
output: out/bail.txt
llm:
  base: http://localhost:8000/v1
  model: local-model
store:
  dir: /var/lib/draftgate
  strictPerms: true
verbose: true
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}

	cfg := Config{SessionPath: "session.json", OutputPath: "draft_export.txt", StoreDir: ".draftgate-store"}
	ApplyFileConfig(&cfg, fc)

	if cfg.SessionPath != "matters/bail.json" {
		t.Fatalf("SessionPath = %q", cfg.SessionPath)
	}
	if cfg.OutputPath != "out/bail.txt" {
		t.Fatalf("OutputPath = %q", cfg.OutputPath)
	}
	if cfg.LLMBaseURL != "http://localhost:8000/v1" || cfg.LLMModel != "local-model" {
		t.Fatalf("LLM config not applied: %+v", cfg)
	}
	if cfg.StoreDir != "/var/lib/draftgate" || !cfg.StrictPerms {
		t.Fatalf("store config not applied: %+v", cfg)
	}
	if !cfg.Verbose {
		t.Fatal("verbose not applied")
	}
}

func TestApplyFileConfig_FlagsWin(t *testing.T) {
	fc := FileConfig{Session: "from-file.json"}
	fc.LLM.Model = "file-model"

	cfg := Config{SessionPath: "explicit.json", LLMModel: "flag-model"}
	ApplyFileConfig(&cfg, fc)

	if cfg.SessionPath != "explicit.json" {
		t.Fatalf("explicit session path overridden: %q", cfg.SessionPath)
	}
	if cfg.LLMModel != "flag-model" {
		t.Fatalf("explicit model overridden: %q", cfg.LLMModel)
	}
}

func TestValidateConfig(t *testing.T) {
	if err := ValidateConfig(Config{OutputPath: "o"}); err == nil {
		t.Fatal("missing session path accepted")
	}
	if err := ValidateConfig(Config{SessionPath: "s"}); err == nil {
		t.Fatal("missing output path accepted")
	}
	if err := ValidateConfig(Config{SessionPath: "s", OutputPath: "o", MaxWords: -1}); err == nil {
		t.Fatal("negative limit accepted")
	}
	if err := ValidateConfig(Config{SessionPath: "s", OutputPath: "o"}); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}
