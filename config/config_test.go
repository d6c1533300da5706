package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"assessrag/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Chunk.WindowSize != 400 {
		t.Errorf("expected WindowSize=400, got %d", cfg.Chunk.WindowSize)
	}
	if cfg.Chunk.Overlap != 80 {
		t.Errorf("expected Overlap=80, got %d", cfg.Chunk.Overlap)
	}
	if cfg.Retrieve.TopK != 5 {
		t.Errorf("expected TopK=5, got %d", cfg.Retrieve.TopK)
	}
	if cfg.Evaluation.Matcher != "substring" {
		t.Errorf("expected Matcher=substring, got %s", cfg.Evaluation.Matcher)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		window  int
		overlap int
		wantErr bool
	}{
		{"valid", 400, 80, false},
		{"zero overlap", 10, 0, false},
		{"overlap equals window", 10, 10, true},
		{"overlap exceeds window", 10, 20, true},
		{"negative overlap", 10, -1, true},
		{"zero window", 0, 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Chunk.WindowSize = tc.window
			cfg.Chunk.Overlap = tc.overlap

			err := cfg.Validate()
			if tc.wantErr {
				if !errors.Is(err, domain.ErrConfiguration) {
					t.Errorf("expected ErrConfiguration, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateHashDimension(t *testing.T) {
	for _, dim := range []int{0, -8} {
		cfg := DefaultConfig()
		cfg.Embedding.Dimension = dim
		if err := cfg.Validate(); !errors.Is(err, domain.ErrConfiguration) {
			t.Errorf("dimension %d: expected ErrConfiguration, got %v", dim, err)
		}
	}

	// remote providers may leave the dimension to the model
	cfg := DefaultConfig()
	cfg.Embedding.Provider = "openai"
	cfg.Embedding.Dimension = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "assessrag.yaml")

	content := `
chunk:
  window_size: 256
  overlap: 32
retrieve:
  top_k: 10
  ranker: mmr
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Chunk.WindowSize != 256 {
		t.Errorf("expected WindowSize=256, got %d", cfg.Chunk.WindowSize)
	}
	if cfg.Chunk.Overlap != 32 {
		t.Errorf("expected Overlap=32, got %d", cfg.Chunk.Overlap)
	}
	if cfg.Retrieve.TopK != 10 {
		t.Errorf("expected TopK=10, got %d", cfg.Retrieve.TopK)
	}
	if cfg.Retrieve.Ranker != "mmr" {
		t.Errorf("expected Ranker=mmr, got %s", cfg.Retrieve.Ranker)
	}
	// untouched sections keep their defaults
	if cfg.Embedding.Provider != "hash" {
		t.Errorf("expected Provider=hash, got %s", cfg.Embedding.Provider)
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "assessrag.yaml")

	content := `
evaluation:
  k: 10
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Evaluation.K != 10 {
		t.Errorf("expected K=10, got %d", cfg.Evaluation.K)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assessrag.yaml")

	cfg := DefaultConfig()
	cfg.Embedding.Provider = "ollama"
	cfg.Embedding.BaseURL = "http://localhost:11434/v1"
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Embedding.Provider != "ollama" || loaded.Embedding.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("round trip lost embedding settings: %+v", loaded.Embedding)
	}
}

func TestIndexDBPath(t *testing.T) {
	path := IndexDBPath("/home/user/project")
	expected := filepath.Join("/home/user/project", ".assessrag", "index.db")
	if path != expected {
		t.Errorf("expected %s, got %s", expected, path)
	}
}

func TestResolvePath(t *testing.T) {
	if got := ResolvePath("/root", "data/x.json"); got != filepath.Join("/root", "data/x.json") {
		t.Errorf("unexpected relative resolution: %s", got)
	}
	if got := ResolvePath("/root", "/abs/x.json"); got != "/abs/x.json" {
		t.Errorf("absolute path should be kept, got %s", got)
	}
}
