package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
http:
  port: 9090
  timeout: 15s
ml:
  model_type: decision_tree
  model_path: models/tree.json
`)
	config, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if config.HTTP.Port != 9090 || config.HTTP.Timeout != 15*time.Second {
		t.Fatalf("http section not decoded: %+v", config.HTTP)
	}
	if config.ML.ModelType != "decision_tree" {
		t.Fatalf("unexpected model type %q", config.ML.ModelType)
	}
	dir := filepath.Dir(path)
	if config.ML.ModelPath != filepath.Join(dir, "models/tree.json") {
		t.Fatalf("model path not resolved: %s", config.ML.ModelPath)
	}
	if config.Data.ReferencePath != filepath.Join(dir, Default().Data.ReferencePath) {
		t.Fatalf("default reference path not applied: %s", config.Data.ReferencePath)
	}
	if config.Cache.Size != Default().Cache.Size || config.Log.Level != "info" {
		t.Fatalf("defaults not applied: %+v %+v", config.Cache, config.Log)
	}
}

func TestLoadKeepsAbsoluteAndMemoryPaths(t *testing.T) {
	path := writeConfig(t, `
database:
  path: ":memory:"
data:
  reference_path: /srv/heart.csv
`)
	config, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if config.Database.Path != ":memory:" || config.Data.ReferencePath != "/srv/heart.csv" {
		t.Fatalf("paths rewritten: %s %s", config.Database.Path, config.Data.ReferencePath)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "bad yaml", body: "http: [unclosed"},
		{name: "bad port", body: "http:\n  port: 70000\n"},
		{name: "bad format", body: "log:\n  format: xml\n"},
		{name: "empty model path", body: "ml:\n  model_path: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestWatchReportsChanges(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "model.json")
	other := filepath.Join(dir, "other.json")
	if err := os.WriteFile(model, []byte("{}"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes, err := Watch(ctx, zap.NewNop(), model)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	if err := os.WriteFile(other, []byte("{}"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(model, []byte(`{"changed":true}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case got := <-changes:
		want, _ := filepath.Abs(model)
		if got != want {
			t.Fatalf("expected change on %s, got %s", want, got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	for range changes {
	}
}
