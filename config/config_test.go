package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"earshot/capture"
)

func TestLoadCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Capture != capture.DefaultConfig() {
		t.Errorf("capture = %+v, want defaults", cfg.Capture)
	}
	if !cfg.Correction.Enabled || cfg.Transcription.Format != "wav" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Capture != cfg.Capture {
		t.Errorf("reloaded capture = %+v, want %+v", again.Capture, cfg.Capture)
	}
}

func TestSaveWritesDurationStrings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"block_duration: 30ms", "silence_to_stop: 2s", "timeout: 2m0s"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("config file missing %q:\n%s", want, data)
		}
	}
	if cfg.Path() != path {
		t.Errorf("Path() = %q", cfg.Path())
	}
}

func TestLoadFromReader(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		check   func(t *testing.T, cfg *Config)
		wantErr string
	}{
		{
			name: "partial keeps defaults",
			yaml: "capture:\n  silence_to_stop: 1500ms\n  min_threshold: 0\ntranscription:\n  provider: groq\n",
			check: func(t *testing.T, cfg *Config) {
				if cfg.Capture.SilenceToStop != 1500*time.Millisecond {
					t.Errorf("silence_to_stop = %s", cfg.Capture.SilenceToStop)
				}
				if cfg.Capture.MinThreshold != 0 {
					t.Errorf("explicit zero floor lost: %g", cfg.Capture.MinThreshold)
				}
				if cfg.Capture.BlockDuration != 30*time.Millisecond {
					t.Errorf("block_duration = %s, want default", cfg.Capture.BlockDuration)
				}
				if cfg.Transcription.Provider != "groq" {
					t.Errorf("provider = %q", cfg.Transcription.Provider)
				}
			},
		},
		{
			name: "empty document",
			yaml: "",
			check: func(t *testing.T, cfg *Config) {
				if cfg.Capture != capture.DefaultConfig() {
					t.Errorf("capture = %+v", cfg.Capture)
				}
			},
		},
		{
			name: "correction disabled",
			yaml: "correction:\n  enabled: false\n",
			check: func(t *testing.T, cfg *Config) {
				if cfg.Correction.Enabled {
					t.Error("correction should be disabled")
				}
				if cfg.Correction.Model != "gpt-4o-mini" {
					t.Errorf("model = %q", cfg.Correction.Model)
				}
			},
		},
		{name: "unknown field", yaml: "prefx_text: hi\n", wantErr: "prefx_text"},
		{name: "bad duration", yaml: "capture:\n  timeout: soon\n", wantErr: "decode yaml"},
		{name: "invalid capture", yaml: "capture:\n  threshold_multiplier: 0.5\n", wantErr: "threshold_multiplier"},
		{name: "invalid provider", yaml: "transcription:\n  provider: whisperd\n", wantErr: "transcription.provider"},
		{name: "invalid format", yaml: "transcription:\n  format: mp3\n", wantErr: "transcription.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFromReader(strings.NewReader(tt.yaml))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadFromReader: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GetPrefix() != "" {
		t.Errorf("default prefix = %q", cfg.GetPrefix())
	}

	cfg.SetPrefix("Dear team,\r\nplease note:\rthanks")
	if want := "Dear team,\nplease note:\nthanks"; cfg.GetPrefix() != want {
		t.Errorf("prefix = %q, want %q", cfg.GetPrefix(), want)
	}
	if err := cfg.Save(); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.GetPrefix() != cfg.GetPrefix() {
		t.Errorf("reloaded prefix = %q, want %q", loaded.GetPrefix(), cfg.GetPrefix())
	}
	if got := loaded.ApplyPrefix("hello"); got != cfg.GetPrefix()+"hello" {
		t.Errorf("ApplyPrefix = %q", got)
	}

	loaded.ClearPrefix()
	if got := loaded.ApplyPrefix("hello"); got != "hello" {
		t.Errorf("ApplyPrefix without prefix = %q", got)
	}
}

func TestApplyPrefixIsVerbatim(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"", "hello"},
		{"Q: ", "Q: hello"},
		{"# task\n", "# task\nhello"},
		{"# task\r\n", "# task\nhello"},
		{"Note:", "Note:hello"},
	}
	for _, tt := range tests {
		cfg := Default()
		cfg.SetPrefix(tt.prefix)
		if got := cfg.ApplyPrefix("hello"); got != tt.want {
			t.Errorf("prefix %q: ApplyPrefix = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

func TestDefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	got, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "earshot", "config.yaml"); got != want {
		t.Errorf("DefaultPath = %q, want %q", got, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", dir)
	got, err = DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, ".config", "earshot", "config.yaml"); got != want {
		t.Errorf("DefaultPath = %q, want %q", got, want)
	}
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(cfg.Path(), filepath.Join("earshot", "config.yaml")) {
		t.Errorf("Path() = %q", cfg.Path())
	}
}
