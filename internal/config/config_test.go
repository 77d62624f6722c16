package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := Default()
	cfg.ChatDB = "/tmp/chat.db"
	cfg.PollInterval = Duration{750 * time.Millisecond}
	cfg.WatchFS = false
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.ChatDB != "/tmp/chat.db" {
		t.Errorf("ChatDB = %q, want /tmp/chat.db", loaded.ChatDB)
	}
	if loaded.PollInterval.Duration != 750*time.Millisecond {
		t.Errorf("PollInterval = %s, want 750ms", loaded.PollInterval)
	}
	if loaded.WatchFS {
		t.Error("WatchFS = true, want false")
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("poll_interval = \"1s\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.PollInterval.Duration != time.Second {
		t.Errorf("PollInterval = %s, want 1s", cfg.PollInterval)
	}
	if cfg.MessageLimit != 100 || cfg.DispatchTimeout.Duration != 30*time.Second {
		t.Errorf("defaults not kept: %+v", cfg)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}

	cfg, err := LoadOrDefault("/nonexistent/config.toml")
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.ConversationLimit != 50 {
		t.Errorf("ConversationLimit = %d, want default 50", cfg.ConversationLimit)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"bad duration":  "poll_interval = \"soon\"\n",
		"too fast":      "poll_interval = \"1ms\"\n",
		"zero limit":    "message_limit = 0\n",
		"unknown level": "log_level = \"loud\"\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(body), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadOrDefault(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}
