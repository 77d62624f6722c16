package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBaseDirDefault(t *testing.T) {
	t.Setenv(HomeEnv, "")
	home, _ := os.UserHomeDir()
	if got, want := BaseDir(), filepath.Join(home, ".imsg"); got != want {
		t.Errorf("BaseDir() = %q, want %q", got, want)
	}
}

func TestBaseDirOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(HomeEnv, dir)

	tests := map[string]string{
		"config": ConfigPath(),
		"state":  StateDBPath(),
		"log":    LogPath("imsgtui"),
	}
	want := map[string]string{
		"config": filepath.Join(dir, "config.toml"),
		"state":  filepath.Join(dir, "state.db"),
		"log":    filepath.Join(dir, "logs", "imsgtui.log"),
	}
	for name, got := range tests {
		if got != want[name] {
			t.Errorf("%s path = %q, want %q", name, got, want[name])
		}
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	t.Setenv(HomeEnv, dir)

	if err := EnsureDir(); err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}
	info, err := os.Stat(LogDir())
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0700 {
		t.Errorf("log dir permission = %o, want 0700", perm)
	}
}
