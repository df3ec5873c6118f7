package paths

import (
	"os"
	"os/user"
	"path/filepath"
	"testing"
)

func TestUserHomeDir_NoSudo(t *testing.T) {
	t.Setenv("SUDO_USER", "")

	got, err := UserHomeDir()
	if err != nil {
		t.Fatalf("UserHomeDir() error = %v", err)
	}

	expected, _ := os.UserHomeDir()
	if got != expected {
		t.Errorf("UserHomeDir() = %q, want %q", got, expected)
	}
}

func TestUserHomeDir_WithSudoUser(t *testing.T) {
	currentUser, err := user.Current()
	if err != nil {
		t.Skip("Cannot get current user")
	}
	t.Setenv("SUDO_USER", currentUser.Username)

	got, err := UserHomeDir()
	if err != nil {
		t.Fatalf("UserHomeDir() error = %v", err)
	}
	if got != currentUser.HomeDir {
		t.Errorf("UserHomeDir() = %q, want %q", got, currentUser.HomeDir)
	}
}

func TestUserHomeDir_SudoUserRoot(t *testing.T) {
	// SUDO_USER=root is ignored
	t.Setenv("SUDO_USER", "root")

	got, err := UserHomeDir()
	if err != nil {
		t.Fatalf("UserHomeDir() error = %v", err)
	}
	expected, _ := os.UserHomeDir()
	if got != expected {
		t.Errorf("UserHomeDir() = %q, want %q", got, expected)
	}
}

func TestAppPaths(t *testing.T) {
	t.Setenv("SUDO_USER", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	appDir := filepath.Join(home, ".config", "animeparse")

	tests := []struct {
		name string
		fn   func() (string, error)
		want string
	}{
		{"app dir", AppDir, appDir},
		{"config", ConfigPath, filepath.Join(appDir, "config.toml")},
		{"database", DatabasePath, filepath.Join(appDir, "history.db")},
		{"log", LogPath, filepath.Join(appDir, "logs", "animeparse.log")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn()
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpand(t *testing.T) {
	t.Setenv("SUDO_USER", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	got, err := Expand("~/anime")
	if err != nil {
		t.Fatalf("Expand() error = %v", err)
	}
	if got != filepath.Join(home, "anime") {
		t.Errorf("Expand() = %q", got)
	}

	got, _ = Expand("/srv/anime")
	if got != "/srv/anime" {
		t.Errorf("Expand() changed an absolute path: %q", got)
	}
}
