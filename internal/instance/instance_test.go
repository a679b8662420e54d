package instance

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPaths(t *testing.T) {
	base := t.TempDir()
	t.Setenv(HomeEnv, base)

	dir := filepath.Join(base, "instances", "clinic")
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"dir", Dir("clinic"), dir},
		{"socket", SocketPath("clinic"), filepath.Join(dir, "chatd.sock")},
		{"lock", LockPath("clinic"), filepath.Join(dir, "LOCK")},
		{"db", DBPath("clinic"), filepath.Join(dir, "chat.db")},
		{"media", MediaDir("clinic"), filepath.Join(dir, "media")},
		{"log", LogPath("clinic"), filepath.Join(dir, "logs", "chatd.log")},
		{"config", ConfigPath("clinic"), filepath.Join(dir, "config.toml")},
		{"global config", GlobalConfigPath(), filepath.Join(base, "config.toml")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestBaseDirDefault(t *testing.T) {
	t.Setenv(HomeEnv, "")
	home, _ := os.UserHomeDir()
	if got, want := BaseDir(), filepath.Join(home, ".chatconsole"); got != want {
		t.Errorf("BaseDir() = %q, want %q", got, want)
	}
}

func TestEnsureDir(t *testing.T) {
	t.Setenv(HomeEnv, t.TempDir())
	if err := EnsureDir("test"); err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}
	for _, d := range []string{Dir("test"), LogDir("test"), MediaDir("test")} {
		info, err := os.Stat(d)
		if err != nil {
			t.Fatalf("%s not created: %v", d, err)
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", d)
		}
		if perm := info.Mode().Perm(); perm != 0700 {
			t.Errorf("%s permission = %o, want 0700", d, perm)
		}
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "main", false},
		{"valid with numbers", "clinic2", false},
		{"valid with hyphen", "north-wing", false},
		{"valid with underscore", "north_wing", false},
		{"valid max length", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
		{"empty", "", true},
		{"uppercase", "Main", true},
		{"dot", "my.clinic", true},
		{"slash", "../etc", true},
		{"too long", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	base := t.TempDir()
	t.Setenv(HomeEnv, base)
	t.Setenv(NameEnv, "")

	if got := Resolve(""); got != DefaultName {
		t.Errorf("Resolve() = %q, want %q", got, DefaultName)
	}

	if err := os.WriteFile(GlobalConfigPath(), []byte(`default_instance = "fromconfig"`), 0600); err != nil {
		t.Fatal(err)
	}
	if got := Resolve(""); got != "fromconfig" {
		t.Errorf("Resolve() = %q, want fromconfig", got)
	}

	t.Setenv(NameEnv, "fromenv")
	if got := Resolve(""); got != "fromenv" {
		t.Errorf("Resolve() = %q, want fromenv", got)
	}

	if got := Resolve("fromflag"); got != "fromflag" {
		t.Errorf("Resolve() = %q, want fromflag", got)
	}
}
