// Package instance locates the on-disk state of a named console instance.
package instance

import (
	"os"
	"path/filepath"
)

// HomeEnv overrides the base directory.
const HomeEnv = "CHATCONSOLE_HOME"

// BaseDir returns ~/.chatconsole unless CHATCONSOLE_HOME is set.
func BaseDir() string {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".chatconsole")
}

// Dir returns the instance-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "instances", name)
}

// SocketPath returns the gRPC unix socket path for an instance.
func SocketPath(name string) string {
	return filepath.Join(Dir(name), "chatd.sock")
}

func LockPath(name string) string {
	return filepath.Join(Dir(name), "LOCK")
}

// DBPath returns the SQLite database path.
func DBPath(name string) string {
	return filepath.Join(Dir(name), "chat.db")
}

// MediaDir returns the root of the blob store.
func MediaDir(name string) string {
	return filepath.Join(Dir(name), "media")
}

func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// LogPath returns the daemon log file path.
func LogPath(name string) string {
	return filepath.Join(LogDir(name), "chatd.log")
}

// TUILogPath returns the log file used by chattui, which cannot write to
// stderr while the screen is active.
func TUILogPath(name string) string {
	return filepath.Join(LogDir(name), "chattui.log")
}

// ConfigPath returns the instance's config.toml.
func ConfigPath(name string) string {
	return filepath.Join(Dir(name), "config.toml")
}

// GlobalConfigPath returns the config shared by all instances.
func GlobalConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the instance directory tree with proper permissions.
func EnsureDir(name string) error {
	for _, d := range []string{Dir(name), LogDir(name), MediaDir(name)} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
