package instance

import (
	"fmt"
	"os"
	"regexp"

	"github.com/chatconsole/chatconsole/internal/config"
)

const (
	DefaultName = "main"
	// NameEnv selects the instance when no flag is given.
	NameEnv = "CHATCONSOLE_INSTANCE"
)

var nameRegexp = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// ValidateName checks that name conforms to instance naming rules.
func ValidateName(name string) error {
	if !nameRegexp.MatchString(name) {
		return fmt.Errorf("invalid instance name %q: must match ^[a-z0-9_-]{1,64}$", name)
	}
	return nil
}

// Resolve determines the active instance name using precedence:
// 1. flagOverride (--instance flag)
// 2. CHATCONSOLE_INSTANCE
// 3. global config.toml default_instance
// 4. "main"
func Resolve(flagOverride string) string {
	if flagOverride != "" {
		return flagOverride
	}
	if env := os.Getenv(NameEnv); env != "" {
		return env
	}
	g, err := config.LoadGlobal(GlobalConfigPath())
	if err == nil && g.DefaultInstance != "" {
		return g.DefaultInstance
	}
	return DefaultName
}
