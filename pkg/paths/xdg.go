// Package paths provides XDG-compliant path resolution for hspdebug.
//
// Resolution order:
// 1. HSPDEBUG_HOME (portable root) → $HSPDEBUG_HOME/{config,state,cache}
// 2. XDG env vars → $XDG_*_HOME/hspdebug
// 3. Platform defaults → ~/.config/hspdebug, ~/.local/state/hspdebug, etc.
package paths

import (
	"os"
	"path/filepath"
)

const appName = "hspdebug"

// HomeEnv names the environment variable that relocates every directory.
const HomeEnv = "HSPDEBUG_HOME"

func baseDir(homeSub, xdgEnv string, fallback ...string) string {
	if home := os.Getenv(HomeEnv); home != "" {
		return filepath.Join(home, homeSub)
	}
	if xdg := os.Getenv(xdgEnv); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		parts := append([]string{homeDir}, fallback...)
		return filepath.Join(append(parts, appName)...)
	}
	return ""
}

// ConfigDir returns the configuration directory.
// Used for the global hspdebug.yml.
func ConfigDir() string {
	return baseDir("config", "XDG_CONFIG_HOME", ".config")
}

// StateDir returns the state directory.
// Used for logs.
func StateDir() string {
	return baseDir("state", "XDG_STATE_HOME", ".local", "state")
}

// CacheDir returns the cache directory.
// Used as the default work directory where the build helper is compiled.
func CacheDir() string {
	return baseDir("cache", "XDG_CACHE_HOME", ".cache")
}

// LogDir returns the directory adapter log files are written to.
func LogDir() string {
	state := StateDir()
	if state == "" {
		return ""
	}
	return filepath.Join(state, "logs")
}

// PidFilePath returns the pid file of a listening adapter server.
func PidFilePath() string {
	state := StateDir()
	if state == "" {
		return ""
	}
	return filepath.Join(state, "hspdebug.pid")
}

// BuildDir returns the default work directory for the compile helper.
func BuildDir() string {
	cache := CacheDir()
	if cache == "" {
		return ""
	}
	return filepath.Join(cache, "build")
}

// EnsureDirs creates all hspdebug directories if they don't exist.
func EnsureDirs() error {
	for _, dir := range []string{ConfigDir(), StateDir(), CacheDir(), LogDir()} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
