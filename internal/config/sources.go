package config

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

const (
	// appDir is the per-user directory under $HOME for config and data.
	appDir = ".tasklist"
	// configFile is the config file name in every location.
	configFile = "tasklist.toml"
)

// findProjectConfigFile looks for tasklist.toml or .tasklist.toml in the
// current directory.
func findProjectConfigFile() string {
	for _, name := range []string{configFile, "." + configFile} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// findUserConfigFile returns ~/.tasklist/tasklist.toml if present, else
// <os config dir>/tasklist/tasklist.toml, else "".
func findUserConfigFile() string {
	var candidates []string
	if p, err := UserConfigPath(); err == nil {
		candidates = append(candidates, p)
	}
	if dir := osUserConfigDir(); dir != "" {
		candidates = append(candidates, filepath.Join(dir, "tasklist", configFile))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// UserConfigPath returns where a new user config file should be written.
func UserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, appDir, configFile), nil
}

func osUserConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		return os.Getenv("APPDATA")
	case "darwin":
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, "Library", "Application Support")
		}
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return xdg
		}
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, ".config")
		}
	}
	return ""
}

var windowsVar = regexp.MustCompile(`%([^%]+)%`)

// resolveDataDir turns a configured data_dir into an absolute path.
// $VAR (and %VAR% on Windows) are expanded, a leading ~ is the home
// directory, and relative paths are taken from root.
func resolveDataDir(dir, root string) string {
	if dir == "" {
		return ""
	}
	dir = os.ExpandEnv(dir)
	if runtime.GOOS == "windows" {
		dir = windowsVar.ReplaceAllStringFunc(dir, func(m string) string {
			if v, ok := os.LookupEnv(m[1 : len(m)-1]); ok {
				return v
			}
			return m
		})
	}
	if rest, ok := homeRelative(dir); ok {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, rest)
		}
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	return filepath.Clean(dir)
}

// homeRelative reports whether p starts with ~ and returns the remainder.
func homeRelative(p string) (string, bool) {
	switch {
	case p == "~":
		return "", true
	case strings.HasPrefix(p, "~/"):
		return p[2:], true
	case runtime.GOOS == "windows" && strings.HasPrefix(p, `~\`):
		return p[2:], true
	}
	return "", false
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.Store = DefaultStore
	cfg.DataDir = DefaultDataDir
	cfg.StorageKey = DefaultStorageKey
	cfg.PersistSort = false
	cfg.Theme = DefaultTheme
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
}
