package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// Environment variable names
const (
	// EnvConfigFile overrides the location of the engine configuration file
	EnvConfigFile = "MUM_CONFIG"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Fixed names. User-configurable names (cache dir, record file, manifest)
// live in pkg/config.
const (
	// AppDirName is the directory name used under XDG base directories
	AppDirName = "mum"

	// ConfigFileName is the engine configuration file name
	ConfigFileName = "config.toml"
)

// Resolve returns p as a clean absolute path. Relative paths are joined to
// base; a leading ~ expands to the user's home directory.
func Resolve(base, p string) (string, error) {
	p = ExpandHome(p)
	if !filepath.IsAbs(p) {
		base = ExpandHome(base)
		if base == "" {
			base = "."
		}
		p = filepath.Join(base, p)
	}
	return filepath.Abs(p)
}

// IsRoot reports whether p names the filesystem root. The raw string is
// checked first, then its cleaned absolute form, so that "/", "//", "/./"
// and "/a/.." all count.
func IsRoot(p string) bool {
	if isRootString(p) {
		return true
	}
	abs, err := filepath.Abs(ExpandHome(p))
	if err != nil {
		return false
	}
	return isRootString(abs)
}

func isRootString(p string) bool {
	if p == "" {
		return false
	}
	vol := filepath.VolumeName(p)
	rest := p[len(vol):]
	if rest == "" {
		return vol != ""
	}
	return strings.Trim(rest, `/\`) == ""
}

// CacheRoot returns the cache namespace for an installation: a sibling
// directory named dirName next to the top-level target.
func CacheRoot(topTarget, dirName string) string {
	return filepath.Join(filepath.Dir(topTarget), dirName)
}

// RecordPath returns where the install record of topTarget lives.
func RecordPath(topTarget, fileName string) string {
	return filepath.Join(filepath.Dir(topTarget), fileName)
}

// ConfigFilePath returns the engine configuration file, honouring MUM_CONFIG.
func ConfigFilePath() string {
	if p := os.Getenv(EnvConfigFile); p != "" {
		return ExpandHome(p)
	}
	return filepath.Join(xdg.ConfigHome, AppDirName, ConfigFileName)
}

// ExpandHome expands a leading ~ or ~/ to the user's home directory
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	if len(path) > 1 && path[1] != '/' && path[1] != filepath.Separator {
		// ~user is not supported
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv(EnvHome)
		if homeDir == "" {
			return path
		}
	}

	if len(path) == 1 {
		return homeDir
	}
	return filepath.Join(homeDir, path[2:])
}
