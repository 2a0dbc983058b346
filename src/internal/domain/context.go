package domain

import (
	"os"
	"path/filepath"
	"strings"
)

type Config struct {
	Version    string
	Host       string
	Port       string
	Root       string // absolute directory files are served from
	LiveReload bool
	OnChange   string // shell command re-run on every change, empty disables the hook
	Debug      bool
}

type Context struct {
	Config Config
}

// Addr is the host:port the listener binds to.
func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}

// PublicURL is the address printed for the developer to open.
func (c Config) PublicURL() string {
	return "http://localhost:" + c.Port
}

// ResolveRoot returns the directory containing the running executable.
// Binaries started through `go run` live in a throwaway build directory,
// so for those the current working directory is used instead.
func ResolveRoot() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return os.Getwd()
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return rootFor(exe, os.TempDir(), os.Getwd)
}

func rootFor(exe, tmp string, getwd func() (string, error)) (string, error) {
	dir := filepath.Dir(exe)
	if isBuildCache(dir, tmp) {
		return getwd()
	}
	return filepath.Abs(dir)
}

func isBuildCache(dir, tmp string) bool {
	if tmp == "" {
		return false
	}
	rel, err := filepath.Rel(tmp, dir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	return strings.HasPrefix(filepath.ToSlash(rel), "go-build")
}
