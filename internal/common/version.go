package common

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// Build metadata injected at build time via ldflags. A .version file next to
// the binary fills in whatever the build left at its default.
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// GetVersion returns the semantic version string.
func GetVersion() string {
	return Version
}

// GetBuild returns the build timestamp.
func GetBuild() string {
	return Build
}

// GetGitCommit returns the short git commit hash.
func GetGitCommit() string {
	return GitCommit
}

// versionFile is the shape of the .version TOML written by the release
// script alongside the binary.
type versionFile struct {
	Version string `toml:"version"`
	Build   string `toml:"build"`
	Commit  string `toml:"commit"`
}

// LoadVersionFromFile loads build metadata from a .version file in the
// binary's directory. ldflags-injected values always win; the file only
// replaces fields still at their defaults.
func LoadVersionFromFile() {
	exe, err := os.Executable()
	if err != nil {
		return
	}
	loadVersionFrom(filepath.Join(filepath.Dir(exe), ".version"))
}

func loadVersionFrom(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	var vf versionFile
	if err := toml.Unmarshal(data, &vf); err != nil {
		return
	}

	if Version == "dev" && vf.Version != "" {
		Version = vf.Version
	}
	if Build == "unknown" && vf.Build != "" {
		Build = vf.Build
	}
	if GitCommit == "unknown" && vf.Commit != "" {
		GitCommit = vf.Commit
	}
}
