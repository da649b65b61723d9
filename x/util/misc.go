package util

import (
	"runtime/debug"
)

// GetGitHash returns the git hash of the current build.
func GetGitHash() string {
	hash := "unknown"
	if info, available := debug.ReadBuildInfo(); available {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				hash = setting.Value
				break
			}
		}
	}
	return hash
}

// GetVersion returns the version of the current build.
func GetVersion() string {
	version := "unknown"
	if info, available := debug.ReadBuildInfo(); available {
		version = info.Main.Version
	}
	return version
}

// GetFullVersion returns the version plus the short git hash.
func GetFullVersion() string {
	hash := GetGitHash()
	if len(hash) > 7 {
		hash = hash[:7]
	}
	return GetVersion() + "-" + hash
}
