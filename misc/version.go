// Package misc keeps program identity injected at link time.
package misc

import (
	"os"
	"path/filepath"
	"strings"
)

// set with -ldflags "-X cssfmt/misc.version=... -X cssfmt/misc.gitHash=..."
var (
	version = "dev"
	gitHash = "unknown"
	appName = "cssfmt"
)

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}

// GetAppName returns program name without extension, falls back to
// built-in name when executable name is not available.
func GetAppName() string {
	if len(os.Args) == 0 || len(os.Args[0]) == 0 {
		return appName
	}
	name := filepath.Base(os.Args[0])
	if strings.HasSuffix(name, ".test") {
		// running under go test
		return appName
	}
	if name = strings.TrimSuffix(name, filepath.Ext(name)); len(name) == 0 {
		return appName
	}
	return name
}
