// Package misc keeps build-time program identification. Values are set by the
// linker during release builds (see Taskfile), defaults are for development.
package misc

var (
	appName = "epr"
	version = "0.0.0-dev"
	gitHash = "unknown"
)

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}
