package config

import (
	"os"

	"github.com/kurtosis-tech/stacktrace"
)

// HasSourceDir reports whether the project has a .ruleforge directory.
func HasSourceDir(projectDirpath string) (bool, error) {
	sourceDirpath := GetSourceDirpath(projectDirpath)
	info, err := os.Stat(sourceDirpath)
	if err == nil {
		if !info.IsDir() {
			return false, stacktrace.NewError("'%s' exists but is not a directory", sourceDirpath)
		}
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, stacktrace.Propagate(err, "failed to stat source directory '%s'", sourceDirpath)
}
