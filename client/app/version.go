// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package app

import (
	"fmt"
	"runtime/debug"
)

// appVersion is the semantic version of the application.
const appVersion = "0.1.0-pre"

// Version is the application version, with the VCS revision as build metadata
// when the binary was built from a checkout.
var Version = withRevision(appVersion)

func withRevision(ver string) string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ver
	}
	for _, setting := range bi.Settings {
		if setting.Key == "vcs.revision" && len(setting.Value) >= 7 {
			return fmt.Sprintf("%s+%s", ver, setting.Value[:7])
		}
	}
	return ver
}
