// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package app

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// cleanAndExpandPath expands environment variables and a leading ~ or ~user
// in path, and cleans the result. An empty path stays empty. If the home
// directory cannot be found, ~ is the working directory.
func cleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}
	// os.ExpandEnv only knows $VARIABLE, not %VARIABLE%.
	path = os.ExpandEnv(path)
	rest, tilde := strings.CutPrefix(path, "~")
	if !tilde {
		return filepath.Clean(path)
	}
	userName := rest
	if i := strings.IndexAny(rest, `/`+string(os.PathSeparator)); i >= 0 {
		userName, rest = rest[:i], rest[i:]
	} else {
		rest = ""
	}
	return filepath.Join(homeDir(userName), rest)
}

func homeDir(userName string) string {
	var u *user.User
	var err error
	if userName == "" {
		u, err = user.Current()
	} else {
		u, err = user.Lookup(userName)
	}
	if err != nil || u.HomeDir == "" {
		return "."
	}
	return u.HomeDir
}
