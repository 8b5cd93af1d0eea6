// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package catalog

import "miauswap.org/cdex/dex"

// log is a logger that is initialized with no output filters. This means the
// package will not perform any logging by default until the caller requests it.
var log = dex.Disabled

// UseLogger sets the package-wide logger.
func UseLogger(logger dex.Logger) {
	log = logger
}
