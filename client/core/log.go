// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package core

import (
	"miauswap.org/cdex/client/catalog"
	"miauswap.org/cdex/dex"
)

// log is a logger that is initialized with no output filters. This means the
// package will not perform any logging by default until the caller requests it.
var log = dex.Disabled

// DisableLog disables all library log output. Logging output is disabled
// by default until UseLoggerMaker is called.
func DisableLog() {
	log = dex.Disabled
	catalog.UseLogger(dex.Disabled)
}

// UseLoggerMaker sets the core logger and the loggers of the packages core
// drives.
func UseLoggerMaker(maker *dex.LoggerMaker) {
	log = maker.Logger("CORE")
	catalog.UseLogger(maker.Logger("CTLG"))
}
