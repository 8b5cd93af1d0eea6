// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"miauswap.org/cdex/client/app"
	"miauswap.org/cdex/client/core"
	"miauswap.org/cdex/client/webserver"
	"miauswap.org/cdex/dex"
)

// appName defines the application name.
const appName = "cdexc"

var log = dex.Disabled

func main() {
	// Wrap the actual main so defers run in it.
	if err := mainCore(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(0)
}

func mainCore() error {
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel() // don't leak on the earliest returns

	cfg, err := configure()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Initialize logging.
	utc := !cfg.LocalLogs
	logMaker, closeLogger, err := app.InitLogging(cfg.LogPath, cfg.DebugLevel, !cfg.NoStdout, utc)
	if err != nil {
		return err
	}
	defer closeLogger()
	log = logMaker.Logger("APP")
	log.Infof("%s version %v (Go version %s)", appName, app.Version, runtime.Version())
	if utc {
		log.Infof("Logging with UTC time stamps. Current local time is %v",
			time.Now().Local().Format("15:04:05 MST"))
	}

	defer func() {
		if pv := recover(); pv != nil {
			log.Criticalf("Uh-oh! \n\nPanic:\n\n%v\n\nStack:\n\n%v\n\n",
				pv, string(debug.Stack()))
		}
	}()

	// Prepare the Core.
	coreCfg, err := cfg.Core(logMaker)
	if err != nil {
		return fmt.Errorf("error configuring core: %w", err)
	}
	clientCore, err := core.New(coreCfg)
	if err != nil {
		return fmt.Errorf("error creating client core: %w", err)
	}

	webSrv, err := webserver.New(cfg.Web(clientCore, logMaker.Logger("WEB")))
	if err != nil {
		return fmt.Errorf("failed creating web server: %w", err)
	}

	// Catch interrupt signal (e.g. ctrl+c). An order submission in flight is
	// allowed to complete.
	killChan := make(chan os.Signal, 1)
	signal.Notify(killChan, os.Interrupt)
	go func() {
		<-killChan
		log.Infof("Shutting down...")
		cancel()
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		clientCore.Run(appCtx)
		cancel() // in the event that Run returns prematurely prior to context cancellation
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		webSrv.Run(appCtx)
		cancel() // the listener failed
	}()

	// Wait for everything to stop.
	wg.Wait()
	log.Info("Exiting cdexc main.")
	return nil
}
