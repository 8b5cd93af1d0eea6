// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/shopspring/decimal"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatalf("error writing %s: %v", name, err)
	}
	return path
}

func TestParseFileConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, configFilename, `[Application Options]
webaddr = 127.0.0.1:7000
ackdelay = 250ms
ethrate = 2000
log = debug
`)

	cfg := DefaultConfig
	if err := parseFileConfig(path, &cfg, []string{"--ethrate=1500"}); err != nil {
		t.Fatalf("parseFileConfig error: %v", err)
	}
	if cfg.WebAddr != "127.0.0.1:7000" || cfg.AckDelay != 250*time.Millisecond || cfg.DebugLevel != "debug" {
		t.Fatalf("file values not parsed: %s", spew.Sdump(cfg))
	}
	// Command line arguments take precedence.
	if cfg.ETHRate != "1500" {
		t.Fatalf("wrong ethrate %s", cfg.ETHRate)
	}

	// A missing file is not an error.
	cfg = DefaultConfig
	if err := parseFileConfig(filepath.Join(dir, "nope.conf"), &cfg, nil); err != nil {
		t.Fatalf("error for missing file: %v", err)
	}
	if cfg.AckDelay != DefaultConfig.AckDelay {
		t.Fatalf("defaults changed")
	}

	bad := writeFile(t, dir, "bad.conf", "[Application Options]\nnotanoption = 1\n")
	cfg = DefaultConfig
	if err := parseFileConfig(bad, &cfg, nil); err == nil {
		t.Fatalf("no error for unknown option")
	}
}

func TestResolveConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig
	if err := ResolveConfig(dir, &cfg); err != nil {
		t.Fatalf("ResolveConfig error: %v", err)
	}
	if cfg.WebAddr != "127.0.0.1:5760" {
		t.Fatalf("wrong default webaddr %s", cfg.WebAddr)
	}
	if cfg.LogPath != filepath.Join(dir, "logs", logFilename) {
		t.Fatalf("wrong default log path %s", cfg.LogPath)
	}

	cfg = DefaultConfig
	cfg.WebAddr = "no port"
	if err := ResolveConfig(dir, &cfg); err == nil {
		t.Fatalf("no error for bad webaddr")
	}
	cfg = DefaultConfig
	cfg.RatePerSec = -1
	if err := ResolveConfig(dir, &cfg); err == nil {
		t.Fatalf("no error for negative rate limit")
	}
}

func TestResolveCLIConfigPaths(t *testing.T) {
	cfg := DefaultConfig
	cfg.AppData = filepath.Join(t.TempDir(), "cdex")
	appData, cfgPath := ResolveCLIConfigPaths(&cfg)
	if appData != cfg.AppData || cfgPath != filepath.Join(appData, configFilename) {
		t.Fatalf("config path not moved with appdata: %s, %s", appData, cfgPath)
	}
}

func TestCoreConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig
	cfg.TiersPath = writeFile(t, dir, "tiers.conf", `vipstake = 20000

[Bronze]
minstake = 5000
lockdays = 30
feediscount = 0
multiplier = 1x

[Gold]
minstake = 100000
lockdays = 180
feediscount = 25
multiplier = 3x
`)
	coreCfg, err := cfg.Core(nil)
	if err != nil {
		t.Fatalf("Core error: %v", err)
	}
	if !coreCfg.ETHRate.Equal(decimal.NewFromInt(1000)) || coreCfg.AckDelay != 1200*time.Millisecond {
		t.Fatalf("wrong core config %s", spew.Sdump(coreCfg))
	}
	if coreCfg.Catalog != nil {
		t.Fatalf("catalog loaded without a path")
	}
	tiers := coreCfg.Tiers.Tiers()
	if len(tiers) != 2 || tiers[1].Name != "Gold" || !coreCfg.Tiers.VIPStake().Equal(decimal.NewFromInt(20000)) {
		t.Fatalf("wrong tiers %s", spew.Sdump(tiers))
	}

	cfg.TiersPath = ""
	cfg.CatalogPath = filepath.Join(dir, "missing.yaml")
	if _, err = cfg.Core(nil); err == nil || !strings.Contains(err.Error(), "catalog") {
		t.Fatalf("expected catalog error, got %v", err)
	}

	cfg.CatalogPath = ""
	for _, rate := range []string{"0", "-1", "x"} {
		cfg.ETHRate = rate
		if _, err = cfg.Core(nil); err == nil {
			t.Fatalf("no error for ethrate %q", rate)
		}
	}
	cfg.ETHRate = defaultETHRate
	cfg.AckDelay = -time.Second
	if _, err = cfg.Core(nil); err == nil {
		t.Fatalf("no error for negative ackdelay")
	}
}

func TestInitLogging(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", logFilename)
	lm, closeFn, err := InitLogging(path, "info,APP=debug", false, true)
	if err != nil {
		t.Fatalf("InitLogging error: %v", err)
	}
	log := lm.Logger("APP")
	log.Debugf("test entry")
	closeFn()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("error reading log file: %v", err)
	}
	if !strings.Contains(string(b), "test entry") {
		t.Fatalf("log entry not written: %q", string(b))
	}

	if _, _, err := InitLogging(path, "loud", false, true); err == nil {
		t.Fatalf("no error for bad log level")
	}
}
