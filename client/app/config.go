// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package app

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
	"miauswap.org/cdex/client/catalog"
	"miauswap.org/cdex/client/core"
	"miauswap.org/cdex/client/webserver"
	"miauswap.org/cdex/dex"
	"miauswap.org/cdex/dex/staking"
)

const (
	defaultWebHost   = "127.0.0.1"
	defaultWebPort   = "5760"
	defaultLogLevel  = "info"
	defaultETHRate   = "1000"
	defaultRateBurst = 40
	configFilename   = "cdexc.conf"
	logFilename      = "cdexc.log"
)

var (
	defaultApplicationDirectory = appDataDir("cdexc")
	defaultConfigPath           = filepath.Join(defaultApplicationDirectory, configFilename)
)

// appDataDir is the per-user application directory for the app name, or the
// name itself under the working directory if the user has no config
// directory.
func appDataDir(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, name)
}

// CoreConfig encapsulates the settings specific to core.Core.
type CoreConfig struct {
	CatalogPath string        `long:"catalog" description:"Path to a YAML reference catalog replacing the built-in dataset."`
	TiersPath   string        `long:"tiers" description:"Path to an INI staking tier table replacing the built-in tiers."`
	AckDelay    time.Duration `long:"ackdelay" description:"Order acknowledgement delay, e.g. 1200ms. 0 places orders immediately."`
	ETHRate     string        `long:"ethrate" description:"Creator revenue units per ETH, for distribution payouts."`
}

// WebConfig encapsulates the configuration needed for the web server.
type WebConfig struct {
	WebAddr    string  `long:"webaddr" description:"HTTP server address"`
	RatePerSec float64 `long:"ratelimit" description:"API requests per second allowed per client. 0 is no limit."`
	RateBurst  int     `long:"rateburst" description:"API request burst allowed per client."`
	IndentJSON bool    `long:"indentjson" description:"Pretty-print API responses."`
}

// LogConfig encapsulates the logging-related settings.
type LogConfig struct {
	LogPath    string `long:"logpath" description:"A file to save app logs"`
	DebugLevel string `long:"log" description:"Logging level {trace, debug, info, warn, error, critical}, optionally per subsystem, e.g. info,CORE=debug"`
	LocalLogs  bool   `long:"loglocal" description:"Use local time zone time stamps in log entries."`
	NoStdout   bool   `long:"nostdout" description:"Log only to the log file."`
}

// Config is the application configuration definition. This composite struct
// captures the configuration needed for core and the web server, as well as
// some application-level directives.
type Config struct {
	CoreConfig
	WebConfig
	LogConfig
	// AppData and ConfigPath should be parsed from the command-line, as it
	// makes no sense to set these in the config file itself. If no values are
	// assigned, defaults will be used.
	AppData    string `long:"appdata" description:"Path to application directory."`
	ConfigPath string `long:"config" description:"Path to an INI configuration file."`
	ShowVer    bool   `short:"V" long:"version" description:"Display version information and exit"`
	Language   string `long:"lang" description:"BCP 47 tag for preferred language, e.g. en-GB"`
}

// DefaultConfig is the configuration before the command line and config file
// are applied.
var DefaultConfig = Config{
	AppData:    defaultApplicationDirectory,
	ConfigPath: defaultConfigPath,
	CoreConfig: CoreConfig{
		AckDelay: core.DefaultAckDelay,
		ETHRate:  defaultETHRate,
	},
	WebConfig: WebConfig{
		RatePerSec: 20,
		RateBurst:  defaultRateBurst,
	},
	LogConfig: LogConfig{DebugLevel: defaultLogLevel},
}

// Core creates a core.Core configuration, loading the catalog and tier table
// files if set.
func (cfg *Config) Core(lm *dex.LoggerMaker) (*core.Config, error) {
	ethRate, err := decimal.NewFromString(cfg.ETHRate)
	if err != nil || !ethRate.IsPositive() {
		return nil, fmt.Errorf("invalid ethrate %q", cfg.ETHRate)
	}
	if cfg.AckDelay < 0 {
		return nil, fmt.Errorf("negative ackdelay %s", cfg.AckDelay)
	}
	coreCfg := &core.Config{
		LoggerMaker: lm,
		AckDelay:    cfg.AckDelay,
		Language:    cfg.Language,
		ETHRate:     ethRate,
	}
	if cfg.CatalogPath != "" {
		if coreCfg.Catalog, err = catalog.Load(cfg.CatalogPath); err != nil {
			return nil, fmt.Errorf("error loading catalog: %w", err)
		}
	}
	if cfg.TiersPath != "" {
		if coreCfg.Tiers, err = staking.LoadTable(cfg.TiersPath); err != nil {
			return nil, err
		}
	}
	return coreCfg, nil
}

// Web creates a configuration for the webserver.
func (cfg *Config) Web(c *core.Core, log dex.Logger) *webserver.Config {
	return &webserver.Config{
		Core:       c,
		Addr:       cfg.WebAddr,
		Logger:     log,
		RatePerSec: rate.Limit(cfg.RatePerSec),
		Burst:      cfg.RateBurst,
		Indent:     cfg.IndentJSON,
	}
}

// ParseCLIConfig parses the command-line arguments into the provided struct
// with go-flags tags. If the --help flag has been passed, the struct is
// described back to the terminal and the program exits using os.Exit.
func ParseCLIConfig(cfg any) error {
	preParser := flags.NewParser(cfg, flags.HelpFlag|flags.PassDoubleDash)
	_, flagerr := preParser.Parse()

	if flagerr != nil {
		var e *flags.Error
		ok := errors.As(flagerr, &e)
		if !ok || e.Type != flags.ErrHelp {
			preParser.WriteHelp(os.Stderr)
		}
		if ok && e.Type == flags.ErrHelp {
			preParser.WriteHelp(os.Stdout)
			os.Exit(0)
		}
		return flagerr
	}
	return nil
}

// ResolveCLIConfigPaths resolves the app data directory path and the
// configuration file path from the CLI config, (presumably parsed with
// ParseCLIConfig).
func ResolveCLIConfigPaths(cfg *Config) (appData, configPath string) {
	// If the app directory has been changed, replace shortcut chars such
	// as "~" with the full path.
	if cfg.AppData != defaultApplicationDirectory {
		cfg.AppData = cleanAndExpandPath(cfg.AppData)
		// If the app directory has been changed, but the config file path hasn't,
		// reform the config file path with the new directory.
		if cfg.ConfigPath == defaultConfigPath {
			cfg.ConfigPath = filepath.Join(cfg.AppData, configFilename)
		}
	}
	cfg.ConfigPath = cleanAndExpandPath(cfg.ConfigPath)
	return cfg.AppData, cfg.ConfigPath
}

// ParseFileConfig parses the INI file into the provided struct with go-flags
// tags. The CLI args are then parsed, and take precedence over the file values.
func ParseFileConfig(path string, cfg any) error {
	return parseFileConfig(path, cfg, os.Args[1:])
}

func parseFileConfig(path string, cfg any, args []string) error {
	parser := flags.NewParser(cfg, flags.Default)
	err := flags.NewIniParser(parser).ParseFile(path)
	if err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			fmt.Fprintln(os.Stderr, err)
			parser.WriteHelp(os.Stderr)
			return err
		}
		// Missing file is not an error.
	}

	// Parse command line options again to ensure they take precedence.
	if _, err = parser.ParseArgs(args); err != nil {
		var e *flags.Error
		if !errors.As(err, &e) || e.Type != flags.ErrHelp {
			parser.WriteHelp(os.Stderr)
		}
		return err
	}
	return nil
}

// ResolveConfig sets derivative fields of the Config struct using the specified
// app data directory (presumably returned from ResolveCLIConfigPaths). Unset
// values are given defaults.
func ResolveConfig(appData string, cfg *Config) error {
	cfg.AppData = appData
	if cfg.WebAddr == "" {
		cfg.WebAddr = net.JoinHostPort(defaultWebHost, defaultWebPort)
	}
	if _, _, err := net.SplitHostPort(cfg.WebAddr); err != nil {
		return fmt.Errorf("invalid webaddr %q: %w", cfg.WebAddr, err)
	}
	if cfg.LogPath == "" {
		cfg.LogPath = filepath.Join(appData, "logs", logFilename)
	}
	cfg.LogPath = cleanAndExpandPath(cfg.LogPath)
	cfg.CatalogPath = cleanAndExpandPath(cfg.CatalogPath)
	cfg.TiersPath = cleanAndExpandPath(cfg.TiersPath)
	if cfg.RatePerSec < 0 {
		return fmt.Errorf("negative ratelimit %v", cfg.RatePerSec)
	}
	if cfg.RateBurst < 1 {
		cfg.RateBurst = defaultRateBurst
	}
	return nil
}
