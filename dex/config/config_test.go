// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package config

import (
	"os"
	"path/filepath"
	"testing"
)

const testINI = `
[bronze]
minstake=10000
lockdays=30

[silver]
minstake=50000
lockdays=90
`

func TestSections(t *testing.T) {
	sections, err := Sections([]byte(testINI))
	if err != nil {
		t.Fatalf("Sections error: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[0].Name != "bronze" || sections[1].Name != "silver" {
		t.Fatalf("wrong section order: %s, %s", sections[0].Name, sections[1].Name)
	}
	if sections[1].Options["lockdays"] != "90" {
		t.Fatalf("wrong silver lockdays %q", sections[1].Options["lockdays"])
	}

	// Keys before the first header land in the default section.
	sections, err = Sections([]byte("vipstake=25000\n" + testINI))
	if err != nil {
		t.Fatalf("Sections error: %v", err)
	}
	if len(sections) != 3 || sections[0].Options["vipstake"] != "25000" {
		t.Fatalf("default section not returned first")
	}

	if _, err = Sections([]byte("[broken")); err == nil {
		t.Fatalf("no error for malformed data")
	}
}

type testConfig struct {
	FeeRate  string  `ini:"feerate"`
	APY      float64 `ini:"apy"`
	Verbose  bool    `ini:"verbose"`
	Untagged int
}

func TestParse(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cdex.conf")
	data := "[fees]\nfeerate=0.0025\n[staking]\napy=5\nverbose=true\nUntagged=7\n"
	if err := os.WriteFile(cfgPath, []byte(data), 0600); err != nil {
		t.Fatalf("error writing config file: %v", err)
	}

	for _, src := range []any{cfgPath, []byte(data)} {
		cfg := testConfig{FeeRate: "default"}
		if err := Parse(src, &cfg); err != nil {
			t.Fatalf("Parse error: %v", err)
		}
		if cfg.FeeRate != "0.0025" || cfg.APY != 5 || !cfg.Verbose || cfg.Untagged != 7 {
			t.Fatalf("wrong parsed config %+v", cfg)
		}
	}

	opts, err := Options([]byte(data))
	if err != nil {
		t.Fatalf("Options error: %v", err)
	}
	if len(opts) != 4 {
		t.Fatalf("expected 4 options, got %d", len(opts))
	}
}
