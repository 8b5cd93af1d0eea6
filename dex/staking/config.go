// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package staking

import (
	"fmt"
	"strconv"
	"strings"

	"miauswap.org/cdex/dex/config"

	"github.com/shopspring/decimal"
	"gopkg.in/ini.v1"
)

// Tier table file keys. The default section may set the VIP threshold. Every
// named section is a tier, e.g.
//
//	vipstake = 25000
//
//	[Silver]
//	minstake = 50000
//	lockdays = 90
//	feediscount = 10
//	multiplier = 1.5x
const (
	keyVIPStake    = "vipstake"
	keyMinStake    = "minstake"
	keyLockDays    = "lockdays"
	keyFeeDiscount = "feediscount"
	keyMultiplier  = "multiplier"
)

// LoadTable loads a tier table from an INI file path or []byte data. The VIP
// threshold defaults to that of DefaultTable.
func LoadTable(cfgPathOrData any) (*Table, error) {
	sections, err := config.Sections(cfgPathOrData)
	if err != nil {
		return nil, fmt.Errorf("error loading tier table: %w", err)
	}
	vipStake := DefaultTable().VIPStake()
	var tiers []Tier
	for _, sec := range sections {
		if sec.Name == ini.DefaultSection {
			if v, found := sec.Options[keyVIPStake]; found {
				if vipStake, err = decimal.NewFromString(v); err != nil {
					return nil, fmt.Errorf("invalid %s %q: %w", keyVIPStake, v, err)
				}
			}
			continue
		}
		tier, err := parseTier(sec)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, *tier)
	}
	return NewTable(tiers, vipStake)
}

func parseTier(sec *config.Section) (*Tier, error) {
	tier := &Tier{
		Name:               sec.Name,
		FeeDiscountPercent: decimal.Zero,
		Multiplier:         decimal.NewFromInt(1),
	}
	minStake, found := sec.Options[keyMinStake]
	if !found {
		return nil, fmt.Errorf("tier %s: no %s", sec.Name, keyMinStake)
	}
	var err error
	if tier.MinStake, err = decimal.NewFromString(minStake); err != nil {
		return nil, fmt.Errorf("tier %s: invalid %s %q: %w", sec.Name, keyMinStake, minStake, err)
	}
	if v, found := sec.Options[keyLockDays]; found {
		days, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("tier %s: invalid %s %q: %w", sec.Name, keyLockDays, v, err)
		}
		tier.LockDays = uint32(days)
	}
	if v, found := sec.Options[keyFeeDiscount]; found {
		if tier.FeeDiscountPercent, err = decimal.NewFromString(strings.TrimSuffix(v, "%")); err != nil {
			return nil, fmt.Errorf("tier %s: invalid %s %q: %w", sec.Name, keyFeeDiscount, v, err)
		}
	}
	if v, found := sec.Options[keyMultiplier]; found {
		if tier.Multiplier, err = decimal.NewFromString(strings.TrimSuffix(v, "x")); err != nil {
			return nil, fmt.Errorf("tier %s: invalid %s %q: %w", sec.Name, keyMultiplier, v, err)
		}
	}
	return tier, nil
}
