// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package config

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// Section is a named group of key-value options from an INI file, in file
// order.
type Section struct {
	Name    string
	Options map[string]string
}

// Options returns a collection of all key-value options in provided config
// file path or []byte data, ignoring section headers. Later keys override
// earlier ones.
func Options(cfgPathOrData any) (map[string]string, error) {
	cfgFile, err := ini.Load(cfgPathOrData)
	if err != nil {
		return nil, err
	}
	opts := make(map[string]string)
	for _, section := range cfgFile.Sections() {
		for _, key := range section.Keys() {
			opts[key.Name()] = key.String()
		}
	}
	return opts, nil
}

// Sections loads the named sections of the provided config file path or
// []byte data. The unnamed default section is skipped unless it has keys, in
// which case it is returned first with the name ini.DefaultSection.
func Sections(cfgPathOrData any) ([]*Section, error) {
	cfgFile, err := ini.Load(cfgPathOrData)
	if err != nil {
		return nil, err
	}
	var sections []*Section
	for _, sec := range cfgFile.Sections() {
		if sec.Name() == ini.DefaultSection && len(sec.Keys()) == 0 {
			continue
		}
		s := &Section{
			Name:    sec.Name(),
			Options: make(map[string]string, len(sec.Keys())),
		}
		for _, key := range sec.Keys() {
			s.Options[key.Name()] = key.String()
		}
		sections = append(sections, s)
	}
	return sections, nil
}

// Parse parses config options from the provided config file path or []byte
// data into the specified struct object. Section headers are ignored, so a
// sectioned file maps the same as a flat one.
func Parse(cfgPathOrData, obj any) error {
	opts, err := Options(cfgPathOrData)
	if err != nil {
		return err
	}
	flat := ini.Empty()
	for k, v := range opts {
		if _, err := flat.Section("").NewKey(k, v); err != nil {
			return fmt.Errorf("error copying option %q: %w", k, err)
		}
	}
	return flat.MapTo(obj)
}
