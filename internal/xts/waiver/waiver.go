// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package waiver loads known xTS failures and selects the ones applying to
// a device.
//
// A waiver file is a YAML mapping from a module or test name to the list of
// conditions under which its failure is expected:
//
//	android.app.cts.SystemFeaturesTest#testUsbAccessory: [all]
//	GtsOnlyPrimaryAbiTestCases: [binarytranslated]
//	CtsMediaTestCases: [x86, "shipping_api_level:<30"]
//
// A condition is one of "all", an architecture ("arm", "x86"), a board or
// model name, "binarytranslated" (arm bundle on an x86 device), "host"
// (host-side runs), or an API level constraint on "shipping_api_level" or
// "sdk_api_level" using <, <=, >, >= or ==. An entry applies when any of its
// non-constraint conditions matches and all its constraints hold; an entry
// with constraints only applies to every device meeting them.
package waiver

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar"
	"gopkg.in/yaml.v2"

	"github.com/Oliver-2023/autoTest-sub000/errors"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/module"
)

const (
	condAll              = "all"
	condBinaryTranslated = "binarytranslated"
	condHost             = "host"

	levelShipping = "shipping_api_level"
	levelSDK      = "sdk_api_level"
)

var constraintRE = regexp.MustCompile(`^(` + levelShipping + `|` + levelSDK + `):\s*(<=|>=|==|<|>)\s*(\d+)$`)

// DUT describes the device and bundle a run targets.
type DUT struct {
	Arch          string // "arm" or "x86"
	Board         string
	Model         string
	BundleABI     string // ABI of the bundle, e.g. "arm" or "x86"
	SDKVersion    int
	FirstAPILevel int
	HostSide      bool
}

type constraint struct {
	key string
	op  string
	val int
}

func (c constraint) holds(d *DUT) bool {
	v := d.SDKVersion
	if c.key == levelShipping {
		v = d.FirstAPILevel
	}
	switch c.op {
	case "<":
		return v < c.val
	case "<=":
		return v <= c.val
	case ">":
		return v > c.val
	case ">=":
		return v >= c.val
	default:
		return v == c.val
	}
}

type entry struct {
	conds       []string
	constraints []constraint
}

func (e *entry) applies(d *DUT) bool {
	for _, c := range e.constraints {
		if !c.holds(d) {
			return false
		}
	}
	if len(e.conds) == 0 {
		return true
	}
	arch, board, model := strings.ToLower(d.Arch), strings.ToLower(d.Board), strings.ToLower(d.Model)
	for _, c := range e.conds {
		switch c {
		case condAll:
			return true
		case condBinaryTranslated:
			if arch == "x86" && d.BundleABI == "arm" {
				return true
			}
		case condHost:
			if d.HostSide {
				return true
			}
		case arch, board, model:
			return true
		}
	}
	return false
}

// Waivers is a collection of known failures.
type Waivers struct {
	entries map[string][]*entry
}

// Parse parses the content of a waiver file.
func Parse(b []byte) (*Waivers, error) {
	w := &Waivers{entries: make(map[string][]*entry)}
	if err := w.add(b); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Waivers) add(b []byte) error {
	var raw map[string][]string
	if err := yaml.UnmarshalStrict(b, &raw); err != nil {
		return errors.Wrap(err, "failed to parse waivers")
	}
	for name, conds := range raw {
		e := &entry{}
		for _, c := range conds {
			c = strings.TrimSpace(c)
			if m := constraintRE.FindStringSubmatch(c); m != nil {
				val, _ := strconv.Atoi(m[3])
				e.constraints = append(e.constraints, constraint{key: m[1], op: m[2], val: val})
				continue
			}
			if strings.HasPrefix(c, levelShipping) || strings.HasPrefix(c, levelSDK) {
				return errors.Errorf("%s: malformed API level constraint %q", name, c)
			}
			if c == "" {
				return errors.Errorf("%s: empty condition", name)
			}
			e.conds = append(e.conds, strings.ToLower(c))
		}
		w.entries[name] = append(w.entries[name], e)
	}
	return nil
}

// Load reads and merges the waiver files at paths.
func Load(paths []string) (*Waivers, error) {
	w := &Waivers{entries: make(map[string][]*entry)}
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read waivers")
		}
		if err := w.add(b); err != nil {
			return nil, errors.Wrapf(err, "failed to load %s", p)
		}
	}
	return w, nil
}

// Find returns the waiver files matched by pattern under dir. pattern may
// contain "**" to match any number of directories.
func Find(dir, pattern string) ([]string, error) {
	paths, err := doublestar.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, errors.Wrapf(err, "bad waiver pattern %q", pattern)
	}
	return paths, nil
}

// FindWaivers returns the names of the modules and tests whose failure is
// expected on d.
func (w *Waivers) FindWaivers(d *DUT) module.Set {
	found := module.NewSet()
	for name, es := range w.entries {
		for _, e := range es {
			if e.applies(d) {
				found.Add(name)
				break
			}
		}
	}
	return found
}
