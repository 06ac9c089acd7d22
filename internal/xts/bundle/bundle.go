// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package bundle builds the download URLs of xTS bundles.
package bundle

import (
	"encoding/json"
	"os"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/Oliver-2023/autoTest-sub000/errors"
)

var (
	// ErrABINotFound is returned when an ABI is not listed in a URLConfig.
	ErrABINotFound = errors.New("abi not found")
	// ErrBundleNotFound is returned when a URLConfig cannot produce a bundle
	// URL of the requested Type.
	ErrBundleNotFound = errors.New("bundle not found")
)

// URLConfig is the content of bundle_url_config.json.
type URLConfig struct {
	PublicBase         string   `json:"public_base,omitempty"`
	InternalBase       string   `json:"internal_base,omitempty"`
	PartnerBase        string   `json:"partner_base,omitempty"`
	OfficialURLPattern string   `json:"official_url_pattern,omitempty"`
	PreviewURLPattern  string   `json:"preview_url_pattern,omitempty"`
	ABIList            []string `json:"abi_list,omitempty"`
}

// LoadURLConfig reads a URLConfig from a JSON file.
func LoadURLConfig(path string) (*URLConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read bundle url config")
	}
	var cfg URLConfig
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return &cfg, nil
}

// Type selects which bundle of a URLConfig to use.
type Type string

const (
	// Public is the official release on the public or partner bucket.
	Public Type = ""
	// Latest is the official release on the internal bucket.
	Latest Type = "LATEST"
	// Dev is the preview build on the internal bucket.
	Dev Type = "DEV"
	// DevMoblab is the preview build on the partner bucket.
	DevMoblab Type = "DEV_MOBLAB"
	// DevWaiver is the preview build used to compute waivers.
	DevWaiver Type = "DEV_WAIVER"
)

func (t Type) String() string {
	if t == Public {
		return "PUBLIC"
	}
	return string(t)
}

// ParseType parses a bundle type name. "" and "PUBLIC" select Public.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToUpper(s)); t {
	case "PUBLIC":
		return Public, nil
	case Public, Latest, Dev, DevMoblab, DevWaiver:
		return t, nil
	default:
		return "", errors.Wrapf(ErrBundleNotFound, "bundle type %q is not expected", s)
	}
}

// MakeURL returns the URL of the bundle of type typ for abi.
//
// If cfg has an ABI list, abi must be in it. Otherwise abi is ignored, as
// some suites (e.g. GTS) ship a single bundle for all ABIs.
func MakeURL(cfg *URLConfig, typ Type, abi string) (string, error) {
	if cfg.ABIList != nil {
		if !slices.Contains(cfg.ABIList, abi) {
			return "", errors.Wrapf(ErrABINotFound, "abi %q is not in %v", abi, cfg.ABIList)
		}
	} else {
		abi = ""
	}

	var base, pattern string
	var required string
	switch typ {
	case Public:
		base = cfg.PublicBase
		if base == "" {
			base = cfg.PartnerBase
		}
		pattern = cfg.OfficialURLPattern
		required = "public_base or partner_base and official_url_pattern"
	case Latest:
		base, pattern = cfg.InternalBase, cfg.OfficialURLPattern
		required = "internal_base and official_url_pattern"
	case Dev, DevWaiver:
		base, pattern = cfg.InternalBase, cfg.PreviewURLPattern
		required = "internal_base and preview_url_pattern"
	case DevMoblab:
		base, pattern = cfg.PartnerBase, cfg.PreviewURLPattern
		required = "partner_base and preview_url_pattern"
	default:
		return "", errors.Wrapf(ErrBundleNotFound, "bundle type %q is not expected", string(typ))
	}
	if base == "" || pattern == "" {
		return "", errors.Wrapf(ErrBundleNotFound, "%s requires %s but they are not set", typ, required)
	}

	if abi == "" {
		return base + pattern, nil
	}
	return base + strings.Replace(pattern, "%s", abi, 1), nil
}

// MakeURLsForAllABIs returns the bundle URLs of type typ for every ABI in
// cfg, or a single URL if cfg has no ABI list.
func MakeURLsForAllABIs(cfg *URLConfig, typ Type) ([]string, error) {
	abis := cfg.ABIList
	if abis == nil {
		abis = []string{""}
	}
	var urls []string
	for _, abi := range abis {
		u, err := MakeURL(cfg, typ, abi)
		if err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, nil
}

// GuessABI guesses the ABI of a bundle from its file name.
//
// It returns "" when singleControlFile is set, as ABI-less control files
// are generated then, and for GTS bundles which carry no ABI in their name.
func GuessABI(filename string, singleControlFile bool, ctsCommand string) (string, error) {
	if singleControlFile {
		return "", nil
	}
	for _, abi := range []string{"arm", "arm64", "x86", "x86_64"} {
		if strings.HasSuffix(filename, abi+".zip") {
			return abi, nil
		}
	}
	if ctsCommand != "gts" {
		return "", errors.Errorf("cannot guess abi of %s; only gts bundles may have no abi", filename)
	}
	return "", nil
}

// SourceType is where generated control files retrieve a bundle from.
type SourceType int

const (
	// Moblab is the bucket for moblab used by partners.
	Moblab SourceType = iota
	// LatestSource is the latest official release.
	LatestSource
	// DevSource is the preview build from the development branch.
	DevSource
)

func (s SourceType) String() string {
	switch s {
	case Moblab:
		return "MOBLAB"
	case LatestSource:
		return "LATEST"
	case DevSource:
		return "DEV"
	default:
		return "UNKNOWN"
	}
}

// IsPublic reports whether control files of s are meant for moblab.
func (s SourceType) IsPublic() bool {
	return s == Moblab
}

// URI returns the uri argument written into control files, or "" if the
// argument is omitted.
func (s SourceType) URI() string {
	switch s {
	case LatestSource:
		return "LATEST"
	case DevSource:
		return "DEV"
	default:
		return ""
	}
}

// BundleType returns the bundle Type that s downloads.
func (s SourceType) BundleType() Type {
	switch s {
	case LatestSource:
		return Latest
	case DevSource:
		return Dev
	default:
		return Public
	}
}
