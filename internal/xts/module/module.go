// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package module defines tradefed module names and module sets shared by
// the control file generator.
package module

import (
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Phony module names that do not correspond to a tradefed module.
const (
	// Collect lists every test of a bundle in the internal lab.
	Collect = "tradefed-run-collect-tests-only-internal"
	// PublicCollect lists every test of a bundle on moblab.
	PublicCollect = "tradefed-run-collect-tests-only"
	// HardwareCollect lists the cts-hardware subplan in the internal lab.
	HardwareCollect = "tradefed-run-collect-tests-only-hardware-internal"
	// PublicHardwareCollect lists the cts-hardware subplan on moblab.
	PublicHardwareCollect = "tradefed-run-collect-tests-only-hardware"
	// All runs every module of a bundle in a single job.
	All = "all"
)

// Camerabox suffixes appended to collect modules when camera control files
// are written.
var CameraboxSuffixes = []string{".camerabox.front", ".camerabox.back"}

// IsParameterized reports whether name is a parameterized module such as
// "CtsDeqpTestCases[instant]".
func IsParameterized(name string) bool {
	return strings.Contains(name, "[")
}

// Set is a set of module names.
type Set map[string]struct{}

// NewSet returns a set containing names.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is in s.
func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Add adds names to s.
func (s Set) Add(names ...string) {
	for _, n := range names {
		s[n] = struct{}{}
	}
}

// Sorted returns the members of s in lexicographical order.
func (s Set) Sorted() []string {
	names := maps.Keys(s)
	slices.Sort(names)
	return names
}

// Any reports whether any of names is in s.
func (s Set) Any(names []string) bool {
	for _, n := range names {
		if s.Has(n) {
			return true
		}
	}
	return false
}

// Minus returns the members of s not in o.
func (s Set) Minus(o Set) Set {
	r := make(Set)
	for n := range s {
		if !o.Has(n) {
			r[n] = struct{}{}
		}
	}
	return r
}

// Intersects reports whether s and o have a common member.
func (s Set) Intersects(o Set) bool {
	for n := range s {
		if o.Has(n) {
			return true
		}
	}
	return false
}

// Only returns the single member of s and true, or "" and false if s does
// not have exactly one member.
func (s Set) Only() (string, bool) {
	if len(s) != 1 {
		return "", false
	}
	for n := range s {
		return n, true
	}
	return "", false
}
