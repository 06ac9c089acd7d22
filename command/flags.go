// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package command contains code shared by the xTS executables.
package command

import (
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// EnumFlag implements flag.Value to map a user-supplied string value to an enum value.
type EnumFlag struct {
	valid  map[string]int     // map from user-supplied string value to int value
	assign EnumFlagAssignFunc // used to assign int value to dest
	def    string             // default value
}

// EnumFlagAssignFunc is used by EnumFlag to assign an enum value to a target variable.
type EnumFlagAssignFunc func(val int)

// NewEnumFlag returns an EnumFlag using the supplied map of valid values and assignment function.
// def contains a default value to assign when the flag is unspecified.
func NewEnumFlag(valid map[string]int, assign EnumFlagAssignFunc, def string) *EnumFlag {
	f := EnumFlag{valid, assign, def}
	if err := f.Set(def); err != nil {
		panic(err)
	}
	return &f
}

// Default returns the default value used if the flag is unset.
func (f *EnumFlag) Default() string { return f.def }

// QuotedValues returns a comma-separated list of quoted values the user can supply.
func (f *EnumFlag) QuotedValues() string {
	names := maps.Keys(f.valid)
	slices.Sort(names)
	for i, n := range names {
		names[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(names, ", ")
}

func (f *EnumFlag) String() string { return "" }

// Set assigns the enum value named v.
func (f *EnumFlag) Set(v string) error {
	ev, ok := f.valid[v]
	if !ok {
		return fmt.Errorf("must be in %s", f.QuotedValues())
	}
	f.assign(ev)
	return nil
}

// ListFlag implements flag.Value to split a user-supplied string with a custom delimiter
// into a slice of strings.
type ListFlag struct {
	sep    string             // separator, e.g. ","
	assign ListFlagAssignFunc // used to assign slice value to dest
	def    []string           // default value, e.g. []string{"foo", "bar"}
}

// ListFlagAssignFunc is called by ListFlag to assign a slice to a target variable.
type ListFlagAssignFunc func(vals []string)

// NewListFlag returns a ListFlag using the supplied separator and assignment function.
// def contains a default value to assign when the flag is unspecified.
func NewListFlag(sep string, assign ListFlagAssignFunc, def []string) *ListFlag {
	f := ListFlag{sep, assign, def}
	f.assign(def)
	return &f
}

func (f *ListFlag) String() string { return strings.Join(f.def, f.sep) }

// Set splits v and assigns the parts.
func (f *ListFlag) Set(v string) error {
	f.assign(strings.Split(v, f.sep))
	return nil
}
