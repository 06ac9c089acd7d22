// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package command

import (
	"flag"
	"fmt"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Oliver-2023/autoTest-sub000/internal/xts/bundle"
)

func TestEnumFlag(t *testing.T) {
	valid := map[string]int{
		"moblab": int(bundle.Moblab),
		"latest": int(bundle.LatestSource),
		"dev":    int(bundle.DevSource),
	}
	for _, tc := range []struct {
		args   []string          // args to parse
		def    string            // default value for flag
		exp    bundle.SourceType // expected value
		expErr bool              // if true, error is expected
	}{
		{[]string{}, "dev", bundle.DevSource, false},
		{[]string{"-source=moblab"}, "dev", bundle.Moblab, false},
		{[]string{"-source=latest"}, "dev", bundle.LatestSource, false},
		{[]string{"-source=bogus"}, "dev", bundle.DevSource, true},
		{[]string{"-source"}, "dev", bundle.DevSource, true},
	} {
		val := bundle.SourceType(-1)
		f := func(v int) { val = bundle.SourceType(v) }
		fs := flag.NewFlagSet("", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		fs.Var(NewEnumFlag(valid, f, tc.def), "source", "usage")

		if err := fs.Parse(tc.args); err != nil && !tc.expErr {
			t.Errorf("%v produced error: %v", tc.args, err)
		} else if err == nil && tc.expErr {
			t.Errorf("%v didn't produce expected error", tc.args)
		} else if val != tc.exp {
			t.Errorf("%v resulted in %v; want %v", tc.args, val, tc.exp)
		}
	}
}

func TestEnumFlagQuotedValues(t *testing.T) {
	ef := NewEnumFlag(map[string]int{"b": 1, "a": 0}, func(int) {}, "a")
	if got, want := ef.QuotedValues(), `"a", "b"`; got != want {
		t.Errorf("QuotedValues() = %s; want %s", got, want)
	}
}

func ExampleEnumFlag() {
	var dest bundle.SourceType
	valid := map[string]int{"latest": int(bundle.LatestSource), "dev": int(bundle.DevSource)}
	assign := func(v int) { dest = bundle.SourceType(v) }
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.Var(NewEnumFlag(valid, assign, "dev"), "source", "usage")

	// When the flag isn't supplied, the default is used.
	flags.Parse([]string{})
	fmt.Println("no flag:", dest)

	// When a value is supplied, it's converted to the corresponding enum value.
	flags.Parse([]string{"-source=latest"})
	fmt.Println("flag:", dest)

	// Output:
	// no flag: DEV
	// flag: LATEST
}

func TestListFlag(t *testing.T) {
	for _, tc := range []struct {
		sep  string   // separator to use
		args []string // args to parse
		def  []string // default value for flag
		exp  []string // expected values
	}{
		{",", []string{}, nil, nil},
		{",", []string{}, []string{"arm", "x86"}, []string{"arm", "x86"}},
		{",", []string{"-abis=arm"}, nil, []string{"arm"}},
		{",", []string{"-abis=arm,x86"}, nil, []string{"arm", "x86"}},
		{",", []string{"-abis=arm,x86"}, []string{"default"}, []string{"arm", "x86"}},
		{" ", []string{"-abis=arm x86"}, []string{"default"}, []string{"arm", "x86"}},
		{":", []string{"-abis=arm:x86"}, []string{"default"}, []string{"arm", "x86"}},
	} {
		var vals []string
		f := func(v []string) { vals = v }
		fs := flag.NewFlagSet("", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		fs.Var(NewListFlag(tc.sep, f, tc.def), "abis", "usage")

		if err := fs.Parse(tc.args); err != nil {
			t.Errorf("%v produced error: %v", tc.args, err)
		} else if diff := cmp.Diff(vals, tc.exp); diff != "" {
			t.Errorf("%v resulted in unexpected values (-got +want):\n%s", tc.args, diff)
		}
	}
}
