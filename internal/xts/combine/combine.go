// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package combine groups tradefed modules into control files.
package combine

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/Oliver-2023/autoTest-sub000/internal/logging"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/module"
)

var (
	lowerWordRE = regexp.MustCompile(`^[a-z_-]+`)
	camelWordRE = regexp.MustCompile(`^[A-Z]*[^A-Z0-9]*`)
	paramRE     = regexp.MustCompile(`\[[^\]]*\]`)
)

// words splits a module name into CamelCase words. Digits separate words
// and are dropped, and an empty word is produced at each digit and at the
// end of the name. At most n words are returned.
func words(name string, n int) []string {
	var out []string
	for pos := 0; pos <= len(name) && len(out) < n; {
		var m string
		if pos == 0 {
			m = lowerWordRE.FindString(name)
		}
		if m == "" {
			m = camelWordRE.FindString(name[pos:])
		}
		out = append(out, m)
		if m == "" {
			pos++
		} else {
			pos += len(m)
		}
	}
	return out
}

// WordPattern returns the first l+1 CamelCase words of a module name,
// ignoring a trailing "Test" or "TestCases".
// For example, CtsDebugTestCases gives CtsDebug for l=1.
func WordPattern(name string, l int) string {
	s := words(name, l+1)
	if len(s) > l {
		if strings.HasPrefix(s[l], "Test") || strings.HasPrefix(s[l], "[") {
			return strings.Join(s[:l], "")
		}
		if l >= 1 && s[l-1] == "Test" && strings.HasPrefix(s[l], "Cases") {
			return strings.Join(s[:l-1], "")
		}
	}
	return strings.Join(s, "")
}

func commonPrefix(l []string) string {
	if len(l) == 0 {
		return ""
	}
	prefix := l[0]
	for _, s := range l[1:] {
		i := 0
		for i < len(prefix) && i < len(s) && prefix[i] == s[i] {
			i++
		}
		prefix = prefix[:i]
	}
	return prefix
}

// ByCommonWord groups modules sharing their first CamelCase word, e.g.
// CtsVoice for CtsVoiceInteractionTestCases and CtsVoiceSettingsTestCases.
// A group is named by the longest common prefix of its modules.
// CtsMedia modules are never grouped except with their own variants such as
// CtsMediaTestCases[instant].
func ByCommonWord(ctx context.Context, modules module.Set) map[string]module.Set {
	return ByCommonWordSplitting(ctx, modules, []string{"CtsMedia"})
}

// ByCommonWordSplitting is ByCommonWord where every group named with one of
// splitPrefixes is split into single modules and their variants.
func ByCommonWordSplitting(ctx context.Context, modules module.Set, splitPrefixes []string) map[string]module.Set {
	groups := make(map[string][]string)
	for _, m := range modules.Sorted() {
		p := WordPattern(m, 1)
		groups[p] = append(groups[p], m)
	}

	combined := make(map[string]module.Set)
	keys := maps.Keys(groups)
	slices.Sort(keys)
	for _, key := range keys {
		members := groups[key]
		prefix := commonPrefix(members)
		if len(members) > 1 {
			prefix = strings.TrimSuffix(prefix, "TestCases")
			prefix = strings.TrimSuffix(prefix, "Tests")
		}
		if !hasAnyPrefix(prefix, splitPrefixes) {
			combined[prefix] = module.NewSet(members...)
			continue
		}
		prev := ""
		for _, m := range members {
			if prev != "" && strings.HasPrefix(m, prev) {
				combined[prev].Add(m)
			} else {
				prev = m
				combined[m] = module.NewSet(m)
			}
		}
	}
	logging.Infof(ctx, "Reduced number of control files from %d to %d", len(modules), len(combined))
	return combined
}

// ByBookmark splits modules at sorted bookmarks. Each group holds the
// modules sorting before its bookmark and after the previous one, and is
// named "<first>_-_<last>" without parameterization. Modules after the last
// bookmark are dropped.
func ByBookmark(modules module.Set, bookmarks []string) map[string]module.Set {
	rest := module.NewSet(modules.Sorted()...)
	combined := make(map[string]module.Set)
	for _, bookmark := range bookmarks {
		var members []string
		for _, m := range rest.Sorted() {
			if m < bookmark {
				members = append(members, m)
			}
		}
		if len(members) == 0 {
			continue
		}
		for _, m := range members {
			delete(rest, m)
		}
		name := StripParams(members[0] + "_-_" + members[len(members)-1])
		combined[name] = module.NewSet(members...)
	}
	return combined
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// StripParams removes module parameters such as "[instant]" from name.
func StripParams(name string) string {
	return paramRE.ReplaceAllString(name, "")
}
