// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package passes transforms module groups through a pipeline of passes
// before control files are written for them.
package passes

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/Oliver-2023/autoTest-sub000/errors"
	"github.com/Oliver-2023/autoTest-sub000/internal/logging"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/combine"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/config"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/controlfile"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/module"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/suitesplit"
)

// ModuleGroup is a set of modules run by one control file.
type ModuleGroup struct {
	Modules  module.Set
	Basename string
	Suites   module.Set
	// ABIBits is 32 or 64 for groups split by bitness, or 0.
	ABIBits int
	// Shard is the tradefed shard of the group, or the zero Shard.
	Shard    controlfile.Shard
	VM       bool
	VMStable bool
	// Merged is set for groups created by merging groups of a split suite.
	Merged bool
	Attrs  map[string]string
}

func (g *ModuleGroup) clone() *ModuleGroup {
	c := *g
	c.Modules = module.NewSet(g.Modules.Sorted()...)
	c.Suites = module.NewSet(g.Suites.Sorted()...)
	if g.Attrs != nil {
		c.Attrs = make(map[string]string, len(g.Attrs))
		for k, v := range g.Attrs {
			c.Attrs[k] = v
		}
	}
	return &c
}

// Pass transforms a list of module groups.
type Pass interface {
	Process(ctx context.Context, groups []*ModuleGroup) ([]*ModuleGroup, error)
	String() string
}

// Condition selects module groups.
type Condition func(g *ModuleGroup) bool

// Const returns a Condition selecting all groups if b is true and none
// otherwise.
func Const(b bool) Condition {
	return func(*ModuleGroup) bool { return b }
}

// perGroup is a Pass processing each group independently.
type perGroup struct {
	name string
	f    func(ctx context.Context, g *ModuleGroup) ([]*ModuleGroup, error)
}

func (p *perGroup) Process(ctx context.Context, groups []*ModuleGroup) ([]*ModuleGroup, error) {
	var out []*ModuleGroup
	for _, g := range groups {
		gs, err := p.f(ctx, g)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: %s", p.name, g.Basename)
		}
		out = append(out, gs...)
	}
	return out, nil
}

func (p *perGroup) String() string { return p.name }

type concat struct {
	passes []Pass
}

// Concat returns a Pass running passes in order.
func Concat(passes ...Pass) Pass {
	return &concat{passes: passes}
}

func (c *concat) Process(ctx context.Context, groups []*ModuleGroup) ([]*ModuleGroup, error) {
	for _, p := range c.passes {
		var err error
		logging.Debugf(ctx, "Running pass: %v", p)
		if groups, err = p.Process(ctx, groups); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

func (c *concat) String() string {
	names := make([]string, len(c.passes))
	for i, p := range c.passes {
		names[i] = p.String()
	}
	return "[" + strings.Join(names, ", ") + "]"
}

type ifPass struct {
	cond Condition
	body Pass
}

// If returns a Pass running passes on the groups selected by cond. The
// processed groups come first in the result, followed by the others.
func If(cond Condition, passes ...Pass) Pass {
	return &ifPass{cond: cond, body: Concat(passes...)}
}

// IfNot is If with cond negated.
func IfNot(cond Condition, passes ...Pass) Pass {
	return If(func(g *ModuleGroup) bool { return !cond(g) }, passes...)
}

func (p *ifPass) Process(ctx context.Context, groups []*ModuleGroup) ([]*ModuleGroup, error) {
	var selected, rest []*ModuleGroup
	for _, g := range groups {
		if p.cond(g) {
			selected = append(selected, g)
		} else {
			rest = append(rest, g)
		}
	}
	if len(selected) > 0 {
		var err error
		if selected, err = p.body.Process(ctx, selected); err != nil {
			return nil, err
		}
	}
	return append(selected, rest...), nil
}

func (p *ifPass) String() string { return "If " + p.body.String() }

func checkSuites(suites []string) error {
	for _, s := range suites {
		if !strings.HasPrefix(s, "suite:") {
			return errors.Errorf("suite %q does not start with suite:", s)
		}
	}
	return nil
}

// AddSuites returns a Pass adding suites to every group.
func AddSuites(suites ...string) Pass {
	return &perGroup{
		name: "Add suites: " + strings.Join(suites, ", "),
		f: func(ctx context.Context, g *ModuleGroup) ([]*ModuleGroup, error) {
			if err := checkSuites(suites); err != nil {
				return nil, err
			}
			if g.Suites == nil {
				g.Suites = module.NewSet()
			}
			g.Suites.Add(suites...)
			return []*ModuleGroup{g}, nil
		},
	}
}

// RemoveSuites returns a Pass removing suites from every group.
func RemoveSuites(suites ...string) Pass {
	return &perGroup{
		name: "Remove suites: " + strings.Join(suites, ", "),
		f: func(ctx context.Context, g *ModuleGroup) ([]*ModuleGroup, error) {
			if err := checkSuites(suites); err != nil {
				return nil, err
			}
			if g.Suites != nil {
				g.Suites = g.Suites.Minus(module.NewSet(suites...))
			}
			return []*ModuleGroup{g}, nil
		},
	}
}

// ClearSuites returns a Pass removing all suites of every group.
func ClearSuites() Pass {
	return &perGroup{
		name: "Clear suites",
		f: func(ctx context.Context, g *ModuleGroup) ([]*ModuleGroup, error) {
			g.Suites = module.NewSet()
			return []*ModuleGroup{g}, nil
		},
	}
}

// SplitByBits returns a Pass duplicating every group into a 32-bit and a
// 64-bit group.
func SplitByBits() Pass {
	return &perGroup{
		name: "Split by abi_bits",
		f: func(ctx context.Context, g *ModuleGroup) ([]*ModuleGroup, error) {
			if g.ABIBits != 0 {
				return nil, errors.New("group already split by abi_bits, check your config")
			}
			var out []*ModuleGroup
			for _, bits := range []int{32, 64} {
				c := g.clone()
				c.ABIBits = bits
				out = append(out, c)
			}
			return out, nil
		},
	}
}

// SplitByTFShards returns a Pass duplicating every group into count
// tradefed shards. keepUnsharded also keeps an unsharded copy.
func SplitByTFShards(count int, keepUnsharded bool) Pass {
	shards := make([]controlfile.Shard, 0, count+1)
	for i := 0; i < count; i++ {
		shards = append(shards, controlfile.Shard{Index: i, Count: count})
	}
	if keepUnsharded {
		shards = append(shards, controlfile.NoShard)
	}
	return &perGroup{
		name: "Split by shard",
		f: func(ctx context.Context, g *ModuleGroup) ([]*ModuleGroup, error) {
			if g.Shard != (controlfile.Shard{}) {
				return nil, errors.New("group already split by shard, check your config")
			}
			var out []*ModuleGroup
			for _, s := range shards {
				c := g.clone()
				c.Shard = s
				out = append(out, c)
			}
			return out, nil
		},
	}
}

// SetVMAttrs returns a Pass marking groups that contain VM modules. A VM
// group is stable unless one of its VM modules is unstable.
func SetVMAttrs(cfg *config.Config) Pass {
	return &perGroup{
		name: "Set VM attributes",
		f: func(ctx context.Context, g *ModuleGroup) ([]*ModuleGroup, error) {
			var vm, nonVM []string
			unstable := false
			for _, m := range g.Modules.Sorted() {
				if cfg.IsVMModule(m) {
					vm = append(vm, m)
					if cfg.IsUnstableVMModule(m) {
						unstable = true
					}
				} else {
					nonVM = append(nonVM, m)
				}
			}
			g.VM = len(vm) > 0
			g.VMStable = g.VM && !unstable
			if g.VM && len(nonVM) > 0 {
				logging.Warningf(ctx, "%v is also added to vm suites because of %v, please check your config", nonVM, vm)
			}
			return []*ModuleGroup{g}, nil
		},
	}
}

// SetAttr returns a Pass setting an attribute on every group.
func SetAttr(key, value string) Pass {
	return &perGroup{
		name: fmt.Sprintf("Set %s=%s", key, value),
		f: func(ctx context.Context, g *ModuleGroup) ([]*ModuleGroup, error) {
			if g.Attrs == nil {
				g.Attrs = make(map[string]string)
			}
			g.Attrs[key] = value
			return []*ModuleGroup{g}, nil
		},
	}
}

// SplitSuite names the suites of a split suite.
type SplitSuite struct {
	Hints *suitesplit.Config
	// Format is the suite name of a shard. "{abi}" and "{shard}" are
	// replaced with the ABI and the 1-based shard number.
	Format string
	// Long is the suite of tests too long for any shard.
	Long string
	ABI  string
}

func (s *SplitSuite) name(shard int) string {
	return strings.NewReplacer("{abi}", s.ABI, "{shard}", fmt.Sprint(shard)).Replace(s.Format)
}

func sortByBasename(groups []*ModuleGroup) []*ModuleGroup {
	sorted := append([]*ModuleGroup(nil), groups...)
	slices.SortStableFunc(sorted, func(a, b *ModuleGroup) int {
		return strings.Compare(a.Basename, b.Basename)
	})
	return sorted
}

func logSplitStats(ctx context.Context, sp *suitesplit.Splitter) {
	shards, long := sp.Stats()
	logging.Infof(ctx, "Suite to be split into %d shards", shards)
	logging.Infof(ctx, "Long test total runtime: %.1fh", long/3600)
}

type addSplitSuites struct {
	s SplitSuite
}

// AddSplitSuites returns a Pass adding each group, in basename order, to
// the suite of the shard it is packed into.
func AddSplitSuites(s SplitSuite) Pass {
	return &addSplitSuites{s: s}
}

func (p *addSplitSuites) Process(ctx context.Context, groups []*ModuleGroup) ([]*ModuleGroup, error) {
	groups = sortByBasename(groups)
	sp := suitesplit.NewSplitter(p.s.Hints)
	for _, g := range groups {
		if g.Suites == nil {
			g.Suites = module.NewSet()
		}
		shard := sp.Shard(ctx, g.Basename, g.ABIBits)
		if shard == suitesplit.LongSuite {
			g.Suites.Add(p.s.Long)
			continue
		}
		g.Suites.Add(p.s.name(shard))
	}
	logSplitStats(ctx, sp)
	return groups, nil
}

func (p *addSplitSuites) String() string { return "Add split suites abi=" + p.s.ABI }

type mergeSplitSuites struct {
	s      SplitSuite
	prefix string
}

// MergeSplitSuites returns a Pass merging the groups packed into a shard
// into a single group named "<prefix>.<first>_-_<last>". Groups split by
// bitness and long groups stay standalone. Every resulting basename gets
// the prefix.
func MergeSplitSuites(s SplitSuite, prefix string) Pass {
	return &mergeSplitSuites{s: s, prefix: prefix}
}

func (p *mergeSplitSuites) Process(ctx context.Context, groups []*ModuleGroup) ([]*ModuleGroup, error) {
	groups = sortByBasename(groups)
	sp := suitesplit.NewSplitter(p.s.Hints)
	shardGroups := make(map[int][]*ModuleGroup)
	var out []*ModuleGroup
	for _, g := range groups {
		shard := sp.Shard(ctx, g.Basename, g.ABIBits)
		if shard == suitesplit.LongSuite {
			g.Suites = module.NewSet(p.s.Long)
			out = append(out, g)
			continue
		}
		shardGroups[shard] = append(shardGroups[shard], g)
	}

	shards := maps.Keys(shardGroups)
	slices.Sort(shards)
	for _, shard := range shards {
		suite := p.s.name(shard)
		merged := module.NewSet()
		for _, g := range shardGroups[shard] {
			if g.ABIBits != 0 {
				g.Suites = module.NewSet(suite)
				out = append(out, g)
				continue
			}
			merged.Add(g.Modules.Sorted()...)
		}
		if len(merged) == 0 {
			continue
		}
		names := merged.Sorted()
		out = append(out, &ModuleGroup{
			Modules:  merged,
			Basename: combine.StripParams(names[0] + "_-_" + names[len(names)-1]),
			Suites:   module.NewSet(suite),
		})
	}

	for _, g := range out {
		g.Basename = p.prefix + "." + g.Basename
		g.Merged = true
	}
	logSplitStats(ctx, sp)
	return out, nil
}

func (p *mergeSplitSuites) String() string { return "Merge split suites abi=" + p.s.ABI }

// CombineByCommonWord returns the initial module groups of a bundle, sorted
// by basename. CtsMedia and CtsCamera modules get groups of their own.
func CombineByCommonWord(ctx context.Context, modules module.Set) []*ModuleGroup {
	combined := combine.ByCommonWordSplitting(ctx, modules, []string{"CtsMedia", "CtsCamera"})
	names := maps.Keys(combined)
	slices.Sort(names)
	groups := make([]*ModuleGroup, 0, len(names))
	for _, n := range names {
		groups = append(groups, &ModuleGroup{
			Modules:  combined[n],
			Basename: n,
			Suites:   module.NewSet(),
		})
	}
	return groups
}
