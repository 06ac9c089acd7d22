// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package controlfile computes the content of Autotest control files that
// run xTS modules through tradefed.
package controlfile

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/Oliver-2023/autoTest-sub000/internal/logging"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/bundle"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/config"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/module"
)

// Suites with fixed meaning in the lab.
const (
	suiteBVTArc      = "suite:bvt-arc"
	suiteBVTPerbuild = "suite:bvt-perbuild"
	suiteSmoke       = "suite:smoke"
	suiteUnibuildHW  = "suite:arc-cts-unibuild-hw"
	suiteCamera      = "suite:arc-cts-camera"
)

const deqpModule = "CtsDeqpTestCases"

var testLengths = map[int]string{1: "FAST", 2: "SHORT", 3: "MEDIUM", 4: "LONG", 5: "LENGTHY"}

// Shard identifies one of the tradefed shards of a module group.
type Shard struct {
	Index int
	Count int
}

// NoShard is the shard of an unsharded run.
var NoShard = Shard{0, 1}

func (s Shard) sharded() bool {
	return s.Count > 1 || s.Index != 0
}

// Generator computes control file content from a generator config.
type Generator struct {
	cfg *config.Config
}

// New returns a Generator for cfg.
func New(cfg *config.Config) *Generator {
	return &Generator{cfg: cfg}
}

// Config returns the generator config.
func (g *Generator) Config() *config.Config {
	return g.cfg
}

// CollectModules returns the phony modules that collect the tests of a
// bundle.
func (g *Generator) CollectModules(public, hardware bool) module.Set {
	if public {
		if hardware {
			return module.NewSet(module.PublicHardwareCollect)
		}
		return module.NewSet(module.PublicCollect)
	}
	base := module.Collect
	if hardware {
		base = module.HardwareCollect
	}
	s := module.NewSet(base)
	if g.cfg.ControlFileWriteCamera {
		for _, suffix := range module.CameraboxSuffixes {
			s.Add(base + suffix)
		}
	}
	return s
}

// NameParams selects one control file of a module group.
type NameParams struct {
	Module        string
	ABI           string
	Revision      string
	Public        bool
	LEDProvision  string
	CameraFacing  string
	HardwareSuite bool
	ABIBits       int // 0 if the run is not restricted to one bitness
	Shard         Shard
}

// Extension returns the string identifying a control file among all
// control files of a test, e.g. "internal.arm.CtsAppTestCases". It is used
// in file names and result tags.
func (g *Generator) Extension(p *NameParams) string {
	var parts []string
	single := g.cfg.SingleControlFile
	if !single && !p.Public {
		if p.Module == module.Collect {
			parts = append(parts, p.Revision)
		} else {
			parts = append(parts, "internal")
		}
	}
	if !single && p.ABI != "" {
		parts = append(parts, p.ABI)
	}
	parts = append(parts, p.Module)
	if p.LEDProvision != "" {
		parts = append(parts, p.LEDProvision)
	}
	if p.CameraFacing != "" {
		parts = append(parts, "camerabox", p.CameraFacing)
	}
	if p.HardwareSuite && !g.CollectModules(p.Public, true).Has(p.Module) {
		parts = append(parts, "ctshardware")
	}
	if !single && p.ABI != "" && p.ABIBits != 0 {
		parts = append(parts, fmt.Sprint(p.ABIBits))
	}
	if p.Shard != (Shard{}) && p.Shard != NoShard {
		parts = append(parts, fmt.Sprintf("shard_%d_%d", p.Shard.Index, p.Shard.Count))
	}
	return strings.Join(parts, ".")
}

// ControlFileName returns the file name of a control file.
func (g *Generator) ControlFileName(p *NameParams) string {
	return "control." + g.Extension(p)
}

// ServoSupportNeeded reports whether a module needs servo to power cycle
// the DUT.
func (g *Generator) ServoSupportNeeded(modules module.Set, public bool) bool {
	return !public && modules.Any(g.cfg.NeedsPowerCycle)
}

// WifiInfoNeeded reports whether a module needs the lab's wifi credentials.
func (g *Generator) WifiInfoNeeded(modules module.Set, public bool) bool {
	return !public && modules.Any(g.cfg.WifiModules)
}

// Suites returns the suites scheduling a module group.
func (g *Generator) Suites(ctx context.Context, modules module.Set, abi string, public bool, cameraFacing string, hardware bool) []string {
	c := g.cfg
	if public {
		if hardware {
			return []string{c.MoblabHardwareSuiteName}
		}
		return []string{c.MoblabSuiteName}
	}

	suites := module.NewSet(c.InternalSuiteNames...)
	collect := g.CollectModules(public, hardware)
	primaryABI := abi == "arm" || abi == ""
	var vmModules, nonVMModules []string
	hasUnstableVM := false
	for _, m := range modules.Sorted() {
		if collect.Has(m) {
			suites.Add(c.QualSuiteNames...)
		}
		suites.Add(c.ExtraAttributes[m]...)
		if slices.Contains(c.Smoke, m) && primaryABI {
			suites.Add(suiteSmoke)
		}
		if slices.Contains(c.HardwareDependentModules, m) {
			suites.Add(suiteUnibuildHW)
		}
		if c.IsVMModule(m) && c.VMSuiteName != "" {
			suites.Add(c.VMSuiteName)
			vmModules = append(vmModules, m)
			if c.IsUnstableVMModule(m) {
				hasUnstableVM = true
			}
		} else {
			nonVMModules = append(nonVMModules, m)
		}
		if abi == "x86" && len(c.VMTestInfoSuites) > 0 {
			vmSuite := c.VMTestInfoSuites[0].Suite
			for _, s := range c.VMTestInfoSuites {
				if slices.Contains(s.Modules, m) {
					vmSuite = s.Suite
				}
			}
			suites.Add("suite:" + vmSuite)
		}
		if slices.Contains(c.BVTArc, m) && primaryABI {
			suites.Add(suiteBVTArc)
		} else if slices.Contains(c.BVTPerbuild, m) && primaryABI {
			suites.Add(suiteBVTPerbuild)
		}
	}

	if hardware {
		suites = module.NewSet(c.HardwareSuiteName)
	}
	if cameraFacing != "" {
		suites.Add(suiteCamera)
	}
	if len(vmModules) > 0 && len(nonVMModules) > 0 {
		logging.Warningf(ctx, "%v is also added to vm suites because of %v, please check your config", nonVMModules, vmModules)
	}

	// A group made only of stable VM modules moves from the hardware suites
	// to the stable VM suite.
	skip := module.NewSet(c.VMSkipSuites...)
	if suites.Intersects(skip) && len(vmModules) > 0 && len(nonVMModules) == 0 && !hasUnstableVM {
		suites = suites.Minus(skip)
		if c.StableVMSuiteName != "" {
			suites.Add(c.StableVMSuiteName)
		}
	}
	return suites.Sorted()
}

// Dependencies returns the lab labels a DUT needs to run a module group,
// joined by ", ".
func (g *Generator) Dependencies(modules module.Set, abi string, public bool, ledProvision, cameraFacing string) string {
	deps := []string{"arc"}
	deps = append(deps, g.cfg.LabDependency[abi]...)
	if ledProvision != "" {
		deps = append(deps, "camerabox_light:"+ledProvision)
	}
	if cameraFacing != "" {
		deps = append(deps, "camerabox_facing:"+cameraFacing)
	}
	if public {
		for _, m := range modules.Sorted() {
			deps = append(deps, g.cfg.PublicDependencies[m]...)
		}
	}
	return strings.Join(deps, ", ")
}

// JobRetries returns the number of times Autotest retries a failed job.
func (g *Generator) JobRetries(modules module.Set, public bool, suites []string) int {
	if public {
		return g.cfg.CTSJobRetriesInPublic
	}
	// The CQ requires at least two retries.
	if slices.Contains(suites, suiteBVTArc) {
		return 2
	}
	collect := g.CollectModules(public, false)
	deqpExtra := g.cfg.ExtraModules[deqpModule]
	for m := range modules {
		if _, ok := deqpExtra[m]; collect.Has(m) || m == module.All || ok {
			return 0
		}
	}
	return 1
}

// MaxRetries returns the number of tradefed retries of failed tests. ok is
// false if the control file leaves the choice to the test.
func (g *Generator) MaxRetries(modules module.Set, abi string, suites []string, public bool, shard Shard) (n int, ok bool) {
	// Retries of sharded runs do not work well.
	if shard.sharded() {
		return 0, true
	}
	c := g.cfg
	retry := -1
	if public {
		if v, ok := c.PublicModuleRetryCount[module.All]; ok {
			retry = v
		}
		for m := range modules {
			if v, ok := c.PublicModuleRetryCount[m]; ok && v > retry {
				retry = v
			}
		}
	} else {
		for m := range modules {
			if v, ok := c.CTSMaxRetries[m]; ok && v > retry {
				retry = v
			}
		}
	}
	if slices.Contains(suites, suiteBVTArc) {
		retry = 3
	}
	if retry == -1 && slices.Contains(suites, suiteBVTPerbuild) {
		retry = 3
	}
	if c.IsQualSuite(suites) && c.CTSQualRetries > retry {
		retry = c.CTSQualRetries
	}
	if modules.Intersects(g.CollectModules(public, false)) {
		retry = 0
	}
	if retry < 0 {
		return 0, false
	}
	return retry, true
}

// MaxResultSizeKB returns the result size limit of a control file.
func (g *Generator) MaxResultSizeKB(modules module.Set, public bool) int {
	collect := g.CollectModules(public, false)
	for m := range modules {
		if collect.Has(m) || m == deqpModule {
			return g.cfg.LargeMaxResultSize
		}
	}
	return g.cfg.NormalMaxResultSize
}

func (g *Generator) preconditions(modules module.Set, public bool) (pre, login, prereq []string) {
	for _, m := range modules.Sorted() {
		if public {
			pre = append(pre, g.cfg.PublicPrecondition[m]...)
		} else {
			pre = append(pre, g.cfg.Precondition[m]...)
			login = append(login, g.cfg.LoginPrecondition[m]...)
			prereq = append(prereq, g.cfg.Prerequisites[m]...)
		}
	}
	return pre, login, prereq
}

// HasPreconditionEscape reports whether precondition commands quote with
// the Python pipes module, which the control file then imports.
func (g *Generator) HasPreconditionEscape(modules module.Set, public bool) bool {
	pre, login, _ := g.preconditions(modules, public)
	for _, cmd := range append(pre, login...) {
		if strings.Contains(cmd, "pipes.") {
			return true
		}
	}
	return false
}

func dedup(l []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, e := range l {
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}

// ExtraArgs returns additional keyword arguments passed to the test, sorted.
// Preconditions of all modules are merged in module order.
func (g *Generator) ExtraArgs(modules module.Set, public bool) []string {
	args := module.NewSet()
	if public && len(modules) > 0 {
		args.Add("warn_on_test_retry=False", "retry_manual_tests=True")
	}
	pre, login, prereq := g.preconditions(modules, public)
	if len(pre) > 0 {
		args.Add("precondition_commands=[" + strings.Join(dedup(pre), ", ") + "]")
	}
	if len(login) > 0 {
		args.Add("login_precondition_commands=[" + strings.Join(dedup(login), ", ") + "]")
	}
	if len(prereq) > 0 {
		args.Add("prerequisites=['" + strings.Join(dedup(prereq), "', '") + "']")
	}
	return args.Sorted()
}

// TestLength returns the Autotest TIME of a module group.
func (g *Generator) TestLength(modules module.Set) string {
	length := 3
	for m := range modules {
		if v, ok := g.cfg.OverrideTestLength[m]; ok && v > length {
			length = v
		}
	}
	return testLengths[length]
}

// TestPriority returns the scheduling priority on moblab, or 0 to keep the
// default. Long running and special modules run first.
func (g *Generator) TestPriority(modules module.Set, public bool) int {
	if !public {
		return 0
	}
	c := g.cfg
	priority := 0
	for m := range modules {
		if v, ok := c.PublicOverrideTestPriority[m]; ok {
			if v > priority {
				priority = v
			}
			continue
		}
		_, long := c.OverrideTestLength[m]
		_, deps := c.PublicDependencies[m]
		_, pre := c.PublicPrecondition[m]
		_, longParent := c.OverrideTestLength[strings.SplitN(m, ".", 2)[0]]
		if (long || deps || pre || longParent) && priority < 50 {
			priority = 50
		}
	}
	return priority
}

// Authkey returns the authkey argument, or "" if it is omitted.
func (g *Generator) Authkey(public bool) string {
	if public {
		return ""
	}
	return g.cfg.Authkey
}

// ExtraModulesFor returns the extra module groups written for source. On
// moblab, submodules are replaced per ABI as configured.
func (g *Generator) ExtraModulesFor(source bundle.SourceType, abi string) config.ExtraModules {
	if source != bundle.Moblab {
		return g.cfg.ExtraModules
	}
	out := make(config.ExtraModules)
	override := g.cfg.ExtraSubmoduleOverride[abi]
	for parent, subs := range g.cfg.PublicExtraModules {
		copied := make(map[string][]string, len(subs))
		for sub, suites := range subs {
			copied[sub] = suites
		}
		olds := maps.Keys(override)
		slices.Sort(olds)
		for _, old := range olds {
			suites, ok := copied[old]
			if !ok {
				continue
			}
			delete(copied, old)
			for _, n := range override[old] {
				copied[n] = suites
			}
		}
		out[parent] = copied
	}
	return out
}

// ExtraHardwareModules returns the extra module groups written for the
// hardware suite.
func (g *Generator) ExtraHardwareModules() config.ExtraModules {
	return g.cfg.HardwareOnlyExtraModules
}

// IsVMModule reports whether name is eligible to run in a VM.
func (g *Generator) IsVMModule(name string) bool {
	return g.cfg.IsVMModule(name)
}

// IsUnstableVMModule reports whether name is still unstable in a VM.
func (g *Generator) IsUnstableVMModule(name string) bool {
	return g.cfg.IsUnstableVMModule(name)
}

// IsParameterizedModule reports whether name is a parameterized module.
func (g *Generator) IsParameterizedModule(name string) bool {
	return module.IsParameterized(name)
}

func collectArtifacts(table map[string][]string, modules module.Set) []string {
	var out []string
	for _, m := range modules.Sorted() {
		out = append(out, table[m]...)
	}
	return out
}

// ExtraArtifacts returns DUT paths collected after the run.
func (g *Generator) ExtraArtifacts(modules module.Set) []string {
	return collectArtifacts(g.cfg.ExtraArtifacts, modules)
}

// ExtraArtifactsHost returns host paths collected after the run.
func (g *Generator) ExtraArtifactsHost(modules module.Set) []string {
	return collectArtifacts(g.cfg.ExtraArtifactsHost, modules)
}

// Timeout returns the timeout of a tradefed run in seconds. The first
// module gets the default timeout and every further module half of it.
func (g *Generator) Timeout(modules module.Set, suites []string) int {
	c := g.cfg
	if slices.Contains(suites, suiteBVTArc) {
		return int(3600 * c.BVTTimeout)
	}
	if c.QualTimeout != 0 && c.IsQualSuite(suites) && !modules.Has(module.Collect) && !modules.Has(module.PublicCollect) {
		return int(3600 * c.QualTimeout)
	}

	timeout := 0
	defaultTimeout := int(3600 * c.CTSTimeoutDefault)
	delta := defaultTimeout
	for _, m := range modules.Sorted() {
		if v, ok := c.CTSTimeout[m]; ok {
			timeout += int(3600 * v)
		} else if strings.HasPrefix(m, deqpModule+".dEQP-VK.") {
			if timeout < 12*3600 {
				timeout = 12 * 3600
			}
		} else if strings.Contains(m, "Jvmti") {
			timeout += 300
		} else {
			timeout += delta
			delta = defaultTimeout / 2
		}
	}
	return timeout
}

// NeedsPushMedia reports whether media files are pushed to the DUT.
func (g *Generator) NeedsPushMedia(modules module.Set) bool {
	return modules.Any(g.cfg.NeedsPushMedia)
}

// NeedsCTSHelpers reports whether CTS helper apps are installed.
func (g *Generator) NeedsCTSHelpers(modules module.Set) bool {
	return modules.Any(g.cfg.NeedsCTSHelpers)
}

// EnableDefaultApps reports whether default apps are kept enabled.
func (g *Generator) EnableDefaultApps(modules module.Set) bool {
	return modules.Any(g.cfg.EnableDefaultApps)
}

// SyncCount returns the number of DUTs a control file runs on at once.
func (g *Generator) SyncCount(modules module.Set, abi string, public bool) int {
	return 1
}
