// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package controlfile

import (
	"bytes"
	"context"
	"strings"
	"text/template"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/Oliver-2023/autoTest-sub000/errors"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/bundle"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/module"
)

var contentTemplate = template.Must(template.New("control").Parse(`# Copyright {{.Year}} The ChromiumOS Authors
# Use of this source code is governed by a BSD-style license that can be
# found in the LICENSE file.

# This file has been automatically generated. Do not edit!
{{- if .ServoSupportNeeded}}
from autotest_lib.server import utils as server_utils
{{- end}}
{{- if .WifiInfoNeeded}}
from autotest_lib.client.common_lib import utils, global_config
{{- end}}
{{- if .HasPreconditionEscape}}
import pipes
{{- end}}

AUTHOR = 'n/a'
NAME = '{{.Name}}'
METADATA = {
    "contacts": ["arc-cts-eng@google.com"],
    "bug_component": "b:183644",
    "criteria": "A part of Android CTS",
}
ATTRIBUTES = '{{.Attributes}}'
DEPENDENCIES = '{{.Dependencies}}'
JOB_RETRIES = {{.JobRetries}}
TEST_TYPE = 'server'
TIME = '{{.TestLength}}'
MAX_RESULT_SIZE_KB = {{.MaxResultSizeKB}}
{{- if gt .SyncCount 1}}
SYNC_COUNT = {{.SyncCount}}
{{- end}}
{{- if .Priority}}
PRIORITY = {{.Priority}}
{{- end}}
DOC = 'n/a'
{{- if .ServoSupportNeeded}}

# For local debugging, if your test setup doesn't have servo, REMOVE these
# two lines.
args_dict = server_utils.args_to_dict(args)
servo_args = hosts.CrosHost.get_servo_arguments(args_dict)
{{- end}}
{{if gt .SyncCount 1}}
from autotest_lib.server import utils as server_utils
def {{.TestFuncName}}(ntuples):
    host_list = [hosts.create_host(machine) for machine in ntuples]
{{else}}
def {{.TestFuncName}}(machine):
{{- if .ServoSupportNeeded}}
    # REMOVE 'servo_args=servo_args' arg for local debugging if your test
    # setup doesn't have servo.
    try:
        host_list = [hosts.create_host(machine, servo_args=servo_args)]
    except:
        # Just ignore any servo setup flakiness.
        host_list = [hosts.create_host(machine)]
{{- else}}
    host_list = [hosts.create_host(machine)]
{{- end}}
{{- if .WifiInfoNeeded}}
    ssid = utils.get_wireless_ssid(machine['hostname'])
    wifipass = global_config.global_config.get_config_value('CLIENT',
                'wireless_password', default=None)
{{- end}}
{{- end}}
    job.run_test(
        '{{.BaseName}}',
{{- if .CameraFacing}}
        camera_facing='{{.CameraFacing}}',
        cmdline_args=args,
{{- end}}
        hosts=host_list,
        iterations=1,
{{- if .HasMaxRetries}}
        max_retry={{.MaxRetries}},
{{- end}}
{{- if .EnableDefaultApps}}
        enable_default_apps=True,
{{- end}}
{{- if .NeedsPushMedia}}
        needs_push_media=True,
{{- end}}
{{- if .NeedsCTSHelpers}}
        use_helpers=True,
{{- end}}
        tag='{{.Tag}}',
        test_name='{{.Name}}',
{{- if .Authkey}}
        authkey='{{.Authkey}}',
{{- end}}
        run_template={{.RunTemplate}},
        retry_template={{.RetryTemplate}},
        target_module={{if .TargetModule}}'{{.TargetModule}}'{{else}}None{{end}},
        target_plan={{if .TargetPlan}}'{{.TargetPlan}}'{{else}}None{{end}},
{{- if .ABI}}
        bundle='{{.ABI}}',
{{- end}}
{{- if .ExtraArtifacts}}
        extra_artifacts={{.ExtraArtifacts}},
{{- end}}
{{- if .ExtraArtifactsHost}}
        extra_artifacts_host={{.ExtraArtifactsHost}},
{{- end}}
{{- if .URI}}
        uri='{{.URI}}',
{{- end}}
{{- range .ExtraArgs}}
        {{.}},
{{- end}}
{{- if .ServoSupportNeeded}}
        hard_reboot_on_failure=True,
{{- end}}
{{- if .CameraFacing}}
        retry_manual_tests=True,
{{- end}}
{{- if .ExecutableTestCount}}
        executable_test_count={{.ExecutableTestCount}},
{{- end}}
        timeout={{.Timeout}})

{{if gt .SyncCount 1 -}}
ntuples, failures = server_utils.form_ntuples_from_machines(machines,
                                                            SYNC_COUNT)
# Use log=False in parallel_simple to avoid an exception in setting up
# the incremental parser when SYNC_COUNT > 1.
parallel_simple({{.TestFuncName}}, ntuples, log=False)
{{else -}}
parallel_simple({{.TestFuncName}}, machines)
{{end}}`))

// contentView holds the values rendered into contentTemplate. Lists are
// already rendered as Python literals.
type contentView struct {
	Year                  int
	Name                  string
	BaseName              string
	TestFuncName          string
	Attributes            string
	Dependencies          string
	JobRetries            int
	TestLength            string
	MaxResultSizeKB       int
	SyncCount             int
	Priority              int
	ServoSupportNeeded    bool
	WifiInfoNeeded        bool
	HasPreconditionEscape bool
	CameraFacing          string
	HasMaxRetries         bool
	MaxRetries            int
	EnableDefaultApps     bool
	NeedsPushMedia        bool
	NeedsCTSHelpers       bool
	Tag                   string
	Authkey               string
	RunTemplate           string
	RetryTemplate         string
	TargetModule          string
	TargetPlan            string
	ABI                   string
	ExtraArtifacts        string
	ExtraArtifactsHost    string
	URI                   string
	ExtraArgs             []string
	ExecutableTestCount   int
	Timeout               int
}

// pyQuote returns the Python repr of s.
func pyQuote(s string) string {
	q := "'"
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		q = `"`
	}
	r := strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\t", `\t`, q, `\`+q)
	return q + r.Replace(s) + q
}

// pyList returns the Python repr of a list of strings, or None for nil.
func pyList(l []string) string {
	if l == nil {
		return "None"
	}
	quoted := make([]string, len(l))
	for i, s := range l {
		quoted[i] = pyQuote(s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// Params describes one control file.
type Params struct {
	// Combined names the module group, e.g. "CtsMedia" or a single module.
	Combined string
	Modules  module.Set
	// ABI is the bundle ABI such as "arm" or "x86", or "" for ABI-less
	// bundles.
	ABI      string
	Revision string
	Build    string
	// Suites overrides the computed suites if non-empty.
	Suites       []string
	Source       bundle.SourceType
	ABIBits      int
	Shard        Shard
	LEDProvision string
	CameraFacing string
	// HardwareSuite is set for control files of the hardware suite.
	HardwareSuite  bool
	WholeModuleSet module.Set
}

var abisToRun = map[string]map[int]string{
	"arm": {32: "armeabi-v7a", 64: "arm64-v8a"},
	"x86": {32: "x86", 64: "x86_64"},
}

// NameParams returns the parameters naming the control file of p.
func (p *Params) NameParams() *NameParams {
	shard := p.Shard
	if shard == (Shard{}) {
		shard = NoShard
	}
	return &NameParams{
		Module:        p.Combined,
		ABI:           p.ABI,
		Revision:      p.Revision,
		Public:        p.Source.IsPublic(),
		LEDProvision:  p.LEDProvision,
		CameraFacing:  p.CameraFacing,
		HardwareSuite: p.HardwareSuite,
		ABIBits:       p.ABIBits,
		Shard:         shard,
	}
}

// TradefedABI returns the tradefed ABI a control file runs, or "" to run
// all ABIs of the bundle.
func (g *Generator) TradefedABI(abi string, bits int) string {
	if rep, ok := g.cfg.RepresentativeABI[abi]; ok {
		return rep
	}
	return abisToRun[abi][bits]
}

// Content returns the text of the control file described by p.
func (g *Generator) Content(ctx context.Context, p *Params) (string, error) {
	c := g.cfg
	public := p.Source.IsPublic()
	np := p.NameParams()
	tag := g.Extension(np)
	name := c.TestName + "." + tag

	suites := p.Suites
	if len(suites) == 0 {
		suites = g.Suites(ctx, p.Modules, p.ABI, public, p.CameraFacing, p.HardwareSuite)
	}
	if c.IsQualSuite(suites) && p.Modules.Any(c.CameraModules) {
		suites = append(append([]string(nil), suites...), c.CameraDUTSuiteName)
	}

	var target string
	if !g.CollectModules(public, false).Has(p.Combined) && p.Combined != module.All {
		target = p.Combined
	}
	extra := g.ExtraModulesFor(p.Source, p.ABI)
	parents := maps.Keys(extra)
	slices.Sort(parents)
	for _, parent := range parents {
		if _, ok := extra[parent][p.Combined]; ok {
			target = parent
		}
	}

	var plan string
	if p.Modules.Has(module.HardwareCollect) || p.Modules.Has(module.PublicHardwareCollect) {
		plan = "cts-hardware"
	}
	var testCount int
	if p.Modules.Has(module.Collect) || p.Modules.Has(module.PublicCollect) {
		testCount = c.CollectTestsCount
	}

	run, err := g.RunTemplate(p.Modules, public, RunOptions{
		ABI:            g.TradefedABI(p.ABI, p.ABIBits),
		Shard:          np.Shard,
		WholeModuleSet: p.WholeModuleSet,
		Hardware:       p.HardwareSuite,
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to build run command of %s", name)
	}
	retry, err := g.RetryTemplate(p.Modules, public)
	if err != nil {
		return "", errors.Wrapf(err, "failed to build retry command of %s", name)
	}
	maxRetries, hasMaxRetries := g.MaxRetries(p.Modules, p.ABI, suites, public, np.Shard)

	var artifacts, hostArtifacts string
	if a := g.ExtraArtifacts(p.Modules); len(a) > 0 {
		artifacts = pyList(a)
	}
	if a := g.ExtraArtifactsHost(p.Modules); len(a) > 0 {
		hostArtifacts = pyList(a)
	}

	v := &contentView{
		Year:                  c.CopyrightYear,
		Name:                  name,
		BaseName:              c.TestName,
		TestFuncName:          c.ControlFileTestFunctionName,
		Attributes:            strings.Join(suites, ", "),
		Dependencies:          g.Dependencies(p.Modules, p.ABI, public, p.LEDProvision, p.CameraFacing),
		JobRetries:            g.JobRetries(p.Modules, public, suites),
		TestLength:            g.TestLength(p.Modules),
		MaxResultSizeKB:       g.MaxResultSizeKB(p.Modules, public),
		SyncCount:             g.SyncCount(p.Modules, p.ABI, public),
		Priority:              g.TestPriority(p.Modules, public),
		ServoSupportNeeded:    g.ServoSupportNeeded(p.Modules, public),
		WifiInfoNeeded:        g.WifiInfoNeeded(p.Modules, public),
		HasPreconditionEscape: g.HasPreconditionEscape(p.Modules, public),
		CameraFacing:          p.CameraFacing,
		HasMaxRetries:         hasMaxRetries,
		MaxRetries:            maxRetries,
		EnableDefaultApps:     g.EnableDefaultApps(p.Modules),
		NeedsPushMedia:        g.NeedsPushMedia(p.Modules),
		NeedsCTSHelpers:       g.NeedsCTSHelpers(p.Modules),
		Tag:                   tag,
		Authkey:               g.Authkey(public),
		RunTemplate:           pyList(run),
		RetryTemplate:         pyList(retry),
		TargetModule:          target,
		TargetPlan:            plan,
		ABI:                   p.ABI,
		ExtraArtifacts:        artifacts,
		ExtraArtifactsHost:    hostArtifacts,
		URI:                   p.Source.URI(),
		ExtraArgs:             g.ExtraArgs(p.Modules, public),
		ExecutableTestCount:   testCount,
		Timeout:               g.Timeout(p.Modules, suites),
	}
	var buf bytes.Buffer
	if err := contentTemplate.Execute(&buf, v); err != nil {
		return "", errors.Wrapf(err, "failed to render %s", name)
	}
	return buf.String(), nil
}
