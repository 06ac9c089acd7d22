// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package config loads the configuration tables that drive control file
// generation for one xTS test (e.g. cheets_CTS_R).
package config

import (
	"os"
	"regexp"
	"strings"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v2"

	"github.com/Oliver-2023/autoTest-sub000/errors"
)

// ExtraModules maps a parent module to its submodules and the suites each
// submodule is scheduled in.
type ExtraModules map[string]map[string][]string

// VMTestInfoSuite lists the modules that go to a VM test suite. Order in
// Config.VMTestInfoSuites is significant.
type VMTestInfoSuite struct {
	Suite   string   `yaml:"suite"`
	Modules []string `yaml:"modules"`
}

// Config holds the generator configuration of one test.
type Config struct {
	TestName                    string `yaml:"test_name"`
	DocTitle                    string `yaml:"doc_title"`
	CopyrightYear               int    `yaml:"copyright_year"`
	BundleConfigPath            string `yaml:"bundle_config_path"`
	ControlFileTestFunctionName string `yaml:"controlfile_test_function_name"`
	Authkey                     string `yaml:"authkey"`

	MoblabSuiteName         string   `yaml:"moblab_suite_name"`
	MoblabHardwareSuiteName string   `yaml:"moblab_hardware_suite_name"`
	InternalSuiteNames      []string `yaml:"internal_suite_names"`
	QualSuiteNames          []string `yaml:"qual_suite_names"`
	HardwareSuiteName       string   `yaml:"hardware_suite_name"`
	VMSuiteName             string   `yaml:"vm_suite_name"`
	StableVMSuiteName       string   `yaml:"stable_vm_suite_name"`
	CameraDUTSuiteName      string   `yaml:"camera_dut_suite_name"`

	LargeMaxResultSize  int `yaml:"large_max_result_size"`
	NormalMaxResultSize int `yaml:"normal_max_result_size"`

	TradefedCTSCommand                 string `yaml:"tradefed_cts_command"`
	TradefedRetryCommand               string `yaml:"tradefed_retry_command"`
	TradefedDisableReboot              bool   `yaml:"tradefed_disable_reboot"`
	TradefedDisableRebootOnCollection  bool   `yaml:"tradefed_disable_reboot_on_collection"`
	TradefedMaySkipDeviceInfo          bool   `yaml:"tradefed_may_skip_device_info"`
	TradefedIgnoreBusinessLogicFailure bool   `yaml:"tradefed_ignore_business_logic_failure"`
	TradefedExecutablePath             string `yaml:"tradefed_executable_path"`
	JavaExecutablePath                 string `yaml:"java_executable_path"`

	ControlFileWriteSimpleQualAndRegress bool  `yaml:"controlfile_write_simple_qual_and_regress"`
	ControlFileWriteCamera               bool  `yaml:"controlfile_write_camera"`
	ControlFileWriteExtra                bool  `yaml:"controlfile_write_extra"`
	ControlFileWriteCollect              *bool `yaml:"controlfile_write_collect"`
	SingleControlFile                    bool  `yaml:"single_control_file"`

	LabDependency map[string][]string `yaml:"lab_dependency"`

	CTSJobRetriesInPublic  int            `yaml:"cts_job_retries_in_public"`
	CTSQualRetries         int            `yaml:"cts_qual_retries"`
	CTSMaxRetries          map[string]int `yaml:"cts_max_retries"`
	PublicModuleRetryCount map[string]int `yaml:"public_module_retry_count"`

	// Timeouts are in hours.
	CTSTimeoutDefault float64            `yaml:"cts_timeout_default"`
	CTSTimeout        map[string]float64 `yaml:"cts_timeout"`
	BVTTimeout        float64            `yaml:"bvt_timeout"`
	QualTimeout       float64            `yaml:"qual_timeout"`

	QualBookmarks []string `yaml:"qual_bookmarks"`

	Smoke                          []string `yaml:"smoke"`
	BVTArc                         []string `yaml:"bvt_arc"`
	BVTPerbuild                    []string `yaml:"bvt_perbuild"`
	NeedsPowerCycle                []string `yaml:"needs_power_cycle"`
	CameraModules                  []string `yaml:"camera_modules"`
	HardwareDependentModules       []string `yaml:"hardware_dependent_modules"`
	HardwareModules                []string `yaml:"hardware_modules"`
	MediaModules                   []string `yaml:"media_modules"`
	NeedsPushMedia                 []string `yaml:"needs_push_media"`
	NeedsCTSHelpers                []string `yaml:"needs_cts_helpers"`
	EnableDefaultApps              []string `yaml:"enable_default_apps"`
	NeedsDeviceInfo                []string `yaml:"needs_device_info"`
	NeedsDynamicConfig             []string `yaml:"needs_dynamic_config"`
	NeedsDynamicConfigOnCollection *bool    `yaml:"needs_dynamic_config_on_collection"`
	DisableLogcatOnFailure         []string `yaml:"disable_logcat_on_failure"`
	WifiModules                    []string `yaml:"wifi_modules"`
	ExcludeModules                 []string `yaml:"exclude_modules"`
	SplitByBitsModules             []string `yaml:"split_by_bits_modules"`
	PublicSplitByBitsModules       []string `yaml:"public_split_by_bits_modules"`

	VMModulesRules         []string          `yaml:"vm_modules_rules"`
	VMUnstableModulesRules []string          `yaml:"vm_unstable_modules_rules"`
	VMSkipSuites           []string          `yaml:"vm_skip_suites"`
	VMTestInfoSuites       []VMTestInfoSuite `yaml:"vmtest_info_suites"`

	PublicDependencies map[string][]string `yaml:"public_dependencies"`
	Precondition       map[string][]string `yaml:"precondition"`
	LoginPrecondition  map[string][]string `yaml:"login_precondition"`
	PublicPrecondition map[string][]string `yaml:"public_precondition"`
	Prerequisites      map[string][]string `yaml:"prerequisites"`

	ExtraModules             ExtraModules                   `yaml:"extra_modules"`
	PublicExtraModules       ExtraModules                   `yaml:"public_extra_modules"`
	HardwareOnlyExtraModules ExtraModules                   `yaml:"hardwareonly_extra_modules"`
	PerfModules              ExtraModules                   `yaml:"perf_modules"`
	ExtraSubmoduleOverride   map[string]map[string][]string `yaml:"extra_submodule_override"`
	ExtraCommandline         map[string][]string            `yaml:"extra_commandline"`
	ExtraAttributes          map[string][]string            `yaml:"extra_attributes"`
	ExtraArtifacts           map[string][]string            `yaml:"extra_artifacts"`
	ExtraArtifactsHost       map[string][]string            `yaml:"extra_artifacts_host"`

	OverrideTestLength         map[string]int    `yaml:"override_test_length"`
	PublicOverrideTestPriority map[string]int    `yaml:"public_override_test_priority"`
	ShardCount                 map[string]int    `yaml:"shard_count"`
	PublicShardCount           map[string]int    `yaml:"public_shard_count"`
	RepresentativeABI          map[string]string `yaml:"representative_abi"`
	CollectTestsCount          int               `yaml:"collect_tests_count"`

	vmRules         []vmRule
	vmUnstableRules []vmRule
}

// vmRule is a compiled entry of a VM rule list. A rule is a regular
// expression prefixed by '+' (include) or '-' (exclude) and is matched
// against the beginning of a module name.
type vmRule struct {
	include bool
	re      *regexp.Regexp
}

// Load reads and validates the YAML configuration at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read generator config")
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", path)
	}
	return cfg, nil
}

// Parse decodes and validates a YAML configuration. Unknown keys are
// rejected.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.UnmarshalStrict(b, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse generator config")
	}
	if cfg.ControlFileTestFunctionName == "" {
		cfg.ControlFileTestFunctionName = "run_TS"
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.TestName == "" {
		return errors.New("test_name is empty")
	}
	switch c.TradefedRetryCommand {
	case "cts", "retry":
	default:
		return errors.Errorf("tradefed_retry_command must be cts or retry, got %q", c.TradefedRetryCommand)
	}
	if c.TradefedCTSCommand == "" {
		return errors.New("tradefed_cts_command is empty")
	}
	if c.CTSTimeoutDefault <= 0 {
		return errors.Errorf("cts_timeout_default must be positive, got %v", c.CTSTimeoutDefault)
	}

	suites := []string{c.MoblabSuiteName, c.MoblabHardwareSuiteName, c.HardwareSuiteName,
		c.VMSuiteName, c.StableVMSuiteName, c.CameraDUTSuiteName}
	suites = append(suites, c.InternalSuiteNames...)
	suites = append(suites, c.QualSuiteNames...)
	suites = append(suites, c.VMSkipSuites...)
	for _, s := range suites {
		if s != "" && !strings.HasPrefix(s, "suite:") {
			return errors.Errorf("suite name %q does not start with suite:", s)
		}
	}

	for name, l := range c.OverrideTestLength {
		if l < 1 || l > 5 {
			return errors.Errorf("override_test_length of %s is %d; must be in [1, 5]", name, l)
		}
	}

	var err error
	if c.vmRules, err = compileVMRules(c.VMModulesRules); err != nil {
		return errors.Wrap(err, "bad vm_modules_rules")
	}
	if c.vmUnstableRules, err = compileVMRules(c.VMUnstableModulesRules); err != nil {
		return errors.Wrap(err, "bad vm_unstable_modules_rules")
	}
	return nil
}

func compileVMRules(rules []string) ([]vmRule, error) {
	var compiled []vmRule
	for _, r := range rules {
		if r == "" || (r[0] != '+' && r[0] != '-') {
			return nil, errors.Errorf("rule %q does not start with + or -", r)
		}
		re, err := regexp.Compile("^(?:" + r[1:] + ")")
		if err != nil {
			return nil, errors.Wrapf(err, "rule %q", r)
		}
		compiled = append(compiled, vmRule{include: r[0] == '+', re: re})
	}
	return compiled, nil
}

func matchVMRules(rules []vmRule, name string) bool {
	for _, r := range rules {
		if r.re.MatchString(name) {
			return r.include
		}
	}
	return false
}

// IsVMModule reports whether name is eligible to run in a VM.
// The first matching rule decides.
func (c *Config) IsVMModule(name string) bool {
	return matchVMRules(c.vmRules, name)
}

// IsUnstableVMModule reports whether name is still unstable in a VM.
func (c *Config) IsUnstableVMModule(name string) bool {
	return matchVMRules(c.vmUnstableRules, name)
}

// WriteCollect reports whether collect control files are written.
// It defaults to true.
func (c *Config) WriteCollect() bool {
	return c.ControlFileWriteCollect == nil || *c.ControlFileWriteCollect
}

// DynamicConfigOnCollection reports whether the dynamic config is kept on
// collection runs. It defaults to true.
func (c *Config) DynamicConfigOnCollection() bool {
	return c.NeedsDynamicConfigOnCollection == nil || *c.NeedsDynamicConfigOnCollection
}

// HasHardwareSuite reports whether hardware-only control files are
// configured.
func (c *Config) HasHardwareSuite() bool {
	return len(c.HardwareModules) > 0
}

// IsQualSuite reports whether any of suites is a qualification suite.
func (c *Config) IsQualSuite(suites []string) bool {
	for _, s := range suites {
		if slices.Contains(c.QualSuiteNames, s) {
			return true
		}
	}
	return false
}
