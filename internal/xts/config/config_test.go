// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Oliver-2023/autoTest-sub000/internal/xts/config"
	"github.com/Oliver-2023/autoTest-sub000/testutil"
)

func TestLoad(t *testing.T) {
	cfg, err := config.Load("testdata/cts_r.yaml")
	if err != nil {
		t.Fatal("Load failed: ", err)
	}
	if cfg.TestName != "cheets_CTS_R" {
		t.Errorf("TestName = %q; want cheets_CTS_R", cfg.TestName)
	}
	if diff := cmp.Diff(cfg.LabDependency, map[string][]string{"x86": {"cts_abi_x86"}}); diff != "" {
		t.Errorf("LabDependency mismatch (-got +want):\n%s", diff)
	}
	if got := cfg.ExtraModules["CtsDeqpTestCases"]["CtsDeqpTestCases.dEQP-VK"]; !cmp.Equal(got, []string{"suite:arc-cts-deqp", "suite:graphics_per-week"}) {
		t.Errorf("ExtraModules dEQP-VK suites = %v", got)
	}
	if !cfg.WriteCollect() {
		t.Error("WriteCollect = false; want default true")
	}
	if !cfg.DynamicConfigOnCollection() {
		t.Error("DynamicConfigOnCollection = false; want default true")
	}
	if !cfg.HasHardwareSuite() {
		t.Error("HasHardwareSuite = false; want true")
	}
}

func TestVMRules(t *testing.T) {
	cfg, err := config.Load("testdata/cts_r.yaml")
	if err != nil {
		t.Fatal("Load failed: ", err)
	}
	for _, tc := range []struct {
		name             string
		vm, unstableInVM bool
	}{
		{"CtsCameraTestCases", true, true},
		{"CtsCameraApi25TestCases", false, true},
		{"CtsDeqpTestCases", false, false},
		{"CtsAppTestCases", true, true},
		{"CtsNetTestCases", true, false},
	} {
		if got := cfg.IsVMModule(tc.name); got != tc.vm {
			t.Errorf("IsVMModule(%q) = %v; want %v", tc.name, got, tc.vm)
		}
		if got := cfg.IsUnstableVMModule(tc.name); got != tc.unstableInVM {
			t.Errorf("IsUnstableVMModule(%q) = %v; want %v", tc.name, got, tc.unstableInVM)
		}
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := config.Parse([]byte(`
test_name: cheets_GTS
tradefed_cts_command: gts
tradefed_retry_command: retry
cts_timeout_default: 1.0
controlfile_write_collect: false
`))
	if err != nil {
		t.Fatal("Parse failed: ", err)
	}
	if cfg.ControlFileTestFunctionName != "run_TS" {
		t.Errorf("ControlFileTestFunctionName = %q; want run_TS", cfg.ControlFileTestFunctionName)
	}
	if cfg.WriteCollect() {
		t.Error("WriteCollect = true; want false")
	}
	if cfg.IsVMModule("GtsGmscoreHostTestCases") {
		t.Error("IsVMModule = true without rules")
	}
	if cfg.IsQualSuite([]string{"suite:arc-cts-qual"}) {
		t.Error("IsQualSuite reported a qual suite without qual_suite_names")
	}
}

func TestParseErrors(t *testing.T) {
	const base = "tradefed_cts_command: cts\ncts_timeout_default: 1\n"
	for _, tc := range []struct {
		name, yaml, want string
	}{
		{"no name", base + "tradefed_retry_command: retry\n", "test_name"},
		{"bad retry", base + "test_name: x\ntradefed_retry_command: rerun\n", "tradefed_retry_command"},
		{"bad suite", base + "test_name: x\ntradefed_retry_command: cts\ninternal_suite_names: [arc-cts]\n", "suite:"},
		{"bad rule prefix", base + "test_name: x\ntradefed_retry_command: cts\nvm_modules_rules: [CtsFoo]\n", "+ or -"},
		{"bad rule regexp", base + "test_name: x\ntradefed_retry_command: cts\nvm_modules_rules: [\"+Cts(\"]\n", "vm_modules_rules"},
		{"bad length", base + "test_name: x\ntradefed_retry_command: cts\noverride_test_length: {CtsFoo: 7}\n", "override_test_length"},
		{"unknown key", base + "test_name: x\ntradefed_retry_command: cts\nno_such_key: 1\n", "no_such_key"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tc.yaml))
			if err == nil {
				t.Fatal("Parse succeeded unexpectedly")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Parse error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	td := testutil.TempDir(t)
	defer os.RemoveAll(td)
	if _, err := config.Load(filepath.Join(td, "missing.yaml")); err == nil {
		t.Error("Load succeeded for a missing file")
	}
}
