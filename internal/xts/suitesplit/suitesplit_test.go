// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package suitesplit_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Oliver-2023/autoTest-sub000/internal/xts/suitesplit"
	"github.com/Oliver-2023/autoTest-sub000/testutil"
)

func TestSplitter(t *testing.T) {
	s := suitesplit.NewSplitter(&suitesplit.Config{
		MaxRuntimeSecs:      3600,
		PerTestOverheadSecs: 100,
		RuntimeHintSecs: map[string]float64{
			"CtsApp":               1000,
			"CtsNet":               1500,
			"CtsView":              2000,
			"CtsDeqpTestCases":     7200,
			"CtsMediaTestCases.32": 500,
		},
	})
	ctx := context.Background()
	var got []int
	for _, tc := range []struct {
		name string
		bits int
	}{
		{"CtsApp", 0},
		{"CtsNet", 0},
		{"CtsDeqpTestCases", 0},
		{"CtsView", 0},
		{"CtsMediaTestCases", 32},
		{"CtsMediaTestCases", 64},
	} {
		got = append(got, s.Shard(ctx, tc.name, tc.bits))
	}
	want := []int{1, 1, suitesplit.LongSuite, 2, 2, suitesplit.LongSuite}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Shard mismatch (-got +want):\n%s", diff)
	}
	shards, long := s.Stats()
	if shards != 2 || long != 7300 {
		t.Errorf("Stats() = (%d, %v); want (2, 7300)", shards, long)
	}
}

func TestLoadConfig(t *testing.T) {
	td := testutil.TempDir(t)
	defer os.RemoveAll(td)

	if err := testutil.WriteFiles(td, map[string]string{
		"hints.yaml": "max_runtime_secs: 3600\nper_test_overhead_secs: 60\nruntime_hint_secs:\n  CtsApp: 120\n",
		"bad.yaml":   "max_runtime_secs: 0\n",
	}); err != nil {
		t.Fatal(err)
	}
	cfg, err := suitesplit.LoadConfig(filepath.Join(td, "hints.yaml"))
	if err != nil {
		t.Fatal("LoadConfig failed: ", err)
	}
	want := &suitesplit.Config{MaxRuntimeSecs: 3600, PerTestOverheadSecs: 60, RuntimeHintSecs: map[string]float64{"CtsApp": 120}}
	if diff := cmp.Diff(cfg, want); diff != "" {
		t.Errorf("LoadConfig mismatch (-got +want):\n%s", diff)
	}
	if _, err := suitesplit.LoadConfig(filepath.Join(td, "bad.yaml")); err == nil {
		t.Error("LoadConfig succeeded for a non-positive max runtime")
	}
}
