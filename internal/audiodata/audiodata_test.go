// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package audiodata_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/Oliver-2023/autoTest-sub000/errors"
	"github.com/Oliver-2023/autoTest-sub000/internal/audiodata"
)

func TestNames(t *testing.T) {
	want := []string{
		"a2dp", "a2dp_long", "a2dp_medium", "a2dp_rate_44100",
		"hfp_nbs", "hfp_nbs_medium", "hfp_wbs", "hfp_wbs_medium",
	}
	if diff := cmp.Diff(audiodata.Names(), want); diff != "" {
		t.Errorf("Names mismatch (-got +want):\n%s", diff)
	}
}

func TestLookup(t *testing.T) {
	f, err := audiodata.Lookup(audiodata.A2DPRate44100)
	if err != nil {
		t.Fatal("Lookup failed: ", err)
	}
	want := &audiodata.Fixture{
		Name:           "a2dp_rate_44100",
		Rate:           44100,
		Channels:       2,
		Frequencies:    []int{1000, 1000},
		File:           "/usr/local/autotest/cros/audio/test_data/binaural_sine_1000hz_1000hz_rate44100_%dsecs.raw",
		RecordedByPeer: "/tmp/audio/a2dp_recorded_by_peer.raw",
		ChunkSecs:      1,
		BitWidth:       16,
		Format:         "S16_LE",
		DurationSecs:   5,
		ChunkFile:      "/tmp/audio/a2dp_rate_44100_recorded_by_peer_%d.raw",
		VolumeScale:    0.9999,
	}
	if diff := cmp.Diff(f, want); diff != "" {
		t.Errorf("Lookup mismatch (-got +want):\n%s", diff)
	}

	if _, err := audiodata.Lookup("a2dp_forever"); err == nil {
		t.Error("Lookup succeeded for an unknown fixture")
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	f, err := audiodata.Lookup(audiodata.A2DPLong)
	if err != nil {
		t.Fatal("Lookup failed: ", err)
	}
	if f.DurationSecs != 0 {
		t.Errorf("DurationSecs = %v; want 0", f.DurationSecs)
	}
	f.DurationSecs = 3600

	g, err := audiodata.Lookup(audiodata.A2DPLong)
	if err != nil {
		t.Fatal("Lookup failed: ", err)
	}
	if g.DurationSecs != 0 {
		t.Error("Lookup returned a fixture modified by a previous caller")
	}
}

func TestHFPFixtures(t *testing.T) {
	for _, tc := range []struct {
		name       string
		peer       string
		device     string
		duration   float64
		visqol     int
		sinkScores []float64
	}{
		{audiodata.HFPNBS, "/tmp/audio/hfp_nbs_recorded_by_peer.wav", "/usr/share/autotest/audio-test-data/sine_3500hz_rate8000_ch1_5secs.wav", 5, 2, []float64{3.5, 1.0}},
		{audiodata.HFPNBSMedium, "/tmp/audio/hfp_nbs_medium_recorded_by_peer.raw", "/usr/share/autotest/audio-test-data/sine_3500hz_rate8000_ch1_60secs.wav", 60, 0, nil},
		{audiodata.HFPWBS, "/tmp/audio/hfp_wbs_recorded_by_peer.wav", "/usr/share/autotest/audio-test-data/sine_7000hz_rate16000_ch1_5secs.wav", 5, 2, []float64{4.0, 4.0}},
		{audiodata.HFPWBSMedium, "/tmp/audio/hfp_wbs_medium_recorded_by_peer.raw", "/usr/share/autotest/audio-test-data/sine_7000hz_rate16000_ch1_60secs.wav", 60, 0, nil},
	} {
		f, err := audiodata.Lookup(tc.name)
		if err != nil {
			t.Fatalf("Lookup(%q) failed: %v", tc.name, err)
		}
		if f.RecordedByPeer != tc.peer {
			t.Errorf("%s: RecordedByPeer = %q; want %q", tc.name, f.RecordedByPeer, tc.peer)
		}
		if f.DeviceFile != tc.device {
			t.Errorf("%s: DeviceFile = %q; want %q", tc.name, f.DeviceFile, tc.device)
		}
		if f.DurationSecs != tc.duration {
			t.Errorf("%s: DurationSecs = %v; want %v", tc.name, f.DurationSecs, tc.duration)
		}
		var scores []float64
		for _, v := range f.Visqol {
			scores = append(scores, v.SinkPassingScore)
		}
		if diff := cmp.Diff(scores, tc.sinkScores); diff != "" {
			t.Errorf("%s: sink passing scores mismatch (-got +want):\n%s", tc.name, diff)
		}
	}
}

func TestVisqolFixture(t *testing.T) {
	f, err := audiodata.Lookup(audiodata.HFPNBS)
	if err != nil {
		t.Fatal("Lookup failed: ", err)
	}
	want := &audiodata.VisqolFixture{
		File:               "/tmp/audio-test-data/voice_8k.wav",
		RecordedByPeer:     "/tmp/audio/voice_8k_deg_peer.wav",
		RecordedByDUT:      "/tmp/audio/voice_8k_deg_dut.raw",
		Channels:           1,
		Rate:               8000,
		DurationSecs:       36.112,
		ChunkCheckingSecs:  36.112,
		BitWidth:           16,
		Format:             "S16_LE",
		Encoding:           "signed-integer",
		SpeechMode:         true,
		SinkPassingScore:   3.5,
		SourcePassingScore: 3.5,
		ReportingType:      "voice-8k",
		DeviceFile:         "/usr/share/autotest/audio-test-data/voice_8k.wav",
	}
	if diff := cmp.Diff(f.Visqol[0], want, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("ViSQOL fixture mismatch (-got +want):\n%s", diff)
	}
	if got, want := f.Visqol[1].RecordedByPeer, "/tmp/audio/sine_3k_deg_peer.wav"; got != want {
		t.Errorf("RecordedByPeer = %q; want %q", got, want)
	}
}

func TestFileFor(t *testing.T) {
	a2dp, err := audiodata.Lookup(audiodata.A2DP)
	if err != nil {
		t.Fatal("Lookup failed: ", err)
	}
	if got, want := a2dp.FileFor(60), "/usr/local/autotest/cros/audio/test_data/binaural_sine_440hz_20000hz_rate48000_60secs.raw"; got != want {
		t.Errorf("FileFor(60) = %q; want %q", got, want)
	}
	if got, want := a2dp.ChunkFileFor(3), "/tmp/audio/a2dp_recorded_by_peer_3.raw"; got != want {
		t.Errorf("ChunkFileFor(3) = %q; want %q", got, want)
	}

	hfp, err := audiodata.Lookup(audiodata.HFPWBS)
	if err != nil {
		t.Fatal("Lookup failed: ", err)
	}
	if got, want := hfp.FileFor(60), "/usr/local/autotest/cros/audio/test_data/sine_7000hz_rate16000_ch1_5secs.raw"; got != want {
		t.Errorf("FileFor(60) = %q; want %q", got, want)
	}
}

func TestCheckScore(t *testing.T) {
	ctx := context.Background()
	f, err := audiodata.Lookup(audiodata.HFPNBS)
	if err != nil {
		t.Fatal("Lookup failed: ", err)
	}
	voice := f.Visqol[0]
	if err := audiodata.CheckScore(ctx, voice, audiodata.Sink, 3.5); err != nil {
		t.Error("CheckScore failed for a passing score: ", err)
	}
	err = audiodata.CheckScore(ctx, voice, audiodata.Source, 3.2)
	if err == nil {
		t.Fatal("CheckScore succeeded for a failing score")
	}
	if k := errors.KindOf(err); k != errors.KindFail {
		t.Errorf("CheckScore returned error of kind %v; want %v", k, errors.KindFail)
	}
}
