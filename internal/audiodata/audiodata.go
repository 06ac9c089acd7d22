// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package audiodata describes the audio clips played and recorded by
// Bluetooth audio tests, and the ViSQOL scores they must reach.
package audiodata

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/Oliver-2023/autoTest-sub000/errors"
	"github.com/Oliver-2023/autoTest-sub000/internal/logging"
)

// Directories holding audio data.
const (
	// DeviceRecordDir is where the peer device stores its recordings.
	DeviceRecordDir = "/tmp/audio"
	// DeviceDataDir is where the peer device keeps its test clips.
	DeviceDataDir = "/usr/share/autotest/audio-test-data"

	// TestDir holds the raw clips on the DUT.
	TestDir = "/usr/local/autotest/cros/audio/test_data"
	// RecordDir holds recordings on the test server.
	RecordDir = "/tmp/audio"
	// TestDataDir is where the audio test data tarball is extracted.
	TestDataDir = "/tmp/audio-test-data"

	// DistFiles is the bucket holding the ViSQOL binary and audio tarballs.
	DistFiles = "gs://chromeos-localmirror/distfiles"
	// VisqolTarball is the URL of the ViSQOL binary tarball.
	VisqolTarball = DistFiles + "/visqol-binary.tar.gz"
	// AudioTarball is the URL of the audio test data tarball.
	AudioTarball = DistFiles + "/chameleon-bundle/audio-test-data.tar.gz"
)

// visqolBufferSecs is appended to ViSQOL clips to absorb recording delays.
const visqolBufferSecs = 10.0

// Fixture names.
const (
	A2DP          = "a2dp"
	A2DPMedium    = "a2dp_medium"
	A2DPLong      = "a2dp_long"
	A2DPRate44100 = "a2dp_rate_44100"
	HFPNBS        = "hfp_nbs"
	HFPNBSMedium  = "hfp_nbs_medium"
	HFPWBS        = "hfp_wbs"
	HFPWBSMedium  = "hfp_wbs_medium"
)

// Fixture describes an audio clip and how its recording is checked.
type Fixture struct {
	Name        string
	Rate        int
	Channels    int
	Frequencies []int
	// File is the clip played by the DUT. It may contain a "%d" replaced
	// with the duration in seconds; see FileFor.
	File           string
	RecordedByPeer string
	RecordedByDUT  string
	ChunkSecs      int
	BitWidth       int
	Format         string
	// DurationSecs is zero if the duration is chosen at run time.
	DurationSecs      float64
	ChunkCheckingSecs float64
	DeviceFile        string
	ChunkFile         string
	VolumeScale       float64
	Visqol            []*VisqolFixture
}

// VisqolFixture is a clip whose recording is scored by ViSQOL.
type VisqolFixture struct {
	File               string
	RecordedByPeer     string
	RecordedByDUT      string
	Channels           int
	Rate               int
	DurationSecs       float64
	ChunkCheckingSecs  float64
	BitWidth           int
	Format             string
	Encoding           string
	SpeechMode         bool
	SinkPassingScore   float64
	SourcePassingScore float64
	// ReportingType names the clip in performance reports.
	ReportingType string
	DeviceFile    string
}

func hfpVisqol(voice, sine, reportingVoice, reportingSine, sineRec string, rate int, voiceScore, sineScore float64) []*VisqolFixture {
	clip := func(file, recName, reporting string, secs, score float64) *VisqolFixture {
		return &VisqolFixture{
			File:               filepath.Join(TestDataDir, file),
			RecordedByPeer:     filepath.Join(RecordDir, recName+"_deg_peer.wav"),
			RecordedByDUT:      filepath.Join(RecordDir, recName+"_deg_dut.raw"),
			Channels:           1,
			Rate:               rate,
			DurationSecs:       secs + visqolBufferSecs,
			ChunkCheckingSecs:  secs + visqolBufferSecs,
			BitWidth:           16,
			Format:             "S16_LE",
			Encoding:           "signed-integer",
			SpeechMode:         true,
			SinkPassingScore:   score,
			SourcePassingScore: score,
			ReportingType:      reporting,
			DeviceFile:         filepath.Join(DeviceDataDir, file),
		}
	}
	return []*VisqolFixture{
		clip(voice, strings.TrimSuffix(voice, ".wav"), reportingVoice, 26.112, voiceScore),
		clip(sine, sineRec, reportingSine, 5.0, sineScore),
	}
}

func a2dp() *Fixture {
	return &Fixture{
		Name:           A2DP,
		Rate:           48000,
		Channels:       2,
		Frequencies:    []int{440, 20000},
		File:           filepath.Join(TestDir, "binaural_sine_440hz_20000hz_rate48000_%dsecs.raw"),
		RecordedByPeer: filepath.Join(RecordDir, "a2dp_recorded_by_peer.raw"),
		ChunkSecs:      5,
		BitWidth:       16,
		Format:         "S16_LE",
		DurationSecs:   5,
		ChunkFile:      filepath.Join(DeviceRecordDir, "a2dp_recorded_by_peer_%d.raw"),
	}
}

func a2dpMedium() *Fixture {
	f := a2dp()
	f.Name = A2DPMedium
	f.RecordedByPeer = filepath.Join(RecordDir, "a2dp_medium_recorded_by_peer.raw")
	f.DurationSecs = 60
	f.ChunkSecs = 1
	f.ChunkCheckingSecs = 5
	f.ChunkFile = filepath.Join(DeviceRecordDir, "a2dp_medium_recorded_by_peer_%d.raw")
	return f
}

func a2dpLong() *Fixture {
	f := a2dp()
	f.Name = A2DPLong
	f.RecordedByPeer = filepath.Join(RecordDir, "a2dp_long_recorded_by_peer.raw")
	f.DurationSecs = 0
	f.ChunkSecs = 1
	f.ChunkFile = filepath.Join(DeviceRecordDir, "a2dp_long_recorded_by_peer_%d.raw")
	return f
}

func a2dpRate44100() *Fixture {
	f := a2dp()
	f.Name = A2DPRate44100
	f.Rate = 44100
	f.Frequencies = []int{1000, 1000}
	f.File = filepath.Join(TestDir, "binaural_sine_1000hz_1000hz_rate44100_%dsecs.raw")
	f.ChunkSecs = 1
	f.ChunkFile = filepath.Join(DeviceRecordDir, "a2dp_rate_44100_recorded_by_peer_%d.raw")
	// Full-amplitude sine wave.
	f.VolumeScale = 0.9999
	return f
}

func hfp(name string, rate, freq, secs int) *Fixture {
	clip := fmt.Sprintf("sine_%dhz_rate%d_ch1_%dsecs", freq, rate, secs)
	peerExt := ".raw"
	if secs == 5 {
		peerExt = ".wav"
	}
	return &Fixture{
		Name:              name,
		Rate:              rate,
		Channels:          1,
		Frequencies:       []int{freq},
		File:              filepath.Join(TestDir, clip+".raw"),
		RecordedByPeer:    filepath.Join(RecordDir, name+"_recorded_by_peer"+peerExt),
		RecordedByDUT:     filepath.Join(RecordDir, name+"_recorded_by_dut.raw"),
		ChunkSecs:         1,
		BitWidth:          16,
		Format:            "S16_LE",
		DurationSecs:      float64(secs),
		ChunkCheckingSecs: 5,
		DeviceFile:        filepath.Join(DeviceDataDir, clip+".wav"),
		ChunkFile:         filepath.Join(DeviceRecordDir, name+"_recorded_by_peer_%d.raw"),
	}
}

func hfpNBS() *Fixture {
	f := hfp(HFPNBS, 8000, 3500, 5)
	// Narrow band scores vary across devices.
	f.Visqol = hfpVisqol("voice_8k.wav", "sine_3500hz_rate8000_ch1_5secs.wav", "voice-8k", "sine-3.5k", "sine_3k", 8000, 3.5, 1.0)
	return f
}

func hfpWBS() *Fixture {
	f := hfp(HFPWBS, 16000, 7000, 5)
	f.Visqol = hfpVisqol("voice.wav", "sine_7000hz_rate16000_ch1_5secs.wav", "voice-16k", "sine-7k", "sine_7k", 16000, 4.0, 4.0)
	return f
}

var fixtures = map[string]func() *Fixture{
	A2DP:          a2dp,
	A2DPMedium:    a2dpMedium,
	A2DPLong:      a2dpLong,
	A2DPRate44100: a2dpRate44100,
	HFPNBS:        hfpNBS,
	HFPNBSMedium:  func() *Fixture { return hfp(HFPNBSMedium, 8000, 3500, 60) },
	HFPWBS:        hfpWBS,
	HFPWBSMedium:  func() *Fixture { return hfp(HFPWBSMedium, 16000, 7000, 60) },
}

// Names returns the sorted names of all fixtures.
func Names() []string {
	names := maps.Keys(fixtures)
	slices.Sort(names)
	return names
}

// Lookup returns a fresh copy of the fixture called name, so callers may
// set run-time values such as the duration of A2DPLong.
func Lookup(name string) (*Fixture, error) {
	f, ok := fixtures[name]
	if !ok {
		return nil, errors.Errorf("unknown audio fixture %q", name)
	}
	return f(), nil
}

// FileFor returns the clip of f lasting durationSecs seconds.
func (f *Fixture) FileFor(durationSecs int) string {
	if !strings.Contains(f.File, "%d") {
		return f.File
	}
	return fmt.Sprintf(f.File, durationSecs)
}

// ChunkFileFor returns the file the peer records the i-th chunk to.
func (f *Fixture) ChunkFileFor(i int) string {
	return fmt.Sprintf(f.ChunkFile, i)
}

// Direction is the direction audio flows through the DUT.
type Direction int

const (
	// Sink is audio played by the peer and recorded by the DUT.
	Sink Direction = iota
	// Source is audio played by the DUT and recorded by the peer.
	Source
)

func (d Direction) String() string {
	switch d {
	case Sink:
		return "sink"
	case Source:
		return "source"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// PassingScore returns the lowest acceptable ViSQOL score in direction d.
func (v *VisqolFixture) PassingScore(d Direction) float64 {
	if d == Sink {
		return v.SinkPassingScore
	}
	return v.SourcePassingScore
}

// CheckScore returns a test failure if a ViSQOL score of v in direction d
// is below the passing score.
func CheckScore(ctx context.Context, v *VisqolFixture, d Direction, score float64) error {
	passing := v.PassingScore(d)
	logging.Infof(ctx, "ViSQOL %s score of %s: %.3f (passing %.1f)", d, v.ReportingType, score, passing)
	if score < passing {
		return errors.Failf("%s ViSQOL score of %s is %.3f; want >= %.1f", d, v.ReportingType, score, passing)
	}
	return nil
}
