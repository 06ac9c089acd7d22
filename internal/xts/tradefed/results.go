// Copyright 2024 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package tradefed

import (
	"context"
	"encoding/xml"
	"os"
	"path/filepath"

	"golang.org/x/exp/slices"

	"github.com/Oliver-2023/autoTest-sub000/errors"
	"github.com/Oliver-2023/autoTest-sub000/internal/logging"
	"github.com/Oliver-2023/autoTest-sub000/internal/xts/module"
)

// ResultXMLName is the name of the result file tradefed writes per run.
const ResultXMLName = "test_result.xml"

type xmlResult struct {
	Modules []xmlModule `xml:"Module"`
}

type xmlModule struct {
	Name      string        `xml:"name,attr"`
	ABI       string        `xml:"abi,attr"`
	TestCases []xmlTestCase `xml:"TestCase"`
}

type xmlTestCase struct {
	Name  string    `xml:"name,attr"`
	Tests []xmlTest `xml:"Test"`
}

type xmlTest struct {
	Name    string      `xml:"name,attr"`
	Result  string      `xml:"result,attr"`
	Failure *xmlFailure `xml:"Failure"`
	Metrics []xmlMetric `xml:"Summary>Metric"`
}

type xmlFailure struct {
	Message    string `xml:"message,attr"`
	StackTrace string `xml:"StackTrace"`
}

type xmlMetric struct {
	ScoreType string `xml:"score_type,attr"`
	ScoreUnit string `xml:"score_unit,attr"`
	Value     string `xml:"Value"`
}

func readResultXML(path string) (*xmlResult, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var res xmlResult
	if err := xml.Unmarshal(b, &res); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return &res, nil
}

// ParseResultXML returns the waived tests that failed in the result file at
// path, named "<class>#<test>". A test failing on several ABIs is listed
// once per ABI. Failures that are not waived are logged.
func ParseResultXML(ctx context.Context, path string, waivers []string) ([]string, error) {
	res, err := readResultXML(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read test results")
	}
	waived := module.NewSet(waivers...)
	var found []string
	for _, m := range res.Modules {
		for _, tc := range m.TestCases {
			for _, t := range tc.Tests {
				if t.Result != "fail" {
					continue
				}
				name := tc.Name + "#" + t.Name
				if waived.Has(name) {
					found = append(found, name)
					continue
				}
				msg := ""
				if t.Failure != nil {
					msg = t.Failure.Message
				}
				logging.Infof(ctx, "Failed test %s (%s): %s", name, m.ABI, msg)
			}
		}
	}
	slices.Sort(found)
	return found, nil
}

// PerfMetric is a performance value reported by a test.
type PerfMetric struct {
	Description    string
	Value          string
	Units          string
	HigherIsBetter bool
	ResultsDir     string
}

// PerfMetrics extracts the summary metrics of every test in the result file
// at path. Each metric is attributed to the per-module directory under
// resultsDir. A missing or malformed file yields no metrics.
func PerfMetrics(ctx context.Context, path, resultsDir string) []PerfMetric {
	res, err := readResultXML(path)
	if err != nil {
		logging.Warningf(ctx, "No perf metrics from %s: %v", path, err)
		return nil
	}
	var metrics []PerfMetric
	for _, m := range res.Modules {
		dir := filepath.Join(resultsDir, "tests", "CTS."+m.Name+"."+m.ABI)
		for _, tc := range m.TestCases {
			for _, t := range tc.Tests {
				for _, mt := range t.Metrics {
					var higher bool
					switch mt.ScoreType {
					case "higher_better":
						higher = true
					case "lower_better":
					default:
						logging.Debugf(ctx, "Unsupported score type %q in %s#%s", mt.ScoreType, tc.Name, t.Name)
						continue
					}
					metrics = append(metrics, PerfMetric{
						Description:    tc.Name + "#" + t.Name,
						Value:          mt.Value,
						Units:          mt.ScoreUnit,
						HigherIsBetter: higher,
						ResultsDir:     dir,
					})
				}
			}
		}
	}
	return metrics
}

// ResultXMLPath returns the result file of the newest run found in
// resultsDir, which holds one directory per result ID. An empty string is
// returned if there is none.
func ResultXMLPath(resultsDir string) (string, error) {
	ents, err := os.ReadDir(resultsDir)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to list results")
	}
	// Result IDs are timestamps that sort chronologically.
	for i := len(ents) - 1; i >= 0; i-- {
		if !ents[i].IsDir() {
			continue
		}
		p := filepath.Join(resultsDir, ents[i].Name(), ResultXMLName)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}
