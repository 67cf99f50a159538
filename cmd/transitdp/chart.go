//
// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package main

import (
	"fmt"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/transit/pipeline"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const barWidth = vg.Length(12)

// writeChart saves a grouped bar chart of the original and the reconciled
// noisy count of every station of res, in topological order. The image
// format follows the extension of path.
func writeChart(res *pipeline.Result, title, path string) error {
	ids := res.Hierarchy.TopologicalOrder()
	original := make(plotter.Values, len(ids))
	noisy := make(plotter.Values, len(ids))
	for i, id := range ids {
		s := res.Stations[id]
		original[i] = float64(s.OriginalCount)
		noisy[i] = float64(s.NoisyCount)
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "Passengers"
	p.Legend.Top = true

	for i, series := range []struct {
		name   string
		values plotter.Values
		offset vg.Length
	}{
		{"Original", original, -barWidth / 2},
		{"Noisy", noisy, barWidth / 2},
	} {
		bars, err := plotter.NewBarChart(series.values, barWidth)
		if err != nil {
			return fmt.Errorf("couldn't build the %s bars: %w", series.name, err)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		bars.Offset = series.offset
		p.Add(bars)
		p.Legend.Add(series.name, bars)
	}
	p.NominalX(ids...)

	width := vg.Length(len(ids)) * 3 * barWidth
	if width < 4*vg.Inch {
		width = 4 * vg.Inch
	}
	if err := p.Save(width, 3*vg.Inch, path); err != nil {
		return fmt.Errorf("couldn't save the chart = %q: %w", path, err)
	}
	log.Infof("Count chart saved as %s", path)
	return nil
}
