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

// Package config reads the description of a transit network and the privacy
// parameters of a run from YAML, with station counts given inline or in a
// CSV file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/differential-privacy/transit/epsilon"
	"github.com/google/differential-privacy/transit/noise"
	"github.com/google/differential-privacy/transit/pipeline"
	"github.com/google/differential-privacy/transit/rand"
	"github.com/google/differential-privacy/transit/station"
	"gopkg.in/yaml.v3"
)

// File is the YAML document describing one run.
type File struct {
	Name        string              `yaml:"name"`
	Seed        *uint64             `yaml:"seed"` // Unset means crypto randomness.
	Noise       string              `yaml:"noise"`
	Sensitivity float64             `yaml:"sensitivity"`
	Alpha       float64             `yaml:"alpha"`
	PruneZero   bool                `yaml:"prune_zero"`
	Epsilon     Epsilon             `yaml:"epsilon"`
	Stations    []Station           `yaml:"stations"`
	StationsCSV string              `yaml:"stations_csv"` // Relative to the YAML file when loaded with Load.
	Hierarchy   map[string][]string `yaml:"hierarchy"`
	// Routes lists stops separated by ">", e.g. "L1 > L2 > L3". Each
	// consecutive pair becomes a parent/child edge, added to Hierarchy.
	Routes []string `yaml:"routes"`
}

// Epsilon mirrors epsilon.Schedule.
type Epsilon struct {
	Base      float64 `yaml:"base"`
	DecayRate float64 `yaml:"decay_rate"`
	Floor     float64 `yaml:"floor"`
}

// Station is one entry of the stations list.
type Station struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	Count     int64   `yaml:"count"`
	Epsilon   float64 `yaml:"epsilon"`
	Alighting int64   `yaml:"alighting"`
	ToNext    int64   `yaml:"to_next"`
}

// Load reads and parses the YAML file at path. A stations_csv entry is
// resolved relative to the directory of path and read into Stations.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config.Load(%q): %w", path, err)
	}
	if f.StationsCSV != "" {
		p := f.StationsCSV
		if !filepath.IsAbs(p) {
			p = filepath.Join(filepath.Dir(path), p)
		}
		stations, err := ReadStationsFile(p)
		if err != nil {
			return nil, fmt.Errorf("config.Load(%q): %w", path, err)
		}
		for _, s := range stations {
			f.Stations = append(f.Stations, Station{
				ID:        s.ID,
				Name:      s.Name,
				Count:     s.OriginalCount,
				Epsilon:   s.EpsilonOverride,
				Alighting: s.OriginalMetrics.Alighting,
				ToNext:    s.OriginalMetrics.ToNext,
			})
		}
	}
	return f, nil
}

// Parse decodes a single YAML document. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	f := &File{}
	if err := dec.Decode(f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty document")
		}
		return nil, err
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, errors.New("multiple YAML documents are not supported")
	}
	return f, nil
}

// PipelineConfig converts f into the input of pipeline.Run. Values left out of
// the document keep the defaults of pipeline.Config.
func (f *File) PipelineConfig() (*pipeline.Config, error) {
	kind := noise.LaplaceNoise
	if f.Noise != "" {
		k, err := noise.ParseKind(f.Noise)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		kind = k
	}
	if len(f.Stations) == 0 {
		return nil, errors.New("config: no stations given")
	}
	stations := make([]station.Station, 0, len(f.Stations))
	for _, s := range f.Stations {
		stations = append(stations, station.Station{
			ID:              s.ID,
			Name:            s.Name,
			OriginalCount:   s.Count,
			EpsilonOverride: s.Epsilon,
			OriginalMetrics: station.Metrics{Alighting: s.Alighting, ToNext: s.ToNext},
		})
	}
	edges, err := f.edges()
	if err != nil {
		return nil, err
	}
	return &pipeline.Config{
		Edges:    edges,
		Stations: stations,
		Schedule: epsilon.Schedule{
			Base:      f.Epsilon.Base,
			DecayRate: f.Epsilon.DecayRate,
			Floor:     f.Epsilon.Floor,
		},
		Sensitivity: f.Sensitivity,
		Noise:       kind,
		PruneZero:   f.PruneZero,
		Alpha:       f.Alpha,
	}, nil
}

// edges merges Hierarchy with the edges of Routes. Whether the result is a
// forest is left to hierarchy.New.
func (f *File) edges() (map[string][]string, error) {
	if len(f.Routes) == 0 {
		return f.Hierarchy, nil
	}
	edges := make(map[string][]string, len(f.Hierarchy))
	for p, cs := range f.Hierarchy {
		edges[p] = append([]string(nil), cs...)
	}
	for _, r := range f.Routes {
		stops, err := ParseRoute(r)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		for i := 1; i < len(stops); i++ {
			edges[stops[i-1]] = append(edges[stops[i-1]], stops[i])
		}
	}
	return edges, nil
}

// ParseRoute splits a route such as "L1 > L2 > L3" into its stops.
func ParseRoute(route string) ([]string, error) {
	stops := strings.Split(route, ">")
	for i, s := range stops {
		stops[i] = strings.TrimSpace(s)
		if stops[i] == "" {
			return nil, fmt.Errorf("route %q has an empty stop", route)
		}
	}
	return stops, nil
}

// Source returns the random source the document asks for.
func (f *File) Source() rand.Source {
	if f.Seed == nil {
		return rand.NewCrypto()
	}
	return rand.NewSeeded(*f.Seed)
}
