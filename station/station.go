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

// Package station holds the per-station records that flow through the
// pipeline.
//
// A Table is never modified in place by the pipeline stages: every With*
// method returns a new Table, leaving the receiver untouched.
package station

import (
	"fmt"
	"sort"

	"github.com/google/differential-privacy/transit/checks"
)

// Station is one node of the transit network together with its passenger
// counts and privacy parameter.
type Station struct {
	ID   string
	Name string // Human readable name. Defaults to ID when empty.
	// OriginalCount is the raw passenger count. It is never changed after
	// ingestion.
	OriginalCount int64
	// NoisyCount is the released count, written by the noise mechanism and
	// then by the consistency enforcer.
	NoisyCount int64
	// Epsilon is the privacy parameter ε assigned to this station.
	Epsilon float64
	// EpsilonOverride, when positive, replaces the ε computed from the
	// station's depth.
	EpsilonOverride float64
	// OriginalMetrics and NoisyMetrics hold the secondary counts. They are
	// perturbed with the station's ε but are not reconciled.
	OriginalMetrics Metrics
	NoisyMetrics    Metrics
}

// Metrics are the counts recorded at a station besides its passenger total.
type Metrics struct {
	Alighting int64 // Passengers leaving the vehicle at the station.
	ToNext    int64 // Passengers riding on to the next station.
}

func (m Metrics) check(label, id string) error {
	if err := checks.CheckCount(label+" (alighting)", id, m.Alighting); err != nil {
		return err
	}
	return checks.CheckCount(label+" (to next)", id, m.ToNext)
}

// Label returns the name of the station, or its ID if it has no name.
func (s Station) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// Table maps station IDs to stations.
type Table map[string]Station

// NewTable returns a Table holding the given stations. It fails if an ID is
// empty or repeated, or if an original count is negative.
func NewTable(stations ...Station) (Table, error) {
	t := make(Table, len(stations))
	for _, s := range stations {
		if err := checks.CheckStationID("NewTable", s.ID); err != nil {
			return nil, err
		}
		if err := checks.CheckCount("NewTable", s.ID, s.OriginalCount); err != nil {
			return nil, err
		}
		if err := s.OriginalMetrics.check("NewTable", s.ID); err != nil {
			return nil, err
		}
		if _, ok := t[s.ID]; ok {
			return nil, fmt.Errorf("NewTable: station %q is listed more than once", s.ID)
		}
		t[s.ID] = s
	}
	return t, nil
}

// Clone returns a copy of t.
func (t Table) Clone() Table {
	c := make(Table, len(t))
	for id, s := range t {
		c[id] = s
	}
	return c
}

// IDs returns the station IDs of t in ascending order.
func (t Table) IDs() []string {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// OriginalCounts returns the original count of every station.
func (t Table) OriginalCounts() map[string]int64 {
	counts := make(map[string]int64, len(t))
	for id, s := range t {
		counts[id] = s.OriginalCount
	}
	return counts
}

// NoisyCounts returns the noisy count of every station.
func (t Table) NoisyCounts() map[string]int64 {
	counts := make(map[string]int64, len(t))
	for id, s := range t {
		counts[id] = s.NoisyCount
	}
	return counts
}

// Epsilons returns the ε of every station.
func (t Table) Epsilons() map[string]float64 {
	eps := make(map[string]float64, len(t))
	for id, s := range t {
		eps[id] = s.Epsilon
	}
	return eps
}

// WithNoisyCounts returns a copy of t whose noisy counts are taken from
// counts. Every station of t must have an entry in counts and no count may be
// negative.
func (t Table) WithNoisyCounts(counts map[string]int64) (Table, error) {
	c := t.Clone()
	for _, id := range t.IDs() {
		v, ok := counts[id]
		if !ok {
			return nil, fmt.Errorf("WithNoisyCounts: no noisy count for station %q", id)
		}
		if err := checks.CheckCount("WithNoisyCounts", id, v); err != nil {
			return nil, err
		}
		s := c[id]
		s.NoisyCount = v
		c[id] = s
	}
	return c, nil
}

// WithNoisyMetrics returns a copy of t whose noisy secondary counts are taken
// from metrics. Every station of t must have an entry in metrics and no count
// may be negative.
func (t Table) WithNoisyMetrics(metrics map[string]Metrics) (Table, error) {
	c := t.Clone()
	for _, id := range t.IDs() {
		m, ok := metrics[id]
		if !ok {
			return nil, fmt.Errorf("WithNoisyMetrics: no metrics for station %q", id)
		}
		if err := m.check("WithNoisyMetrics", id); err != nil {
			return nil, err
		}
		s := c[id]
		s.NoisyMetrics = m
		c[id] = s
	}
	return c, nil
}

// WithEpsilons returns a copy of t whose ε values are taken from eps. Every
// station of t must have an entry in eps.
func (t Table) WithEpsilons(eps map[string]float64) (Table, error) {
	c := t.Clone()
	for _, id := range t.IDs() {
		e, ok := eps[id]
		if !ok {
			return nil, fmt.Errorf("WithEpsilons: no epsilon for station %q", id)
		}
		if err := checks.CheckEpsilonStrict("WithEpsilons", e); err != nil {
			return nil, err
		}
		s := c[id]
		s.Epsilon = e
		c[id] = s
	}
	return c, nil
}
