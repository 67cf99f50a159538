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

// Package epsilon assigns a privacy parameter ε to every station of a
// hierarchy from its depth.
//
// ε decays linearly with depth down to a positive floor, so stations deeper in
// the network, whose counts identify fewer travellers, receive more noise.
package epsilon

import (
	"fmt"
	"math"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/transit/checks"
	"github.com/google/differential-privacy/transit/hierarchy"
	"github.com/google/differential-privacy/transit/station"
)

// DefaultFloor is the smallest ε a depth can be assigned unless the Schedule
// sets its own floor.
const DefaultFloor = 0.1

// Schedule describes how ε decays with depth:
//
//	ε(depth) = max(Floor, Base - DecayRate*depth)
type Schedule struct {
	Base      float64 // ε of the roots. Required.
	DecayRate float64 // Decrease of ε per level. Defaults to 0, i.e. no decay.
	Floor     float64 // Lower bound of ε. Defaults to DefaultFloor.
}

func (s Schedule) withDefaults() Schedule {
	if s.Floor == 0 {
		s.Floor = DefaultFloor
	}
	return s
}

// Validate returns an error if s cannot produce a finite positive ε for
// every depth.
func (s Schedule) Validate() error {
	s = s.withDefaults()
	if err := checks.CheckEpsilonStrict("Schedule.Validate", s.Base); err != nil {
		return err
	}
	if err := checks.CheckDecayRate("Schedule.Validate", s.DecayRate); err != nil {
		return err
	}
	return checks.CheckEpsilonFloor("Schedule.Validate", s.Floor)
}

// ForDepth returns the ε for a station at the given depth. It does not
// validate s.
func (s Schedule) ForDepth(depth int) float64 {
	s = s.withDefaults()
	return math.Max(s.Floor, s.Base-s.DecayRate*float64(depth))
}

// Floored reports whether the ε at depth was raised to the floor.
func (s Schedule) Floored(depth int) bool {
	s = s.withDefaults()
	return s.Base-s.DecayRate*float64(depth) < s.Floor
}

// Assign returns the ε of every station of h.
func (s Schedule) Assign(h *hierarchy.Hierarchy) (map[string]float64, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("Assign: %w", err)
	}
	eps := make(map[string]float64, h.Len())
	for _, id := range h.TopologicalOrder() {
		d, err := h.DepthOf(id)
		if err != nil {
			return nil, fmt.Errorf("Assign: %w", err)
		}
		eps[id] = s.ForDepth(d)
	}
	return eps, nil
}

// Assign returns the ε of every station of h under a Schedule with the given
// base and decay rate and the default floor.
func Assign(h *hierarchy.Hierarchy, baseEpsilon, decayRate float64) (map[string]float64, error) {
	return Schedule{Base: baseEpsilon, DecayRate: decayRate}.Assign(h)
}

// Apply returns a copy of t whose stations carry the ε assigned by s.
// Stations with a positive EpsilonOverride keep the override instead. Every
// station of t must belong to h.
func Apply(h *hierarchy.Hierarchy, t station.Table, s Schedule) (station.Table, error) {
	eps, err := s.Assign(h)
	if err != nil {
		return nil, err
	}
	s = s.withDefaults()
	out := make(map[string]float64, len(t))
	floored := 0
	for _, id := range t.IDs() {
		e, ok := eps[id]
		if !ok {
			return nil, fmt.Errorf("Apply: station %q is not part of the hierarchy", id)
		}
		if o := t[id].EpsilonOverride; o != 0 {
			if err := checks.CheckEpsilonStrict("Apply", o); err != nil {
				return nil, fmt.Errorf("Apply: override of station %q: %w", id, err)
			}
			e = o
		} else if d, _ := h.DepthOf(id); s.Floored(d) {
			floored++
		}
		out[id] = e
	}
	if floored > 0 {
		log.Warningf("Apply: %d of %d stations had their epsilon raised to the floor %v", floored, len(t), s.Floor)
	}
	return t.WithEpsilons(out)
}
