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

// Package noise contains the mechanisms that add noise to station counts.
package noise

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/differential-privacy/transit/checks"
	"github.com/google/differential-privacy/transit/rand"
	"github.com/google/differential-privacy/transit/station"
)

// DefaultSensitivity is the change in a passenger count caused by adding or
// removing a single traveller.
const DefaultSensitivity = 1.0

// Kind is an enum type. Its values are the supported noise mechanisms.
type Kind int

// Noise mechanisms available to the pipeline.
const (
	LaplaceNoise Kind = iota
	GeometricNoise
	NoNoise
)

var kindNames = []string{"laplace", "geometric", "none"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind converts the name of a mechanism, as returned by Kind.String,
// into a Kind. Matching is case insensitive.
func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if strings.EqualFold(name, n) {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("ParseKind: unknown noise mechanism %q, must be one of %v", name, kindNames)
}

// New returns the Mechanism of kind k drawing its randomness from src. A nil
// src is replaced by rand.NewCrypto().
func New(k Kind, src rand.Source) (Mechanism, error) {
	switch k {
	case LaplaceNoise:
		return Laplace(src), nil
	case GeometricNoise:
		return Geometric(src), nil
	case NoNoise:
		return None(), nil
	}
	return nil, fmt.Errorf("noise.New: unknown Kind %v", k)
}

// Mechanism adds noise to a count.
type Mechanism interface {
	// Perturb returns trueValue plus noise calibrated to the given L_1
	// sensitivity and privacy parameter ε, rounded to an integer and clamped
	// to be nonnegative.
	Perturb(trueValue int64, sensitivity, epsilon float64) (int64, error)
}

// InvalidEpsilonError is returned when a mechanism is called with an ε that
// is not strictly positive and finite.
type InvalidEpsilonError struct {
	Epsilon float64
	Err     error
}

func (e *InvalidEpsilonError) Error() string { return e.Err.Error() }

func (e *InvalidEpsilonError) Unwrap() error { return e.Err }

// InvalidSensitivityError is returned when a mechanism is called with a
// sensitivity that is not strictly positive and finite.
type InvalidSensitivityError struct {
	Sensitivity float64
	Err         error
}

func (e *InvalidSensitivityError) Error() string { return e.Err.Error() }

func (e *InvalidSensitivityError) Unwrap() error { return e.Err }

func checkArgs(label string, sensitivity, epsilon float64) error {
	if err := checks.CheckEpsilonStrict(label, epsilon); err != nil {
		return &InvalidEpsilonError{Epsilon: epsilon, Err: err}
	}
	if err := checks.CheckSensitivity(label, sensitivity); err != nil {
		return &InvalidSensitivityError{Sensitivity: sensitivity, Err: err}
	}
	return nil
}

// clampToCount rounds x to the nearest integer and clamps it to
// [0, math.MaxInt64].
func clampToCount(x float64) int64 {
	r := math.Round(x)
	if !(r > 0) { // Also catches NaN.
		return 0
	}
	if r >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(r)
}

type none struct{}

// None returns a Mechanism that adds no noise. Its arguments are still
// validated. It is meant for testing the rest of a pipeline.
func None() Mechanism {
	return none{}
}

func (none) Perturb(trueValue int64, sensitivity, epsilon float64) (int64, error) {
	if err := checkArgs("None.Perturb", sensitivity, epsilon); err != nil {
		return 0, err
	}
	if trueValue < 0 {
		return 0, nil
	}
	return trueValue, nil
}

func (none) String() string {
	return "No Noise"
}

// PerturbTable returns a copy of t in which the noisy count and the noisy
// metrics of every station are its original values perturbed by m with the
// station's ε. Each value receives its own draw. Stations are visited in
// ascending ID order, so a seeded mechanism yields the same table on every
// run.
func PerturbTable(m Mechanism, t station.Table, sensitivity float64) (station.Table, error) {
	counts := make(map[string]int64, len(t))
	metrics := make(map[string]station.Metrics, len(t))
	for _, id := range t.IDs() {
		s := t[id]
		var vals [3]int64
		for i, v := range [3]int64{s.OriginalCount, s.OriginalMetrics.Alighting, s.OriginalMetrics.ToNext} {
			p, err := m.Perturb(v, sensitivity, s.Epsilon)
			if err != nil {
				return nil, fmt.Errorf("PerturbTable: station %q: %w", id, err)
			}
			vals[i] = p
		}
		counts[id] = vals[0]
		metrics[id] = station.Metrics{Alighting: vals[1], ToNext: vals[2]}
	}
	t, err := t.WithNoisyCounts(counts)
	if err != nil {
		return nil, err
	}
	return t.WithNoisyMetrics(metrics)
}
