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

// Package checks contains parameter checks shared by the noise, epsilon and
// pipeline packages.
//
// Every check takes the label of the calling function as its first argument
// and includes it in the returned error.
package checks

import (
	"fmt"
	"math"
)

// CheckEpsilonStrict returns an error if ε is nonpositive, NaN or ±∞.
func CheckEpsilonStrict(label string, epsilon float64) error {
	if epsilon <= 0 || math.IsInf(epsilon, 0) || math.IsNaN(epsilon) {
		return fmt.Errorf("%s: Epsilon is %f, must be strictly positive and finite", label, epsilon)
	}
	return nil
}

// CheckEpsilonFloor returns an error if the ε floor is nonpositive, NaN or ±∞.
// A zero floor would allow an infinite noise scale at depth.
func CheckEpsilonFloor(label string, floor float64) error {
	if floor <= 0 || math.IsInf(floor, 0) || math.IsNaN(floor) {
		return fmt.Errorf("%s: EpsilonFloor is %f, must be strictly positive and finite", label, floor)
	}
	return nil
}

// CheckDecayRate returns an error if the per-depth ε decay is negative, NaN or ±∞.
func CheckDecayRate(label string, decayRate float64) error {
	if decayRate < 0 || math.IsInf(decayRate, 0) || math.IsNaN(decayRate) {
		return fmt.Errorf("%s: DecayRate is %f, must be nonnegative and finite", label, decayRate)
	}
	return nil
}

// CheckSensitivity returns an error if sensitivity is nonpositive, NaN or ±∞.
func CheckSensitivity(label string, sensitivity float64) error {
	if sensitivity <= 0 || math.IsInf(sensitivity, 0) || math.IsNaN(sensitivity) {
		return fmt.Errorf("%s: Sensitivity is %f, must be strictly positive and finite", label, sensitivity)
	}
	return nil
}

// CheckAlpha returns an error if the supplied alpha is not between 0 and 1.
func CheckAlpha(label string, alpha float64) error {
	if alpha <= 0 || alpha >= 1 || math.IsNaN(alpha) || math.IsInf(alpha, 0) {
		return fmt.Errorf("%s: Alpha is %f, must be within (0, 1) and finite", label, alpha)
	}
	return nil
}

// CheckStationID returns an error if id is empty.
func CheckStationID(label, id string) error {
	if id == "" {
		return fmt.Errorf("%s: station ID must not be empty", label)
	}
	return nil
}

// CheckCount returns an error if the count of station id is negative.
func CheckCount(label, id string, count int64) error {
	if count < 0 {
		return fmt.Errorf("%s: count of station %q is %d, must be nonnegative", label, id, count)
	}
	return nil
}
