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

package noise

import (
	"math"
	"testing"

	"github.com/google/differential-privacy/transit/rand"
	"github.com/grd/stat"
)

func TestGeometricStatistics(t *testing.T) {
	const numberOfSamples = 125000
	for _, tc := range []struct {
		sensitivity, epsilon float64
		mean                 int64
	}{
		{sensitivity: 1, epsilon: 0.1, mean: 5000},
		{sensitivity: 1, epsilon: 0.25, mean: 1000},
		{sensitivity: 2, epsilon: 0.5, mean: 1000},
	} {
		m := Geometric(rand.NewSeeded(uint64(1000 * tc.epsilon)))
		// A two-sided geometric distribution with parameter p = e^-λ has
		// variance 2p / (1-p)².
		p := math.Exp(-tc.epsilon / tc.sensitivity)
		variance := 2 * p / ((1 - p) * (1 - p))
		samples := make(stat.Float64Slice, numberOfSamples)
		for i := 0; i < numberOfSamples; i++ {
			v, err := m.Perturb(tc.mean, tc.sensitivity, tc.epsilon)
			if err != nil {
				t.Fatalf("Perturb: %v", err)
			}
			samples[i] = float64(v)
		}
		sampleMean, sampleVariance := stat.Mean(samples), stat.Variance(samples)
		meanErrorTolerance := 4.41717 * math.Sqrt(variance/float64(numberOfSamples))
		varianceErrorTolerance := 4.41717 * math.Sqrt(5.0) * variance / math.Sqrt(float64(numberOfSamples))
		if !nearEqual(sampleMean, float64(tc.mean), meanErrorTolerance) {
			t.Errorf("got mean = %f, want %d (parameters %+v)", sampleMean, tc.mean, tc)
		}
		if !nearEqual(sampleVariance, variance, varianceErrorTolerance) {
			t.Errorf("got variance = %f, want %f (parameters %+v)", sampleVariance, variance, tc)
		}
	}
}

func TestTwoSidedGeometricIsSymmetric(t *testing.T) {
	g := rand.New(rand.NewSeeded(17))
	const n = 100000
	var positive, negative, zero int
	for i := 0; i < n; i++ {
		switch s := twoSidedGeometric(g, ln3); {
		case s > 0:
			positive++
		case s < 0:
			negative++
		default:
			zero++
		}
	}
	// Pr[0] = (1-p)/(1+p) with p = 1/3.
	wantZero := 0.5 * n
	if !nearEqual(float64(zero), wantZero, 0.01*n) {
		t.Errorf("twoSidedGeometric: got %d zeros, want about %f", zero, wantZero)
	}
	if !nearEqual(float64(positive), float64(negative), 0.01*n) {
		t.Errorf("twoSidedGeometric: got %d positive and %d negative samples, want about equal", positive, negative)
	}
}

func TestBisectStaysInside(t *testing.T) {
	for _, tc := range []struct {
		left, right int64
		lambda      float64
	}{
		{0, math.MaxInt64, ln3},
		{0, 2, 0.5},
		{10, 13, 1e-9},
		{0, math.MaxInt64, 1e-12},
		{100, 1 << 40, 40},
	} {
		mid := bisect(tc.left, tc.right, tc.lambda)
		if mid <= tc.left || mid >= tc.right {
			t.Errorf("bisect(%d, %d, %g) = %d, want a point strictly inside", tc.left, tc.right, tc.lambda, mid)
		}
		if q := massUpTo(tc.left, mid, tc.right, tc.lambda); q <= 0 || q > 1 {
			t.Errorf("massUpTo(%d, %d, %d, %g) = %g, want a probability in (0, 1]", tc.left, mid, tc.right, tc.lambda, q)
		}
	}
}
