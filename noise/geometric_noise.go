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

	"github.com/google/differential-privacy/transit/rand"
)

type geometricMechanism struct {
	g *rand.Generator
}

// Geometric returns a Mechanism that adds two-sided geometric noise, the
// discrete analogue of Laplace noise, drawn from src. The probability of
// adding k is proportional to exp(-ε|k|/sensitivity). A nil src is replaced
// by rand.NewCrypto().
//
// Not thread-safe.
func Geometric(src rand.Source) Mechanism {
	return &geometricMechanism{g: rand.New(src)}
}

// Perturb adds one two-sided geometric sample to trueValue and clamps the
// result at 0.
func (m *geometricMechanism) Perturb(trueValue int64, sensitivity, epsilon float64) (int64, error) {
	if err := checkArgs("Geometric.Perturb", sensitivity, epsilon); err != nil {
		return 0, err
	}
	sample := twoSidedGeometric(m.g, epsilon/sensitivity)
	if sample > 0 && trueValue > math.MaxInt64-sample {
		return math.MaxInt64, nil
	}
	if v := trueValue + sample; v > 0 {
		return v, nil
	}
	return 0, nil
}

func (*geometricMechanism) String() string {
	return "Geometric Noise"
}

// geometric returns the number of Bernoulli trials, each succeeding with
// probability 1 - e^-λ, up to and including the first success. Samples above
// math.MaxInt64 are returned as math.MaxInt64, which happens with probability
// below 10⁻⁶ for λ > 2⁻⁵⁹.
//
// Instead of simulating trials one by one, it bisects (left, right] using
// one uniform draw from g per step, so the cost is logarithmic in the
// sample even for tiny λ.
func geometric(g *rand.Generator, lambda float64) int64 {
	if g.Uniform() > -math.Expm1(-lambda*math.MaxInt64) {
		return math.MaxInt64
	}
	left, right := int64(0), int64(math.MaxInt64)
	for left+1 < right {
		mid := bisect(left, right, lambda)
		if g.Uniform() <= massUpTo(left, mid, right, lambda) {
			right = mid
		} else {
			left = mid
		}
	}
	return right
}

// bisect returns the point of (left, right) that splits the geometric mass of
// (left, right] roughly in half, kept strictly inside the interval.
func bisect(left, right int64, lambda float64) int64 {
	mid := left - int64(math.Floor((math.Log(0.5)+math.Log1p(math.Exp(lambda*float64(left-right))))/lambda))
	return min(max(mid, left+1), right-1)
}

// massUpTo is Pr[X <= mid | left < X <= right] for a geometric X.
func massUpTo(left, mid, right int64, lambda float64) float64 {
	return math.Expm1(lambda*float64(left-mid)) / math.Expm1(lambda*float64(left-right))
}

// twoSidedGeometric returns a sample k with Pr[k] proportional to e^-λ|k|.
// The magnitude is a geometric sample minus one. A magnitude of 0 with a
// negative sign is redrawn, otherwise 0 would be drawn twice as often as it
// should.
func twoSidedGeometric(g *rand.Generator, lambda float64) int64 {
	for {
		magnitude := geometric(g, lambda) - 1
		sign := g.Sign()
		if sign > 0 || magnitude != 0 {
			return magnitude * int64(sign)
		}
	}
}
