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

	"github.com/google/differential-privacy/transit/checks"
	"github.com/google/differential-privacy/transit/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

type laplace struct {
	src rand.Source
}

// Laplace returns a Mechanism that adds Laplace noise of scale
// sensitivity/ε, drawn from src. A nil src is replaced by rand.NewCrypto().
//
// Every call to Perturb draws a fresh sample, so perturbations of different
// stations are independent.
func Laplace(src rand.Source) Mechanism {
	if src == nil {
		src = rand.NewCrypto()
	}
	return laplace{src: src}
}

// Perturb adds one Laplace sample to trueValue, rounds to the nearest integer
// and clamps the result at 0.
func (l laplace) Perturb(trueValue int64, sensitivity, epsilon float64) (int64, error) {
	if err := checkArgs("Laplace.Perturb", sensitivity, epsilon); err != nil {
		return 0, err
	}
	sample := distuv.Laplace{Mu: 0, Scale: laplaceLambda(sensitivity, epsilon), Src: l.src}.Rand()
	return clampToCount(float64(trueValue) + sample), nil
}

func (laplace) String() string {
	return "Laplace Noise"
}

// laplaceLambda computes the scale parameter λ of the Laplace distribution
// required for ε-differential privacy at the given L_1 sensitivity.
func laplaceLambda(sensitivity, epsilon float64) float64 {
	return sensitivity / epsilon
}

// ConfidenceInterval holds lower and upper bounds as float64 for the
// confidence interval.
type ConfidenceInterval struct {
	LowerBound, UpperBound float64
}

// ComputeConfidenceInterval computes a confidence interval that contains the
// raw count from which noisedX was computed by the Laplace mechanism with
// probability at least 1 - alpha. The interval ignores clamping at 0 and any
// later rescaling of noisedX.
func ComputeConfidenceInterval(noisedX int64, sensitivity, epsilon, alpha float64) (ConfidenceInterval, error) {
	if err := checkArgs("ComputeConfidenceInterval", sensitivity, epsilon); err != nil {
		return ConfidenceInterval{}, err
	}
	if err := checks.CheckAlpha("ComputeConfidenceInterval", alpha); err != nil {
		return ConfidenceInterval{}, err
	}
	// Computing the interval around zero rather than noisedX represents the
	// bounds more accurately, since float64 resolution is finest near zero.
	z := math.Round(distuv.Laplace{Mu: 0, Scale: laplaceLambda(sensitivity, epsilon)}.Quantile(alpha / 2))
	// Because of the symmetry of the Laplace distribution, -z is the
	// (1 - alpha/2)-quantile.
	return ConfidenceInterval{
		LowerBound: float64(noisedX) + z,
		UpperBound: float64(noisedX) - z,
	}, nil
}
