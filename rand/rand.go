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

// Package rand provides the random sources and sampling helpers used by the
// noise mechanisms.
//
// Every consumer receives a Source explicitly. NewCrypto is the default for
// production runs; NewSeeded gives a reproducible stream for tests and for
// replaying a run.
package rand

import (
	"bufio"
	cryptorand "crypto/rand"
	"encoding/binary"
	"io"
	"math"
	"math/bits"
	"sync"

	log "github.com/golang/glog"
	exprand "golang.org/x/exp/rand"
)

// Source is a source of uniformly distributed uint64 values. It is the source
// type accepted by gonum's distributions, so a single Source can feed both
// the gonum samplers and the helpers in this package.
type Source = exprand.Source

// NewSeeded returns a deterministic Source. Two Sources created with the same
// seed produce the same stream.
func NewSeeded(seed uint64) Source {
	return exprand.NewSource(seed)
}

// NewCrypto returns a Source backed by crypto/rand. Seed is a no-op on the
// returned Source.
func NewCrypto() Source {
	return &cryptoSource{buf: bufio.NewReaderSize(cryptorand.Reader, 65536)}
}

type cryptoSource struct {
	mu  sync.Mutex
	buf io.Reader
}

// Uint64 returns a uniformly random uint64.
func (s *cryptoSource) Uint64() uint64 {
	var r [8]uint8
	s.mu.Lock()
	_, err := io.ReadFull(s.buf, r[:])
	s.mu.Unlock()
	if err != nil {
		log.Fatalf("out of randomness, should never happen: %v", err)
	}
	return binary.LittleEndian.Uint64(r[:])
}

// Seed is a no-op.
func (s *cryptoSource) Seed(_ uint64) {}

// Generator draws the distributions needed by the discrete noise mechanisms
// from a Source.
//
// Not thread-safe.
type Generator struct {
	src    Source
	bitBuf uint8
	bitPos int8
}

// New returns a Generator reading from src. A nil src is replaced by
// NewCrypto().
func New(src Source) *Generator {
	if src == nil {
		src = NewCrypto()
	}
	return &Generator{src: src, bitPos: math.MaxInt8}
}

// U64 returns a uniformly random uint64.
func (g *Generator) U64() uint64 {
	return g.src.Uint64()
}

// U8 returns a uniformly random uint8.
func (g *Generator) U8() uint8 {
	return uint8(g.src.Uint64() >> 56)
}

// Sign returns +1.0 or -1.0 with equal probabilities.
func (g *Generator) Sign() float64 {
	if g.Boolean() {
		return 1.0
	}
	return -1.0
}

// Boolean returns true or false with equal probability.
func (g *Generator) Boolean() bool {
	if g.bitPos > 7 { // Out of random bits.
		g.bitBuf = g.U8()
		g.bitPos = 0
	}
	res := g.bitBuf&(1<<g.bitPos) > 0
	g.bitPos++
	return res
}

// Uniform returns a float64 from the interval (0,1] such that each float
// in the interval is returned with positive probability and the resulting
// distribution simulates a continuous uniform distribution on (0, 1].
func (g *Generator) Uniform() float64 {
	i := g.U64() % (1 << 53)
	r := (1 + float64(i)/(1<<53)) / math.Pow(2, g.Geometric())
	// We want to avoid returning 0, since callers take the log of the output.
	if r == 0 {
		return 1
	}
	return r
}

// Geometric returns a float64 that counts the number of Bernoulli trials until
// the first success for a success probability of 0.5.
func (g *Generator) Geometric() float64 {
	// 1 plus the number of leading zeros from an infinite stream of random bits
	// follows the desired geometric distribution.
	b := 1
	var r uint8
	for r == 0 {
		r = g.U8()
		b += bits.LeadingZeros8(r)
	}
	return float64(b)
}
