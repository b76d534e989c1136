//
// Copyright 2025 the innh-demo authors
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

// Package rand provides uniform random bit sources for the differentially
// private histogram mechanisms.
//
// Randomness is injected into the mechanisms as an explicit Source rather
// than consumed from a global, so that tests can swap in a seeded source
// and reproduce sampling decisions bit for bit. The secure source is backed
// by crypto/rand and is the one that should reach production code paths.
package rand

import (
	"bufio"
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/big"
	mathrand "math/rand"
	"sync"

	log "github.com/golang/glog"
	"github.com/cilvento/innh-demo/checks"
)

// Source produces uniform random words and bits. A Source must be used
// linearly: it is not safe for concurrent use, and concurrent histogram
// privatizations must each own an independent Source.
type Source interface {
	// Uint64 returns a uniformly random uint64.
	Uint64() uint64
	// Boolean returns true or false with equal probability, consuming one
	// bit of entropy.
	Boolean() bool
}

var (
	randBufLock sync.Mutex
	randBuf     io.Reader = bufio.NewReaderSize(cryptorand.Reader, 65536)

	secureOnce sync.Once
	secureSrc  *source
)

func readRandBuf(b []byte) (int, error) {
	randBufLock.Lock()
	defer randBufLock.Unlock()
	return io.ReadFull(randBuf, b)
}

// secureWords reads uniform words from the buffered crypto/rand reader.
func secureWords() uint64 {
	var r [8]uint8
	if _, err := readRandBuf(r[:]); err != nil {
		log.Fatalf("out of randomness, should never happen: %v", err)
	}
	return binary.LittleEndian.Uint64(r[:])
}

// source implements Source on top of a word generator, buffering unused
// bits so Boolean consumes entropy one bit at a time.
type source struct {
	words  func() uint64
	bitBuf uint64
	bitPos int
}

func (s *source) Uint64() uint64 {
	return s.words()
}

func (s *source) Boolean() bool {
	if s.bitPos == 0 { // Out of buffered bits.
		s.bitBuf = s.words()
		s.bitPos = 64
	}
	s.bitPos--
	return s.bitBuf&(1<<uint(s.bitPos)) > 0
}

// Secure returns the process-wide cryptographically secure Source. The
// underlying reader is buffered and safe to share, but the returned Source
// itself must still be used by one consumer at a time.
func Secure() Source {
	secureOnce.Do(func() {
		secureSrc = &source{words: secureWords}
	})
	return secureSrc
}

// NewSeeded returns a deterministic Source suitable for reproducible
// tests. It must never back a production privatization: its stream is
// fully predictable from the seed.
func NewSeeded(seed int64) Source {
	r := mathrand.New(mathrand.NewSource(seed))
	return &source{words: r.Uint64}
}

// Uint64n returns an integer from {0,...,n-1} uniformly at random. The
// value of n must be positive.
func Uint64n(s Source, n uint64) uint64 {
	largestMultipleOfN := (math.MaxUint64 / n) * n
	var r uint64
	for {
		r = s.Uint64()
		if r < largestMultipleOfN {
			break
		}
	}
	return r % n
}

// Int returns a uniformly random integer in [0, max) by drawing
// max.BitLen() raw bits per trial and rejecting draws that land at or
// above max. Each trial succeeds with probability at least 1/2, so the
// iteration cap is a formality; exceeding it fails with
// ErrSamplingDidNotConverge rather than looping forever.
func Int(s Source, max *big.Int, iterationCap int) (*big.Int, error) {
	if max.Sign() <= 0 {
		return nil, fmt.Errorf("rand.Int: max is %v, must be strictly positive", max)
	}
	if err := checks.CheckIterationCap("rand.Int", iterationCap); err != nil {
		return nil, err
	}
	bits := max.BitLen()
	nBytes := (bits + 7) / 8
	shift := uint(8*nBytes - bits)
	buf := make([]byte, nBytes)
	v := new(big.Int)
	for trial := 0; trial < iterationCap; trial++ {
		fillBytes(s, buf)
		buf[0] >>= shift // Truncate to exactly bits random bits.
		v.SetBytes(buf)
		if v.Cmp(max) < 0 {
			return v, nil
		}
	}
	return nil, fmt.Errorf("rand.Int: no draw below %v within %d trials: %w", max, iterationCap, checks.ErrSamplingDidNotConverge)
}

// fillBytes fills buf with uniform random bytes drawn from s.
func fillBytes(s Source, buf []byte) {
	i := len(buf)
	for i >= 8 {
		binary.LittleEndian.PutUint64(buf[i-8:i], s.Uint64())
		i -= 8
	}
	if i > 0 {
		w := s.Uint64()
		for j := 0; j < i; j++ {
			buf[j] = byte(w >> uint(8*j))
		}
	}
}
