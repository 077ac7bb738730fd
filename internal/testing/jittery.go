// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package testing holds test doubles shared by the engine packages.
package testing

import (
	"io"
	"math/rand/v2"
	"sync"
	"time"
)

// JitterConfig configures the behavior of JitteryPort.
type JitterConfig struct {
	MaxLatency       time.Duration
	FragmentMinBytes int
	StallAfterBytes  int
	StallDuration    time.Duration
	Seed             uint64
	FragmentReads    bool
	// Split reads at 64-byte USB packet boundaries.
	USBBoundaryStress bool
}

// DefaultJitterConfig returns a sensible default configuration for testing.
func DefaultJitterConfig() JitterConfig {
	return JitterConfig{
		MaxLatency:        time.Millisecond,
		FragmentReads:     true,
		FragmentMinBytes:  1,
		USBBoundaryStress: true,
	}
}

// JitteryPort replays a byte stream the way a USB-UART bridge delivers it:
// late, in fragments, and with (0, nil) reads once the read timeout expires
// with nothing buffered. It satisfies the uart engine's Port interface.
type JitteryPort struct {
	backend io.Reader
	rng     *rand.Rand
	readBuf []byte
	config  JitterConfig
	timeout time.Duration
	read    int
	resets  int
	mu      sync.Mutex
	stalled bool
	closed  bool
}

// NewJitteryPort wraps backend with jitter simulation.
func NewJitteryPort(backend io.Reader, config JitterConfig) *JitteryPort {
	seed := config.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	if config.FragmentMinBytes < 1 {
		config.FragmentMinBytes = 1
	}
	return &JitteryPort{
		backend: backend,
		config:  config,
		rng:     rand.New(rand.NewPCG(seed, seed^0xDEADBEEF)), //nolint:gosec // test code
		timeout: 10 * time.Millisecond,
	}
}

// Read returns the next fragment of the stream.
func (j *JitteryPort) Read(buf []byte) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return 0, io.ErrClosedPipe
	}

	if j.config.MaxLatency > 0 {
		if delay := time.Duration(j.rng.Int64N(int64(j.config.MaxLatency) + 1)); delay > 0 {
			time.Sleep(delay)
		}
	}

	if len(j.readBuf) == 0 {
		tmp := make([]byte, 1024)
		n, err := j.backend.Read(tmp)
		if n == 0 {
			if err != nil && err != io.EOF {
				return 0, err //nolint:wrapcheck // pass-through
			}
			time.Sleep(j.timeout)
			return 0, nil
		}
		j.readBuf = append(j.readBuf, tmp[:n]...)
	}

	toReturn := min(len(j.readBuf), len(buf))

	if j.config.StallAfterBytes > 0 && !j.stalled {
		if j.read >= j.config.StallAfterBytes {
			j.stalled = true
			time.Sleep(j.config.StallDuration)
		} else {
			toReturn = min(toReturn, j.config.StallAfterBytes-j.read)
		}
	}

	if j.config.USBBoundaryStress {
		untilBoundary := 64 - j.read%64
		toReturn = min(toReturn, untilBoundary)
	}

	if j.config.FragmentReads && toReturn > j.config.FragmentMinBytes {
		toReturn = j.config.FragmentMinBytes + j.rng.IntN(toReturn-j.config.FragmentMinBytes+1)
	}

	copy(buf, j.readBuf[:toReturn])
	j.readBuf = j.readBuf[toReturn:]
	j.read += toReturn
	return toReturn, nil
}

// SetReadTimeout sets how long an empty read blocks.
func (j *JitteryPort) SetReadTimeout(t time.Duration) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.timeout = t
	return nil
}

// ResetInputBuffer drops buffered bytes not yet returned by Read.
func (j *JitteryPort) ResetInputBuffer() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.readBuf = j.readBuf[:0]
	j.resets++
	return nil
}

// Resets reports how many times ResetInputBuffer was called.
func (j *JitteryPort) Resets() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.resets
}

// Close makes later reads fail.
func (j *JitteryPort) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.closed = true
	return nil
}
