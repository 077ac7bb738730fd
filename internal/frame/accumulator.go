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

package frame

import (
	"errors"
	"fmt"

	"github.com/ZaparooProject/go-antsdr/internal/syncutil"
)

// ErrAccumulatorOverflow is returned when a transfer does not fit in the
// remaining accumulation space. The buffer has been reset.
var ErrAccumulatorOverflow = errors.New("accumulation buffer overflow")

// Extracted is a frame recovered from accumulated data. Payload is owned by
// the caller.
type Extracted struct {
	Payload []byte
	Counter uint32
	Offset  int // word offset of the header within the accumulated data
}

// Misaligned is a header whose footer was found away from the expected
// position.
type Misaligned struct {
	Header int
	Footer int // -1 when no footer was found in the search window
}

// Extraction is the outcome of one accumulator scan.
type Extraction struct {
	Frames     []Extracted
	Misaligned []Misaligned
	Scanned    int // bytes scanned, all of which are discarded afterwards
}

// Accumulator collects partial-frame transfers so frames spanning transfer
// boundaries can be recovered. It has its own lock and is safe for
// concurrent use.
type Accumulator struct {
	buf       []byte
	used      int
	transfers int
	mu        syncutil.Mutex
}

// NewAccumulator returns an accumulator with size bytes of storage. A
// non-positive size selects AccumulatorSize.
func NewAccumulator(size int) *Accumulator {
	if size <= 0 {
		size = AccumulatorSize
	}
	return &Accumulator{buf: make([]byte, size)}
}

// Add appends data and reports whether enough has been collected to scan:
// AccumulateTransfers transfers or half the capacity. On overflow the buffer
// is reset, data is dropped and ErrAccumulatorOverflow is returned.
func (a *Accumulator) Add(data []byte) (ready bool, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.used+len(data) > len(a.buf) {
		used := a.used
		a.reset()
		return false, fmt.Errorf("%w: %d buffered + %d new > %d",
			ErrAccumulatorOverflow, used, len(data), len(a.buf))
	}
	copy(a.buf[a.used:], data)
	a.used += len(data)
	a.transfers++
	return a.transfers >= AccumulateTransfers || a.used >= len(a.buf)/2, nil
}

// Pending reports whether any data is waiting for a scan.
func (a *Accumulator) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.used > 0
}

// Len returns the number of buffered bytes.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.used
}

// Reset discards all buffered data.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reset()
}

func (a *Accumulator) reset() {
	a.used = 0
	a.transfers = 0
}

// Extract scans the buffered words for complete frames of frameWords words
// and then resets the buffer unconditionally. Partial frames at the tail are
// lost. Payloads are copied out so the caller may use them after the lock is
// released.
func (a *Accumulator) Extract(frameWords int) Extraction {
	a.mu.Lock()
	defer a.mu.Unlock()
	defer a.reset()

	res := Extraction{Scanned: a.used}
	if frameWords < OverheadWords || a.used < 2*WordSize {
		return res
	}

	data := a.buf[:a.used]
	n := a.used / WordSize
	payloadSize := PayloadSize(frameWords)

	for i := 0; i < n-1; i++ {
		if !IsHeader(word(data, i)) {
			continue
		}
		end := i + frameWords - 1
		if end >= n {
			continue
		}
		if word(data, end) == FooterMarker {
			payload := make([]byte, payloadSize)
			copy(payload, data[(i+1)*WordSize:(end-1)*WordSize])
			res.Frames = append(res.Frames, Extracted{
				Payload: payload,
				Counter: word(data, end-1),
				Offset:  i,
			})
			i = end
			continue
		}

		m := Misaligned{Header: i, Footer: -1}
		limit := min(i+frameWords+MisalignedSearchWords, n)
		for j := i + 1; j < limit; j++ {
			if word(data, j) == FooterMarker {
				m.Footer = j
				break
			}
		}
		res.Misaligned = append(res.Misaligned, m)
	}
	return res
}
