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

// Package ring provides the bounded, drop-on-full buffers that sit between
// the stages of the streaming pipeline: a fixed-slot payload ring and a
// generic FIFO queue. Neither ever blocks the producer.
package ring

import (
	"errors"
	"fmt"

	"github.com/ZaparooProject/go-antsdr/internal/syncutil"
)

// Ring sizing used by the pipeline.
const (
	DefaultSlots    = 256
	DefaultSlotSize = 1600 // largest payload: 400 words
)

var (
	// ErrRingFull is returned by Put when every slot holds unread data.
	ErrRingFull = errors.New("ring full")
	// ErrPayloadTooLarge is returned by Put when data does not fit in a slot.
	ErrPayloadTooLarge = errors.New("payload exceeds ring slot size")
)

// Ring is a fixed number of fixed-size slots. Slots are allocated once; Put
// copies into the slot at head and consumers read the slot at tail in two
// phases (Peek, then Release) so the producer never writes a slot that is
// still being read.
type Ring struct {
	slots    [][]byte
	lens     []int
	head     int
	tail     int
	count    int
	slotSize int
	mu       syncutil.Mutex
}

// New allocates a ring of n slots of slotSize bytes each.
func New(n, slotSize int) *Ring {
	if n <= 0 {
		n = DefaultSlots
	}
	if slotSize <= 0 {
		slotSize = DefaultSlotSize
	}
	backing := make([]byte, n*slotSize)
	slots := make([][]byte, n)
	for i := range slots {
		slots[i] = backing[i*slotSize : (i+1)*slotSize : (i+1)*slotSize]
	}
	return &Ring{
		slots:    slots,
		lens:     make([]int, n),
		slotSize: slotSize,
	}
}

// Put copies data into the next free slot. A full ring rejects the new data
// and leaves every unread slot intact.
func (r *Ring) Put(data []byte) error {
	if len(data) > r.slotSize {
		return fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(data), r.slotSize)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count >= len(r.slots) {
		return ErrRingFull
	}
	copy(r.slots[r.head], data)
	r.lens[r.head] = len(data)
	r.head = (r.head + 1) % len(r.slots)
	r.count++
	return nil
}

// Peek returns the oldest unread slot without consuming it. The returned
// slice aliases ring memory and is valid until Release.
func (r *Ring) Peek() ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == 0 {
		return nil, false
	}
	return r.slots[r.tail][:r.lens[r.tail]], true
}

// Release consumes the slot last returned by Peek. Calling it on an empty
// ring is a no-op, which keeps a Release that races with Reset harmless.
func (r *Ring) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == 0 {
		return
	}
	r.lens[r.tail] = 0
	r.tail = (r.tail + 1) % len(r.slots)
	r.count--
}

// Pop copies the oldest payload into dst and releases its slot under one
// lock hold, so a concurrent Reset cannot hand the slot back to the producer
// mid-copy. It returns the number of bytes copied, truncating to len(dst).
func (r *Ring) Pop(dst []byte) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == 0 {
		return 0, false
	}
	n := copy(dst, r.slots[r.tail][:r.lens[r.tail]])
	r.lens[r.tail] = 0
	r.tail = (r.tail + 1) % len(r.slots)
	r.count--
	return n, true
}

// Reset drops all unread slots. Slot memory is kept.
func (r *Ring) Reset() {
	r.mu.Lock()
	r.head = 0
	r.tail = 0
	r.count = 0
	r.mu.Unlock()
}

// Len returns the number of unread slots.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Cap returns the number of slots.
func (r *Ring) Cap() int { return len(r.slots) }

// SlotSize returns the size of a single slot in bytes.
func (r *Ring) SlotSize() int { return r.slotSize }
