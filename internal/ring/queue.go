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

package ring

import (
	"errors"

	"github.com/ZaparooProject/go-antsdr/internal/syncutil"
)

// DefaultQueueDepth is the raw transfer queue depth used by the pipeline.
const DefaultQueueDepth = 256

// ErrQueueFull reports a rejected TryPush. Queue itself returns a bool; the
// sentinel is for callers that surface the drop as an error.
var ErrQueueFull = errors.New("queue full")

// Queue is a bounded FIFO safe for many producers and one consumer. Items
// leave in arrival order.
type Queue[T any] struct {
	items []T
	head  int
	count int
	mu    syncutil.Mutex
}

// NewQueue returns an empty queue holding at most capacity items.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		capacity = DefaultQueueDepth
	}
	return &Queue[T]{items: make([]T, capacity)}
}

// TryPush appends v unless the queue is full. It never blocks.
func (q *Queue[T]) TryPush(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == len(q.items) {
		return false
	}
	q.items[(q.head+q.count)%len(q.items)] = v
	q.count++
	return true
}

// TryPop removes the oldest item. ok is false when the queue is empty.
func (q *Queue[T]) TryPop() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return v, false
	}
	var zero T
	v = q.items[q.head]
	q.items[q.head] = zero
	q.head = (q.head + 1) % len(q.items)
	q.count--
	return v, true
}

// Drain empties the queue and returns what it held, oldest first, so the
// caller can release the items.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]T, 0, q.count)
	var zero T
	for q.count > 0 {
		out = append(out, q.items[q.head])
		q.items[q.head] = zero
		q.head = (q.head + 1) % len(q.items)
		q.count--
	}
	q.head = 0
	return out
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int { return len(q.items) }
