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
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pattern(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = seed + byte(i)
	}
	return b
}

func TestRing_RoundTrip(t *testing.T) {
	t.Parallel()

	sizes := []int{0, 1, 200, 1359, 1360, 1599, DefaultSlotSize}
	for _, size := range sizes {
		r := New(4, DefaultSlotSize)
		data := pattern(size, byte(size))

		require.NoError(t, r.Put(data))
		got, ok := r.Peek()
		require.True(t, ok)
		assert.Equal(t, data, got, "size %d", size)
		r.Release()
		assert.Equal(t, 0, r.Len())
	}
}

func TestRing_PutTooLarge(t *testing.T) {
	t.Parallel()

	r := New(2, 16)
	err := r.Put(make([]byte, 17))
	require.ErrorIs(t, err, ErrPayloadTooLarge)
	assert.Equal(t, 0, r.Len())
}

func TestRing_FullDropsNewest(t *testing.T) {
	t.Parallel()

	r := New(3, 8)
	for i := range 3 {
		require.NoError(t, r.Put([]byte{byte(i)}))
	}

	err := r.Put([]byte{0xFF})
	require.ErrorIs(t, err, ErrRingFull)
	assert.Equal(t, 3, r.Len())

	// Existing slots are untouched and still come out in FIFO order.
	for i := range 3 {
		got, ok := r.Peek()
		require.True(t, ok)
		assert.Equal(t, []byte{byte(i)}, got)
		r.Release()
	}
	_, ok := r.Peek()
	assert.False(t, ok)
}

func TestRing_PeekDoesNotConsume(t *testing.T) {
	t.Parallel()

	r := New(2, 8)
	require.NoError(t, r.Put([]byte{1, 2}))

	first, ok := r.Peek()
	require.True(t, ok)
	second, ok := r.Peek()
	require.True(t, ok)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, r.Len())
}

func TestRing_WrapAround(t *testing.T) {
	t.Parallel()

	r := New(2, 8)
	for i := range 10 {
		require.NoError(t, r.Put([]byte{byte(i), byte(i)}))
		got, ok := r.Peek()
		require.True(t, ok)
		assert.Equal(t, []byte{byte(i), byte(i)}, got)
		r.Release()
	}
}

func TestRing_ResetAndStaleRelease(t *testing.T) {
	t.Parallel()

	r := New(4, 8)
	require.NoError(t, r.Put([]byte{1}))
	require.NoError(t, r.Put([]byte{2}))

	r.Reset()
	assert.Equal(t, 0, r.Len())

	// A Release issued by a reader that peeked before Reset must not underflow.
	r.Release()
	assert.Equal(t, 0, r.Len())

	require.NoError(t, r.Put([]byte{3}))
	got, ok := r.Peek()
	require.True(t, ok)
	assert.Equal(t, []byte{3}, got)
}

func TestRing_ConcurrentProducerConsumer(t *testing.T) {
	t.Parallel()

	const total = 2000
	r := New(16, 8)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; {
			if r.Put([]byte{byte(i), byte(i >> 8)}) == nil {
				i++
			}
		}
	}()

	for i := 0; i < total; {
		got, ok := r.Peek()
		if !ok {
			continue
		}
		want := []byte{byte(i), byte(i >> 8)}
		if !bytes.Equal(want, got) {
			t.Fatalf("slot %d: got %v want %v", i, got, want)
		}
		r.Release()
		i++
	}
	wg.Wait()
}

func TestRing_Pop(t *testing.T) {
	t.Parallel()
	r := New(2, 16)
	require.NoError(t, r.Put([]byte("abcdef")))
	require.NoError(t, r.Put([]byte("xy")))

	dst := make([]byte, 4)
	n, ok := r.Pop(dst)
	require.True(t, ok)
	assert.Equal(t, 4, n, "truncated to dst")
	assert.Equal(t, []byte("abcd"), dst)

	n, ok = r.Pop(dst)
	require.True(t, ok)
	assert.Equal(t, []byte("xy"), dst[:n])

	_, ok = r.Pop(dst)
	assert.False(t, ok)
	assert.Zero(t, r.Len())
}
