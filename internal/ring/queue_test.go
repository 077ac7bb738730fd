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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFO(t *testing.T) {
	t.Parallel()

	q := NewQueue[int](4)
	for i := range 4 {
		require.True(t, q.TryPush(i))
	}
	assert.False(t, q.TryPush(99), "push on full queue must fail")
	assert.Equal(t, 4, q.Len())

	for i := range 4 {
		v, ok := q.TryPop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	_, ok := q.TryPop()
	assert.False(t, ok)
}

func TestQueue_WrapAround(t *testing.T) {
	t.Parallel()

	q := NewQueue[string](2)
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		require.True(t, q.TryPush(s))
		v, ok := q.TryPop()
		require.True(t, ok)
		assert.Equal(t, s, v)
	}
}

func TestQueue_Drain(t *testing.T) {
	t.Parallel()

	q := NewQueue[int](3)
	require.True(t, q.TryPush(1))
	require.True(t, q.TryPush(2))
	_, _ = q.TryPop()
	require.True(t, q.TryPush(3))
	require.True(t, q.TryPush(4))

	assert.Equal(t, []int{2, 3, 4}, q.Drain())
	assert.Equal(t, 0, q.Len())
	assert.Empty(t, q.Drain())

	require.True(t, q.TryPush(5))
	v, ok := q.TryPop()
	require.True(t, ok)
	assert.Equal(t, 5, v)
}

func TestQueue_DefaultCapacity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultQueueDepth, NewQueue[int](0).Cap())
}
