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

package testing

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, p *JitteryPort, want int) ([]byte, []int) {
	t.Helper()
	var out []byte
	var sizes []int
	buf := make([]byte, 512)
	deadline := time.Now().Add(2 * time.Second)
	for len(out) < want {
		require.True(t, time.Now().Before(deadline), "stream stalled")
		n, err := p.Read(buf)
		require.NoError(t, err)
		if n > 0 {
			out = append(out, buf[:n]...)
			sizes = append(sizes, n)
		}
	}
	return out, sizes
}

func TestJitteryPort_PreservesStream(t *testing.T) {
	t.Parallel()
	data := make([]byte, 3000)
	for i := range data {
		data[i] = byte(i * 7)
	}
	p := NewJitteryPort(bytes.NewReader(data), JitterConfig{
		FragmentReads:    true,
		FragmentMinBytes: 1,
		Seed:             42,
	})

	out, sizes := drain(t, p, len(data))
	assert.Equal(t, data, out)
	assert.Greater(t, len(sizes), 3, "reads should be fragmented")
}

func TestJitteryPort_USBBoundaries(t *testing.T) {
	t.Parallel()
	p := NewJitteryPort(bytes.NewReader(make([]byte, 300)), JitterConfig{USBBoundaryStress: true, Seed: 1})

	_, sizes := drain(t, p, 300)
	for _, n := range sizes {
		assert.LessOrEqual(t, n, 64)
	}
	assert.Equal(t, 64, sizes[0])
}

func TestJitteryPort_Stall(t *testing.T) {
	t.Parallel()
	p := NewJitteryPort(bytes.NewReader(make([]byte, 200)), JitterConfig{
		StallAfterBytes: 100,
		StallDuration:   20 * time.Millisecond,
		Seed:            1,
	})

	_, sizes := drain(t, p, 100)
	assert.Equal(t, []int{100}, sizes)

	start := time.Now()
	_, _ = drain(t, p, 100)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestJitteryPort_EmptyReadTimesOut(t *testing.T) {
	t.Parallel()
	p := NewJitteryPort(bytes.NewReader(nil), JitterConfig{})
	require.NoError(t, p.SetReadTimeout(5*time.Millisecond))

	start := time.Now()
	n, err := p.Read(make([]byte, 8))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

func TestJitteryPort_ResetAndClose(t *testing.T) {
	t.Parallel()
	p := NewJitteryPort(bytes.NewReader(make([]byte, 100)), JitterConfig{FragmentReads: true, FragmentMinBytes: 10, Seed: 3})

	n, err := p.Read(make([]byte, 10))
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	require.NoError(t, p.ResetInputBuffer())
	assert.Equal(t, 1, p.Resets())

	n, err = p.Read(make([]byte, 10))
	require.NoError(t, err)
	assert.Zero(t, n, "buffered bytes are discarded and the backend is empty")

	require.NoError(t, p.Close())
	_, err = p.Read(make([]byte, 10))
	require.ErrorIs(t, err, io.ErrClosedPipe)
}
