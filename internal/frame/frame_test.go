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
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(ws ...uint32) []byte {
	out := make([]byte, len(ws)*WordSize)
	for i, w := range ws {
		binary.LittleEndian.PutUint32(out[i*WordSize:], w)
	}
	return out
}

func zeros(n int) []byte { return make([]byte, n*WordSize) }

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestPayloadSize(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1600, PayloadSize(LongFrameWords))
	assert.Equal(t, 200, PayloadSize(ShortFrameWords))
	assert.Equal(t, LongPayload, PayloadSize(LongFrameWords))
	assert.Equal(t, 0, PayloadSize(2))
}

func TestScan(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		data       []byte
		wantHeader int
		wantFooter int
	}{
		{name: "empty", data: nil, wantHeader: -1, wantFooter: -1},
		{name: "no markers", data: zeros(8), wantHeader: -1, wantFooter: -1},
		{name: "header", data: words(0, HeaderMarker, 0), wantHeader: 1, wantFooter: -1},
		{name: "swapped header", data: words(HeaderMarkerSwapped), wantHeader: 0, wantFooter: -1},
		{
			name:       "first header last footer",
			data:       words(FooterMarker, HeaderMarker, HeaderMarker, FooterMarker, 0),
			wantHeader: 1,
			wantFooter: 3,
		},
		{name: "partial word ignored", data: []byte{0xFF, 0xFF, 0xFF}, wantHeader: -1, wantFooter: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h, f := Scan(tt.data)
			assert.Equal(t, tt.wantHeader, h)
			assert.Equal(t, tt.wantFooter, f)
		})
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	short := Build(ShortFrameWords, 42, PatternPayload(ShortPayload, 1))
	long := Build(LongFrameWords, 7, PatternPayload(LongPayload, 100))

	tests := []struct {
		name       string
		data       []byte
		frameWords int
		wantKind   Kind
		wantLen    int
		wantCount  uint32
	}{
		{name: "valid short", data: short, frameWords: ShortFrameWords, wantKind: KindValid, wantLen: 200, wantCount: 42},
		{name: "valid long", data: long, frameWords: LongFrameWords, wantKind: KindValid, wantLen: 1600, wantCount: 7},
		{name: "short frame in long mode", data: short, frameWords: LongFrameWords, wantKind: KindLengthMismatch},
		{name: "long frame in short mode", data: long, frameWords: ShortFrameWords, wantKind: KindLengthMismatch},
		{name: "header only", data: short[:len(short)-WordSize], frameWords: ShortFrameWords, wantKind: KindHeaderOnly},
		{name: "footer only", data: short[WordSize:], frameWords: ShortFrameWords, wantKind: KindNoHeader},
		{name: "neither", data: zeros(53), frameWords: ShortFrameWords, wantKind: KindNoHeader},
		{name: "offset frame", data: concat(zeros(3), short), frameWords: ShortFrameWords, wantKind: KindValid, wantLen: 200, wantCount: 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := Parse(tt.data, tt.frameWords)
			assert.Equal(t, tt.wantKind, res.Kind, res.Kind.String())
			assert.Len(t, res.Payload, tt.wantLen)
			assert.Equal(t, tt.wantCount, res.Counter)
		})
	}
}

func TestParse_PayloadContent(t *testing.T) {
	t.Parallel()
	payload := PatternPayload(ShortPayload, 9)
	res := Parse(Build(ShortFrameWords, 1, payload), ShortFrameWords)
	require.Equal(t, KindValid, res.Kind)
	assert.Equal(t, payload, res.Payload)
}

func TestResult_ClosesPending(t *testing.T) {
	t.Parallel()
	assert.True(t, Result{Header: -1, Footer: 4}.ClosesPending())
	assert.True(t, Result{Header: 9, Footer: 4}.ClosesPending())
	assert.False(t, Result{Header: 1, Footer: 4}.ClosesPending())
	assert.False(t, Result{Header: 1, Footer: -1}.ClosesPending())
}

func TestGapTracker(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name          string
		counters      []uint32
		wantMissing   uint64
		wantAnomalies uint64
	}{
		{name: "contiguous", counters: []uint32{5, 6, 7, 8}},
		{name: "first frame never a gap", counters: []uint32{1000}},
		{name: "single gap", counters: []uint32{10, 11, 14, 15}, wantMissing: 2},
		{name: "repeat", counters: []uint32{10, 10, 11}, wantAnomalies: 1},
		{name: "backwards keeps total", counters: []uint32{10, 20, 5, 6}, wantMissing: 9, wantAnomalies: 1},
		{name: "counter wrap is contiguous", counters: []uint32{0xFFFFFFFE, 0xFFFFFFFF, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var g GapTracker
			var prev uint64
			for _, c := range tt.counters {
				g.Observe(c)
				assert.GreaterOrEqual(t, g.Missing(), prev)
				prev = g.Missing()
			}
			assert.Equal(t, tt.wantMissing, g.Missing())
			assert.Equal(t, tt.wantAnomalies, g.Anomalies())
		})
	}
}

func TestGapTracker_Reset(t *testing.T) {
	t.Parallel()
	var g GapTracker
	g.Observe(1)
	missed, _ := g.Observe(5)
	assert.Equal(t, uint32(3), missed)

	g.Reset()
	_, seen := g.Last()
	assert.False(t, seen)
	missed, anomaly := g.Observe(2)
	assert.Zero(t, missed)
	assert.False(t, anomaly)
	assert.Zero(t, g.Missing())
}

func TestBuild(t *testing.T) {
	t.Parallel()
	f := Build(ShortFrameWords, 0xABCD, nil)
	require.Len(t, f, ShortFrameWords*WordSize)
	assert.Equal(t, uint32(HeaderMarker), word(f, 0))
	assert.Equal(t, uint32(0xABCD), word(f, ShortFrameWords-2))
	assert.Equal(t, uint32(FooterMarker), word(f, ShortFrameWords-1))
	assert.Nil(t, Build(2, 0, nil))
}

func TestPatternPayload_NoMarkers(t *testing.T) {
	t.Parallel()
	p := PatternPayload(64, FooterMarker-4)
	for i := range len(p) / WordSize {
		w := word(p, i)
		assert.False(t, IsHeader(w) || w == FooterMarker, "word %d is a marker", i)
	}
}
