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

package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payload(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i*7 + i>>8)
	}
	return out
}

func collect(t *testing.T, p *Packetizer, data []byte, missing uint32) [][]byte {
	t.Helper()
	var pkts [][]byte
	_, err := p.Packetize(data, missing, func(pkt []byte) error {
		pkts = append(pkts, bytes.Clone(pkt))
		return nil
	})
	require.NoError(t, err)
	return pkts
}

func TestHeaderSize(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 48, HeaderSize)
	assert.Equal(t, 1408, MaxPacketSize)
}

func TestFragmentCount(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		n    int
		size int
		want int
	}{
		{name: "empty", n: 0, size: 1360, want: 0},
		{name: "one byte", n: 1, size: 1360, want: 1},
		{name: "exact", n: 1360, size: 1360, want: 1},
		{name: "one over", n: 1361, size: 1360, want: 2},
		{name: "long frame payload", n: 1600, size: 1360, want: 2},
		{name: "short frame payload", n: 200, size: 1360, want: 1},
		{name: "4000 bytes", n: 4000, size: 1360, want: 3},
		{name: "zero size", n: 10, size: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FragmentCount(tt.n, tt.size))
		})
	}
}

func TestPacketize_4000Bytes(t *testing.T) {
	t.Parallel()

	data := payload(4000)
	pkts := collect(t, NewPacketizer(MaxFragmentSize), data, 12)
	require.Len(t, pkts, 3)

	var joined []byte
	for i, pkt := range pkts {
		h, frag, err := Unmarshal(pkt)
		require.NoError(t, err)
		assert.Equal(t, uint32(3), h.FragmentCount)
		assert.Equal(t, uint32(i), h.FragmentIndex)
		assert.Equal(t, uint32(4000), h.FramePayloadTotal)
		assert.Equal(t, uint32(i*MaxFragmentSize), h.FragmentOffset)
		assert.Equal(t, uint32(0), h.FrameID)
		assert.Equal(t, uint32(i), h.Sequence)
		assert.Equal(t, uint32(12), h.MissingFrames)
		assert.Equal(t, uint32(len(pkt)), h.TotalLength)
		joined = append(joined, frag...)
	}
	assert.Equal(t, data, joined)

	_, last, err := Unmarshal(pkts[2])
	require.NoError(t, err)
	assert.Len(t, last, 4000-2*MaxFragmentSize)
}

func TestPacketize_FragmentProperty(t *testing.T) {
	t.Parallel()
	for _, size := range []int{1, 100, 1000, 1360} {
		for _, n := range []int{1, 99, 1359, 1600, 2721, 5000} {
			data := payload(n)
			pkts := collect(t, NewPacketizer(size), data, 0)
			require.Len(t, pkts, FragmentCount(n, size), "n=%d size=%d", n, size)

			var joined []byte
			for i, pkt := range pkts {
				h, frag, err := Unmarshal(pkt)
				require.NoError(t, err)
				assert.Equal(t, uint32(i*size), h.FragmentOffset)
				joined = append(joined, frag...)
			}
			assert.Equal(t, data, joined, "n=%d size=%d", n, size)
		}
	}
}

func TestPacketize_Counters(t *testing.T) {
	t.Parallel()
	p := NewPacketizer(0)
	assert.Equal(t, MaxFragmentSize, p.FragmentSize())

	first := collect(t, p, payload(1600), 0)
	second := collect(t, p, payload(200), 0)
	require.Len(t, first, 2)
	require.Len(t, second, 1)

	h, _, err := Unmarshal(second[0])
	require.NoError(t, err)
	assert.Equal(t, uint32(1), h.FrameID)
	assert.Equal(t, uint32(2), h.Sequence)
}

func TestPacketize_EmitErrorStops(t *testing.T) {
	t.Parallel()
	errSend := errors.New("send failed")
	p := NewPacketizer(MaxFragmentSize)

	calls := 0
	sent, err := p.Packetize(payload(4000), 0, func([]byte) error {
		calls++
		if calls == 2 {
			return errSend
		}
		return nil
	})
	require.ErrorIs(t, err, errSend)
	assert.Equal(t, 1, sent)
	assert.Equal(t, 2, calls)
}

func TestUnmarshal_Errors(t *testing.T) {
	t.Parallel()

	good := collect(t, NewPacketizer(0), payload(100), 0)[0]
	mutate := func(f func(pkt []byte)) []byte {
		pkt := bytes.Clone(good)
		f(pkt)
		return pkt
	}

	tests := []struct {
		wantErr error
		name    string
		pkt     []byte
	}{
		{name: "short", pkt: good[:HeaderSize-1], wantErr: ErrShortPacket},
		{name: "start marker", pkt: mutate(func(b []byte) { b[0] = 0 }), wantErr: ErrBadMarker},
		{name: "end marker", pkt: mutate(func(b []byte) { b[HeaderSize-1] = 0 }), wantErr: ErrBadMarker},
		{name: "truncated payload", pkt: good[:len(good)-1], wantErr: ErrLengthMismatch},
		{name: "corrupt payload", pkt: mutate(func(b []byte) { b[HeaderSize] ^= 0xFF }), wantErr: ErrChecksum},
		{
			name:    "index out of range",
			pkt:     mutate(func(b []byte) { binary.BigEndian.PutUint32(b[28:], 5) }),
			wantErr: ErrBadFragment,
		},
		{
			name:    "oversized fragment",
			pkt:     mutate(func(b []byte) { binary.BigEndian.PutUint32(b[12:], MaxFragmentSize+1) }),
			wantErr: ErrFragmentTooBig,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := Unmarshal(tt.pkt)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestChecksum_IEEE(t *testing.T) {
	t.Parallel()
	assert.Equal(t, uint32(0xCBF43926), Checksum([]byte("123456789")))
}
