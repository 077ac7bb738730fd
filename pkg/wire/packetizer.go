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

import "fmt"

// Packetizer splits payloads into packets. It owns the packet sequence and
// frame ID counters and a reusable packet buffer, so it must be used from a
// single goroutine.
type Packetizer struct {
	buf          []byte
	fragmentSize int
	sequence     uint32
	frameID      uint32
}

// NewPacketizer returns a packetizer emitting fragments of at most
// fragmentSize bytes. Out-of-range sizes select MaxFragmentSize.
func NewPacketizer(fragmentSize int) *Packetizer {
	if fragmentSize <= 0 || fragmentSize > MaxFragmentSize {
		fragmentSize = MaxFragmentSize
	}
	return &Packetizer{
		buf:          make([]byte, HeaderSize+fragmentSize),
		fragmentSize: fragmentSize,
	}
}

// FragmentSize returns the configured fragment cap.
func (p *Packetizer) FragmentSize() int { return p.fragmentSize }

// Packetize allocates a frame ID for payload and calls emit once per
// fragment, in order. The packet passed to emit is only valid for the
// duration of the call. The first emit error stops the remaining fragments
// and is returned along with the number of packets emitted successfully.
func (p *Packetizer) Packetize(payload []byte, missing uint32, emit func(pkt []byte) error) (int, error) {
	count := FragmentCount(len(payload), p.fragmentSize)
	frameID := p.frameID
	p.frameID++

	sent := 0
	for idx := range count {
		off := idx * p.fragmentSize
		frag := payload[off:min(off+p.fragmentSize, len(payload))]
		n := copy(p.buf[HeaderSize:], frag)

		h := Header{
			Sequence:          p.sequence,
			TotalLength:       uint32(HeaderSize + n),
			PayloadLength:     uint32(n),
			FrameID:           frameID,
			FragmentOffset:    uint32(off),
			FragmentCount:     uint32(count),
			FragmentIndex:     uint32(idx),
			FramePayloadTotal: uint32(len(payload)),
			MissingFrames:     missing,
			Checksum:          Checksum(p.buf[HeaderSize : HeaderSize+n]),
		}
		p.sequence++
		if err := h.MarshalTo(p.buf); err != nil {
			return sent, err
		}
		if err := emit(p.buf[:HeaderSize+n]); err != nil {
			return sent, fmt.Errorf("fragment %d/%d of frame %d: %w", idx+1, count, frameID, err)
		}
		sent++
	}
	return sent, nil
}
