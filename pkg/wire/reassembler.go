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

// DefaultWindow is how many frame IDs behind the newest an incomplete frame
// may fall before it is abandoned.
const DefaultWindow = 64

// Frame is a reassembled payload.
type Frame struct {
	Payload       []byte
	ID            uint32
	MissingFrames uint32
}

// ReassemblerStats counts what the reassembler has seen.
type ReassemblerStats struct {
	Packets      uint64
	Frames       uint64
	Incomplete   uint64 // frames abandoned with fragments missing
	Malformed    uint64
	LostPackets  uint64 // inferred from sequence number gaps
	Duplicates   uint64
	LastMissing  uint32 // sender's missing_frame_count from the newest packet
	PendingCount int
}

type partial struct {
	payload   []byte
	got       []bool
	count     uint32
	remaining uint32
}

// Reassembler rebuilds payloads from packets that may arrive out of order.
// It is not safe for concurrent use.
type Reassembler struct {
	pending map[uint32]*partial
	stats   ReassemblerStats
	window  uint32
	lastSeq uint32
	newest  uint32
	seqSeen bool
}

// NewReassembler returns a reassembler tracking at most window frames behind
// the newest frame ID. A non-positive window selects DefaultWindow.
func NewReassembler(window int) *Reassembler {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Reassembler{
		pending: make(map[uint32]*partial),
		window:  uint32(window),
	}
}

// Add consumes one packet. It returns the completed frame when pkt supplies
// its last missing fragment, nil otherwise.
func (r *Reassembler) Add(pkt []byte) (*Frame, error) {
	h, frag, err := Unmarshal(pkt)
	if err != nil {
		r.stats.Malformed++
		return nil, err
	}
	r.stats.Packets++
	r.stats.LastMissing = h.MissingFrames
	r.trackSequence(h.Sequence)

	if int32(h.FrameID-r.newest) > 0 || len(r.pending) == 0 {
		r.newest = h.FrameID
		r.expire()
	} else if r.newest-h.FrameID > r.window {
		r.stats.Incomplete++
		return nil, nil
	}

	p, ok := r.pending[h.FrameID]
	if !ok {
		p = &partial{
			payload:   make([]byte, h.FramePayloadTotal),
			got:       make([]bool, h.FragmentCount),
			count:     h.FragmentCount,
			remaining: h.FragmentCount,
		}
		r.pending[h.FrameID] = p
	}
	if p.count != h.FragmentCount || uint32(len(p.payload)) != h.FramePayloadTotal {
		r.stats.Malformed++
		return nil, fmt.Errorf("%w: frame %d", ErrInconsistentSet, h.FrameID)
	}
	if p.got[h.FragmentIndex] {
		r.stats.Duplicates++
		return nil, nil
	}
	copy(p.payload[h.FragmentOffset:], frag)
	p.got[h.FragmentIndex] = true
	p.remaining--
	if p.remaining > 0 {
		return nil, nil
	}

	delete(r.pending, h.FrameID)
	r.stats.Frames++
	return &Frame{Payload: p.payload, ID: h.FrameID, MissingFrames: h.MissingFrames}, nil
}

// Stats returns a copy of the counters.
func (r *Reassembler) Stats() ReassemblerStats {
	s := r.stats
	s.PendingCount = len(r.pending)
	return s
}

func (r *Reassembler) trackSequence(seq uint32) {
	if r.seqSeen {
		if d := int32(seq - r.lastSeq); d > 1 {
			r.stats.LostPackets += uint64(d - 1)
		} else if d <= 0 {
			return
		}
	}
	r.seqSeen = true
	r.lastSeq = seq
}

func (r *Reassembler) expire() {
	for id := range r.pending {
		if r.newest-id > r.window {
			delete(r.pending, id)
			r.stats.Incomplete++
		}
	}
}
