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

// Package wire implements the UDP packet format used to stream extracted
// frame payloads: a fixed header of twelve big-endian 32-bit words followed
// by at most one fragment of payload.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
)

// Packet layout constants.
const (
	StartMarker     uint32 = 0xABCD1234
	EndMarker       uint32 = 0x5678DCBA
	HeaderSize             = 12 * 4
	MaxFragmentSize        = 1360
	MaxPacketSize          = HeaderSize + MaxFragmentSize

	// MaxFramePayload bounds frame_payload_total accepted from the network.
	MaxFramePayload = 1 << 20
)

// Common errors.
var (
	ErrShortPacket     = errors.New("wire: packet shorter than header")
	ErrBadMarker       = errors.New("wire: bad start or end marker")
	ErrLengthMismatch  = errors.New("wire: length fields disagree with packet")
	ErrChecksum        = errors.New("wire: fragment checksum mismatch")
	ErrBadFragment     = errors.New("wire: fragment index or offset out of range")
	ErrFragmentTooBig  = errors.New("wire: fragment exceeds maximum size")
	ErrInconsistentSet = errors.New("wire: fragment disagrees with earlier fragments of its frame")
)

// Header is the decoded packet header. Markers are implied.
type Header struct {
	Sequence          uint32
	TotalLength       uint32 // header plus fragment bytes
	PayloadLength     uint32 // fragment bytes
	FrameID           uint32
	FragmentOffset    uint32
	FragmentCount     uint32
	FragmentIndex     uint32
	FramePayloadTotal uint32
	MissingFrames     uint32
	Checksum          uint32
}

// Checksum returns the CRC32 (IEEE) of a fragment payload.
func Checksum(fragment []byte) uint32 {
	return crc32.ChecksumIEEE(fragment)
}

// MarshalTo writes the header into the first HeaderSize bytes of dst.
func (h *Header) MarshalTo(dst []byte) error {
	if len(dst) < HeaderSize {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortPacket, HeaderSize, len(dst))
	}
	be := binary.BigEndian
	be.PutUint32(dst[0:], StartMarker)
	be.PutUint32(dst[4:], h.Sequence)
	be.PutUint32(dst[8:], h.TotalLength)
	be.PutUint32(dst[12:], h.PayloadLength)
	be.PutUint32(dst[16:], h.FrameID)
	be.PutUint32(dst[20:], h.FragmentOffset)
	be.PutUint32(dst[24:], h.FragmentCount)
	be.PutUint32(dst[28:], h.FragmentIndex)
	be.PutUint32(dst[32:], h.FramePayloadTotal)
	be.PutUint32(dst[36:], h.MissingFrames)
	be.PutUint32(dst[40:], h.Checksum)
	be.PutUint32(dst[HeaderSize-4:], EndMarker)
	return nil
}

// Unmarshal decodes and validates a complete packet, returning the header
// and the fragment bytes (aliasing pkt).
func Unmarshal(pkt []byte) (Header, []byte, error) {
	var h Header
	if len(pkt) < HeaderSize {
		return h, nil, fmt.Errorf("%w: %d bytes", ErrShortPacket, len(pkt))
	}
	be := binary.BigEndian
	if be.Uint32(pkt[0:]) != StartMarker || be.Uint32(pkt[HeaderSize-4:]) != EndMarker {
		return h, nil, ErrBadMarker
	}
	h.Sequence = be.Uint32(pkt[4:])
	h.TotalLength = be.Uint32(pkt[8:])
	h.PayloadLength = be.Uint32(pkt[12:])
	h.FrameID = be.Uint32(pkt[16:])
	h.FragmentOffset = be.Uint32(pkt[20:])
	h.FragmentCount = be.Uint32(pkt[24:])
	h.FragmentIndex = be.Uint32(pkt[28:])
	h.FramePayloadTotal = be.Uint32(pkt[32:])
	h.MissingFrames = be.Uint32(pkt[36:])
	h.Checksum = be.Uint32(pkt[40:])

	if h.PayloadLength > MaxFragmentSize {
		return h, nil, fmt.Errorf("%w: %d bytes", ErrFragmentTooBig, h.PayloadLength)
	}
	if uint64(h.TotalLength) != uint64(len(pkt)) || uint64(h.PayloadLength)+HeaderSize != uint64(len(pkt)) {
		return h, nil, fmt.Errorf("%w: total=%d payload=%d packet=%d",
			ErrLengthMismatch, h.TotalLength, h.PayloadLength, len(pkt))
	}
	if h.FragmentCount == 0 || h.FragmentIndex >= h.FragmentCount ||
		h.FramePayloadTotal > MaxFramePayload || h.FragmentCount > h.FramePayloadTotal ||
		uint64(h.FragmentOffset)+uint64(h.PayloadLength) > uint64(h.FramePayloadTotal) {
		return h, nil, fmt.Errorf("%w: index %d of %d, offset %d+%d of %d", ErrBadFragment,
			h.FragmentIndex, h.FragmentCount, h.FragmentOffset, h.PayloadLength, h.FramePayloadTotal)
	}
	frag := pkt[HeaderSize:]
	if sum := Checksum(frag); sum != h.Checksum {
		return h, nil, fmt.Errorf("%w: got %08x, header says %08x", ErrChecksum, sum, h.Checksum)
	}
	return h, frag, nil
}

// FragmentCount returns how many fragments of at most size bytes a payload
// of n bytes needs. An empty payload needs none.
func FragmentCount(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}
