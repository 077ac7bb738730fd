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

// Package frame implements the FPGA framing protocol carried inside DMA
// transfers: marker scanning, frame validation, payload extraction, frame
// counter gap tracking and the accumulation fallback for frames that span
// transfers.
//
// Transfers are sequences of 32-bit little-endian words. A frame is
//
//	header | payload words ... | frame counter | footer
//
// and is valid only when it spans exactly the word count of the active mode.
package frame

import "encoding/binary"

// Frame markers as seen by the host.
const (
	HeaderMarker        = 0xFFFFFFFE
	HeaderMarkerSwapped = 0xFEFFFFFF // same marker, byte-swapped by the bridge
	FooterMarker        = 0xFFFFFFFF
)

// Frame geometry.
const (
	WordSize        = 4
	ShortFrameWords = 53
	LongFrameWords  = 403
	OverheadWords   = 3 // header, frame counter, footer
	ShortPayload    = (ShortFrameWords - OverheadWords) * WordSize
	LongPayload     = (LongFrameWords - OverheadWords) * WordSize
)

// Transfer and accumulation limits.
const (
	MaxTransferWords = 512
	MaxTransferSize  = MaxTransferWords * WordSize

	AccumulatorSize       = 64 * 1024
	AccumulateTransfers   = 3
	MisalignedSearchWords = 10
)

// PayloadSize returns the payload length in bytes of a valid frame of
// frameWords words.
func PayloadSize(frameWords int) int {
	if frameWords < OverheadWords {
		return 0
	}
	return (frameWords - OverheadWords) * WordSize
}

// IsHeader reports whether w is either encoding of the header marker.
func IsHeader(w uint32) bool {
	return w == HeaderMarker || w == HeaderMarkerSwapped
}

func word(data []byte, i int) uint32 {
	return binary.LittleEndian.Uint32(data[i*WordSize:])
}
