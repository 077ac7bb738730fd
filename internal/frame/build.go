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

import "encoding/binary"

// Build encodes a complete frame of frameWords words carrying counter.
// payload is truncated or zero-padded to the frame's payload size.
func Build(frameWords int, counter uint32, payload []byte) []byte {
	if frameWords < OverheadWords {
		return nil
	}
	out := make([]byte, frameWords*WordSize)
	binary.LittleEndian.PutUint32(out, HeaderMarker)
	copy(out[WordSize:(frameWords-2)*WordSize], payload)
	binary.LittleEndian.PutUint32(out[(frameWords-2)*WordSize:], counter)
	binary.LittleEndian.PutUint32(out[(frameWords-1)*WordSize:], FooterMarker)
	return out
}

// PatternPayload returns a payload of size bytes whose words count upward
// from seed. Marker values are skipped so the payload never aliases framing.
func PatternPayload(size int, seed uint32) []byte {
	out := make([]byte, size)
	w := seed
	for off := 0; off+WordSize <= size; off += WordSize {
		for IsHeader(w) || w == FooterMarker {
			w++
		}
		binary.LittleEndian.PutUint32(out[off:], w)
		w++
	}
	return out
}
