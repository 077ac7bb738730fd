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

import "testing"

// Run with: go test -fuzz=FuzzParse -fuzztime=30s ./internal/frame/

func FuzzParse(f *testing.F) {
	f.Add(Build(ShortFrameWords, 1, nil), ShortFrameWords)
	f.Add(Build(LongFrameWords, 1, nil), LongFrameWords)
	f.Add([]byte{}, ShortFrameWords)
	f.Add([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFE, 0xFF, 0xFF, 0xFF}, 2)
	f.Add(words(FooterMarker, HeaderMarker), ShortFrameWords)

	f.Fuzz(func(t *testing.T, data []byte, frameWords int) {
		res := Parse(data, frameWords)
		if res.Kind == KindValid && len(res.Payload) != PayloadSize(frameWords) {
			t.Fatalf("payload length %d for %d-word frame", len(res.Payload), frameWords)
		}
	})
}

func FuzzAccumulatorExtract(f *testing.F) {
	f.Add(Build(ShortFrameWords, 1, nil), ShortFrameWords)
	f.Add(words(HeaderMarker, FooterMarker, FooterMarker), 3)
	f.Add([]byte{0xFE}, 0)

	f.Fuzz(func(t *testing.T, data []byte, frameWords int) {
		if frameWords > 1024 {
			frameWords %= 1024
		}
		acc := NewAccumulator(4096)
		if _, err := acc.Add(data); err != nil {
			return
		}
		for _, fr := range acc.Extract(frameWords).Frames {
			if len(fr.Payload) != PayloadSize(frameWords) {
				t.Fatalf("payload length %d for %d-word frame", len(fr.Payload), frameWords)
			}
		}
	})
}
