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

// Kind classifies a transfer after marker scanning.
type Kind int

const (
	// KindValid is a complete frame of the expected length.
	KindValid Kind = iota
	// KindLengthMismatch has both markers but the wrong span.
	KindLengthMismatch
	// KindHeaderOnly has a header and no footer; it may complete later.
	KindHeaderOnly
	// KindNoHeader has no header marker. A lone footer cannot anchor a frame.
	KindNoHeader
)

func (k Kind) String() string {
	switch k {
	case KindValid:
		return "valid"
	case KindLengthMismatch:
		return "length_mismatch"
	case KindHeaderOnly:
		return "header_only"
	case KindNoHeader:
		return "no_header"
	default:
		return "unknown"
	}
}

// Result describes one parsed transfer.
type Result struct {
	// Payload aliases the transfer bytes; copy it before the transfer is reused.
	Payload []byte
	Kind    Kind
	Header  int // word index of the first header, -1 if none
	Footer  int // word index of the last footer, -1 if none
	Counter uint32
}

// Scan returns the word index of the first header marker and of the last
// footer marker in data, or -1 for a marker that is absent. Trailing bytes
// that do not form a whole word are ignored.
func Scan(data []byte) (header, footer int) {
	header, footer = -1, -1
	n := len(data) / WordSize
	for i := range n {
		w := word(data, i)
		if header < 0 && IsHeader(w) {
			header = i
		}
		if w == FooterMarker {
			footer = i
		}
	}
	return header, footer
}

// Parse classifies data against the expected frame length and, for a valid
// frame, extracts the frame counter and the payload.
func Parse(data []byte, frameWords int) Result {
	header, footer := Scan(data)
	res := Result{Header: header, Footer: footer}

	switch {
	case header >= 0 && footer >= 0:
		if footer-header+1 != frameWords || frameWords < OverheadWords {
			res.Kind = KindLengthMismatch
			return res
		}
		res.Kind = KindValid
		res.Counter = word(data, footer-1)
		res.Payload = data[(header+1)*WordSize : (footer-1)*WordSize]
	case header >= 0:
		res.Kind = KindHeaderOnly
	default:
		res.Kind = KindNoHeader
	}
	return res
}

// ClosesPending reports whether a transfer could finish a frame whose header
// arrived in an earlier transfer: it carries a footer that is not preceded by
// a header of its own.
func (r Result) ClosesPending() bool {
	return r.Footer >= 0 && (r.Header < 0 || r.Footer < r.Header)
}
