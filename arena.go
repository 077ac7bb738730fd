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

package antsdr

import "fmt"

// arena is a fixed set of equally sized transfer buffers carved from one
// allocation and addressed by index.
type arena struct {
	mem     []byte
	free    func([]byte) error
	bufSize int
	count   int
}

func newArena(count, bufSize int, lock bool) (*arena, error) {
	if count <= 0 || bufSize <= 0 {
		return nil, fmt.Errorf("%w: arena %d x %d", ErrInvalidConfig, count, bufSize)
	}
	mem, free, err := allocArena(count*bufSize, lock)
	if err != nil {
		return nil, fmt.Errorf("allocate transfer buffers: %w", err)
	}
	return &arena{mem: mem, free: free, bufSize: bufSize, count: count}, nil
}

// buffer returns buffer i, full capacity.
func (a *arena) buffer(i int) []byte {
	off := i * a.bufSize
	return a.mem[off : off+a.bufSize : off+a.bufSize]
}

func (a *arena) close() error {
	if a.mem == nil {
		return nil
	}
	mem := a.mem
	a.mem = nil
	if a.free == nil {
		return nil
	}
	return a.free(mem)
}
