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

//go:build linux

package antsdr

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// allocArena maps anonymous memory so the buffers sit outside the Go heap and
// can be pinned with mlock. A failed mlock is logged and ignored; it usually
// means RLIMIT_MEMLOCK is too low.
func allocArena(size int, lock bool) ([]byte, func([]byte) error, error) {
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, nil, fmt.Errorf("mmap %d bytes: %w", size, err)
	}

	locked := false
	if lock {
		if err := unix.Mlock(mem); err != nil {
			Logger().Warn().Err(err).Int("bytes", size).Msg("could not lock transfer buffers in memory")
		} else {
			locked = true
		}
	}

	free := func(b []byte) error {
		if locked {
			_ = unix.Munlock(b)
		}
		if err := unix.Munmap(b); err != nil {
			return fmt.Errorf("munmap: %w", err)
		}
		return nil
	}
	return mem, free, nil
}
