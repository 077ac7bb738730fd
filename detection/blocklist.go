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

package detection

import (
	"path/filepath"
	"strings"
)

// DefaultBridges returns the USB serial bridges known to carry the frame
// stream at 3 Mbaud. Format: VID:PID in hexadecimal (case-insensitive).
func DefaultBridges() []string {
	return []string{
		"0403:6014", // FTDI FT232H
		"0403:6010", // FTDI FT2232H
		"10C4:EA60", // Silicon Labs CP210x
	}
}

// IsBlocked checks if a USB device is in list.
func IsBlocked(vidpid string, list []string) bool {
	vidpid = strings.ToUpper(strings.TrimSpace(vidpid))
	for _, entry := range list {
		if vidpid == strings.ToUpper(strings.TrimSpace(entry)) {
			return true
		}
	}
	return false
}

// IsPathIgnored checks if a device path should be ignored.
func IsPathIgnored(devicePath string, ignorePaths []string) bool {
	if devicePath == "" {
		return false
	}
	normalizedDevice := normalizedPath(devicePath)
	for _, ignorePath := range ignorePaths {
		if ignorePath != "" && normalizedDevice == normalizedPath(ignorePath) {
			return true
		}
	}
	return false
}

// normalizedPath normalizes a device path for comparison
func normalizedPath(path string) string {
	return strings.ToLower(filepath.Clean(path))
}
