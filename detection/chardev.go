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
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// charDevDetector lists DMA character device nodes matching a glob.
type charDevDetector struct {
	pattern string
}

func (*charDevDetector) Engine() string { return "chardev" }

func (d *charDevDetector) Detect(_ context.Context, _ *Options) ([]DeviceInfo, error) {
	matches, err := filepath.Glob(d.pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", d.pattern, err)
	}
	var devices []DeviceInfo
	for _, path := range matches {
		fi, err := os.Stat(path)
		if err != nil || fi.Mode()&os.ModeCharDevice == 0 {
			continue
		}
		devices = append(devices, DeviceInfo{
			Engine: d.Engine(),
			Path:   path,
			Name:   filepath.Base(path),
		})
	}
	if len(devices) == 0 {
		return nil, ErrNoDevicesFound
	}
	return devices, nil
}
