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
	"strings"

	"go.bug.st/serial/enumerator"
)

func listSerialPorts() ([]*enumerator.PortDetails, error) {
	return enumerator.GetDetailedPortsList()
}

// uartDetector lists USB serial ports. Built-in UARTs are skipped.
type uartDetector struct {
	list func() ([]*enumerator.PortDetails, error)
}

func (*uartDetector) Engine() string { return "uart" }

func (d *uartDetector) Detect(ctx context.Context, _ *Options) ([]DeviceInfo, error) {
	ports, err := d.list()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var devices []DeviceInfo
	for _, p := range ports {
		if p == nil || !p.IsUSB {
			continue
		}
		meta := map[string]string{
			"vidpid": strings.ToUpper(p.VID + ":" + p.PID),
		}
		if p.SerialNumber != "" {
			meta["serial"] = p.SerialNumber
		}
		name := p.Product
		if name == "" {
			name = p.Name
		}
		devices = append(devices, DeviceInfo{
			Engine:   d.Engine(),
			Path:     p.Name,
			Name:     name,
			Metadata: meta,
		})
	}
	if len(devices) == 0 {
		return nil, ErrNoDevicesFound
	}
	return devices, nil
}
