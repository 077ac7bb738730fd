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

package main

import (
	"context"
	"fmt"
	"os"
	"syscall"

	antsdr "github.com/ZaparooProject/go-antsdr"
	"github.com/ZaparooProject/go-antsdr/engine/chardev"
)

// SIGUSR1 logs a status line and resets the statistics.
var resetSignals = []os.Signal{syscall.SIGUSR1}

func openCharDev(ctx context.Context, device string) (antsdr.Engine, error) {
	cc := chardev.DefaultConfig()
	cc.Path = device
	e, err := chardev.Open(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to open DMA device: %w", err)
	}
	return e, nil
}
