// Copyright 2025 The filecat Authors.
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

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the agent's resource usage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		metrics, err := newAgent().Metrics(context.Background())
		if err != nil {
			return err
		}

		fmt.Printf("cpu:    %.1f%% of %.0f cores\n", metrics.CpuUsedPct, metrics.CpuCount)
		fmt.Printf("memory: %.0f MiB of %.0f MiB\n", metrics.MemUsedMiB, metrics.MemTotalMiB)
		return nil
	},
}
