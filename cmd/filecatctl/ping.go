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

var pingWait bool

func init() {
	pingCmd.Flags().BoolVar(&pingWait, "wait", false, "Poll until the agent is ready or the request timeout elapses")
	rootCmd.AddCommand(pingCmd)
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the configured agent is ready",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAgent()

		if pingWait {
			if err := client.WaitReady(context.Background(), cfg.RequestTimeout); err != nil {
				return err
			}
		} else if err := client.Ping(context.Background()); err != nil {
			return err
		}

		fmt.Printf("%s is ready\n", cfg.Endpoint)
		return nil
	},
}
