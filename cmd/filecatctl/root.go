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
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/opsforge/filecat/pkg/agent"
	"github.com/opsforge/filecat/pkg/config"
)

var (
	cfgFile  string
	endpoint string
	token    string

	// cfg is populated before any subcommand runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "filecatctl",
	Short: "Run append tasks against a filecatd agent",
	Long: `filecatctl is the controller half of filecat. It stages source files
onto a filecatd agent, runs append operations there and prints each
task's result as a JSON line.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if endpoint != "" {
			loaded.Endpoint = endpoint
		}
		if token != "" {
			loaded.AccessToken = token
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default searches ., ~/.config/filecat, /etc/filecat)")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "Agent base URL, overrides the configured endpoint")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Agent access token, overrides the configured token")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newAgent() *agent.Client {
	return agent.NewClient(cfg.Endpoint,
		agent.WithToken(cfg.AccessToken),
		agent.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
	)
}
