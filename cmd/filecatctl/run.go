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
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/opsforge/filecat/pkg/dispatch"
	"github.com/opsforge/filecat/pkg/task"
)

var (
	checkMode bool
	localMode bool
)

func init() {
	runCmd.Flags().BoolVar(&checkMode, "check", false, "Report what would change without writing anything")
	runCmd.Flags().BoolVar(&localMode, "local", false, "Run against the local filesystem instead of an agent")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run <taskfile>",
	Short: "Run the append tasks in a YAML task file",
	Long: `run loads a YAML task file and dispatches each task in order. Every
task prints one JSON result line; a failed task does not stop the ones
after it, but the command exits non-zero when any task failed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tasks, err := task.Load(args[0])
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			return fmt.Errorf("%s contains no tasks", args[0])
		}

		var transport dispatch.Transport
		if localMode {
			transport = &dispatch.LocalTransport{}
		} else {
			transport = newAgent()
		}
		dispatcher := dispatch.New(transport)

		failed := 0
		for _, t := range tasks {
			result, err := dispatcher.Dispatch(context.Background(), dispatch.Options{
				Args:       t.Concat,
				CheckMode:  checkMode,
				Become:     cfg.Become,
				BecomeUser: cfg.BecomeUser,
				RoleDir:    roleDir(t.Role),
				BaseDir:    cfg.BaseDir,
			})

			line := make(map[string]any, len(result)+3)
			if t.Name != "" {
				line["name"] = t.Name
			}
			for k, v := range result {
				line[k] = v
			}
			if err != nil {
				failed++
				line["failed"] = true
				line["msg"] = err.Error()
			}
			printResult(line)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d tasks failed", failed, len(tasks))
		}
		return nil
	},
}

// roleDir resolves a task's role directory against the base directory.
func roleDir(role string) string {
	if role == "" || filepath.IsAbs(role) {
		return role
	}
	return filepath.Join(cfg.BaseDir, role)
}

func printResult(result map[string]any) {
	line, _ := json.Marshal(result) //nolint:errchkjson
	fmt.Println(string(line))
}
