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
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(backupsCmd)
}

var backupsCmd = &cobra.Command{
	Use:   "backups <dest>",
	Short: "List backup copies of a destination file on the target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dest := args[0]

		pattern := filepath.Base(dest) + ".*~"
		matches, err := newAgent().SearchFiles(context.Background(), filepath.Dir(dest), pattern)
		if err != nil {
			return err
		}

		if len(matches) == 0 {
			fmt.Printf("no backups of %s\n", dest)
			return nil
		}
		for _, info := range matches {
			fmt.Printf("%s\t%d\t%s\n", info.Path, info.Size, info.ModifiedAt.Format(time.RFC3339))
		}
		return nil
	},
}
