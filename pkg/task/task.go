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

// Package task loads task files: YAML lists of append operations the CLI
// runs in order.
//
//	- name: keep the motd banner appended
//	  role: common
//	  concatfile:
//	    src: banner.txt
//	    dest: /etc/motd
//	    backup: yes
//
// Argument values stay untyped here; the operator's argument parsing owns
// coercion and rejection.
package task

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Task is one append operation in a task file.
type Task struct {
	Name string `yaml:"name,omitempty"`
	Role string `yaml:"role,omitempty"`

	Concat map[string]any `yaml:"concatfile"`
}

// Load reads a task file. Unknown fields are rejected so a typo in a task
// never silently drops an argument.
func Load(path string) ([]Task, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var tasks []Task
	if err := dec.Decode(&tasks); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for i, t := range tasks {
		if len(t.Concat) == 0 {
			return nil, fmt.Errorf("%s: task %d (%s) has no concatfile arguments", path, i+1, t.describe())
		}
	}
	return tasks, nil
}

func (t Task) describe() string {
	if t.Name != "" {
		return t.Name
	}
	return "unnamed"
}
