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

package concat

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/opsforge/filecat/pkg/fileattr"
)

// Request is the explicit argument set of one append operation. Force is a
// pointer so an absent value can default to true; task argument maps may
// spell it with the legacy alias "thirsty".
type Request struct {
	Src    string `json:"src"              mapstructure:"src"    validate:"required"`
	Dest   string `json:"dest"             mapstructure:"dest"   validate:"required"`
	Backup bool   `json:"backup,omitempty" mapstructure:"backup"`
	Force  *bool  `json:"force,omitempty"  mapstructure:"force"`
	Check  bool   `json:"check,omitempty"  mapstructure:"check"`
	Owner  string `json:"owner,omitempty"  mapstructure:"owner"`
	Group  string `json:"group,omitempty"  mapstructure:"group"`
	Mode   string `json:"mode,omitempty"   mapstructure:"mode"`
	Follow bool   `json:"follow,omitempty" mapstructure:"follow"`
}

// Forced reports the effective force flag.
func (r *Request) Forced() bool {
	return r.Force == nil || *r.Force
}

var requestValidator = validator.New()

// Validate checks the request for completeness and syntax. It returns
// *ValidationError so callers can branch on the taxonomy.
func (r *Request) Validate() error {
	if err := requestValidator.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return &ValidationError{Msg: strings.ToLower(fieldErrs[0].Field()) + " is required"}
		}
		return &ValidationError{Msg: err.Error()}
	}
	if r.Mode != "" {
		if _, err := fileattr.ParseMode(r.Mode, 0); err != nil {
			return &ValidationError{Msg: err.Error()}
		}
	}
	return nil
}

// ParseArgs decodes a loose task-argument map into a Request. Unknown keys
// are rejected so argument typos surface instead of silently dropping
// options. Boolean values may arrive as playbook-style strings ("yes",
// "no", "on", "off").
func ParseArgs(args map[string]any) (*Request, error) {
	cleaned := make(map[string]any, len(args))
	for k, v := range args {
		cleaned[k] = v
	}
	if v, ok := cleaned["thirsty"]; ok {
		if _, clash := cleaned["force"]; clash {
			return nil, &ValidationError{Msg: "force and thirsty are mutually exclusive"}
		}
		delete(cleaned, "thirsty")
		cleaned["force"] = v
	}

	req := &Request{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      req,
		ErrorUnused: true,
		DecodeHook:  truthyStringHook,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(cleaned); err != nil {
		return nil, &ValidationError{Msg: fmt.Sprintf("invalid arguments: %v", err)}
	}
	return req, nil
}

// truthyStringHook converts playbook-style booleans while decoding.
func truthyStringHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Bool {
		return data, nil
	}
	return parseTruthy(data.(string))
}

func parseTruthy(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "t", "on", "1":
		return true, nil
	case "no", "n", "false", "f", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}
