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

package model

import "github.com/go-playground/validator/v10"

// StagingDir names a staging directory on the target host.
type StagingDir struct {
	Path string `json:"path"`
}

// StagedFile names a file placed inside a staging directory.
type StagedFile struct {
	Path string `json:"path"`
}

// StagingUploadMetadata accompanies each uploaded file part and names the
// staging directory the file lands in.
type StagingUploadMetadata struct {
	Dir string `json:"dir" validate:"required"`
}

func (m *StagingUploadMetadata) Validate() error {
	validate := validator.New()
	return validate.Struct(m)
}

// PermissionChange requests a mode change on one path. Mode accepts octal
// and symbolic expressions.
type PermissionChange struct {
	Path string `json:"path" validate:"required"`
	Mode string `json:"mode" validate:"required"`
}

func (p *PermissionChange) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}
