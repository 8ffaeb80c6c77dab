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

package controller

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/opsforge/filecat/pkg/flag"
	"github.com/opsforge/filecat/pkg/log"
	"github.com/opsforge/filecat/pkg/staging"
	"github.com/opsforge/filecat/pkg/web/model"
)

// StagingController manages the staging directories dispatched files land in.
type StagingController struct {
	*basicController
}

func NewStagingController(ctx *gin.Context) *StagingController {
	return &StagingController{basicController: newBasicController(ctx)}
}

// CreateStaging creates a fresh staging directory and returns its path
func (c *StagingController) CreateStaging() {
	dir, err := staging.Dir(flag.StagingRoot)
	if err != nil {
		c.RespondError(
			http.StatusInternalServerError,
			model.ErrorCodeRuntimeError,
			fmt.Sprintf("error creating staging directory. %v", err),
		)
		return
	}

	c.RespondSuccess(model.StagingDir{Path: dir})
}

// RemoveStaging deletes a staging directory and everything in it
func (c *StagingController) RemoveStaging() {
	dir := c.ctx.Query("path")
	if dir == "" {
		c.RespondError(
			http.StatusBadRequest,
			model.ErrorCodeMissingQuery,
			"missing query parameter 'path'",
		)
		return
	}

	if err := staging.Remove(flag.StagingRoot, dir); err != nil {
		if os.IsNotExist(err) {
			c.RespondError(
				http.StatusNotFound,
				model.ErrorCodeFileNotFound,
				fmt.Sprintf("staging directory not found. %v", err),
			)
			return
		}
		c.RespondError(
			http.StatusBadRequest,
			model.ErrorCodeInvalidRequest,
			fmt.Sprintf("error removing staging directory. %v", err),
		)
		return
	}

	c.RespondSuccess(nil)
}

// UploadStagedFiles uploads files with metadata into staging directories
func (c *StagingController) UploadStagedFiles() {
	form, err := c.ctx.MultipartForm()
	if err != nil || form == nil {
		c.RespondError(
			http.StatusBadRequest,
			model.ErrorCodeInvalidFile,
			"multipart form is empty",
		)
		return
	}

	metadataParts := form.File["metadata"]
	fileParts := form.File["file"]

	if len(metadataParts) == 0 {
		c.RespondError(
			http.StatusBadRequest,
			model.ErrorCodeInvalidFileMetadata,
			"metadata file is missing",
		)
		return
	}

	if len(fileParts) == 0 {
		c.RespondError(
			http.StatusBadRequest,
			model.ErrorCodeInvalidFileContent,
			"file is missing",
		)
		return
	}

	if len(metadataParts) != len(fileParts) {
		c.RespondError(
			http.StatusBadRequest,
			model.ErrorCodeInvalidFile,
			fmt.Sprintf("metadata and file count mismatch: %d vs %d", len(metadataParts), len(fileParts)),
		)
		return
	}

	staged := make([]model.StagedFile, 0, len(fileParts))
	for i := range metadataParts {
		meta, err := readUploadMetadata(metadataParts[i])
		if err != nil {
			c.RespondError(
				http.StatusBadRequest,
				model.ErrorCodeInvalidFileMetadata,
				err.Error(),
			)
			return
		}

		if err := staging.Validate(flag.StagingRoot, meta.Dir); err != nil {
			c.RespondError(
				http.StatusBadRequest,
				model.ErrorCodeInvalidFileMetadata,
				fmt.Sprintf("invalid staging directory %s. %v", meta.Dir, err),
			)
			return
		}

		fileHeader := fileParts[i]
		file, err := fileHeader.Open()
		if err != nil {
			c.RespondError(
				http.StatusInternalServerError,
				model.ErrorCodeRuntimeError,
				fmt.Sprintf("error opening file %s. %v", fileHeader.Filename, err),
			)
			return
		}

		targetPath := staging.Join(meta.Dir, fileHeader.Filename)
		dst, err := os.OpenFile(targetPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
		if err != nil {
			file.Close()
			c.RespondError(
				http.StatusInternalServerError,
				model.ErrorCodeRuntimeError,
				fmt.Sprintf("error opening destination file %s. %v", targetPath, err),
			)
			return
		}

		if _, err := io.Copy(dst, file); err != nil {
			dst.Close()
			file.Close()
			c.RespondError(
				http.StatusInternalServerError,
				model.ErrorCodeRuntimeError,
				fmt.Sprintf("error copying file %s. %v", targetPath, err),
			)
			return
		}

		if err := dst.Sync(); err != nil {
			log.Error("failed to sync staged file: %v", err)
		}
		if err := dst.Close(); err != nil {
			log.Error("failed to close staged file: %v", err)
		}
		file.Close()

		staged = append(staged, model.StagedFile{Path: targetPath})
	}

	c.RespondSuccess(staged)
}

func readUploadMetadata(header *multipart.FileHeader) (model.StagingUploadMetadata, error) {
	metadataFile, err := header.Open()
	if err != nil {
		return model.StagingUploadMetadata{}, fmt.Errorf("error opening metadata file. %v", err)
	}
	defer metadataFile.Close()

	metaBytes, err := io.ReadAll(metadataFile)
	if err != nil {
		return model.StagingUploadMetadata{}, fmt.Errorf("error reading metadata content. %v", err)
	}

	var meta model.StagingUploadMetadata
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return model.StagingUploadMetadata{}, fmt.Errorf("invalid metadata format. %v", err)
	}
	if err := meta.Validate(); err != nil {
		return model.StagingUploadMetadata{}, fmt.Errorf("invalid metadata. %v", err)
	}

	return meta, nil
}
