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
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gin-gonic/gin"

	"github.com/opsforge/filecat/pkg/fileattr"
	"github.com/opsforge/filecat/pkg/web/model"
)

// FilesystemController handles file inspection and permission operations.
type FilesystemController struct {
	*basicController
}

func NewFilesystemController(ctx *gin.Context) *FilesystemController {
	return &FilesystemController{basicController: newBasicController(ctx)}
}

func (c *FilesystemController) handleFileError(err error) {
	if os.IsNotExist(err) {
		c.RespondError(
			http.StatusNotFound,
			model.ErrorCodeFileNotFound,
			fmt.Sprintf("file not found. %v", err),
		)
	} else {
		c.RespondError(
			http.StatusInternalServerError,
			model.ErrorCodeRuntimeError,
			fmt.Sprintf("error accessing file: %v", err),
		)
	}
}

// GetFilesInfo retrieves metadata for specified file paths
func (c *FilesystemController) GetFilesInfo() {
	paths := c.ctx.QueryArray("path")
	if len(paths) == 0 {
		c.RespondSuccess(make(map[string]model.FileInfo))
		return
	}
	follow := c.ctx.Query("follow") == "true"

	resp := make(map[string]model.FileInfo)
	for _, filePath := range paths {
		info, err := getFileInfo(filePath, follow)
		if err != nil {
			c.handleFileError(err)
			return
		}
		resp[filePath] = info
	}

	c.RespondSuccess(resp)
}

// ChmodFiles applies mode changes to the listed paths
func (c *FilesystemController) ChmodFiles() {
	var request []model.PermissionChange
	if err := c.bindJSON(&request); err != nil {
		c.RespondError(
			http.StatusBadRequest,
			model.ErrorCodeInvalidRequest,
			fmt.Sprintf("error parsing request, MAYBE invalid body format. %v", err),
		)
		return
	}

	for _, change := range request {
		if err := change.Validate(); err != nil {
			c.RespondError(
				http.StatusBadRequest,
				model.ErrorCodeInvalidRequest,
				fmt.Sprintf("invalid permission change. %v", err),
			)
			return
		}
		if _, err := fileattr.Apply(fileattr.Spec{Path: change.Path, Mode: change.Mode}, false); err != nil {
			if os.IsNotExist(err) {
				c.handleFileError(err)
				return
			}
			c.RespondError(
				http.StatusInternalServerError,
				model.ErrorCodeRuntimeError,
				fmt.Sprintf("error changing permissions for %s. %v", change.Path, err),
			)
			return
		}
	}

	c.RespondSuccess(nil)
}

// SearchFiles searches for files matching a pattern in a directory
func (c *FilesystemController) SearchFiles() {
	path := c.ctx.Query("path")
	if path == "" {
		c.RespondError(
			http.StatusBadRequest,
			model.ErrorCodeMissingQuery,
			"missing query parameter 'path'",
		)
		return
	}

	path, err := filepath.Abs(path)
	if err != nil {
		c.RespondError(
			http.StatusInternalServerError,
			model.ErrorCodeRuntimeError,
			fmt.Sprintf("error converting path %s to absolute. %v", path, err),
		)
		return
	}

	if _, err = os.Stat(path); err != nil {
		c.handleFileError(err)
		return
	}

	pattern := c.ctx.Query("pattern")
	if pattern == "" {
		pattern = "**"
	}

	files := make([]model.FileInfo, 0, 16)
	err = filepath.Walk(path, func(filePath string, info os.FileInfo, err error) error {
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error accessing path %s: %w", filePath, err)
		}
		if info.IsDir() {
			return nil
		}

		match, err := doublestar.Match(pattern, info.Name())
		if err != nil {
			return fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}

		if match {
			fileInfo, err := getFileInfo(filePath, false)
			if err != nil {
				return err
			}
			files = append(files, fileInfo)
		}

		return nil
	})

	if err != nil {
		c.RespondError(
			http.StatusInternalServerError,
			model.ErrorCodeRuntimeError,
			fmt.Sprintf("error searching files. %v", err),
		)
		return
	}

	c.RespondSuccess(files)
}

func getFileInfo(path string, follow bool) (model.FileInfo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return model.FileInfo{}, fmt.Errorf("invalid path %s: %w", path, err)
	}

	state, err := fileattr.Stat(abs, follow)
	if err != nil {
		return model.FileInfo{}, err
	}

	statFn := os.Lstat
	if follow {
		statFn = os.Stat
	}
	fi, err := statFn(abs)
	if err != nil {
		return model.FileInfo{}, err
	}

	return model.FileInfo{
		Path:       abs,
		ModifiedAt: fi.ModTime(),
		State:      state,
	}, nil
}
