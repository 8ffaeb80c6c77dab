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

package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opsforge/filecat/pkg/log"
	"github.com/opsforge/filecat/pkg/web/controller"
	"github.com/opsforge/filecat/pkg/web/model"
)

// NewRouter builds a Gin engine with all filecatd routes.
func NewRouter(accessToken string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logMiddleware(), accessTokenMiddleware(accessToken))

	r.GET("/ping", controller.PingHandler)

	staging := r.Group("/staging")
	{
		staging.POST("", withStaging(func(c *controller.StagingController) { c.CreateStaging() }))
		staging.DELETE("", withStaging(func(c *controller.StagingController) { c.RemoveStaging() }))
		staging.POST("/files", withStaging(func(c *controller.StagingController) { c.UploadStagedFiles() }))
	}

	operations := r.Group("/operations")
	{
		operations.POST("/concat", withOperation(func(c *controller.OperationController) { c.RunConcat() }))
		operations.GET("/watch", withOperation(func(c *controller.OperationController) { c.WatchOperations() }))
	}

	files := r.Group("/files")
	{
		files.GET("/info", withFilesystem(func(c *controller.FilesystemController) { c.GetFilesInfo() }))
		files.POST("/permissions", withFilesystem(func(c *controller.FilesystemController) { c.ChmodFiles() }))
		files.GET("/search", withFilesystem(func(c *controller.FilesystemController) { c.SearchFiles() }))
		files.GET("/download", withFilesystem(func(c *controller.FilesystemController) { c.DownloadFile() }))
	}

	metric := r.Group("/metrics")
	{
		metric.GET("", withMetric(func(c *controller.MetricController) { c.GetMetrics() }))
		metric.GET("/watch", withMetric(func(c *controller.MetricController) { c.WatchMetrics() }))
	}

	return r
}

func withStaging(fn func(*controller.StagingController)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		fn(controller.NewStagingController(ctx))
	}
}

func withOperation(fn func(*controller.OperationController)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		fn(controller.NewOperationController(ctx))
	}
}

func withFilesystem(fn func(*controller.FilesystemController)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		fn(controller.NewFilesystemController(ctx))
	}
}

func withMetric(fn func(*controller.MetricController)) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		fn(controller.NewMetricController(ctx))
	}
}

func accessTokenMiddleware(token string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if token == "" {
			ctx.Next()
			return
		}

		requestedToken := ctx.GetHeader(model.ApiAccessTokenHeader)
		if requestedToken == "" || requestedToken != token {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, map[string]any{
				"error": "Unauthorized: invalid or missing header " + model.ApiAccessTokenHeader,
			})
			return
		}

		ctx.Next()
	}
}

func logMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		log.Info("Requested: %v - %v", ctx.Request.Method, ctx.Request.URL.String())
		ctx.Next()
	}
}
