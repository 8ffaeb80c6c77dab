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
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/opsforge/filecat/pkg/concat"
	"github.com/opsforge/filecat/pkg/log"
	"github.com/opsforge/filecat/pkg/util/safego"
	"github.com/opsforge/filecat/pkg/web/model"
)

// OperationController executes file operations on behalf of the dispatcher.
type OperationController struct {
	*basicController
}

func NewOperationController(ctx *gin.Context) *OperationController {
	return &OperationController{basicController: newBasicController(ctx)}
}

// RunConcat appends a staged source file to a destination file.
//
// The body is the raw argument map as the dispatcher sends it, so alias
// handling and unknown-key rejection behave exactly like local runs.
func (c *OperationController) RunConcat() {
	var args map[string]any
	if err := c.bindJSON(&args); err != nil {
		c.RespondError(
			http.StatusBadRequest,
			model.ErrorCodeInvalidRequest,
			fmt.Sprintf("error parsing request, MAYBE invalid body format. %v", err),
		)
		return
	}

	req, err := concat.ParseArgs(args)
	if err != nil {
		c.RespondError(
			http.StatusBadRequest,
			model.ErrorCodeInvalidRequest,
			err.Error(),
		)
		return
	}

	result, err := concat.Run(req)

	event := model.OperationEvent{
		Op:        "concat",
		Dest:      req.Dest,
		Src:       req.Src,
		Timestamp: time.Now().UnixMilli(),
	}
	if err != nil {
		event.Failed = true
		event.Error = err.Error()
	} else {
		event.Changed = result.Changed
	}
	operationHub.Publish(event)

	if err != nil {
		c.respondConcatError(err)
		return
	}

	c.RespondSuccess(result)
}

func (c *OperationController) respondConcatError(err error) {
	var validationErr *concat.ValidationError
	var preconditionErr *concat.PreconditionError
	var appendErr *concat.AppendError

	switch {
	case errors.As(err, &validationErr):
		c.RespondError(http.StatusBadRequest, model.ErrorCodeInvalidRequest, err.Error())
	case errors.As(err, &preconditionErr):
		c.RespondError(http.StatusBadRequest, model.ErrorCodePreconditionFailed, err.Error())
	case errors.As(err, &appendErr):
		c.RespondError(http.StatusInternalServerError, model.ErrorCodeAppendFailed, err.Error())
	default:
		c.RespondError(http.StatusInternalServerError, model.ErrorCodeRuntimeError, err.Error())
	}
}

var watchUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WatchOperations streams operation events over a websocket until the peer
// disconnects.
func (c *OperationController) WatchOperations() {
	conn, err := watchUpgrader.Upgrade(c.ctx.Writer, c.ctx.Request, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error to the client.
		log.Warn("Failed to upgrade operation watch connection: %v", err)
		return
	}
	defer conn.Close()

	events := operationHub.Subscribe()
	defer operationHub.Unsubscribe(events)

	stop := make(chan struct{})
	safego.Go(func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				close(stop)
				return
			}
		}
	})

	ping := time.NewTicker(15 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-stop:
			return
		case event := <-events:
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
