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
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/opsforge/filecat/pkg/flag"
	"github.com/opsforge/filecat/pkg/log"
	"github.com/opsforge/filecat/pkg/util/safego"
	"github.com/opsforge/filecat/pkg/web"
)

// main initializes and starts the filecatd agent.
func main() {
	flag.InitFlags()

	log.SetLevel(flag.ServerLogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	safego.InitPanicLogger(ctx)

	engine := web.NewRouter(flag.ServerAccessToken)

	addr := fmt.Sprintf(":%d", flag.ServerPort)
	server := &http.Server{
		Addr:    addr,
		Handler: engine,
	}

	safego.Go(func() {
		log.Info("filecatd listening on %s", addr)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start filecatd server: %v", err)
			stop()
		}
	})

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), flag.ApiGracefulShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shut down filecatd server: %v", err)
	}
}
