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
	"sync"

	"github.com/opsforge/filecat/pkg/web/model"
)

// operationHub fans out operation events to websocket watchers.
var operationHub = newEventHub()

type eventHub struct {
	mu   sync.Mutex
	subs map[chan model.OperationEvent]struct{}
}

func newEventHub() *eventHub {
	return &eventHub{subs: make(map[chan model.OperationEvent]struct{})}
}

func (h *eventHub) Subscribe() chan model.OperationEvent {
	ch := make(chan model.OperationEvent, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *eventHub) Unsubscribe(ch chan model.OperationEvent) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// Publish never blocks; a watcher that cannot keep up loses events.
func (h *eventHub) Publish(event model.OperationEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
}
