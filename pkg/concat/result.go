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
	"encoding/json"

	"github.com/opsforge/filecat/pkg/fileattr"
)

// Result is the structured outcome of one append operation. Checksum always
// identifies the source content; DestChecksum is the destination's digest
// before the operation ran, when it was readable. The embedded state
// describes the destination after the operation.
type Result struct {
	Dest         string `json:"dest"`
	Src          string `json:"src"`
	Checksum     string `json:"checksum"`
	DestChecksum string `json:"dest_checksum,omitempty"`
	MD5Sum       string `json:"md5sum,omitempty"`
	Check        bool   `json:"check"`
	Changed      bool   `json:"changed"`
	BackupFile   string `json:"backup_file,omitempty"`

	fileattr.State
}

// AsMap renders the result the way task runners consume it, one flat
// key/value map.
func (r *Result) AsMap() (map[string]any, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// outcome carries what the decision procedure observed and did.
type outcome struct {
	changed    bool
	backupFile string
}

// buildResult assembles the reported result from the request, the digests
// gathered before mutation and a fresh stat of the destination.
func buildResult(req *Request, dest, srcSum, destSum, md5Sum string, out outcome) (*Result, error) {
	state, err := fileattr.Stat(dest, true)
	if err != nil {
		return nil, err
	}
	return &Result{
		Dest:         dest,
		Src:          req.Src,
		Checksum:     srcSum,
		DestChecksum: destSum,
		MD5Sum:       md5Sum,
		Check:        req.Check,
		Changed:      out.changed,
		BackupFile:   out.backupFile,
		State:        state,
	}, nil
}
