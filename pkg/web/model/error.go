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

// ApiAccessTokenHeader authenticates API requests when the server runs with
// an access token.
const ApiAccessTokenHeader = "X-Filecat-Access-Token"

// ErrorCode classifies API failures for clients.
type ErrorCode string

const (
	ErrorCodeInvalidRequest      ErrorCode = "invalid_request"
	ErrorCodePreconditionFailed  ErrorCode = "precondition_failed"
	ErrorCodeAppendFailed        ErrorCode = "append_failed"
	ErrorCodeFileNotFound        ErrorCode = "file_not_found"
	ErrorCodeMissingQuery        ErrorCode = "missing_query"
	ErrorCodeInvalidFile         ErrorCode = "invalid_file"
	ErrorCodeInvalidFileMetadata ErrorCode = "invalid_file_metadata"
	ErrorCodeInvalidFileContent  ErrorCode = "invalid_file_content"
	ErrorCodeRuntimeError        ErrorCode = "runtime_error"
	ErrorCodeUnknown             ErrorCode = "unknown"
)

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message,omitempty"`
}
