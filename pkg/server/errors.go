// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/EnSpec/SpecDAL/pkg/serializer"

	sderrors "github.com/EnSpec/SpecDAL/pkg/errors"
)

// ErrorResponse is the body of every failed API request.
type ErrorResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestId"`
	Timestamp time.Time      `json:"timestamp"`
	Retryable bool           `json:"retryable"`
}

// WriteError writes an error response.
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int,
	code sderrors.ErrorCode, message string, retryable bool, details map[string]any) {

	requestID, _ := r.Context().Value(contextKeyRequestID).(string)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	serializer.RespondJSON(w, statusCode, ErrorResponse{
		Code:      string(code),
		Message:   message,
		Details:   details,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Retryable: retryable,
	})
}

// WriteErrorFromErr maps err to an error response. Structured errors keep
// their code, message and context; anything else becomes an internal error
// with fallbackMessage. The cause, when present, is reported as details.error.
func WriteErrorFromErr(w http.ResponseWriter, r *http.Request, err error, fallbackMessage string, extra map[string]any) {
	var se *sderrors.StructuredError
	if !errors.As(err, &se) {
		WriteError(w, r, http.StatusInternalServerError, sderrors.ErrCodeInternal, fallbackMessage,
			retryableFromCode(sderrors.ErrCodeInternal), mergeDetails(extra, map[string]any{"error": err.Error()}))
		return
	}

	details := mergeDetails(se.Context, extra)
	if se.Cause != nil {
		details = mergeDetails(details, map[string]any{"error": se.Cause.Error()})
	}
	WriteError(w, r, HTTPStatusFromCode(se.Code), se.Code, se.Message, retryableFromCode(se.Code), details)
}

// HTTPStatusFromCode returns the HTTP status for an error code.
func HTTPStatusFromCode(code sderrors.ErrorCode) int {
	switch code {
	case sderrors.ErrCodeInvalidRequest, sderrors.ErrCodeDuplicateName, sderrors.ErrCodeInvalidReference:
		return http.StatusBadRequest
	case sderrors.ErrCodeNotFound:
		return http.StatusNotFound
	case sderrors.ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case sderrors.ErrCodeUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case sderrors.ErrCodeCorruptFile, sderrors.ErrCodeMalformedRecord, sderrors.ErrCodeMissingColumns,
		sderrors.ErrCodeMissingPairedFile, sderrors.ErrCodeUnstitchableOverlap,
		sderrors.ErrCodeEmptyBase, sderrors.ErrCodeEmptyRover, sderrors.ErrCodeTypeMismatch:
		return http.StatusUnprocessableEntity
	case sderrors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case sderrors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	case sderrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func retryableFromCode(code sderrors.ErrorCode) bool {
	switch code {
	case sderrors.ErrCodeTimeout, sderrors.ErrCodeUnavailable, sderrors.ErrCodeRateLimitExceeded,
		sderrors.ErrCodeInternal:
		return true
	default:
		return false
	}
}

// mergeDetails returns the union of a and b, b winning on shared keys, or
// nil when both are empty.
func mergeDetails(a, b map[string]any) map[string]any {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
