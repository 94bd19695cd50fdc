// Copyright 2023 Eikon Go Authors

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package udf

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/stockparfait/logging"
)

// Classify inspects a decoded 200-status body and decides whether it is a
// well-formed payload or an error in disguise. Detection order, first match
// wins:
//
//  1. the body stringifies to a bracketed transport-error token, "<...>";
//  2. the body carries an "ErrorCode" and an "ErrorMessage" field;
//  3. the body carries an "error" and a "transactionId" field (the grid
//     error shape).
//
// A nil return means the payload is well formed. The input is never mutated.
func Classify(ctx context.Context, raw []byte) error {
	// An HTML or plain-text error page never parses as JSON; classify the
	// raw text directly.
	trimmed := strings.TrimSpace(string(raw))
	if isBracketed(trimmed) {
		return NewError(TransportError, 0, "%s", trimmed)
	}
	var body interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return NewError(StructuralViolation, 0,
			"response is not valid JSON: %s", err.Error())
	}
	return classifyValue(ctx, body)
}

// classifyValue classifies an already-decoded JSON value.
func classifyValue(ctx context.Context, body interface{}) error {
	switch v := body.(type) {
	case string:
		if isBracketed(strings.TrimSpace(v)) {
			return NewError(TransportError, 0, "%s", strings.TrimSpace(v))
		}
	case map[string]interface{}:
		if msg, ok := v["ErrorMessage"]; ok {
			if code, ok2 := v["ErrorCode"]; ok2 {
				return serviceError(ctx, code, stringify(msg))
			}
		}
		if msg, ok := v["error"]; ok {
			if _, ok2 := v["transactionId"]; ok2 {
				return NewError(ServiceError, 500, "%s", stringify(msg))
			}
		}
	}
	return nil
}

func isBracketed(s string) bool {
	return len(s) >= 2 && strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">")
}

func stringify(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	}
	bytes, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(bytes)
}

// serviceError builds a ServiceError from the "ErrorCode" / "ErrorMessage"
// pair. When the message embeds the comma-delimited
// status/reason/version/content/headers quintet, the numeric status is parsed
// out of the first part for diagnostics. The parse is best-effort and never
// blocks classification.
func serviceError(ctx context.Context, code interface{}, message string) *Error {
	numeric := numericCode(code)
	if parts := strings.Split(message, ","); len(parts) > 4 {
		if status, ok := statusOf(parts[0]); ok {
			logging.Debugf(ctx, "service error status %d: %s", status, message)
			numeric = status
		}
	}
	return NewError(ServiceError, numeric, "%s", message)
}

// statusOf extracts the numeric status from a "<label>:<status>" part.
func statusOf(part string) (int, bool) {
	halves := strings.SplitN(part, ":", 2)
	if len(halves) != 2 {
		return 0, false
	}
	status, err := strconv.Atoi(strings.TrimSpace(halves[1]))
	if err != nil {
		return 0, false
	}
	return status, true
}

func numericCode(code interface{}) int {
	switch c := code.(type) {
	case float64:
		return int(c)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(c)); err == nil {
			return n
		}
	}
	return 0
}
