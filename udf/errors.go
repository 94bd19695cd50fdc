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
	"fmt"
)

// Kind classifies a failed call against the proxy.
type Kind int

const (
	// TransportUnreachable - connection to the proxy could not be established.
	TransportUnreachable Kind = iota
	// AuthenticationFailure - the proxy rejected the application id (HTTP 401).
	AuthenticationFailure
	// TransportError - any other non-success transport outcome.
	TransportError
	// ServiceError - the proxy accepted the request but reported a processing
	// error.
	ServiceError
	// StructuralViolation - the response does not match the expected shape;
	// indicates a version mismatch with the proxy.
	StructuralViolation
	// AllInstrumentsFailed - every requested instrument failed.
	AllInstrumentsFailed
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case TransportUnreachable:
		return "transport unreachable"
	case AuthenticationFailure:
		return "authentication failure"
	case TransportError:
		return "transport error"
	case ServiceError:
		return "service error"
	case StructuralViolation:
		return "structural violation"
	case AllInstrumentsFailed:
		return "all instruments failed"
	}
	return fmt.Sprintf("unknown kind %d", int(k))
}

// Error is the error type for all fatal call outcomes. Code is the numeric
// status extracted from the transport or service diagnostics, when known.
type Error struct {
	Kind    Kind
	Code    int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: error code %d | %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError creates an Error of the given kind.
func NewError(kind Kind, code int, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the error Kind from err. The second value is false when err
// is not an *Error.
func KindOf(err error) (Kind, bool) {
	e, ok := err.(*Error)
	if !ok {
		return 0, false
	}
	return e.Kind, true
}
