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
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"
)

// entity is the inner envelope naming the endpoint ("E") and carrying its
// payload ("W").
type entity struct {
	E string      `json:"E"`
	W interface{} `json:"W"`
}

// envelope is the wire format of every request to the proxy.
type envelope struct {
	Entity entity `json:"Entity"`
	ID     string `json:"ID"`
}

// requestID is a fixed correlation id; the proxy echoes it back but attaches
// no meaning to it.
const requestID = "123"

// SendJSONRequest posts the payload to the proxy endpoint named by
// entityName, classifies the response, and unmarshals a well-formed body
// into result (which may be nil when the caller only cares about the
// classification). All fatal outcomes are returned as *Error values carrying
// the taxonomy Kind; none of them are retried here.
func SendJSONRequest(ctx context.Context, entityName string, payload, result interface{}) error {
	client := GetClient(ctx)
	if client == nil {
		return errors.Reason("SendJSONRequest: no client in context")
	}
	raw, err := client.post(ctx, entityName, payload)
	if err != nil {
		return err
	}
	if err := Classify(ctx, raw); err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return NewError(StructuralViolation, 0,
			"response does not match the expected shape: %s", err.Error())
	}
	return nil
}

// SendJSONRequestRaw is SendJSONRequest returning the decoded generic JSON
// value instead of filling a typed result.
func SendJSONRequestRaw(ctx context.Context, entityName string, payload interface{}) (interface{}, error) {
	var result interface{}
	if err := SendJSONRequest(ctx, entityName, payload, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// post executes one HTTP POST of the JSON envelope and maps the transport
// outcome to the error taxonomy: 200 yields the body, 401 an
// AuthenticationFailure with the verbatim body, any other status a
// TransportError, and a connection failure a TransportUnreachable.
func (c *Client) post(ctx context.Context, entityName string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(envelope{
		Entity: entity{E: entityName, W: payload},
		ID:     requestID,
	})
	if err != nil {
		return nil, errors.Annotate(err, "failed to marshal %s request", entityName)
	}
	logging.Debugf(ctx, "request %s: %s", entityName, string(body))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url,
		bytes.NewReader(body))
	if err != nil {
		return nil, errors.Annotate(err, "failed to create %s request", entityName)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-tr-applicationid", c.appID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, NewError(TransportUnreachable, 0,
			"proxy is not installed or not running at %s: %s", c.url, err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewError(TransportError, resp.StatusCode,
			"failed to read response body: %s", err.Error())
	}
	logging.Debugf(ctx, "response %s: %d - %s", entityName, resp.StatusCode,
		string(raw))

	switch {
	case resp.StatusCode == http.StatusOK:
		return raw, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, NewError(AuthenticationFailure, resp.StatusCode,
			"%s", strings.TrimSpace(string(raw)))
	default:
		return nil, NewError(TransportError, resp.StatusCode,
			"%s %s", resp.Status, strings.TrimSpace(string(raw)))
	}
}
