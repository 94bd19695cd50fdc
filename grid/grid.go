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

// Package grid retrieves fundamental and reference data points as a table:
// one row per instrument, one column per requested field.
package grid

import (
	"context"
	"strings"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"

	"github.com/dhirschfeld/eikon/frame"
	"github.com/dhirschfeld/eikon/udf"
)

// Endpoint is the proxy endpoint name serving data grid requests.
const Endpoint = "DataGrid"

// SortDir orders the values of a sorted field.
type SortDir string

// Supported sort directions.
const (
	Ascending  = SortDir("asc")
	Descending = SortDir("desc")
)

// Field is one requested data point, e.g. "TR.PriceClose". Params are
// field-specific request parameters such as date ranges or currency. Sort
// orders the result rows by this field; SortPriority breaks ties between
// several sorted fields, lower wins.
type Field struct {
	Name         string
	Params       map[string]string
	Sort         SortDir
	SortPriority int
}

// NewField creates an unsorted field without parameters.
func NewField(name string) Field { return Field{Name: name} }

// WithParam returns a copy of the field with an added request parameter.
func (f Field) WithParam(key, value string) Field {
	params := make(map[string]string)
	for k, v := range f.Params {
		params[k] = v
	}
	params[key] = value
	f2 := f
	f2.Params = params
	return f2
}

// WithSort returns a copy of the field sorted in the given direction.
func (f Field) WithSort(dir SortDir, priority int) Field {
	f2 := f
	f2.Sort = dir
	f2.SortPriority = priority
	return f2
}

func (f Field) wire() (map[string]interface{}, error) {
	if f.Name == "" {
		return nil, errors.Reason("field name is required")
	}
	w := map[string]interface{}{"name": f.Name}
	if f.Sort != "" {
		if f.Sort != Ascending && f.Sort != Descending {
			return nil, errors.Reason("sort direction '%s' of field %s is not one of [%s %s]",
				f.Sort, f.Name, Ascending, Descending)
		}
		w["sort"] = string(f.Sort)
		w["sortPriority"] = f.SortPriority
	}
	if len(f.Params) > 0 {
		w["parameters"] = f.Params
	}
	return w, nil
}

// PointError is the diagnostic for one data point the service could not
// compute; the rest of the grid is still usable.
type PointError struct {
	Code    int    `json:"code"`
	Col     int    `json:"col"`
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e PointError) Error() string { return e.Message }

type header struct {
	DisplayName string `json:"displayName"`
	Field       string `json:"field"`
}

type response struct {
	Headers [][]header      `json:"headers"`
	Data    [][]interface{} `json:"data"`
	Error   []PointError    `json:"error"`
}

func payload(instruments []string, fields []Field, params map[string]string) (map[string]interface{}, error) {
	if len(instruments) == 0 {
		return nil, errors.Reason("at least one instrument is required")
	}
	if len(fields) == 0 {
		return nil, errors.Reason("at least one field is required")
	}
	wireFields := make([]map[string]interface{}, len(fields))
	for i, f := range fields {
		w, err := f.wire()
		if err != nil {
			return nil, errors.Annotate(err, "invalid field")
		}
		wireFields[i] = w
	}
	p := map[string]interface{}{
		"instruments": udf.NormalizeSymbols(instruments),
		"fields":      wireFields,
	}
	if len(params) > 0 {
		p["parameters"] = params
	}
	return p, nil
}

// Get retrieves the requested data points for the instruments as an indexless
// frame: one row per instrument, columns named after the response headers.
// Per-point diagnostics are returned alongside the frame; text columns whose
// every value is numeric are converted to numbers.
func Get(ctx context.Context, instruments []string, fields []Field, params map[string]string) (*frame.Frame, []PointError, error) {
	p, err := payload(instruments, fields, params)
	if err != nil {
		return nil, nil, errors.Annotate(err, "invalid data grid request")
	}
	var resp response
	if err := udf.SendJSONRequest(ctx, Endpoint, p, &resp); err != nil {
		return nil, nil, err
	}
	for _, pe := range resp.Error {
		logging.Warningf(ctx, "data point (%d, %d): %s", pe.Row, pe.Col, pe.Message)
	}
	f, err := buildFrame(resp)
	if err != nil {
		return nil, resp.Error, err
	}
	return f, resp.Error, nil
}

// GetRaw is Get returning the decoded response payload untouched.
func GetRaw(ctx context.Context, instruments []string, fields []Field, params map[string]string) (interface{}, error) {
	p, err := payload(instruments, fields, params)
	if err != nil {
		return nil, errors.Annotate(err, "invalid data grid request")
	}
	return udf.SendJSONRequestRaw(ctx, Endpoint, p)
}

// cellValue unwraps one grid cell. Computed points arrive wrapped in an
// object keyed by "value".
func cellValue(v interface{}) frame.Value {
	if m, ok := v.(map[string]interface{}); ok {
		return frame.FromJSON(m["value"])
	}
	return frame.FromJSON(v)
}

// buildFrame tabulates the grid response: the first header row names the
// columns, data rows fill them top to bottom.
func buildFrame(resp response) (*frame.Frame, error) {
	if len(resp.Headers) == 0 || len(resp.Headers[0]) == 0 {
		return nil, udf.NewError(udf.StructuralViolation, 0,
			"response carries no headers")
	}
	names := make([]string, len(resp.Headers[0]))
	for i, h := range resp.Headers[0] {
		name := h.DisplayName
		if name == "" {
			name = h.Field
		}
		if name == "" {
			return nil, udf.NewError(udf.StructuralViolation, 0,
				"header %d has neither displayName nor field", i)
		}
		names[i] = strings.TrimSpace(name)
	}
	f := frame.NewIndexless(len(resp.Data))
	for j, name := range names {
		cells := make([]frame.Value, len(resp.Data))
		for i, row := range resp.Data {
			if len(row) != len(names) {
				return nil, udf.NewError(udf.StructuralViolation, 0,
					"row %d has %d values, expected %d", i, len(row), len(names))
			}
			cells[i] = cellValue(row[j])
		}
		if err := f.AddColumn(frame.Label{Field: name}, cells); err != nil {
			return nil, err
		}
	}
	f.Coerce()
	return f, nil
}
