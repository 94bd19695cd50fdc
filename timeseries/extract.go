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

package timeseries

import (
	"context"
	"strings"
	"time"

	"github.com/stockparfait/logging"

	"github.com/dhirschfeld/eikon/frame"
	"github.com/dhirschfeld/eikon/udf"
)

// fieldDef is the wire form of one field descriptor.
type fieldDef struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// record is the wire form of one per-instrument series.
type record struct {
	Ric          string          `json:"ric"`
	StatusCode   string          `json:"statusCode"`
	Fields       []fieldDef      `json:"fields"`
	DataPoints   [][]interface{} `json:"dataPoints"`
	ErrorMessage string          `json:"errorMessage"`
}

// response is the wire form of the TimeSeries endpoint response.
type response struct {
	Data []record `json:"timeseriesData"`
}

// Series is one successfully retrieved per-instrument series: the timestamp
// field has been removed from Fields and parsed into Times, and Rows are
// aligned positionally with Fields.
type Series struct {
	Ric    string
	Fields []string
	Times  []time.Time
	Rows   [][]frame.Value
}

// InstrumentError is the diagnostic for one instrument that failed while the
// call as a whole succeeded.
type InstrumentError struct {
	Ric     string
	Message string
}

// Error implements the error interface.
func (e InstrumentError) Error() string { return e.Message }

// descriptionToken starts the useful part of an upstream error message; the
// text before it is protocol boilerplate.
const descriptionToken = "Description"

// instrumentMessage trims the upstream error message to the substring
// starting at the description token and splices the instrument id in place
// of the token. The upstream grammar is undocumented, so this is
// best-effort: an absent token leaves the message verbatim.
func instrumentMessage(ric, message string) string {
	if i := strings.Index(message, descriptionToken); i >= 0 {
		message = message[i:]
	}
	return strings.ReplaceAll(message, descriptionToken, ric)
}

// parseTimestamp parses a timestamp cell into a typed time value in UTC.
func parseTimestamp(v interface{}) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, udf.NewError(udf.StructuralViolation, 0,
			"timestamp value %v is not a string", v)
	}
	t, err := frame.ParseTime(s)
	if err != nil {
		return time.Time{}, udf.NewError(udf.StructuralViolation, 0,
			"failed to parse timestamp '%s'", s)
	}
	return t, nil
}

// extractSeries converts one OK record into a Series. A missing timestamp
// field or a malformed row is a contract violation and fails loudly rather
// than silently defaulting the index.
func extractSeries(r record) (Series, error) {
	if len(r.Fields) == 0 {
		return Series{}, udf.NewError(udf.StructuralViolation, 0,
			"record for %s carries no fields", r.Ric)
	}
	timestampAt := -1
	fields := make([]string, 0, len(r.Fields)-1)
	for i, f := range r.Fields {
		if f.Name == timestampField {
			timestampAt = i
			continue
		}
		fields = append(fields, f.Name)
	}
	if timestampAt < 0 {
		return Series{}, udf.NewError(udf.StructuralViolation, 0,
			"record for %s has no %s field", r.Ric, timestampField)
	}
	s := Series{
		Ric:    r.Ric,
		Fields: fields,
		Times:  make([]time.Time, 0, len(r.DataPoints)),
		Rows:   make([][]frame.Value, 0, len(r.DataPoints)),
	}
	for i, point := range r.DataPoints {
		if len(point) != len(r.Fields) {
			return Series{}, udf.NewError(udf.StructuralViolation, 0,
				"row %d for %s has %d values, expected %d",
				i, r.Ric, len(point), len(r.Fields))
		}
		t, err := parseTimestamp(point[timestampAt])
		if err != nil {
			return Series{}, err
		}
		row := make([]frame.Value, 0, len(fields))
		for j, v := range point {
			if j == timestampAt {
				continue
			}
			row = append(row, frame.FromJSON(v))
		}
		s.Times = append(s.Times, t)
		s.Rows = append(s.Rows, row)
	}
	return s, nil
}

// extract partitions the per-instrument records into successful series and
// per-instrument diagnostics, preserving the original order. Each failing
// instrument is reported as a warning; when every instrument failed the
// whole call fails with the combined diagnostic string.
func extract(ctx context.Context, records []record) ([]Series, []InstrumentError, error) {
	var ok []Series
	var instErrs []InstrumentError
	var combined []string
	for _, r := range records {
		if strings.EqualFold(r.StatusCode, "Error") {
			msg := instrumentMessage(r.Ric, r.ErrorMessage)
			instErrs = append(instErrs, InstrumentError{Ric: r.Ric, Message: msg})
			combined = append(combined, msg)
			logging.Warningf(ctx, "error with %s", msg)
			continue
		}
		s, err := extractSeries(r)
		if err != nil {
			return nil, instErrs, err
		}
		ok = append(ok, s)
	}
	if len(records) > 0 && len(instErrs) == len(records) {
		return nil, instErrs, udf.NewError(udf.AllInstrumentsFailed, 0,
			"%s", strings.Join(combined, " | "))
	}
	return ok, instErrs, nil
}
