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
	"time"

	"github.com/stockparfait/errors"

	"github.com/dhirschfeld/eikon/frame"
)

// shape is the closed set of output table forms. It is resolved exactly once
// per call from the instrument count, the field count and the normalize
// flag; all rendering branches on this single decision.
type shape int

const (
	shapeEmpty         shape = iota // no instruments or no fields
	shapeOneInstrument              // one instrument, fields as columns
	shapeOneField                   // instruments as columns of the single field
	shapeManyByMany                 // two-level (Security, Field) columns
	shapeLong                       // normalized long form
)

// selectShape picks the output shape from the distinct instrument count r
// and field count f among the successful series.
func selectShape(r, f int, normalize bool) shape {
	switch {
	case r == 0 || f == 0:
		return shapeEmpty
	case normalize:
		return shapeLong
	case r == 1:
		return shapeOneInstrument
	case f == 1:
		return shapeOneField
	}
	return shapeManyByMany
}

// seriesFrame transposes one series into a frame, labeling each field column
// with labelFor.
func seriesFrame(s Series, labelFor func(field string) frame.Label) (*frame.Frame, error) {
	g := frame.New(s.Times)
	for j, field := range s.Fields {
		cells := make([]frame.Value, len(s.Rows))
		for i, row := range s.Rows {
			cells[i] = row[j]
		}
		if err := g.AddColumn(labelFor(field), cells); err != nil {
			return nil, errors.Annotate(err, "failed to add column %s for %s",
				field, s.Ric)
		}
	}
	return g, nil
}

// build assembles the final frame from the successful series. Fields are
// homogeneous across series for a single request, so the field set of the
// first series drives the shape decision. An instrument with zero rows
// contributes no rows but still counts toward the instrument count.
func build(series []Series, normalize bool) (*frame.Frame, error) {
	fieldCount := 0
	if len(series) > 0 {
		fieldCount = len(series[0].Fields)
	}
	switch selectShape(len(series), fieldCount, normalize) {
	case shapeEmpty:
		return frame.New(nil), nil
	case shapeLong:
		return buildLong(series)
	case shapeOneInstrument:
		return buildOneInstrument(series[0])
	case shapeOneField:
		return buildOneField(series)
	}
	return buildManyByMany(series)
}

// buildOneInstrument renders the one-instrument/many-fields shape: columns
// are the field names, the frame label is the instrument.
func buildOneInstrument(s Series) (*frame.Frame, error) {
	g, err := seriesFrame(s, func(field string) frame.Label {
		return frame.Label{Field: field}
	})
	if err != nil {
		return nil, err
	}
	g.Name = s.Ric
	g.Coerce()
	return g, nil
}

// buildOneField renders the many-instruments/one-field shape: each
// instrument becomes one column named after it, outer-joined on timestamps,
// and the frame label is the field.
func buildOneField(series []Series) (*frame.Frame, error) {
	frames := make([]*frame.Frame, len(series))
	for i, s := range series {
		g, err := seriesFrame(s, func(string) frame.Label {
			return frame.Label{Security: s.Ric}
		})
		if err != nil {
			return nil, err
		}
		frames[i] = g
	}
	joined, err := frame.Join(series[0].Fields[0], frames...)
	if err != nil {
		return nil, err
	}
	joined.Coerce()
	return joined, nil
}

// buildManyByMany renders the many-instruments/many-fields shape: columns
// carry the two-level (Security, Field) label, outer-joined on timestamps.
func buildManyByMany(series []Series) (*frame.Frame, error) {
	frames := make([]*frame.Frame, len(series))
	for i, s := range series {
		g, err := seriesFrame(s, func(field string) frame.Label {
			return frame.Label{Security: s.Ric, Field: field}
		})
		if err != nil {
			return nil, err
		}
		frames[i] = g
	}
	joined, err := frame.Join("", frames...)
	if err != nil {
		return nil, err
	}
	joined.Coerce()
	return joined, nil
}

// buildLong renders the normalized long form: one row per (timestamp, field)
// per series, with columns Security, Field and Value next to the timestamp
// index. Series, timestamps and fields all keep their original order;
// concatenation never re-sorts.
func buildLong(series []Series) (*frame.Frame, error) {
	total := 0
	for _, s := range series {
		total += len(s.Rows) * len(s.Fields)
	}
	index := make([]time.Time, 0, total)
	securities := make([]frame.Value, 0, total)
	fields := make([]frame.Value, 0, total)
	values := make([]frame.Value, 0, total)
	for _, s := range series {
		for i, t := range s.Times {
			for j, field := range s.Fields {
				index = append(index, t)
				securities = append(securities, frame.Text(s.Ric))
				fields = append(fields, frame.Text(field))
				values = append(values, s.Rows[i][j])
			}
		}
	}
	g := frame.New(index)
	if err := g.AddColumn(frame.Label{Field: frame.LevelSecurity}, securities); err != nil {
		return nil, err
	}
	if err := g.AddColumn(frame.Label{Field: frame.LevelField}, fields); err != nil {
		return nil, err
	}
	if err := g.AddColumn(frame.Label{Field: "Value"}, values); err != nil {
		return nil, err
	}
	g.Coerce()
	return g, nil
}
