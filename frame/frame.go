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

// Package frame implements the canonical tabular output of the library: a
// table with an optional timestamp row index, one- or two-level column
// labels, an explicit missing-value marker, and a per-column numeric
// coercion pass.
package frame

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/stockparfait/errors"
)

type valueKind int

const (
	missingKind valueKind = iota
	numberKind
	textKind
)

// Value is a single table cell: a number, a text, or the missing-value
// marker. Missing is a distinct sentinel, not a NaN; it renders as "NaN" for
// familiarity with the original tooling.
type Value struct {
	kind valueKind
	num  float64
	str  string
}

// Number creates a numeric cell.
func Number(v float64) Value { return Value{kind: numberKind, num: v} }

// Text creates a text cell.
func Text(s string) Value { return Value{kind: textKind, str: s} }

// Missing creates the missing-value marker.
func Missing() Value { return Value{} }

// FromJSON converts a generic decoded JSON value to a cell. JSON null maps
// to Missing.
func FromJSON(v interface{}) Value {
	switch x := v.(type) {
	case nil:
		return Missing()
	case float64:
		return Number(x)
	case string:
		return Text(x)
	case bool:
		if x {
			return Text("true")
		}
		return Text("false")
	}
	bytes, err := json.Marshal(v)
	if err != nil {
		return Missing()
	}
	return Text(string(bytes))
}

// IsMissing checks for the missing-value marker.
func (v Value) IsMissing() bool { return v.kind == missingKind }

// IsNumber checks whether the cell holds a number.
func (v Value) IsNumber() bool { return v.kind == numberKind }

// Float returns the numeric value of the cell; false if the cell is not
// numeric.
func (v Value) Float() (float64, bool) {
	if v.kind != numberKind {
		return 0, false
	}
	return v.num, true
}

// String renders the cell for display and CSV output.
func (v Value) String() string {
	switch v.kind {
	case numberKind:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case textKind:
		return v.str
	}
	return "NaN"
}

// Level names of the two-level column labels.
const (
	LevelSecurity = "Security"
	LevelField    = "Field"
)

// Label is a column label of up to two levels: the instrument (Security) and
// the data attribute (Field). Single-level labels leave the other part
// empty.
type Label struct {
	Security string
	Field    string
}

// String renders the label; a two-level label joins the parts with ":".
func (l Label) String() string {
	switch {
	case l.Security == "":
		return l.Field
	case l.Field == "":
		return l.Security
	}
	return l.Security + ":" + l.Field
}

// Column is a labeled sequence of cells, aligned positionally with the frame
// rows.
type Column struct {
	Label Label
	Cells []Value
}

// Frame is the reshaped tabular output. The row index, when present, carries
// timestamps in the order they were produced; no operation ever re-sorts
// them. Name is the optional table-level label (an instrument or a field
// name, depending on the shape).
type Frame struct {
	Name string

	index    []time.Time
	hasIndex bool
	rows     int
	columns  []Column
}

// New creates a frame indexed by the given timestamps. The slice is used as
// is, not copied.
func New(index []time.Time) *Frame {
	return &Frame{index: index, hasIndex: true, rows: len(index)}
}

// NewIndexless creates a frame of the given row count without a timestamp
// index (e.g. symbol lookups keyed by instrument rather than by time).
func NewIndexless(rows int) *Frame {
	return &Frame{rows: rows}
}

// HasIndex reports whether the frame carries a timestamp index.
func (f *Frame) HasIndex() bool { return f.hasIndex }

// Index returns the timestamp index; nil for indexless frames.
func (f *Frame) Index() []time.Time { return f.index }

// Columns returns the frame columns.
func (f *Frame) Columns() []Column { return f.columns }

// NumRows returns the number of rows.
func (f *Frame) NumRows() int { return f.rows }

// NumColumns returns the number of columns.
func (f *Frame) NumColumns() int { return len(f.columns) }

// Empty checks whether the frame has no rows and no columns.
func (f *Frame) Empty() bool { return f.rows == 0 && len(f.columns) == 0 }

// Labels returns the rendered column labels, in column order.
func (f *Frame) Labels() []string {
	labels := make([]string, len(f.columns))
	for i, c := range f.columns {
		labels[i] = c.Label.String()
	}
	return labels
}

// AddColumn appends a column. The number of cells must match the number of
// rows. The cells slice is used as is, not copied.
func (f *Frame) AddColumn(label Label, cells []Value) error {
	if len(cells) != f.rows {
		return errors.Reason("column %s has %d cells, expected %d",
			label.String(), len(cells), f.rows)
	}
	f.columns = append(f.columns, Column{Label: label, Cells: cells})
	return nil
}

// Join concatenates indexed frames side by side, outer-joining their rows on
// timestamp equality: the result index is the union of all input timestamps
// in first-appearance order, and cells absent for a given timestamp become
// Missing. Timestamps are never re-sorted. A duplicated timestamp within one
// input keeps the last value for that timestamp.
func Join(name string, frames ...*Frame) (*Frame, error) {
	var index []time.Time
	at := make(map[int64]int) // timestamp -> result row
	for _, f := range frames {
		if !f.hasIndex {
			return nil, errors.Reason("cannot join a frame without a timestamp index")
		}
		for _, t := range f.index {
			key := t.UnixNano()
			if _, ok := at[key]; !ok {
				at[key] = len(index)
				index = append(index, t)
			}
		}
	}
	joined := New(index)
	joined.Name = name
	for _, f := range frames {
		for _, col := range f.columns {
			cells := make([]Value, len(index))
			for row, t := range f.index {
				cells[at[t.UnixNano()]] = col.Cells[row]
			}
			if err := joined.AddColumn(col.Label, cells); err != nil {
				return nil, errors.Annotate(err, "failed to join column %s",
					col.Label.String())
			}
		}
	}
	return joined, nil
}

// Coerce runs the per-column numeric type-inference pass: a column whose
// every non-missing cell parses cleanly as a number is converted to a
// numeric column; any parse failure leaves the whole column untouched, so
// coercion never loses data.
func (f *Frame) Coerce() {
	for ci := range f.columns {
		cells := f.columns[ci].Cells
		parsed := make([]float64, len(cells))
		textSeen := false
		clean := true
		for i, c := range cells {
			switch c.kind {
			case missingKind:
				continue
			case numberKind:
				parsed[i] = c.num
			case textKind:
				v, err := strconv.ParseFloat(strings.TrimSpace(c.str), 64)
				if err != nil {
					clean = false
				}
				parsed[i] = v
				textSeen = true
			}
			if !clean {
				break
			}
		}
		if !clean || !textSeen {
			continue
		}
		for i := range cells {
			if cells[i].kind == textKind {
				cells[i] = Number(parsed[i])
			}
		}
	}
}
