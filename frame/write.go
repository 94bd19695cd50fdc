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

package frame

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/stockparfait/errors"
)

// Params are parameters for pretty-printing or CSV export of Frame data.
type Params struct {
	Rows        int  // max. number of rows to write; 0 = unlimited (default)
	NoHeader    bool // whether to print the header, default - yes
	MaxColWidth int  // for WriteText only; 0 = unlimited, otherwise must be >= 4
}

// indexHeader is the header of the timestamp index column.
const indexHeader = "Date"

// formatTime renders an index timestamp; a pure date drops the zero time of
// day.
func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02T15:04:05")
}

// header returns the header row: the index column, when present, comes
// first.
func (f *Frame) header() []string {
	var row []string
	if f.hasIndex {
		row = append(row, indexHeader)
	}
	return append(row, f.Labels()...)
}

// row renders the i-th row as strings, index first.
func (f *Frame) row(i int) []string {
	var row []string
	if f.hasIndex {
		row = append(row, formatTime(f.index[i]))
	}
	for _, c := range f.columns {
		row = append(row, c.Cells[i].String())
	}
	return row
}

// WriteCSV writes the entire frame to w in CSV format.
func (f *Frame) WriteCSV(w io.Writer, p Params) error {
	cw := csv.NewWriter(w)
	if !p.NoHeader && len(f.columns) > 0 {
		if err := cw.Write(f.header()); err != nil {
			return errors.Annotate(err, "failed to write header")
		}
	}
	for i := 0; i < f.rows; i++ {
		if p.Rows > 0 && i >= p.Rows {
			break
		}
		if err := cw.Write(f.row(i)); err != nil {
			return errors.Annotate(err, "failed to write row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Annotate(err, "failed to flush written rows")
	}
	return nil
}

// WriteText writes the frame as a text formatted for ease of reading.
func (f *Frame) WriteText(w io.Writer, p Params) error {
	if p.MaxColWidth != 0 && p.MaxColWidth < 4 {
		return errors.Reason("MaxColWidth [%d] must be 0 or >= 4", p.MaxColWidth)
	}
	var widths []int
	update := func(row []string) error {
		if len(row) == 0 {
			return errors.Reason("row size = 0")
		}
		if len(widths) == 0 {
			widths = make([]int, len(row))
		}
		if len(row) != len(widths) {
			return errors.Reason("row size [%d] != expected size [%d]",
				len(row), len(widths))
		}
		for i := range widths {
			if widths[i] < len(row[i]) {
				widths[i] = len(row[i])
				if p.MaxColWidth > 0 && widths[i] > p.MaxColWidth {
					widths[i] = p.MaxColWidth
				}
			}
		}
		return nil
	}

	write := func(row []string) error {
		trimmed := make([]string, len(row))
		for i, s := range row {
			trimmed[i] = s
			if len([]rune(s)) > widths[i] {
				r := []rune(s)[:widths[i]-2]
				trimmed[i] = string(r) + ".."
			}
			trimmed[i] = fmt.Sprintf("%[2]*[1]s", trimmed[i], widths[i])
		}
		_, err := fmt.Fprintf(w, "%s\n", strings.Join(trimmed, " | "))
		return err
	}

	dashes := func(n int) string {
		b := make([]byte, n)
		for i := range b {
			b[i] = byte('-')
		}
		return string(b)
	}

	dashedRow := func() []string {
		row := make([]string, len(widths))
		for i, w := range widths {
			row[i] = dashes(w)
		}
		return row
	}

	withHeader := !p.NoHeader && len(f.columns) > 0
	if withHeader {
		if err := update(f.header()); err != nil {
			return errors.Annotate(err, "failed to update header widths")
		}
	}
	for i := 0; i < f.rows; i++ {
		if p.Rows > 0 && i >= p.Rows {
			break
		}
		if err := update(f.row(i)); err != nil {
			return errors.Annotate(err, "failed to update row widths")
		}
	}

	if withHeader {
		if err := write(f.header()); err != nil {
			return errors.Annotate(err, "failed to write header")
		}
		if err := write(dashedRow()); err != nil {
			return errors.Annotate(err, "failed to write header separator")
		}
	}
	for i := 0; i < f.rows; i++ {
		if p.Rows > 0 && i >= p.Rows {
			break
		}
		if err := write(f.row(i)); err != nil {
			return errors.Annotate(err, "failed to write row")
		}
	}
	return nil
}
