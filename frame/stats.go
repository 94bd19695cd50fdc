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
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Floats extracts the numeric values of the i-th column, skipping missing
// and non-numeric cells. Run Coerce first to pick up numbers stored as text.
func (f *Frame) Floats(i int) []float64 {
	var xs []float64
	for _, c := range f.columns[i].Cells {
		if v, ok := c.Float(); ok {
			xs = append(xs, v)
		}
	}
	return xs
}

// ColumnSummary holds basic statistics of one numeric column. Count is the
// number of numeric cells that contributed.
type ColumnSummary struct {
	Label  Label
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Summary computes per-column statistics for all columns that have at least
// one numeric cell. Missing cells are skipped, not counted as zeros.
func (f *Frame) Summary() []ColumnSummary {
	var res []ColumnSummary
	for i := range f.columns {
		xs := f.Floats(i)
		if len(xs) == 0 {
			continue
		}
		res = append(res, ColumnSummary{
			Label:  f.columns[i].Label,
			Count:  len(xs),
			Mean:   stat.Mean(xs, nil),
			StdDev: stat.StdDev(xs, nil),
			Min:    floats.Min(xs),
			Max:    floats.Max(xs),
		})
	}
	return res
}
