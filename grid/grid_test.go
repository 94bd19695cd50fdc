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

package grid

import (
	"context"
	"testing"

	"github.com/stockparfait/fetch"

	"github.com/dhirschfeld/eikon/frame"
	"github.com/dhirschfeld/eikon/udf"

	. "github.com/smartystreets/goconvey/convey"
)

func TestField(t *testing.T) {
	t.Parallel()

	Convey("Field builds nondestructively", t, func() {
		f := NewField("TR.PriceClose")
		f2 := f.WithParam("Curn", "EUR").WithSort(Descending, 1)
		So(f.Params, ShouldBeNil)
		So(f.Sort, ShouldEqual, SortDir(""))
		So(f2.Params, ShouldResemble, map[string]string{"Curn": "EUR"})
		So(f2.Sort, ShouldEqual, Descending)
		So(f2.SortPriority, ShouldEqual, 1)
	})

	Convey("payload", t, func() {
		Convey("requires instruments and fields", func() {
			_, err := payload(nil, []Field{NewField("TR.PriceClose")}, nil)
			So(err, ShouldNotBeNil)
			_, err = payload([]string{"AAPL.O"}, nil, nil)
			So(err, ShouldNotBeNil)
		})

		Convey("wire form", func() {
			fields := []Field{
				NewField("TR.PriceClose").WithParam("Curn", "EUR"),
				NewField("TR.Revenue").WithSort(Ascending, 0),
			}
			params := map[string]string{"SDate": "2020-01-01"}
			p, err := payload([]string{"aapl.o"}, fields, params)
			So(err, ShouldBeNil)
			So(p["instruments"], ShouldResemble, []string{"AAPL.O"})
			So(p["parameters"], ShouldResemble, params)
			So(p["fields"], ShouldResemble, []map[string]interface{}{
				{"name": "TR.PriceClose",
					"parameters": map[string]string{"Curn": "EUR"}},
				{"name": "TR.Revenue", "sort": "asc", "sortPriority": 0},
			})
		})

		Convey("rejects an empty field name and a bad sort", func() {
			_, err := payload([]string{"AAPL.O"}, []Field{NewField("")}, nil)
			So(err, ShouldNotBeNil)
			_, err = payload([]string{"AAPL.O"},
				[]Field{{Name: "TR.Revenue", Sort: "sideways"}}, nil)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestGet(t *testing.T) {
	t.Parallel()

	Convey("Get", t, func() {
		ctx := context.Background()
		server := fetch.NewTestServer()
		defer server.Close()

		client, err := udf.NewClient(ctx, "APPID",
			udf.WithURL(server.URL()+"/api/v1/data"),
			udf.WithHTTPClient(server.Client()))
		So(err, ShouldBeNil)
		ctx = udf.UseClient(ctx, client)

		fields := []Field{NewField("TR.PriceClose"), NewField("TR.Revenue")}

		Convey("tabulates the grid", func() {
			server.ResponseBody = []string{`{
				"headers": [[
					{"displayName": "Instrument"},
					{"displayName": "Price Close"},
					{"displayName": "", "field": "TR.REVENUE"}
				]],
				"data": [
					["AAPL.O", 123.45, {"value": 260174000000}],
					["IBM.N", "134.5", null]
				]
			}`}

			f, pointErrs, err := Get(ctx, []string{"AAPL.O", "IBM.N"},
				fields, nil)
			So(err, ShouldBeNil)
			So(len(pointErrs), ShouldEqual, 0)
			So(f.HasIndex(), ShouldBeFalse)
			So(f.Labels(), ShouldResemble,
				[]string{"Instrument", "Price Close", "TR.REVENUE"})
			So(f.Columns()[0].Cells, ShouldResemble, []frame.Value{
				frame.Text("AAPL.O"), frame.Text("IBM.N")})
			// "134.5" arrives as text and is coerced to a number.
			So(f.Columns()[1].Cells, ShouldResemble, []frame.Value{
				frame.Number(123.45), frame.Number(134.5)})
			So(f.Columns()[2].Cells, ShouldResemble, []frame.Value{
				frame.Number(260174000000), frame.Missing()})
		})

		Convey("per-point diagnostics", func() {
			server.ResponseBody = []string{`{
				"headers": [[{"displayName": "Instrument"},
				             {"displayName": "Price Close"}]],
				"data": [["BAD.O", null]],
				"error": [{"code": 416, "col": 1, "row": 0,
				           "message": "Unable to resolve some identifiers"}]
			}`}

			f, pointErrs, err := Get(ctx, []string{"BAD.O"},
				[]Field{NewField("TR.PriceClose")}, nil)
			So(err, ShouldBeNil)
			So(f.NumRows(), ShouldEqual, 1)
			So(pointErrs, ShouldResemble, []PointError{
				{Code: 416, Col: 1, Row: 0,
					Message: "Unable to resolve some identifiers"}})
		})

		Convey("missing headers are a structural violation", func() {
			server.ResponseBody = []string{`{"data": [["AAPL.O"]]}`}

			_, _, err := Get(ctx, []string{"AAPL.O"}, fields, nil)
			e, ok := err.(*udf.Error)
			So(ok, ShouldBeTrue)
			So(e.Kind, ShouldEqual, udf.StructuralViolation)
		})

		Convey("a ragged row is a structural violation", func() {
			server.ResponseBody = []string{`{
				"headers": [[{"displayName": "Instrument"},
				             {"displayName": "Price Close"}]],
				"data": [["AAPL.O"]]
			}`}

			_, _, err := Get(ctx, []string{"AAPL.O"}, fields, nil)
			e, ok := err.(*udf.Error)
			So(ok, ShouldBeTrue)
			So(e.Kind, ShouldEqual, udf.StructuralViolation)
		})
	})
}
