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
	"bytes"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func testFrame() *Frame {
	f := New([]time.Time{date(2019, 1, 1), date(2019, 1, 2)})
	if err := f.AddColumn(Label{Field: "CLOSE"},
		[]Value{Number(10), Number(11.5)}); err != nil {
		panic(err)
	}
	if err := f.AddColumn(Label{Security: "AAPL.O", Field: "VOLUME"},
		[]Value{Number(1000), Missing()}); err != nil {
		panic(err)
	}
	return f
}

func TestWrite(t *testing.T) {
	t.Parallel()

	Convey("WriteCSV", t, func() {
		Convey("entire frame", func() {
			var buf bytes.Buffer
			So(testFrame().WriteCSV(&buf, Params{}), ShouldBeNil)
			So("\n"+buf.String(), ShouldEqual, `
Date,CLOSE,AAPL.O:VOLUME
2019-01-01,10,1000
2019-01-02,11.5,NaN
`)
		})

		Convey("row limit and no header", func() {
			var buf bytes.Buffer
			So(testFrame().WriteCSV(&buf, Params{Rows: 1, NoHeader: true}),
				ShouldBeNil)
			So("\n"+buf.String(), ShouldEqual, `
2019-01-01,10,1000
`)
		})

		Convey("indexless frame has no Date column", func() {
			f := NewIndexless(1)
			So(f.AddColumn(Label{Field: "Symbol"}, []Value{Text("AAPL.O")}),
				ShouldBeNil)
			var buf bytes.Buffer
			So(f.WriteCSV(&buf, Params{}), ShouldBeNil)
			So("\n"+buf.String(), ShouldEqual, `
Symbol
AAPL.O
`)
		})

		Convey("intraday timestamps keep the time of day", func() {
			f := New([]time.Time{
				time.Date(2019, 1, 1, 15, 30, 0, 0, time.UTC)})
			So(f.AddColumn(Label{Field: "CLOSE"}, []Value{Number(10)}),
				ShouldBeNil)
			var buf bytes.Buffer
			So(f.WriteCSV(&buf, Params{}), ShouldBeNil)
			So("\n"+buf.String(), ShouldEqual, `
Date,CLOSE
2019-01-01T15:30:00,10
`)
		})
	})

	Convey("WriteText", t, func() {
		Convey("entire frame", func() {
			var buf bytes.Buffer
			So(testFrame().WriteText(&buf, Params{}), ShouldBeNil)
			So("\n"+buf.String(), ShouldEqual, `
      Date | CLOSE | AAPL.O:VOLUME
---------- | ----- | -------------
2019-01-01 |    10 |          1000
2019-01-02 |  11.5 |           NaN
`)
		})

		Convey("column width limit", func() {
			f := NewIndexless(1)
			So(f.AddColumn(Label{Field: "name"},
				[]Value{Text("a very long value")}), ShouldBeNil)
			var buf bytes.Buffer
			So(f.WriteText(&buf, Params{MaxColWidth: 6}), ShouldBeNil)
			So("\n"+buf.String(), ShouldEqual, `
  name
------
a ve..
`)
		})

		Convey("MaxColWidth below the minimum is an error", func() {
			var buf bytes.Buffer
			So(testFrame().WriteText(&buf, Params{MaxColWidth: 3}),
				ShouldNotBeNil)
		})
	})
}
