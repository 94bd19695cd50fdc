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

// Package timeseries retrieves historical data for one or several
// instruments and reshapes the heterogeneous per-instrument response into a
// regular frame. Instruments that fail individually are excluded from the
// frame and reported alongside it; a call fails only when the transport or
// the service fails, or when every requested instrument fails.
package timeseries

import (
	"context"
	"strings"
	"time"

	"github.com/stockparfait/errors"

	"github.com/dhirschfeld/eikon/frame"
	"github.com/dhirschfeld/eikon/udf"
)

// Endpoint is the proxy endpoint name serving time series.
const Endpoint = "TimeSeries"

// Interval of the requested data points.
type Interval string

// Supported intervals.
const (
	Tick      = Interval("tick")
	Minute    = Interval("minute")
	Hour      = Interval("hour")
	Daily     = Interval("daily")
	Weekly    = Interval("weekly")
	Monthly   = Interval("monthly")
	Quarterly = Interval("quarterly")
	Yearly    = Interval("yearly")
)

var intervals = []Interval{
	Tick, Minute, Hour, Daily, Weekly, Monthly, Quarterly, Yearly}

// Calendar selects the day basis of the series.
type Calendar string

// Supported calendars.
const (
	Native       = Calendar("native")
	TradingDays  = Calendar("tradingdays")
	CalendarDays = Calendar("calendardays")
)

var calendars = []Calendar{Native, TradingDays, CalendarDays}

// Corax selects whether prices are adjusted for corporate actions.
type Corax string

// Supported corax values.
const (
	Adjusted   = Corax("adjusted")
	Unadjusted = Corax("unadjusted")
)

var coraxes = []Corax{Adjusted, Unadjusted}

// timestampField is the mandatory field carrying the point-in-time of each
// row; it becomes the frame index and is never a data column.
const timestampField = "TIMESTAMP"

// wireTimeFormat is the time format of the request payload.
const wireTimeFormat = "2006-01-02T15:04:05"

// defaultLookback is the default historical range when no start is given.
const defaultLookback = 100 * 24 * time.Hour

// Request is a builder for a time series query. Builder methods create a
// deep copy, leaving the original intact (so partially built requests can be
// shared). The zero date range defaults to the last 100 days, the zero field
// set to all fields, the zero interval to daily.
type Request struct {
	rics      []string
	fields    []string
	start     time.Time
	end       time.Time
	interval  Interval
	count     int
	calendar  Calendar
	corax     Corax
	normalize bool
}

// NewRequest creates a request for the given instruments.
func NewRequest(rics ...string) *Request {
	return &Request{rics: rics}
}

// Copy creates a deep copy of the request. It is primarily used in its
// builder methods.
func (q *Request) Copy() *Request {
	q2 := *q
	q2.rics = append([]string{}, q.rics...)
	q2.fields = append([]string{}, q.fields...)
	return &q2
}

// Fields restricts the returned field set, e.g. "OPEN", "CLOSE", "VOLUME".
// The timestamp field is always requested. "*" requests all fields.
func (q *Request) Fields(fields ...string) *Request {
	q2 := q.Copy()
	q2.fields = append([]string{}, fields...)
	return q2
}

// Start sets the beginning of the historical range.
func (q *Request) Start(t time.Time) *Request {
	q2 := q.Copy()
	q2.start = t
	return q2
}

// End sets the end of the historical range.
func (q *Request) End(t time.Time) *Request {
	q2 := q.Copy()
	q2.end = t
	return q2
}

// Interval sets the data interval.
func (q *Request) Interval(iv Interval) *Request {
	q2 := q.Copy()
	q2.interval = iv
	return q2
}

// Count limits the number of data points retrieved.
func (q *Request) Count(n int) *Request {
	q2 := q.Copy()
	q2.count = n
	return q2
}

// Calendar sets the optional calendar parameter.
func (q *Request) Calendar(c Calendar) *Request {
	q2 := q.Copy()
	q2.calendar = c
	return q2
}

// Corax sets the optional corporate-actions parameter.
func (q *Request) Corax(c Corax) *Request {
	q2 := q.Copy()
	q2.corax = c
	return q2
}

// Normalize requests the long-form output: one row per (timestamp,
// instrument, field) with columns Date, Security, Field and Value. The
// default is the wide form whose shape depends on the instrument and field
// counts of the response.
func (q *Request) Normalize() *Request {
	q2 := q.Copy()
	q2.normalize = true
	return q2
}

func in[T comparable](x T, values []T) bool {
	for _, v := range values {
		if x == v {
			return true
		}
	}
	return false
}

// payloadFields canonicalizes the field list: fields are upper-cased, "*"
// collapses the list, and the timestamp field is appended when absent.
func payloadFields(fields []string) []string {
	if len(fields) == 0 {
		return []string{"*"}
	}
	res := make([]string, 0, len(fields)+1)
	timestamp := false
	for _, f := range fields {
		f = strings.ToUpper(strings.TrimSpace(f))
		if f == "*" {
			return []string{"*"}
		}
		if f == timestampField {
			timestamp = true
		}
		res = append(res, f)
	}
	if !timestamp {
		res = append(res, timestampField)
	}
	return res
}

// Payload returns the wire form of the request. Instrument identifiers are
// case-normalized; the request itself is immutable once sent.
func (q *Request) Payload() (map[string]interface{}, error) {
	if len(q.rics) == 0 {
		return nil, errors.Reason("at least one instrument is required")
	}
	start, end := q.start, q.end
	if end.IsZero() {
		end = time.Now()
	}
	if start.IsZero() {
		start = end.Add(-defaultLookback)
	}
	if end.Before(start) {
		return nil, errors.Reason("end date %s precedes start date %s",
			end.Format(wireTimeFormat), start.Format(wireTimeFormat))
	}
	interval := q.interval
	if interval == "" {
		interval = Daily
	}
	if !in(interval, intervals) {
		return nil, errors.Reason("unsupported interval '%s'", interval)
	}
	payload := map[string]interface{}{
		"rics":      udf.NormalizeSymbols(q.rics),
		"fields":    payloadFields(q.fields),
		"interval":  string(interval),
		"startdate": start.Format(wireTimeFormat),
		"enddate":   end.Format(wireTimeFormat),
	}
	if q.count != 0 {
		if q.count < 0 {
			return nil, errors.Reason("count [%d] must be positive", q.count)
		}
		payload["count"] = q.count
	}
	if q.calendar != "" {
		if !in(q.calendar, calendars) {
			return nil, errors.Reason("unsupported calendar '%s'", q.calendar)
		}
		payload["calendar"] = string(q.calendar)
	}
	if q.corax != "" {
		if !in(q.corax, coraxes) {
			return nil, errors.Reason("unsupported corax '%s'", q.corax)
		}
		payload["corax"] = string(q.corax)
	}
	return payload, nil
}

// Fetch executes the request using the Client from the context and reshapes
// the response. The returned InstrumentErrors describe instruments that
// failed individually while the rest succeeded; the error is non-nil only
// for fatal outcomes, including the case when every instrument failed.
func (q *Request) Fetch(ctx context.Context) (*frame.Frame, []InstrumentError, error) {
	payload, err := q.Payload()
	if err != nil {
		return nil, nil, errors.Annotate(err, "invalid time series request")
	}
	var resp response
	if err := udf.SendJSONRequest(ctx, Endpoint, payload, &resp); err != nil {
		return nil, nil, err
	}
	if resp.Data == nil {
		return nil, nil, udf.NewError(udf.StructuralViolation, 0,
			"response carries no timeseriesData")
	}
	ok, instErrs, err := extract(ctx, resp.Data)
	if err != nil {
		return nil, instErrs, err
	}
	f, err := build(ok, q.normalize)
	if err != nil {
		return nil, instErrs, err
	}
	return f, instErrs, nil
}

// FetchRaw executes the request and returns the decoded response payload
// untouched, for callers that want the raw JSON structure instead of a
// frame.
func (q *Request) FetchRaw(ctx context.Context) (interface{}, error) {
	payload, err := q.Payload()
	if err != nil {
		return nil, errors.Annotate(err, "invalid time series request")
	}
	return udf.SendJSONRequestRaw(ctx, Endpoint, payload)
}
