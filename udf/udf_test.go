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
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stockparfait/fetch"

	. "github.com/smartystreets/goconvey/convey"
)

func TestClient(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	Convey("NewClient requires an application id", t, func() {
		_, err := NewClient(ctx, "")
		So(err, ShouldNotBeNil)
	})

	Convey("a fixed URL skips port discovery", t, func() {
		client, err := NewClient(ctx, "APPID",
			WithURL("http://localhost:9000/api/v1/data"))
		So(err, ShouldBeNil)
		So(client.AppID(), ShouldEqual, "APPID")
		So(client.URL(), ShouldEqual, "http://localhost:9000/api/v1/data")
	})

	Convey("WithPort fixes the endpoint URL", t, func() {
		client, err := NewClient(ctx, "APPID", WithPort(9060))
		So(err, ShouldBeNil)
		So(client.URL(), ShouldEqual, "http://localhost:9060/api/v1/data")
	})

	Convey("UseClient and GetClient", t, func() {
		So(GetClient(ctx), ShouldBeNil)
		client, err := NewClient(ctx, "APPID", WithPort(9060))
		So(err, ShouldBeNil)
		So(GetClient(UseClient(ctx, client)), ShouldEqual, client)
	})
}

func TestNormalizeSymbols(t *testing.T) {
	t.Parallel()

	Convey("NormalizeSymbols", t, func() {
		So(NormalizeSymbols([]string{"aapl.o", " MSFT.O ", "VOD.l"}),
			ShouldResemble, []string{"AAPL.O", "MSFT.O", "VOD.l"})
	})
}

func TestSendJSONRequest(t *testing.T) {
	t.Parallel()

	Convey("SendJSONRequest", t, func() {
		ctx := context.Background()

		Convey("requires a client in the context", func() {
			So(SendJSONRequest(ctx, "TimeSeries", nil, nil), ShouldNotBeNil)
		})

		Convey("posts the envelope and decodes the response", func() {
			server := fetch.NewTestServer()
			defer server.Close()
			server.ResponseBody = []string{`{"mappedSymbols": [{"symbol": "A"}]}`}

			client, err := NewClient(ctx, "APPID",
				WithURL(server.URL()+"/api/v1/data"),
				WithHTTPClient(server.Client()))
			So(err, ShouldBeNil)
			ctx := UseClient(ctx, client)

			var res struct {
				MappedSymbols []map[string]interface{} `json:"mappedSymbols"`
			}
			payload := map[string]interface{}{"symbols": []string{"A"}}
			So(SendJSONRequest(ctx, "SymbologySearch", payload, &res), ShouldBeNil)
			So(server.RequestPath, ShouldEqual, "/api/v1/data")
			So(res.MappedSymbols, ShouldResemble, []map[string]interface{}{
				{"symbol": "A"}})
		})

		Convey("wraps the payload in the request envelope", func() {
			var captured []byte
			var appIDHeader, contentType string
			server := httptest.NewServer(http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {
					captured, _ = io.ReadAll(r.Body)
					appIDHeader = r.Header.Get("x-tr-applicationid")
					contentType = r.Header.Get("Content-Type")
					w.Write([]byte(`{}`))
				}))
			defer server.Close()

			client, err := NewClient(ctx, "APPID", WithURL(server.URL))
			So(err, ShouldBeNil)
			ctx := UseClient(ctx, client)

			payload := map[string]interface{}{"rics": []string{"AAPL.O"}}
			So(SendJSONRequest(ctx, "TimeSeries", payload, nil), ShouldBeNil)
			So(appIDHeader, ShouldEqual, "APPID")
			So(contentType, ShouldEqual, "application/json")

			var sent map[string]interface{}
			So(json.Unmarshal(captured, &sent), ShouldBeNil)
			So(sent, ShouldResemble, map[string]interface{}{
				"Entity": map[string]interface{}{
					"E": "TimeSeries",
					"W": map[string]interface{}{"rics": []interface{}{"AAPL.O"}},
				},
				"ID": "123",
			})
		})

		Convey("401 is an authentication failure", func() {
			server := httptest.NewServer(http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusUnauthorized)
					w.Write([]byte("Bad application id"))
				}))
			defer server.Close()

			client, err := NewClient(ctx, "APPID", WithURL(server.URL))
			So(err, ShouldBeNil)
			ctx := UseClient(ctx, client)

			err = SendJSONRequest(ctx, "TimeSeries", nil, nil)
			e, ok := err.(*Error)
			So(ok, ShouldBeTrue)
			So(e.Kind, ShouldEqual, AuthenticationFailure)
			So(e.Code, ShouldEqual, 401)
			So(e.Message, ShouldEqual, "Bad application id")
		})

		Convey("a non-200 status is a transport error", func() {
			server := httptest.NewServer(http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusBadGateway)
				}))
			defer server.Close()

			client, err := NewClient(ctx, "APPID", WithURL(server.URL))
			So(err, ShouldBeNil)
			ctx := UseClient(ctx, client)

			err = SendJSONRequest(ctx, "TimeSeries", nil, nil)
			e, ok := err.(*Error)
			So(ok, ShouldBeTrue)
			So(e.Kind, ShouldEqual, TransportError)
			So(e.Code, ShouldEqual, 502)
		})

		Convey("a connection failure means no proxy is running", func() {
			server := httptest.NewServer(http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {}))
			url := server.URL
			server.Close()

			client, err := NewClient(ctx, "APPID", WithURL(url))
			So(err, ShouldBeNil)
			ctx := UseClient(ctx, client)

			err = SendJSONRequest(ctx, "TimeSeries", nil, nil)
			e, ok := err.(*Error)
			So(ok, ShouldBeTrue)
			So(e.Kind, ShouldEqual, TransportUnreachable)
		})

		Convey("a 200 error in disguise is classified", func() {
			server := fetch.NewTestServer()
			defer server.Close()
			server.ResponseBody = []string{
				`{"ErrorCode": 1422, "ErrorMessage": "No data available"}`}

			client, err := NewClient(ctx, "APPID",
				WithURL(server.URL()+"/api/v1/data"),
				WithHTTPClient(server.Client()))
			So(err, ShouldBeNil)
			ctx := UseClient(ctx, client)

			err = SendJSONRequest(ctx, "TimeSeries", nil, nil)
			e, ok := err.(*Error)
			So(ok, ShouldBeTrue)
			So(e.Kind, ShouldEqual, ServiceError)
			So(e.Code, ShouldEqual, 1422)
		})

		Convey("a shape mismatch is a structural violation", func() {
			server := fetch.NewTestServer()
			defer server.Close()
			server.ResponseBody = []string{`{"timeseriesData": "not a list"}`}

			client, err := NewClient(ctx, "APPID",
				WithURL(server.URL()+"/api/v1/data"),
				WithHTTPClient(server.Client()))
			So(err, ShouldBeNil)
			ctx := UseClient(ctx, client)

			var res struct {
				Data []interface{} `json:"timeseriesData"`
			}
			err = SendJSONRequest(ctx, "TimeSeries", nil, &res)
			e, ok := err.(*Error)
			So(ok, ShouldBeTrue)
			So(e.Kind, ShouldEqual, StructuralViolation)
		})
	})
}
