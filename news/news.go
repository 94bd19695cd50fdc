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

// Package news retrieves news headlines and full story bodies.
package news

import (
	"context"
	"runtime"
	"strconv"
	"time"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/iterator"

	"github.com/dhirschfeld/eikon/frame"
	"github.com/dhirschfeld/eikon/udf"
)

// Proxy endpoint names.
const (
	HeadlinesEndpoint = "News_Headlines"
	StoryEndpoint     = "News_Story"
)

// DefaultQuery is the headline search used when the caller provides none:
// top news written in English.
const DefaultQuery = "Topic:TOPALL and Language:LEN"

// maxHeadlines is the upper bound the service accepts for one request.
const maxHeadlines = 100

const wireTimeFormat = "2006-01-02T15:04:05"

type headline struct {
	FirstCreated   string `json:"firstCreated"`
	VersionCreated string `json:"versionCreated"`
	Text           string `json:"text"`
	StoryID        string `json:"storyId"`
	SourceCode     string `json:"sourceCode"`
}

type headlinesResponse struct {
	Headlines []headline `json:"headlines"`
}

type storyResponse struct {
	Story struct {
		StoryHTML string `json:"storyHtml"`
	} `json:"story"`
}

func headlinesPayload(ctx context.Context, query string, count int, dateFrom, dateTo time.Time) (map[string]interface{}, error) {
	client := udf.GetClient(ctx)
	if client == nil {
		return nil, errors.Reason("no client in context")
	}
	if query == "" {
		query = DefaultQuery
	}
	if count == 0 {
		count = 10
	}
	if count < 0 || count > maxHeadlines {
		return nil, errors.Reason("count [%d] must be in [1..%d]", count, maxHeadlines)
	}
	p := map[string]interface{}{
		"number":          strconv.Itoa(count),
		"query":           query,
		"productName":     client.AppID(),
		"attributionCode": "",
	}
	if !dateFrom.IsZero() {
		p["dateFrom"] = dateFrom.Format(wireTimeFormat)
	}
	if !dateTo.IsZero() {
		p["dateTo"] = dateTo.Format(wireTimeFormat)
	}
	return p, nil
}

// GetHeadlines returns up to count news headlines matching the query (RIC
// codes, country names and operators AND, OR, NOT, IN). Zero count defaults
// to 10; zero dates leave the range open. The frame is indexed by the
// headline publication time with columns versionCreated, text, storyId and
// sourceCode.
func GetHeadlines(ctx context.Context, query string, count int, dateFrom, dateTo time.Time) (*frame.Frame, error) {
	p, err := headlinesPayload(ctx, query, count, dateFrom, dateTo)
	if err != nil {
		return nil, errors.Annotate(err, "invalid headlines request")
	}
	var resp headlinesResponse
	if err := udf.SendJSONRequest(ctx, HeadlinesEndpoint, p, &resp); err != nil {
		return nil, err
	}
	return buildFrame(resp.Headlines)
}

// GetHeadlinesRaw is GetHeadlines returning the decoded response payload
// untouched.
func GetHeadlinesRaw(ctx context.Context, query string, count int, dateFrom, dateTo time.Time) (interface{}, error) {
	p, err := headlinesPayload(ctx, query, count, dateFrom, dateTo)
	if err != nil {
		return nil, errors.Annotate(err, "invalid headlines request")
	}
	return udf.SendJSONRequestRaw(ctx, HeadlinesEndpoint, p)
}

func buildFrame(headlines []headline) (*frame.Frame, error) {
	index := make([]time.Time, len(headlines))
	version := make([]frame.Value, len(headlines))
	text := make([]frame.Value, len(headlines))
	storyID := make([]frame.Value, len(headlines))
	source := make([]frame.Value, len(headlines))
	for i, h := range headlines {
		t, err := frame.ParseTime(h.FirstCreated)
		if err != nil {
			return nil, udf.NewError(udf.StructuralViolation, 0,
				"headline %d has no parsable firstCreated: %s", i, err.Error())
		}
		index[i] = t
		version[i] = frame.Text(h.VersionCreated)
		text[i] = frame.Text(h.Text)
		storyID[i] = frame.Text(h.StoryID)
		source[i] = frame.Text(h.SourceCode)
	}
	f := frame.New(index)
	for _, col := range []struct {
		name  string
		cells []frame.Value
	}{
		{"versionCreated", version},
		{"text", text},
		{"storyId", storyID},
		{"sourceCode", source},
	} {
		if err := f.AddColumn(frame.Label{Field: col.name}, col.cells); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// GetStory returns the HTML body of a single story. Story ids come from the
// storyId column of GetHeadlines.
func GetStory(ctx context.Context, storyID string) (string, error) {
	client := udf.GetClient(ctx)
	if client == nil {
		return "", errors.Reason("no client in context")
	}
	p := map[string]interface{}{
		"attributionCode": "",
		"productName":     client.AppID(),
		"storyId":         storyID,
	}
	var resp storyResponse
	if err := udf.SendJSONRequest(ctx, StoryEndpoint, p, &resp); err != nil {
		return "", err
	}
	return resp.Story.StoryHTML, nil
}

type storyResult struct {
	index int
	html  string
	err   error
}

// GetStories fetches several story bodies concurrently. The result order
// matches the input order; the first failed story fails the whole call.
func GetStories(ctx context.Context, storyIDs ...string) ([]string, error) {
	indexes := make([]int, len(storyIDs))
	for i := range storyIDs {
		indexes[i] = i
	}
	f := func(i int) storyResult {
		html, err := GetStory(ctx, storyIDs[i])
		return storyResult{index: i, html: html, err: err}
	}
	pm := iterator.ParallelMap(ctx, 2*runtime.NumCPU(), iterator.FromSlice(indexes), f)
	defer pm.Close()

	results := iterator.Reduce[storyResult, []storyResult](pm, []storyResult{},
		func(r storyResult, acc []storyResult) []storyResult {
			return append(acc, r)
		})
	stories := make([]string, len(storyIDs))
	for _, r := range results {
		if r.err != nil {
			return nil, errors.Annotate(r.err, "failed to fetch story %s",
				storyIDs[r.index])
		}
		stories[r.index] = r.html
	}
	return stories, nil
}
