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
	"time"

	"github.com/stockparfait/errors"
)

// timeFormats accepted for index timestamps, most specific first.
var timeFormats = []string{
	"2006-01-02T15:04:05.999Z",
	"2006-01-02T15:04:05.999",
	"2006-01-02 15:04:05.999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses a wire timestamp into a typed time value in UTC. The
// proxy emits several timestamp flavors depending on the endpoint and the
// interval, hence the format list.
func ParseTime(s string) (time.Time, error) {
	var err error
	for _, format := range timeFormats {
		var t time.Time
		t, err = time.Parse(format, s)
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Annotate(err, "failed to parse time '%s'", s)
}
