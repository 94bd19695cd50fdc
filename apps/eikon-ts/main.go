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

package main

import (
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"

	"github.com/dhirschfeld/eikon/frame"
	"github.com/dhirschfeld/eikon/timeseries"
	"github.com/dhirschfeld/eikon/udf"

	toml "github.com/pelletier/go-toml/v2"
)

type Flags struct {
	Config    string // default: ~/.eikon/config.toml
	RICs      string // comma-separated instruments (required)
	Fields    string // comma-separated fields; default: all
	Start     string // start date, YYYY-MM-DD
	End       string // end date, YYYY-MM-DD
	Interval  string
	Count     int
	Normalize bool
	CSV       bool // dump CSV format; default: text
	LogLevel  logging.Level
}

func parseFlags(args []string) (*Flags, error) {
	var flags Flags
	fs := flag.NewFlagSet("eikon-ts", flag.ExitOnError)
	fs.StringVar(&flags.Config, "config",
		filepath.Join(os.Getenv("HOME"), ".eikon", "config.toml"),
		"configuration file path")
	fs.StringVar(&flags.RICs, "rics", "",
		"comma-separated instruments, e.g. 'AAPL.O,MSFT.O' (required)")
	fs.StringVar(&flags.Fields, "fields", "",
		"comma-separated fields, e.g. 'OPEN,CLOSE'; default: all")
	fs.StringVar(&flags.Start, "start", "", "start date, YYYY-MM-DD")
	fs.StringVar(&flags.End, "end", "", "end date, YYYY-MM-DD")
	fs.StringVar(&flags.Interval, "interval", string(timeseries.Daily),
		"data interval: tick, minute, hour, daily, weekly, monthly, quarterly, yearly")
	fs.IntVar(&flags.Count, "count", 0, "max. number of data points; 0 = unlimited")
	fs.BoolVar(&flags.Normalize, "normalize", false,
		"print the long form: one row per (date, instrument, field)")
	fs.BoolVar(&flags.CSV, "csv", false, "print table in CSV format; default: text")
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")

	err := fs.Parse(args)
	if err != nil {
		return nil, err
	}
	if flags.RICs == "" {
		return nil, errors.Reason("missing required -rics argument")
	}
	return &flags, err
}

type Config struct {
	AppID   string `toml:"app_id"` // application id registered with the proxy
	Port    int    `toml:"port"`   // fixed proxy port; default: discover
	URL     string `toml:"url"`    // fixed endpoint URL; overrides port
	Timeout int    `toml:"timeout_sec"`
}

func parseConfig(filePath string) (*Config, error) {
	if _, err := os.Stat(filePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			sample := `app_id = "YourApplicationID"
`
			err = errors.Annotate(err,
				"config file '%s' does not exist.\nPlease create config file containing:\n%s",
				filePath, sample)
			return nil, err
		} else {
			return nil, errors.Annotate(err,
				"cannot check config file for existence: '%s'", filePath)
		}
	}
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Annotate(err, "failed to open config file %s", filePath)
	}
	defer f.Close()

	d := toml.NewDecoder(f)
	var c Config
	if err := d.Decode(&c); err != nil {
		return nil, errors.Annotate(err, "failed to read config file %s", filePath)
	}
	if c.AppID == "" {
		return nil, errors.Reason("config file %s must set app_id", filePath)
	}
	return &c, nil
}

// splitList splits a comma-separated flag value, dropping empty items.
func splitList(s string) []string {
	var res []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			res = append(res, item)
		}
	}
	return res
}

func buildRequest(flags *Flags) (*timeseries.Request, error) {
	q := timeseries.NewRequest(splitList(flags.RICs)...)
	if fields := splitList(flags.Fields); len(fields) > 0 {
		q = q.Fields(fields...)
	}
	if flags.Start != "" {
		t, err := frame.ParseTime(flags.Start)
		if err != nil {
			return nil, errors.Annotate(err, "invalid -start date")
		}
		q = q.Start(t)
	}
	if flags.End != "" {
		t, err := frame.ParseTime(flags.End)
		if err != nil {
			return nil, errors.Annotate(err, "invalid -end date")
		}
		q = q.End(t)
	}
	q = q.Interval(timeseries.Interval(flags.Interval))
	if flags.Count > 0 {
		q = q.Count(flags.Count)
	}
	if flags.Normalize {
		q = q.Normalize()
	}
	return q, nil
}

func printSeries(ctx context.Context, flags *Flags, w io.Writer) error {
	config, err := parseConfig(flags.Config)
	if err != nil {
		return errors.Annotate(err, "failed to parse config")
	}
	var opts []udf.Option
	if config.URL != "" {
		opts = append(opts, udf.WithURL(config.URL))
	} else if config.Port != 0 {
		opts = append(opts, udf.WithPort(config.Port))
	}
	if config.Timeout > 0 {
		opts = append(opts, udf.WithTimeout(time.Duration(config.Timeout)*time.Second))
	}
	client, err := udf.NewClient(ctx, config.AppID, opts...)
	if err != nil {
		return errors.Annotate(err, "failed to create client")
	}
	ctx = udf.UseClient(ctx, client)

	q, err := buildRequest(flags)
	if err != nil {
		return errors.Annotate(err, "failed to build request")
	}
	f, instErrs, err := q.Fetch(ctx)
	if err != nil {
		return errors.Annotate(err, "failed to fetch time series")
	}
	for _, ie := range instErrs {
		logging.Warningf(ctx, "skipped %s: %s", ie.Ric, ie.Message)
	}
	if flags.CSV {
		if err := f.WriteCSV(w, frame.Params{}); err != nil {
			return errors.Annotate(err, "failed to print CSV")
		}
		return nil
	}
	if err := f.WriteText(w, frame.Params{}); err != nil {
		return errors.Annotate(err, "failed to print text")
	}
	return nil
}

func main() {
	ctx := context.Background()
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		ctx = logging.Use(ctx, logging.DefaultGoLogger(logging.Info))
		logging.Errorf(ctx, "failed to parse flags: %s", err.Error())
		os.Exit(1)
	}
	ctx = logging.Use(ctx, logging.DefaultGoLogger(flags.LogLevel))

	if err := printSeries(ctx, flags, os.Stdout); err != nil {
		logging.Errorf(ctx, err.Error())
		os.Exit(1)
	}
}
