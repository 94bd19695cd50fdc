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

// Package symbology converts instrument identifiers between coding schemes,
// e.g. SEDOL codes to RICs.
package symbology

import (
	"context"
	"strings"

	"github.com/stockparfait/errors"
	"golang.org/x/exp/slices"

	"github.com/dhirschfeld/eikon/frame"
	"github.com/dhirschfeld/eikon/udf"
)

// Endpoint is the proxy endpoint name serving symbol conversions.
const Endpoint = "SymbologySearch"

// SymbolType names an instrument coding scheme.
type SymbolType string

// Supported symbol types.
const (
	RIC      = SymbolType("RIC")
	ISIN     = SymbolType("ISIN")
	CUSIP    = SymbolType("CUSIP")
	SEDOL    = SymbolType("SEDOL")
	Ticker   = SymbolType("ticker")
	LipperID = SymbolType("LipperID")
	IMO      = SymbolType("IMO")
	OAPermID = SymbolType("OAPermID")
)

var symbolTypes = []SymbolType{
	RIC, ISIN, CUSIP, SEDOL, Ticker, LipperID, IMO, OAPermID}

// canonical resolves a case-insensitive symbol type name to its wire form.
func canonical(tp SymbolType) (SymbolType, error) {
	for _, st := range symbolTypes {
		if strings.EqualFold(string(tp), string(st)) {
			return st, nil
		}
	}
	return "", errors.Reason("symbol type '%s' is not one of %v", tp, symbolTypes)
}

type response struct {
	MappedSymbols []map[string]interface{} `json:"mappedSymbols"`
}

// payload builds the wire form of a conversion request. An empty "to" list
// requests all target symbol types.
func payload(symbols []string, from SymbolType, to []SymbolType, bestMatch bool) (map[string]interface{}, error) {
	if len(symbols) == 0 {
		return nil, errors.Reason("at least one symbol is required")
	}
	fromType, err := canonical(from)
	if err != nil {
		return nil, errors.Annotate(err, "invalid source symbol type")
	}
	if fromType == RIC {
		symbols = udf.NormalizeSymbols(symbols)
	}
	p := map[string]interface{}{
		"symbols":       symbols,
		"from":          string(fromType),
		"bestMatchOnly": bestMatch,
	}
	if len(to) > 0 {
		toTypes := make([]string, len(to))
		for i, tp := range to {
			t, err := canonical(tp)
			if err != nil {
				return nil, errors.Annotate(err, "invalid target symbol type")
			}
			toTypes[i] = string(t)
		}
		p["to"] = toTypes
	}
	return p, nil
}

// Get converts instrument identifiers from one coding scheme into others.
// An empty "to" list requests all schemes. With bestMatch only the primary
// symbol of each scheme is returned. The result is an indexless frame with
// one row per requested symbol; a symbol the service could not map yields
// missing cells.
func Get(ctx context.Context, symbols []string, from SymbolType, to []SymbolType, bestMatch bool) (*frame.Frame, error) {
	p, err := payload(symbols, from, to, bestMatch)
	if err != nil {
		return nil, errors.Annotate(err, "invalid symbology request")
	}
	var resp response
	if err := udf.SendJSONRequest(ctx, Endpoint, p, &resp); err != nil {
		return nil, err
	}
	if resp.MappedSymbols == nil {
		return nil, udf.NewError(udf.StructuralViolation, 0,
			"response carries no mappedSymbols")
	}
	return buildFrame(resp.MappedSymbols, bestMatch)
}

// GetRaw is Get returning the decoded response payload untouched.
func GetRaw(ctx context.Context, symbols []string, from SymbolType, to []SymbolType, bestMatch bool) (interface{}, error) {
	p, err := payload(symbols, from, to, bestMatch)
	if err != nil {
		return nil, errors.Annotate(err, "invalid symbology request")
	}
	return udf.SendJSONRequestRaw(ctx, Endpoint, p)
}

// buildFrame tabulates the mapped symbols: the requested symbol down the
// rows, one column per mapped scheme. Column order is the sorted union of
// the schemes present in the response.
func buildFrame(mapped []map[string]interface{}, bestMatch bool) (*frame.Frame, error) {
	rows := make([]map[string]interface{}, len(mapped))
	requested := make([]frame.Value, len(mapped))
	keys := []string{}
	seen := make(map[string]bool)
	for i, m := range mapped {
		symbol, _ := m["symbol"].(string)
		requested[i] = frame.Text(symbol)
		row := m
		if bestMatch {
			best, ok := m["bestMatch"].(map[string]interface{})
			if !ok {
				return nil, udf.NewError(udf.StructuralViolation, 0,
					"mapped symbol %s carries no bestMatch", symbol)
			}
			row = best
		}
		rows[i] = row
		for k, v := range row {
			if k == "symbol" || k == "bestMatch" {
				continue
			}
			if _, isNested := v.(map[string]interface{}); isNested {
				continue
			}
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	slices.Sort(keys)

	f := frame.NewIndexless(len(mapped))
	if err := f.AddColumn(frame.Label{Field: "Symbol"}, requested); err != nil {
		return nil, err
	}
	for _, k := range keys {
		cells := make([]frame.Value, len(rows))
		for i, row := range rows {
			cells[i] = frame.FromJSON(row[k])
		}
		if err := f.AddColumn(frame.Label{Field: k}, cells); err != nil {
			return nil, err
		}
	}
	return f, nil
}
