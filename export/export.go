// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package export writes raw price series to CSV and XLSX
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/penny-vault/pv-stats/data"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

var (
	ErrUnknownFormat = errors.New("unknown export format")
	ErrNoData        = errors.New("price series is empty")
)

// header is the first row of every export
func header() []string {
	return append([]string{"Date"}, lo.Map(data.EodMetrics, func(m data.Metric, _ int) string {
		return string(m)
	})...)
}

// Write encodes series to w in the requested format
func Write(w io.Writer, format string, series *data.PriceSeries) error {
	if series.Len() == 0 {
		return ErrNoData
	}

	switch strings.ToLower(format) {
	case FormatCSV:
		return WriteCSV(w, series)
	case FormatXLSX:
		return WriteXLSX(w, series)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ContentType returns the MIME type of format
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv"
	}
}

// FileName is the suggested download name, e.g. SPY_2021-01-04_2021-12-31.csv
func FileName(series *data.PriceSeries, format string) string {
	if series.Len() == 0 {
		return fmt.Sprintf("%s.%s", series.Security.Ticker, strings.ToLower(format))
	}

	return fmt.Sprintf("%s_%s_%s.%s", series.Security.Ticker,
		series.Eod[0].Date.Format("2006-01-02"),
		series.Eod[series.Len()-1].Date.Format("2006-01-02"),
		strings.ToLower(format))
}

// price rounds half away from zero to 2 decimals
func price(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}
