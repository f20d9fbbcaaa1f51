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

package metrics

import (
	"fmt"
	"math"
	"time"

	"github.com/penny-vault/pv-stats/data"
	"github.com/penny-vault/pv-stats/dataframe"
)

// ReturnSeries holds the simple period-over-period returns of a price series.
// Dates[i] is the date of the later price of each pair, so the series is one
// shorter than the prices it was built from.
type ReturnSeries struct {
	Ticker string
	Dates  []time.Time
	Values []float64
}

func (r *ReturnSeries) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Values)
}

// DataFrame returns the series as a single column dataframe named after the ticker
func (r *ReturnSeries) DataFrame() *dataframe.DataFrame {
	return &dataframe.DataFrame{
		Dates:    r.Dates,
		ColNames: []string{r.Ticker},
		Vals:     [][]float64{r.Values},
	}
}

// BuildReturns computes return[i] = price[i]/price[i-1] - 1 over the adjusted
// close of prices. The first observation has no return and is dropped.
func BuildReturns(prices *data.PriceSeries) (*ReturnSeries, error) {
	if err := validatePrices(prices); err != nil {
		return nil, err
	}

	df := prices.DataFrame()
	adjClose, err := df.Select(string(data.MetricAdjustedClose))
	if err != nil {
		return nil, err
	}

	pct := adjClose.PctChange()

	return &ReturnSeries{
		Ticker: prices.Security.Ticker,
		Dates:  pct.Dates[1:],
		Values: pct.Vals[0][1:],
	}, nil
}

// validatePrices enforces the invariants every computation relies on
func validatePrices(prices *data.PriceSeries) error {
	if prices.Len() < 2 {
		return fmt.Errorf("%w: got %d", ErrInsufficientData, prices.Len())
	}

	for idx, bar := range prices.Eod {
		px := bar.AdjustedClose
		if math.IsNaN(px) || math.IsInf(px, 0) || px <= 0 {
			return fmt.Errorf("%w: adjusted close on %s is %v", ErrInvalidPrice, bar.Date.Format("2006-01-02"), px)
		}

		if idx > 0 && !prices.Eod[idx-1].Date.Before(bar.Date) {
			return fmt.Errorf("%w: %s follows %s", ErrUnsortedDates,
				bar.Date.Format("2006-01-02"), prices.Eod[idx-1].Date.Format("2006-01-02"))
		}
	}

	return nil
}

// checkReturns verifies that returns were built from prices
func checkReturns(prices *data.PriceSeries, returns *ReturnSeries) error {
	if returns.Len() != prices.Len()-1 || len(returns.Dates) != returns.Len() {
		return fmt.Errorf("%w: %d returns for %d prices", ErrSeriesMismatch, returns.Len(), prices.Len())
	}

	for idx, dt := range returns.Dates {
		if !dt.Equal(prices.Eod[idx+1].Date) {
			return fmt.Errorf("%w: return %d is dated %s, price is dated %s", ErrSeriesMismatch, idx,
				dt.Format("2006-01-02"), prices.Eod[idx+1].Date.Format("2006-01-02"))
		}
	}

	return nil
}

// checkBenchmark verifies the shape of a benchmark return series; its dates
// need not match the primary series.
func checkBenchmark(benchmark *ReturnSeries) error {
	if len(benchmark.Dates) != len(benchmark.Values) {
		return fmt.Errorf("%w: benchmark has %d dates and %d returns", ErrSeriesMismatch, len(benchmark.Dates), len(benchmark.Values))
	}

	for idx := 1; idx < len(benchmark.Dates); idx++ {
		if !benchmark.Dates[idx-1].Before(benchmark.Dates[idx]) {
			return fmt.Errorf("%w: benchmark %s follows %s", ErrUnsortedDates,
				benchmark.Dates[idx].Format("2006-01-02"), benchmark.Dates[idx-1].Format("2006-01-02"))
		}
	}

	return nil
}
