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

// Package metrics computes descriptive return and risk statistics of a single
// price series, optionally relative to a benchmark. Every function is pure and
// safe for concurrent use.
package metrics

import (
	"math"

	"github.com/penny-vault/pv-stats/data"
	"github.com/penny-vault/pv-stats/dataframe"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	MovingAverageColumn     = "MovingAverage"
	RollingVolatilityColumn = "RollingVolatility"
)

// Analyze builds the returns of prices and benchmark and computes a report.
// benchmark may be nil.
func Analyze(prices, benchmark *data.PriceSeries, params Params) (*Report, error) {
	returns, err := BuildReturns(prices)
	if err != nil {
		return nil, err
	}

	var benchmarkReturns *ReturnSeries
	if benchmark != nil {
		benchmarkReturns, err = BuildReturns(benchmark)
		if err != nil {
			return nil, err
		}
	}

	return Compute(prices, returns, benchmarkReturns, params)
}

// Compute calculates every metric of prices. returns must have been built from
// prices; benchmark may be nil in which case beta is exactly 1. Metrics whose
// denominator is zero, or whose defining subset is too small, are NaN and
// recorded in Report.Undefined; only invalid input fails the call.
func Compute(prices *data.PriceSeries, returns *ReturnSeries, benchmark *ReturnSeries, params Params) (*Report, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if err := validatePrices(prices); err != nil {
		return nil, err
	}

	if returns == nil {
		return nil, ErrSeriesMismatch
	}

	if err := checkReturns(prices, returns); err != nil {
		return nil, err
	}

	if benchmark != nil {
		if err := checkBenchmark(benchmark); err != nil {
			return nil, err
		}
	}

	adjClose := prices.Values(data.MetricAdjustedClose)
	r := returns.Values
	tdy := float64(params.TradingDaysPerYear)
	tdm := float64(params.TradingDaysPerMonth)

	report := &Report{
		Ticker:          prices.Security.Ticker,
		Start:           prices.Eod[0].Date,
		End:             prices.Eod[prices.Len()-1].Date,
		NumObservations: prices.Len(),
		Params:          params,
		Undefined:       make(map[string]error),
	}

	// extremes
	maxIdx, minIdx := extremes(adjClose)
	report.MaxPrice = adjClose[maxIdx]
	report.MaxDate = prices.Eod[maxIdx].Date
	report.MinPrice = adjClose[minIdx]
	report.MinDate = prices.Eod[minIdx].Date

	// returns
	first := adjClose[0]
	last := adjClose[len(adjClose)-1]
	n := float64(len(adjClose))
	report.CumulativeReturn = last/first - 1
	report.AnnualReturn = math.Pow(last/first, tdy/n) - 1

	// volatility
	volDefined := len(r) >= 2
	var stdDev float64
	if volDefined {
		stdDev = stat.StdDev(r, nil)
		report.AnnualVolatility = stdDev * math.Sqrt(tdy)
		report.MonthlyVolatility = stdDev * math.Sqrt(tdm)
	} else {
		report.undefine(AnnualVolatility, "need at least 2 returns, have %d", len(r))
		report.undefine(MonthlyVolatility, "need at least 2 returns, have %d", len(r))
	}

	// sharpe
	switch {
	case !volDefined:
		report.undefine(SharpeRatio, "annual volatility is undefined")
	case report.AnnualVolatility == 0:
		report.undefine(SharpeRatio, "annual volatility is zero")
	default:
		report.SharpeRatio = report.AnnualReturn / report.AnnualVolatility
	}

	// calmar
	worst := math.Abs(floats.Min(r) * math.Sqrt(tdy))
	if worst == 0 {
		report.undefine(CalmarRatio, "smallest return is zero")
	} else {
		report.CalmarRatio = report.AnnualReturn / worst
	}

	// stability
	priceStdDev := stat.StdDev(adjClose, nil)
	if priceStdDev == 0 {
		report.undefine(Stability, "price standard deviation is zero")
	} else {
		report.Stability = stat.Mean(adjClose, nil) / priceStdDev
	}

	// drawdown
	report.MaxDrawdown = maxDrawdown(prices)

	// omega
	switch {
	case !report.IsDefined(SharpeRatio):
		report.undefine(OmegaRatio, "sharpe ratio is undefined")
	case report.MaxDrawdown == 0:
		report.undefine(OmegaRatio, "max drawdown is zero")
	default:
		report.OmegaRatio = report.SharpeRatio / report.MaxDrawdown
	}

	// sortino
	negative := lo.Filter(r, func(v float64, _ int) bool {
		return v < 0
	})
	if len(negative) < 2 {
		report.undefine(SortinoRatio, "need at least 2 negative returns, have %d", len(negative))
	} else if downside := stat.StdDev(negative, nil); downside == 0 {
		report.undefine(SortinoRatio, "downside deviation is zero")
	} else {
		report.SortinoRatio = report.AnnualReturn / (downside * math.Sqrt(tdy))
	}

	// distribution shape
	switch {
	case len(r) < 3:
		report.undefine(Skewness, "need at least 3 returns, have %d", len(r))
	case stdDev == 0:
		report.undefine(Skewness, "return standard deviation is zero")
	default:
		report.Skewness = stat.Skew(r, nil)
	}

	switch {
	case len(r) < 4:
		report.undefine(Kurtosis, "need at least 4 returns, have %d", len(r))
	case stdDev == 0:
		report.undefine(Kurtosis, "return standard deviation is zero")
	default:
		report.Kurtosis = stat.ExKurtosis(r, nil)
	}

	computeBeta(report, returns, benchmark)

	// optional series
	if params.MovingAverage {
		report.MovingAverage = movingAverage(prices, params.MovingAverageWindow)
	}

	if params.RollingVolatility {
		report.RollingVolatility = rollingVolatility(prices, returns, params.TradingDaysPerMonth)
	}

	return report, nil
}

// extremes returns the index of the largest and smallest values; ties go to
// the earliest index
func extremes(vals []float64) (maxIdx, minIdx int) {
	for idx, v := range vals {
		if v > vals[maxIdx] {
			maxIdx = idx
		}
		if v < vals[minIdx] {
			minIdx = idx
		}
	}
	return
}

// maxDrawdown is the largest decline from the running peak divided by the
// highest peak. Always in [0, 1] for positive prices.
func maxDrawdown(prices *data.PriceSeries) float64 {
	df, _ := prices.DataFrame().Select(string(data.MetricAdjustedClose))
	peaks := df.CumMax()

	price := df.Vals[0]
	runMax := peaks.Vals[0]

	drawdowns := make([]float64, len(price))
	floats.SubTo(drawdowns, runMax, price)

	return floats.Max(drawdowns) / floats.Max(runMax)
}

func computeBeta(report *Report, returns, benchmark *ReturnSeries) {
	if benchmark == nil {
		report.Beta = 1.0
		return
	}

	report.Benchmark = benchmark.Ticker

	asset, bench := returns.DataFrame().Intersect(benchmark.DataFrame())
	if asset.Len() < 2 {
		report.undefine(Beta, "need at least 2 dates in common with the benchmark, have %d", asset.Len())
		return
	}

	variance := stat.Variance(bench.Vals[0], nil)
	if variance == 0 {
		report.undefine(Beta, "benchmark variance is zero")
		return
	}

	report.Beta = stat.Covariance(asset.Vals[0], bench.Vals[0], nil) / variance
}

// movingAverage is the simple moving average of Close keyed by price dates
func movingAverage(prices *data.PriceSeries, window int) *dataframe.DataFrame {
	closes, _ := prices.DataFrame().Select(string(data.MetricClose))
	ma := closes.SMA(window)
	ma.ColNames = []string{MovingAverageColumn}
	return ma
}

// rollingVolatility is the trailing sample standard deviation of returns over
// window periods scaled by sqrt(window), keyed by price dates. The first price
// has no return so the first window values are NaN.
func rollingVolatility(prices *data.PriceSeries, returns *ReturnSeries, window int) *dataframe.DataFrame {
	vals := make([]float64, 0, prices.Len())
	vals = append(vals, math.NaN())
	vals = append(vals, returns.Values...)

	df := &dataframe.DataFrame{
		Dates:    prices.Dates(),
		ColNames: []string{RollingVolatilityColumn},
		Vals:     [][]float64{vals},
	}

	return df.RollingStdDev(window).MulScalar(math.Sqrt(float64(window)))
}
