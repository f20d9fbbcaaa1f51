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

// Package chart renders PNG line charts of analysis results
package chart

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/penny-vault/pv-stats/data"
	"github.com/penny-vault/pv-stats/dataframe"
	"github.com/penny-vault/pv-stats/metrics"
	"github.com/samber/lo"
	charts "github.com/vicanso/go-charts/v2"
	"gonum.org/v1/gonum/floats"
)

type Kind string

const (
	KindPrice      Kind = "price"
	KindVolatility Kind = "volatility"
)

const (
	width  = 1000
	height = 600
)

var (
	ErrUnknownKind  = errors.New("unknown chart kind")
	ErrSeriesAbsent = errors.New("series was not computed")
	ErrNoData       = errors.New("nothing to plot")
)

// ParseKind maps a query value onto a Kind; the empty string selects KindPrice
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(s)) {
	case "", KindPrice:
		return KindPrice, nil
	case KindVolatility:
		return KindVolatility, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Render draws the chart of the requested kind as PNG
func Render(kind Kind, prices *data.PriceSeries, report *metrics.Report) ([]byte, error) {
	switch kind {
	case KindPrice:
		return Price(prices, report)
	case KindVolatility:
		return Volatility(report)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Price plots the close and, when the report carries one, the moving average.
// The plot starts where the moving average is first defined.
func Price(prices *data.PriceSeries, report *metrics.Report) ([]byte, error) {
	if prices.Len() == 0 {
		return nil, ErrNoData
	}

	df, err := prices.DataFrame().Select(string(data.MetricClose))
	if err != nil {
		return nil, err
	}

	// a moving average that is never defined is left off the chart
	if report != nil && report.MovingAverage != nil {
		withMA := df.Copy().Insert(fmt.Sprintf("SMA(%d)", report.Params.MovingAverageWindow),
			report.MovingAverage.Copy().Vals[0]).Drop(math.NaN())
		if withMA.Len() > 0 {
			df = withMA
		}
	}

	if df.Len() == 0 {
		return nil, ErrNoData
	}

	title := fmt.Sprintf("%s • %s to %s", prices.Security.Ticker,
		df.Start().Format("2006-01-02"), df.End().Format("2006-01-02"))
	return render(title, df.ColNames, df)
}

// Volatility plots the rolling volatility over its defined range
func Volatility(report *metrics.Report) ([]byte, error) {
	if report == nil || report.RollingVolatility == nil {
		return nil, ErrSeriesAbsent
	}

	df := report.RollingVolatility.Copy().Drop(math.NaN())
	if df.Len() == 0 {
		return nil, ErrNoData
	}

	title := fmt.Sprintf("%s • rolling %d day volatility", report.Ticker, report.Params.TradingDaysPerMonth)
	return render(title, []string{metrics.RollingVolatilityColumn}, df)
}

func render(title string, names []string, df *dataframe.DataFrame) ([]byte, error) {
	xLabels := lo.Map(df.Dates, func(dt time.Time, _ int) string {
		return dt.Format("2006-01-02")
	})

	yMin, yMax := bounds(df.Vals)

	// fewer x labels on short series
	splitNum := 6
	if len(xLabels) <= 30 {
		splitNum = max(len(xLabels)/3, 1)
	}

	p, err := charts.LineRender(
		df.Vals,
		charts.TitleTextOptionFunc(title),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        xLabels,
			SplitNumber: splitNum,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{
			Min:         &yMin,
			Max:         &yMax,
			DivideCount: 5,
		}),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: names,
			Top:  charts.PositionTop,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(width),
		charts.HeightOptionFunc(height),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}

	return buf, nil
}

// bounds pads the range of all columns by 5%
func bounds(cols [][]float64) (float64, float64) {
	minVal := math.Inf(1)
	maxVal := math.Inf(-1)
	for _, col := range cols {
		minVal = math.Min(minVal, floats.Min(col))
		maxVal = math.Max(maxVal, floats.Max(col))
	}

	padding := (maxVal - minVal) * 0.05
	if padding == 0 {
		padding = math.Abs(maxVal) * 0.05
	}
	if padding == 0 {
		padding = 1
	}

	return minVal - padding, maxVal + padding
}
