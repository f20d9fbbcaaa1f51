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

package data

import (
	"strings"
	"time"

	"github.com/penny-vault/pv-stats/dataframe"
	"github.com/samber/lo"
)

// Security represents a tradeable asset
type Security struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name,omitempty"`
}

// NewSecurity normalizes the ticker to upper case
func NewSecurity(ticker string) *Security {
	return &Security{
		Ticker: strings.ToUpper(strings.TrimSpace(ticker)),
	}
}

type Metric string

const (
	MetricOpen          Metric = "Open"
	MetricHigh          Metric = "High"
	MetricLow           Metric = "Low"
	MetricClose         Metric = "Close"
	MetricAdjustedClose Metric = "AdjustedClose"
	MetricVolume        Metric = "Volume"
)

// EodMetrics is the column order used by PriceSeries.DataFrame and exports
var EodMetrics = []Metric{
	MetricOpen,
	MetricHigh,
	MetricLow,
	MetricClose,
	MetricAdjustedClose,
	MetricVolume,
}

// Eod is a single end-of-day bar
type Eod struct {
	Date          time.Time `json:"date"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`
	AdjustedClose float64   `json:"adjClose"`
	Volume        int64     `json:"volume"`
}

// Value returns the requested metric for the bar
func (e *Eod) Value(metric Metric) float64 {
	switch metric {
	case MetricOpen:
		return e.Open
	case MetricHigh:
		return e.High
	case MetricLow:
		return e.Low
	case MetricClose:
		return e.Close
	case MetricAdjustedClose:
		return e.AdjustedClose
	case MetricVolume:
		return float64(e.Volume)
	default:
		return 0
	}
}

// PriceSeries is the end-of-day history of a single security ordered by date.
// It is treated as immutable once returned by a provider.
type PriceSeries struct {
	Security Security `json:"security"`
	Eod      []*Eod   `json:"eod"`
}

func (ps *PriceSeries) Len() int {
	if ps == nil {
		return 0
	}
	return len(ps.Eod)
}

func (ps *PriceSeries) Dates() []time.Time {
	return lo.Map(ps.Eod, func(e *Eod, _ int) time.Time {
		return e.Date
	})
}

// Values returns the column for metric in date order
func (ps *PriceSeries) Values(metric Metric) []float64 {
	return lo.Map(ps.Eod, func(e *Eod, _ int) float64 {
		return e.Value(metric)
	})
}

// DataFrame returns the series as a dataframe with one column per EodMetrics entry
func (ps *PriceSeries) DataFrame() *dataframe.DataFrame {
	df := &dataframe.DataFrame{
		Dates:    ps.Dates(),
		ColNames: make([]string, 0, len(EodMetrics)),
		Vals:     make([][]float64, 0, len(EodMetrics)),
	}

	for _, metric := range EodMetrics {
		df.Insert(string(metric), ps.Values(metric))
	}

	return df
}

// Trim returns the bars between begin and end (inclusive). The bars are shared
// with ps.
func (ps *PriceSeries) Trim(begin, end time.Time) *PriceSeries {
	return &PriceSeries{
		Security: ps.Security,
		Eod: lo.Filter(ps.Eod, func(e *Eod, _ int) bool {
			return !e.Date.Before(begin) && !e.Date.After(end)
		}),
	}
}

// In converts every date to the given location
func (ps *PriceSeries) In(loc *time.Location) *PriceSeries {
	for _, e := range ps.Eod {
		e.Date = e.Date.In(loc)
	}
	return ps
}
