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
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/penny-vault/pv-stats/dataframe"
)

// Metric names used as keys in Report.Undefined, Report.Values and JSON output
const (
	MaxPrice          = "max_price"
	MinPrice          = "min_price"
	AnnualReturn      = "annual_return"
	CumulativeReturn  = "cumulative_return"
	AnnualVolatility  = "annual_volatility"
	MonthlyVolatility = "monthly_volatility"
	SharpeRatio       = "sharpe_ratio"
	CalmarRatio       = "calmar_ratio"
	Stability         = "stability"
	MaxDrawdown       = "max_drawdown"
	OmegaRatio        = "omega_ratio"
	SortinoRatio      = "sortino_ratio"
	Skewness          = "skewness"
	Kurtosis          = "kurtosis"
	Beta              = "beta"
)

// Report is the result of a single analysis. Undefined metrics are NaN and
// have an entry in Undefined explaining why.
type Report struct {
	Ticker          string
	Benchmark       string
	Start           time.Time
	End             time.Time
	NumObservations int
	Params          Params

	MaxPrice float64
	MaxDate  time.Time
	MinPrice float64
	MinDate  time.Time

	AnnualReturn      float64
	CumulativeReturn  float64
	AnnualVolatility  float64
	MonthlyVolatility float64
	SharpeRatio       float64
	CalmarRatio       float64
	Stability         float64
	MaxDrawdown       float64
	OmegaRatio        float64
	SortinoRatio      float64
	Skewness          float64
	Kurtosis          float64
	Beta              float64

	// MovingAverage is nil unless Params.MovingAverage is set
	MovingAverage *dataframe.DataFrame

	// RollingVolatility is nil unless Params.RollingVolatility is set
	RollingVolatility *dataframe.DataFrame

	Undefined map[string]error
}

type namedValue struct {
	name string
	val  *float64
}

// fields lists every scalar metric in display order
func (r *Report) fields() []namedValue {
	return []namedValue{
		{MaxPrice, &r.MaxPrice},
		{MinPrice, &r.MinPrice},
		{AnnualReturn, &r.AnnualReturn},
		{CumulativeReturn, &r.CumulativeReturn},
		{AnnualVolatility, &r.AnnualVolatility},
		{MonthlyVolatility, &r.MonthlyVolatility},
		{SharpeRatio, &r.SharpeRatio},
		{CalmarRatio, &r.CalmarRatio},
		{Stability, &r.Stability},
		{MaxDrawdown, &r.MaxDrawdown},
		{OmegaRatio, &r.OmegaRatio},
		{SortinoRatio, &r.SortinoRatio},
		{Skewness, &r.Skewness},
		{Kurtosis, &r.Kurtosis},
		{Beta, &r.Beta},
	}
}

// MetricNames returns the names of all scalar metrics in display order
func MetricNames() []string {
	r := &Report{}
	fields := r.fields()
	names := make([]string, len(fields))
	for idx, f := range fields {
		names[idx] = f.name
	}
	return names
}

// undefine sets the named metric to NaN and records why
func (r *Report) undefine(name string, format string, args ...interface{}) {
	for _, f := range r.fields() {
		if f.name == name {
			*f.val = math.NaN()
			break
		}
	}
	r.Undefined[name] = fmt.Errorf("%w: %s: %s", ErrUndefinedMetric, name, fmt.Sprintf(format, args...))
}

// IsDefined reports whether the named metric has a value
func (r *Report) IsDefined(name string) bool {
	_, undefined := r.Undefined[name]
	return !undefined
}

// Value returns the named metric; ok is false for unknown names
func (r *Report) Value(name string) (val float64, ok bool) {
	for _, f := range r.fields() {
		if f.name == name {
			return *f.val, true
		}
	}
	return math.NaN(), false
}

// Values returns every scalar metric keyed by name
func (r *Report) Values() map[string]float64 {
	fields := r.fields()
	res := make(map[string]float64, len(fields))
	for _, f := range fields {
		res[f.name] = *f.val
	}
	return res
}

type jsonPoint struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

type jsonReport struct {
	Ticker            string              `json:"ticker"`
	Benchmark         string              `json:"benchmark,omitempty"`
	Start             string              `json:"start"`
	End               string              `json:"end"`
	NumObservations   int                 `json:"observations"`
	Params            Params              `json:"params"`
	Metrics           map[string]*float64 `json:"metrics"`
	MaxDate           string              `json:"maxDate"`
	MinDate           string              `json:"minDate"`
	MovingAverage     []jsonPoint         `json:"movingAverage,omitempty"`
	RollingVolatility []jsonPoint         `json:"rollingVolatility,omitempty"`
	Undefined         map[string]string   `json:"undefined,omitempty"`
}

// nullable maps NaN and infinities to nil so they encode as JSON null
func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func seriesToJSON(df *dataframe.DataFrame) []jsonPoint {
	if df == nil || df.ColCount() == 0 {
		return nil
	}

	points := make([]jsonPoint, df.Len())
	for idx, dt := range df.Dates {
		points[idx] = jsonPoint{
			Date:  dt.Format("2006-01-02"),
			Value: nullable(df.Vals[0][idx]),
		}
	}
	return points
}

// MarshalJSON encodes undefined metrics as null
func (r *Report) MarshalJSON() ([]byte, error) {
	out := jsonReport{
		Ticker:            r.Ticker,
		Benchmark:         r.Benchmark,
		Start:             r.Start.Format("2006-01-02"),
		End:               r.End.Format("2006-01-02"),
		NumObservations:   r.NumObservations,
		Params:            r.Params,
		Metrics:           make(map[string]*float64),
		MaxDate:           r.MaxDate.Format("2006-01-02"),
		MinDate:           r.MinDate.Format("2006-01-02"),
		MovingAverage:     seriesToJSON(r.MovingAverage),
		RollingVolatility: seriesToJSON(r.RollingVolatility),
	}

	for _, f := range r.fields() {
		out.Metrics[f.name] = nullable(*f.val)
	}

	if len(r.Undefined) > 0 {
		out.Undefined = make(map[string]string, len(r.Undefined))
		for k, v := range r.Undefined {
			out.Undefined[k] = v.Error()
		}
	}

	return json.Marshal(out)
}

// Table renders the scalar metrics as an ASCII table; undefined values are N/A
func (r *Report) Table() string {
	s := &strings.Builder{}
	table := tablewriter.NewWriter(s)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetBorder(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	caption := fmt.Sprintf("%s %s to %s (%d observations)", r.Ticker,
		r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"), r.NumObservations)
	if r.Benchmark != "" {
		caption += fmt.Sprintf(", benchmark %s", r.Benchmark)
	}
	table.SetCaption(true, caption)

	for _, f := range r.fields() {
		val := "N/A"
		if r.IsDefined(f.name) && !math.IsNaN(*f.val) {
			val = fmt.Sprintf("%.4f", *f.val)
		}

		switch f.name {
		case MaxPrice:
			val = fmt.Sprintf("%s (%s)", val, r.MaxDate.Format("2006-01-02"))
		case MinPrice:
			val = fmt.Sprintf("%s (%s)", val, r.MinDate.Format("2006-01-02"))
		}

		table.Append([]string{f.name, val})
	}

	table.Render()
	return s.String()
}
