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

package dataframe

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// AddScalar adds the scalar value to all columns in dataframe df and returns a new dataframe
func (df *DataFrame) AddScalar(scalar float64) *DataFrame {
	df = df.Copy()

	for colIdx := range df.ColNames {
		for rowIdx := range df.Vals[colIdx] {
			df.Vals[colIdx][rowIdx] += scalar
		}
	}
	return df
}

// CumMax replaces each value with the largest value seen so far in its column and
// returns a new dataframe. NaN values are skipped and carry the previous maximum.
func (df *DataFrame) CumMax() *DataFrame {
	df = df.Copy()

	for colIdx := range df.Vals {
		runMax := math.NaN()
		for rowIdx, v := range df.Vals[colIdx] {
			if !math.IsNaN(v) && (math.IsNaN(runMax) || v > runMax) {
				runMax = v
			}
			df.Vals[colIdx][rowIdx] = runMax
		}
	}
	return df
}

// Div divides all columns in `df` by the corresponding column in `other` and returns a new dataframe.
// Panics if rows are not equal.
func (df *DataFrame) Div(other *DataFrame) *DataFrame {
	df = df.Copy()

	otherMap := make(map[string]int, len(other.ColNames))
	for idx, val := range other.ColNames {
		otherMap[val] = idx
	}

	for idx, colName := range df.ColNames {
		if otherIdx, ok := otherMap[colName]; ok {
			floats.Div(df.Vals[idx], other.Vals[otherIdx])
		}
	}
	return df
}

// MulScalar multiplies all columns in dataframe df by the scalar and returns a new dataframe
func (df *DataFrame) MulScalar(scalar float64) *DataFrame {
	df = df.Copy()

	for colIdx := range df.ColNames {
		floats.Scale(scalar, df.Vals[colIdx])
	}
	return df
}

// PctChange computes the fractional change between each row and the previous row,
// x[i]/x[i-1] - 1. The first row is NaN.
func (df *DataFrame) PctChange() *DataFrame {
	return df.Div(df.Lag(1)).AddScalar(-1)
}

// RollingStdDev computes the sample standard deviation of each column over a trailing
// window of lookback rows. Rows in the warm-up period, and windows containing NaN, are NaN.
func (df *DataFrame) RollingStdDev(lookback int) *DataFrame {
	return df.rolling(lookback, func(window []float64) float64 {
		if floats.HasNaN(window) {
			return math.NaN()
		}
		return stat.StdDev(window, nil)
	})
}

// SMA computes the simple moving average of all the columns in df for the specified
// lookback period. The length of the resulting dataframe equals that of the input with NaNs during the warm-up period.
// Invalid lookback periods result in a dataframe of all NaN.
// NOTE: lookback is in terms of date periods. if the dataframe is sampled monthly then SMA is monthly,
func (df *DataFrame) SMA(lookback int) *DataFrame {
	return df.rolling(lookback, func(window []float64) float64 {
		return stat.Mean(window, nil)
	})
}

// rolling applies fn to a trailing window of lookback rows. The window passed to fn is in
// filter bank order (not chronological); fn must not depend on order.
func (df *DataFrame) rolling(lookback int, fn func([]float64) float64) *DataFrame {
	vals := make([][]float64, df.ColCount())
	for colIdx := range vals {
		vals[colIdx] = make([]float64, df.Len())
	}

	res := &DataFrame{
		Dates:    df.Dates,
		Vals:     vals,
		ColNames: df.ColNames,
	}

	// check that lookback is a valid period
	if lookback > df.Len() || lookback <= 0 {
		for colIdx := range vals {
			for rowIdx := range vals[colIdx] {
				vals[colIdx][rowIdx] = math.NaN()
			}
		}
		return res
	}

	filterBank := make([][]float64, df.ColCount())
	for idx := range filterBank {
		filterBank[idx] = make([]float64, lookback)
	}

	warmup := true

	for rowIdx := range df.Dates {
		// if we have seen at least lookback rows then we are out of the warmup period
		// NOTE: row is 0 based, lookback is 1 based; hence the test applied below
		if rowIdx == (lookback - 1) {
			warmup = false
		}

		filterBankIdx := rowIdx % lookback

		for colIdx := range df.Vals {
			filterBank[colIdx][filterBankIdx] = df.Vals[colIdx][rowIdx]
			if warmup {
				vals[colIdx][rowIdx] = math.NaN()
			} else {
				vals[colIdx][rowIdx] = fn(filterBank[colIdx])
			}
		}
	}

	return res
}
