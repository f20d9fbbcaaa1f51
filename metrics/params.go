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

import "fmt"

const (
	DefaultTradingDaysPerYear  = 252
	DefaultTradingDaysPerMonth = 21
	DefaultMovingAverageWindow = 20
	MinMovingAverageWindow     = 5
	MaxMovingAverageWindow     = 100
)

// Params configures a single analysis. It is passed by value so that
// concurrent analyses never share state.
type Params struct {
	// TradingDaysPerYear is the annualization factor
	TradingDaysPerYear int `json:"tradingDaysPerYear" toml:"trading_days_per_year"`

	// TradingDaysPerMonth scales monthly volatility and is the rolling volatility window
	TradingDaysPerMonth int `json:"tradingDaysPerMonth" toml:"trading_days_per_month"`

	MovingAverage       bool `json:"movingAverage" toml:"moving_average"`
	MovingAverageWindow int  `json:"movingAverageWindow" toml:"moving_average_window"`
	RollingVolatility   bool `json:"rollingVolatility" toml:"rolling_volatility"`
}

func DefaultParams() Params {
	return Params{
		TradingDaysPerYear:  DefaultTradingDaysPerYear,
		TradingDaysPerMonth: DefaultTradingDaysPerMonth,
		MovingAverageWindow: DefaultMovingAverageWindow,
	}
}

// Validate returns an error wrapping ErrInvalidParams when a field is out of range.
// The moving average window is checked even when the moving average is off.
func (p Params) Validate() error {
	if p.TradingDaysPerYear <= 0 {
		return fmt.Errorf("%w: trading days per year must be positive, got %d", ErrInvalidParams, p.TradingDaysPerYear)
	}

	if p.TradingDaysPerMonth <= 0 {
		return fmt.Errorf("%w: trading days per month must be positive, got %d", ErrInvalidParams, p.TradingDaysPerMonth)
	}

	if p.MovingAverageWindow < MinMovingAverageWindow || p.MovingAverageWindow > MaxMovingAverageWindow {
		return fmt.Errorf("%w: moving average window must be between %d and %d, got %d", ErrInvalidParams,
			MinMovingAverageWindow, MaxMovingAverageWindow, p.MovingAverageWindow)
	}

	return nil
}
