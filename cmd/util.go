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

package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/penny-vault/pv-stats/common"
	"github.com/penny-vault/pv-stats/data"
	"github.com/penny-vault/pv-stats/data/database"
	"github.com/penny-vault/pv-stats/metrics"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	dateLayout       = "2006-01-02"
	defaultStartDate = "1990-01-01"
)

// newManager builds the data manager described by the data.* and cache.* keys
func newManager(ctx context.Context) (*data.Manager, error) {
	kind := viper.GetString("data.provider")
	if strings.EqualFold(kind, "pvdb") {
		if err := database.Connect(ctx); err != nil {
			return nil, err
		}
	}

	provider, err := data.NewProvider(kind)
	if err != nil {
		return nil, err
	}

	var cache *common.Cache
	if viper.GetInt("cache.local_size") > 0 {
		cache, err = common.SetupCache()
		if err != nil {
			return nil, err
		}
	} else {
		log.Info().Msg("price cache disabled")
	}

	log.Debug().Str("Provider", provider.DataType()).Bool("Cache", cache != nil).Msg("initialized data manager")
	return data.NewManager(provider, cache), nil
}

// analysisParams returns the configured defaults; commands override individual fields
func analysisParams() metrics.Params {
	params := metrics.DefaultParams()
	params.TradingDaysPerYear = viper.GetInt("analysis.trading_days_per_year")
	params.TradingDaysPerMonth = viper.GetInt("analysis.trading_days_per_month")
	params.MovingAverageWindow = viper.GetInt("analysis.moving_average_window")
	return params
}

// dateRange parses YYYY-MM-DD dates in the market timezone. A blank start is
// 1990-01-01 and a blank end is today.
func dateRange(start, end string) (begin, finish time.Time, err error) {
	tz := common.GetTimezone()

	if start == "" {
		start = defaultStartDate
	}
	begin, err = time.ParseInLocation(dateLayout, start, tz)
	if err != nil {
		return begin, finish, fmt.Errorf("cannot parse start date %q: %w", start, err)
	}

	if end == "" {
		year, month, day := time.Now().In(tz).Date()
		return begin, time.Date(year, month, day, 0, 0, 0, 0, tz), nil
	}

	finish, err = time.ParseInLocation(dateLayout, end, tz)
	if err != nil {
		return begin, finish, fmt.Errorf("cannot parse end date %q: %w", end, err)
	}

	return begin, finish, nil
}
