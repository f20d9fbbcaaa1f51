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

	"github.com/goccy/go-json"
	"github.com/penny-vault/pv-stats/data"
	"github.com/penny-vault/pv-stats/metrics"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	analyzeStart             string
	analyzeEnd               string
	analyzeBenchmark         string
	analyzeMovingAverage     bool
	analyzeRollingVolatility bool
	analyzeJSON              bool
)

func init() {
	analyzeCmd.Flags().StringVar(&analyzeStart, "start", "", "First date to analyze (YYYY-MM-DD); defaults to 1990-01-01")
	analyzeCmd.Flags().StringVar(&analyzeEnd, "end", "", "Last date to analyze (YYYY-MM-DD); defaults to today")
	analyzeCmd.Flags().StringVar(&analyzeBenchmark, "benchmark", "", "Ticker beta is measured against")
	analyzeCmd.Flags().BoolVar(&analyzeMovingAverage, "moving-average", false, "Print the moving average of close")
	analyzeCmd.Flags().BoolVar(&analyzeRollingVolatility, "rolling-volatility", false, "Print the rolling volatility")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the report as JSON")

	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze TICKER",
	Short: "Compute performance and risk metrics of a ticker",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		ctx := context.Background()
		ticker := args[0]

		begin, end, err := dateRange(analyzeStart, analyzeEnd)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid date range")
		}

		subLog := log.With().Str("Ticker", ticker).Str("Benchmark", analyzeBenchmark).
			Time("Begin", begin).Time("End", end).Logger()

		manager, err := newManager(ctx)
		if err != nil {
			subLog.Fatal().Err(err).Msg("could not initialize data manager")
		}

		prices, err := manager.GetEod(ctx, ticker, begin, end)
		if err != nil {
			subLog.Fatal().Err(err).Msg("could not load prices")
		}

		var benchmark *data.PriceSeries
		if analyzeBenchmark != "" {
			benchmark, err = manager.GetEod(ctx, analyzeBenchmark, begin, end)
			if err != nil {
				subLog.Fatal().Err(err).Msg("could not load benchmark prices")
			}
		}

		params := analysisParams()
		params.MovingAverage = analyzeMovingAverage
		params.RollingVolatility = analyzeRollingVolatility

		report, err := metrics.Analyze(prices, benchmark, params)
		if err != nil {
			subLog.Fatal().Err(err).Msg("analysis failed")
		}

		for name, reason := range report.Undefined {
			subLog.Info().Str("Metric", name).Str("Reason", reason.Error()).Msg("metric undefined")
		}

		if analyzeJSON {
			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				subLog.Fatal().Err(err).Msg("could not encode report")
			}
			fmt.Println(string(out))
			return
		}

		fmt.Print(report.Table())
		if report.MovingAverage != nil {
			fmt.Printf("\nMoving average (%d days)\n", params.MovingAverageWindow)
			fmt.Print(report.MovingAverage.Table())
		}
		if report.RollingVolatility != nil {
			fmt.Printf("\nRolling volatility (%d days)\n", params.TradingDaysPerMonth)
			fmt.Print(report.RollingVolatility.Table())
		}
	},
}
