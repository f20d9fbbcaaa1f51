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
	"fmt"
	"os"

	"github.com/penny-vault/pv-stats/common"
	"github.com/penny-vault/pv-stats/metrics"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var Profile bool
var Trace bool

// bindFlag ties a configuration key to an environment variable and a persistent flag
func bindFlag(key, env string, flag *pflag.Flag) {
	if err := viper.BindEnv(key, env); err != nil {
		log.Panic().Err(err).Str("Key", key).Msg("could not bind env")
	}
	if err := viper.BindPFlag(key, flag); err != nil {
		log.Panic().Err(err).Str("Key", key).Msg("could not bind flag")
	}
}

func init() {
	flags := rootCmd.PersistentFlags()

	// Logging configuration
	flags.String("log-level", "warning", "Logging level")
	bindFlag("log.level", "PVSTATS_LOG_LEVEL", flags.Lookup("log-level"))

	flags.String("log-output", "stderr", "Write logs to specified output one of: file path, `stdout`, or `stderr`")
	bindFlag("log.output", "PVSTATS_LOG_OUTPUT", flags.Lookup("log-output"))

	flags.Bool("log-pretty", true, "Log human readable output instead of JSON")
	bindFlag("log.pretty", "PVSTATS_LOG_PRETTY", flags.Lookup("log-pretty"))

	flags.Bool("log-report-caller", false, "Log function name that called log statement")
	bindFlag("log.report_caller", "PVSTATS_LOG_REPORT_CALLER", flags.Lookup("log-report-caller"))

	// Data
	flags.String("data-provider", "tiingo", "Source of end-of-day prices one of: `tiingo` or `pvdb`")
	bindFlag("data.provider", "PVSTATS_DATA_PROVIDER", flags.Lookup("data-provider"))

	flags.String("tiingo-token", "", "Tiingo API token")
	bindFlag("tiingo.token", "TIINGO_TOKEN", flags.Lookup("tiingo-token"))

	flags.String("tiingo-url", "https://api.tiingo.com", "Tiingo API base URL")
	bindFlag("tiingo.url", "TIINGO_URL", flags.Lookup("tiingo-url"))

	flags.String("database-url", "", "PostgreSQL connection string used by the pvdb provider")
	bindFlag("database.url", "DATABASE_URL", flags.Lookup("database-url"))

	// Cache
	flags.Int("cache-local-size", 128, "Number of price series kept in memory; 0 disables caching")
	bindFlag("cache.local_size", "PVSTATS_CACHE_LOCAL_SIZE", flags.Lookup("cache-local-size"))

	flags.Bool("cache-redis", false, "Share cached price series through redis")
	bindFlag("cache.redis", "PVSTATS_CACHE_REDIS", flags.Lookup("cache-redis"))

	flags.String("cache-redis-url", "redis://localhost:6379/0", "Redis connection URL")
	bindFlag("cache.redis_url", "REDIS_URL", flags.Lookup("cache-redis-url"))

	flags.Int("cache-ttl", 86400, "Seconds a price series lives in redis")
	bindFlag("cache.ttl", "PVSTATS_CACHE_TTL", flags.Lookup("cache-ttl"))

	// Analysis defaults
	flags.Int("trading-days-per-year", metrics.DefaultTradingDaysPerYear, "Annualization factor")
	bindFlag("analysis.trading_days_per_year", "PVSTATS_TRADING_DAYS_PER_YEAR", flags.Lookup("trading-days-per-year"))

	flags.Int("trading-days-per-month", metrics.DefaultTradingDaysPerMonth, "Monthly scaling factor and rolling volatility window")
	bindFlag("analysis.trading_days_per_month", "PVSTATS_TRADING_DAYS_PER_MONTH", flags.Lookup("trading-days-per-month"))

	flags.Int("ma-window", metrics.DefaultMovingAverageWindow, "Moving average window")
	bindFlag("analysis.moving_average_window", "PVSTATS_MA_WINDOW", flags.Lookup("ma-window"))

	// Tracing
	flags.String("otlp-endpoint", "", "OTLP/HTTP endpoint to export traces to; tracing is disabled when blank")
	bindFlag("otlp.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT", flags.Lookup("otlp-endpoint"))

	flags.StringToString("otlp-headers", map[string]string{}, "Headers sent with every OTLP export")
	bindFlag("otlp.headers", "PVSTATS_OTLP_HEADERS", flags.Lookup("otlp-headers"))

	flags.BoolVar(&Profile, "cpu-profile", false, "Run pprof and save in profile.out")
	flags.BoolVar(&Trace, "trace", false, "Trace program execution and save in trace.out")
}

var rootCmd = &cobra.Command{
	Use:     common.ProgramName,
	Version: common.CurrentVersion.String(),
	Short:   "Performance and risk statistics for equity price series",
	Long: `pvstats computes return, risk and risk-adjusted metrics for a single
ticker, optionally relative to a benchmark, and serves them over HTTP.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		common.SetupLogging()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
