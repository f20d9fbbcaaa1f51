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

package metrics_test

import (
	"errors"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-stats/data"
	"github.com/penny-vault/pv-stats/metrics"
	"gonum.org/v1/gonum/stat"
)

func analyze(series *data.PriceSeries) *metrics.Report {
	report, err := metrics.Analyze(series, nil, metrics.DefaultParams())
	Expect(err).To(BeNil())
	return report
}

var _ = Describe("Compute", func() {
	Context("with prices 100, 110, 99", func() {
		var report *metrics.Report

		BeforeEach(func() {
			report = analyze(newSeries("TEST", 100, 110, 99))
		})

		It("computes the cumulative return", func() {
			Expect(report.CumulativeReturn).To(BeNumerically("~", -0.01, 1e-12))
		})

		It("computes the annual return", func() {
			Expect(report.AnnualReturn).To(BeNumerically("~", math.Pow(0.99, 84)-1, 1e-12))
		})

		It("finds the extremes", func() {
			Expect(report.MaxPrice).To(Equal(110.0))
			Expect(report.MaxDate).To(BeTemporally("==", day(1)))
			Expect(report.MinPrice).To(Equal(99.0))
			Expect(report.MinDate).To(BeTemporally("==", day(2)))
		})

		It("computes volatility with the sample standard deviation", func() {
			sd := stat.StdDev([]float64{0.1, -0.1}, nil)
			Expect(sd).To(BeNumerically("~", math.Sqrt(0.02), 1e-12))
			Expect(report.AnnualVolatility).To(BeNumerically("~", sd*math.Sqrt(252), 1e-9))
			Expect(report.MonthlyVolatility).To(BeNumerically("~", sd*math.Sqrt(21), 1e-9))
		})

		It("computes the sharpe and calmar ratios", func() {
			Expect(report.SharpeRatio).To(BeNumerically("~", report.AnnualReturn/report.AnnualVolatility, 1e-12))
			Expect(report.CalmarRatio).To(BeNumerically("~", report.AnnualReturn/(0.1*math.Sqrt(252)), 1e-9))
		})

		It("computes the max drawdown from the running peak", func() {
			Expect(report.MaxDrawdown).To(BeNumerically("~", 11.0/110.0, 1e-12))
			Expect(report.OmegaRatio).To(BeNumerically("~", report.SharpeRatio/report.MaxDrawdown, 1e-12))
		})

		It("computes stability", func() {
			prices := []float64{100, 110, 99}
			Expect(report.Stability).To(BeNumerically("~", stat.Mean(prices, nil)/stat.StdDev(prices, nil), 1e-12))
		})

		It("leaves metrics that need more data undefined", func() {
			Expect(report.IsDefined(metrics.SortinoRatio)).To(BeFalse())
			Expect(report.IsDefined(metrics.Skewness)).To(BeFalse())
			Expect(report.IsDefined(metrics.Kurtosis)).To(BeFalse())
			Expect(math.IsNaN(report.SortinoRatio)).To(BeTrue())
			Expect(errors.Is(report.Undefined[metrics.SortinoRatio], metrics.ErrUndefinedMetric)).To(BeTrue())
		})

		It("has a beta of exactly 1 without a benchmark", func() {
			Expect(report.Beta).To(Equal(1.0))
			Expect(report.IsDefined(metrics.Beta)).To(BeTrue())
			Expect(report.Benchmark).To(BeEmpty())
		})

		It("describes the input", func() {
			Expect(report.Ticker).To(Equal("TEST"))
			Expect(report.NumObservations).To(Equal(3))
			Expect(report.Start).To(BeTemporally("==", day(0)))
			Expect(report.End).To(BeTemporally("==", day(2)))
		})

		It("does not produce optional series unless asked", func() {
			Expect(report.MovingAverage).To(BeNil())
			Expect(report.RollingVolatility).To(BeNil())
		})
	})

	Context("with a constant price series", func() {
		var report *metrics.Report

		BeforeEach(func() {
			report = analyze(newSeries("FLAT", 100, 100, 100, 100, 100, 100))
		})

		It("has zero volatility and drawdown", func() {
			Expect(report.AnnualVolatility).To(Equal(0.0))
			Expect(report.MonthlyVolatility).To(Equal(0.0))
			Expect(report.MaxDrawdown).To(Equal(0.0))
			Expect(report.CumulativeReturn).To(Equal(0.0))
			Expect(report.AnnualReturn).To(Equal(0.0))
		})

		It("reports zero-denominator ratios as undefined", func() {
			for _, name := range []string{metrics.SharpeRatio, metrics.CalmarRatio, metrics.Stability,
				metrics.OmegaRatio, metrics.SortinoRatio, metrics.Skewness, metrics.Kurtosis} {
				Expect(report.IsDefined(name)).To(BeFalse(), name)
				val, ok := report.Value(name)
				Expect(ok).To(BeTrue())
				Expect(math.IsNaN(val)).To(BeTrue(), name)
				Expect(math.IsInf(val, 0)).To(BeFalse(), name)
			}
		})

		It("breaks ties on the earliest date", func() {
			Expect(report.MaxDate).To(BeTemporally("==", day(0)))
			Expect(report.MinDate).To(BeTemporally("==", day(0)))
		})
	})

	It("breaks ties on the earliest date", func() {
		report := analyze(newSeries("TIE", 100, 120, 90, 120, 90, 110))
		Expect(report.MaxDate).To(BeTemporally("==", day(1)))
		Expect(report.MinDate).To(BeTemporally("==", day(2)))
	})

	It("leaves sortino undefined when no return is negative", func() {
		report := analyze(newSeries("UP", 100, 101, 103, 103, 107, 110))
		Expect(report.IsDefined(metrics.SortinoRatio)).To(BeFalse())
		Expect(report.MaxDrawdown).To(Equal(0.0))
		Expect(report.IsDefined(metrics.OmegaRatio)).To(BeFalse())
	})

	It("leaves sortino undefined with a single negative return", func() {
		report := analyze(fromReturns("ONE", 0.01, -0.02, 0.03, 0.01))
		Expect(report.IsDefined(metrics.SortinoRatio)).To(BeFalse())
	})

	It("computes sortino from the negative returns", func() {
		returns := []float64{0.02, -0.01, 0.015, -0.03, 0.005, -0.02}
		report := analyze(fromReturns("SORT", returns...))

		downside := stat.StdDev([]float64{-0.01, -0.03, -0.02}, nil)
		Expect(report.SortinoRatio).To(BeNumerically("~", report.AnnualReturn/(downside*math.Sqrt(252)), 1e-9))
	})

	It("computes skewness and kurtosis with small sample corrections", func() {
		returns := []float64{0.02, -0.01, 0.015, -0.03, 0.005, -0.02, 0.04, 0.001}
		report := analyze(fromReturns("SHAPE", returns...))

		r, err := metrics.BuildReturns(fromReturns("SHAPE", returns...))
		Expect(err).To(BeNil())
		Expect(report.Skewness).To(BeNumerically("~", stat.Skew(r.Values, nil), 1e-12))
		Expect(report.Kurtosis).To(BeNumerically("~", stat.ExKurtosis(r.Values, nil), 1e-12))
	})

	It("needs 4 returns for kurtosis but only 3 for skewness", func() {
		report := analyze(fromReturns("SHORT", 0.01, -0.02, 0.03))
		Expect(report.IsDefined(metrics.Skewness)).To(BeTrue())
		Expect(report.IsDefined(metrics.Kurtosis)).To(BeFalse())
	})

	It("leaves volatility undefined with a single return", func() {
		report := analyze(newSeries("TWO", 100, 105))
		Expect(report.IsDefined(metrics.AnnualVolatility)).To(BeFalse())
		Expect(report.IsDefined(metrics.MonthlyVolatility)).To(BeFalse())
		Expect(report.IsDefined(metrics.SharpeRatio)).To(BeFalse())
		Expect(report.IsDefined(metrics.CumulativeReturn)).To(BeTrue())
		Expect(report.CumulativeReturn).To(BeNumerically("~", 0.05, 1e-12))
	})

	Context("properties of random series", func() {
		var series []*data.PriceSeries

		BeforeEach(func() {
			rng := rand.New(rand.NewSource(7))
			series = make([]*data.PriceSeries, 25)
			for idx := range series {
				n := 2 + rng.Intn(500)
				returns := make([]float64, n-1)
				for ii := range returns {
					returns[ii] = rng.NormFloat64() * 0.02
				}
				series[idx] = fromReturns("RAND", returns...)
			}
		})

		It("reconciles annual and cumulative returns", func() {
			for _, s := range series {
				report := analyze(s)
				n := float64(s.Len())
				Expect(report.CumulativeReturn).To(BeNumerically("~", math.Pow(1+report.AnnualReturn, n/252)-1, 1e-9))
			}
		})

		It("keeps the extremes ordered and inside the range", func() {
			for _, s := range series {
				report := analyze(s)
				Expect(report.MaxPrice).To(BeNumerically(">=", report.MinPrice))
				Expect(report.MaxDate).To(BeTemporally(">=", report.Start))
				Expect(report.MaxDate).To(BeTemporally("<=", report.End))
				Expect(report.MinDate).To(BeTemporally(">=", report.Start))
				Expect(report.MinDate).To(BeTemporally("<=", report.End))
			}
		})

		It("keeps the max drawdown between 0 and 1", func() {
			for _, s := range series {
				report := analyze(s)
				Expect(report.MaxDrawdown).To(BeNumerically(">=", 0))
				Expect(report.MaxDrawdown).To(BeNumerically("<=", 1))

				prices := s.Values(data.MetricAdjustedClose)
				nonDecreasing := true
				for ii := 1; ii < len(prices); ii++ {
					if prices[ii] < prices[ii-1] {
						nonDecreasing = false
					}
				}
				Expect(report.MaxDrawdown == 0).To(Equal(nonDecreasing))
			}
		})

		It("always has a beta of 1 without a benchmark", func() {
			for _, s := range series {
				Expect(analyze(s).Beta).To(Equal(1.0))
			}
		})
	})

	Context("with a benchmark", func() {
		var benchReturns []float64

		BeforeEach(func() {
			benchReturns = []float64{0.01, -0.02, 0.015, 0.003, -0.007, 0.012, -0.01, 0.02}
		})

		It("computes beta against the benchmark", func() {
			doubled := make([]float64, len(benchReturns))
			for idx, r := range benchReturns {
				doubled[idx] = 2 * r
			}

			report, err := metrics.Analyze(fromReturns("LEVERED", doubled...), fromReturns("SPY", benchReturns...), metrics.DefaultParams())
			Expect(err).To(BeNil())
			Expect(report.Beta).To(BeNumerically("~", 2.0, 1e-9))
			Expect(report.Benchmark).To(Equal("SPY"))
		})

		It("has a beta of 1 against itself", func() {
			report, err := metrics.Analyze(fromReturns("SPY", benchReturns...), fromReturns("SPY", benchReturns...), metrics.DefaultParams())
			Expect(err).To(BeNil())
			Expect(report.Beta).To(BeNumerically("~", 1.0, 1e-12))
		})

		It("only uses dates common to both series", func() {
			asset := fromReturns("ASSET", benchReturns...)
			bench := fromReturns("SPY", benchReturns...)
			// drop the first four benchmark bars; the asset keeps its full history
			bench.Eod = bench.Eod[4:]

			report, err := metrics.Analyze(asset, bench, metrics.DefaultParams())
			Expect(err).To(BeNil())

			assetReturns, _ := metrics.BuildReturns(asset)
			benchmarkReturns, _ := metrics.BuildReturns(bench)
			a := assetReturns.Values[4:]
			b := benchmarkReturns.Values
			Expect(a).To(HaveLen(len(b)))
			Expect(report.Beta).To(BeNumerically("~", stat.Covariance(a, b, nil)/stat.Variance(b, nil), 1e-12))
		})

		It("is undefined with fewer than 2 common dates", func() {
			asset := newSeries("ASSET", 100, 101, 102)
			bench := newSeries("SPY", 100, 101, 102, 103, 104, 105)
			bench.Eod = bench.Eod[2:]

			report, err := metrics.Analyze(asset, bench, metrics.DefaultParams())
			Expect(err).To(BeNil())
			Expect(report.IsDefined(metrics.Beta)).To(BeFalse())
		})

		It("is undefined when the benchmark does not move", func() {
			report, err := metrics.Analyze(fromReturns("ASSET", benchReturns...), newSeries("CASH", 1, 1, 1, 1, 1, 1, 1, 1, 1), metrics.DefaultParams())
			Expect(err).To(BeNil())
			Expect(report.IsDefined(metrics.Beta)).To(BeFalse())
			Expect(report.Undefined[metrics.Beta].Error()).To(ContainSubstring("variance"))
		})

		It("propagates invalid benchmark prices", func() {
			_, err := metrics.Analyze(fromReturns("ASSET", benchReturns...), newSeries("BAD", 1, 0, 1), metrics.DefaultParams())
			Expect(errors.Is(err, metrics.ErrInvalidPrice)).To(BeTrue())
		})
	})

	Context("optional series", func() {
		var series *data.PriceSeries

		BeforeEach(func() {
			prices := make([]float64, 30)
			for idx := range prices {
				prices[idx] = 100 + float64(idx%7) - float64(idx%3)
			}
			series = newSeries("OPT", prices...)
		})

		It("computes a moving average of Close with window 5 over 10 points", func() {
			short := newSeries("OPT", 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
			// Close differs from the adjusted close to prove which one is used
			for _, bar := range short.Eod {
				bar.Close *= 10
			}

			params := metrics.DefaultParams()
			params.MovingAverage = true
			params.MovingAverageWindow = 5

			report, err := metrics.Analyze(short, nil, params)
			Expect(err).To(BeNil())
			Expect(report.MovingAverage).ToNot(BeNil())
			Expect(report.MovingAverage.ColNames).To(Equal([]string{metrics.MovingAverageColumn}))
			Expect(report.MovingAverage.Len()).To(Equal(10))

			vals := report.MovingAverage.Vals[0]
			for idx := 0; idx < 4; idx++ {
				Expect(math.IsNaN(vals[idx])).To(BeTrue())
			}
			defined := 0
			for _, v := range vals {
				if !math.IsNaN(v) {
					defined++
				}
			}
			Expect(defined).To(Equal(6))
			Expect(vals[4]).To(BeNumerically("~", 30.0, 1e-12))
			Expect(vals[9]).To(BeNumerically("~", 80.0, 1e-12))
			Expect(report.MovingAverage.Dates).To(Equal(short.Dates()))
		})

		It("computes rolling volatility keyed by price dates", func() {
			params := metrics.DefaultParams()
			params.RollingVolatility = true

			report, err := metrics.Analyze(series, nil, params)
			Expect(err).To(BeNil())
			rv := report.RollingVolatility
			Expect(rv).ToNot(BeNil())
			Expect(rv.Len()).To(Equal(series.Len()))
			Expect(rv.Dates).To(Equal(series.Dates()))

			for idx := 0; idx < 21; idx++ {
				Expect(math.IsNaN(rv.Vals[0][idx])).To(BeTrue(), "index %d", idx)
			}

			returns, err := metrics.BuildReturns(series)
			Expect(err).To(BeNil())
			expected := stat.StdDev(returns.Values[0:21], nil) * math.Sqrt(21)
			Expect(rv.Vals[0][21]).To(BeNumerically("~", expected, 1e-12))

			expected = stat.StdDev(returns.Values[8:29], nil) * math.Sqrt(21)
			Expect(rv.Vals[0][29]).To(BeNumerically("~", expected, 1e-12))
		})

		It("returns all NaN when the window is longer than the series", func() {
			params := metrics.DefaultParams()
			params.MovingAverage = true
			params.MovingAverageWindow = 50

			report, err := metrics.Analyze(series, nil, params)
			Expect(err).To(BeNil())
			for _, v := range report.MovingAverage.Vals[0] {
				Expect(math.IsNaN(v)).To(BeTrue())
			}
		})

		It("uses the configured month length for the rolling window", func() {
			params := metrics.DefaultParams()
			params.RollingVolatility = true
			params.TradingDaysPerMonth = 10

			report, err := metrics.Analyze(series, nil, params)
			Expect(err).To(BeNil())
			Expect(math.IsNaN(report.RollingVolatility.Vals[0][9])).To(BeTrue())
			Expect(math.IsNaN(report.RollingVolatility.Vals[0][10])).To(BeFalse())
		})
	})

	Context("input validation", func() {
		It("rejects returns that were not built from the prices", func() {
			prices := newSeries("TEST", 100, 101, 102)
			other, err := metrics.BuildReturns(newSeries("TEST", 100, 101, 102, 103))
			Expect(err).To(BeNil())

			_, err = metrics.Compute(prices, other, nil, metrics.DefaultParams())
			Expect(errors.Is(err, metrics.ErrSeriesMismatch)).To(BeTrue())
			Expect(errors.Is(err, metrics.ErrInputValidation)).To(BeTrue())
		})

		It("rejects returns with shifted dates", func() {
			prices := newSeries("TEST", 100, 101, 102)
			returns, err := metrics.BuildReturns(prices)
			Expect(err).To(BeNil())
			returns.Dates[0], returns.Dates[1] = day(0), day(1)

			_, err = metrics.Compute(prices, returns, nil, metrics.DefaultParams())
			Expect(errors.Is(err, metrics.ErrSeriesMismatch)).To(BeTrue())
		})

		It("rejects missing returns", func() {
			_, err := metrics.Compute(newSeries("TEST", 100, 101), nil, nil, metrics.DefaultParams())
			Expect(errors.Is(err, metrics.ErrSeriesMismatch)).To(BeTrue())
		})

		It("rejects invalid prices before computing anything", func() {
			_, err := metrics.Analyze(newSeries("TEST", 100), nil, metrics.DefaultParams())
			Expect(errors.Is(err, metrics.ErrInsufficientData)).To(BeTrue())
		})
	})
})
