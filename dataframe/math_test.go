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

package dataframe_test

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-stats/common"
	"github.com/penny-vault/pv-stats/dataframe"
)

var _ = Describe("When computing the SMA", func() {
	Context("with 5 values", func() {
		var (
			df1   *dataframe.DataFrame
			dates []time.Time
		)

		BeforeEach(func() {
			tz := common.GetTimezone()
			dates = []time.Time{
				time.Date(2021, time.January, 4, 16, 0, 0, 0, tz),
				time.Date(2021, time.January, 5, 16, 0, 0, 0, tz),
				time.Date(2021, time.January, 6, 16, 0, 0, 0, tz),
				time.Date(2021, time.January, 7, 16, 0, 0, 0, tz),
				time.Date(2021, time.January, 8, 16, 0, 0, 0, tz),
			}

			df1 = &dataframe.DataFrame{
				Dates:    dates,
				Vals:     [][]float64{{1.0, 2.0, 3.0, 4.0, 5.0}},
				ColNames: []string{"test"},
			}
		})

		It("yields all NaN for lookback of 0", func() {
			sma := df1.SMA(0)
			Expect(sma.Len()).To(Equal(5))
			Expect(sma.Dates).To(Equal(dates))
			for _, v := range sma.Vals[0] {
				Expect(math.IsNaN(v)).Should(BeTrue())
			}
		})

		It("yields all NaN when lookback is longer than the dataframe", func() {
			sma := df1.SMA(6)
			Expect(sma.Len()).To(Equal(5))
			for _, v := range sma.Vals[0] {
				Expect(math.IsNaN(v)).Should(BeTrue())
			}
		})

		It("yields correct results for lookback of 2", func() {
			sma := df1.SMA(2)
			Expect(sma.Len()).To(Equal(5))
			Expect(sma.Dates).To(Equal(dates))

			col1 := sma.Vals[0]
			Expect(math.IsNaN(col1[0])).Should(BeTrue())
			Expect(col1[1]).Should(Equal(1.5))
			Expect(col1[2]).Should(Equal(2.5))
			Expect(col1[3]).Should(Equal(3.5))
			Expect(col1[4]).Should(Equal(4.5))
		})

		It("yields correct results for lookback of 3", func() {
			col1 := df1.SMA(3).Vals[0]
			Expect(math.IsNaN(col1[0])).Should(BeTrue())
			Expect(math.IsNaN(col1[1])).Should(BeTrue())
			Expect(col1[2]).Should(Equal(2.0))
			Expect(col1[3]).Should(Equal(3.0))
			Expect(col1[4]).Should(Equal(4.0))
		})

		It("yields correct results for lookback of 5", func() {
			col1 := df1.SMA(5).Vals[0]
			for idx := 0; idx < 4; idx++ {
				Expect(math.IsNaN(col1[idx])).Should(BeTrue())
			}
			Expect(col1[4]).Should(Equal(3.0))
		})

		It("does not modify the input", func() {
			df1.SMA(2)
			Expect(df1.Vals[0]).To(Equal([]float64{1.0, 2.0, 3.0, 4.0, 5.0}))
		})
	})
})

var _ = Describe("When computing the rolling standard deviation", func() {
	var df1 *dataframe.DataFrame

	BeforeEach(func() {
		dt := time.Date(2021, time.January, 4, 16, 0, 0, 0, common.GetTimezone())
		df1 = &dataframe.DataFrame{
			Dates:    []time.Time{dt, dt.AddDate(0, 0, 1), dt.AddDate(0, 0, 2), dt.AddDate(0, 0, 3), dt.AddDate(0, 0, 4)},
			Vals:     [][]float64{{math.NaN(), 1.0, 3.0, 5.0, 5.0}},
			ColNames: []string{"ret"},
		}
	})

	It("uses the sample standard deviation", func() {
		col := df1.RollingStdDev(2).Vals[0]
		Expect(math.IsNaN(col[0])).To(BeTrue())
		Expect(math.IsNaN(col[1])).To(BeTrue(), "window includes the leading NaN")
		Expect(col[2]).To(BeNumerically("~", math.Sqrt(2), 1e-12))
		Expect(col[3]).To(BeNumerically("~", math.Sqrt(2), 1e-12))
		Expect(col[4]).To(BeNumerically("~", 0, 1e-12))
	})

	It("matches the full-sample standard deviation when the window spans all valid rows", func() {
		col := df1.RollingStdDev(4).Vals[0]
		Expect(math.IsNaN(col[3])).To(BeTrue())
		Expect(col[4]).To(BeNumerically("~", math.Sqrt(11.0/3.0), 1e-12))
	})
})

var _ = Describe("When computing derived series", func() {
	var df1 *dataframe.DataFrame

	BeforeEach(func() {
		dt := time.Date(2021, time.January, 4, 16, 0, 0, 0, common.GetTimezone())
		df1 = &dataframe.DataFrame{
			Dates:    []time.Time{dt, dt.AddDate(0, 0, 1), dt.AddDate(0, 0, 2), dt.AddDate(0, 0, 3)},
			Vals:     [][]float64{{100, 110, 99, 121}},
			ColNames: []string{"AdjustedClose"},
		}
	})

	It("computes the percent change", func() {
		col := df1.PctChange().Vals[0]
		Expect(math.IsNaN(col[0])).To(BeTrue())
		Expect(col[1]).To(BeNumerically("~", 0.10, 1e-12))
		Expect(col[2]).To(BeNumerically("~", -0.10, 1e-12))
		Expect(col[3]).To(BeNumerically("~", 22.0/99.0, 1e-12))
	})

	It("computes the cumulative max", func() {
		Expect(df1.CumMax().Vals[0]).To(Equal([]float64{100, 110, 110, 121}))
	})

	It("scales every value", func() {
		Expect(df1.MulScalar(0.5).Vals[0]).To(Equal([]float64{50, 55, 49.5, 60.5}))
		Expect(df1.Vals[0][0]).To(Equal(100.0))
	})
})
