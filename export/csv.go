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

package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/penny-vault/pv-stats/data"
)

// WriteCSV writes one row per bar with prices at 2 decimals and integer volume
func WriteCSV(w io.Writer, series *data.PriceSeries) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(header()); err != nil {
		return err
	}

	for _, bar := range series.Eod {
		row := []string{
			bar.Date.Format("2006-01-02"),
			price(bar.Open).StringFixed(2),
			price(bar.High).StringFixed(2),
			price(bar.Low).StringFixed(2),
			price(bar.Close).StringFixed(2),
			price(bar.AdjustedClose).StringFixed(2),
			strconv.FormatInt(bar.Volume, 10),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
