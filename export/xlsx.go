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
	"io"

	"github.com/penny-vault/pv-stats/data"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

const (
	SheetName = "Prices"

	// built-in excel number formats
	numFmtInteger = 1
	numFmtFixed2  = 2
)

// WriteXLSX writes a single sheet workbook with the same columns as WriteCSV
func WriteXLSX(w io.Writer, series *data.PriceSeries) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn().Err(err).Msg("could not close workbook")
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	dateFmt := "yyyy-mm-dd"
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt})
	if err != nil {
		return err
	}
	priceStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtFixed2})
	if err != nil {
		return err
	}
	volumeStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtInteger})
	if err != nil {
		return err
	}

	hdr := header()
	hdrRow := make([]interface{}, len(hdr))
	for idx, h := range hdr {
		hdrRow[idx] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &hdrRow); err != nil {
		return err
	}

	for idx, bar := range series.Eod {
		cell, err := excelize.CoordinatesToCellName(1, idx+2)
		if err != nil {
			return err
		}

		row := []interface{}{
			bar.Date,
			price(bar.Open).InexactFloat64(),
			price(bar.High).InexactFloat64(),
			price(bar.Low).InexactFloat64(),
			price(bar.Close).InexactFloat64(),
			price(bar.AdjustedClose).InexactFloat64(),
			bar.Volume,
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return err
		}
	}

	last := series.Len() + 1
	for _, span := range []struct {
		from, to string
		style    int
	}{
		{"A2", "A", dateStyle},
		{"B2", "F", priceStyle},
		{"G2", "G", volumeStyle},
	} {
		to, err := excelize.JoinCellName(span.to, last)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetName, span.from, to, span.style); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 12); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "B", "G", 14); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}
