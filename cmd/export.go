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
	"io"
	"os"

	"github.com/penny-vault/pv-stats/export"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	exportStart  string
	exportEnd    string
	exportFormat string
	exportOutput string
)

func init() {
	exportCmd.Flags().StringVar(&exportStart, "start", "", "First date to export (YYYY-MM-DD); defaults to 1990-01-01")
	exportCmd.Flags().StringVar(&exportEnd, "end", "", "Last date to export (YYYY-MM-DD); defaults to today")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", export.FormatCSV, "Output format one of: `csv` or `xlsx`")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "File to write; csv goes to stdout and xlsx to TICKER_START_END.xlsx when blank")

	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export TICKER",
	Short: "Download end-of-day prices as CSV or XLSX",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		ctx := context.Background()

		begin, end, err := dateRange(exportStart, exportEnd)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid date range")
		}

		subLog := log.With().Str("Ticker", args[0]).Str("Format", exportFormat).Logger()

		manager, err := newManager(ctx)
		if err != nil {
			subLog.Fatal().Err(err).Msg("could not initialize data manager")
		}

		prices, err := manager.GetEod(ctx, args[0], begin, end)
		if err != nil {
			subLog.Fatal().Err(err).Msg("could not load prices")
		}

		output := exportOutput
		if output == "" && exportFormat != export.FormatCSV {
			output = export.FileName(prices, exportFormat)
		}

		var w io.Writer = os.Stdout
		if output != "" {
			fh, err := os.Create(output)
			if err != nil {
				subLog.Fatal().Err(err).Str("Output", output).Msg("could not create output file")
			}
			defer fh.Close()
			w = fh
		}

		if err := export.Write(w, exportFormat, prices); err != nil {
			subLog.Fatal().Err(err).Msg("export failed")
		}

		if output != "" {
			subLog.Info().Str("Output", output).Int("NumRows", prices.Len()).Msg("wrote prices")
		}
	},
}
