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

package data

import (
	"context"
	"fmt"
	"time"

	"github.com/penny-vault/pv-stats/common"
	"github.com/penny-vault/pv-stats/data/database"
	"github.com/penny-vault/pv-stats/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const eodSQL = `SELECT event_date, open, high, low, close, adj_close, volume
FROM eod
WHERE ticker = $1 AND event_date BETWEEN $2 AND $3
ORDER BY event_date`

// PvDb reads end-of-day prices from the penny vault database
type PvDb struct {
}

func NewPvDb() *PvDb {
	return &PvDb{}
}

func (p *PvDb) DataType() string {
	return "pvdb"
}

func (p *PvDb) GetEod(ctx context.Context, security *Security, begin, end time.Time) (*PriceSeries, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "pvdb.GetEod")
	defer span.End()

	span.SetAttributes(attribute.String("Ticker", security.Ticker))

	tz := common.GetTimezone()
	subLog := log.With().Str("Ticker", security.Ticker).Time("Begin", begin).Time("End", end).Logger()

	trx, err := database.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		msg := "failed to load eod prices -- could not get a database transaction"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Stack().Err(err).Msg(msg)
		return nil, fmt.Errorf("%w: %s", ErrDataUnavailable, err)
	}

	rows, err := trx.Query(ctx, eodSQL, security.Ticker, begin, end)
	if err != nil {
		span.RecordError(err)
		msg := "failed to load eod prices -- db query failed"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Stack().Err(err).Str("SQL", eodSQL).Msg(msg)
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, fmt.Errorf("%w: %s", ErrDataUnavailable, err)
	}

	series := &PriceSeries{
		Security: *security,
		Eod:      make([]*Eod, 0, 252),
	}

	for rows.Next() {
		var eventDate time.Time
		bar := &Eod{}
		if err := rows.Scan(&eventDate, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.AdjustedClose, &bar.Volume); err != nil {
			rows.Close()
			subLog.Error().Stack().Err(err).Msg("failed to load eod prices -- db query scan failed")
			if err := trx.Rollback(ctx); err != nil {
				subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return nil, fmt.Errorf("%w: %s", ErrDataUnavailable, err)
		}

		bar.Date = time.Date(eventDate.Year(), eventDate.Month(), eventDate.Day(), 16, 0, 0, 0, tz)
		series.Eod = append(series.Eod, bar)
	}
	rows.Close()

	if err := rows.Err(); err != nil {
		subLog.Error().Stack().Err(err).Msg("failed to load eod prices -- row iteration failed")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, fmt.Errorf("%w: %s", ErrDataUnavailable, err)
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	if series.Len() == 0 {
		span.SetStatus(codes.Error, "no rows returned")
		return nil, fmt.Errorf("%w: no prices for %s in range", ErrDataUnavailable, security.Ticker)
	}

	return series, nil
}
