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
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pv-stats/common"
	"github.com/penny-vault/pv-stats/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	TiingoAPI = "https://api.tiingo.com"
)

type Tiingo struct {
	apikey  string
	baseURL string
	client  *http.Client
}

type tiingoJSONResponse struct {
	Date        string  `json:"date"`
	Close       float64 `json:"close"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Open        float64 `json:"open"`
	Volume      int64   `json:"volume"`
	AdjClose    float64 `json:"adjClose"`
	AdjHigh     float64 `json:"adjHigh"`
	AdjLow      float64 `json:"adjLow"`
	AdjOpen     float64 `json:"adjOpen"`
	AdjVolume   int64   `json:"adjVolume"`
	DivCash     float64 `json:"divCash"`
	SplitFactor float64 `json:"splitFactor"`
}

// NewTiingo creates a new Tiingo data provider. An empty baseURL selects the
// public Tiingo API.
func NewTiingo(key string, baseURL string) *Tiingo {
	if baseURL == "" {
		baseURL = TiingoAPI
	}

	return &Tiingo{
		apikey:  key,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  http.DefaultClient,
	}
}

func (t *Tiingo) DataType() string {
	return "tiingo"
}

// GetEod downloads daily bars for security between begin and end (inclusive)
func (t *Tiingo) GetEod(ctx context.Context, security *Security, begin, end time.Time) (*PriceSeries, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "tiingo.GetEod")
	defer span.End()

	subLog := log.With().Str("Ticker", security.Ticker).Time("Begin", begin).Time("End", end).Logger()

	path := fmt.Sprintf("%s/tiingo/daily/%s/prices?startDate=%s&endDate=%s", t.baseURL, security.Ticker,
		begin.Format("2006-01-02"), end.Format("2006-01-02"))
	span.SetAttributes(
		attribute.String("Url", path),
		attribute.String("Ticker", security.Ticker),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path+"&token="+t.apikey, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not build request")
		return nil, fmt.Errorf("%w: %s", ErrDataUnavailable, err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		span.RecordError(err)
		msg := "tiingo http request failed"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Err(err).Msg(msg)
		return nil, fmt.Errorf("%w: %s: %s", ErrDataUnavailable, security.Ticker, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		msg := "could not read tiingo body"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Err(err).Msg(msg)
		return nil, fmt.Errorf("%w: %s: %s", ErrDataUnavailable, security.Ticker, err)
	}

	span.SetAttributes(attribute.Int("StatusCode", resp.StatusCode))

	if resp.StatusCode == http.StatusNotFound {
		span.SetStatus(codes.Error, "ticker not found")
		subLog.Info().Msg("tiingo does not know ticker")
		return nil, fmt.Errorf("%w: %s not found", ErrDataUnavailable, security.Ticker)
	}

	if resp.StatusCode >= 400 {
		msg := "tiingo returned invalid response code"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Int("HTTPResponseStatusCode", resp.StatusCode).Bytes("Body", body).Msg(msg)
		return nil, fmt.Errorf("%w: %s: HTTP request returned invalid status code: %d", ErrDataUnavailable, security.Ticker, resp.StatusCode)
	}

	jsonResp := []tiingoJSONResponse{}
	if err := json.Unmarshal(body, &jsonResp); err != nil {
		span.RecordError(err)
		msg := "could not unmarshal json"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Err(err).Bytes("Body", body).Msg(msg)
		return nil, fmt.Errorf("%w: %s: %s", ErrDataUnavailable, security.Ticker, err)
	}

	if len(jsonResp) == 0 {
		span.SetStatus(codes.Error, "no results returned")
		subLog.Info().Msg("no results returned")
		return nil, fmt.Errorf("%w: no prices for %s in range", ErrDataUnavailable, security.Ticker)
	}

	tz := common.GetTimezone()
	series := &PriceSeries{
		Security: *security,
		Eod:      make([]*Eod, 0, len(jsonResp)),
	}

	for _, bar := range jsonResp {
		dt, err := parseTiingoDate(bar.Date, tz)
		if err != nil {
			span.RecordError(err)
			msg := "cannot parse date string"
			span.SetStatus(codes.Error, msg)
			subLog.Warn().Err(err).Str("DateStr", bar.Date).Msg(msg)
			return nil, fmt.Errorf("%w: %s: %s", ErrDataUnavailable, security.Ticker, err)
		}

		series.Eod = append(series.Eod, &Eod{
			Date:          dt,
			Open:          bar.Open,
			High:          bar.High,
			Low:           bar.Low,
			Close:         bar.Close,
			AdjustedClose: bar.AdjClose,
			Volume:        bar.Volume,
		})
	}

	subLog.Debug().Int("NumBars", series.Len()).Msg("loaded eod prices from tiingo")
	return series, nil
}

// parseTiingoDate converts 2021-01-04T00:00:00.000Z into the market close
// (16:00 New York) of that day
func parseTiingoDate(s string, tz *time.Location) (time.Time, error) {
	day, _, _ := strings.Cut(s, "T")
	dt, err := time.ParseInLocation("2006-01-02", day, tz)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(dt.Year(), dt.Month(), dt.Day(), 16, 0, 0, 0, tz), nil
}
