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

package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/penny-vault/pv-stats/chart"
	"github.com/penny-vault/pv-stats/common"
	"github.com/penny-vault/pv-stats/data"
	"github.com/penny-vault/pv-stats/export"
	"github.com/penny-vault/pv-stats/metrics"
	"github.com/rs/zerolog"
)

const (
	dateLayout       = "2006-01-02"
	defaultStartDate = "1990-01-01"
)

// Handler serves analyses of prices retrieved through a data manager. The
// params given to New are the defaults; each request works on its own copy.
type Handler struct {
	manager *data.Manager
	params  metrics.Params
}

func New(manager *data.Manager, params metrics.Params) *Handler {
	return &Handler{
		manager: manager,
		params:  params,
	}
}

type request struct {
	ticker    string
	benchmark string
	begin     time.Time
	end       time.Time
	params    metrics.Params
}

func (r *request) logger(l zerolog.Logger) zerolog.Logger {
	return l.With().Str("Ticker", r.ticker).Str("Benchmark", r.benchmark).
		Time("Begin", r.begin).Time("End", r.end).Logger()
}

// parseRequest reads the ticker, date range and analysis options from the
// request. Query errors are returned as fiber 400 errors.
func (h *Handler) parseRequest(c *fiber.Ctx) (*request, error) {
	tz := common.GetTimezone()
	req := &request{
		ticker:    strings.ToUpper(strings.TrimSpace(c.Params("ticker"))),
		benchmark: strings.ToUpper(strings.TrimSpace(c.Query("benchmark"))),
		params:    h.params,
	}

	if req.ticker == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, data.ErrEmptyTicker.Error())
	}

	var err error
	req.begin, err = time.ParseInLocation(dateLayout, c.Query("start", defaultStartDate), tz)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "cannot parse start date: "+c.Query("start"))
	}

	endStr := c.Query("end", "now")
	if endStr == "now" {
		year, month, day := time.Now().In(tz).Date()
		req.end = time.Date(year, month, day, 0, 0, 0, 0, tz)
	} else {
		req.end, err = time.ParseInLocation(dateLayout, endStr, tz)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "cannot parse end date: "+endStr)
		}
	}

	if req.params.MovingAverage, err = queryBool(c, "movingAverage", req.params.MovingAverage); err != nil {
		return nil, err
	}

	if req.params.RollingVolatility, err = queryBool(c, "rollingVolatility", req.params.RollingVolatility); err != nil {
		return nil, err
	}

	if window := c.Query("maWindow"); window != "" {
		req.params.MovingAverageWindow, err = strconv.Atoi(window)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "maWindow must be an integer: "+window)
		}
	}

	return req, nil
}

func queryBool(c *fiber.Ctx, key string, def bool) (bool, error) {
	val := c.Query(key)
	if val == "" {
		return def, nil
	}

	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fiber.NewError(fiber.StatusBadRequest, key+" must be a boolean: "+val)
	}
	return b, nil
}

// fetch loads the prices of the ticker and, if requested, the benchmark
func (h *Handler) fetch(c *fiber.Ctx, req *request) (prices, benchmark *data.PriceSeries, err error) {
	prices, err = h.manager.GetEod(c.UserContext(), req.ticker, req.begin, req.end)
	if err != nil {
		return nil, nil, err
	}

	if req.benchmark != "" {
		benchmark, err = h.manager.GetEod(c.UserContext(), req.benchmark, req.begin, req.end)
		if err != nil {
			return nil, nil, err
		}
	}

	return prices, benchmark, nil
}

// httpError maps an error onto the status code returned to the client
func httpError(err error) *fiber.Error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr
	}

	code := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, data.ErrDataUnavailable), errors.Is(err, export.ErrNoData):
		code = fiber.StatusNotFound
	case errors.Is(err, metrics.ErrInputValidation), errors.Is(err, chart.ErrSeriesAbsent),
		errors.Is(err, chart.ErrNoData):
		code = fiber.StatusUnprocessableEntity
	case errors.Is(err, data.ErrInvalidTimeRange), errors.Is(err, data.ErrEmptyTicker),
		errors.Is(err, chart.ErrUnknownKind), errors.Is(err, export.ErrUnknownFormat):
		code = fiber.StatusBadRequest
	}

	return fiber.NewError(code, err.Error())
}

// fail logs err once and converts it to the response error
func fail(subLog zerolog.Logger, err error, msg string) error {
	fiberErr := httpError(err)
	if fiberErr.Code >= fiber.StatusInternalServerError {
		subLog.Error().Stack().Err(err).Int("StatusCode", fiberErr.Code).Msg(msg)
	} else {
		subLog.Warn().Err(err).Int("StatusCode", fiberErr.Code).Msg(msg)
	}
	return fiberErr
}
