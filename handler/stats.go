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
	"github.com/gofiber/fiber/v2"
	"github.com/penny-vault/pv-stats/metrics"
	"github.com/penny-vault/pv-stats/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Stats computes the metrics report of a ticker
// GET /v1/stats/:ticker?start=&end=&benchmark=&movingAverage=&maWindow=&rollingVolatility=
func (h *Handler) Stats(c *fiber.Ctx) error {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(c.UserContext(), "Stats",
		trace.WithAttributes(opentelemetry.SpanAttributesFromFiber(c)...))
	defer span.End()
	c.SetUserContext(ctx)

	req, err := h.parseRequest(c)
	if err != nil {
		span.SetStatus(codes.Error, "bad request")
		return fail(log.Logger, err, "invalid stats request")
	}

	subLog := req.logger(log.Logger)
	span.SetAttributes(attribute.String("Ticker", req.ticker), attribute.String("Benchmark", req.benchmark))

	prices, benchmark, err := h.fetch(c, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return fail(subLog, err, "could not load prices")
	}

	report, err := metrics.Analyze(prices, benchmark, req.params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analysis failed")
		return fail(subLog, err, "could not analyze prices")
	}

	if len(report.Undefined) > 0 {
		subLog.Debug().Int("NumUndefined", len(report.Undefined)).Msg("some metrics are undefined")
	}

	return c.JSON(report)
}
