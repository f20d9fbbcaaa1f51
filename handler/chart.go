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
	"github.com/penny-vault/pv-stats/chart"
	"github.com/penny-vault/pv-stats/metrics"
	"github.com/penny-vault/pv-stats/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Chart renders a PNG of the ticker's price or rolling volatility
// GET /v1/chart/:ticker?kind=price|volatility&start=&end=&maWindow=
func (h *Handler) Chart(c *fiber.Ctx) error {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(c.UserContext(), "Chart",
		trace.WithAttributes(opentelemetry.SpanAttributesFromFiber(c)...))
	defer span.End()
	c.SetUserContext(ctx)

	kind, err := chart.ParseKind(c.Query("kind"))
	if err != nil {
		span.SetStatus(codes.Error, "bad request")
		return fail(log.Logger, err, "invalid chart kind")
	}

	req, err := h.parseRequest(c)
	if err != nil {
		span.SetStatus(codes.Error, "bad request")
		return fail(log.Logger, err, "invalid chart request")
	}

	// the chart always draws the series for its kind
	switch kind {
	case chart.KindPrice:
		req.params.MovingAverage = true
	case chart.KindVolatility:
		req.params.RollingVolatility = true
	}

	subLog := req.logger(log.Logger).With().Str("Kind", string(kind)).Logger()
	span.SetAttributes(attribute.String("Ticker", req.ticker), attribute.String("Kind", string(kind)))

	prices, err := h.manager.GetEod(ctx, req.ticker, req.begin, req.end)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return fail(subLog, err, "could not load prices")
	}

	report, err := metrics.Analyze(prices, nil, req.params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analysis failed")
		return fail(subLog, err, "could not analyze prices")
	}

	img, err := chart.Render(kind, prices, report)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		return fail(subLog, err, "could not render chart")
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(img)
}
