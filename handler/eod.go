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
	"bytes"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/penny-vault/pv-stats/export"
	"github.com/penny-vault/pv-stats/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Eod downloads the raw prices of a ticker
// GET /v1/eod/:ticker?start=&end=&format=csv|xlsx
func (h *Handler) Eod(c *fiber.Ctx) error {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(c.UserContext(), "Eod",
		trace.WithAttributes(opentelemetry.SpanAttributesFromFiber(c)...))
	defer span.End()
	c.SetUserContext(ctx)

	req, err := h.parseRequest(c)
	if err != nil {
		span.SetStatus(codes.Error, "bad request")
		return fail(log.Logger, err, "invalid eod request")
	}

	subLog := req.logger(log.Logger)
	format := c.Query("format", export.FormatCSV)

	prices, err := h.manager.GetEod(ctx, req.ticker, req.begin, req.end)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return fail(subLog, err, "could not load prices")
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, prices); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "export failed")
		return fail(subLog, err, "could not export prices")
	}

	c.Set(fiber.HeaderContentType, export.ContentType(format))
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", export.FileName(prices, format)))
	return c.Send(buf.Bytes())
}
