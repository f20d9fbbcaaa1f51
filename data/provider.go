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
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pv-stats/common"
	"github.com/penny-vault/pv-stats/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Provider retrieves end-of-day prices for a security. Implementations return
// an error wrapping ErrDataUnavailable when no prices can be produced.
type Provider interface {
	DataType() string
	GetEod(ctx context.Context, security *Security, begin, end time.Time) (*PriceSeries, error)
}

// NewProvider constructs the provider named by kind using the tiingo.* keys
// for tiingo. The pvdb provider expects database.Connect to have been called.
func NewProvider(kind string) (Provider, error) {
	switch strings.ToLower(kind) {
	case "", "tiingo":
		return NewTiingo(viper.GetString("tiingo.token"), viper.GetString("tiingo.url")), nil
	case "pvdb":
		return NewPvDb(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, kind)
	}
}

// Manager fronts a provider with a price cache. Only fetched prices are
// cached; anything computed from them is not.
type Manager struct {
	provider Provider
	cache    *common.Cache
}

// NewManager creates a manager; cache may be nil to disable caching
func NewManager(provider Provider, cache *common.Cache) *Manager {
	return &Manager{
		provider: provider,
		cache:    cache,
	}
}

func (m *Manager) Provider() Provider {
	return m.provider
}

// GetEod returns the prices of ticker between begin and end (inclusive)
func (m *Manager) GetEod(ctx context.Context, ticker string, begin, end time.Time) (*PriceSeries, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "manager.GetEod")
	defer span.End()

	security := NewSecurity(ticker)
	if security.Ticker == "" {
		return nil, ErrEmptyTicker
	}

	if end.Before(begin) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidTimeRange, begin.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	subLog := log.With().Str("Ticker", security.Ticker).Time("Begin", begin).Time("End", end).Str("Provider", m.provider.DataType()).Logger()
	key := common.CacheKey(m.provider.DataType(), security.Ticker, begin.Format("2006-01-02"), end.Format("2006-01-02"))
	span.SetAttributes(attribute.String("Ticker", security.Ticker), attribute.String("CacheKey", key))

	if series, ok := m.fromCache(ctx, key); ok {
		subLog.Debug().Msg("price cache hit")
		span.SetAttributes(attribute.Bool("Cached", true))
		return series, nil
	}

	series, err := m.provider.GetEod(ctx, security, begin, end)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", security.Ticker, err)
	}

	if m.cache != nil {
		encoded, err := json.Marshal(series)
		if err != nil {
			subLog.Warn().Err(err).Msg("could not encode price series for cache")
			return series, nil
		}

		if err := m.cache.Set(ctx, key, encoded); err != nil {
			subLog.Warn().Err(err).Msg("could not store price series in cache")
		}
	}

	return series, nil
}

// Purge drops every locally cached price series
func (m *Manager) Purge() {
	if m.cache != nil {
		m.cache.Purge()
	}
}

func (m *Manager) fromCache(ctx context.Context, key string) (*PriceSeries, bool) {
	if m.cache == nil {
		return nil, false
	}

	encoded, ok, err := m.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("CacheKey", key).Msg("price cache lookup failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	series := &PriceSeries{}
	if err := json.Unmarshal(encoded, series); err != nil {
		log.Warn().Err(err).Str("CacheKey", key).Msg("could not decode cached price series")
		return nil, false
	}

	return series.In(common.GetTimezone()), true
}
