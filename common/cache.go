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

package common

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pierrec/lz4/v4"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/zeebo/blake3"
)

var (
	ErrCacheSize = errors.New("cache size must be positive")
)

// Cache is a two level byte cache. Values are lz4 compressed and kept in a
// process local LRU; when a redis client is configured they are also written
// through to redis with a TTL so that other instances can share them.
type Cache struct {
	local *lru.Cache
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCache creates a cache holding at most `size` values locally. rdb may be nil.
func NewCache(size int, rdb *redis.Client, ttl time.Duration) (*Cache, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrCacheSize, size)
	}

	local, err := lru.New(size)
	if err != nil {
		return nil, err
	}

	return &Cache{
		local: local,
		rdb:   rdb,
		ttl:   ttl,
	}, nil
}

// SetupCache builds a cache from the cache.* configuration keys
func SetupCache() (*Cache, error) {
	var rdb *redis.Client
	if viper.GetBool("cache.redis") {
		opt, err := redis.ParseURL(viper.GetString("cache.redis_url"))
		if err != nil {
			log.Error().Err(err).Msg("could not parse redis URL")
			return nil, err
		}
		rdb = redis.NewClient(opt)
	}

	ttl := time.Duration(viper.GetInt("cache.ttl")) * time.Second
	return NewCache(viper.GetInt("cache.local_size"), rdb, ttl)
}

// Set stores val under key
func (c *Cache) Set(ctx context.Context, key string, val []byte) error {
	compressed, err := Compress(val)
	if err != nil {
		return err
	}
	c.local.Add(key, compressed)

	if c.rdb != nil {
		return c.rdb.Set(ctx, key, compressed, c.ttl).Err()
	}
	return nil
}

// Get returns the value stored under key. The boolean is false on a miss; a
// redis miss is not an error.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok := c.local.Get(key); ok {
		val, err := Decompress(v.([]byte))
		return val, err == nil, err
	}

	if c.rdb == nil {
		return nil, false, nil
	}

	compressed, err := c.rdb.GetEx(ctx, key, c.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	// promote to the local cache
	c.local.Add(key, compressed)

	val, err := Decompress(compressed)
	return val, err == nil, err
}

// Len returns the number of values in the local cache
func (c *Cache) Len() int {
	return c.local.Len()
}

// Purge empties the local cache. Values in redis expire on their own.
func (c *Cache) Purge() {
	log.Info().Int("NumItems", c.local.Len()).Msg("purging local cache")
	c.local.Purge()
}

// CacheKey hashes parts into a 16-byte blake3 digest encoded as hex. Parts are
// separated by a zero byte so that ("ab", "c") and ("a", "bc") differ.
func CacheKey(parts ...string) string {
	h := blake3.New()
	for _, part := range parts {
		// blake3's Write never returns an error
		_, _ = h.Write([]byte(part))
		_, _ = h.Write([]byte{0})
	}

	buf := make([]byte, 16)
	if _, err := h.Digest().Read(buf); err != nil {
		log.Panic().Err(err).Msg("could not read blake3 digest")
	}
	return hex.EncodeToString(buf)
}

func Compress(in []byte) ([]byte, error) {
	w := &bytes.Buffer{}
	zw := lz4.NewWriter(w)
	if _, err := io.Copy(zw, bytes.NewReader(in)); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func Decompress(in []byte) ([]byte, error) {
	w := &bytes.Buffer{}
	zr := lz4.NewReader(bytes.NewReader(in))
	if _, err := io.Copy(w, zr); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}
