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

package database

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx wraps a pgx transaction so that finished transactions are removed from
// the open transaction log
type Tx struct {
	id string
	tx pgx.Tx
}

func (t *Tx) ID() string {
	return t.id
}

func (t *Tx) Commit(ctx context.Context) error {
	forget(t.id)
	return t.tx.Commit(ctx)
}

func (t *Tx) Rollback(ctx context.Context) error {
	forget(t.id)
	return t.tx.Rollback(ctx)
}

func (t *Tx) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return t.tx.Query(ctx, sql, args...)
}

func (t *Tx) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return t.tx.QueryRow(ctx, sql, args...)
}

func forget(id string) {
	trxLocker.Lock()
	defer trxLocker.Unlock()
	delete(openTransactions, id)
}
