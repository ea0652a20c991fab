/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package testutil

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type widget struct {
	bun.BaseModel `bun:"table:widgets"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name"`
}

func TestNewTestDSN(t *testing.T) {
	dsn := NewTestDSN("TestName")
	assert.True(t, strings.Contains(dsn, "file:TestName?mode=memory&cache=shared"), dsn)
}

func TestNewTestDB(t *testing.T) {
	db := NewTestDB(t, (*widget)(nil))
	ctx := context.Background()

	require.NoError(t, db.PingContext(ctx))

	_, err := db.NewInsert().Model(&widget{Name: "one"}).Exec(ctx)
	require.NoError(t, err)

	count, err := db.NewSelect().Model((*widget)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewTestDBIsolated(t *testing.T) {
	ctx := context.Background()
	first := NewTestDB(t, (*widget)(nil))
	second := NewTestDB(t, (*widget)(nil))

	_, err := first.NewInsert().Model(&widget{Name: "only in first"}).Exec(ctx)
	require.NoError(t, err)

	count, err := second.NewSelect().Model((*widget)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
