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

package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/anvil/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

func newMockRepo(t *testing.T) (Repository[note], sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := bun.NewDB(sqlDB, pgdialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository[note](db), mock
}

func TestRejectedOptionsIssueNoQuery(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	_, _, err := repo.FindAndCount(ctx, types.Options{Where: []types.Predicate{types.Eq("password", "x")}})
	assert.ErrorIs(t, err, ErrUnknownField)

	_, _, err = repo.FindAndCount(ctx, types.Options{Order: []string{"title sideways"}})
	assert.ErrorIs(t, err, ErrInvalidOrder)

	_, err = repo.List(ctx, types.Contains("secret", "x"))
	assert.ErrorIs(t, err, ErrUnknownField)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAndCountPropagatesCountError(t *testing.T) {
	repo, mock := newMockRepo(t)
	boom := errors.New("connection reset")
	mock.ExpectQuery(`SELECT count\(\*\)`).WillReturnError(boom)

	rows, total, err := repo.FindAndCount(context.Background(), types.Options{})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, total)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAndCountSkipsScanWhenNothingMatches(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT count\(\*\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	rows, total, err := repo.FindAndCount(context.Background(), types.Options{Take: 5})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompile(t *testing.T) {
	cases := []struct {
		name string
		p    types.Predicate
		expr string
		args int
	}{
		{"eq", types.Eq("a", 1), "? = ?", 2},
		{"eq nil", types.Eq("a", nil), "? IS NULL", 1},
		{"contains", types.Contains("a", "x"), "LOWER(?) LIKE LOWER(?) ESCAPE '!'", 2},
		{"range", types.Between("a", 1, 2), "? >= ? AND ? <= ?", 4},
		{"range min", types.Between("a", 1, nil), "? >= ?", 2},
		{"range open", types.Between("a", nil, nil), "", 0},
		{"any of", types.AnyOf(types.Eq("a", 1), types.Eq("b", nil)), "(? = ?) OR (? IS NULL)", 3},
		{"any of open member", types.AnyOf(types.Eq("a", 1), types.Between("b", nil, nil)), "", 0},
		{"empty any of", types.AnyOf(), "1 = 0", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := compile(tc.p)
			require.NoError(t, err)
			assert.Equal(t, tc.expr, c.expr)
			assert.Len(t, c.args, tc.args)
		})
	}

	_, err := compile(types.Predicate{Kind: types.PredicateKind(42)})
	assert.ErrorIs(t, err, ErrInvalidPredicate)
}

func TestContainsPatternEscapesWildcards(t *testing.T) {
	c, err := compile(types.Contains("a", "50%_Off!"))
	require.NoError(t, err)
	assert.Equal(t, "%50!%!_Off!!%", c.args[1])
}

func TestParseOrder(t *testing.T) {
	term, err := parseOrder("name")
	require.NoError(t, err)
	assert.Equal(t, orderTerm{field: "name", dir: "ASC"}, term)

	term, err = parseOrder("  created_at   desc ")
	require.NoError(t, err)
	assert.Equal(t, orderTerm{field: "created_at", dir: "DESC"}, term)

	for _, bad := range []string{"", "name up", "a b c"} {
		_, err := parseOrder(bad)
		assert.ErrorIs(t, err, ErrInvalidOrder, bad)
	}
}
