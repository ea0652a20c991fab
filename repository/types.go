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

	"github.com/google/uuid"
	"github.com/tomoncle/anvil/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

var (
	// ErrUnknownField is returned when a predicate or order names a column the
	// model does not have. No query is issued.
	ErrUnknownField = errors.New("repository: unknown field")
	// ErrInvalidPredicate is returned for a predicate of an unknown kind.
	ErrInvalidPredicate = errors.New("repository: invalid predicate")
	// ErrInvalidOrder is returned for an order entry that is not "field [ASC|DESC]".
	ErrInvalidOrder = errors.New("repository: invalid order")
)

// CrudRepository defines basic CRUD operations for a generic entity type.
// Soft-deleted rows are invisible to every read.
type CrudRepository[T any] interface {
	GetOne(ctx context.Context, id uuid.UUID) (*T, error)

	GetAll(ctx context.Context) ([]*T, error)

	List(ctx context.Context, where ...types.Predicate) ([]*T, error)

	Create(ctx context.Context, entity ...*T) error

	Upsert(ctx context.Context, fields []string, duplicateKeys []string, entity ...*T) error

	Save(ctx context.Context, entity *T) (*T, error)

	SoftDelete(ctx context.Context, id uuid.UUID) (int64, error)
}

// TransactionRepository runs the write operations on a caller-owned transaction.
type TransactionRepository[T any] interface {
	CreateWithTx(ctx context.Context, tx *bun.Tx, entity ...*T) error
	UpsertWithTx(ctx context.Context, tx *bun.Tx, fields []string, duplicateKeys []string, entity ...*T) error
	SaveWithTx(ctx context.Context, tx *bun.Tx, entity *T) (*T, error)
	SoftDeleteWithTx(ctx context.Context, tx *bun.Tx, id uuid.UUID) (int64, error)
}

// PageQueryRepository lists entities matching types.Options.
type PageQueryRepository[T any] interface {
	FindAndCount(ctx context.Context, opts types.Options) ([]*T, int, error)
	Page(ctx context.Context, opts types.Options) (*types.Paginated[T], error)
}

// Repository combines CRUD, pagination, and transactional operations and
// exposes Bun query builders for advanced use cases.
type Repository[T any] interface {
	CrudRepository[T]
	PageQueryRepository[T]
	TransactionRepository[T]
	Dialect() schema.Dialect
	NewSelect() *bun.SelectQuery
	NewInsert() *bun.InsertQuery
	NewUpdate() *bun.UpdateQuery
	NewDelete() *bun.DeleteQuery
}
