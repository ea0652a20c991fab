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
	"database/sql"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/google/uuid"
	"github.com/tomoncle/anvil/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
	"github.com/uptrace/bun/schema"
)

const primaryKey = "uuid"

var errNilEntity = errors.New("repository: nil entity")

type baseRepositoryImpl[T any, P types.EntityPtr[T]] struct {
	db *bun.DB
}

// NewRepository returns a generic repository backed by the provided Bun DB.
// The pointer type is inferred: NewRepository[User](db).
func NewRepository[T any, P types.EntityPtr[T]](db *bun.DB) Repository[T] {
	return &baseRepositoryImpl[T, P]{db: db}
}

func (r *baseRepositoryImpl[T, P]) Dialect() schema.Dialect { return r.db.Dialect() }

func (r *baseRepositoryImpl[T, P]) NewSelect() *bun.SelectQuery { return r.db.NewSelect() }

func (r *baseRepositoryImpl[T, P]) NewInsert() *bun.InsertQuery { return r.db.NewInsert() }

func (r *baseRepositoryImpl[T, P]) NewUpdate() *bun.UpdateQuery { return r.db.NewUpdate() }

func (r *baseRepositoryImpl[T, P]) NewDelete() *bun.DeleteQuery { return r.db.NewDelete() }

func (r *baseRepositoryImpl[T, P]) table() *schema.Table {
	return r.db.Table(reflect.TypeOf((*T)(nil)).Elem())
}

func (r *baseRepositoryImpl[T, P]) GetOne(ctx context.Context, id uuid.UUID) (*T, error) {
	return r.getOne(ctx, r.db, id)
}

func (r *baseRepositoryImpl[T, P]) getOne(ctx context.Context, db bun.IDB, id uuid.UUID) (*T, error) {
	entity := new(T)
	P(entity).SetUUID(id)
	if err := db.NewSelect().Model(entity).WherePK().Scan(ctx); err != nil {
		return nil, err
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T, P]) GetAll(ctx context.Context) ([]*T, error) {
	entities := make([]*T, 0)
	err := r.db.NewSelect().Model(&entities).Scan(ctx)
	return entities, err
}

func (r *baseRepositoryImpl[T, P]) List(ctx context.Context, where ...types.Predicate) ([]*T, error) {
	if _, err := checkOptions(r.table(), types.Options{Where: where}); err != nil {
		return nil, err
	}
	entities := make([]*T, 0)
	query, err := applyWhere(r.db.NewSelect().Model(&entities), where)
	if err != nil {
		return nil, err
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	return entities, nil
}

// FindAndCount returns the page of rows selected by opts and the number of
// rows matching its predicates regardless of Take and Skip.
func (r *baseRepositoryImpl[T, P]) FindAndCount(ctx context.Context, opts types.Options) ([]*T, int, error) {
	orders, err := checkOptions(r.table(), opts)
	if err != nil {
		return nil, 0, err
	}

	entities := make([]*T, 0)
	query, err := applyWhere(r.db.NewSelect().Model(&entities), opts.Where)
	if err != nil {
		return nil, 0, err
	}
	total, err := query.Count(ctx)
	if err != nil || total == 0 {
		return entities, total, err
	}

	query = applyOrder(query, orders)
	take, skip := opts.GetTake(), opts.GetSkip()
	if take == 0 && skip > 0 {
		// sqlite and mysql reject OFFSET without LIMIT
		take = math.MaxInt
	}
	if take > 0 {
		query = query.Limit(take)
	}
	if skip > 0 {
		query = query.Offset(skip)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, 0, err
	}
	return entities, total, nil
}

func (r *baseRepositoryImpl[T, P]) Page(ctx context.Context, opts types.Options) (*types.Paginated[T], error) {
	entities, total, err := r.FindAndCount(ctx, opts)
	if err != nil {
		return nil, err
	}
	page := types.NewPaginated[T](opts)
	page.Data = entities
	page.Total = total
	return page, nil
}

func (r *baseRepositoryImpl[T, P]) Create(ctx context.Context, entity ...*T) error {
	return r.create(ctx, r.db, entity)
}

func (r *baseRepositoryImpl[T, P]) CreateWithTx(ctx context.Context, tx *bun.Tx, entity ...*T) error {
	return r.create(ctx, tx, entity)
}

func (r *baseRepositoryImpl[T, P]) create(ctx context.Context, db bun.IDB, entities []*T) error {
	if len(entities) == 0 {
		return nil
	}
	batch := make([]*T, len(entities))
	copy(batch, entities)
	_, err := db.NewInsert().Model(&batch).Exec(ctx)
	return err
}

// Save persists entity in one transaction and returns the stored row.
// An entity without UUID is inserted. Otherwise its non-zero columns are
// merged into the existing row, or it is inserted when no row has that UUID.
// A soft-deleted row is not revived: Save fails with an error wrapping
// sql.ErrNoRows.
func (r *baseRepositoryImpl[T, P]) Save(ctx context.Context, entity *T) (*T, error) {
	var saved *T
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		saved, err = r.save(ctx, tx, entity)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *baseRepositoryImpl[T, P]) SaveWithTx(ctx context.Context, tx *bun.Tx, entity *T) (*T, error) {
	return r.save(ctx, tx, entity)
}

func (r *baseRepositoryImpl[T, P]) save(ctx context.Context, db bun.IDB, entity *T) (*T, error) {
	if entity == nil {
		return nil, errNilEntity
	}
	if P(entity).GetUUID() == uuid.Nil {
		if _, err := db.NewInsert().Model(entity).Exec(ctx); err != nil {
			return nil, err
		}
		return r.getOne(ctx, db, P(entity).GetUUID())
	}

	res, err := db.NewUpdate().Model(entity).WherePK().OmitZero().Exec(ctx)
	if err != nil {
		return nil, err
	}
	// mysql reports changed rather than matched rows, so zero is confirmed
	// before inserting
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		live, err := r.exists(ctx, db, P(entity).GetUUID(), false)
		if err != nil {
			return nil, err
		}
		if !live {
			deleted, err := r.exists(ctx, db, P(entity).GetUUID(), true)
			if err != nil {
				return nil, err
			}
			if deleted {
				return nil, fmt.Errorf("%w: %s %s is deleted", sql.ErrNoRows, r.table().Name, P(entity).GetUUID())
			}
			if _, err := db.NewInsert().Model(entity).Exec(ctx); err != nil {
				return nil, err
			}
		}
	}
	return r.getOne(ctx, db, P(entity).GetUUID())
}

func (r *baseRepositoryImpl[T, P]) exists(ctx context.Context, db bun.IDB, id uuid.UUID, withDeleted bool) (bool, error) {
	probe := new(T)
	P(probe).SetUUID(id)
	query := db.NewSelect().Model(probe).WherePK()
	if withDeleted {
		query = query.WhereAllWithDeleted()
	}
	return query.Exists(ctx)
}

// SoftDelete marks the row deleted and returns 1, or 0 when no live row has id.
func (r *baseRepositoryImpl[T, P]) SoftDelete(ctx context.Context, id uuid.UUID) (int64, error) {
	return r.softDelete(ctx, r.db, id)
}

func (r *baseRepositoryImpl[T, P]) SoftDeleteWithTx(ctx context.Context, tx *bun.Tx, id uuid.UUID) (int64, error) {
	return r.softDelete(ctx, tx, id)
}

func (r *baseRepositoryImpl[T, P]) softDelete(ctx context.Context, db bun.IDB, id uuid.UUID) (int64, error) {
	entity := new(T)
	P(entity).SetUUID(id)
	res, err := db.NewDelete().Model(entity).WherePK().Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *baseRepositoryImpl[T, P]) Upsert(ctx context.Context, fields []string, duplicateKeys []string, entity ...*T) error {
	return r.multipleUpsert(ctx, r.db, fields, duplicateKeys, entity)
}

func (r *baseRepositoryImpl[T, P]) UpsertWithTx(ctx context.Context, tx *bun.Tx, fields []string, duplicateKeys []string, entity ...*T) error {
	return r.multipleUpsert(ctx, tx, fields, duplicateKeys, entity)
}

// multipleUpsert inserts entities, updating fields of rows that collide on
// duplicateKeys (the primary key by default).
func (r *baseRepositoryImpl[T, P]) multipleUpsert(ctx context.Context, db bun.IDB, fields []string, duplicateKeys []string, entities []*T) error {
	if len(fields) == 0 {
		return fmt.Errorf("fields cannot be empty")
	}
	if len(entities) == 0 {
		return nil
	}
	table := r.table()
	for _, f := range append(append([]string(nil), fields...), duplicateKeys...) {
		if !table.HasField(f) {
			return fmt.Errorf("%w: %q on %s", ErrUnknownField, f, table.Name)
		}
	}

	batch := make([]*T, len(entities))
	copy(batch, entities)

	switch {
	case r.db.HasFeature(feature.InsertOnConflict):
		return r.upsertOnConflict(ctx, db.NewInsert(), fields, duplicateKeys, batch)
	case r.db.HasFeature(feature.InsertOnDuplicateKey):
		return r.upsertOnDuplicateKey(ctx, db.NewInsert(), fields, batch)
	default:
		return r.upsertFallback(ctx, db, batch)
	}
}

func (r *baseRepositoryImpl[T, P]) upsertOnDuplicateKey(ctx context.Context, insertQuery *bun.InsertQuery, fields []string, entities []*T) error {
	query := insertQuery.Model(&entities).On("DUPLICATE KEY UPDATE")
	for _, field := range fields {
		query = query.Set("? = VALUES(?)", bun.Ident(field), bun.Ident(field))
	}
	_, err := query.Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T, P]) upsertOnConflict(ctx context.Context, insertQuery *bun.InsertQuery, fields []string, duplicateKeys []string, entities []*T) error {
	if len(duplicateKeys) == 0 {
		duplicateKeys = []string{primaryKey}
	}
	keys := make([]string, len(duplicateKeys))
	keyArgs := make([]any, len(duplicateKeys))
	for i, k := range duplicateKeys {
		keys[i] = "?"
		keyArgs[i] = bun.Ident(k)
	}
	query := insertQuery.
		Model(&entities).
		On("CONFLICT ("+strings.Join(keys, ", ")+") DO UPDATE", keyArgs...)
	for _, field := range fields {
		query = query.Set("? = EXCLUDED.?", bun.Ident(field), bun.Ident(field))
	}
	_, err := query.Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T, P]) upsertFallback(ctx context.Context, db bun.IDB, entities []*T) error {
	for _, entity := range entities {
		if _, err := db.NewInsert().Model(entity).Exec(ctx); err != nil {
			if _, updateErr := db.NewUpdate().Model(entity).WherePK().Exec(ctx); updateErr != nil {
				return fmt.Errorf("upsert failed for entity: insert error: %v, update error: %v", err, updateErr)
			}
		}
	}
	return nil
}
