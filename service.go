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

package anvil

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tomoncle/anvil/database"
	"github.com/tomoncle/anvil/exception"
	"github.com/tomoncle/anvil/logging"
	"github.com/tomoncle/anvil/repository"
	"github.com/tomoncle/anvil/types"
	"github.com/tomoncle/anvil/validation"
)

var logger = logging.NewLogger("SERVICE")

type Service[T any, D any] interface {
	// ValidateDto builds a D from data and checks its rules. Failures are
	// *exception.ValidationError.
	ValidateDto(data any) (*D, error)

	// BuildOptionsToFilter turns Search over SearchFields into an AnyOf group
	// of contains predicates appended to Where. The input is not modified.
	BuildOptionsToFilter(opts types.Options) types.Options

	// Get returns the entity with id, or nil when id is malformed or absent.
	Get(ctx context.Context, id string) (*T, error)

	// Filter returns the page selected by opts and the total match count.
	Filter(ctx context.Context, opts types.Options) (*types.Paginated[T], error)

	// Save inserts or merges model and returns the stored entity.
	Save(ctx context.Context, model *T) (*T, error)

	// Create validates data, runs the create hook and saves the built entity.
	Create(ctx context.Context, data any) (*T, error)

	// Edit validates data, runs the edit hook and merges the built entity
	// into the row with id.
	Edit(ctx context.Context, id string, data any) (*T, error)

	// Remove soft deletes the row with id.
	Remove(ctx context.Context, id string) (*types.DeleteResult, error)
}

type baseServiceImpl[T any, D any, P types.EntityPtr[T]] struct {
	behavior Behavior[T, D]
	store    Store[T]
	newStore func() Store[T]
	once     sync.Once
}

// NewService returns a Service persisting through store.
func NewService[T any, D any, P types.EntityPtr[T]](store Store[T], behavior Behavior[T, D]) Service[T, D] {
	if store == nil {
		panic("anvil: NewService with nil store")
	}
	return newBaseServiceImpl[T, D, P](behavior, func() Store[T] { return store })
}

// NewDefaultService returns a Service backed by a generic repository on the
// process-wide database. The repository is bound on first use, so the
// service may be built before database.InitDB.
func NewDefaultService[T any, D any, P types.EntityPtr[T]](behavior Behavior[T, D]) Service[T, D] {
	return newBaseServiceImpl[T, D, P](behavior, func() Store[T] {
		return repository.NewRepository[T, P](database.GetDB())
	})
}

func newBaseServiceImpl[T any, D any, P types.EntityPtr[T]](behavior Behavior[T, D], newStore func() Store[T]) *baseServiceImpl[T, D, P] {
	if behavior == nil {
		panic("anvil: service with nil behavior")
	}
	return &baseServiceImpl[T, D, P]{behavior: behavior, newStore: newStore}
}

func (s *baseServiceImpl[T, D, P]) baseRepo() Store[T] {
	s.once.Do(func() { s.store = s.newStore() })
	return s.store
}

func (s *baseServiceImpl[T, D, P]) ValidateDto(data any) (*D, error) {
	dto, err := validation.Struct[D](data)
	if err != nil {
		var vErr *exception.ValidationError
		if errors.As(err, &vErr) {
			logger.WithField("dto", dtoName[D]()).WithField("fields", vErr.Fields()).Debug("dto validation failed")
		}
		return nil, err
	}
	return dto, nil
}

func (s *baseServiceImpl[T, D, P]) BuildOptionsToFilter(opts types.Options) types.Options {
	out := opts.Clone()
	if opts.Search == "" || len(opts.SearchFields) == 0 {
		return out
	}
	group := make([]types.Predicate, 0, len(opts.SearchFields))
	for _, field := range opts.SearchFields {
		if field = strings.TrimSpace(field); field != "" {
			group = append(group, types.Contains(field, opts.Search))
		}
	}
	if len(group) == 0 {
		return out
	}
	out.Where = append(out.Where, types.AnyOf(group...))
	out.Search = ""
	return out
}

func (s *baseServiceImpl[T, D, P]) Get(ctx context.Context, id string) (*T, error) {
	uid, ok := parseID(id)
	if !ok {
		return nil, nil
	}
	entity, err := s.baseRepo().GetOne(ctx, uid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entity, nil
}

func (s *baseServiceImpl[T, D, P]) Filter(ctx context.Context, opts types.Options) (*types.Paginated[T], error) {
	filter := s.BuildOptionsToFilter(opts)
	rows, total, err := s.baseRepo().FindAndCount(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := types.NewPaginated[T](opts)
	if rows != nil {
		page.Data = rows
	}
	page.Total = total
	return page, nil
}

func (s *baseServiceImpl[T, D, P]) Save(ctx context.Context, model *T) (*T, error) {
	if model == nil {
		return nil, exception.BadRequestf("%s: nothing to save", entityName[T]())
	}
	return s.save(ctx, model)
}

func (s *baseServiceImpl[T, D, P]) Create(ctx context.Context, data any) (*T, error) {
	dto, err := s.ValidateDto(data)
	if err != nil {
		return nil, err
	}
	if err := s.behavior.ValidateBeforeCreate(ctx, dto); err != nil {
		return nil, err
	}
	partial, err := s.build(ctx, dto)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, partial)
}

func (s *baseServiceImpl[T, D, P]) Edit(ctx context.Context, id string, data any) (*T, error) {
	dto, err := s.ValidateDto(data)
	if err != nil {
		return nil, err
	}
	uid, ok := parseID(id)
	if !ok {
		return nil, exception.NotFoundf("%s %q not found", entityName[T](), id)
	}
	if err := s.behavior.ValidateBeforeEdit(ctx, uid, dto); err != nil {
		return nil, err
	}
	partial, err := s.build(ctx, dto)
	if err != nil {
		return nil, err
	}
	P(partial).SetUUID(uid)
	return s.save(ctx, partial)
}

// save reports a removed row as NotFound.
func (s *baseServiceImpl[T, D, P]) save(ctx context.Context, entity *T) (*T, error) {
	saved, err := s.baseRepo().Save(ctx, entity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, exception.Wrap(exception.NotFound, entityName[T]()+" "+P(entity).GetUUID().String()+" not found", err)
	}
	return saved, err
}

func (s *baseServiceImpl[T, D, P]) Remove(ctx context.Context, id string) (*types.DeleteResult, error) {
	uid, ok := parseID(id)
	if !ok {
		return &types.DeleteResult{}, nil
	}
	affected, err := s.baseRepo().SoftDelete(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &types.DeleteResult{Affected: affected}, nil
}

func (s *baseServiceImpl[T, D, P]) build(ctx context.Context, dto *D) (*T, error) {
	partial, err := s.behavior.BuildPartial(ctx, dto)
	if err != nil {
		return nil, err
	}
	if partial == nil {
		return nil, exception.New(exception.Internal, entityName[T]()+": BuildPartial returned no entity")
	}
	return partial, nil
}

// parseID accepts only the canonical and braced/urn forms uuid.Parse knows;
// the nil UUID is never a valid row id.
func parseID(id string) (uuid.UUID, bool) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil || uid == uuid.Nil {
		return uuid.Nil, false
	}
	return uid, true
}

func entityName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().Name()
}

func dtoName[D any]() string {
	return reflect.TypeOf((*D)(nil)).Elem().Name()
}
