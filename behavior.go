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

	"github.com/google/uuid"
	"github.com/tomoncle/anvil/types"
)

// Behavior is the per-entity part of a Service: it maps a validated DTO onto
// a partial entity and may veto creates and edits. A hook error aborts the
// operation and is returned to the caller unchanged.
type Behavior[T any, D any] interface {
	// BuildPartial returns an entity holding only the fields the DTO sets;
	// zero fields are left untouched on edit. Use pointer fields on the
	// entity for values that may legitimately be zero.
	BuildPartial(ctx context.Context, dto *D) (*T, error)

	ValidateBeforeCreate(ctx context.Context, dto *D) error

	ValidateBeforeEdit(ctx context.Context, id uuid.UUID, dto *D) error
}

// NoHooks implements the validation hooks of Behavior as no-ops. Embed it
// and define BuildPartial.
type NoHooks[D any] struct{}

func (NoHooks[D]) ValidateBeforeCreate(context.Context, *D) error { return nil }

func (NoHooks[D]) ValidateBeforeEdit(context.Context, uuid.UUID, *D) error { return nil }

// BuildFunc adapts a mapping function into a Behavior without hooks.
type BuildFunc[T any, D any] func(ctx context.Context, dto *D) (*T, error)

func (f BuildFunc[T, D]) BuildPartial(ctx context.Context, dto *D) (*T, error) {
	return f(ctx, dto)
}

func (f BuildFunc[T, D]) ValidateBeforeCreate(context.Context, *D) error { return nil }

func (f BuildFunc[T, D]) ValidateBeforeEdit(context.Context, uuid.UUID, *D) error { return nil }

// Store is the persistence a Service needs. repository.Repository satisfies it.
type Store[T any] interface {
	// GetOne returns sql.ErrNoRows when no live row has id.
	GetOne(ctx context.Context, id uuid.UUID) (*T, error)
	FindAndCount(ctx context.Context, opts types.Options) ([]*T, int, error)
	Save(ctx context.Context, entity *T) (*T, error)
	SoftDelete(ctx context.Context, id uuid.UUID) (int64, error)
}
