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

package types

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Identifiable is implemented by models addressed by a UUID.
type Identifiable interface {
	GetUUID() uuid.UUID
	SetUUID(id uuid.UUID)
}

// EntityPtr constrains a type parameter to *T where *T is Identifiable.
type EntityPtr[T any] interface {
	*T
	Identifiable
}

// Entity carries the identity, audit and soft-delete columns shared by all
// persisted models. Embed it next to bun.BaseModel:
//
//	type User struct {
//		bun.BaseModel `bun:"table:users,alias:u"`
//		types.Entity
//		Name string `bun:"name,notnull"`
//		Age  *int   `bun:"age"`
//	}
//
// Saves merge only non-zero columns, so a field that must be settable to
// 0, "" or false is declared as a pointer.
type Entity struct {
	UUID      uuid.UUID `bun:"uuid,pk,type:varchar(36)" json:"uuid"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
	DeletedAt time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at"`
}

var (
	_ Identifiable              = (*Entity)(nil)
	_ bun.BeforeAppendModelHook = (*Entity)(nil)
)

func (e *Entity) GetUUID() uuid.UUID { return e.UUID }

func (e *Entity) SetUUID(id uuid.UUID) { e.UUID = id }

// IsDeleted reports whether the row has been soft deleted.
func (e *Entity) IsDeleted() bool { return !e.DeletedAt.IsZero() }

// BeforeAppendModel fills identity and audit columns before Bun renders a query.
func (e *Entity) BeforeAppendModel(_ context.Context, query bun.Query) error {
	now := time.Now()
	switch query.(type) {
	case *bun.InsertQuery:
		if e.UUID == uuid.Nil {
			e.UUID = uuid.New()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		e.UpdatedAt = now
	case *bun.UpdateQuery:
		e.UpdatedAt = now
	}
	return nil
}
