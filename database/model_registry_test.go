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

package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type regFirst struct{ ID int64 }
type regSecond struct{ ID int64 }
type regThird struct{ ID int64 }

func TestModelRegistryOrdersByPriority(t *testing.T) {
	r := NewModelRegistry()
	r.Register(NewModelAdapter((*regThird)(nil), 20))
	r.Register(NewModelAdapter((*regFirst)(nil), 0))
	r.Register(NewModelAdapter((*regSecond)(nil), 20))

	got := modelInstances(r.Models())
	assert.Equal(t, []interface{}{(*regFirst)(nil), (*regThird)(nil), (*regSecond)(nil)}, got)
}

func TestModelRegistryReplacesSameType(t *testing.T) {
	r := NewModelRegistry()
	r.Register(NewModelAdapter((*regFirst)(nil), 5))
	r.Register(NewModelAdapter((*regFirst)(nil), 1))
	r.Register(nil)

	models := r.Models()
	if assert.Len(t, models, 1) {
		assert.Equal(t, 1, models[0].Priority())
	}
}

func TestModelRegistryModelsIsCopy(t *testing.T) {
	r := NewModelRegistry()
	r.Register(NewModelAdapter((*regFirst)(nil), 0))

	models := r.Models()
	models[0] = NewModelAdapter((*regSecond)(nil), 0)
	assert.Equal(t, (*regFirst)(nil), r.Models()[0].Instance())
}
