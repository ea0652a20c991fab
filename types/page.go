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

// Options describes a filtered, paginated listing request.
type Options struct {
	// Where predicates are combined with AND.
	Where []Predicate `json:"where,omitempty"`
	// Search is matched against every entry of SearchFields.
	Search       string   `json:"search,omitempty"`
	SearchFields []string `json:"searchFields,omitempty"`
	Take         int      `json:"take,omitempty"`
	Skip         int      `json:"skip,omitempty"`
	Order        []string `json:"order,omitempty"` // "name ASC", "created_at DESC"
}

// Clone returns a copy whose slices can be modified without touching o.
func (o Options) Clone() Options {
	c := o
	if o.Where != nil {
		c.Where = append([]Predicate(nil), o.Where...)
	}
	if o.SearchFields != nil {
		c.SearchFields = append([]string(nil), o.SearchFields...)
	}
	if o.Order != nil {
		c.Order = append([]string(nil), o.Order...)
	}
	return c
}

func (o Options) GetTake() int {
	if o.Take < 0 {
		return 0
	}
	return o.Take
}

func (o Options) GetSkip() int {
	if o.Skip < 0 {
		return 0
	}
	return o.Skip
}

// Paginated holds one page of results with the total matching count and the
// requested bounds.
type Paginated[T any] struct {
	Data   []*T `json:"data"`
	Total  int  `json:"total"`
	Limit  int  `json:"limit"`
	Offset int  `json:"offset"`
}

// NewPaginated constructs an empty page echoing the requested bounds.
func NewPaginated[T any](opts Options) *Paginated[T] {
	return &Paginated[T]{Data: make([]*T, 0), Limit: opts.Take, Offset: opts.Skip}
}

// DeleteResult reports how many rows a soft delete marked.
type DeleteResult struct {
	Affected int64 `json:"affected"`
}
