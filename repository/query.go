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
	"fmt"
	"strings"

	"github.com/tomoncle/anvil/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

const likeEscape = "!"

var likeEscaper = strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")

type condition struct {
	expr string
	args []any
}

// compile renders p as a Bun where clause. An empty expr means the predicate
// does not restrict the result.
func compile(p types.Predicate) (condition, error) {
	switch p.Kind {
	case types.PredicateEq:
		if p.Value == nil {
			return condition{"? IS NULL", []any{bun.Ident(p.Field)}}, nil
		}
		return condition{"? = ?", []any{bun.Ident(p.Field), p.Value}}, nil

	case types.PredicateContains:
		term := fmt.Sprint(p.Value)
		if p.Value == nil {
			term = ""
		}
		// both sides fold in SQL so column and term follow the same rules
		pattern := "%" + likeEscaper.Replace(term) + "%"
		return condition{"LOWER(?) LIKE LOWER(?) ESCAPE '" + likeEscape + "'", []any{bun.Ident(p.Field), pattern}}, nil

	case types.PredicateRange:
		var parts []string
		var args []any
		if p.Min != nil {
			parts = append(parts, "? >= ?")
			args = append(args, bun.Ident(p.Field), p.Min)
		}
		if p.Max != nil {
			parts = append(parts, "? <= ?")
			args = append(args, bun.Ident(p.Field), p.Max)
		}
		return condition{strings.Join(parts, " AND "), args}, nil

	case types.PredicateAnyOf:
		if len(p.Any) == 0 {
			return condition{"1 = 0", nil}, nil
		}
		var parts []string
		var args []any
		for _, sub := range p.Any {
			c, err := compile(sub)
			if err != nil {
				return condition{}, err
			}
			if c.expr == "" {
				// an unrestricted member makes the whole group unrestricted
				return condition{}, nil
			}
			parts = append(parts, "("+c.expr+")")
			args = append(args, c.args...)
		}
		return condition{strings.Join(parts, " OR "), args}, nil
	}
	return condition{}, fmt.Errorf("%w: kind %d", ErrInvalidPredicate, p.Kind)
}

func applyWhere(query *bun.SelectQuery, where []types.Predicate) (*bun.SelectQuery, error) {
	for _, p := range where {
		c, err := compile(p)
		if err != nil {
			return nil, err
		}
		if c.expr == "" {
			continue
		}
		query = query.Where("("+c.expr+")", c.args...)
	}
	return query, nil
}

type orderTerm struct {
	field string
	dir   string
}

// parseOrder accepts "field", "field ASC" or "field DESC", case-insensitive.
func parseOrder(order string) (orderTerm, error) {
	parts := strings.Fields(order)
	switch len(parts) {
	case 1:
		return orderTerm{field: parts[0], dir: "ASC"}, nil
	case 2:
		dir := strings.ToUpper(parts[1])
		if dir == "ASC" || dir == "DESC" {
			return orderTerm{field: parts[0], dir: dir}, nil
		}
	}
	return orderTerm{}, fmt.Errorf("%w: %q", ErrInvalidOrder, order)
}

func applyOrder(query *bun.SelectQuery, terms []orderTerm) *bun.SelectQuery {
	for _, t := range terms {
		query = query.OrderExpr("? "+t.dir, bun.Ident(t.field))
	}
	return query
}

// checkOptions verifies every referenced column against table before a
// query is built.
func checkOptions(table *schema.Table, opts types.Options) ([]orderTerm, error) {
	for _, p := range opts.Where {
		if err := checkPredicate(table, p); err != nil {
			return nil, err
		}
	}
	terms := make([]orderTerm, 0, len(opts.Order))
	for _, o := range opts.Order {
		t, err := parseOrder(o)
		if err != nil {
			return nil, err
		}
		if !table.HasField(t.field) {
			return nil, fmt.Errorf("%w: %q on %s", ErrUnknownField, t.field, table.Name)
		}
		terms = append(terms, t)
	}
	return terms, nil
}

func checkPredicate(table *schema.Table, p types.Predicate) error {
	if !p.Kind.IsValid() {
		return fmt.Errorf("%w: kind %d", ErrInvalidPredicate, p.Kind)
	}
	if p.Kind == types.PredicateAnyOf {
		for _, sub := range p.Any {
			if err := checkPredicate(table, sub); err != nil {
				return err
			}
		}
		return nil
	}
	if !table.HasField(p.Field) {
		return fmt.Errorf("%w: %q on %s", ErrUnknownField, p.Field, table.Name)
	}
	return nil
}
