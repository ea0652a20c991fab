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

// Predicate is a single filter condition on a model column. The Kind decides
// which of the remaining fields are meaningful:
//
//	PredicateEq       Field, Value (nil matches NULL)
//	PredicateContains Field, Value (string term, matched case-insensitively)
//	PredicateRange    Field, Min and/or Max (inclusive, nil bound is open)
//	PredicateAnyOf    Any (OR of the nested predicates)
type Predicate struct {
	Kind  PredicateKind
	Field string
	Value any
	Min   any
	Max   any
	Any   []Predicate
}

// Eq matches rows whose field equals value.
func Eq(field string, value any) Predicate {
	return Predicate{Kind: PredicateEq, Field: field, Value: value}
}

// Contains matches rows whose field contains term, ignoring case. Case is
// folded by the database LOWER function, which on sqlite covers ASCII only.
func Contains(field string, term string) Predicate {
	return Predicate{Kind: PredicateContains, Field: field, Value: term}
}

// Between matches rows whose field lies in [min, max]. Either bound may be nil.
func Between(field string, min, max any) Predicate {
	return Predicate{Kind: PredicateRange, Field: field, Min: min, Max: max}
}

// AnyOf matches rows satisfying at least one of the given predicates.
func AnyOf(predicates ...Predicate) Predicate {
	return Predicate{Kind: PredicateAnyOf, Any: predicates}
}

// Fields returns every column name referenced by the predicate, nested ones included.
func (p Predicate) Fields() []string {
	if p.Kind != PredicateAnyOf {
		return []string{p.Field}
	}
	var fields []string
	for _, sub := range p.Any {
		fields = append(fields, sub.Fields()...)
	}
	return fields
}
