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

package query

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/uptrace/bun/schema"
)

type tupleIndex struct {
	dialect schema.Dialect
	keys    map[string]int
}

func newTupleIndex(d schema.Dialect, exprs []Expression) (*tupleIndex, error) {
	idx := &tupleIndex{dialect: d, keys: make(map[string]int, len(exprs)*2)}
	for i, e := range exprs {
		key, err := Render(d, e)
		if err != nil {
			return nil, err
		}
		idx.keys[key] = i
	}
	// Unaliased forms resolve too, unless they collide with a listed one.
	for i, e := range exprs {
		if a, ok := e.(aliased); ok {
			key, err := Render(d, a.target)
			if err != nil {
				return nil, err
			}
			if _, taken := idx.keys[key]; !taken {
				idx.keys[key] = i
			}
		}
	}
	return idx, nil
}

// Tuple is one row of a heterogeneous projection. Values are looked up by
// the same expression that was projected, or by position.
type Tuple struct {
	index  *tupleIndex
	values []interface{}
}

func (t Tuple) Len() int { return len(t.values) }

// At returns the i-th projected value.
func (t Tuple) At(i int) interface{} { return t.values[i] }

func (t Tuple) Values() []interface{} { return t.values }

// Lookup returns the value projected for e.
func (t Tuple) Lookup(e Expression) (interface{}, bool) {
	key, err := Render(t.index.dialect, e)
	if err != nil {
		return nil, false
	}
	i, ok := t.index.keys[key]
	if !ok {
		return nil, false
	}
	return t.values[i], true
}

// Get returns the value projected for e, or nil.
func (t Tuple) Get(e Expression) interface{} {
	v, _ := t.Lookup(e)
	return v
}

func (t Tuple) IsNull(e Expression) bool {
	return t.Get(e) == nil
}

// Str returns the value for e as text; NULL becomes "".
func (t Tuple) Str(e Expression) string {
	return toString(t.Get(e))
}

// Int64 returns the value for e as an integer; NULL becomes 0.
func (t Tuple) Int64(e Expression) int64 {
	return toInt64(t.Get(e))
}

func (t Tuple) Int(e Expression) int {
	return int(t.Int64(e))
}

// Float64 returns the value for e as a float; NULL becomes 0.
func (t Tuple) Float64(e Expression) float64 {
	return toFloat64(t.Get(e))
}

func (t Tuple) String() string {
	parts := make([]string, len(t.values))
	for i, v := range t.values {
		if v == nil {
			parts[i] = "null"
			continue
		}
		parts[i] = toString(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func toString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

func toInt64(v interface{}) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case uint64:
		return int64(x)
	case float64:
		return int64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case string, []byte:
		s := toString(x)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		f, _ := strconv.ParseFloat(s, 64)
		return int64(f)
	}
	return 0
}

func toFloat64(v interface{}) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int64:
		return float64(x)
	case int:
		return float64(x)
	case string, []byte:
		f, _ := strconv.ParseFloat(toString(x), 64)
		return f
	}
	return 0
}

// FetchTuples runs a projecting Spec and returns one Tuple per row.
func (f *Factory) FetchTuples(ctx context.Context, s Spec) ([]Tuple, error) {
	if len(s.projection) == 0 {
		return nil, ErrNoProjection
	}
	idx, err := newTupleIndex(f.db.Dialect(), s.projection)
	if err != nil {
		return nil, err
	}

	cols := make([]Expression, len(s.projection))
	for i, e := range s.projection {
		cols[i] = As(e, columnAlias(i))
	}
	q, err := f.projectionQuery(s.Select(cols...))
	if err != nil {
		return nil, err
	}

	var rows []map[string]interface{}
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, err
	}

	out := make([]Tuple, len(rows))
	for r, row := range rows {
		values := make([]interface{}, len(cols))
		for i := range cols {
			values[i] = row[columnAlias(i)]
		}
		out[r] = Tuple{index: idx, values: values}
	}
	return out, nil
}

// Projection maps tuple rows onto T, the way a DTO constructor would.
type Projection[T any] struct {
	exprs []Expression
	build func(Tuple) (T, error)
}

// Constructor declares a projection of exprs built into T by build.
func Constructor[T any](build func(Tuple) (T, error), exprs ...Expression) Projection[T] {
	return Projection[T]{exprs: exprs, build: build}
}

func (p Projection[T]) Exprs() []Expression { return p.exprs }

// Project runs s with p's expressions as projection and builds each row.
func Project[T any](ctx context.Context, f *Factory, s Spec, p Projection[T]) ([]T, error) {
	tuples, err := f.FetchTuples(ctx, s.Select(p.exprs...))
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(tuples))
	for _, t := range tuples {
		v, err := p.build(t)
		if err != nil {
			return nil, fmt.Errorf("project row %s: %w", t, err)
		}
		out = append(out, v)
	}
	return out, nil
}

var _ schema.QueryAppender = Spec{}
