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
	"reflect"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/quarry/types"
)

// Factory executes Specs against a Bun database or transaction.
type Factory struct {
	db bun.IDB
}

// NewFactory binds a factory to db, which may be a *bun.DB or a bun.Tx.
func NewFactory(db bun.IDB) *Factory {
	return &Factory{db: db}
}

func (f *Factory) DB() bun.IDB               { return f.db }
func (f *Factory) Dialect() schema.Dialect   { return f.db.Dialect() }
func (f *Factory) WithTx(tx bun.Tx) *Factory { return &Factory{db: tx} }

// RunInTx runs fn with a factory bound to a new transaction.
func (f *Factory) RunInTx(ctx context.Context, fn func(ctx context.Context, tf *Factory) error) error {
	return f.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, f.WithTx(tx))
	})
}

// SQL renders s the way the factory's dialect would execute it.
func (f *Factory) SQL(s Spec) (string, error) {
	return s.SQL(f.db.Dialect())
}

func (f *Factory) applyClauses(q *bun.SelectQuery, s Spec) *bun.SelectQuery {
	if s.distinct {
		q = q.Distinct()
	}
	for _, p := range conjuncts(s.where) {
		q = q.Where("?", arg(p))
	}
	for _, g := range s.groupBy {
		q = q.GroupExpr("?", arg(g))
	}
	if s.having != nil {
		q = q.Having("?", arg(s.having))
	}
	for _, o := range s.orderBy {
		q = q.OrderExpr("?", arg(o))
	}
	limit := s.limit
	if limit == 0 && s.offset > 0 {
		limit = unboundedLimit(f.db.Dialect().Name())
	}
	if limit != 0 {
		q = q.Limit(limit)
	}
	if s.offset > 0 {
		q = q.Offset(s.offset)
	}
	return q
}

// projectionQuery selects the Spec's projection without a model.
func (f *Factory) projectionQuery(s Spec) (*bun.SelectQuery, error) {
	if _, err := s.root(); err != nil {
		return nil, err
	}
	if len(s.projection) == 0 {
		return nil, ErrNoProjection
	}
	q := f.db.NewSelect()
	for _, src := range s.from {
		q = q.TableExpr("?", arg(src))
	}
	for _, e := range s.projection {
		q = q.ColumnExpr("?", arg(e))
	}
	for _, j := range s.joins {
		q = q.Join("?", arg(j))
	}
	return f.applyClauses(q, s), nil
}

// entityQuery selects whole rows of the root source into model. The root
// must be the model's own table and alias; fetch joins become Bun relations
// and must use the relation's alias.
func (f *Factory) entityQuery(s Spec, model interface{}, typ reflect.Type) (*bun.SelectQuery, error) {
	root, err := s.root()
	if err != nil {
		return nil, err
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a model struct", ErrEntityMismatch, typ)
	}
	table := f.db.Dialect().Tables().Get(typ)
	if table.Name != root.table || table.Alias != root.alias {
		return nil, fmt.Errorf("%w: %s AS %s, model is %s AS %s",
			ErrEntityMismatch, root.table, root.alias, table.Name, table.Alias)
	}

	q := f.db.NewSelect().Model(model)
	for _, src := range s.from[1:] {
		q = q.TableExpr("?", arg(src))
	}
	for _, j := range s.joins {
		if !j.fetch {
			q = q.Join("?", arg(j))
			continue
		}
		rel, ok := table.Relations[j.assoc.name]
		if !ok {
			return nil, fmt.Errorf("%w: %s has no relation %s", ErrFetchJoinAlias, table.TypeName, j.assoc.name)
		}
		if rel.Field.Name != j.target.alias {
			return nil, fmt.Errorf("%w: %s joined as %q, want %q",
				ErrFetchJoinAlias, j.assoc.name, j.target.alias, rel.Field.Name)
		}
		var opts bun.RelationOpts
		if j.on != nil {
			opts.AdditionalJoinOnConditions = []schema.QueryWithArgs{
				schema.SafeQuery("?", []interface{}{arg(j.on)}),
			}
		}
		q = q.RelationWithOpts(j.assoc.name, opts)
		if j.kind == InnerJoin {
			q = q.Where("? IS NOT NULL", arg(j.target.Column(j.assoc.targetColumn)))
		}
	}
	return f.applyClauses(q, s), nil
}

// Count returns how many rows s would produce, ignoring order and paging.
func (f *Factory) Count(ctx context.Context, s Spec) (int64, error) {
	if _, err := s.root(); err != nil {
		return 0, err
	}
	inner := s
	inner.orderBy, inner.offset, inner.limit = nil, 0, 0
	if len(inner.groupBy) == 0 && !inner.distinct {
		inner.projection = []Expression{Constant(1)}
	} else if len(inner.projection) > 0 {
		cols := make([]Expression, len(inner.projection))
		for i, e := range inner.projection {
			cols[i] = As(e, columnAlias(i))
		}
		inner.projection = cols
	}

	var n int64
	err := f.db.NewSelect().
		ColumnExpr("count(*)").
		TableExpr("? AS ?", arg(inner), bun.Ident("counted")).
		Scan(ctx, &n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func columnAlias(i int) string {
	return fmt.Sprintf("c%d", i)
}

// Fetch returns every row of s. Without a projection T must be the root
// entity's model; with one, T is a scalar or a struct whose bun tags match
// the projected column names or aliases.
func Fetch[T any](ctx context.Context, f *Factory, s Spec) ([]T, error) {
	items := make([]T, 0)
	if len(s.projection) == 0 {
		q, err := f.entityQuery(s, &items, reflect.TypeFor[T]())
		if err != nil {
			return nil, err
		}
		if err := q.Scan(ctx); err != nil {
			return nil, err
		}
		return items, nil
	}

	q, err := f.projectionQuery(s)
	if err != nil {
		return nil, err
	}
	if err := q.Scan(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// FetchOne returns the single row of s, ErrNotFound when there is none and
// ErrNonUnique when there are several.
func FetchOne[T any](ctx context.Context, f *Factory, s Spec) (T, error) {
	var zero T
	if s.limit == 0 || s.limit > 2 {
		s = s.Limit(2)
	}
	items, err := Fetch[T](ctx, f, s)
	if err != nil {
		return zero, err
	}
	switch len(items) {
	case 0:
		return zero, ErrNotFound
	case 1:
		return items[0], nil
	default:
		return zero, ErrNonUnique
	}
}

// FetchFirst returns the first row of s or ErrNotFound.
func FetchFirst[T any](ctx context.Context, f *Factory, s Spec) (T, error) {
	var zero T
	items, err := Fetch[T](ctx, f, s.Limit(1))
	if err != nil {
		return zero, err
	}
	if len(items) == 0 {
		return zero, ErrNotFound
	}
	return items[0], nil
}

// FetchResults returns one page of s together with the total row count.
func FetchResults[T any](ctx context.Context, f *Factory, s Spec) (types.Results[T], error) {
	total, err := f.Count(ctx, s)
	if err != nil {
		return types.Results[T]{}, err
	}
	if total == 0 {
		return types.NewResults[T](0, s.offset, s.limit, nil), nil
	}
	items, err := Fetch[T](ctx, f, s)
	if err != nil {
		return types.Results[T]{}, err
	}
	return types.NewResults(total, s.offset, s.limit, items), nil
}

// Native runs hand written SQL and scans the rows into T.
func Native[T any](ctx context.Context, f *Factory, sql string, args ...interface{}) ([]T, error) {
	items := make([]T, 0)
	if err := f.db.NewRaw(sql, args...).Scan(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}
