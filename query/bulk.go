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
	"slices"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
)

type assignment struct {
	column string
	value  Expression
}

// UpdateClause is a set based UPDATE over one entity. It bypasses model
// hooks and any loaded entities; re-read rows after executing it.
type UpdateClause struct {
	f      *Factory
	target EntityPath
	sets   []assignment
	where  Predicate
	err    error
}

// Update starts a bulk update of e.
func (f *Factory) Update(e Entity) UpdateClause {
	return UpdateClause{f: f, target: e.Path()}
}

// Set assigns v, a literal or an expression such as path.Add(1), to path.
func (u UpdateClause) Set(path Expression, v interface{}) UpdateClause {
	col, ok := columnOf(path)
	if !ok || col.alias != u.target.alias {
		if u.err == nil {
			u.err = ErrNotAColumn
		}
		return u
	}
	u.sets = append(slices.Clip(u.sets), assignment{column: col.name, value: operand(v)})
	return u
}

func (u UpdateClause) Where(preds ...Predicate) UpdateClause {
	u.where = And(u.where, And(preds...))
	return u
}

// Execute runs the statement and returns the number of affected rows.
func (u UpdateClause) Execute(ctx context.Context) (int64, error) {
	if u.err != nil {
		return 0, u.err
	}
	if len(u.sets) == 0 {
		return 0, fmt.Errorf("query: update of %s has no assignments", u.target.table)
	}
	d := u.f.db.Dialect()
	if !d.Features().Has(feature.UpdateMultiTable) && !d.Features().Has(feature.UpdateTableAlias) {
		return 0, fmt.Errorf("%w: update %s on %s", ErrUnsupportedBulk, u.target.table, d.Name())
	}

	q := u.f.db.NewUpdate().TableExpr("?", arg(u.target))
	for _, a := range u.sets {
		q = q.Set("? = ?", bun.Ident(a.column), arg(a.value))
	}
	where := conjuncts(u.where)
	if len(where) == 0 {
		q = q.Where("1 = 1")
	}
	for _, p := range where {
		q = q.Where("?", arg(p))
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteClause is a set based DELETE over one entity.
type DeleteClause struct {
	f      *Factory
	target EntityPath
	where  Predicate
}

// DeleteFrom starts a bulk delete of e.
func (f *Factory) DeleteFrom(e Entity) DeleteClause {
	return DeleteClause{f: f, target: e.Path()}
}

func (d DeleteClause) Where(preds ...Predicate) DeleteClause {
	d.where = And(d.where, And(preds...))
	return d
}

// Execute runs the statement and returns the number of deleted rows.
func (d DeleteClause) Execute(ctx context.Context) (int64, error) {
	dia := d.f.db.Dialect()
	if !dia.Features().Has(feature.DeleteTableAlias) {
		return 0, fmt.Errorf("%w: delete from %s on %s", ErrUnsupportedBulk, d.target.table, dia.Name())
	}

	q := d.f.db.NewDelete().TableExpr("?", arg(d.target))
	where := conjuncts(d.where)
	if len(where) == 0 {
		q = q.Where("1 = 1")
	}
	for _, p := range where {
		q = q.Where("?", arg(p))
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
