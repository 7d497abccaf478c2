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
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/quarry/types"
)

// JoinKind selects INNER or LEFT OUTER join semantics.
type JoinKind int

const (
	InnerJoin JoinKind = iota
	LeftJoin
)

type join struct {
	kind   JoinKind
	target EntityPath
	assoc  *Association
	on     Predicate
	fetch  bool
}

func (j join) condition() Predicate {
	if j.assoc == nil {
		return j.on
	}
	return And(j.assoc.condition(j.target), j.on)
}

func (j join) AppendQuery(fmter schema.Formatter, b []byte) (_ []byte, err error) {
	if j.kind == LeftJoin {
		b = append(b, "LEFT JOIN "...)
	} else {
		b = append(b, "JOIN "...)
	}
	b, err = j.target.AppendQuery(fmter, b)
	if err != nil {
		return nil, err
	}
	b = append(b, " ON "...)
	cond := j.condition()
	if cond == nil {
		return append(b, "1 = 1"...), nil
	}
	return cond.AppendQuery(fmter, b)
}

// Spec is an immutable query description. Every method returns a modified
// copy, so a partially built Spec can be shared and extended safely. Errors
// found while building are kept and reported when the Spec is executed.
type Spec struct {
	distinct   bool
	projection []Expression
	from       []EntityPath
	joins      []join
	where      Predicate
	groupBy    []Expression
	having     Predicate
	orderBy    []OrderSpecifier
	offset     int
	limit      int
	err        error
}

// SelectFrom selects whole rows of e.
func SelectFrom(e Entity) Spec {
	return Spec{from: []EntityPath{e.Path()}}
}

// Select starts a Spec projecting exprs; add sources with From.
func Select(exprs ...Expression) Spec {
	return Spec{projection: slices.Clone(exprs)}
}

// Select replaces the projection.
func (s Spec) Select(exprs ...Expression) Spec {
	s.projection = slices.Clone(exprs)
	return s
}

// From adds sources; more than one source is a cross (theta) join.
func (s Spec) From(es ...Entity) Spec {
	from := slices.Clip(s.from)
	for _, e := range es {
		from = append(from, e.Path())
	}
	s.from = from
	return s
}

func (s Spec) Distinct() Spec {
	s.distinct = true
	return s
}

// Join inner joins target through a. The association's foreign key forms
// the ON condition; On adds to it.
func (s Spec) Join(a Association, target Entity) Spec {
	return s.addAssocJoin(InnerJoin, a, target)
}

// LeftJoin is Join with LEFT OUTER semantics.
func (s Spec) LeftJoin(a Association, target Entity) Spec {
	return s.addAssocJoin(LeftJoin, a, target)
}

// JoinEntity inner joins an unrelated entity; supply the condition with On.
func (s Spec) JoinEntity(target Entity) Spec {
	return s.addJoin(join{kind: InnerJoin, target: target.Path()})
}

// LeftJoinEntity left joins an unrelated entity; supply the condition with On.
func (s Spec) LeftJoinEntity(target Entity) Spec {
	return s.addJoin(join{kind: LeftJoin, target: target.Path()})
}

func (s Spec) addAssocJoin(kind JoinKind, a Association, target Entity) Spec {
	t := target.Path()
	if t.table != a.targetTable {
		return s.fail(fmt.Errorf("%w: %s joins %s, got %s", ErrJoinTarget, a.name, a.targetTable, t.table))
	}
	return s.addJoin(join{kind: kind, target: t, assoc: &a})
}

func (s Spec) addJoin(j join) Spec {
	s.joins = append(slices.Clip(s.joins), j)
	return s
}

func (s Spec) lastJoin(fn func(j *join)) Spec {
	if len(s.joins) == 0 {
		return s.fail(ErrDanglingJoin)
	}
	joins := slices.Clone(s.joins)
	fn(&joins[len(joins)-1])
	s.joins = joins
	return s
}

// On adds conditions to the most recent join.
func (s Spec) On(preds ...Predicate) Spec {
	return s.lastJoin(func(j *join) {
		j.on = And(j.on, And(preds...))
	})
}

// FetchJoin loads the most recent association join into the root entity's
// relation field. It applies only when the Spec fetches entities.
func (s Spec) FetchJoin() Spec {
	if len(s.joins) > 0 && s.joins[len(s.joins)-1].assoc == nil {
		return s.fail(fmt.Errorf("%w: fetch join needs an association", ErrDanglingJoin))
	}
	return s.lastJoin(func(j *join) { j.fetch = true })
}

// Where adds conditions; nil operands are ignored and repeated calls AND up.
func (s Spec) Where(preds ...Predicate) Spec {
	s.where = And(s.where, And(preds...))
	return s
}

func (s Spec) GroupBy(exprs ...Expression) Spec {
	group := slices.Clip(s.groupBy)
	for _, e := range exprs {
		group = append(group, unalias(e))
	}
	s.groupBy = group
	return s
}

func (s Spec) Having(preds ...Predicate) Spec {
	s.having = And(s.having, And(preds...))
	return s
}

func (s Spec) OrderBy(orders ...OrderSpecifier) Spec {
	s.orderBy = append(slices.Clip(s.orderBy), orders...)
	return s
}

func (s Spec) Offset(n int) Spec {
	s.offset = max(n, 0)
	return s
}

// Limit caps the row count; zero means unbounded.
func (s Spec) Limit(n int) Spec {
	s.limit = max(n, 0)
	return s
}

// Restrict applies a page request.
func (s Spec) Restrict(p types.PageRequest) Spec {
	return s.Offset(p.GetOffset()).Limit(p.GetLimit())
}

// Err reports the first error recorded while building.
func (s Spec) Err() error { return s.err }

func (s Spec) fail(err error) Spec {
	if s.err == nil {
		s.err = err
	}
	return s
}

func (s Spec) GetOffset() int { return s.offset }
func (s Spec) GetLimit() int  { return s.limit }

func (s Spec) root() (EntityPath, error) {
	if s.err != nil {
		return EntityPath{}, s.err
	}
	if len(s.from) == 0 {
		return EntityPath{}, ErrNoSource
	}
	return s.from[0], nil
}

// SQL renders the Spec as a standalone SELECT.
func (s Spec) SQL(d schema.Dialect) (string, error) {
	b, err := s.appendSelect(schema.NewFormatter(d), nil)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// AppendQuery renders the Spec as a parenthesised sub-query.
func (s Spec) AppendQuery(fmter schema.Formatter, b []byte) (_ []byte, err error) {
	b = append(b, '(')
	b, err = s.appendSelect(fmter, b)
	if err != nil {
		return nil, err
	}
	return append(b, ')'), nil
}

func (s Spec) appendSelect(fmter schema.Formatter, b []byte) (_ []byte, err error) {
	root, err := s.root()
	if err != nil {
		return nil, err
	}

	b = append(b, "SELECT "...)
	if s.distinct {
		b = append(b, "DISTINCT "...)
	}
	if len(s.projection) == 0 {
		b = fmter.AppendIdent(b, root.alias)
		b = append(b, ".*"...)
	} else {
		b, err = appendList(fmter, b, s.projection)
		if err != nil {
			return nil, err
		}
	}

	b = append(b, " FROM "...)
	b, err = appendList(fmter, b, s.from)
	if err != nil {
		return nil, err
	}

	for _, j := range s.joins {
		b = append(b, ' ')
		b, err = j.AppendQuery(fmter, b)
		if err != nil {
			return nil, err
		}
	}

	if where := conjuncts(s.where); len(where) > 0 {
		b = append(b, " WHERE "...)
		for i, p := range where {
			if i > 0 {
				b = append(b, " AND "...)
			}
			b = append(b, '(')
			b, err = p.AppendQuery(fmter, b)
			if err != nil {
				return nil, err
			}
			b = append(b, ')')
		}
	}

	if len(s.groupBy) > 0 {
		b = append(b, " GROUP BY "...)
		b, err = appendList(fmter, b, s.groupBy)
		if err != nil {
			return nil, err
		}
	}

	if s.having != nil {
		b = append(b, " HAVING "...)
		b, err = s.having.AppendQuery(fmter, b)
		if err != nil {
			return nil, err
		}
	}

	if len(s.orderBy) > 0 {
		b = append(b, " ORDER BY "...)
		b, err = appendList(fmter, b, s.orderBy)
		if err != nil {
			return nil, err
		}
	}

	return s.appendLimitOffset(fmter, b), nil
}

func (s Spec) appendLimitOffset(fmter schema.Formatter, b []byte) []byte {
	limit := s.limit
	if limit == 0 && s.offset > 0 {
		limit = unboundedLimit(fmter.Dialect().Name())
	}
	if limit != 0 {
		b = append(b, " LIMIT "...)
		b = strconv.AppendInt(b, int64(limit), 10)
	}
	if s.offset > 0 {
		b = append(b, " OFFSET "...)
		b = strconv.AppendInt(b, int64(s.offset), 10)
	}
	return b
}

// unboundedLimit is the LIMIT a dialect needs before a bare OFFSET; zero
// when OFFSET may stand alone.
func unboundedLimit(name dialect.Name) int {
	switch name {
	case dialect.SQLite:
		return -1
	case dialect.MySQL:
		return math.MaxInt32
	}
	return 0
}

func appendList[E schema.QueryAppender](fmter schema.Formatter, b []byte, items []E) (_ []byte, err error) {
	for i, item := range items {
		if i > 0 {
			b = append(b, ", "...)
		}
		b, err = item.AppendQuery(fmter, b)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}
