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
	"github.com/uptrace/bun/schema"
)

// Predicate is a boolean expression usable in WHERE, HAVING and ON.
// A nil Predicate means "no condition" everywhere it is accepted.
type Predicate interface {
	Expression
	predicate()
}

type comparison struct {
	left  Expression
	op    string
	right Expression
}

func (comparison) predicate() {}

func (c comparison) AppendQuery(fmter schema.Formatter, b []byte) (_ []byte, err error) {
	b, err = c.left.AppendQuery(fmter, b)
	if err != nil {
		return nil, err
	}
	b = append(b, ' ')
	b = append(b, c.op...)
	b = append(b, ' ')
	return c.right.AppendQuery(fmter, b)
}

func compare(left Expression, op string, right interface{}) Predicate {
	return comparison{left: left, op: op, right: operand(right)}
}

type likeMatch struct {
	target  Expression
	pattern Expression
	escaped bool
}

func (likeMatch) predicate() {}

func (l likeMatch) AppendQuery(fmter schema.Formatter, b []byte) (_ []byte, err error) {
	b, err = l.target.AppendQuery(fmter, b)
	if err != nil {
		return nil, err
	}
	b = append(b, " LIKE "...)
	b, err = l.pattern.AppendQuery(fmter, b)
	if err != nil {
		return nil, err
	}
	if l.escaped {
		b = append(b, " ESCAPE "...)
		b = schema.Append(fmter, b, `\`)
	}
	return b, nil
}

type between struct {
	target Expression
	lo, hi Expression
}

func (between) predicate() {}

func (p between) AppendQuery(fmter schema.Formatter, b []byte) ([]byte, error) {
	return expr("? BETWEEN ? AND ?", p.target, p.lo, p.hi).AppendQuery(fmter, b)
}

type membership struct {
	target   Expression
	values   []Expression
	subquery Expression
	negated  bool
}

func (membership) predicate() {}

func (m membership) AppendQuery(fmter schema.Formatter, b []byte) (_ []byte, err error) {
	if m.subquery == nil && len(m.values) == 0 {
		if m.negated {
			return append(b, "1 = 1"...), nil
		}
		return append(b, "1 = 0"...), nil
	}
	b, err = m.target.AppendQuery(fmter, b)
	if err != nil {
		return nil, err
	}
	if m.negated {
		b = append(b, " NOT IN "...)
	} else {
		b = append(b, " IN "...)
	}
	if m.subquery != nil {
		return m.subquery.AppendQuery(fmter, b)
	}
	b = append(b, '(')
	for i, v := range m.values {
		if i > 0 {
			b = append(b, ", "...)
		}
		b, err = v.AppendQuery(fmter, b)
		if err != nil {
			return nil, err
		}
	}
	return append(b, ')'), nil
}

func memberOf(target Expression, negated bool, values []interface{}) Predicate {
	if len(values) == 1 {
		if s, ok := values[0].(Spec); ok {
			return membership{target: target, subquery: s, negated: negated}
		}
	}
	return membership{target: target, values: operands(values), negated: negated}
}

type nullCheck struct {
	target  Expression
	negated bool
}

func (nullCheck) predicate() {}

func (n nullCheck) AppendQuery(fmter schema.Formatter, b []byte) (_ []byte, err error) {
	b, err = n.target.AppendQuery(fmter, b)
	if err != nil {
		return nil, err
	}
	if n.negated {
		return append(b, " IS NOT NULL"...), nil
	}
	return append(b, " IS NULL"...), nil
}

type junction struct {
	op    string
	preds []Predicate
}

func (junction) predicate() {}

func (j junction) AppendQuery(fmter schema.Formatter, b []byte) (_ []byte, err error) {
	b = append(b, '(')
	for i, p := range j.preds {
		if i > 0 {
			b = append(b, ' ')
			b = append(b, j.op...)
			b = append(b, ' ')
		}
		b, err = p.AppendQuery(fmter, b)
		if err != nil {
			return nil, err
		}
	}
	return append(b, ')'), nil
}

type negation struct {
	inner Predicate
}

func (negation) predicate() {}

func (n negation) AppendQuery(fmter schema.Formatter, b []byte) (_ []byte, err error) {
	b = append(b, "NOT ("...)
	b, err = n.inner.AppendQuery(fmter, b)
	if err != nil {
		return nil, err
	}
	return append(b, ')'), nil
}

type exists struct {
	subquery Spec
}

func (exists) predicate() {}

func (e exists) AppendQuery(fmter schema.Formatter, b []byte) ([]byte, error) {
	b = append(b, "EXISTS "...)
	return e.subquery.AppendQuery(fmter, b)
}

// Exists holds when the sub-query returns at least one row.
func Exists(sub Spec) Predicate {
	return exists{subquery: sub}
}

// unwrap resolves builders to their accumulated value.
func unwrap(p Predicate) Predicate {
	if b, ok := p.(Builder); ok {
		return b.pred
	}
	if b, ok := p.(*Builder); ok {
		if b == nil {
			return nil
		}
		return b.pred
	}
	return p
}

func junctionOf(op string, preds []Predicate) Predicate {
	var kept []Predicate
	for _, p := range preds {
		p = unwrap(p)
		if p == nil {
			continue
		}
		if j, ok := p.(junction); ok && j.op == op {
			kept = append(kept, j.preds...)
			continue
		}
		kept = append(kept, p)
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return junction{op: op, preds: kept}
}

// And conjoins preds, skipping nil operands. It returns nil when every
// operand is nil, so absent conditions disappear from the query.
func And(preds ...Predicate) Predicate {
	return junctionOf("AND", preds)
}

// Or disjoins preds with the same nil handling as And.
func Or(preds ...Predicate) Predicate {
	return junctionOf("OR", preds)
}

// Not negates p; Not(nil) is nil.
func Not(p Predicate) Predicate {
	p = unwrap(p)
	if p == nil {
		return nil
	}
	if n, ok := p.(negation); ok {
		return n.inner
	}
	return negation{inner: p}
}

// conjuncts splits a top level AND so each operand becomes its own WHERE item.
func conjuncts(p Predicate) []Predicate {
	p = unwrap(p)
	if p == nil {
		return nil
	}
	if j, ok := p.(junction); ok && j.op == "AND" {
		return j.preds
	}
	return []Predicate{p}
}

// Builder accumulates predicates. It is a value: every method returns a new
// Builder and leaves the receiver unchanged.
type Builder struct {
	pred Predicate
}

// NewBuilder starts from the conjunction of initial.
func NewBuilder(initial ...Predicate) Builder {
	return Builder{pred: And(initial...)}
}

func (Builder) predicate() {}

func (b Builder) And(p Predicate) Builder    { return Builder{pred: And(b.pred, p)} }
func (b Builder) Or(p Predicate) Builder     { return Builder{pred: Or(b.pred, p)} }
func (b Builder) AndNot(p Predicate) Builder { return Builder{pred: And(b.pred, Not(p))} }
func (b Builder) Not() Builder               { return Builder{pred: Not(b.pred)} }

// HasValue reports whether any condition was added.
func (b Builder) HasValue() bool { return b.pred != nil }

// Value returns the accumulated predicate or nil.
func (b Builder) Value() Predicate { return b.pred }

func (b Builder) AppendQuery(fmter schema.Formatter, dst []byte) ([]byte, error) {
	if b.pred == nil {
		return append(dst, "1 = 1"...), nil
	}
	return b.pred.AppendQuery(fmter, dst)
}
