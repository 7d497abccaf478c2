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

import "strings"

// StringExpr is a text valued expression: a column, a concatenation, a cast
// or a text aggregate.
type StringExpr struct {
	Expression
}

func (s StringExpr) Eq(v interface{}) Predicate { return compare(s, "=", v) }
func (s StringExpr) Ne(v interface{}) Predicate { return compare(s, "<>", v) }
func (s StringExpr) Lt(v interface{}) Predicate { return compare(s, "<", v) }
func (s StringExpr) Gt(v interface{}) Predicate { return compare(s, ">", v) }

// Like matches a raw LIKE pattern.
func (s StringExpr) Like(pattern string) Predicate {
	return likeMatch{target: s, pattern: value{v: pattern}}
}

// Contains matches values holding sub literally.
func (s StringExpr) Contains(sub string) Predicate {
	return likeMatch{target: s, pattern: value{v: "%" + escapeLike(sub) + "%"}, escaped: true}
}

// StartsWith matches values beginning with prefix literally.
func (s StringExpr) StartsWith(prefix string) Predicate {
	return likeMatch{target: s, pattern: value{v: escapeLike(prefix) + "%"}, escaped: true}
}

func (s StringExpr) In(values ...interface{}) Predicate    { return memberOf(s, false, values) }
func (s StringExpr) NotIn(values ...interface{}) Predicate { return memberOf(s, true, values) }
func (s StringExpr) IsNull() Predicate                     { return nullCheck{target: s} }
func (s StringExpr) IsNotNull() Predicate                  { return nullCheck{target: s, negated: true} }

// Concat appends v, which may be a literal or another expression.
func (s StringExpr) Concat(v interface{}) StringExpr {
	if c, ok := s.Expression.(concat); ok {
		parts := append(append([]Expression(nil), c.parts...), operand(v))
		return StringExpr{concat{parts: parts}}
	}
	return StringExpr{concat{parts: []Expression{s.Expression, operand(v)}}}
}

func (s StringExpr) Upper() StringExpr  { return StringExpr{expr("upper(?)", s.Expression)} }
func (s StringExpr) Lower() StringExpr  { return StringExpr{expr("lower(?)", s.Expression)} }
func (s StringExpr) Length() NumberExpr { return NumberExpr{expr("length(?)", s.Expression)} }
func (s StringExpr) Max() StringExpr    { return StringExpr{expr("max(?)", s.Expression)} }
func (s StringExpr) Min() StringExpr    { return StringExpr{expr("min(?)", s.Expression)} }
func (s StringExpr) Count() NumberExpr  { return NumberExpr{expr("count(?)", s.Expression)} }

func (s StringExpr) As(alias string) Expression { return As(s.Expression, alias) }
func (s StringExpr) Asc() OrderSpecifier        { return Asc(s.Expression) }
func (s StringExpr) Desc() OrderSpecifier       { return Desc(s.Expression) }

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// NumberExpr is a numeric expression: a column, arithmetic, or an aggregate.
type NumberExpr struct {
	Expression
}

func (n NumberExpr) Eq(v interface{}) Predicate  { return compare(n, "=", v) }
func (n NumberExpr) Ne(v interface{}) Predicate  { return compare(n, "<>", v) }
func (n NumberExpr) Gt(v interface{}) Predicate  { return compare(n, ">", v) }
func (n NumberExpr) Goe(v interface{}) Predicate { return compare(n, ">=", v) }
func (n NumberExpr) Lt(v interface{}) Predicate  { return compare(n, "<", v) }
func (n NumberExpr) Loe(v interface{}) Predicate { return compare(n, "<=", v) }

// Between is inclusive on both ends.
func (n NumberExpr) Between(lo, hi interface{}) Predicate {
	return between{target: n, lo: operand(lo), hi: operand(hi)}
}

// In accepts literal values or a single Spec used as a sub-query.
func (n NumberExpr) In(values ...interface{}) Predicate    { return memberOf(n, false, values) }
func (n NumberExpr) NotIn(values ...interface{}) Predicate { return memberOf(n, true, values) }
func (n NumberExpr) IsNull() Predicate                     { return nullCheck{target: n} }
func (n NumberExpr) IsNotNull() Predicate                  { return nullCheck{target: n, negated: true} }

func (n NumberExpr) Add(v interface{}) NumberExpr {
	return NumberExpr{expr("(? + ?)", n.Expression, operand(v))}
}

func (n NumberExpr) Subtract(v interface{}) NumberExpr {
	return NumberExpr{expr("(? - ?)", n.Expression, operand(v))}
}

func (n NumberExpr) Multiply(v interface{}) NumberExpr {
	return NumberExpr{expr("(? * ?)", n.Expression, operand(v))}
}

func (n NumberExpr) Sum() NumberExpr   { return NumberExpr{expr("sum(?)", n.Expression)} }
func (n NumberExpr) Avg() NumberExpr   { return NumberExpr{expr("avg(?)", n.Expression)} }
func (n NumberExpr) Max() NumberExpr   { return NumberExpr{expr("max(?)", n.Expression)} }
func (n NumberExpr) Min() NumberExpr   { return NumberExpr{expr("min(?)", n.Expression)} }
func (n NumberExpr) Count() NumberExpr { return NumberExpr{expr("count(?)", n.Expression)} }

// StringValue casts the number to text so it can be concatenated.
func (n NumberExpr) StringValue() StringExpr {
	return StringExpr{castText{target: n.Expression}}
}

// When starts a simple CASE over n.
func (n NumberExpr) When(v interface{}) CaseWhen {
	return CaseBuilder{subject: n.Expression}.When(v)
}

func (n NumberExpr) As(alias string) Expression { return As(n.Expression, alias) }
func (n NumberExpr) Asc() OrderSpecifier        { return Asc(n.Expression) }
func (n NumberExpr) Desc() OrderSpecifier       { return Desc(n.Expression) }
