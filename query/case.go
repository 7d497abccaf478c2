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
	"slices"

	"github.com/uptrace/bun/schema"
)

type caseBranch struct {
	cond   Expression
	result Expression
}

// CaseBuilder collects WHEN branches. With a subject it renders a simple
// CASE comparing the subject against each value; without one each WHEN
// takes a Predicate.
type CaseBuilder struct {
	subject  Expression
	branches []caseBranch
}

// CaseWhen is a branch waiting for its THEN value.
type CaseWhen struct {
	builder CaseBuilder
	cond    Expression
}

// Cases starts a searched CASE.
func Cases() CaseBuilder {
	return CaseBuilder{}
}

func (c CaseBuilder) When(v interface{}) CaseWhen {
	return CaseWhen{builder: c, cond: operand(v)}
}

func (w CaseWhen) Then(v interface{}) CaseBuilder {
	c := w.builder
	c.branches = append(slices.Clip(c.branches), caseBranch{cond: w.cond, result: operand(v)})
	return c
}

// Otherwise closes the CASE with an ELSE value.
func (c CaseBuilder) Otherwise(v interface{}) CaseExpr {
	return CaseExpr{builder: c, otherwise: operand(v)}
}

// End closes the CASE without ELSE; unmatched rows yield NULL.
func (c CaseBuilder) End() CaseExpr {
	return CaseExpr{builder: c}
}

// CaseExpr is a finished CASE expression.
type CaseExpr struct {
	builder   CaseBuilder
	otherwise Expression
}

func (e CaseExpr) AppendQuery(fmter schema.Formatter, b []byte) (_ []byte, err error) {
	b = append(b, "CASE"...)
	if e.builder.subject != nil {
		b = append(b, ' ')
		b, err = e.builder.subject.AppendQuery(fmter, b)
		if err != nil {
			return nil, err
		}
	}
	for _, br := range e.builder.branches {
		b = append(b, " WHEN "...)
		b, err = br.cond.AppendQuery(fmter, b)
		if err != nil {
			return nil, err
		}
		b = append(b, " THEN "...)
		b, err = br.result.AppendQuery(fmter, b)
		if err != nil {
			return nil, err
		}
	}
	if e.otherwise != nil {
		b = append(b, " ELSE "...)
		b, err = e.otherwise.AppendQuery(fmter, b)
		if err != nil {
			return nil, err
		}
	}
	return append(b, " END"...), nil
}

func (e CaseExpr) As(alias string) Expression { return As(e, alias) }
func (e CaseExpr) Asc() OrderSpecifier        { return Asc(e) }
func (e CaseExpr) Desc() OrderSpecifier       { return Desc(e) }

// Number views the CASE as numeric, e.g. to order by a computed rank.
func (e CaseExpr) Number() NumberExpr { return NumberExpr{e} }

// Text views the CASE as text.
func (e CaseExpr) Text() StringExpr { return StringExpr{e} }
