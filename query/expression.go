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
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/schema"
)

// Expression is an SQL fragment that renders itself through a Bun formatter.
type Expression interface {
	schema.QueryAppender
}

type appenderFunc func(fmter schema.Formatter, b []byte) ([]byte, error)

func (f appenderFunc) AppendQuery(fmter schema.Formatter, b []byte) ([]byte, error) {
	return f(fmter, b)
}

// arg hides the concrete type of e from Bun, which otherwise treats a lone
// struct argument as a source of named placeholders.
func arg(e schema.QueryAppender) schema.QueryAppender {
	return appenderFunc(e.AppendQuery)
}

// Render returns the SQL text of e for the given dialect.
func Render(d schema.Dialect, e Expression) (string, error) {
	b, err := e.AppendQuery(schema.NewFormatter(d), nil)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type value struct {
	v interface{}
}

func (v value) AppendQuery(fmter schema.Formatter, b []byte) ([]byte, error) {
	return schema.Append(fmter, b, v.v), nil
}

// Constant renders v as a literal.
func Constant(v interface{}) Expression {
	return value{v: v}
}

// operand turns a Go value into an expression; expressions pass through.
func operand(v interface{}) Expression {
	if e, ok := v.(Expression); ok {
		return e
	}
	return value{v: v}
}

func operands(vs []interface{}) []Expression {
	out := make([]Expression, len(vs))
	for i, v := range vs {
		out[i] = operand(v)
	}
	return out
}

// template substitutes each '?' in format with the next argument.
type template struct {
	format string
	args   []Expression
}

func (t template) AppendQuery(fmter schema.Formatter, b []byte) (_ []byte, err error) {
	next := 0
	for i := 0; i < len(t.format); i++ {
		c := t.format[i]
		if c == '?' && next < len(t.args) {
			b, err = t.args[next].AppendQuery(fmter, b)
			if err != nil {
				return nil, err
			}
			next++
			continue
		}
		b = append(b, c)
	}
	return b, nil
}

func expr(format string, args ...Expression) Expression {
	return template{format: format, args: args}
}

type aliased struct {
	target Expression
	alias  string
}

func (a aliased) AppendQuery(fmter schema.Formatter, b []byte) (_ []byte, err error) {
	b, err = a.target.AppendQuery(fmter, b)
	if err != nil {
		return nil, err
	}
	b = append(b, " AS "...)
	return fmter.AppendIdent(b, a.alias), nil
}

// As labels e in a projection, e.g. a sub-query mapped onto a DTO field.
func As(e Expression, alias string) Expression {
	if a, ok := e.(aliased); ok {
		e = a.target
	}
	return aliased{target: e, alias: alias}
}

func unalias(e Expression) Expression {
	if a, ok := e.(aliased); ok {
		return a.target
	}
	return e
}

type concat struct {
	parts []Expression
}

func (c concat) AppendQuery(fmter schema.Formatter, b []byte) (_ []byte, err error) {
	mysql := fmter.Dialect().Name() == dialect.MySQL
	if mysql {
		b = append(b, "CONCAT("...)
	} else {
		b = append(b, '(')
	}
	for i, p := range c.parts {
		if i > 0 {
			if mysql {
				b = append(b, ", "...)
			} else {
				b = append(b, " || "...)
			}
		}
		b, err = p.AppendQuery(fmter, b)
		if err != nil {
			return nil, err
		}
	}
	return append(b, ')'), nil
}

type castText struct {
	target Expression
}

func (c castText) AppendQuery(fmter schema.Formatter, b []byte) (_ []byte, err error) {
	b = append(b, "CAST("...)
	b, err = c.target.AppendQuery(fmter, b)
	if err != nil {
		return nil, err
	}
	if fmter.Dialect().Name() == dialect.MySQL {
		return append(b, " AS CHAR)"...), nil
	}
	return append(b, " AS TEXT)"...), nil
}
