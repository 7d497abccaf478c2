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

// Entity is anything that can stand as a FROM or JOIN source.
type Entity interface {
	Path() EntityPath
}

// EntityPath names a table under an alias. Two paths over the same table
// with different aliases are independent sources, which is what sub-queries
// over the outer entity rely on.
type EntityPath struct {
	table string
	alias string
	pk    string
}

// NewEntityPath returns a path for table aliased as alias with primary key pk.
func NewEntityPath(table, alias, pk string) EntityPath {
	return EntityPath{table: table, alias: alias, pk: pk}
}

func (e EntityPath) Path() EntityPath { return e }
func (e EntityPath) Table() string    { return e.table }
func (e EntityPath) Alias() string    { return e.alias }
func (e EntityPath) PK() string       { return e.pk }

// AppendQuery renders the source as `table AS alias`.
func (e EntityPath) AppendQuery(fmter schema.Formatter, b []byte) ([]byte, error) {
	b = fmter.AppendIdent(b, e.table)
	b = append(b, " AS "...)
	return fmter.AppendIdent(b, e.alias), nil
}

// Count counts the non-null primary keys of the entity.
func (e EntityPath) Count() NumberExpr {
	return NumberExpr{expr("count(?)", e.Column(e.pk))}
}

// Column references a raw column of the entity.
func (e EntityPath) Column(name string) Expression {
	return columnRef{alias: e.alias, name: name}
}

type columnRef struct {
	alias string
	name  string
}

func (c columnRef) AppendQuery(fmter schema.Formatter, b []byte) ([]byte, error) {
	b = fmter.AppendIdent(b, c.alias)
	b = append(b, '.')
	return fmter.AppendIdent(b, c.name), nil
}

func columnOf(e Expression) (columnRef, bool) {
	switch x := e.(type) {
	case columnRef:
		return x, true
	case StringExpr:
		return columnOf(x.Expression)
	case NumberExpr:
		return columnOf(x.Expression)
	}
	return columnRef{}, false
}

// NewStringPath references a text column of e.
func NewStringPath(e Entity, column string) StringExpr {
	return StringExpr{e.Path().Column(column)}
}

// NewNumberPath references a numeric column of e.
func NewNumberPath(e Entity, column string) NumberExpr {
	return NumberExpr{e.Path().Column(column)}
}

// Association is a many-to-one link from an owner entity to a target table.
// Name is the Go field holding the related model, used for fetch joins.
type Association struct {
	name         string
	owner        EntityPath
	column       string
	targetTable  string
	targetColumn string
}

// ManyToOne describes owner.column referencing targetTable.targetColumn.
func ManyToOne(owner Entity, name, column, targetTable, targetColumn string) Association {
	return Association{
		name:         name,
		owner:        owner.Path(),
		column:       column,
		targetTable:  targetTable,
		targetColumn: targetColumn,
	}
}

func (a Association) Name() string { return a.name }

// condition joins the owner's foreign key to target.
func (a Association) condition(target EntityPath) Predicate {
	return comparison{
		left:  target.Column(a.targetColumn),
		op:    "=",
		right: a.owner.Column(a.column),
	}
}
