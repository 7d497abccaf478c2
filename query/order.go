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

	"github.com/tomoncle/quarry/types"
)

// Direction of an ORDER BY item.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

var _ types.BaseEnum = Ascending

func (d Direction) IsValid() bool  { return d == Ascending || d == Descending }
func (d Direction) Number() int    { return int(d) }
func (d Direction) String() string { return d.Name() }
func (d Direction) Desc() string   { return d.Name() }

func (d Direction) Name() string {
	switch d {
	case Ascending:
		return "ASC"
	case Descending:
		return "DESC"
	default:
		return types.IllegalName
	}
}

// ParseDirection maps "asc" or "desc", in any case, to a Direction.
func ParseDirection(name string) (Direction, bool) {
	return types.ParseEnum(name, Ascending, Descending)
}

// NullHandling places NULLs relative to other values.
type NullHandling int

const (
	NullsDefault NullHandling = iota
	NullsFirst
	NullsLast
)

var _ types.BaseEnum = NullsDefault

func (n NullHandling) IsValid() bool  { return n >= NullsDefault && n <= NullsLast }
func (n NullHandling) Number() int    { return int(n) }
func (n NullHandling) String() string { return n.Name() }
func (n NullHandling) Desc() string   { return n.Name() }

func (n NullHandling) Name() string {
	switch n {
	case NullsDefault:
		return "DEFAULT"
	case NullsFirst:
		return "NULLS FIRST"
	case NullsLast:
		return "NULLS LAST"
	default:
		return types.IllegalName
	}
}

// OrderSpecifier is a single ORDER BY item.
type OrderSpecifier struct {
	target    Expression
	direction Direction
	nulls     NullHandling
}

func Asc(e Expression) OrderSpecifier  { return OrderSpecifier{target: unalias(e), direction: Ascending} }
func Desc(e Expression) OrderSpecifier { return OrderSpecifier{target: unalias(e), direction: Descending} }

// By orders e in direction d.
func By(e Expression, d Direction) OrderSpecifier {
	return OrderSpecifier{target: unalias(e), direction: d}
}

func (o OrderSpecifier) NullsFirst() OrderSpecifier { o.nulls = NullsFirst; return o }
func (o OrderSpecifier) NullsLast() OrderSpecifier  { o.nulls = NullsLast; return o }

func (o OrderSpecifier) Direction() Direction       { return o.direction }
func (o OrderSpecifier) NullHandling() NullHandling { return o.nulls }

// AppendQuery renders the item. MySQL has no NULLS FIRST/LAST, so the
// placement is emulated with a leading ISNULL() key.
func (o OrderSpecifier) AppendQuery(fmter schema.Formatter, b []byte) (_ []byte, err error) {
	if o.nulls != NullsDefault && fmter.Dialect().Name() == dialect.MySQL {
		b = append(b, "ISNULL("...)
		b, err = o.target.AppendQuery(fmter, b)
		if err != nil {
			return nil, err
		}
		if o.nulls == NullsLast {
			b = append(b, ") ASC, "...)
		} else {
			b = append(b, ") DESC, "...)
		}
		return o.appendPlain(fmter, b)
	}

	b, err = o.appendPlain(fmter, b)
	if err != nil {
		return nil, err
	}
	if o.nulls != NullsDefault {
		b = append(b, ' ')
		b = append(b, o.nulls.Name()...)
	}
	return b, nil
}

func (o OrderSpecifier) appendPlain(fmter schema.Formatter, b []byte) (_ []byte, err error) {
	b, err = o.target.AppendQuery(fmter, b)
	if err != nil {
		return nil, err
	}
	b = append(b, ' ')
	return append(b, o.direction.Name()...), nil
}
