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

package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionalPresence(t *testing.T) {
	some := Some("member1")
	v, ok := some.Get()
	require.True(t, ok)
	require.Equal(t, "member1", v)
	require.True(t, some.IsPresent())

	none := None[int]()
	require.False(t, none.IsPresent())
	require.Equal(t, 7, none.OrElse(7))
	require.Nil(t, none.Ptr())

	var zero Optional[string]
	require.False(t, zero.IsPresent())
}

func TestOptionalFromPtr(t *testing.T) {
	age := 10
	require.Equal(t, Some(10), FromPtr(&age))
	require.Equal(t, None[int](), FromPtr[int](nil))
	require.Equal(t, 10, *FromPtr(&age).Ptr())
}

func TestOptionalJSON(t *testing.T) {
	type cond struct {
		Username Optional[string] `json:"username"`
		Age      Optional[int]    `json:"age"`
	}

	var c cond
	require.NoError(t, json.Unmarshal([]byte(`{"username":"member1","age":null}`), &c))
	assert.Equal(t, Some("member1"), c.Username)
	assert.False(t, c.Age.IsPresent())

	out, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"member1","age":null}`, string(out))
}

func TestPageRequest(t *testing.T) {
	p := NewPageRequest(2, 5)
	require.Equal(t, 5, p.GetOffset())
	require.Equal(t, 5, p.GetLimit())
	require.Equal(t, 2, p.GetPage())

	p = NewPageRequest(0, 0)
	require.Equal(t, 0, p.GetOffset())
	require.Equal(t, DefaultPageSize, p.GetLimit())

	o := NewOffsetRequest(-3, -1)
	require.Equal(t, 0, o.GetOffset())
	require.True(t, o.IsUnbounded())
	require.Equal(t, 1, o.GetPage())
}

func TestResultsPagination(t *testing.T) {
	r := NewResults[string](4, 2, 2, []string{"member2", "member1"})
	pg := ToPagination(r)
	require.Equal(t, 2, pg.Page)
	require.Equal(t, 2, pg.PageSize)
	require.EqualValues(t, 4, pg.Total)

	empty := NewResults[int](0, 0, 0, nil)
	require.NotNil(t, empty.Items)
	require.True(t, empty.IsEmpty())
}

type color int

func (c color) IsValid() bool  { return c >= 0 && c < 2 }
func (c color) Number() int    { return int(c) }
func (c color) String() string { return c.Name() }
func (c color) Desc() string   { return c.Name() }
func (c color) Name() string {
	switch c {
	case 0:
		return "RED"
	case 1:
		return "BLUE"
	default:
		return IllegalName
	}
}

func TestParseEnum(t *testing.T) {
	v, ok := ParseEnum(" blue ", color(0), color(1))
	require.True(t, ok)
	require.Equal(t, color(1), v)

	_, ok = ParseEnum("green", color(0), color(1))
	require.False(t, ok)
}
