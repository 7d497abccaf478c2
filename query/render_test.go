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

package query_test

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/quarry/entity"
	"github.com/tomoncle/quarry/query"
)

func render(t *testing.T, d schema.Dialect, e query.Expression) string {
	t.Helper()
	sql, err := query.Render(d, e)
	require.NoError(t, err)
	return sql
}

func specSQL(t *testing.T, d schema.Dialect, s query.Spec) string {
	t.Helper()
	sql, err := s.SQL(d)
	require.NoError(t, err)
	return sql
}

func TestSpecGolden(t *testing.T) {
	sub := entity.NewQMember("memberSub")
	cases := map[string]query.Spec{
		"join_where_order_page": query.SelectFrom(member).
			Join(member.Team, team).
			Where(member.Username.Eq("member1"), member.Age.Between(10, 30)).
			OrderBy(member.Age.Desc(), member.Username.Asc().NullsLast()).
			Offset(1).
			Limit(2),
		"subquery_max": query.SelectFrom(member).
			Where(member.Age.Eq(query.Select(sub.Age.Max()).From(sub))),
		"group_having": query.Select(team.Name, member.Age.Avg()).
			From(member).
			Join(member.Team, team).
			GroupBy(team.Name).
			Having(member.Age.Avg().Gt(20)),
		"left_join_on_case": query.Select(
			member.Username,
			query.Cases().When(member.Age.Lt(20)).Then("young").Otherwise("old").As("grade"),
			team.Name,
		).
			From(member).
			LeftJoin(member.Team, team).
			On(team.Name.Eq("teamA")),
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			g.Assert(t, name, []byte(specSQL(t, sqlitedialect.New(), s)))
		})
	}
}

func TestSpecIsImmutable(t *testing.T) {
	d := sqlitedialect.New()
	base := query.SelectFrom(member).Where(member.Age.Gt(10))
	before := specSQL(t, d, base)

	_ = base.Where(member.Username.Eq("member1")).OrderBy(member.Age.Asc()).Limit(3)
	_ = base.Join(member.Team, team)

	assert.Equal(t, before, specSQL(t, d, base))
}

func TestSpecWithoutSource(t *testing.T) {
	_, err := query.Select(member.Username).SQL(sqlitedialect.New())
	assert.ErrorIs(t, err, query.ErrNoSource)
}

func TestOrderNullsByDialect(t *testing.T) {
	order := member.Username.Asc().NullsLast()

	assert.Equal(t, `"member"."username" ASC NULLS LAST`, render(t, pgdialect.New(), order))
	assert.Equal(t, `"member"."username" ASC NULLS LAST`, render(t, sqlitedialect.New(), order))
	assert.Equal(t, "ISNULL(`member`.`username`) ASC, `member`.`username` ASC", render(t, mysqldialect.New(), order))

	first := member.Age.Desc().NullsFirst()
	assert.Equal(t, "ISNULL(`member`.`age`) DESC, `member`.`age` DESC", render(t, mysqldialect.New(), first))
	assert.Equal(t, query.NullsFirst, first.NullHandling())
	assert.Equal(t, query.Descending, first.Direction())
}

func TestParseDirection(t *testing.T) {
	d, ok := query.ParseDirection(" desc ")
	require.True(t, ok)
	assert.Equal(t, query.Descending, d)
	assert.Equal(t, `"member"."id" DESC`, render(t, pgdialect.New(), query.By(member.ID, d)))

	d, ok = query.ParseDirection("Asc")
	require.True(t, ok)
	assert.Equal(t, query.Ascending, d)

	_, ok = query.ParseDirection("sideways")
	assert.False(t, ok)
}

func TestConcatByDialect(t *testing.T) {
	e := member.Username.Concat("_").Concat(member.Age.StringValue())

	assert.Equal(t, `("member"."username" || '_' || CAST("member"."age" AS TEXT))`, render(t, pgdialect.New(), e))
	assert.Equal(t, "CONCAT(`member`.`username`, '_', CAST(`member`.`age` AS CHAR))", render(t, mysqldialect.New(), e))
}

func TestOffsetWithoutLimitByDialect(t *testing.T) {
	s := query.Select(member.ID).From(member).Offset(3)

	assert.Equal(t, `SELECT "member"."id" FROM "members" AS "member" LIMIT -1 OFFSET 3`, specSQL(t, sqlitedialect.New(), s))
	assert.Equal(t, `SELECT "member"."id" FROM "members" AS "member" OFFSET 3`, specSQL(t, pgdialect.New(), s))
	assert.Equal(t, "SELECT `member`.`id` FROM `members` AS `member` LIMIT 2147483647 OFFSET 3", specSQL(t, mysqldialect.New(), s))
}

func TestPredicateComposition(t *testing.T) {
	d := sqlitedialect.New()
	eq := member.Username.Eq("member1")
	young := member.Age.Lt(20)

	assert.Nil(t, query.And())
	assert.Nil(t, query.And(nil, nil))
	assert.Nil(t, query.Or(nil))
	assert.Nil(t, query.Not(nil))
	assert.Equal(t, eq, query.And(nil, eq, nil))
	assert.Equal(t, eq, query.Not(query.Not(eq)))

	assert.Equal(t, `("member"."username" = 'member1' AND "member"."age" < 20)`, render(t, d, query.And(eq, young)))
	assert.Equal(t, `("member"."username" = 'member1' AND "member"."age" < 20 AND "member"."age" = 10)`,
		render(t, d, query.And(query.And(eq, young), member.Age.Eq(10))))
	assert.Equal(t, `("member"."username" = 'member1' OR NOT ("member"."age" < 20))`,
		render(t, d, query.Or(eq, query.Not(young))))
	assert.Equal(t, `1 = 0`, render(t, d, member.Age.In()))
	assert.Equal(t, `1 = 1`, render(t, d, member.Age.NotIn()))
	assert.Equal(t, `"member"."age" IN (10, 20)`, render(t, d, member.Age.In(10, 20)))
	assert.Equal(t, `"member"."username" IS NULL`, render(t, d, member.Username.IsNull()))
}

func TestBuilder(t *testing.T) {
	d := sqlitedialect.New()

	empty := query.NewBuilder()
	assert.False(t, empty.HasValue())
	assert.Nil(t, empty.Value())
	assert.Equal(t, "1 = 1", render(t, d, empty))

	b := empty.And(nil).And(member.Username.Eq("member1"))
	assert.True(t, b.HasValue())
	assert.False(t, empty.HasValue())
	assert.Equal(t, `"member"."username" = 'member1'`, render(t, d, b))

	b = b.AndNot(member.Age.Gt(30)).Or(member.Age.Eq(10))
	assert.Equal(t, `(("member"."username" = 'member1' AND NOT ("member"."age" > 30)) OR "member"."age" = 10)`, render(t, d, b))
	assert.Equal(t, b.Value(), query.And(b))
}
