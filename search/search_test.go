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

package search_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/tomoncle/quarry/entity"
	"github.com/tomoncle/quarry/internal/testdb"
	"github.com/tomoncle/quarry/query"
	"github.com/tomoncle/quarry/search"
	"github.com/tomoncle/quarry/types"
)

func usernames(members []entity.Member) []string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Username
	}
	return names
}

func TestSingleFieldPredicates(t *testing.T) {
	assert.Nil(t, search.UsernameEq(types.None[string]()))
	assert.Nil(t, search.AgeEq(types.None[int]()))
	assert.Nil(t, search.AllEq(types.None[string](), types.None[int]()))

	assert.Equal(t, entity.Q.Member.Username.Eq("member1"), search.UsernameEq(types.Some("member1")))
	assert.Equal(t, entity.Q.Member.Age.Eq(10), search.AgeEq(types.Some(10)))
	assert.Equal(t, search.AgeEq(types.Some(10)), search.AllEq(types.None[string](), types.Some(10)))
}

func TestComposedPredicateGolden(t *testing.T) {
	d := sqlitedialect.New()
	cases := map[string]query.Predicate{
		"all_eq_both":     search.AllEq(types.Some("member1"), types.Some(10)),
		"all_eq_username": search.AllEq(types.Some("member1"), types.None[int]()),
		"condition_full": search.Condition(search.MemberCondition{
			Username: types.Some("member1"),
			Age:      types.Some(10),
			TeamName: types.Some("teamA"),
			AgeGoe:   types.Some(5),
			AgeLoe:   types.Some(50),
		}),
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			sql, err := query.Render(d, p)
			require.NoError(t, err)
			g.Assert(t, name, []byte(sql))
		})
	}
}

// Every (username, age) combination must select the same rows through the
// builder and where-param styles.
func TestDynamicQueryCombinations(t *testing.T) {
	tx, _ := testdb.Seeded(t)
	f := query.NewFactory(tx)
	ctx := context.Background()

	names := []types.Optional[string]{types.None[string](), types.Some("member1"), types.Some("member3"), types.Some("nobody")}
	ages := []types.Optional[int]{types.None[int](), types.Some(10), types.Some(30)}
	seeded := map[string]int{"member1": 10, "member2": 20, "member3": 30, "member4": 40}

	for _, name := range names {
		for _, age := range ages {
			t.Run(fmt.Sprintf("%s_%s", name, age), func(t *testing.T) {
				var want []string
				for _, u := range []string{"member1", "member2", "member3", "member4"} {
					if n, ok := name.Get(); ok && n != u {
						continue
					}
					if a, ok := age.Get(); ok && a != seeded[u] {
						continue
					}
					want = append(want, u)
				}
				if want == nil {
					want = []string{}
				}

				cond := search.MemberCondition{Username: name, Age: age}
				byBuilder, err := search.ByBuilder(ctx, f, cond)
				require.NoError(t, err)
				assert.Equal(t, want, usernames(byBuilder))

				byParams, err := search.ByWhereParams(ctx, f, cond)
				require.NoError(t, err)
				assert.Equal(t, want, usernames(byParams))
			})
		}
	}
}

func TestDynamicQueryBooleanBuilder(t *testing.T) {
	tx, _ := testdb.Seeded(t)
	f := query.NewFactory(tx)

	found, err := search.ByBuilder(context.Background(), f,
		search.MemberCondition{Username: types.Some("member1"), Age: types.None[int]()})
	require.NoError(t, err)
	assert.Equal(t, []string{"member1"}, usernames(found))
}

func TestDynamicQueryWhereParam(t *testing.T) {
	tx, _ := testdb.Seeded(t)
	f := query.NewFactory(tx)
	ctx := context.Background()

	found, err := search.ByWhereParams(ctx, f, search.MemberCondition{Age: types.Some(10)})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 10, found[0].Age)

	all, err := search.ByWhereParams(ctx, f, search.MemberCondition{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestSearcher(t *testing.T) {
	tx, data := testdb.Seeded(t)
	s := search.NewSearcher(query.NewFactory(tx))
	ctx := context.Background()

	found, err := s.Search(ctx, search.MemberCondition{TeamName: types.Some("teamB"), AgeGoe: types.Some(35)})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "member4", found[0].Username)
	require.NotNil(t, found[0].TeamID)
	assert.Equal(t, data.TeamB.ID, *found[0].TeamID)

	all, err := s.Search(ctx, search.MemberCondition{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	ranged, err := s.Search(ctx, search.MemberCondition{AgeGoe: types.Some(20), AgeLoe: types.Some(30)})
	require.NoError(t, err)
	require.Len(t, ranged, 2)
	assert.Equal(t, "member2", ranged[0].Username)
	assert.Equal(t, "member3", ranged[1].Username)
}

func TestSearcherIncludesMembersWithoutTeam(t *testing.T) {
	tx, _ := testdb.Seeded(t)
	_, err := tx.NewInsert().Model(entity.NewMember("loner", 50, nil)).Exec(context.Background())
	require.NoError(t, err)

	found, err := search.NewSearcher(query.NewFactory(tx)).Search(context.Background(),
		search.MemberCondition{Username: types.Some("loner")})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Nil(t, found[0].TeamID)
	assert.Nil(t, found[0].TeamName)
}

func TestSearchPage(t *testing.T) {
	tx, _ := testdb.Seeded(t)
	s := search.NewSearcher(query.NewFactory(tx))

	page, err := s.SearchPage(context.Background(), search.MemberCondition{}, types.NewPageRequest(2, 3))
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)
	assert.Equal(t, 3, page.Offset)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "member4", page.Items[0].Username)
}

func TestTeamStats(t *testing.T) {
	tx, _ := testdb.Seeded(t)

	stats, err := search.NewSearcher(query.NewFactory(tx)).TeamStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []entity.TeamStats{
		{TeamName: "teamA", MemberCount: 2, AvgAge: 15},
		{TeamName: "teamB", MemberCount: 2, AvgAge: 35},
	}, stats)
}
