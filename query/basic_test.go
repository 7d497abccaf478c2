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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/quarry/entity"
	"github.com/tomoncle/quarry/fixture"
	"github.com/tomoncle/quarry/internal/testdb"
	"github.com/tomoncle/quarry/query"
	"github.com/tomoncle/quarry/types"
)

var (
	member = entity.Q.Member
	team   = entity.Q.Team
)

func newFactory(t *testing.T) (*query.Factory, *fixture.Data) {
	t.Helper()
	tx, data := testdb.Seeded(t)
	return query.NewFactory(tx), data
}

func insertMembers(t *testing.T, f *query.Factory, members ...*entity.Member) {
	t.Helper()
	_, err := f.DB().NewInsert().Model(&members).Exec(context.Background())
	require.NoError(t, err)
}

func usernames(members []entity.Member) []string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Username
	}
	return names
}

func TestStartNative(t *testing.T) {
	f, _ := newFactory(t)
	ctx := context.Background()

	found, err := query.Native[entity.Member](ctx, f,
		"SELECT m.* FROM members AS m WHERE m.username = ?", "member1")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "member1", found[0].Username)
	assert.Equal(t, 10, found[0].Age)
}

func TestStartQuery(t *testing.T) {
	f, data := newFactory(t)

	found, err := query.FetchOne[entity.Member](context.Background(), f,
		query.SelectFrom(member).Where(member.Username.Eq("member1")))
	require.NoError(t, err)
	assert.Equal(t, "member1", found.Username)
	assert.Equal(t, data.TeamA.ID, found.TeamID)
}

func TestSearch(t *testing.T) {
	f, _ := newFactory(t)
	ctx := context.Background()

	chained, err := query.FetchOne[entity.Member](ctx, f,
		query.SelectFrom(member).Where(query.And(member.Username.Eq("member1"), member.Age.Between(10, 30))))
	require.NoError(t, err)
	assert.Equal(t, "member1", chained.Username)

	params, err := query.FetchOne[entity.Member](ctx, f,
		query.SelectFrom(member).Where(member.Username.Eq("member1"), member.Age.Eq(10)))
	require.NoError(t, err)
	assert.Equal(t, chained.ID, params.ID)
}

func TestSearchOperators(t *testing.T) {
	f, _ := newFactory(t)
	ctx := context.Background()

	cases := []struct {
		name string
		pred query.Predicate
		want []string
	}{
		{"ne", member.Username.Ne("member1"), []string{"member2", "member3", "member4"}},
		{"not null", member.Username.IsNotNull(), []string{"member1", "member2", "member3", "member4"}},
		{"in", member.Age.In(10, 20), []string{"member1", "member2"}},
		{"not in", member.Age.NotIn(10, 20), []string{"member3", "member4"}},
		{"empty in", member.Age.In(), []string{}},
		{"goe", member.Age.Goe(30), []string{"member3", "member4"}},
		{"gt", member.Age.Gt(30), []string{"member4"}},
		{"loe", member.Age.Loe(30), []string{"member1", "member2", "member3"}},
		{"lt", member.Age.Lt(30), []string{"member1", "member2"}},
		{"like", member.Username.Like("member%"), []string{"member1", "member2", "member3", "member4"}},
		{"contains", member.Username.Contains("ber3"), []string{"member3"}},
		{"starts with", member.Username.StartsWith("mem"), []string{"member1", "member2", "member3", "member4"}},
		{"or", query.Or(member.Age.Eq(10), member.Age.Eq(40)), []string{"member1", "member4"}},
		{"not", query.Not(member.Age.Lt(30)), []string{"member3", "member4"}},
		{"nil", nil, []string{"member1", "member2", "member3", "member4"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			found, err := query.Fetch[entity.Member](ctx, f,
				query.SelectFrom(member).Where(tc.pred).OrderBy(member.ID.Asc()))
			require.NoError(t, err)
			assert.Equal(t, tc.want, usernames(found))
		})
	}
}

func TestContainsEscapesWildcards(t *testing.T) {
	f, _ := newFactory(t)
	insertMembers(t, f, entity.NewMember("50%_off", 1, nil))

	found, err := query.Fetch[entity.Member](context.Background(), f,
		query.SelectFrom(member).Where(member.Username.Contains("%_")))
	require.NoError(t, err)
	assert.Equal(t, []string{"50%_off"}, usernames(found))
}

func TestResultFetch(t *testing.T) {
	f, _ := newFactory(t)
	ctx := context.Background()
	all := query.SelectFrom(member)

	list, err := query.Fetch[entity.Member](ctx, f, all)
	require.NoError(t, err)
	assert.Len(t, list, 4)

	_, err = query.FetchOne[entity.Member](ctx, f, all)
	assert.ErrorIs(t, err, query.ErrNonUnique)

	_, err = query.FetchOne[entity.Member](ctx, f, all.Where(member.Username.Eq("nobody")))
	assert.ErrorIs(t, err, query.ErrNotFound)

	first, err := query.FetchFirst[entity.Member](ctx, f, all.OrderBy(member.Age.Desc()))
	require.NoError(t, err)
	assert.Equal(t, "member4", first.Username)

	results, err := query.FetchResults[entity.Member](ctx, f, all)
	require.NoError(t, err)
	assert.Equal(t, int64(4), results.Total)
	assert.Len(t, results.Items, 4)

	count, err := f.Count(ctx, all)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestFetchResultsEmpty(t *testing.T) {
	f, _ := newFactory(t)

	results, err := query.FetchResults[entity.Member](context.Background(), f,
		query.SelectFrom(member).Where(member.Age.Gt(100)))
	require.NoError(t, err)
	assert.Zero(t, results.Total)
	assert.NotNil(t, results.Items)
	assert.True(t, results.IsEmpty())
}

func TestSort(t *testing.T) {
	f, _ := newFactory(t)
	insertMembers(t, f,
		entity.NewMember("", 100, nil),
		entity.NewMember("member5", 100, nil),
		entity.NewMember("member6", 100, nil),
	)

	found, err := query.Fetch[entity.Member](context.Background(), f,
		query.SelectFrom(member).
			Where(member.Age.Eq(100)).
			OrderBy(member.Age.Desc(), member.Username.Asc().NullsLast()))
	require.NoError(t, err)
	assert.Equal(t, []string{"member5", "member6", ""}, usernames(found))
}

func TestSortNullsFirst(t *testing.T) {
	f, _ := newFactory(t)
	insertMembers(t, f, entity.NewMember("", 100, nil))

	found, err := query.Fetch[entity.Member](context.Background(), f,
		query.SelectFrom(member).OrderBy(member.Username.Desc().NullsFirst()))
	require.NoError(t, err)
	assert.Equal(t, []string{"", "member4", "member3", "member2", "member1"}, usernames(found))
}

func TestPaging1(t *testing.T) {
	f, _ := newFactory(t)

	found, err := query.Fetch[entity.Member](context.Background(), f,
		query.SelectFrom(member).OrderBy(member.Username.Desc()).Offset(1).Limit(2))
	require.NoError(t, err)
	assert.Equal(t, []string{"member3", "member2"}, usernames(found))
}

func TestPaging2(t *testing.T) {
	f, _ := newFactory(t)

	results, err := query.FetchResults[entity.Member](context.Background(), f,
		query.SelectFrom(member).OrderBy(member.Username.Desc()).Offset(1).Limit(2))
	require.NoError(t, err)
	assert.Equal(t, int64(4), results.Total)
	assert.Equal(t, 2, results.Limit)
	assert.Equal(t, 1, results.Offset)
	assert.Equal(t, []string{"member3", "member2"}, usernames(results.Items))
}

func TestPagingOffsetOnly(t *testing.T) {
	f, _ := newFactory(t)

	found, err := query.Fetch[entity.Member](context.Background(), f,
		query.SelectFrom(member).OrderBy(member.Age.Asc()).Offset(3))
	require.NoError(t, err)
	assert.Equal(t, []string{"member4"}, usernames(found))
}

func TestRestrictPageRequest(t *testing.T) {
	f, _ := newFactory(t)

	results, err := query.FetchResults[entity.Member](context.Background(), f,
		query.SelectFrom(member).OrderBy(member.Age.Asc()).Restrict(types.NewPageRequest(2, 3)))
	require.NoError(t, err)
	assert.Equal(t, int64(4), results.Total)
	assert.Equal(t, []string{"member4"}, usernames(results.Items))

	page := types.ToPagination(results)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 3, page.PageSize)
}
