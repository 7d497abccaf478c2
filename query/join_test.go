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
	"github.com/tomoncle/quarry/query"
)

func TestAggregation(t *testing.T) {
	f, _ := newFactory(t)

	tuples, err := f.FetchTuples(context.Background(),
		query.Select(
			member.Count(),
			member.Age.Sum(),
			member.Age.Avg(),
			member.Age.Max(),
			member.Age.Min(),
		).From(member))
	require.NoError(t, err)
	require.Len(t, tuples, 1)

	row := tuples[0]
	assert.Equal(t, 5, row.Len())
	assert.Equal(t, int64(4), row.Int64(member.Count()))
	assert.Equal(t, int64(100), row.Int64(member.Age.Sum()))
	assert.InDelta(t, 25.0, row.Float64(member.Age.Avg()), 0.0001)
	assert.Equal(t, 40, row.Int(member.Age.Max()))
	assert.Equal(t, 10, row.Int(member.Age.Min()))
}

func TestGroup(t *testing.T) {
	f, _ := newFactory(t)

	tuples, err := f.FetchTuples(context.Background(),
		query.Select(team.Name, member.Age.Avg()).
			From(member).
			Join(member.Team, team).
			GroupBy(team.Name).
			OrderBy(team.Name.Asc()))
	require.NoError(t, err)
	require.Len(t, tuples, 2)

	assert.Equal(t, "teamA", tuples[0].Str(team.Name))
	assert.InDelta(t, 15.0, tuples[0].Float64(member.Age.Avg()), 0.0001)
	assert.Equal(t, "teamB", tuples[1].Str(team.Name))
	assert.InDelta(t, 35.0, tuples[1].Float64(member.Age.Avg()), 0.0001)
}

func TestGroupHaving(t *testing.T) {
	f, _ := newFactory(t)
	s := query.Select(team.Name, member.Age.Avg()).
		From(member).
		Join(member.Team, team).
		GroupBy(team.Name).
		Having(member.Age.Avg().Gt(20))

	tuples, err := f.FetchTuples(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, tuples, 1)
	assert.Equal(t, "teamB", tuples[0].Str(team.Name))

	count, err := f.Count(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestDistinct(t *testing.T) {
	f, _ := newFactory(t)
	s := query.Select(member.TeamID).From(member).Distinct().OrderBy(member.TeamID.Asc())

	ids, err := query.Fetch[int64](context.Background(), f, s)
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	count, err := f.Count(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestJoin(t *testing.T) {
	f, _ := newFactory(t)

	found, err := query.Fetch[entity.Member](context.Background(), f,
		query.SelectFrom(member).
			Join(member.Team, team).
			Where(team.Name.Eq("teamA")).
			OrderBy(member.ID.Asc()))
	require.NoError(t, err)
	assert.Equal(t, []string{"member1", "member2"}, usernames(found))
	for _, m := range found {
		assert.Nil(t, m.Team)
	}
}

func TestLeftJoinWithoutTeam(t *testing.T) {
	f, _ := newFactory(t)
	insertMembers(t, f, entity.NewMember("loner", 50, nil))

	found, err := query.Fetch[entity.Member](context.Background(), f,
		query.SelectFrom(member).LeftJoin(member.Team, team).Where(team.ID.IsNull()))
	require.NoError(t, err)
	assert.Equal(t, []string{"loner"}, usernames(found))

	inner, err := query.Fetch[entity.Member](context.Background(), f,
		query.SelectFrom(member).Join(member.Team, team))
	require.NoError(t, err)
	assert.Len(t, inner, 4)
}

func TestThetaJoin(t *testing.T) {
	f, _ := newFactory(t)
	insertMembers(t, f,
		entity.NewMember("teamA", 0, nil),
		entity.NewMember("teamB", 0, nil),
		entity.NewMember("teamC", 0, nil),
	)

	found, err := query.Fetch[entity.Member](context.Background(), f,
		query.SelectFrom(member).
			From(team).
			Where(member.Username.Eq(team.Name)).
			OrderBy(member.Username.Asc()))
	require.NoError(t, err)
	assert.Equal(t, []string{"teamA", "teamB"}, usernames(found))
}

func TestJoinOnFiltering(t *testing.T) {
	f, _ := newFactory(t)

	tuples, err := f.FetchTuples(context.Background(),
		query.Select(member.Username, team.Name).
			From(member).
			LeftJoin(member.Team, team).
			On(team.Name.Eq("teamA")).
			OrderBy(member.ID.Asc()))
	require.NoError(t, err)
	require.Len(t, tuples, 4)

	want := []struct {
		username string
		team     string
	}{
		{"member1", "teamA"},
		{"member2", "teamA"},
		{"member3", ""},
		{"member4", ""},
	}
	for i, w := range want {
		assert.Equal(t, w.username, tuples[i].Str(member.Username))
		assert.Equal(t, w.team == "", tuples[i].IsNull(team.Name), "row %d", i)
		assert.Equal(t, w.team, tuples[i].Str(team.Name))
	}
}

func TestJoinOnNoRelation(t *testing.T) {
	f, _ := newFactory(t)
	insertMembers(t, f,
		entity.NewMember("teamA", 0, nil),
		entity.NewMember("teamB", 0, nil),
		entity.NewMember("teamC", 0, nil),
	)

	tuples, err := f.FetchTuples(context.Background(),
		query.Select(member.Username, team.Name).
			From(member).
			LeftJoinEntity(team).
			On(member.Username.Eq(team.Name)).
			OrderBy(member.ID.Asc()))
	require.NoError(t, err)
	require.Len(t, tuples, 7)

	matched := map[string]string{}
	for _, row := range tuples {
		if !row.IsNull(team.Name) {
			matched[row.Str(member.Username)] = row.Str(team.Name)
		}
	}
	assert.Equal(t, map[string]string{"teamA": "teamA", "teamB": "teamB"}, matched)
}

func TestFetchJoinNo(t *testing.T) {
	f, data := newFactory(t)

	found, err := query.FetchOne[entity.Member](context.Background(), f,
		query.SelectFrom(member).Where(member.Username.Eq("member1")))
	require.NoError(t, err)
	assert.Nil(t, found.Team)
	assert.Equal(t, data.TeamA.ID, found.TeamID)
}

func TestFetchJoinUse(t *testing.T) {
	f, _ := newFactory(t)

	found, err := query.FetchOne[entity.Member](context.Background(), f,
		query.SelectFrom(member).
			Join(member.Team, team).FetchJoin().
			Where(member.Username.Eq("member1")))
	require.NoError(t, err)
	require.NotNil(t, found.Team)
	assert.Equal(t, "teamA", found.Team.Name)
}

func TestFetchJoinFilterOnTarget(t *testing.T) {
	f, _ := newFactory(t)

	found, err := query.Fetch[entity.Member](context.Background(), f,
		query.SelectFrom(member).
			Join(member.Team, team).FetchJoin().
			Where(team.Name.Eq("teamB")).
			OrderBy(member.Age.Asc()))
	require.NoError(t, err)
	require.Equal(t, []string{"member3", "member4"}, usernames(found))
	for _, m := range found {
		require.NotNil(t, m.Team)
		assert.Equal(t, "teamB", m.Team.Name)
	}
}

func TestFetchJoinAliasMismatch(t *testing.T) {
	f, _ := newFactory(t)
	other := entity.NewQTeam("t")

	_, err := query.Fetch[entity.Member](context.Background(), f,
		query.SelectFrom(member).Join(member.Team, other).FetchJoin())
	assert.ErrorIs(t, err, query.ErrFetchJoinAlias)
}

func TestEntityAliasMismatch(t *testing.T) {
	f, _ := newFactory(t)

	_, err := query.Fetch[entity.Member](context.Background(), f,
		query.SelectFrom(entity.NewQMember("m")))
	assert.ErrorIs(t, err, query.ErrEntityMismatch)
}

func TestJoinWrongTarget(t *testing.T) {
	f, _ := newFactory(t)

	_, err := query.Fetch[entity.Member](context.Background(), f,
		query.SelectFrom(member).Join(member.Team, entity.NewQMember("other")))
	assert.ErrorIs(t, err, query.ErrJoinTarget)
}
