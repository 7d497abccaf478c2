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

package search

import (
	"context"

	"github.com/tomoncle/quarry/entity"
	"github.com/tomoncle/quarry/query"
	"github.com/tomoncle/quarry/types"
)

// ByBuilder selects members by username and age, accumulating the filters
// in a query.Builder.
func ByBuilder(ctx context.Context, f *query.Factory, c MemberCondition) ([]entity.Member, error) {
	b := query.NewBuilder()
	if v, ok := c.Username.Get(); ok {
		b = b.And(member.Username.Eq(v))
	}
	if v, ok := c.Age.Get(); ok {
		b = b.And(member.Age.Eq(v))
	}
	return query.Fetch[entity.Member](ctx, f, query.SelectFrom(member).Where(b).OrderBy(member.ID.Asc()))
}

// ByWhereParams selects members by username and age, passing the composed
// predicates straight to Where.
func ByWhereParams(ctx context.Context, f *query.Factory, c MemberCondition) ([]entity.Member, error) {
	return query.Fetch[entity.Member](ctx, f,
		query.SelectFrom(member).Where(UsernameEq(c.Username), AgeEq(c.Age)).OrderBy(member.ID.Asc()))
}

// Searcher lists members with their teams.
type Searcher struct {
	f   *query.Factory
	dir query.Direction
}

func NewSearcher(f *query.Factory) *Searcher {
	return &Searcher{f: f}
}

// Sorted returns a searcher listing members by id in direction dir.
func (s *Searcher) Sorted(dir query.Direction) *Searcher {
	return &Searcher{f: s.f, dir: dir}
}

func (s *Searcher) spec(c MemberCondition) query.Spec {
	t := entity.Q.Team
	return query.Select(
		member.ID.As("member_id"),
		member.Username,
		member.Age,
		t.ID.As("team_id"),
		t.Name.As("team_name"),
	).
		From(member).
		LeftJoin(member.Team, t).
		Where(Condition(c)).
		OrderBy(query.By(member.ID, s.dir))
}

// Search returns every member matching c.
func (s *Searcher) Search(ctx context.Context, c MemberCondition) ([]entity.MemberTeamDto, error) {
	return query.Fetch[entity.MemberTeamDto](ctx, s.f, s.spec(c))
}

// SearchPage returns one window of the members matching c and their total.
func (s *Searcher) SearchPage(ctx context.Context, c MemberCondition, page types.PageRequest) (types.Results[entity.MemberTeamDto], error) {
	return query.FetchResults[entity.MemberTeamDto](ctx, s.f, s.spec(c).Restrict(page))
}

// TeamStats aggregates member count and average age per team.
func (s *Searcher) TeamStats(ctx context.Context) ([]entity.TeamStats, error) {
	t := entity.Q.Team
	return query.Fetch[entity.TeamStats](ctx, s.f,
		query.Select(
			t.Name.As("team_name"),
			member.Count().As("member_count"),
			member.Age.Avg().As("avg_age"),
		).
			From(member).
			Join(member.Team, t).
			GroupBy(t.Name).
			OrderBy(t.Name.Asc()),
	)
}
