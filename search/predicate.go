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
	"github.com/tomoncle/quarry/entity"
	"github.com/tomoncle/quarry/query"
	"github.com/tomoncle/quarry/types"
)

// MemberCondition lists the optional member filters.
type MemberCondition struct {
	Username types.Optional[string] `json:"username"`
	Age      types.Optional[int]    `json:"age"`
	TeamName types.Optional[string] `json:"team_name"`
	AgeGoe   types.Optional[int]    `json:"age_goe"`
	AgeLoe   types.Optional[int]    `json:"age_loe"`
}

func (c MemberCondition) IsEmpty() bool {
	return !c.Username.IsPresent() && !c.Age.IsPresent() && !c.TeamName.IsPresent() &&
		!c.AgeGoe.IsPresent() && !c.AgeLoe.IsPresent()
}

var member = entity.Q.Member

// UsernameEq matches the username when present.
func UsernameEq(username types.Optional[string]) query.Predicate {
	v, ok := username.Get()
	if !ok {
		return nil
	}
	return member.Username.Eq(v)
}

// AgeEq matches the age when present.
func AgeEq(age types.Optional[int]) query.Predicate {
	v, ok := age.Get()
	if !ok {
		return nil
	}
	return member.Age.Eq(v)
}

// AllEq is the conjunction of UsernameEq and AgeEq.
func AllEq(username types.Optional[string], age types.Optional[int]) query.Predicate {
	return query.And(UsernameEq(username), AgeEq(age))
}

// TeamNameEq matches the joined team's name when present.
func TeamNameEq(team entity.QTeam, name types.Optional[string]) query.Predicate {
	v, ok := name.Get()
	if !ok {
		return nil
	}
	return team.Name.Eq(v)
}

func AgeGoe(age types.Optional[int]) query.Predicate {
	v, ok := age.Get()
	if !ok {
		return nil
	}
	return member.Age.Goe(v)
}

func AgeLoe(age types.Optional[int]) query.Predicate {
	v, ok := age.Get()
	if !ok {
		return nil
	}
	return member.Age.Loe(v)
}

// Condition is the conjunction of every filter of c.
func Condition(c MemberCondition) query.Predicate {
	return query.And(
		AllEq(c.Username, c.Age),
		TeamNameEq(entity.Q.Team, c.TeamName),
		AgeGoe(c.AgeGoe),
		AgeLoe(c.AgeLoe),
	)
}
