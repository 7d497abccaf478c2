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

package entity

import (
	"github.com/tomoncle/quarry/query"
)

// MemberDto is the flat username/age projection of a member.
type MemberDto struct {
	Username string `bun:"username" json:"username"`
	Age      int    `bun:"age" json:"age"`
}

// UserDto carries the same data under different names, so projections into
// it need aliases.
type UserDto struct {
	Name string `bun:"name" json:"name"`
	Age  int    `bun:"age" json:"age"`
}

// MemberTeamDto is a member row outer joined to its team.
type MemberTeamDto struct {
	MemberID int64   `bun:"member_id" json:"member_id"`
	Username string  `bun:"username" json:"username"`
	Age      int     `bun:"age" json:"age"`
	TeamID   *int64  `bun:"team_id" json:"team_id"`
	TeamName *string `bun:"team_name" json:"team_name"`
}

// TeamStats aggregates the members of one team.
type TeamStats struct {
	TeamName    string  `bun:"team_name" json:"team_name"`
	MemberCount int64   `bun:"member_count" json:"member_count"`
	AvgAge      float64 `bun:"avg_age" json:"avg_age"`
}

// NewMemberDto builds a MemberDto from the username and age of q.
func NewMemberDto(q QMember) query.Projection[MemberDto] {
	return query.Constructor(func(t query.Tuple) (MemberDto, error) {
		return MemberDto{Username: t.Str(q.Username), Age: t.Int(q.Age)}, nil
	}, q.Username, q.Age)
}
