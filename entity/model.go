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
	"context"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

// ErrTeamNotPersisted is returned when a member is written while referencing
// a team that has no identity yet.
var ErrTeamNotPersisted = errors.New("entity: team must be persisted before its members")

type Team struct {
	bun.BaseModel `bun:"table:teams,alias:team"`

	ID      int64     `bun:"id,pk,autoincrement" json:"id"`
	Name    string    `bun:"name,notnull,unique" json:"name"`
	Members []*Member `bun:"rel:has-many,join:id=team_id" json:"-"`
}

func NewTeam(name string) *Team {
	return &Team{Name: name}
}

func (t *Team) String() string {
	return fmt.Sprintf("Team(id=%d, name=%s)", t.ID, t.Name)
}

// Member belongs to at most one team. An empty Username is stored as NULL.
type Member struct {
	bun.BaseModel `bun:"table:members,alias:member"`

	ID       int64  `bun:"id,pk,autoincrement" json:"id"`
	Username string `bun:"username,nullzero" json:"username"`
	Age      int    `bun:"age,notnull" json:"age"`
	TeamID   int64  `bun:"team_id,nullzero" json:"team_id,omitempty"`
	Team     *Team  `bun:"rel:belongs-to,join:team_id=id,on_delete:SET NULL" json:"team,omitempty"`
}

// NewMember returns a member of team, which may be nil.
func NewMember(username string, age int, team *Team) *Member {
	m := &Member{Username: username, Age: age}
	if team != nil {
		m.ChangeTeam(team)
	}
	return m
}

// ChangeTeam moves the member to team, keeping both teams' member lists in
// sync. A nil team detaches the member.
func (m *Member) ChangeTeam(team *Team) {
	if m.Team != nil {
		members := m.Team.Members
		for i, other := range members {
			if other == m {
				m.Team.Members = append(members[:i:i], members[i+1:]...)
				break
			}
		}
	}
	m.Team = team
	m.TeamID = 0
	if team == nil {
		return
	}
	m.TeamID = team.ID
	team.Members = append(team.Members, m)
}

var _ bun.BeforeAppendModelHook = (*Member)(nil)

// BeforeAppendModel resolves TeamID from the loaded team on writes.
func (m *Member) BeforeAppendModel(_ context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery, *bun.UpdateQuery:
		if m.Team == nil {
			return nil
		}
		if m.Team.ID == 0 {
			return fmt.Errorf("%w: member %q", ErrTeamNotPersisted, m.Username)
		}
		m.TeamID = m.Team.ID
	}
	return nil
}

func (m *Member) String() string {
	return fmt.Sprintf("Member(id=%d, username=%s, age=%d)", m.ID, m.Username, m.Age)
}
