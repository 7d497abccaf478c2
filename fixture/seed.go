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

// Package fixture seeds the sample teams and members.
package fixture

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/tomoncle/quarry/database"
	"github.com/tomoncle/quarry/entity"
	"github.com/tomoncle/quarry/repository"
)

const SeederName = "members"

// Data is the seeded sample set.
type Data struct {
	TeamA   *entity.Team
	TeamB   *entity.Team
	Members []*entity.Member
}

type sample struct {
	username string
	age      int
	team     string
}

var samples = []sample{
	{"member1", 10, "teamA"},
	{"member2", 20, "teamA"},
	{"member3", 30, "teamB"},
	{"member4", 40, "teamB"},
}

// Seed upserts teamA and teamB and inserts member1..member4 unless a member
// of that name already exists, so running it twice is harmless.
func Seed(ctx context.Context, db bun.IDB) (*Data, error) {
	entity.Register()
	teams := repository.NewRepository[entity.Team](db, entity.Q.Team)
	members := repository.NewRepository[entity.Member](db, entity.Q.Member)

	if err := teams.Upsert(ctx, []string{"name"}, []string{"name"},
		entity.NewTeam("teamA"), entity.NewTeam("teamB")); err != nil {
		return nil, fmt.Errorf("upsert teams: %w", err)
	}
	stored, err := teams.Find(ctx, entity.Q.Team.Name.In("teamA", "teamB"))
	if err != nil {
		return nil, fmt.Errorf("load teams: %w", err)
	}
	byName := make(map[string]*entity.Team, len(stored))
	for i := range stored {
		byName[stored[i].Name] = &stored[i]
	}
	data := &Data{TeamA: byName["teamA"], TeamB: byName["teamB"]}
	if data.TeamA == nil || data.TeamB == nil {
		return nil, fmt.Errorf("load teams: got %d of 2", len(stored))
	}

	names := make([]interface{}, len(samples))
	for i, s := range samples {
		names[i] = s.username
	}
	existing, err := members.Find(ctx, entity.Q.Member.Username.In(names...))
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	have := make(map[string]entity.Member, len(existing))
	for _, m := range existing {
		have[m.Username] = m
	}

	var created []*entity.Member
	for _, s := range samples {
		team := byName[s.team]
		if m, ok := have[s.username]; ok {
			m.Team = team
			data.Members = append(data.Members, &m)
			continue
		}
		m := entity.NewMember(s.username, s.age, team)
		created = append(created, m)
		data.Members = append(data.Members, m)
	}
	if err := members.Create(ctx, created...); err != nil {
		return nil, fmt.Errorf("insert members: %w", err)
	}
	return data, nil
}

// Register installs Seed as a database seeder.
func Register() {
	database.RegisterSeeder(SeederName, func(ctx context.Context, db bun.IDB) error {
		_, err := Seed(ctx, db)
		return err
	})
}
