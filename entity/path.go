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

// QMember is a query path over members under one alias.
type QMember struct {
	query.EntityPath

	ID       query.NumberExpr
	Username query.StringExpr
	Age      query.NumberExpr
	TeamID   query.NumberExpr
	Team     query.Association
}

// NewQMember returns member paths aliased as alias. Use a distinct alias for
// every independent occurrence, such as a sub-query over members.
func NewQMember(alias string) QMember {
	p := query.NewEntityPath("members", alias, "id")
	return QMember{
		EntityPath: p,
		ID:         query.NewNumberPath(p, "id"),
		Username:   query.NewStringPath(p, "username"),
		Age:        query.NewNumberPath(p, "age"),
		TeamID:     query.NewNumberPath(p, "team_id"),
		Team:       query.ManyToOne(p, "Team", "team_id", "teams", "id"),
	}
}

// QTeam is a query path over teams under one alias.
type QTeam struct {
	query.EntityPath

	ID   query.NumberExpr
	Name query.StringExpr
}

func NewQTeam(alias string) QTeam {
	p := query.NewEntityPath("teams", alias, "id")
	return QTeam{
		EntityPath: p,
		ID:         query.NewNumberPath(p, "id"),
		Name:       query.NewStringPath(p, "name"),
	}
}

// Q holds the default paths, aliased like the models' tables.
var Q = struct {
	Member QMember
	Team   QTeam
}{
	Member: NewQMember("member"),
	Team:   NewQTeam("team"),
}
