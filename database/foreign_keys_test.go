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

package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForeignKeyGenerateSQL(t *testing.T) {
	fk := ForeignKeyConstraint{
		Table:           "members",
		Column:          "team_id",
		ReferenceTable:  "teams",
		ReferenceColumn: "id",
		OnDelete:        "set null",
	}
	assert.Equal(t, "fk_members_team_id", fk.GenerateConstraintName())
	assert.Equal(t,
		"ALTER TABLE members ADD CONSTRAINT fk_members_team_id FOREIGN KEY (team_id) REFERENCES teams(id) ON DELETE SET NULL",
		fk.GenerateSQL())

	fk.ConstraintName = "member_team"
	fk.OnUpdate = "cascade"
	assert.Equal(t,
		"ALTER TABLE members ADD CONSTRAINT member_team FOREIGN KEY (team_id) REFERENCES teams(id) ON DELETE SET NULL ON UPDATE CASCADE",
		fk.GenerateSQL())
}

func TestValidateConstraints(t *testing.T) {
	fkm := &ForeignKeyManager{constraints: []ForeignKeyConstraint{
		{Table: "members", Column: "team_id", ReferenceTable: "teams", ReferenceColumn: "id", OnDelete: "Set Null"},
		{Table: "members", Column: "team_id", ReferenceTable: "teams", ReferenceColumn: "id", OnDelete: "EXPLODE"},
		{Column: "team_id", ReferenceTable: "teams", ReferenceColumn: "id"},
		{Table: "members", Column: "team_id", ReferenceTable: "teams"},
	}}
	errs := fkm.ValidateConstraints()
	require.Len(t, errs, 3)
	assert.Contains(t, errs[0].Error(), "EXPLODE")
	assert.Contains(t, errs[1].Error(), "table name cannot be empty")
	assert.Contains(t, errs[2].Error(), "reference column name cannot be empty")

	assert.Len(t, fkm.GetConstraintsByTable("MEMBERS"), 3)
	assert.Empty(t, fkm.GetConstraintsByTable("teams"))
}

func TestRegisterForeignKeyIgnoresDuplicates(t *testing.T) {
	fk := ForeignKeyConstraint{Table: "parts", Column: "widget_id", ReferenceTable: "widgets", ReferenceColumn: "id"}
	RegisterForeignKey(fk)
	RegisterForeignKey(fk)

	count := 0
	for _, c := range RegisteredForeignKeys() {
		if c.GenerateConstraintName() == "fk_parts_widget_id" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestForeignKeyConfigRoundTrip(t *testing.T) {
	RegisterForeignKey(ForeignKeyConstraint{
		Table: "parts", Column: "widget_id", ReferenceTable: "widgets", ReferenceColumn: "id", OnDelete: "CASCADE",
	})

	missing := filepath.Join(t.TempDir(), "missing.yaml")
	fallback := NewConfigurableForeignKeyManager(nil, missing)
	assert.Equal(t, RegisteredForeignKeys(), fallback.ListAllConstraints())
	assert.Error(t, fallback.ReloadConfig())

	out := filepath.Join(t.TempDir(), "conf", "foreign_keys.yaml")
	require.NoError(t, fallback.ExportToConfig(out))

	loaded := NewConfigurableForeignKeyManager(nil, out)
	assert.Equal(t, out, loaded.GetConfigPath())
	assert.Equal(t, fallback.ListAllConstraints(), loaded.ListAllConstraints())
	require.NoError(t, loaded.ReloadConfig())
	assert.Empty(t, loaded.ValidateConstraints())
}
