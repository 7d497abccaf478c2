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
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/uptrace/bun"
)

// ForeignKeyConstraint describes a foreign key relationship between tables.
type ForeignKeyConstraint struct {
	Table           string
	Column          string
	ReferenceTable  string
	ReferenceColumn string
	OnDelete        string // CASCADE, RESTRICT, SET NULL, NO ACTION
	OnUpdate        string
	ConstraintName  string
}

// GenerateConstraintName returns the explicit name or fk_<table>_<column>.
func (fk *ForeignKeyConstraint) GenerateConstraintName() string {
	if fk.ConstraintName != "" {
		return fk.ConstraintName
	}
	return fmt.Sprintf("fk_%s_%s", fk.Table, fk.Column)
}

// GenerateSQL returns the ALTER TABLE statement adding the constraint.
func (fk *ForeignKeyConstraint) GenerateSQL() string {
	sql := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(%s)",
		fk.Table, fk.GenerateConstraintName(), fk.Column, fk.ReferenceTable, fk.ReferenceColumn)
	if fk.OnDelete != "" {
		sql += " ON DELETE " + strings.ToUpper(fk.OnDelete)
	}
	if fk.OnUpdate != "" {
		sql += " ON UPDATE " + strings.ToUpper(fk.OnUpdate)
	}
	return sql
}

var (
	foreignKeysMu sync.RWMutex
	foreignKeys   []ForeignKeyConstraint
)

// RegisterForeignKey adds a code-defined constraint; duplicates by name are ignored.
func RegisterForeignKey(fk ForeignKeyConstraint) {
	foreignKeysMu.Lock()
	defer foreignKeysMu.Unlock()
	for _, existing := range foreignKeys {
		if existing.GenerateConstraintName() == fk.GenerateConstraintName() {
			return
		}
	}
	foreignKeys = append(foreignKeys, fk)
}

// RegisteredForeignKeys returns a copy of the code-defined constraints.
func RegisteredForeignKeys() []ForeignKeyConstraint {
	foreignKeysMu.RLock()
	defer foreignKeysMu.RUnlock()
	return slices.Clone(foreignKeys)
}

// ForeignKeyManager adds and validates foreign key constraints.
type ForeignKeyManager struct {
	constraints []ForeignKeyConstraint
	logger      Logger
}

// NewForeignKeyManager creates a manager over the registered constraints.
func NewForeignKeyManager(logger Logger) *ForeignKeyManager {
	return &ForeignKeyManager{constraints: RegisteredForeignKeys(), logger: logger}
}

// AddAllForeignKeys adds every constraint. A constraint that already exists
// is logged and skipped.
func (fkm *ForeignKeyManager) AddAllForeignKeys(ctx context.Context, db bun.IDB) error {
	for _, constraint := range fkm.constraints {
		name := constraint.GenerateConstraintName()
		if _, err := db.ExecContext(ctx, constraint.GenerateSQL()); err != nil {
			if fkm.logger != nil {
				fkm.logger.Debug("Skipped foreign key constraint", "constraint", name, "error", err)
			}
			continue
		}
		if fkm.logger != nil {
			fkm.logger.Debug("Added foreign key constraint", "constraint", name)
		}
	}
	return nil
}

// RemoveForeignKey drops a named foreign key from a table.
func (fkm *ForeignKeyManager) RemoveForeignKey(ctx context.Context, db bun.IDB, tableName, constraintName string) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", tableName, constraintName))
	return err
}

func (fkm *ForeignKeyManager) GetConstraintsByTable(tableName string) []ForeignKeyConstraint {
	var result []ForeignKeyConstraint
	for _, constraint := range fkm.constraints {
		if strings.EqualFold(constraint.Table, tableName) {
			result = append(result, constraint)
		}
	}
	return result
}

func (fkm *ForeignKeyManager) ListAllConstraints() []ForeignKeyConstraint {
	return fkm.constraints
}

var validForeignKeyActions = []string{"CASCADE", "RESTRICT", "SET NULL", "NO ACTION"}

// ValidateConstraints checks the configured constraints for missing names
// and unknown referential actions.
func (fkm *ForeignKeyManager) ValidateConstraints() []error {
	var errs []error
	for _, c := range fkm.constraints {
		switch {
		case c.Table == "":
			errs = append(errs, fmt.Errorf("table name cannot be empty"))
		case c.Column == "":
			errs = append(errs, fmt.Errorf("column name cannot be empty: %s", c.Table))
		case c.ReferenceTable == "":
			errs = append(errs, fmt.Errorf("reference table name cannot be empty: %s.%s", c.Table, c.Column))
		case c.ReferenceColumn == "":
			errs = append(errs, fmt.Errorf("reference column name cannot be empty: %s.%s -> %s", c.Table, c.Column, c.ReferenceTable))
		}
		for _, action := range []string{c.OnDelete, c.OnUpdate} {
			if action == "" {
				continue
			}
			if !slices.ContainsFunc(validForeignKeyActions, func(a string) bool { return strings.EqualFold(a, action) }) {
				errs = append(errs, fmt.Errorf("invalid referential action: %s, constraint: %s", action, c.GenerateConstraintName()))
			}
		}
	}
	return errs
}
