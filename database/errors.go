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
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

type SQLError int

const (
	UnknownErr SQLError = iota
	NoRowsErr
	NoIndexErr
	NoColumnErr
	ExistIndexErr
	ExistColumnErr
	NoTableErr
	ExistTableErr
	DuplicateKeyErr
	NotNullViolationErr
	ForeignKeyViolationErr
	CheckConstraintViolationErr
	DataTruncatedErr
	InvalidTypeCastErr
)

var mysqlCodes = map[uint16]SQLError{
	1091: NoIndexErr,
	1054: NoColumnErr,
	1061: ExistIndexErr,
	1060: ExistColumnErr,
	1146: NoTableErr,
	1050: ExistTableErr,
	1062: DuplicateKeyErr,
	1048: NotNullViolationErr,
	1216: ForeignKeyViolationErr,
	1217: ForeignKeyViolationErr,
	1451: ForeignKeyViolationErr,
	1452: ForeignKeyViolationErr,
	3819: CheckConstraintViolationErr,
	1265: DataTruncatedErr,
}

var postgresCodes = map[pq.ErrorCode]SQLError{
	"42703": NoColumnErr,
	"42704": NoIndexErr,
	"42P01": NoTableErr,
	"42P07": ExistTableErr,
	"42701": ExistColumnErr,
	"23505": DuplicateKeyErr,
	"23502": NotNullViolationErr,
	"23503": ForeignKeyViolationErr,
	"23514": CheckConstraintViolationErr,
	"22001": DataTruncatedErr,
	"42804": InvalidTypeCastErr,
}

// IsSqlError classifies err by driver error code, falling back to message
// matching for drivers without typed errors such as sqlite.
func IsSqlError(err error) (is bool, sqlErr SQLError) {
	if err == nil {
		return false, UnknownErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return true, NoRowsErr
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		if code, ok := mysqlCodes[mysqlErr.Number]; ok {
			return true, code
		}
		return true, UnknownErr
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if code, ok := postgresCodes[pqErr.Code]; ok {
			return true, code
		}
		return true, UnknownErr
	}

	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "no such column"), strings.Contains(s, "undefined column"):
		return true, NoColumnErr
	case strings.Contains(s, "no such index"):
		return true, NoIndexErr
	case strings.Contains(s, "no such table"), strings.Contains(s, "undefined table"):
		return true, NoTableErr
	case strings.Contains(s, "already exists") && strings.Contains(s, "index"):
		return true, ExistIndexErr
	case strings.Contains(s, "already exists") && strings.Contains(s, "table"):
		return true, ExistTableErr
	case strings.Contains(s, "duplicate column name"):
		return true, ExistColumnErr
	case strings.Contains(s, "unique constraint failed"), strings.Contains(s, "duplicate key value"):
		return true, DuplicateKeyErr
	case strings.Contains(s, "not null constraint failed"), strings.Contains(s, "not-null constraint"):
		return true, NotNullViolationErr
	case strings.Contains(s, "foreign key constraint failed"), strings.Contains(s, "foreign key violation"):
		return true, ForeignKeyViolationErr
	case strings.Contains(s, "check constraint"):
		return true, CheckConstraintViolationErr
	case strings.Contains(s, "datatype mismatch"):
		return true, InvalidTypeCastErr
	}
	return false, UnknownErr
}

// IsDuplicateKey reports whether err is a unique constraint violation.
func IsDuplicateKey(err error) bool {
	is, code := IsSqlError(err)
	return is && code == DuplicateKeyErr
}
