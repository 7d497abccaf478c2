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

package query

import "errors"

var (
	ErrNotFound        = errors.New("query: no rows in result")
	ErrNonUnique       = errors.New("query: more than one row in result")
	ErrNoSource        = errors.New("query: spec has no FROM source")
	ErrNoProjection    = errors.New("query: spec has no projection")
	ErrDanglingJoin    = errors.New("query: On or FetchJoin called without a preceding join")
	ErrJoinTarget      = errors.New("query: join target does not match association")
	ErrFetchJoinAlias  = errors.New("query: fetch join alias must equal the relation name")
	ErrEntityMismatch  = errors.New("query: root source does not match the scanned model")
	ErrNotAColumn      = errors.New("query: assignment target is not a column of the updated entity")
	ErrUnsupportedBulk = errors.New("query: dialect cannot alias the target table of a bulk statement")
)
