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

package repository

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/quarry/query"
	"github.com/tomoncle/quarry/types"
)

// CrudRepository defines basic CRUD operations for a generic entity type.
type CrudRepository[T any] interface {
	GetOne(ctx context.Context, id any) (*T, error)

	GetAll(ctx context.Context) ([]*T, error)

	// Find returns the rows matching every predicate; nil predicates are ignored.
	Find(ctx context.Context, preds ...query.Predicate) ([]T, error)

	// Query filters with a raw WHERE fragment.
	Query(ctx context.Context, where string, args ...interface{}) ([]*T, error)

	Count(ctx context.Context, preds ...query.Predicate) (int64, error)

	Create(ctx context.Context, entity ...*T) error

	Upsert(ctx context.Context, fields []string, duplicateKeys []string, entity ...*T) error

	Update(ctx context.Context, entity *T) error

	Delete(ctx context.Context, id any) error
}

// PageQueryRepository defines pagination functionality for listing entities.
type PageQueryRepository[T any] interface {
	Page(ctx context.Context, page types.PageRequest, orders []query.OrderSpecifier, preds ...query.Predicate) (types.Pagination[T], error)
}

// Repository combines CRUD and pagination and exposes the query factory and
// Bun builders for advanced use cases. WithTx returns a repository bound to
// tx; the receiver is left unchanged.
type Repository[T any] interface {
	CrudRepository[T]
	PageQueryRepository[T]
	WithTx(tx bun.Tx) Repository[T]
	Root() query.Entity
	Factory() *query.Factory
	Dialect() schema.Dialect
	NewSelect() *bun.SelectQuery
	NewInsert() *bun.InsertQuery
	NewUpdate() *bun.UpdateQuery
	NewDelete() *bun.DeleteQuery
}
