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

package quarry

import (
	"context"
	"sync"

	"github.com/uptrace/bun"

	"github.com/tomoncle/quarry/database"
	"github.com/tomoncle/quarry/query"
	"github.com/tomoncle/quarry/repository"
	"github.com/tomoncle/quarry/types"
)

type Service[T any] interface {
	// Get returns a single entity by its identifier.
	Get(ctx context.Context, id any) (*T, error)

	// All returns all entities ordered by identifier.
	All(ctx context.Context) ([]*T, error)

	// Find returns entities matching every non-nil predicate.
	Find(ctx context.Context, preds ...query.Predicate) ([]T, error)

	// Query filters entities with a raw WHERE fragment.
	Query(ctx context.Context, where string, args ...interface{}) ([]*T, error)

	// Count counts entities matching every non-nil predicate.
	Count(ctx context.Context, preds ...query.Predicate) (int64, error)

	// Page returns one page of matching entities.
	Page(ctx context.Context, page types.PageRequest, orders []query.OrderSpecifier, preds ...query.Predicate) (types.Pagination[T], error)

	// Update modifies an existing entity.
	Update(ctx context.Context, model *T) error

	// Delete removes an entity by its identifier.
	Delete(ctx context.Context, id any) error

	// Save inserts one or more new entities.
	Save(ctx context.Context, model ...*T) error

	// SaveOrUpdate upserts entities based on fields and duplicate keys.
	SaveOrUpdate(ctx context.Context, fields []string, duplicateKeys []string, model ...*T) error

	// WithTx returns a service whose statements run in tx.
	WithTx(tx bun.Tx) Service[T]

	// Factory returns the query factory bound to the service's connection.
	Factory() *query.Factory
}

type baseServiceImpl[T any] struct {
	root query.Entity
	db   bun.IDB
	repo repository.Repository[T]
	once sync.Once
}

// NewService returns a service over the global database connection, which
// is resolved on first use.
func NewService[T any](root query.Entity) Service[T] {
	return &baseServiceImpl[T]{root: root}
}

// NewServiceWithDB returns a service bound to db.
func NewServiceWithDB[T any](db bun.IDB, root query.Entity) Service[T] {
	return &baseServiceImpl[T]{root: root, db: db}
}

func (s *baseServiceImpl[T]) baseRepo() repository.Repository[T] {
	s.once.Do(func() {
		db := s.db
		if db == nil {
			db = database.GetDB()
		}
		s.repo = repository.NewRepository[T](db, s.root)
	})
	return s.repo
}

func (s *baseServiceImpl[T]) WithTx(tx bun.Tx) Service[T] {
	return NewServiceWithDB[T](tx, s.root)
}

func (s *baseServiceImpl[T]) Factory() *query.Factory {
	return s.baseRepo().Factory()
}

func (s *baseServiceImpl[T]) Save(ctx context.Context, model ...*T) error {
	return s.baseRepo().Create(ctx, model...)
}

func (s *baseServiceImpl[T]) SaveOrUpdate(ctx context.Context, fields []string, duplicateKeys []string, model ...*T) error {
	return s.baseRepo().Upsert(ctx, fields, duplicateKeys, model...)
}

func (s *baseServiceImpl[T]) Get(ctx context.Context, id any) (*T, error) {
	return s.baseRepo().GetOne(ctx, id)
}

func (s *baseServiceImpl[T]) All(ctx context.Context) ([]*T, error) {
	return s.baseRepo().GetAll(ctx)
}

func (s *baseServiceImpl[T]) Find(ctx context.Context, preds ...query.Predicate) ([]T, error) {
	return s.baseRepo().Find(ctx, preds...)
}

func (s *baseServiceImpl[T]) Query(ctx context.Context, where string, args ...interface{}) ([]*T, error) {
	return s.baseRepo().Query(ctx, where, args...)
}

func (s *baseServiceImpl[T]) Count(ctx context.Context, preds ...query.Predicate) (int64, error) {
	return s.baseRepo().Count(ctx, preds...)
}

func (s *baseServiceImpl[T]) Update(ctx context.Context, model *T) error {
	return s.baseRepo().Update(ctx, model)
}

func (s *baseServiceImpl[T]) Delete(ctx context.Context, id any) error {
	return s.baseRepo().Delete(ctx, id)
}

func (s *baseServiceImpl[T]) Page(ctx context.Context, page types.PageRequest, orders []query.OrderSpecifier, preds ...query.Predicate) (types.Pagination[T], error) {
	return s.baseRepo().Page(ctx, page, orders, preds...)
}
