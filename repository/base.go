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
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/quarry/query"
	"github.com/tomoncle/quarry/types"
)

type baseRepositoryImpl[T any] struct {
	db      bun.IDB
	root    query.Entity
	factory *query.Factory
}

// NewRepository returns a generic repository over db. root must name the
// same table and alias as T's bun model; it is the source of Find and Page.
func NewRepository[T any](db bun.IDB, root query.Entity) Repository[T] {
	return &baseRepositoryImpl[T]{db: db, root: root, factory: query.NewFactory(db)}
}

func (r *baseRepositoryImpl[T]) WithTx(tx bun.Tx) Repository[T] {
	return NewRepository[T](tx, r.root)
}

func (r *baseRepositoryImpl[T]) Root() query.Entity { return r.root }

func (r *baseRepositoryImpl[T]) Factory() *query.Factory { return r.factory }

func (r *baseRepositoryImpl[T]) Dialect() schema.Dialect { return r.db.Dialect() }

func (r *baseRepositoryImpl[T]) NewSelect() *bun.SelectQuery { return r.db.NewSelect() }

func (r *baseRepositoryImpl[T]) NewInsert() *bun.InsertQuery { return r.db.NewInsert() }

func (r *baseRepositoryImpl[T]) NewUpdate() *bun.UpdateQuery { return r.db.NewUpdate() }

func (r *baseRepositoryImpl[T]) NewDelete() *bun.DeleteQuery { return r.db.NewDelete() }

func (r *baseRepositoryImpl[T]) hasFeature(f feature.Feature) bool {
	return r.db.Dialect().Features().Has(f)
}

func (r *baseRepositoryImpl[T]) GetOne(ctx context.Context, id any) (*T, error) {
	var entity T
	err := r.db.NewSelect().Model(&entity).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *baseRepositoryImpl[T]) GetAll(ctx context.Context) ([]*T, error) {
	var entities []*T
	err := r.db.NewSelect().Model(&entities).Order("id ASC").Scan(ctx)
	return entities, err
}

func (r *baseRepositoryImpl[T]) spec(preds []query.Predicate) query.Spec {
	return query.SelectFrom(r.root).Where(preds...)
}

func (r *baseRepositoryImpl[T]) Find(ctx context.Context, preds ...query.Predicate) ([]T, error) {
	return query.Fetch[T](ctx, r.factory, r.spec(preds).OrderBy(query.Asc(r.root.Path().Column(r.root.Path().PK()))))
}

func (r *baseRepositoryImpl[T]) Query(ctx context.Context, where string, args ...interface{}) ([]*T, error) {
	var entities []*T
	err := r.db.NewSelect().Model(&entities).Where(where, args...).Scan(ctx)
	return entities, err
}

func (r *baseRepositoryImpl[T]) Count(ctx context.Context, preds ...query.Predicate) (int64, error) {
	return r.factory.Count(ctx, r.spec(preds))
}

func (r *baseRepositoryImpl[T]) Page(ctx context.Context, page types.PageRequest, orders []query.OrderSpecifier, preds ...query.Predicate) (types.Pagination[T], error) {
	s := r.spec(preds).OrderBy(orders...).Restrict(page)
	results, err := query.FetchResults[T](ctx, r.factory, s)
	if err != nil {
		return types.Pagination[T]{}, err
	}
	return types.ToPagination(results), nil
}

func (r *baseRepositoryImpl[T]) Create(ctx context.Context, entity ...*T) error {
	if len(entity) == 0 {
		return nil
	}
	entities := append([]*T(nil), entity...)
	_, err := r.db.NewInsert().Model(&entities).Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, entity *T) error {
	_, err := r.db.NewUpdate().Model(entity).WherePK().Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) Delete(ctx context.Context, id any) error {
	_, err := r.db.NewDelete().Model((*T)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

// Upsert inserts entity, updating fields of rows that collide on
// duplicateKeys (the primary key when empty). Generated keys are scanned
// back on dialects with RETURNING.
func (r *baseRepositoryImpl[T]) Upsert(ctx context.Context, fields []string, duplicateKeys []string, entity ...*T) error {
	if len(fields) == 0 {
		return fmt.Errorf("fields cannot be empty")
	}
	if len(entity) == 0 {
		return nil
	}
	entities := append([]*T(nil), entity...)

	switch {
	case r.hasFeature(feature.InsertOnConflict):
		return r.upsertOnConflict(ctx, fields, duplicateKeys, entities)
	case r.hasFeature(feature.InsertOnDuplicateKey):
		return r.upsertOnDuplicateKey(ctx, fields, entities)
	default:
		return r.upsertFallback(ctx, entities)
	}
}

func (r *baseRepositoryImpl[T]) upsertOnDuplicateKey(ctx context.Context, fields []string, entities []*T) error {
	sets := make([]string, 0, len(fields))
	for _, field := range fields {
		sets = append(sets, fmt.Sprintf("`%s` = VALUES(`%s`)", field, field))
	}
	_, err := r.db.NewInsert().
		Model(&entities).
		On("DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")).
		Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) upsertOnConflict(ctx context.Context, fields []string, duplicateKeys []string, entities []*T) error {
	if len(duplicateKeys) == 0 {
		duplicateKeys = []string{"id"}
	}
	sets := make([]string, 0, len(fields))
	for _, field := range fields {
		sets = append(sets, fmt.Sprintf(`"%s" = EXCLUDED."%s"`, field, field))
	}
	_, err := r.db.NewInsert().
		Model(&entities).
		On("CONFLICT (" + strings.Join(duplicateKeys, ", ") + ") DO UPDATE").
		Set(strings.Join(sets, ", ")).
		Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) upsertFallback(ctx context.Context, entities []*T) error {
	for _, entity := range entities {
		if _, err := r.db.NewInsert().Model(entity).Exec(ctx); err != nil {
			if _, updateErr := r.db.NewUpdate().Model(entity).WherePK().Exec(ctx); updateErr != nil {
				return fmt.Errorf("upsert failed for entity: insert error: %v, update error: %v", err, updateErr)
			}
		}
	}
	return nil
}
