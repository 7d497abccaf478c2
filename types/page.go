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

package types

const DefaultPageSize = 10

// PageRequest describes a window over an ordered result.
type PageRequest struct {
	offset int
	limit  int
}

// NewPageRequest builds a request from a 1-based page number and size.
func NewPageRequest(page int, pageSize int) PageRequest {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return PageRequest{offset: (page - 1) * pageSize, limit: pageSize}
}

// NewOffsetRequest builds a request from a raw offset and limit.
// A limit below one means unbounded.
func NewOffsetRequest(offset int, limit int) PageRequest {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}
	return PageRequest{offset: offset, limit: limit}
}

func (p PageRequest) GetOffset() int { return p.offset }

func (p PageRequest) GetLimit() int { return p.limit }

func (p PageRequest) IsUnbounded() bool { return p.limit == 0 }

// GetPage returns the 1-based page the offset falls on.
func (p PageRequest) GetPage() int {
	if p.limit == 0 {
		return 1
	}
	return p.offset/p.limit + 1
}

// Results is a window of items together with the unwindowed total.
type Results[T any] struct {
	Total  int64 `json:"total"`
	Offset int   `json:"offset"`
	Limit  int   `json:"limit"`
	Items  []T   `json:"items"`
}

// NewResults constructs a Results, never leaving Items nil.
func NewResults[T any](total int64, offset int, limit int, items []T) Results[T] {
	if items == nil {
		items = make([]T, 0)
	}
	return Results[T]{Total: total, Offset: offset, Limit: limit, Items: items}
}

func (r Results[T]) IsEmpty() bool { return len(r.Items) == 0 }

// Pagination is the page-number view of Results.
type Pagination[T any] struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
	Items    []T   `json:"items"`
}

// ToPagination converts offset based results into page numbers.
func ToPagination[T any](r Results[T]) Pagination[T] {
	req := NewOffsetRequest(r.Offset, r.Limit)
	size := r.Limit
	if size == 0 {
		size = len(r.Items)
	}
	return Pagination[T]{Page: req.GetPage(), PageSize: size, Total: r.Total, Items: r.Items}
}
