// Package query provides a typed, immutable query specification layer on top
// of Bun: entity and column paths, null tolerant predicate composition,
// CASE and aggregate expressions, sub-queries, projections into tuples and
// DTOs, paging, and bulk update/delete clauses. A Spec is built by value and
// handed once to a Factory, which renders it through Bun and executes it.
package query
