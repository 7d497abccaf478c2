// Package repository provides a generic repository built on Bun and the query
// package: CRUD, predicate based lookups, pagination, transactions, and
// dialect aware upserts.
package repository
