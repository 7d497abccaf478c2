// Package search composes optional member filters into query predicates.
// Absent filters contribute nothing; when every filter is absent the
// composed predicate is nil and the query is unfiltered.
package search
