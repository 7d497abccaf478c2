// Package entity holds the Member and Team models, their projection DTOs and
// the query paths used to build specs over them.
package entity
