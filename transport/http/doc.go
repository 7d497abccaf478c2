// Package http serves the member search as a read-only JSON API on fiber.
package http
