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

package http

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"github.com/tomoncle/quarry"
	"github.com/tomoncle/quarry/database"
	"github.com/tomoncle/quarry/entity"
	"github.com/tomoncle/quarry/query"
	"github.com/tomoncle/quarry/search"
	"github.com/tomoncle/quarry/types"
)

// HealthFunc reports the state of the backing database.
type HealthFunc func(ctx context.Context) *database.HealthStatus

// Handler serves the member search endpoints.
type Handler struct {
	log      *logrus.Logger
	searcher *search.Searcher
	teams    quarry.Service[entity.Team]
	health   HealthFunc
}

// NewHandler binds the handlers to db. A nil health falls back to the
// global database health check.
func NewHandler(log *logrus.Logger, db bun.IDB, health HealthFunc) *Handler {
	if health == nil {
		health = database.GetHealthStatus
	}
	return &Handler{
		log:      log,
		searcher: search.NewSearcher(query.NewFactory(db)),
		teams:    quarry.NewServiceWithDB[entity.Team](db, entity.Q.Team),
		health:   health,
	}
}

// Register mounts the routes on r.
func (h *Handler) Register(r fiber.Router) {
	r.Get("/health", h.GetHealth)
	r.Get("/members", h.GetMembers)
	r.Get("/teams", h.GetTeams)
	r.Get("/teams/stats", h.GetTeamStats)
}

// GetMembers searches members by the optional username, age, team_name,
// age_goe and age_loe parameters, windowed by offset and limit and ordered
// by id in the optional order direction.
func (h *Handler) GetMembers(c *fiber.Ctx) error {
	cond, err := parseCondition(c)
	if err != nil {
		return writeError(c, err)
	}
	offset, err := optionalInt(c, "offset")
	if err != nil {
		return writeError(c, err)
	}
	limit, err := optionalInt(c, "limit")
	if err != nil {
		return writeError(c, err)
	}

	dir := query.Ascending
	if v := strings.TrimSpace(c.Query("order")); v != "" {
		d, ok := query.ParseDirection(v)
		if !ok {
			return writeError(c, fmt.Errorf("%w: order must be asc or desc", ErrInvalidArgument))
		}
		dir = d
	}

	page := types.NewOffsetRequest(offset.OrElse(0), limit.OrElse(types.DefaultPageSize))
	res, err := h.searcher.Sorted(dir).SearchPage(c.Context(), cond, page)
	if err != nil {
		h.log.WithError(err).Error("failed to search members")
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(res)
}

// GetTeams lists every team.
func (h *Handler) GetTeams(c *fiber.Ctx) error {
	teams, err := h.teams.All(c.Context())
	if err != nil {
		h.log.WithError(err).Error("failed to list teams")
		return writeError(c, err)
	}
	if teams == nil {
		teams = []*entity.Team{}
	}
	return c.Status(fiber.StatusOK).JSON(teams)
}

// GetTeamStats returns member count and average age per team.
func (h *Handler) GetTeamStats(c *fiber.Ctx) error {
	stats, err := h.searcher.TeamStats(c.Context())
	if err != nil {
		h.log.WithError(err).Error("failed to get team stats")
		return writeError(c, err)
	}
	if stats == nil {
		stats = []entity.TeamStats{}
	}
	return c.Status(fiber.StatusOK).JSON(stats)
}

func (h *Handler) GetHealth(c *fiber.Ctx) error {
	status := h.health(c.Context())
	if !status.Healthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(status)
	}
	return c.Status(fiber.StatusOK).JSON(status)
}

func parseCondition(c *fiber.Ctx) (search.MemberCondition, error) {
	var cond search.MemberCondition
	var err error
	cond.Username = optionalString(c, "username")
	cond.TeamName = optionalString(c, "team_name")
	if cond.Age, err = optionalInt(c, "age"); err != nil {
		return cond, err
	}
	if cond.AgeGoe, err = optionalInt(c, "age_goe"); err != nil {
		return cond, err
	}
	if cond.AgeLoe, err = optionalInt(c, "age_loe"); err != nil {
		return cond, err
	}
	return cond, nil
}

func optionalString(c *fiber.Ctx, key string) types.Optional[string] {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return types.None[string]()
	}
	return types.Some(v)
}

func optionalInt(c *fiber.Ctx, key string) (types.Optional[int], error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return types.None[int](), nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return types.None[int](), fmt.Errorf("%w: %s must be an integer", ErrInvalidArgument, key)
	}
	return types.Some(n), nil
}
