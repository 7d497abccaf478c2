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
	"database/sql"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tomoncle/quarry/query"
)

// ErrInvalidArgument marks a malformed request parameter.
var ErrInvalidArgument = errors.New("invalid argument")

const (
	CodeBadRequest = "BAD_REQUEST"
	CodeNotFound   = "NOT_FOUND"
	CodeInternal   = "INTERNAL"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func writeError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	code := CodeInternal
	msg := "internal error"

	var ferr *fiber.Error
	switch {
	case errors.Is(err, ErrInvalidArgument):
		status, code, msg = fiber.StatusBadRequest, CodeBadRequest, err.Error()
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, query.ErrNotFound):
		status, code, msg = fiber.StatusNotFound, CodeNotFound, "resource not found"
	case errors.As(err, &ferr):
		status, msg = ferr.Code, ferr.Message
		if ferr.Code == fiber.StatusNotFound {
			code = CodeNotFound
		} else if ferr.Code < fiber.StatusInternalServerError {
			code = CodeBadRequest
		}
	}
	return c.Status(status).JSON(ErrorResponse{Error: ErrorBody{Code: code, Message: msg}})
}

// ErrorHandler renders handler errors as ErrorResponse.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return writeError(c, err)
}
