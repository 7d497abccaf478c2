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
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
)

// NewApp returns a fiber app with request ids, request logging, panic
// recovery and the handler routes.
func NewApp(log *logrus.Logger, h *Handler, requestTimeout time.Duration) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:           requestTimeout,
		WriteTimeout:          requestTimeout,
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})
	app.Use(requestid.New())
	app.Use(RequestLogger(log))
	app.Use(recover.New())
	h.Register(app)
	return app
}

// Serve listens on addr until ctx is done, then shuts the app down within
// shutdownTimeout.
func Serve(ctx context.Context, log *logrus.Logger, app *fiber.App, addr string, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(addr)
	}()
	log.WithField("addr", addr).Info("http server started")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.WithError(err).Warn("http server shutdown")
		return err
	}
	log.Info("http server stopped")
	return nil
}
