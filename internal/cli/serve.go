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

package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomoncle/quarry/database"
	"github.com/tomoncle/quarry/transport/http"
	"github.com/tomoncle/quarry/utils"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s, err := open(ctx, rootOpts, true)
			if err != nil {
				return err
			}
			defer s.Close()

			cfg := rootOpts.config
			if addr == "" {
				addr = cfg.ServerAddr()
			}
			log := utils.GetLogger("HTTP")
			manager := s.manager
			h := http.NewHandler(log, s.db, func(ctx context.Context) *database.HealthStatus {
				return manager.HealthCheck(ctx)
			})
			app := http.NewApp(log, h, cfg.Server.RequestTimeout)
			return http.Serve(ctx, log, app, addr, cfg.Server.ShutdownTimeout)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.host and server.port")
	return cmd
}
