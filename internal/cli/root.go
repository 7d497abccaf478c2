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

// Package cli implements the quarry command line.
package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/tomoncle/quarry/config"
	"github.com/tomoncle/quarry/database"
	"github.com/tomoncle/quarry/entity"
)

// RootOptions holds global flags and the loaded configuration.
type RootOptions struct {
	ConfigFile string
	Format     string // "json" | "text"

	config *config.Config
}

var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the quarry CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "quarry",
		Short: "Typed queries over members and teams",
		Long:  "Migrate, seed, search and serve the member/team sample schema.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			cfg, err := config.NewConfig(opts.ConfigFile)
			if err != nil {
				return err
			}
			cfg.ApplyLogging()
			opts.config = cfg
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "config file (yaml)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	return cmd
}

// session is an open connection for the duration of one command.
type session struct {
	manager database.AbstractDatabaseManager
	db      *bun.DB
	cfg     *database.Config
}

func (s *session) Close() {
	_ = s.manager.Disconnect()
}

func (s *session) migrations() *database.MigrationManager {
	return database.NewMigrationManager(s.db, database.GetLogger()).WithOptions(database.MigrationOptions{
		EnableForeignKey: s.cfg.DataMigrateConfig.EnableForeignKey,
		ForeignKeyFile:   s.cfg.DataMigrateConfig.ForeignKeyFile,
		SeedOnMigration:  s.cfg.DataInitConfig.AutoInitOnMigration,
	})
}

// open connects with the configured database. With startup set, it also
// migrates and seeds as the configuration asks.
func open(ctx context.Context, opts *RootOptions, startup bool) (*session, error) {
	entity.Register()
	cfg := opts.config.ConfigLoader()
	manager, err := database.NewDatabaseFactory().CreateFromConfig(&cfg.ConnectionConfig)
	if err != nil {
		return nil, err
	}
	if err := manager.Connect(ctx); err != nil {
		return nil, err
	}
	s := &session{manager: manager, db: manager.GetDB(), cfg: cfg}
	if !startup {
		return s, nil
	}
	if cfg.DataMigrateConfig.EnableMigrateOnStartup {
		if err := s.migrations().RunMigrations(ctx); err != nil {
			s.Close()
			return nil, err
		}
	}
	if cfg.DataInitConfig.AutoInitOnStartup {
		registerSeeders()
		if err := s.migrations().InitData(ctx); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}
