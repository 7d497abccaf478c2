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
	"fmt"

	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	var rollback string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the member and team tables",
		Long: `Apply pending schema migrations and print the applied versions.

With --rollback, revert one applied version instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := open(ctx, rootOpts, false)
			if err != nil {
				return err
			}
			defer s.Close()

			mm := s.migrations()
			if rollback != "" {
				if err := mm.RollbackMigration(ctx, rollback); err != nil {
					return err
				}
			} else if err := mm.RunMigrations(ctx); err != nil {
				return err
			}

			applied, err := mm.GetAppliedMigrations(ctx)
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), applied)
			}
			rows := make([][]string, len(applied))
			for i, m := range applied {
				rows[i] = []string{m.Version, m.Name, m.AppliedAt.Format("2006-01-02 15:04:05")}
			}
			if err := writeTable(cmd.OutOrStdout(), []string{"VERSION", "NAME", "APPLIED_AT"}, rows); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d migration(s) applied\n", len(applied))
			return err
		},
	}

	cmd.Flags().StringVar(&rollback, "rollback", "", "revert the given migration version")
	return cmd
}
