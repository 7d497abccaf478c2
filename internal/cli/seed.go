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

	"github.com/tomoncle/quarry/entity"
	"github.com/tomoncle/quarry/fixture"
	"github.com/tomoncle/quarry/query"
)

func registerSeeders() {
	fixture.Register()
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample teams and members",
		Long: `Upsert teamA and teamB and insert member1..member4.

Running it again leaves the data unchanged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := open(ctx, rootOpts, true)
			if err != nil {
				return err
			}
			defer s.Close()

			registerSeeders()
			if err := s.migrations().InitData(ctx); err != nil {
				return err
			}

			f := query.NewFactory(s.db)
			teams, err := f.Count(ctx, query.SelectFrom(entity.Q.Team))
			if err != nil {
				return err
			}
			members, err := f.Count(ctx, query.SelectFrom(entity.Q.Member))
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]int64{"teams": teams, "members": members})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "teams: %d\nmembers: %d\n", teams, members)
			return err
		},
	}
}
