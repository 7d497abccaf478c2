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
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tomoncle/quarry/query"
	"github.com/tomoncle/quarry/search"
	"github.com/tomoncle/quarry/types"
)

type searchOptions struct {
	username string
	team     string
	age      int
	ageGoe   int
	ageLoe   int
	offset   int
	limit    int
	order    string
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search members by optional filters",
		Long: `Search members joined to their team.

Every filter is optional; filters left unset do not restrict the result.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.username, "username", "u", "", "exact username")
	cmd.Flags().IntVarP(&opts.age, "age", "a", 0, "exact age")
	cmd.Flags().StringVarP(&opts.team, "team", "t", "", "team name")
	cmd.Flags().IntVar(&opts.ageGoe, "age-goe", 0, "minimum age")
	cmd.Flags().IntVar(&opts.ageLoe, "age-loe", 0, "maximum age")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "rows to skip")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "maximum rows, 0 for all")
	cmd.Flags().StringVar(&opts.order, "order", "asc", "member id order (asc|desc)")
	return cmd
}

func (o *searchOptions) condition(cmd *cobra.Command) search.MemberCondition {
	flags := cmd.Flags()
	var c search.MemberCondition
	if flags.Changed("username") {
		c.Username = types.Some(o.username)
	}
	if flags.Changed("age") {
		c.Age = types.Some(o.age)
	}
	if flags.Changed("team") {
		c.TeamName = types.Some(o.team)
	}
	if flags.Changed("age-goe") {
		c.AgeGoe = types.Some(o.ageGoe)
	}
	if flags.Changed("age-loe") {
		c.AgeLoe = types.Some(o.ageLoe)
	}
	return c
}

func runSearch(cmd *cobra.Command, rootOpts *RootOptions, opts *searchOptions) error {
	dir, ok := query.ParseDirection(opts.order)
	if !ok {
		return fmt.Errorf("invalid order %q: must be asc or desc", opts.order)
	}

	ctx := cmd.Context()
	s, err := open(ctx, rootOpts, true)
	if err != nil {
		return err
	}
	defer s.Close()

	searcher := search.NewSearcher(query.NewFactory(s.db)).Sorted(dir)
	res, err := searcher.SearchPage(ctx, opts.condition(cmd), types.NewOffsetRequest(opts.offset, opts.limit))
	if err != nil {
		return err
	}
	if rootOpts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), res)
	}

	rows := make([][]string, len(res.Items))
	for i, m := range res.Items {
		team := "-"
		if m.TeamName != nil {
			team = *m.TeamName
		}
		rows[i] = []string{strconv.FormatInt(m.MemberID, 10), m.Username, strconv.Itoa(m.Age), team}
	}
	if err := writeTable(cmd.OutOrStdout(), []string{"ID", "USERNAME", "AGE", "TEAM"}, rows); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "total: %d\n", res.Total)
	return err
}
