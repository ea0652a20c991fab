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

package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tomoncle/anvil/config"
	"github.com/tomoncle/anvil/database"
	"github.com/tomoncle/anvil/logging"
)

type options struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "anvil",
		Short:         "Database maintenance for anvil services",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "anvil.yaml", "path to the configuration file")

	root.AddCommand(newMigrateCmd(opts), newSeedCmd(opts), newHealthCmd(opts))
	return root
}

// open loads the configuration and connects without the startup
// migrate/seed steps; each command runs the step it is named after.
func open(ctx context.Context, opts *options) (*database.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if err := logging.Configure(cfg.Log); err != nil {
		return nil, err
	}
	dbCfg := *cfg.ConfigLoader()
	dbCfg.DataMigrateConfig.EnableMigrateOnStartup = false
	dbCfg.DataInitConfig.AutoInitOnStartup = false
	// a one-shot command has no use for the background checker
	dbCfg.ConnectionConfig.HealthCheckInterval = 0

	if _, err := database.InitDB(ctx, &dbCfg); err != nil {
		return nil, err
	}
	return &dbCfg, nil
}

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the tables of registered models and apply pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if _, err := open(ctx, opts); err != nil {
				return err
			}
			defer func() { _ = database.CloseDB() }()
			return database.RunMigrations(ctx)
		},
	}
}

func newSeedCmd(opts *options) *cobra.Command {
	var environment string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Execute the seed SQL files of an environment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if _, err := open(ctx, opts); err != nil {
				return err
			}
			defer func() { _ = database.CloseDB() }()
			return database.InitDataWithSQL(ctx, environment)
		},
	}
	cmd.Flags().StringVarP(&environment, "env", "e", "", "seed environment, defaults to the configured one")
	return cmd
}

func newHealthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Ping the database and print pool statistics as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if _, err := open(ctx, opts); err != nil {
				return err
			}
			defer func() { _ = database.CloseDB() }()

			status := database.GetHealthStatus(ctx)
			out, err := json.MarshalIndent(struct {
				Health *database.HealthStatus `json:"health"`
				Stats  *database.DBStats      `json:"stats"`
			}{status, database.GetDatabaseStats()}, "", "  ")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			if !status.Healthy {
				return fmt.Errorf("database unhealthy: %s", status.LastError)
			}
			return nil
		},
	}
}
