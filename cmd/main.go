/*
Copyright 2025 Orderhub Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ravenpay/orderhub"
	"github.com/ravenpay/orderhub/config"
	"github.com/ravenpay/orderhub/database"
	"github.com/ravenpay/orderhub/internal/notification"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Orderhub wraps the root Cobra command for the CLI application.
type Orderhub struct {
	cmd *cobra.Command
}

// orderhubInstance holds the runtime service instance and its configuration.
type orderhubInstance struct {
	hub *orderhub.Orderhub
	cnf *config.Configuration
}

// recoverPanic handles any panics during program execution and logs the error using Logrus.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun sets up the configuration and initializes the service instance
// before running any command.
func preRun(app *orderhubInstance) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := config.InitConfig("orderhub.json")
		if err != nil {
			log.Fatal("error loading config", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		newHub, err := setupOrderhub(cnf)
		if err != nil {
			notification.NotifyError(err)
			log.Fatal(err)
		}

		app.hub = newHub
		app.cnf = cnf

		return nil
	}
}

// setupOrderhub creates the service instance from the configured record
// store datasource.
func setupOrderhub(cfg *config.Configuration) (*orderhub.Orderhub, error) {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("error getting datasource: %v", err)
	}

	newHub, err := orderhub.NewOrderhub(db)
	if err != nil {
		return nil, fmt.Errorf("error creating orderhub: %v", err)
	}
	return newHub, nil
}

// NewCLI creates the command-line interface for the orderhub application.
func NewCLI() *Orderhub {
	var configFile string
	b := &orderhubInstance{}

	var rootCmd = &cobra.Command{
		Use:   "orderhub",
		Short: "Transfer order ingestion service",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./orderhub.json", "Configuration file for orderhub")

	rootCmd.PersistentPreRunE = preRun(b)

	rootCmd.AddCommand(serverCommands(b))
	rootCmd.AddCommand(workerCommands(b))
	rootCmd.AddCommand(migrateCommands(b))

	return &Orderhub{cmd: rootCmd}
}

// executeCLI runs the root command, handling any errors that occur during execution.
func (w Orderhub) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
