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
	"context"
	"log"
	"net/http"
	"time"

	"github.com/caddyserver/certmagic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/posthog/posthog-go"
	"github.com/ravenpay/orderhub/api"
	"github.com/ravenpay/orderhub/config"
	"github.com/ravenpay/orderhub/internal/traces"
	"github.com/spf13/cobra"
)

// serveTLS starts an HTTPS server with TLS enabled using CertMagic for
// automatic certificate management. If no domain is specified, the server
// defaults to localhost.
func serveTLS(r *gin.Engine, conf config.ServerConfig) error {
	certmagic.DefaultACME.Agreed = true
	certmagic.DefaultACME.Email = conf.Email
	cfg := certmagic.NewDefault()
	cfg.Storage = &certmagic.FileStorage{Path: "path/to/certmagic/storage"}

	domains := []string{conf.Domain}
	if conf.Domain == "" {
		log.Println("No domain specified, defaulting to localhost")
		domains = []string{"localhost"}
	}

	if err := cfg.ManageSync(context.Background(), domains); err != nil {
		return err
	}

	server := &http.Server{
		Addr:      ":" + conf.Port,
		Handler:   r,
		TLSConfig: cfg.TLSConfig(),
	}

	log.Printf("Starting HTTPS server on %s\n", conf.Port)
	if err := server.ListenAndServeTLS("", ""); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start HTTPS server: %v", err)
	}

	return nil
}

// sendHeartbeat initializes and maintains a periodic heartbeat to PostHog
func sendHeartbeat(client posthog.Client, heartbeatID string) {
	ticker := time.NewTicker(5 * time.Minute)
	go func() {
		for range ticker.C {
			if err := client.Enqueue(posthog.Capture{
				DistinctId: heartbeatID,
				Event:      "server_heartbeat",
				Properties: map[string]interface{}{
					"timestamp": time.Now().UTC(),
				},
			}); err != nil {
				log.Printf("Failed to send heartbeat: %v", err)
			}
		}
	}()
}

// initializeObservability sets up tracing and the optional PostHog client.
func initializeObservability(ctx context.Context, conf *config.Configuration) (posthog.Client, func(context.Context) error, error) {
	shutdown, err := traces.SetupOTelSDK(ctx, conf.ProjectName)
	if err != nil {
		return nil, nil, err
	}

	var phClient posthog.Client
	if conf.PosthogApiKey != "" {
		phClient, err = posthog.NewWithConfig(conf.PosthogApiKey, posthog.Config{})
		if err != nil {
			return nil, shutdown, err
		}
		sendHeartbeat(phClient, uuid.New().String())
	}

	return phClient, shutdown, nil
}

func initializeRouter(b *orderhubInstance) *gin.Engine {
	return api.NewAPI(b.hub).Router()
}

// serverCommands defines the "start" command that runs the HTTP API.
func serverCommands(b *orderhubInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "start orderhub server",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			conf, err := config.Fetch()
			if err != nil {
				log.Fatal("Error fetching config:", err)
			}

			phClient, shutdown, err := initializeObservability(ctx, conf)
			if err != nil {
				log.Fatal(err)
			}
			if shutdown != nil {
				defer func() {
					if err := shutdown(ctx); err != nil {
						log.Printf("Error during shutdown: %v", err)
					}
				}()
			}
			if phClient != nil {
				defer phClient.Close()
			}

			router := initializeRouter(b)

			if conf.Server.SSL {
				if err := serveTLS(router, conf.Server); err != nil {
					log.Fatalf("Error starting TLS server: %v", err)
				}
				return
			}

			log.Printf("Starting server on %s\n", conf.Server.Port)
			if err := http.ListenAndServe(":"+conf.Server.Port, router); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		},
	}

	return cmd
}
