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

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5002"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"ORDERHUB_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"ORDERHUB_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"ORDERHUB_SERVER_SECRET_KEY"`
	Domain    string `json:"domain" envconfig:"ORDERHUB_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"ORDERHUB_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"ORDERHUB_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"ORDERHUB_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns string `json:"dns" envconfig:"ORDERHUB_REDIS_DNS"`
}

// BlobStoreConfig points at the S3 bucket holding archived order payloads.
// When Public is true the read path hands out static bucket URLs instead of
// presigned ones.
type BlobStoreConfig struct {
	AccessKeyId     string `json:"access_key_id" envconfig:"ORDERHUB_S3_ACCESS_KEY_ID"`
	SecretAccessKey string `json:"secret_access_key" envconfig:"ORDERHUB_S3_SECRET_ACCESS_KEY"`
	Region          string `json:"region" envconfig:"ORDERHUB_S3_REGION"`
	Endpoint        string `json:"endpoint" envconfig:"ORDERHUB_S3_ENDPOINT"`
	Bucket          string `json:"bucket" envconfig:"ORDERHUB_S3_BUCKET"`
	Public          bool   `json:"public" envconfig:"ORDERHUB_S3_PUBLIC"`
}

type QueueConfig struct {
	OrderQueue       string `json:"order_queue" envconfig:"ORDERHUB_QUEUE_ORDER"`
	WebhookQueue     string `json:"webhook_queue" envconfig:"ORDERHUB_QUEUE_WEBHOOK"`
	NumberOfQueues   int    `json:"number_of_queues" envconfig:"ORDERHUB_QUEUE_NUMBER_OF_QUEUES"`
	MaxRetryAttempts int    `json:"max_retry_attempts" envconfig:"ORDERHUB_QUEUE_MAX_RETRY_ATTEMPTS"`
	MonitoringPort   string `json:"monitoring_port" envconfig:"ORDERHUB_QUEUE_MONITORING_PORT"`
}

type RecordStoreConfig struct {
	Schema string `json:"schema" envconfig:"ORDERHUB_RECORD_STORE_SCHEMA"`
	Table  string `json:"table" envconfig:"ORDERHUB_RECORD_STORE_TABLE"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"ORDERHUB_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"ORDERHUB_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"ORDERHUB_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url"`
}

type Notification struct {
	Slack   SlackWebhook `json:"slack"`
	Webhook struct {
		Url     string            `json:"url"`
		Headers map[string]string `json:"headers"`
	} `json:"webhook"`
}

type Configuration struct {
	ProjectName    string            `json:"project_name" envconfig:"ORDERHUB_PROJECT_NAME"`
	PosthogApiKey  string            `json:"posthog_api_key" envconfig:"ORDERHUB_POSTHOG_API_KEY"`
	OtlpEndpoint   string            `json:"otlp_endpoint" envconfig:"ORDERHUB_OTLP_ENDPOINT"`
	Server         ServerConfig      `json:"server"`
	DataSource     DataSourceConfig  `json:"data_source"`
	RecordStore    RecordStoreConfig `json:"record_store"`
	Redis          RedisConfig       `json:"redis"`
	BlobStore      BlobStoreConfig   `json:"blob_store"`
	Queue          QueueConfig       `json:"queue"`
	Notification   Notification      `json:"notification"`
	RateLimit      RateLimitConfig   `json:"rate_limit"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("orderhub", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called orderhub.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Orderhub Server"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	if cnf.BlobStore.Bucket == "" {
		log.Println("Error: Blob store bucket is empty. It's a required field.")
		return errors.New("blob store bucket is required")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)
	cnf.BlobStore.Bucket = strings.TrimSpace(cnf.BlobStore.Bucket)

	// Set default value for Port if it's empty
	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.RecordStore.Schema == "" {
		cnf.RecordStore.Schema = "orderhub"
	}
	if cnf.RecordStore.Table == "" {
		cnf.RecordStore.Table = "orders"
	}

	if cnf.Queue.OrderQueue == "" {
		cnf.Queue.OrderQueue = "new:order"
	}
	if cnf.Queue.WebhookQueue == "" {
		cnf.Queue.WebhookQueue = "new:webhook"
	}
	if cnf.Queue.NumberOfQueues <= 0 {
		cnf.Queue.NumberOfQueues = 4
	}
	if cnf.Queue.MaxRetryAttempts <= 0 {
		cnf.Queue.MaxRetryAttempts = 5
	}
	if cnf.Queue.MonitoringPort == "" {
		cnf.Queue.MonitoringPort = "5003"
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}

	// Set default cleanup interval if not specified
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800 // 3 hours in seconds
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
		log.Printf("Warning: Rate limit cleanup interval not specified. Setting default value: %d seconds", defaultCleanup)
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
