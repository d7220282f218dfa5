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

package orderhub

import (
	"embed"
	"fmt"

	"go.opentelemetry.io/otel"

	"github.com/ravenpay/orderhub/cache"
	"github.com/ravenpay/orderhub/config"
	"github.com/ravenpay/orderhub/database"
	"github.com/ravenpay/orderhub/internal/blobstore"
	redis_db "github.com/ravenpay/orderhub/internal/redis-db"
	"github.com/redis/go-redis/v9"
)

var tracer = otel.Tracer("orderhub.orders")

// Orderhub is the order ingestion and retrieval service: the queue it reads
// from, the record store and blob store it writes to, and the cache in front
// of the read path.
type Orderhub struct {
	queue      *Queue
	redis      redis.UniversalClient
	datasource database.IDataSource
	blobs      blobstore.Store
	cache      cache.Cache
}

//go:embed sql/*.sql
var SQLFiles embed.FS

// NewOrderhub initializes the service from configuration with the provided
// record store datasource.
func NewOrderhub(db database.IDataSource) (*Orderhub, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	redisClient, err := redis_db.NewRedisClient([]string{fmt.Sprintf("redis://%s", configuration.Redis.Dns)})
	if err != nil {
		return nil, err
	}
	newCache, err := cache.NewCache()
	if err != nil {
		return nil, err
	}
	blobs, err := blobstore.NewS3Store(configuration)
	if err != nil {
		return nil, err
	}
	newQueue := NewQueue(configuration)

	newOrderhub := &Orderhub{
		datasource: db,
		queue:      newQueue,
		redis:      redisClient.Client(),
		blobs:      blobs,
		cache:      newCache,
	}
	return newOrderhub, nil
}

// NewOrderhubWithDeps wires the service from explicit collaborators. Tests
// use it to run the pipeline against fakes.
func NewOrderhubWithDeps(db database.IDataSource, blobs blobstore.Store, ca cache.Cache, queue *Queue) *Orderhub {
	return &Orderhub{
		datasource: db,
		blobs:      blobs,
		cache:      ca,
		queue:      queue,
	}
}
