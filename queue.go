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
	"context"
	"fmt"
	"hash/fnv"
	"log"

	"github.com/ravenpay/orderhub/config"
	redis_db "github.com/ravenpay/orderhub/internal/redis-db"

	"github.com/hibiken/asynq"
)

// Queue hands inbound order payloads to the worker fleet. Delivery is
// at least once: a handler error pushes the message back for redelivery, and
// messages that exhaust their retries are archived by asynq.
type Queue struct {
	Client    *asynq.Client
	Inspector *asynq.Inspector
}

// NewQueue initializes a new Queue instance with the provided configuration.
func NewQueue(conf *config.Configuration) *Queue {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns)
	if err != nil {
		log.Fatalf("Error parsing Redis URL: %v", err)
	}

	queueOptions := asynq.RedisClientOpt{Addr: redisOption.Addr, Password: redisOption.Password, DB: redisOption.DB}
	client := asynq.NewClient(queueOptions)
	inspector := asynq.NewInspector(queueOptions)
	return &Queue{
		Client:    client,
		Inspector: inspector,
	}
}

// EnqueueOrder enqueues a raw order payload. Payloads are forwarded verbatim;
// parsing and validation happen on the consumer side.
func (q *Queue) EnqueueOrder(ctx context.Context, orderID string, payload []byte) error {
	cfg, err := config.Fetch()
	if err != nil {
		return err
	}

	info, err := q.Client.EnqueueContext(ctx, q.orderTask(cfg, orderID, payload), asynq.MaxRetry(cfg.Queue.MaxRetryAttempts))
	if err != nil {
		log.Println(err, info)
		return err
	}
	log.Printf(" [*] Successfully enqueued order: %+v", orderID)

	return nil
}

// orderTask assigns the payload to one of the order queues based on a hash of
// the business identifier. Redeliveries of the same identifier land on the
// same queue and are processed serially there, which keeps the
// check-then-act duplicate gate from racing against itself.
func (q *Queue) orderTask(cfg *config.Configuration, orderID string, payload []byte) *asynq.Task {
	queueIndex := hashOrderID(orderID) % cfg.Queue.NumberOfQueues
	queueName := fmt.Sprintf("%s_%d", cfg.Queue.OrderQueue, queueIndex+1)

	return asynq.NewTask(queueName, payload, asynq.Queue(queueName))
}

// EnqueueOrder forwards a raw submission payload to the order queue.
func (o *Orderhub) EnqueueOrder(ctx context.Context, orderID string, payload []byte) error {
	return o.queue.EnqueueOrder(ctx, orderID, payload)
}

// hashOrderID returns a consistent hash value for a business identifier.
func hashOrderID(orderID string) int {
	hasher := fnv.New32a()
	_, _ = hasher.Write([]byte(orderID))
	return int(hasher.Sum32())
}
