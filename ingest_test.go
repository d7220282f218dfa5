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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ravenpay/orderhub/config"
	"github.com/ravenpay/orderhub/database/mocks"
	"github.com/ravenpay/orderhub/model"
)

// fakeBlobStore records puts in memory and hands out deterministic locators.
type fakeBlobStore struct {
	mu   sync.Mutex
	puts map[string][]byte
	err  error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{puts: map[string][]byte{}}
}

func (f *fakeBlobStore) Put(_ context.Context, key string, body []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.puts[key] = body
	return nil
}

func (f *fakeBlobStore) ResolveURL(key string) (string, error) {
	return "https://blobs.test/" + key, nil
}

func newTestOrderhub(t *testing.T) (*Orderhub, *mocks.MockDataSource, *fakeBlobStore) {
	t.Helper()
	config.MockConfig(&config.Configuration{
		DataSource:  config.DataSourceConfig{Dns: "postgres://localhost:5432"},
		Redis:       config.RedisConfig{Dns: "localhost:6379"},
		BlobStore:   config.BlobStoreConfig{Bucket: "orders-archive"},
		Queue:       config.QueueConfig{OrderQueue: "new:order", WebhookQueue: "new:webhook", NumberOfQueues: 4, MaxRetryAttempts: 5},
		RecordStore: config.RecordStoreConfig{Schema: "orderhub", Table: "orders"},
	})
	datasource := new(mocks.MockDataSource)
	blobs := newFakeBlobStore()
	return NewOrderhubWithDeps(datasource, blobs, nil, nil), datasource, blobs
}

func TestProcessOrderFirstSeen(t *testing.T) {
	hub, datasource, blobs := newTestOrderhub(t)
	payload := []byte(`{"id":"ord-1","amount":250,"fromAccount":"12345","toAccount":"67890"}`)

	datasource.On("OrderExistsByID", mock.Anything, "ord-1").Return(false, nil)
	datasource.On("RecordCanonicalOrder", mock.Anything, mock.Anything).Return(true, nil)

	order, err := hub.ProcessOrder(context.Background(), payload)
	require.NoError(t, err)
	assert.True(t, order.Valid)
	assert.False(t, order.IsDuplicate)
	assert.NotEmpty(t, order.RecordID)

	// Valid first-seen orders are archived under their business identifier.
	body, ok := blobs.puts["orders/ord-1.json"]
	require.True(t, ok)
	assert.Contains(t, string(body), `"id":"ord-1"`)

	datasource.AssertExpectations(t)
	datasource.AssertNotCalled(t, "RecordOrder", mock.Anything, mock.Anything)
}

func TestProcessOrderDuplicate(t *testing.T) {
	hub, datasource, blobs := newTestOrderhub(t)
	payload := []byte(`{"id":"ord-1","amount":250,"fromAccount":"12345","toAccount":"67890"}`)

	datasource.On("OrderExistsByID", mock.Anything, "ord-1").Return(true, nil)
	datasource.On("RecordOrder", mock.Anything, mock.MatchedBy(func(o *model.Order) bool {
		return o.IsDuplicate && o.OrderID == "ord-1"
	})).Return(&model.Order{}, nil)

	order, err := hub.ProcessOrder(context.Background(), payload)
	require.NoError(t, err)
	assert.True(t, order.IsDuplicate)

	// The duplicate never touches the blob store or the canonical row.
	assert.Empty(t, blobs.puts)
	datasource.AssertExpectations(t)
	datasource.AssertNotCalled(t, "RecordCanonicalOrder", mock.Anything, mock.Anything)
}

func TestProcessOrderInvalidSkipsBlob(t *testing.T) {
	hub, datasource, blobs := newTestOrderhub(t)
	payload := []byte(`{"id":"ord-2","amount":250,"fromAccount":"abc","toAccount":"67890"}`)

	datasource.On("OrderExistsByID", mock.Anything, "ord-2").Return(false, nil)
	datasource.On("RecordCanonicalOrder", mock.Anything, mock.MatchedBy(func(o *model.Order) bool {
		return !o.Valid && o.OrderID == "ord-2"
	})).Return(true, nil)

	order, err := hub.ProcessOrder(context.Background(), payload)
	require.NoError(t, err)
	assert.False(t, order.Valid)
	assert.Empty(t, blobs.puts)
	datasource.AssertExpectations(t)
}

func TestProcessOrderMissingID(t *testing.T) {
	hub, datasource, blobs := newTestOrderhub(t)
	payload := []byte(`{"amount":250,"fromAccount":"12345","toAccount":"67890"}`)

	datasource.On("RecordOrder", mock.Anything, mock.MatchedBy(func(o *model.Order) bool {
		return o.OrderID == "" && !o.Valid && o.RecordID != ""
	})).Return(&model.Order{}, nil)

	order, err := hub.ProcessOrder(context.Background(), payload)
	require.NoError(t, err)
	assert.False(t, order.Valid)
	assert.Empty(t, blobs.puts)
	datasource.AssertExpectations(t)
	datasource.AssertNotCalled(t, "OrderExistsByID", mock.Anything, mock.Anything)
}

func TestProcessOrderLostCanonicalRace(t *testing.T) {
	hub, datasource, _ := newTestOrderhub(t)
	payload := []byte(`{"id":"ord-3","amount":250,"fromAccount":"12345","toAccount":"67890"}`)

	// The existence check misses, but another worker claims the canonical
	// slot first; the conditional insert affects zero rows.
	datasource.On("OrderExistsByID", mock.Anything, "ord-3").Return(false, nil)
	datasource.On("RecordCanonicalOrder", mock.Anything, mock.Anything).Return(false, nil)
	datasource.On("RecordOrder", mock.Anything, mock.MatchedBy(func(o *model.Order) bool {
		return o.IsDuplicate
	})).Return(&model.Order{}, nil)

	order, err := hub.ProcessOrder(context.Background(), payload)
	require.NoError(t, err)
	assert.True(t, order.IsDuplicate)
	datasource.AssertExpectations(t)
}

func TestProcessOrderUnparseablePayload(t *testing.T) {
	hub, datasource, blobs := newTestOrderhub(t)

	_, err := hub.ProcessOrder(context.Background(), []byte("not a json object"))
	require.Error(t, err)

	// Nothing is recorded; the queue's retry policy owns this payload now.
	assert.Empty(t, blobs.puts)
	datasource.AssertNotCalled(t, "RecordOrder", mock.Anything, mock.Anything)
	datasource.AssertNotCalled(t, "RecordCanonicalOrder", mock.Anything, mock.Anything)
}

func TestProcessOrderBlobFailureAbortsRecord(t *testing.T) {
	hub, datasource, blobs := newTestOrderhub(t)
	blobs.err = assert.AnError
	payload := []byte(`{"id":"ord-4","amount":250,"fromAccount":"12345","toAccount":"67890"}`)

	datasource.On("OrderExistsByID", mock.Anything, "ord-4").Return(false, nil)

	_, err := hub.ProcessOrder(context.Background(), payload)
	require.Error(t, err)

	// The record write never happens when the archive fails; the redelivered
	// message gets to retry the whole pipeline.
	datasource.AssertNotCalled(t, "RecordCanonicalOrder", mock.Anything, mock.Anything)
}
