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

package api

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ravenpay/orderhub"
	"github.com/ravenpay/orderhub/config"
	"github.com/ravenpay/orderhub/database/mocks"
	"github.com/ravenpay/orderhub/internal/apierror"
	"github.com/ravenpay/orderhub/model"
)

type stubBlobStore struct{}

func (stubBlobStore) Put(_ context.Context, _ string, _ []byte, _ string) error {
	return nil
}

func (stubBlobStore) ResolveURL(key string) (string, error) {
	return "https://blobs.test/" + key, nil
}

func setupAPI(t *testing.T) (*Api, *mocks.MockDataSource) {
	t.Helper()
	mr := miniredis.RunT(t)
	cnf := &config.Configuration{
		Redis:       config.RedisConfig{Dns: mr.Addr()},
		DataSource:  config.DataSourceConfig{Dns: "postgres://localhost:5432"},
		BlobStore:   config.BlobStoreConfig{Bucket: "orders-archive"},
		Queue:       config.QueueConfig{OrderQueue: "new:order", WebhookQueue: "new:webhook", NumberOfQueues: 4, MaxRetryAttempts: 5},
		RecordStore: config.RecordStoreConfig{Schema: "orderhub", Table: "orders"},
	}
	config.MockConfig(cnf)

	datasource := new(mocks.MockDataSource)
	hub := orderhub.NewOrderhubWithDeps(datasource, stubBlobStore{}, nil, orderhub.NewQueue(cnf))
	return NewAPI(hub), datasource
}

func TestHealthEndpoint(t *testing.T) {
	a, _ := setupAPI(t)
	router := a.Router()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "order service running")
	assert.Contains(t, w.Body.String(), "uptime")
}

func TestSubmitOrder(t *testing.T) {
	a, _ := setupAPI(t)
	router := a.Router()

	body := []byte(`{"id":"ord-1","amount":250,"fromAccount":"12345","toAccount":"67890"}`)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/orders", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Order sent to queue")
}

func TestSubmitOrderMissingFields(t *testing.T) {
	a, _ := setupAPI(t)
	router := a.Router()

	body := []byte(`{"id":"ord-1","fromAccount":"12345"}`)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/orders", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitOrderMalformedJSON(t *testing.T) {
	a, _ := setupAPI(t)
	router := a.Router()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/orders", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetOrderEndpoint(t *testing.T) {
	a, datasource := setupAPI(t)
	router := a.Router()

	stored := &model.Order{RecordID: "ord_abc", OrderID: "ord-1", Amount: 250, FromAccount: "12345", ToAccount: "67890", Valid: true}
	datasource.On("GetOrderByID", mock.Anything, "ord-1").Return(stored, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/orders/ord-1", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"blob_url":"https://blobs.test/orders/ord-1.json"`)
	assert.Contains(t, w.Body.String(), `"record_id":"ord_abc"`)
}

func TestGetOrderEndpointNotFound(t *testing.T) {
	a, datasource := setupAPI(t)
	router := a.Router()

	datasource.On("GetOrderByID", mock.Anything, "ord-404").
		Return(nil, apierror.NewAPIError(apierror.ErrNotFound, "Order with ID 'ord-404' not found", sql.ErrNoRows))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/orders/ord-404", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetOrderEndpointMissingID(t *testing.T) {
	a, datasource := setupAPI(t)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/orders/", nil)
	a.GetOrder(c)

	// The guard fires before any store is consulted.
	assert.Equal(t, http.StatusBadRequest, w.Code)
	datasource.AssertNotCalled(t, "GetOrderByID", mock.Anything, mock.Anything)
}
