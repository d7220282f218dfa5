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
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	model2 "github.com/ravenpay/orderhub/api/model"
	"github.com/ravenpay/orderhub/internal/apierror"

	"github.com/gin-gonic/gin"
)

// SubmitOrder accepts a transfer order and forwards it to the ingestion
// queue. It checks field presence only; everything else is the pipeline's
// concern.
//
// Responses:
// - 400 Bad Request: missing fields or malformed JSON.
// - 200 OK: order enqueued.
// - 500 Internal Server Error: the queue rejected the payload.
func (a Api) SubmitOrder(c *gin.Context) {
	var newOrder model2.CreateOrder
	if err := c.ShouldBindJSON(&newOrder); err != nil {
		logrus.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := newOrder.ValidateCreateOrder(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	payload, err := json.Marshal(newOrder)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := a.orderhub.EnqueueOrder(c.Request.Context(), newOrder.ID, payload); err != nil {
		logrus.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order sent to queue"})
}

// GetOrder returns the canonical record for a business identifier together
// with the blob locator for its archived payload.
//
// Responses:
// - 400 Bad Request: missing identifier.
// - 404 Not Found: no canonical record for the identifier.
// - 200 OK: record plus blob URL.
// - 500 Internal Server Error: record or blob store failure.
func (a Api) GetOrder(c *gin.Context) {
	id, passed := c.Params.Get("id")
	if !passed || id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required. pass id in the route /orders/:id"})
		return
	}

	order, blobURL, err := a.orderhub.GetOrder(c.Request.Context(), id)
	if err != nil {
		c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, model2.OrderResponse{Order: order, BlobURL: blobURL})
}
