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
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ravenpay/orderhub/model"
)

const readCacheTTL = 5 * time.Minute

// GetOrder retrieves the canonical record for a business identifier together
// with a locator for its archived payload. A missing record is a NotFound
// APIError, distinct from store failures. The locator is derived without
// checking the blob exists; for orders that were invalid or duplicate it will
// 404 on use.
func (o *Orderhub) GetOrder(ctx context.Context, orderID string) (*model.Order, string, error) {
	ctx, span := tracer.Start(ctx, "Getting Order")
	defer span.End()

	order, err := o.fetchOrder(ctx, orderID)
	if err != nil {
		return nil, "", err
	}

	blobURL, err := o.blobs.ResolveURL(model.BlobKey(orderID))
	if err != nil {
		return nil, "", err
	}

	return order, blobURL, nil
}

func (o *Orderhub) fetchOrder(ctx context.Context, orderID string) (*model.Order, error) {
	cacheKey := fmt.Sprintf("order:%s", orderID)

	var cached model.Order
	if o.cache != nil {
		if err := o.cache.Get(ctx, cacheKey, &cached); err == nil && cached.RecordID != "" {
			return &cached, nil
		}
	}

	order, err := o.datasource.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if o.cache != nil {
		if err := o.cache.Set(ctx, cacheKey, order, readCacheTTL); err != nil {
			logrus.Warnf("failed to cache order %s: %v", orderID, err)
		}
	}
	return order, nil
}
