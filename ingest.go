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
	"log"

	"github.com/sirupsen/logrus"

	"github.com/ravenpay/orderhub/internal/notification"
	"github.com/ravenpay/orderhub/model"
)

// ProcessOrder runs the per-message ingestion pipeline: parse, validate,
// duplicate-check, conditional blob archive, record write. Every message that
// parses produces exactly one record store row. A returned error aborts only
// this message and pushes it back to the queue for redelivery.
func (o *Orderhub) ProcessOrder(ctx context.Context, payload []byte) (*model.Order, error) {
	ctx, span := tracer.Start(ctx, "Processing Order From Queue")
	defer span.End()

	order, err := model.ParseOrder(payload)
	if err != nil {
		// Fatal for this message; the queue's retry policy decides whether it
		// is redelivered or dead-lettered.
		logrus.Errorf("Error parsing order payload: %v", err)
		return nil, err
	}

	order.Valid = order.ValidateOrder() == nil
	order.RecordID = model.GenerateUUIDWithSuffix("ord")

	if order.OrderID == "" {
		// No business identifier: the order cannot be deduplicated or
		// archived, but its audit row is still written.
		logrus.Warnf("Order without id, recording audit row %s", order.RecordID)
		if _, err := o.datasource.RecordOrder(ctx, order); err != nil {
			notification.NotifyError(err)
			return nil, err
		}
		return order, nil
	}

	exists, err := o.datasource.OrderExistsByID(ctx, order.OrderID)
	if err != nil {
		notification.NotifyError(err)
		return nil, err
	}
	if exists {
		return o.recordDuplicate(ctx, order)
	}

	if order.Valid {
		body, err := order.ToJSON()
		if err != nil {
			return nil, err
		}
		if err := o.blobs.Put(ctx, model.BlobKey(order.OrderID), body, "application/json"); err != nil {
			notification.NotifyError(err)
			return nil, err
		}
		log.Printf(" [*] Order %s archived to blob store", order.OrderID)
	} else {
		logrus.Warnf("Order %s invalid, skipping blob archive", order.OrderID)
	}

	inserted, err := o.datasource.RecordCanonicalOrder(ctx, order)
	if err != nil {
		notification.NotifyError(err)
		return nil, err
	}
	if !inserted {
		// Lost the first-seen race against a concurrent redelivery of the
		// same identifier. The earlier blob write is last-write-wins on the
		// same key and harmless.
		return o.recordDuplicate(ctx, order)
	}

	o.postOrderActions(ctx, order)
	return order, nil
}

// recordDuplicate writes the duplicate audit row. The canonical row for this
// business identifier is never touched.
func (o *Orderhub) recordDuplicate(ctx context.Context, order *model.Order) (*model.Order, error) {
	order.IsDuplicate = true
	if _, err := o.datasource.RecordOrder(ctx, order); err != nil {
		notification.NotifyError(err)
		return nil, err
	}
	log.Printf(" [*] Order %s recorded as duplicate %s", order.OrderID, order.RecordID)
	o.postOrderActions(ctx, order)
	return order, nil
}

func (o *Orderhub) postOrderActions(_ context.Context, order *model.Order) {
	err := SendWebhook(NewWebhook{
		Event:   getEventFromOrder(order),
		Payload: order,
	})
	if err != nil {
		notification.NotifyError(err)
	}
	log.Println(" [*] Order Processed", order.RecordID)
}
