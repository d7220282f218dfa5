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

package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// accountPattern is the only shape accepted for account fields: one or more
// decimal digits, nothing else.
var accountPattern = regexp.MustCompile(`^[0-9]+$`)

// Order is a transfer order as it moves through the ingestion pipeline.
//
// OrderID is the externally supplied business identifier and the natural key
// used for deduplication and blob archival. RecordID is generated per
// processed message so duplicate submissions can each land as their own
// record-store row without touching the canonical one.
type Order struct {
	RecordID    string                 `json:"record_id"`
	OrderID     string                 `json:"id"`
	Amount      float64                `json:"amount"`
	FromAccount string                 `json:"from_account"`
	ToAccount   string                 `json:"to_account"`
	Valid       bool                   `json:"valid"`
	IsDuplicate bool                   `json:"is_duplicate"`
	CreatedAt   time.Time              `json:"created_at"`
	MetaData    map[string]interface{} `json:"meta_data,omitempty"`
}

// ParseOrder decodes a raw queue payload into an Order. A payload that is not
// a JSON object is a parse error and must be propagated so the queue can
// redeliver or dead-letter it. Fields of the wrong type are not an error:
// they are left at their zero value and fail validation instead.
func ParseOrder(payload []byte) (*Order, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("order payload is not a JSON object: %w", err)
	}

	order := &Order{CreatedAt: time.Now()}
	if v, ok := raw["id"].(string); ok {
		order.OrderID = v
	}
	if v, ok := raw["amount"].(float64); ok {
		order.Amount = v
	}
	if v, ok := raw["fromAccount"].(string); ok {
		order.FromAccount = v
	}
	if v, ok := raw["toAccount"].(string); ok {
		order.ToAccount = v
	}
	return order, nil
}

// ValidateOrder reports whether the order is fit for archival. Invalidity is
// an expected outcome recorded on the order, never a processing failure.
func (o *Order) ValidateOrder() error {
	return validation.ValidateStruct(o,
		validation.Field(&o.OrderID, validation.Required),
		validation.Field(&o.Amount, validation.Required, validation.By(finiteAmount)),
		validation.Field(&o.FromAccount, validation.Required, validation.Match(accountPattern)),
		validation.Field(&o.ToAccount, validation.Required, validation.Match(accountPattern)),
	)
}

func finiteAmount(value interface{}) error {
	amount, ok := value.(float64)
	if !ok {
		return errors.New("amount must be a number")
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return errors.New("amount must be a finite number")
	}
	return nil
}

// BlobKey derives the archival key for a business identifier.
func BlobKey(orderID string) string {
	return fmt.Sprintf("orders/%s.json", orderID)
}

// ToJSON renders the order as the payload archived to the blob store.
func (o *Order) ToJSON() ([]byte, error) {
	return json.Marshal(o)
}
