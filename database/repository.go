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

package database

import (
	"context"

	"github.com/ravenpay/orderhub/model"
)

// IDataSource defines the interface for record store operations.
type IDataSource interface {
	order
}

// order defines methods for handling order records. Rows written through this
// interface are immutable: there are inserts and reads, never updates, which
// is what makes "already exists" a reliable duplicate signal.
type order interface {
	RecordOrder(ctx context.Context, order *model.Order) (*model.Order, error)           // Inserts an audit row keyed by its generated record ID
	RecordCanonicalOrder(ctx context.Context, order *model.Order) (bool, error)          // Inserts the canonical row for a business ID iff none exists yet
	OrderExistsByID(ctx context.Context, orderID string) (bool, error)                   // Checks whether a canonical row exists for a business ID
	GetOrderByID(ctx context.Context, orderID string) (*model.Order, error)              // Retrieves the canonical row for a business ID
}
