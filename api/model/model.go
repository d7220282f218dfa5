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
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ValidateCreateOrder is the ingress presence check only: all four fields
// must be there. Shape rules (digit-only accounts, finite amount) are the
// pipeline's job and are recorded, not rejected.
func (o *CreateOrder) ValidateCreateOrder() error {
	return validation.ValidateStruct(o,
		validation.Field(&o.ID, validation.Required),
		validation.Field(&o.Amount, validation.Required),
		validation.Field(&o.FromAccount, validation.Required),
		validation.Field(&o.ToAccount, validation.Required),
	)
}
