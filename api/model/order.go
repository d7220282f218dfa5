package model

import (
	"github.com/ravenpay/orderhub/model"
)

// CreateOrder is the ingress submission body. It carries exactly the four
// fields the pipeline consumes; the payload is forwarded to the queue
// verbatim, so full validation happens on the consumer side.
type CreateOrder struct {
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	FromAccount string  `json:"fromAccount"`
	ToAccount   string  `json:"toAccount"`
}

// OrderResponse is the read-path payload: the stored record plus a locator
// for the archived JSON. The locator may 404 when the order was invalid or a
// duplicate and was never archived.
type OrderResponse struct {
	Order   *model.Order `json:"order"`
	BlobURL string       `json:"blob_url"`
}
