package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// OrderContent is the content of new-order messages.
type OrderContent struct {
	Order *Order `json:"order"`
}

// AmountContent is the content of take-sell and take-buy messages for range
// orders.
type AmountContent struct {
	Amount int64 `json:"amount"`
}

// PaymentRequestContent is the content of add-invoice and pay-invoice
// messages.
type PaymentRequestContent struct {
	PaymentRequest *PaymentRequest `json:"payment_request"`
}

// CantDoContent ...
type CantDoContent struct {
	CantDo string `json:"cant_do"`
}

// TextContent ...
type TextContent struct {
	TextMessage string `json:"text_message"`
}

// PaymentRequest is encoded as the tuple [order|null, invoice, amount|null].
type PaymentRequest struct {
	Order   *Order
	Invoice string
	Amount  *int64
}

func (p PaymentRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{p.Order, p.Invoice, p.Amount})
}

func (p *PaymentRequest) UnmarshalJSON(buf []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(buf, &tuple); err != nil {
		return err
	}
	if len(tuple) < 2 || len(tuple) > 3 {
		return fmt.Errorf("payment request must have 2 or 3 elements, got %d", len(tuple))
	}

	var req PaymentRequest
	if !isNull(tuple[0]) {
		req.Order = &Order{}
		if err := json.Unmarshal(tuple[0], req.Order); err != nil {
			return err
		}
	}
	if err := json.Unmarshal(tuple[1], &req.Invoice); err != nil {
		return err
	}
	if len(tuple) == 3 && !isNull(tuple[2]) {
		var amount int64
		if err := json.Unmarshal(tuple[2], &amount); err != nil {
			return err
		}
		req.Amount = &amount
	}
	*p = req
	return nil
}

// NewOrderContent ...
func NewOrderContent(order *Order) interface{} {
	return OrderContent{Order: order}
}

// TakeContent returns the content of a take message: the amount for range
// orders, null otherwise.
func TakeContent(amount *int64) interface{} {
	if amount == nil {
		return nil
	}
	return AmountContent{Amount: *amount}
}

// AddInvoiceContent ...
func AddInvoiceContent(invoice string, amount *int64) interface{} {
	return PaymentRequestContent{
		PaymentRequest: &PaymentRequest{Invoice: invoice, Amount: amount},
	}
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
