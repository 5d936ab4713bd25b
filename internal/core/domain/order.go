package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderKind is the side of an order.
type OrderKind string

const (
	OrderKindBuy  OrderKind = "buy"
	OrderKindSell OrderKind = "sell"
)

// IsValid ...
func (k OrderKind) IsValid() bool {
	return k == OrderKindBuy || k == OrderKindSell
}

// OrderStatus is the lifecycle status of an order as published by Mostro.
type OrderStatus string

const (
	OrderStatusPending             OrderStatus = "pending"
	OrderStatusActive              OrderStatus = "active"
	OrderStatusWaitingBuyerInvoice OrderStatus = "waiting-buyer-invoice"
	OrderStatusWaitingPayment      OrderStatus = "waiting-payment"
	OrderStatusFiatSent            OrderStatus = "fiat-sent"
	OrderStatusDispute             OrderStatus = "dispute"
	OrderStatusSettledHoldInvoice  OrderStatus = "settled-hold-invoice"
	OrderStatusSuccess             OrderStatus = "success"
	OrderStatusExpired             OrderStatus = "expired"
	OrderStatusCanceled            OrderStatus = "canceled"
	OrderStatusCanceledByAdmin     OrderStatus = "canceled-by-admin"
	OrderStatusSettledByAdmin      OrderStatus = "settled-by-admin"
	OrderStatusCompletedByAdmin    OrderStatus = "completed-by-admin"
)

var orderStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:             {},
	OrderStatusActive:              {},
	OrderStatusWaitingBuyerInvoice: {},
	OrderStatusWaitingPayment:      {},
	OrderStatusFiatSent:            {},
	OrderStatusDispute:             {},
	OrderStatusSettledHoldInvoice:  {},
	OrderStatusSuccess:             {},
	OrderStatusExpired:             {},
	OrderStatusCanceled:            {},
	OrderStatusCanceledByAdmin:     {},
	OrderStatusSettledByAdmin:      {},
	OrderStatusCompletedByAdmin:    {},
}

// IsValid ...
func (s OrderStatus) IsValid() bool {
	_, ok := orderStatuses[s]
	return ok
}

// Order is a P2P buy or sell order. Amounts are in satoshis, fiat amounts in
// units of FiatCode. An order is in range mode when both MinAmount and
// MaxAmount are set, and in market price mode when Amount is 0 and it is not
// a range order.
type Order struct {
	ID                 string      `json:"id,omitempty"`
	Kind               OrderKind   `json:"kind"`
	Status             OrderStatus `json:"status"`
	Amount             int64       `json:"amount"`
	FiatCode           string      `json:"fiat_code"`
	MinAmount          *int64      `json:"min_amount,omitempty"`
	MaxAmount          *int64      `json:"max_amount,omitempty"`
	FiatAmount         int64       `json:"fiat_amount"`
	PaymentMethod      string      `json:"payment_method"`
	Premium            int64       `json:"premium"`
	BuyerInvoice       string      `json:"buyer_invoice,omitempty"`
	BuyerPubkey        string      `json:"buyer_trade_pubkey,omitempty"`
	SellerPubkey       string      `json:"seller_trade_pubkey,omitempty"`
	MasterBuyerPubkey  string      `json:"master_buyer_pubkey,omitempty"`
	MasterSellerPubkey string      `json:"master_seller_pubkey,omitempty"`
	TradeIndex         *uint32     `json:"trade_index,omitempty"`
	CreatedAt          int64       `json:"created_at,omitempty"`
	ExpiresAt          int64       `json:"expires_at,omitempty"`
}

// IsRangeOrder ...
func (o *Order) IsRangeOrder() bool {
	return o.MinAmount != nil && o.MaxAmount != nil
}

// IsMarketPriceOrder reports whether the amount in sats is left to the
// market price at take time.
func (o *Order) IsMarketPriceOrder() bool {
	return o.Amount == 0 && !o.IsRangeOrder()
}

// IsExpired ...
func (o *Order) IsExpired(now time.Time) bool {
	return o.ExpiresAt > 0 && now.Unix() >= o.ExpiresAt
}

// IsPending ...
func (o *Order) IsPending() bool {
	return o.Status == OrderStatusPending
}

// PrepareNewOrder fills id, status and timestamps of an order about to be
// submitted. Fields already set by the caller are kept.
func PrepareNewOrder(order *Order, now time.Time) (*Order, error) {
	if order == nil {
		return nil, ErrNullOrder
	}

	o := *order
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	o.Status = OrderStatusPending
	if o.CreatedAt == 0 {
		o.CreatedAt = now.Unix()
	}
	if o.ExpiresAt == 0 {
		o.ExpiresAt = o.CreatedAt + int64(OrderTTL/time.Second)
	}
	return &o, nil
}

// Int64 returns a pointer to v, handy for optional amounts.
func Int64(v int64) *int64 {
	return &v
}
