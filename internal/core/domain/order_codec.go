package domain

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mostrop2p/mostro-go/pkg/nostr"
)

// EncodeOrderTags returns the tags of the order listing published at the
// given time.
func EncodeOrderTags(order *Order, publishedAt time.Time) (nostr.Tags, error) {
	if order == nil {
		return nil, ErrNullOrder
	}

	fiatAmount := nostr.Tag{TagFiatAmount, formatInt(order.FiatAmount)}
	if order.IsRangeOrder() {
		fiatAmount = nostr.Tag{
			TagFiatAmount, formatInt(*order.MinAmount), formatInt(*order.MaxAmount),
		}
	}
	expiration := publishedAt.Add(OrderTTL).Unix()

	return nostr.Tags{
		{TagID, order.ID},
		{TagKind, string(order.Kind)},
		{TagFiatCode, order.FiatCode},
		{TagStatus, string(order.Status)},
		{TagAmount, formatInt(order.Amount)},
		fiatAmount,
		{TagPaymentMethod, order.PaymentMethod},
		{TagPremium, formatInt(order.Premium)},
		{TagNetwork, Network},
		{TagLayer, Layer},
		{TagExpiration, formatInt(expiration)},
		{TagPlatform, Platform},
		{TagListingType, ListingTypeOrder},
	}, nil
}

// DecodeOrderTags rebuilds an order from the tags of a listing. Rows with an
// unexpected number of values are ignored, numbers that do not parse are
// read as 0. A missing id, an unknown kind or status, and a range order with
// min >= max or a non zero amount are reported as *DecodeError.
func DecodeOrderTags(tags nostr.Tags, createdAt nostr.Timestamp) (*Order, error) {
	order := &Order{CreatedAt: int64(createdAt)}

	var hasID bool
	for _, tag := range tags {
		if len(tag) < 2 {
			continue
		}
		key := tag[0]
		if key == TagFiatAmount {
			decodeFiatAmount(order, tag[1:])
			continue
		}
		if len(tag) != 2 {
			continue
		}

		value := tag[1]
		switch key {
		case TagID:
			order.ID = value
			hasID = value != ""
		case TagKind:
			order.Kind = OrderKind(value)
		case TagFiatCode:
			order.FiatCode = value
		case TagStatus:
			order.Status = OrderStatus(value)
		case TagAmount:
			order.Amount = parseInt(value)
		case TagPaymentMethod:
			order.PaymentMethod = value
		case TagPremium:
			order.Premium = parseInt(value)
		case TagExpiration:
			order.ExpiresAt = parseInt(value)
		}
	}

	if !hasID {
		return nil, newDecodeError(TagID, "missing order id")
	}
	if order.Kind != "" && !order.Kind.IsValid() {
		return nil, newDecodeError(TagKind, "unknown order kind %q", order.Kind)
	}
	if order.Status != "" && !order.Status.IsValid() {
		return nil, newDecodeError(TagStatus, "unknown order status %q", order.Status)
	}
	if order.IsRangeOrder() {
		if *order.MinAmount >= *order.MaxAmount {
			return nil, newDecodeError(
				TagFiatAmount, "min %d must be lower than max %d",
				*order.MinAmount, *order.MaxAmount,
			)
		}
		if order.Amount != 0 {
			return nil, newDecodeError(TagAmount, "range order with non zero amount")
		}
	}
	if order.ExpiresAt == 0 && order.CreatedAt > 0 {
		order.ExpiresAt = order.CreatedAt + int64(OrderTTL/time.Second)
	}
	return order, nil
}

// decodeFiatAmount handles both "fa" forms: one value for a fixed amount, two
// values (or a legacy single "min,max" value) for a range.
func decodeFiatAmount(order *Order, values []string) {
	if len(values) == 1 && strings.Contains(values[0], ",") {
		values = strings.SplitN(values[0], ",", 2)
	}

	switch len(values) {
	case 1:
		order.FiatAmount = parseInt(values[0])
		order.MinAmount, order.MaxAmount = nil, nil
	case 2:
		order.FiatAmount = 0
		order.MinAmount = Int64(parseInt(values[0]))
		order.MaxAmount = Int64(parseInt(values[1]))
	}
}

func parseInt(s string) int64 {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil &&
		math.Abs(f) < math.MaxInt64 {
		return int64(f)
	}
	return 0
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}
