package domain

import (
	"regexp"
	"strings"
)

var pubkeyRegexp = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// IsValidPubKey reports whether s is a hex encoded 32 byte public key.
func IsValidPubKey(s string) bool {
	return pubkeyRegexp.MatchString(s)
}

// ValidateOrder checks the fields of an order about to be submitted.
func ValidateOrder(order *Order) error {
	if order == nil {
		return ErrNullOrder
	}
	if !order.Kind.IsValid() {
		return &ValidationError{
			CodeInvalidOrderKind, "order kind must be either buy or sell",
		}
	}
	if strings.TrimSpace(order.FiatCode) == "" {
		return &ValidationError{
			CodeInvalidFiatCode, "order must have a valid fiat code",
		}
	}
	if strings.TrimSpace(order.PaymentMethod) == "" {
		return &ValidationError{
			CodeInvalidPaymentMethod, "order must have a valid payment method",
		}
	}
	if order.Premium < 0 || order.Premium > 100 {
		return &ValidationError{
			CodeInvalidPremium, "order premium must be between 0 and 100",
		}
	}
	if err := validateAmountConstraints(order); err != nil {
		return err
	}
	return validateMarketPriceOrder(order)
}

func validateAmountConstraints(order *Order) error {
	if !order.IsRangeOrder() {
		if order.MinAmount != nil || order.MaxAmount != nil {
			return &ValidationError{
				CodeInvalidRange, "range orders must set both min and max amount",
			}
		}
		return nil
	}

	min, max := *order.MinAmount, *order.MaxAmount
	if min >= max {
		return &ValidationError{
			CodeInvalidRange, "minimum amount must be less than maximum amount",
		}
	}
	if min < 0 || max < 0 {
		return &ValidationError{
			CodeNegativeRange, "range amounts cannot be negative",
		}
	}
	if order.Amount != 0 || order.FiatAmount != 0 {
		return &ValidationError{
			CodeInvalidAmountForRange,
			"range orders must have amount and fiat amount set to 0",
		}
	}
	return nil
}

func validateMarketPriceOrder(order *Order) error {
	if !order.IsMarketPriceOrder() {
		return nil
	}
	if order.Premium == 0 && order.FiatAmount == 0 {
		return &ValidationError{
			CodeInvalidMarketPrice,
			"market price orders must specify either premium or fiat amount",
		}
	}
	return nil
}
