package domain_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mostrop2p/mostro-go/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func TestValidateOrder(t *testing.T) {
	t.Parallel()

	valid := []*domain.Order{
		{Kind: domain.OrderKindSell, FiatCode: "USD", FiatAmount: 50, PaymentMethod: "BANK", Premium: 2},
		{Kind: domain.OrderKindBuy, FiatCode: "USD", Amount: 100000, FiatAmount: 50, PaymentMethod: "BANK"},
		{
			Kind: domain.OrderKindBuy, FiatCode: "EUR", PaymentMethod: "SEPA",
			MinAmount: domain.Int64(10), MaxAmount: domain.Int64(100),
		},
	}
	for _, order := range valid {
		require.NoError(t, domain.ValidateOrder(order))
	}
	require.ErrorIs(t, domain.ValidateOrder(nil), domain.ErrNullOrder)
}

func TestFailingValidateOrder(t *testing.T) {
	t.Parallel()

	base := func() *domain.Order {
		return &domain.Order{
			Kind: domain.OrderKindSell, FiatCode: "USD", FiatAmount: 50,
			PaymentMethod: "BANK",
		}
	}

	tests := []struct {
		name   string
		mutate func(o *domain.Order)
		code   string
	}{
		{"invalid_kind", func(o *domain.Order) { o.Kind = "swap" }, domain.CodeInvalidOrderKind},
		{"missing_fiat_code", func(o *domain.Order) { o.FiatCode = " " }, domain.CodeInvalidFiatCode},
		{"missing_payment_method", func(o *domain.Order) { o.PaymentMethod = "" }, domain.CodeInvalidPaymentMethod},
		{"premium_too_high", func(o *domain.Order) { o.Premium = 101 }, domain.CodeInvalidPremium},
		{"negative_premium", func(o *domain.Order) { o.Premium = -1 }, domain.CodeInvalidPremium},
		{"inverted_range", func(o *domain.Order) {
			o.FiatAmount = 0
			o.MinAmount, o.MaxAmount = domain.Int64(100), domain.Int64(10)
		}, domain.CodeInvalidRange},
		{"half_range", func(o *domain.Order) { o.MinAmount = domain.Int64(10) }, domain.CodeInvalidRange},
		{"negative_range", func(o *domain.Order) {
			o.FiatAmount = 0
			o.MinAmount, o.MaxAmount = domain.Int64(-10), domain.Int64(10)
		}, domain.CodeNegativeRange},
		{"range_with_amount", func(o *domain.Order) {
			o.FiatAmount = 0
			o.Amount = 5000
			o.MinAmount, o.MaxAmount = domain.Int64(1), domain.Int64(10)
		}, domain.CodeInvalidAmountForRange},
		{"market_price_without_premium_or_fiat", func(o *domain.Order) {
			o.FiatAmount = 0
		}, domain.CodeInvalidMarketPrice},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			order := base()
			tt.mutate(order)

			err := domain.ValidateOrder(order)
			var validationErr *domain.ValidationError
			require.True(t, errors.As(err, &validationErr))
			require.Equal(t, tt.code, validationErr.Code)
			require.ErrorIs(t, err, &domain.ValidationError{Code: tt.code})
		})
	}
}

func TestIsValidPubKey(t *testing.T) {
	t.Parallel()

	require.True(t, domain.IsValidPubKey(strings.Repeat("ab", 32)))
	require.True(t, domain.IsValidPubKey(strings.Repeat("AB", 32)))
	require.False(t, domain.IsValidPubKey(strings.Repeat("ab", 31)))
	require.False(t, domain.IsValidPubKey(strings.Repeat("zz", 32)))
	require.False(t, domain.IsValidPubKey("npub1xyz"))
}

func TestPrepareNewOrder(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0)
	order := &domain.Order{Kind: domain.OrderKindSell, Status: domain.OrderStatusSuccess}

	prepared, err := domain.PrepareNewOrder(order, now)
	require.NoError(t, err)
	require.NotEmpty(t, prepared.ID)
	require.Equal(t, domain.OrderStatusPending, prepared.Status)
	require.Equal(t, now.Unix(), prepared.CreatedAt)
	require.Equal(t, now.Add(domain.OrderTTL).Unix(), prepared.ExpiresAt)
	require.Empty(t, order.ID)

	other, err := domain.PrepareNewOrder(order, now)
	require.NoError(t, err)
	require.NotEqual(t, prepared.ID, other.ID)

	_, err = domain.PrepareNewOrder(nil, now)
	require.ErrorIs(t, err, domain.ErrNullOrder)
}
