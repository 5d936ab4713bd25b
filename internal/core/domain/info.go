package domain

import (
	"github.com/mostrop2p/mostro-go/pkg/nostr"
	"github.com/shopspring/decimal"
)

// Info describes the Mostro daemon the client talks to, as published in its
// info listing.
type Info struct {
	MostroPubkey                string
	MostroVersion               string
	MostroCommitID              string
	MaxOrderAmount              int64
	MinOrderAmount              int64
	ExpirationHours             int64
	ExpirationSeconds           int64
	Fee                         decimal.Decimal
	HoldInvoiceExpirationWindow int64
	InvoiceExpirationWindow     int64
}

// DecodeInfoTags never fails: absent tags get their defaults, numbers that
// do not parse are read as 0.
func DecodeInfoTags(tags nostr.Tags) *Info {
	info := &Info{
		ExpirationHours:             DefaultExpirationHours,
		ExpirationSeconds:           DefaultExpirationSeconds,
		Fee:                         decimal.Zero,
		HoldInvoiceExpirationWindow: DefaultHoldInvoiceExpirationWindow,
		InvoiceExpirationWindow:     DefaultInvoiceExpirationWindow,
	}

	for _, tag := range tags {
		if len(tag) != 2 {
			continue
		}
		value := tag[1]
		switch tag[0] {
		case TagMostroPubkey:
			info.MostroPubkey = value
		case TagMostroVersion:
			info.MostroVersion = value
		case TagMostroCommitID:
			info.MostroCommitID = value
		case TagMaxOrderAmount:
			info.MaxOrderAmount = parseInt(value)
		case TagMinOrderAmount:
			info.MinOrderAmount = parseInt(value)
		case TagExpirationHours:
			info.ExpirationHours = parseInt(value)
		case TagExpirationSeconds:
			info.ExpirationSeconds = parseInt(value)
		case TagFee:
			fee, err := decimal.NewFromString(value)
			if err != nil {
				fee = decimal.Zero
			}
			info.Fee = fee
		case TagHoldInvoiceExpirationWindow:
			info.HoldInvoiceExpirationWindow = parseInt(value)
		case TagInvoiceExpirationWindow:
			info.InvoiceExpirationWindow = parseInt(value)
		}
	}
	return info
}

// ListingType returns the value of the "z" tag of a kind 38383 listing.
func ListingType(tags nostr.Tags) string {
	return tags.Value(TagListingType)
}
