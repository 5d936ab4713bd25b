package domain

import "time"

const (
	// ProtocolVersion is the version carried by every outbound message.
	ProtocolVersion = 1

	// OrderTTL is how long a published order stays valid.
	OrderTTL = 24 * time.Hour

	// ListingTypeOrder and ListingTypeInfo are the values of the "z" tag
	// telling order listings apart from daemon info listings.
	ListingTypeOrder = "order"
	ListingTypeInfo  = "info"

	// Values of the fixed listing tags.
	Network  = "mainnet"
	Layer    = "lightning"
	Platform = "mostrop2p"
)

// Order tag vocabulary.
const (
	TagID            = "d"
	TagKind          = "k"
	TagFiatCode      = "f"
	TagStatus        = "s"
	TagAmount        = "amt"
	TagFiatAmount    = "fa"
	TagPaymentMethod = "pm"
	TagPremium       = "premium"
	TagNetwork       = "network"
	TagLayer         = "layer"
	TagExpiration    = "expiration"
	TagPlatform      = "y"
	TagListingType   = "z"
)

// Info tag vocabulary.
const (
	TagMostroPubkey                = "mostro_pubkey"
	TagMostroVersion               = "mostro_version"
	TagMostroCommitID              = "mostro_commit_id"
	TagMaxOrderAmount              = "max_order_amount"
	TagMinOrderAmount              = "min_order_amount"
	TagExpirationHours             = "expiration_hours"
	TagExpirationSeconds           = "expiration_seconds"
	TagFee                         = "fee"
	TagHoldInvoiceExpirationWindow = "hold_invoice_expiration_window"
	TagInvoiceExpirationWindow     = "invoice_expiration_window"

	DefaultExpirationHours             = 24
	DefaultExpirationSeconds           = 900
	DefaultHoldInvoiceExpirationWindow = 120
	DefaultInvoiceExpirationWindow     = 120
)
