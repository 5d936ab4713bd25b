package domain

// Action is the verb of a Mostro message.
type Action string

const (
	ActionNewOrder                         Action = "new-order"
	ActionTakeSell                         Action = "take-sell"
	ActionTakeBuy                          Action = "take-buy"
	ActionPayInvoice                       Action = "pay-invoice"
	ActionAddInvoice                       Action = "add-invoice"
	ActionFiatSent                         Action = "fiat-sent"
	ActionFiatSentOk                       Action = "fiat-sent-ok"
	ActionRelease                          Action = "release"
	ActionReleased                         Action = "released"
	ActionCancel                           Action = "cancel"
	ActionCanceled                         Action = "canceled"
	ActionCooperativeCancelInitiatedByYou  Action = "cooperative-cancel-initiated-by-you"
	ActionCooperativeCancelInitiatedByPeer Action = "cooperative-cancel-initiated-by-peer"
	ActionCooperativeCancelAccepted        Action = "cooperative-cancel-accepted"
	ActionDisputeInitiatedByYou            Action = "dispute-initiated-by-you"
	ActionDisputeInitiatedByPeer           Action = "dispute-initiated-by-peer"
	ActionBuyerInvoiceAccepted             Action = "buyer-invoice-accepted"
	ActionBuyerTookOrder                   Action = "buyer-took-order"
	ActionPurchaseCompleted                Action = "purchase-completed"
	ActionHoldInvoicePaymentAccepted       Action = "hold-invoice-payment-accepted"
	ActionHoldInvoicePaymentSettled        Action = "hold-invoice-payment-settled"
	ActionHoldInvoicePaymentCanceled       Action = "hold-invoice-payment-canceled"
	ActionWaitingSellerToPay               Action = "waiting-seller-to-pay"
	ActionWaitingBuyerInvoice              Action = "waiting-buyer-invoice"
	ActionInvoiceUpdated                   Action = "invoice-updated"
	ActionPaymentFailed                    Action = "payment-failed"
	ActionRate                             Action = "rate"
	ActionRateUser                         Action = "rate-user"
	ActionRateReceived                     Action = "rate-received"
	ActionDispute                          Action = "dispute"
	ActionCantDo                           Action = "cant-do"
	ActionSendDM                           Action = "send-dm"
	ActionTradePubkey                      Action = "trade-pubkey"
	ActionAdminCancel                      Action = "admin-cancel"
	ActionAdminCanceled                    Action = "admin-canceled"
	ActionAdminSettle                      Action = "admin-settle"
	ActionAdminSettled                     Action = "admin-settled"
	ActionAdminAddSolver                   Action = "admin-add-solver"
	ActionAdminTakeDispute                 Action = "admin-take-dispute"
	ActionAdminTookDispute                 Action = "admin-took-dispute"
)
