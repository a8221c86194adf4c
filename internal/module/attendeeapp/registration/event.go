package registration

// PaymentNotificationEvent is the payment gateway's callback payload. The
// gateway integration verifies its signature before it reaches the engine.
type PaymentNotificationEvent struct {
	RegistrationID    string `json:"registration_id"`
	TransactionStatus string `json:"transaction_status"`
	PaymentReference  string `json:"payment_reference"`
}

// ExpireRegistrationEvent is the deferred callback that releases a hold
// whose payment window ran out.
type ExpireRegistrationEvent struct {
	ID string `json:"id"`
}
