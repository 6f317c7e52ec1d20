package models

import "time"

// DonationRequest is the inbound payload shared by the card and the
// redirect-provider endpoints. It is immutable once bound; the only
// derived value anywhere in the flow is the normalized amount.
type DonationRequest struct {
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Currency    string  `json:"currency" binding:"required,len=3"`
	Email       string  `json:"email" binding:"omitempty,email"`
	Locale      string  `json:"locale"`
	Frequency   string  `json:"frequency"`
	Description string  `json:"description"`
	StripeToken string  `json:"stripeToken"`
	Signup      bool    `json:"signup"`
	Country     string  `json:"country"`
}

// Monthly reports whether the request selects the recurring sub-flow.
// Anything other than "monthly" is treated as one-time.
func (r *DonationRequest) Monthly() bool {
	return r.Frequency == "monthly"
}

// PaymentResult is the sole success contract returned to the caller.
// Its shape is identical for both providers; amount (one-time) vs
// quantity (recurring) is the only branch-specific field.
type PaymentResult struct {
	Frequency string `json:"frequency"`
	Amount    int64  `json:"amount,omitempty"`
	Quantity  int64  `json:"quantity,omitempty"`
	Currency  string `json:"currency"`
	ID        string `json:"id"`
	Signup    bool   `json:"signup"`
	Country   string `json:"country,omitempty"`
	Email     string `json:"email,omitempty"`
}

// CheckoutSession is the redirect provider's handle between sale
// initiation and the user's return. The token is single-use; a second
// return with the same token fails at the provider, not locally.
type CheckoutSession struct {
	Endpoint string `json:"endpoint"`
	Token    string `json:"token"`
}

// RemoteCallOutcome is the uniform envelope every remote call yields,
// success or failure, before the flow proceeds. Duration is recorded in
// every case.
type RemoteCallOutcome struct {
	Succeeded bool
	Duration  time.Duration
	Err       error
}

type SignupMessage struct {
	Email   string `json:"email" binding:"required,email"`
	Locale  string `json:"locale"`
	Country string `json:"country"`
	Source  string `json:"source_url"`
}
