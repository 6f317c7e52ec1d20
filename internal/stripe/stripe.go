// Package stripe adapts the card provider to the donation flow. Every
// remote call yields a RemoteCallOutcome with its duration, success or
// failure, before the orchestration proceeds.
package stripe

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/unghost/donate.mozilla.org/internal/interfaces"
	"github.com/unghost/donate.mozilla.org/internal/models"
	"github.com/unghost/donate.mozilla.org/internal/stripeclient"
	"github.com/unghost/donate.mozilla.org/internal/telemetry"
)

// API is the slice of the card provider client this adapter uses.
type API interface {
	CreateCustomer(ctx context.Context, email, source string, metadata map[string]string) (*stripeclient.Customer, error)
	CreateCharge(ctx context.Context, p stripeclient.ChargeParams) (*stripeclient.Charge, error)
	CreateSubscription(ctx context.Context, customerID string, p stripeclient.SubscriptionParams) (*stripeclient.Subscription, error)
}

type Adapter struct {
	api    API
	signup interfaces.SignupPublisher
}

func New(api API, signup interfaces.SignupPublisher) *Adapter {
	return &Adapter{api: api, signup: signup}
}

func (a *Adapter) Customer(ctx context.Context, tx *models.DonationRequest) (*stripeclient.Customer, models.RemoteCallOutcome) {
	start := time.Now()
	customer, err := a.api.CreateCustomer(ctx, tx.Email, tx.StripeToken, metadataFor(tx))
	out := outcome(start, err)
	telemetry.ObserveRemoteCall("stripe", "customer-create", out.Succeeded, out.Duration)
	if err != nil {
		return nil, out
	}
	return customer, out
}

func (a *Adapter) Single(ctx context.Context, customer *stripeclient.Customer, amount int64, tx *models.DonationRequest) (*stripeclient.Charge, models.RemoteCallOutcome) {
	start := time.Now()
	charge, err := a.api.CreateCharge(ctx, stripeclient.ChargeParams{
		Amount:      amount,
		Currency:    strings.ToLower(tx.Currency),
		CustomerID:  customer.ID,
		Description: tx.Description,
		Metadata:    metadataFor(tx),
	})
	out := outcome(start, err)
	telemetry.ObserveRemoteCall("stripe", "charge-create", out.Succeeded, out.Duration)
	if err != nil {
		return nil, out
	}
	a.maybeSignup(tx)
	return charge, out
}

func (a *Adapter) Recurring(ctx context.Context, customer *stripeclient.Customer, amount int64, tx *models.DonationRequest) (*stripeclient.Subscription, models.RemoteCallOutcome) {
	start := time.Now()
	// The provider has no arbitrary-amount subscription primitive: each
	// currency has a plan priced at one smallest-unit, and the donation
	// amount rides along as the quantity.
	sub, err := a.api.CreateSubscription(ctx, customer.ID, stripeclient.SubscriptionParams{
		Plan:     strings.ToLower(tx.Currency),
		Quantity: amount,
		Metadata: metadataFor(tx),
	})
	out := outcome(start, err)
	telemetry.ObserveRemoteCall("stripe", "subscription-create", out.Succeeded, out.Duration)
	if err != nil {
		return nil, out
	}
	a.maybeSignup(tx)
	return sub, out
}

// maybeSignup fires the mailing-list signup without awaiting it. Its
// failure never reaches the payment result.
func (a *Adapter) maybeSignup(tx *models.DonationRequest) {
	if !tx.Signup || a.signup == nil {
		return
	}
	msg := models.SignupMessage{
		Email:   tx.Email,
		Locale:  tx.Locale,
		Country: tx.Country,
	}
	go func() {
		if err := a.signup.Publish(context.Background(), msg); err != nil {
			telemetry.Logger.Warn("Mailing list signup failed",
				zap.String("provider", "stripe"),
				zap.Error(err),
			)
		}
	}()
}

func metadataFor(tx *models.DonationRequest) map[string]string {
	return map[string]string{
		"email":  tx.Email,
		"locale": tx.Locale,
	}
}

func outcome(start time.Time, err error) models.RemoteCallOutcome {
	return models.RemoteCallOutcome{
		Succeeded: err == nil,
		Duration:  time.Since(start),
		Err:       err,
	}
}
