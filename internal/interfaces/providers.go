package interfaces

import (
	"context"

	"github.com/unghost/donate.mozilla.org/internal/models"
	"github.com/unghost/donate.mozilla.org/internal/paypalclient"
	"github.com/unghost/donate.mozilla.org/internal/stripeclient"
)

// CardProvider defines the contract for the card gateway adapter:
// customer creation first, then exactly one of charge or subscription.
type CardProvider interface {
	Customer(ctx context.Context, tx *models.DonationRequest) (*stripeclient.Customer, models.RemoteCallOutcome)
	Single(ctx context.Context, customer *stripeclient.Customer, amount int64, tx *models.DonationRequest) (*stripeclient.Charge, models.RemoteCallOutcome)
	Recurring(ctx context.Context, customer *stripeclient.Customer, amount int64, tx *models.DonationRequest) (*stripeclient.Subscription, models.RemoteCallOutcome)
}

// CheckoutProvider defines the contract for the redirect gateway
// adapter: initiate, then after the payer returns, fetch details and
// complete.
type CheckoutProvider interface {
	SetupSingle(ctx context.Context, amount string, tx *models.DonationRequest) (*models.CheckoutSession, models.RemoteCallOutcome)
	SetupRecurring(ctx context.Context, amount string, tx *models.DonationRequest) (*models.CheckoutSession, models.RemoteCallOutcome)
	SingleCheckoutDetails(ctx context.Context, token string) (*paypalclient.CheckoutDetails, models.RemoteCallOutcome)
	RecurringCheckoutDetails(ctx context.Context, token string) (*paypalclient.CheckoutDetails, models.RemoteCallOutcome)
	CompleteSingle(ctx context.Context, details *paypalclient.CheckoutDetails) (*paypalclient.SaleResult, models.RemoteCallOutcome)
	CompleteRecurring(ctx context.Context, details *paypalclient.CheckoutDetails) (*paypalclient.SaleResult, models.RemoteCallOutcome)
}

// SignupPublisher delivers mailing-list signups. Payment flows treat it
// as best-effort; only the standalone signup endpoint surfaces its errors.
type SignupPublisher interface {
	Publish(ctx context.Context, msg models.SignupMessage) error
}
