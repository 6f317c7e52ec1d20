// Package paypal adapts the redirect provider to the donation flow:
// initiate a sale or billing agreement, hand the payer off via a
// single-use token, and after the return fetch checkout details and
// complete the payment. No state is kept between initiate and return;
// the token and the return URL's path segments carry all flow context.
package paypal

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/unghost/donate.mozilla.org/internal/models"
	"github.com/unghost/donate.mozilla.org/internal/paypalclient"
	"github.com/unghost/donate.mozilla.org/internal/telemetry"
)

const defaultLocale = "en-US"

// API is the slice of the redirect provider client this adapter uses.
type API interface {
	SetExpressCheckout(ctx context.Context, p paypalclient.SetCheckoutParams) (string, error)
	GetExpressCheckoutDetails(ctx context.Context, token string) (*paypalclient.CheckoutDetails, error)
	DoExpressCheckoutPayment(ctx context.Context, d *paypalclient.CheckoutDetails) (*paypalclient.SaleResult, error)
	CreateRecurringPaymentsProfile(ctx context.Context, d *paypalclient.CheckoutDetails) (*paypalclient.AgreementResult, error)
}

type Adapter struct {
	api         API
	publicURL   string
	checkoutURL string
}

// New builds the adapter. publicURL is this service's external base URL
// used for return/cancel URLs; checkoutURL is the provider page the
// caller redirects the payer to with the session token.
func New(api API, publicURL, checkoutURL string) *Adapter {
	return &Adapter{
		api:         api,
		publicURL:   strings.TrimSuffix(publicURL, "/"),
		checkoutURL: checkoutURL,
	}
}

func (a *Adapter) SetupSingle(ctx context.Context, amount string, tx *models.DonationRequest) (*models.CheckoutSession, models.RemoteCallOutcome) {
	return a.setup(ctx, amount, tx, false)
}

func (a *Adapter) SetupRecurring(ctx context.Context, amount string, tx *models.DonationRequest) (*models.CheckoutSession, models.RemoteCallOutcome) {
	return a.setup(ctx, amount, tx, true)
}

func (a *Adapter) setup(ctx context.Context, amount string, tx *models.DonationRequest, recurring bool) (*models.CheckoutSession, models.RemoteCallOutcome) {
	locale := tx.Locale
	if locale == "" {
		locale = defaultLocale
	}
	frequency := "single"
	if recurring {
		frequency = "monthly"
	}

	// The return URL embeds frequency and locale so the return phase
	// recovers flow context from the path alone.
	returnURL := fmt.Sprintf("%s/api/paypal-redirect/%s/%s", a.publicURL, frequency, locale)

	start := time.Now()
	token, err := a.api.SetExpressCheckout(ctx, paypalclient.SetCheckoutParams{
		Amount:    amount,
		Currency:  strings.ToUpper(tx.Currency),
		Locale:    locale,
		ItemName:  tx.Description,
		ReturnURL: returnURL,
		CancelURL: a.publicURL + "/",
		Recurring: recurring,
	})
	out := outcome(start, err)
	telemetry.ObserveRemoteCall("paypal", "sale-setup", out.Succeeded, out.Duration)
	if err != nil {
		return nil, out
	}
	return &models.CheckoutSession{Endpoint: a.checkoutURL, Token: token}, out
}

func (a *Adapter) SingleCheckoutDetails(ctx context.Context, token string) (*paypalclient.CheckoutDetails, models.RemoteCallOutcome) {
	return a.checkoutDetails(ctx, token)
}

func (a *Adapter) RecurringCheckoutDetails(ctx context.Context, token string) (*paypalclient.CheckoutDetails, models.RemoteCallOutcome) {
	return a.checkoutDetails(ctx, token)
}

func (a *Adapter) checkoutDetails(ctx context.Context, token string) (*paypalclient.CheckoutDetails, models.RemoteCallOutcome) {
	start := time.Now()
	details, err := a.api.GetExpressCheckoutDetails(ctx, token)
	out := outcome(start, err)
	telemetry.ObserveRemoteCall("paypal", "checkout-details", out.Succeeded, out.Duration)
	if err != nil {
		return nil, out
	}
	return details, out
}

func (a *Adapter) CompleteSingle(ctx context.Context, details *paypalclient.CheckoutDetails) (*paypalclient.SaleResult, models.RemoteCallOutcome) {
	start := time.Now()
	sale, err := a.api.DoExpressCheckoutPayment(ctx, details)
	out := outcome(start, err)
	telemetry.ObserveRemoteCall("paypal", "checkout-payment", out.Succeeded, out.Duration)
	if err != nil {
		return nil, out
	}
	return sale, out
}

func (a *Adapter) CompleteRecurring(ctx context.Context, details *paypalclient.CheckoutDetails) (*paypalclient.SaleResult, models.RemoteCallOutcome) {
	start := time.Now()
	_, err := a.api.CreateRecurringPaymentsProfile(ctx, details)
	out := outcome(start, err)
	telemetry.ObserveRemoteCall("paypal", "checkout-payment", out.Succeeded, out.Duration)
	if err != nil {
		return nil, out
	}

	// The profile call returns no stable transaction id, so one is
	// synthesized from the payer id plus a coarse timestamp. This is
	// not an idempotency key: the same payer resubmitting within the
	// same time bucket produces the same id.
	stamp := time.Now().UnixMilli() / 100
	return &paypalclient.SaleResult{
		TransactionID: details.PayerID + strconv.FormatInt(stamp, 10),
		Amount:        details.Amount,
		Currency:      details.Currency,
	}, out
}

func outcome(start time.Time, err error) models.RemoteCallOutcome {
	return models.RemoteCallOutcome{
		Succeeded: err == nil,
		Duration:  time.Since(start),
		Err:       err,
	}
}
