package stripe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/unghost/donate.mozilla.org/internal/models"
	"github.com/unghost/donate.mozilla.org/internal/stripeclient"
)

type fakeAPI struct {
	customerErr error
	chargeErr   error
	subErr      error

	chargeCalls int
	subCalls    int

	lastChargeParams stripeclient.ChargeParams
	lastSubCustomer  string
	lastSubParams    stripeclient.SubscriptionParams
}

func (f *fakeAPI) CreateCustomer(ctx context.Context, email, source string, metadata map[string]string) (*stripeclient.Customer, error) {
	if f.customerErr != nil {
		return nil, f.customerErr
	}
	return &stripeclient.Customer{ID: "cus_1", Email: email}, nil
}

func (f *fakeAPI) CreateCharge(ctx context.Context, p stripeclient.ChargeParams) (*stripeclient.Charge, error) {
	f.chargeCalls++
	f.lastChargeParams = p
	if f.chargeErr != nil {
		return nil, f.chargeErr
	}
	return &stripeclient.Charge{ID: "ch_x", Amount: p.Amount, Currency: p.Currency}, nil
}

func (f *fakeAPI) CreateSubscription(ctx context.Context, customerID string, p stripeclient.SubscriptionParams) (*stripeclient.Subscription, error) {
	f.subCalls++
	f.lastSubCustomer = customerID
	f.lastSubParams = p
	if f.subErr != nil {
		return nil, f.subErr
	}
	return &stripeclient.Subscription{ID: "sub_x", Quantity: p.Quantity, Plan: stripeclient.Plan{ID: p.Plan, Currency: p.Plan}}, nil
}

type fakeSignup struct {
	ch  chan models.SignupMessage
	err error
}

func (f *fakeSignup) Publish(ctx context.Context, msg models.SignupMessage) error {
	f.ch <- msg
	return f.err
}

func TestCustomerFailureCarriesOutcome(t *testing.T) {
	apiErr := &stripeclient.APIError{Code: "email_invalid", Type: "invalid_request_error"}
	a := New(&fakeAPI{customerErr: apiErr}, nil)

	customer, out := a.Customer(context.Background(), &models.DonationRequest{Email: "a@b.com", StripeToken: "tok"})
	if customer != nil {
		t.Errorf("expected nil customer, got %+v", customer)
	}
	if out.Succeeded {
		t.Error("outcome should not be marked succeeded")
	}
	if !errors.Is(out.Err, apiErr) {
		t.Errorf("outcome error = %v, want the provider error", out.Err)
	}
}

func TestSingleChargeParams(t *testing.T) {
	api := &fakeAPI{}
	a := New(api, nil)
	tx := &models.DonationRequest{Currency: "USD", Email: "a@b.com", Locale: "en-US", Description: "Donation"}

	charge, out := a.Single(context.Background(), &stripeclient.Customer{ID: "cus_1"}, 2500, tx)
	if !out.Succeeded {
		t.Fatalf("Single failed: %v", out.Err)
	}
	if charge.Amount != 2500 || charge.Currency != "usd" {
		t.Errorf("charge = %+v, want amount 2500 currency usd", charge)
	}
	if api.lastChargeParams.CustomerID != "cus_1" {
		t.Errorf("charge customer = %q, want cus_1", api.lastChargeParams.CustomerID)
	}
	if api.lastChargeParams.Metadata["locale"] != "en-US" {
		t.Errorf("charge metadata = %v", api.lastChargeParams.Metadata)
	}
}

func TestRecurringUsesCurrencyPlanAndQuantity(t *testing.T) {
	api := &fakeAPI{}
	a := New(api, nil)
	tx := &models.DonationRequest{Currency: "USD", Email: "a@b.com"}

	sub, out := a.Recurring(context.Background(), &stripeclient.Customer{ID: "cus_9"}, 2500, tx)
	if !out.Succeeded {
		t.Fatalf("Recurring failed: %v", out.Err)
	}
	if api.lastSubCustomer != "cus_9" {
		t.Errorf("subscription customer = %q, want cus_9", api.lastSubCustomer)
	}
	if api.lastSubParams.Plan != "usd" {
		t.Errorf("plan = %q, want usd (plan keyed by currency)", api.lastSubParams.Plan)
	}
	if sub.Quantity != 2500 {
		t.Errorf("quantity = %d, want 2500", sub.Quantity)
	}
}

func TestSignupFiredOnSuccess(t *testing.T) {
	pub := &fakeSignup{ch: make(chan models.SignupMessage, 1)}
	a := New(&fakeAPI{}, pub)
	tx := &models.DonationRequest{Currency: "USD", Email: "a@b.com", Locale: "en-US", Country: "US", Signup: true}

	if _, out := a.Single(context.Background(), &stripeclient.Customer{ID: "cus_1"}, 2500, tx); !out.Succeeded {
		t.Fatalf("Single failed: %v", out.Err)
	}

	select {
	case msg := <-pub.ch:
		if msg.Email != "a@b.com" || msg.Country != "US" {
			t.Errorf("unexpected signup message: %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("signup was not fired")
	}
}

func TestSignupNotFiredOnFailureOrOptOut(t *testing.T) {
	pub := &fakeSignup{ch: make(chan models.SignupMessage, 1)}

	t.Run("charge failed", func(t *testing.T) {
		a := New(&fakeAPI{chargeErr: errors.New("declined")}, pub)
		tx := &models.DonationRequest{Currency: "USD", Signup: true}
		a.Single(context.Background(), &stripeclient.Customer{ID: "cus_1"}, 100, tx)
	})

	t.Run("signup flag unset", func(t *testing.T) {
		a := New(&fakeAPI{}, pub)
		tx := &models.DonationRequest{Currency: "USD"}
		a.Single(context.Background(), &stripeclient.Customer{ID: "cus_1"}, 100, tx)
	})

	select {
	case msg := <-pub.ch:
		t.Fatalf("unexpected signup message: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSignupFailureDoesNotAffectResult(t *testing.T) {
	pub := &fakeSignup{ch: make(chan models.SignupMessage, 1), err: errors.New("broker down")}
	a := New(&fakeAPI{}, pub)
	tx := &models.DonationRequest{Currency: "USD", Email: "a@b.com", Signup: true}

	charge, out := a.Single(context.Background(), &stripeclient.Customer{ID: "cus_1"}, 2500, tx)
	if !out.Succeeded || charge == nil {
		t.Fatalf("payment result must not depend on signup: %v", out.Err)
	}
	<-pub.ch
}
