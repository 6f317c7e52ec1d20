package stripeclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateCustomer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/customers" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_123" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing form: %v", err)
		}
		if got := r.PostForm.Get("email"); got != "a@b.com" {
			t.Errorf("email = %q, want a@b.com", got)
		}
		if got := r.PostForm.Get("source"); got != "tok_valid" {
			t.Errorf("source = %q, want tok_valid", got)
		}
		if got := r.PostForm.Get("metadata[locale]"); got != "en-US" {
			t.Errorf("metadata[locale] = %q, want en-US", got)
		}
		w.Write([]byte(`{"id":"cus_1","email":"a@b.com"}`))
	}))
	defer ts.Close()

	c := New(ts.URL, "sk_test_123")
	customer, err := c.CreateCustomer(context.Background(), "a@b.com", "tok_valid", map[string]string{"locale": "en-US"})
	if err != nil {
		t.Fatalf("CreateCustomer returned error: %v", err)
	}
	if customer.ID != "cus_1" {
		t.Errorf("customer id = %q, want cus_1", customer.ID)
	}
}

func TestCreateChargeProviderRejection(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"code":"card_declined","type":"card_error","param":"","message":"Your card was declined."}}`))
	}))
	defer ts.Close()

	c := New(ts.URL, "sk_test_123")
	_, err := c.CreateCharge(context.Background(), ChargeParams{
		Amount:     2500,
		Currency:   "usd",
		CustomerID: "cus_1",
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v is not an *APIError", err)
	}
	if apiErr.Code != "card_declined" || apiErr.Type != "card_error" {
		t.Errorf("unexpected diagnostics: code=%q type=%q", apiErr.Code, apiErr.Type)
	}
}

func TestCreateSubscription(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/customers/cus_9/subscriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing form: %v", err)
		}
		if got := r.PostForm.Get("plan"); got != "usd" {
			t.Errorf("plan = %q, want usd", got)
		}
		if got := r.PostForm.Get("quantity"); got != "2500" {
			t.Errorf("quantity = %q, want 2500", got)
		}
		w.Write([]byte(`{"id":"sub_x","quantity":2500,"plan":{"id":"usd","currency":"usd"}}`))
	}))
	defer ts.Close()

	c := New(ts.URL, "sk_test_123")
	sub, err := c.CreateSubscription(context.Background(), "cus_9", SubscriptionParams{Plan: "usd", Quantity: 2500})
	if err != nil {
		t.Fatalf("CreateSubscription returned error: %v", err)
	}
	if sub.ID != "sub_x" || sub.Quantity != 2500 || sub.Plan.Currency != "usd" {
		t.Errorf("unexpected subscription: %+v", sub)
	}
}

func TestMalformedErrorBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer ts.Close()

	c := New(ts.URL, "sk_test_123")
	_, err := c.CreateCustomer(context.Background(), "a@b.com", "tok", nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Errorf("malformed body should not decode into *APIError, got %+v", apiErr)
	}
}
