// Package stripeclient is a thin typed client for the card provider's
// REST API. It covers only the three calls the donation flow needs;
// requests are form-encoded, responses JSON. One attempt per call, no
// retries — a transport timeout surfaces like any other failure.
package stripeclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 25 * time.Second

// APIError is the provider's structured rejection, carried verbatim for
// operator debugging and never interpreted here.
type APIError struct {
	Code    string `json:"code"`
	Type    string `json:"type"`
	Param   string `json:"param"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stripe: %s (code=%s, type=%s)", e.Message, e.Code, e.Type)
}

type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Charge struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type Plan struct {
	ID       string `json:"id"`
	Currency string `json:"currency"`
}

type Subscription struct {
	ID       string `json:"id"`
	Quantity int64  `json:"quantity"`
	Plan     Plan   `json:"plan"`
}

type ChargeParams struct {
	Amount      int64
	Currency    string
	CustomerID  string
	Description string
	Metadata    map[string]string
}

type SubscriptionParams struct {
	// Plan is the fixed-price plan keyed by currency with a one-cent
	// unit; the donation amount is carried as Quantity against it.
	Plan     string
	Quantity int64
	Metadata map[string]string
}

type Client struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

func New(baseURL, secretKey string) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		secretKey: secretKey,
		client: &http.Client{
			Timeout:   defaultTimeout,
			Transport: transport,
		},
	}
}

func (c *Client) CreateCustomer(ctx context.Context, email, source string, metadata map[string]string) (*Customer, error) {
	form := url.Values{}
	form.Set("email", email)
	form.Set("source", source)
	addMetadata(form, metadata)

	var customer Customer
	if err := c.do(ctx, "/v1/customers", form, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (c *Client) CreateCharge(ctx context.Context, p ChargeParams) (*Charge, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(p.Amount, 10))
	form.Set("currency", p.Currency)
	form.Set("customer", p.CustomerID)
	form.Set("description", p.Description)
	addMetadata(form, p.Metadata)

	var charge Charge
	if err := c.do(ctx, "/v1/charges", form, &charge); err != nil {
		return nil, err
	}
	return &charge, nil
}

func (c *Client) CreateSubscription(ctx context.Context, customerID string, p SubscriptionParams) (*Subscription, error) {
	form := url.Values{}
	form.Set("plan", p.Plan)
	form.Set("quantity", strconv.FormatInt(p.Quantity, 10))
	addMetadata(form, p.Metadata)

	var sub Subscription
	path := "/v1/customers/" + url.PathEscape(customerID) + "/subscriptions"
	if err := c.do(ctx, path, form, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *Client) do(ctx context.Context, path string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("stripe: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("stripe: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("stripe: reading response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return json.Unmarshal(body, out)
	}

	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == nil {
		return fmt.Errorf("stripe: unexpected status %d", resp.StatusCode)
	}
	return envelope.Error
}

func addMetadata(form url.Values, metadata map[string]string) {
	for k, v := range metadata {
		form.Set("metadata["+k+"]", v)
	}
}
