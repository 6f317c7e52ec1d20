// Package paypalclient is a thin typed client for the redirect
// provider's NVP express-checkout API. Requests and responses are both
// url-encoded key/value pairs; there is no maintained Go library for
// this protocol, so the four calls the donation flow needs are spelled
// out here. One attempt per call, no retries.
package paypalclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	nvpVersion     = "204"
	defaultTimeout = 25 * time.Second
)

// NVPError carries the provider's rejection fields verbatim
// (L_ERRORCODE0 / L_SHORTMESSAGE0 / L_LONGMESSAGE0).
type NVPError struct {
	Name    string
	Message string
	Details string
}

func (e *NVPError) Error() string {
	return fmt.Sprintf("paypal: %s (%s)", e.Message, e.Name)
}

type SetCheckoutParams struct {
	Amount    string
	Currency  string
	Locale    string
	ItemName  string
	ReturnURL string
	CancelURL string
	// Recurring requests a billing agreement alongside the checkout so
	// the return phase can create a recurring payments profile.
	Recurring bool
}

// CheckoutDetails is the provider's view of the session after the payer
// returns from the external page.
type CheckoutDetails struct {
	Token    string
	PayerID  string
	Amount   string
	Currency string
	ItemName string
}

type SaleResult struct {
	TransactionID string
	Amount        string
	Currency      string
}

type AgreementResult struct {
	ProfileID string
	Status    string
}

type Credentials struct {
	User      string
	Password  string
	Signature string
}

type Client struct {
	creds  Credentials
	apiURL string
	client *http.Client
}

func New(apiURL string, creds Credentials) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Client{
		creds:  creds,
		apiURL: apiURL,
		client: &http.Client{
			Timeout:   defaultTimeout,
			Transport: transport,
		},
	}
}

// SetExpressCheckout initiates a sale (or billing agreement) and
// returns the single-use token the payer carries through the redirect.
func (c *Client) SetExpressCheckout(ctx context.Context, p SetCheckoutParams) (string, error) {
	form := url.Values{}
	form.Set("RETURNURL", p.ReturnURL)
	form.Set("CANCELURL", p.CancelURL)
	form.Set("LOCALECODE", p.Locale)
	form.Set("PAYMENTREQUEST_0_AMT", p.Amount)
	form.Set("PAYMENTREQUEST_0_CURRENCYCODE", p.Currency)
	form.Set("PAYMENTREQUEST_0_PAYMENTACTION", "Sale")
	form.Set("PAYMENTREQUEST_0_DESC", p.ItemName)
	if p.Recurring {
		form.Set("L_BILLINGTYPE0", "RecurringPayments")
		form.Set("L_BILLINGAGREEMENTDESCRIPTION0", p.ItemName)
	}

	resp, err := c.call(ctx, "SetExpressCheckout", form)
	if err != nil {
		return "", err
	}
	token := resp.Get("TOKEN")
	if token == "" {
		return "", fmt.Errorf("paypal: checkout response carried no token")
	}
	return token, nil
}

func (c *Client) GetExpressCheckoutDetails(ctx context.Context, token string) (*CheckoutDetails, error) {
	form := url.Values{}
	form.Set("TOKEN", token)

	resp, err := c.call(ctx, "GetExpressCheckoutDetails", form)
	if err != nil {
		return nil, err
	}
	return &CheckoutDetails{
		Token:    resp.Get("TOKEN"),
		PayerID:  resp.Get("PAYERID"),
		Amount:   firstOf(resp, "PAYMENTREQUEST_0_AMT", "AMT"),
		Currency: firstOf(resp, "PAYMENTREQUEST_0_CURRENCYCODE", "CURRENCYCODE"),
		ItemName: firstOf(resp, "PAYMENTREQUEST_0_DESC", "DESC"),
	}, nil
}

func (c *Client) DoExpressCheckoutPayment(ctx context.Context, d *CheckoutDetails) (*SaleResult, error) {
	form := url.Values{}
	form.Set("TOKEN", d.Token)
	form.Set("PAYERID", d.PayerID)
	form.Set("PAYMENTREQUEST_0_AMT", d.Amount)
	form.Set("PAYMENTREQUEST_0_CURRENCYCODE", d.Currency)
	form.Set("PAYMENTREQUEST_0_PAYMENTACTION", "Sale")

	resp, err := c.call(ctx, "DoExpressCheckoutPayment", form)
	if err != nil {
		return nil, err
	}
	return &SaleResult{
		TransactionID: resp.Get("PAYMENTINFO_0_TRANSACTIONID"),
		Amount:        firstOf(resp, "PAYMENTINFO_0_AMT", "AMT"),
		Currency:      firstOf(resp, "PAYMENTINFO_0_CURRENCYCODE", "CURRENCYCODE"),
	}, nil
}

func (c *Client) CreateRecurringPaymentsProfile(ctx context.Context, d *CheckoutDetails) (*AgreementResult, error) {
	form := url.Values{}
	form.Set("TOKEN", d.Token)
	form.Set("PAYERID", d.PayerID)
	// DESC must match the billing agreement description from setup.
	form.Set("DESC", d.ItemName)
	form.Set("PROFILESTARTDATE", time.Now().UTC().Format(time.RFC3339))
	form.Set("BILLINGPERIOD", "Month")
	form.Set("BILLINGFREQUENCY", "1")
	form.Set("AMT", d.Amount)
	form.Set("CURRENCYCODE", d.Currency)

	resp, err := c.call(ctx, "CreateRecurringPaymentsProfile", form)
	if err != nil {
		return nil, err
	}
	return &AgreementResult{
		ProfileID: resp.Get("PROFILEID"),
		Status:    resp.Get("PROFILESTATUS"),
	}, nil
}

func (c *Client) call(ctx context.Context, method string, params url.Values) (url.Values, error) {
	form := url.Values{}
	for k, vs := range params {
		form[k] = vs
	}
	form.Set("METHOD", method)
	form.Set("VERSION", nvpVersion)
	form.Set("USER", c.creds.User)
	form.Set("PWD", c.creds.Password)
	form.Set("SIGNATURE", c.creds.Signature)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("paypal: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paypal: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("paypal: reading response: %w", err)
	}

	vals, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("paypal: malformed NVP response: %w", err)
	}

	ack := vals.Get("ACK")
	if ack != "Success" && ack != "SuccessWithWarning" {
		return nil, &NVPError{
			Name:    vals.Get("L_ERRORCODE0"),
			Message: vals.Get("L_SHORTMESSAGE0"),
			Details: vals.Get("L_LONGMESSAGE0"),
		}
	}
	return vals, nil
}

func firstOf(vals url.Values, keys ...string) string {
	for _, k := range keys {
		if v := vals.Get(k); v != "" {
			return v
		}
	}
	return ""
}
