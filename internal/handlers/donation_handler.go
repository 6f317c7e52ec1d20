// Package handlers orchestrates donation requests: normalize the
// amount, pick the frequency branch, drive the provider adapter's
// sequential remote calls, and map the result into the outward
// contract. The first failure at any step aborts the remaining steps.
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/unghost/donate.mozilla.org/internal/amount"
	"github.com/unghost/donate.mozilla.org/internal/interfaces"
	"github.com/unghost/donate.mozilla.org/internal/models"
	"github.com/unghost/donate.mozilla.org/internal/paypalclient"
	"github.com/unghost/donate.mozilla.org/internal/stripeclient"
	"github.com/unghost/donate.mozilla.org/internal/telemetry"
)

type DonationHandler struct {
	card     interfaces.CardProvider
	checkout interfaces.CheckoutProvider
	signup   interfaces.SignupPublisher
}

func NewDonationHandler(card interfaces.CardProvider, checkout interfaces.CheckoutProvider, signup interfaces.SignupPublisher) *DonationHandler {
	return &DonationHandler{card: card, checkout: checkout, signup: signup}
}

// Stripe drives the card flow: create customer, then one of charge or
// subscription. A failed customer creation aborts the flow; no charge
// is ever attempted against a handle that failed to create.
func (h *DonationHandler) Stripe(c *gin.Context) {
	ctx := c.Request.Context()
	requestID := c.GetString("request_id")

	var tx models.DonationRequest
	if err := c.ShouldBindJSON(&tx); err != nil {
		telemetry.Logger.Warn("Invalid donation request",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if tx.StripeToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "stripeToken is required"})
		return
	}

	normalized, err := amount.ForCard(tx.Amount, tx.Currency)
	if err != nil {
		telemetry.Logger.Warn("Donation validation failed",
			zap.String("request_id", requestID),
			zap.String("currency", tx.Currency),
			zap.Error(err),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer, out := h.card.Customer(ctx, &tx)
	if !out.Succeeded {
		h.stripeFailure(c, "customer", "customer-create-duration", requestID, out, "")
		return
	}
	telemetry.Logger.Info("Stripe customer created",
		zap.String("request_id", requestID),
		zap.String("provider", "stripe"),
		zap.String("operation", "customer"),
		zap.Int64("customer-create-duration", out.Duration.Milliseconds()),
		zap.String("customer_id", customer.ID),
	)

	if !tx.Monthly() {
		charge, out := h.card.Single(ctx, customer, normalized, &tx)
		if !out.Succeeded {
			h.stripeFailure(c, "single", "charge-create-duration", requestID, out, customer.ID)
			return
		}
		telemetry.Logger.Info("Stripe charge created",
			zap.String("request_id", requestID),
			zap.String("provider", "stripe"),
			zap.String("operation", "single"),
			zap.Int64("charge-create-duration", out.Duration.Milliseconds()),
			zap.String("charge_id", charge.ID),
		)
		c.JSON(http.StatusOK, models.PaymentResult{
			Frequency: "one-time",
			Amount:    charge.Amount,
			Currency:  charge.Currency,
			ID:        charge.ID,
			Signup:    tx.Signup,
			Country:   tx.Country,
			Email:     tx.Email,
		})
		return
	}

	sub, out := h.card.Recurring(ctx, customer, normalized, &tx)
	if !out.Succeeded {
		h.stripeFailure(c, "recurring", "subscription-create-duration", requestID, out, customer.ID)
		return
	}
	telemetry.Logger.Info("Stripe subscription created",
		zap.String("request_id", requestID),
		zap.String("provider", "stripe"),
		zap.String("operation", "recurring"),
		zap.Int64("subscription-create-duration", out.Duration.Milliseconds()),
		zap.String("customer_id", customer.ID),
	)
	c.JSON(http.StatusOK, models.PaymentResult{
		Frequency: "monthly",
		Quantity:  sub.Quantity,
		Currency:  sub.Plan.Currency,
		ID:        sub.ID,
		Signup:    tx.Signup,
		Country:   tx.Country,
		Email:     tx.Email,
	})
}

// Paypal initiates the redirect flow and hands the caller the provider
// endpoint plus the single-use session token.
func (h *DonationHandler) Paypal(c *gin.Context) {
	ctx := c.Request.Context()
	requestID := c.GetString("request_id")

	var tx models.DonationRequest
	if err := c.ShouldBindJSON(&tx); err != nil {
		telemetry.Logger.Warn("Invalid donation request",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	normalized, err := amount.ForCheckout(tx.Amount, tx.Currency)
	if err != nil {
		telemetry.Logger.Warn("Donation validation failed",
			zap.String("request_id", requestID),
			zap.String("currency", tx.Currency),
			zap.Error(err),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	flow := "single"
	setup := h.checkout.SetupSingle
	if tx.Monthly() {
		flow = "recurring"
		setup = h.checkout.SetupRecurring
	}

	session, out := setup(ctx, normalized, &tx)
	if !out.Succeeded {
		name, message, details := paypalDiag(out.Err)
		telemetry.Logger.Error("Paypal sale setup failed",
			zap.String("request_id", requestID),
			zap.String("provider", "paypal"),
			zap.String("operation", "sale"),
			zap.String("frequency", flow),
			zap.Int64("sale-setup-duration", out.Duration.Milliseconds()),
			zap.String("error_name", name),
			zap.String("error_message", message),
			zap.String("details", details),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"statusCode": http.StatusInternalServerError,
			"error":      "Internal Server Error",
			"message":    "Paypal donation failed",
		})
		return
	}

	telemetry.Logger.Info("Paypal sale initiated",
		zap.String("request_id", requestID),
		zap.String("provider", "paypal"),
		zap.String("operation", "sale"),
		zap.String("frequency", flow),
		zap.Int64("sale-setup-duration", out.Duration.Milliseconds()),
	)
	c.JSON(http.StatusOK, session)
}

// PaypalRedirect is the return phase. Frequency and locale come from
// the callback path, the session token from the query; no server-side
// session is kept between initiate and return.
func (h *DonationHandler) PaypalRedirect(c *gin.Context) {
	ctx := c.Request.Context()
	requestID := c.GetString("request_id")

	frequency := c.Param("frequency")
	if frequency == "" {
		frequency = "single"
	}
	locale := c.Param("locale")
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, paypalFailureBody())
		return
	}

	flow := "single"
	fetch := h.checkout.SingleCheckoutDetails
	complete := h.checkout.CompleteSingle
	if frequency == "monthly" {
		flow = "recurring"
		fetch = h.checkout.RecurringCheckoutDetails
		complete = h.checkout.CompleteRecurring
	}

	details, out := fetch(ctx, token)
	if !out.Succeeded {
		name, message, errDetails := paypalDiag(out.Err)
		telemetry.Logger.Error("Paypal checkout details failed",
			zap.String("request_id", requestID),
			zap.String("provider", "paypal"),
			zap.String("operation", "checkout-details"),
			zap.String("frequency", flow),
			zap.Int64("checkout-details-duration", out.Duration.Milliseconds()),
			zap.String("error_name", name),
			zap.String("error_message", message),
			zap.String("details", errDetails),
		)
		c.JSON(http.StatusBadRequest, paypalFailureBody())
		return
	}
	telemetry.Logger.Info("Paypal checkout details fetched",
		zap.String("request_id", requestID),
		zap.String("provider", "paypal"),
		zap.String("operation", "checkout-details"),
		zap.String("frequency", flow),
		zap.Int64("checkout-details-duration", out.Duration.Milliseconds()),
	)

	sale, out := complete(ctx, details)
	if !out.Succeeded {
		name, message, errDetails := paypalDiag(out.Err)
		telemetry.Logger.Error("Paypal checkout payment failed",
			zap.String("request_id", requestID),
			zap.String("provider", "paypal"),
			zap.String("operation", "checkout-payment"),
			zap.String("frequency", flow),
			zap.Int64("checkout-payment-duration", out.Duration.Milliseconds()),
			zap.String("error_name", name),
			zap.String("error_message", message),
			zap.String("details", errDetails),
		)
		c.JSON(http.StatusBadRequest, paypalFailureBody())
		return
	}
	telemetry.Logger.Info("Paypal checkout completed",
		zap.String("request_id", requestID),
		zap.String("provider", "paypal"),
		zap.String("operation", "checkout"),
		zap.String("frequency", flow),
		zap.Int64("checkout-payment-duration", out.Duration.Milliseconds()),
	)

	localePrefix := ""
	if locale != "" {
		localePrefix = "/" + locale
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("%s/thank-you/?frequency=%s&tx=%s&amt=%s&cc=%s",
		localePrefix, frequency, sale.TransactionID, sale.Amount, sale.Currency))
}

// Signup is the standalone mailing-list endpoint; unlike the
// fire-and-forget side effect in the card flow, its failures surface.
func (h *DonationHandler) Signup(c *gin.Context) {
	requestID := c.GetString("request_id")

	var msg models.SignupMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.signup.Publish(c.Request.Context(), msg); err != nil {
		telemetry.Logger.Error("Basket signup failed",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"statusCode": http.StatusInternalServerError,
			"error":      "Internal Server Error",
			"message":    "Unable to complete Basket signup",
		})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DonationHandler) stripeFailure(c *gin.Context, operation, durationKey, requestID string, out models.RemoteCallOutcome, customerID string) {
	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("provider", "stripe"),
		zap.String("operation", operation),
		zap.Int64(durationKey, out.Duration.Milliseconds()),
	}
	if customerID != "" {
		fields = append(fields, zap.String("customer_id", customerID))
	}

	var apiErr *stripeclient.APIError
	if errors.As(out.Err, &apiErr) {
		fields = append(fields,
			zap.String("code", apiErr.Code),
			zap.String("type", apiErr.Type),
			zap.String("param", apiErr.Param),
		)
		telemetry.Logger.Error("Stripe charge failed", fields...)
		c.JSON(http.StatusBadRequest, gin.H{
			"statusCode": http.StatusBadRequest,
			"error":      "Bad Request",
			"message":    "Stripe charge failed",
			"stripe": gin.H{
				"code":    apiErr.Code,
				"rawType": apiErr.Type,
			},
		})
		return
	}

	fields = append(fields, zap.Error(out.Err))
	telemetry.Logger.Error("Stripe charge failed", fields...)
	c.JSON(http.StatusInternalServerError, gin.H{
		"statusCode": http.StatusInternalServerError,
		"error":      "Internal Server Error",
		"message":    "Stripe charge failed",
	})
}

func paypalDiag(err error) (name, message, details string) {
	var nvpErr *paypalclient.NVPError
	if errors.As(err, &nvpErr) {
		return nvpErr.Name, nvpErr.Message, nvpErr.Details
	}
	if err != nil {
		return "", err.Error(), ""
	}
	return "", "", ""
}

func paypalFailureBody() gin.H {
	return gin.H{
		"statusCode": http.StatusBadRequest,
		"error":      "Bad Request",
		"message":    "donation failed",
	}
}
