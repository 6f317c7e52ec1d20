package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/unghost/donate.mozilla.org/internal/api"
	"github.com/unghost/donate.mozilla.org/internal/config"
	"github.com/unghost/donate.mozilla.org/internal/handlers"
	"github.com/unghost/donate.mozilla.org/internal/paypal"
	"github.com/unghost/donate.mozilla.org/internal/paypalclient"
	"github.com/unghost/donate.mozilla.org/internal/signup"
	"github.com/unghost/donate.mozilla.org/internal/stripe"
	"github.com/unghost/donate.mozilla.org/internal/stripeclient"
	"github.com/unghost/donate.mozilla.org/internal/telemetry"
)

func main() {
	// Initialize telemetry
	if err := telemetry.InitTelemetry("donation-gateway"); err != nil {
		panic(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	}
	defer telemetry.Shutdown(context.Background())

	telemetry.Logger.Info("Starting donation gateway")

	cfg := config.Load()

	// Kafka publisher for mailing-list signups
	signupPublisher := signup.NewPublisher(cfg.KafkaBrokers, cfg.SignupTopic)
	defer signupPublisher.Close()

	// Provider clients and adapters; credentials come from the config
	// struct built once here, never from ad hoc environment reads.
	cardClient := stripeclient.New(cfg.StripeAPIURL, cfg.StripeSecretKey)
	cardAdapter := stripe.New(cardClient, signupPublisher)

	checkoutClient := paypalclient.New(cfg.PaypalAPIURL, paypalclient.Credentials{
		User:      cfg.PaypalUser,
		Password:  cfg.PaypalPassword,
		Signature: cfg.PaypalSignature,
	})
	checkoutAdapter := paypal.New(checkoutClient, cfg.PublicURL, cfg.PaypalCheckoutURL)

	donations := handlers.NewDonationHandler(cardAdapter, checkoutAdapter, signupPublisher)
	r := api.NewRouter(donations)

	// Setup HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		telemetry.Logger.Info("Donation gateway starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			telemetry.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	telemetry.Logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		telemetry.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	telemetry.Logger.Info("Server exited")
}
