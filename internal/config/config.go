package config

import "os"

type Config struct {
	Port      string
	PublicURL string

	StripeSecretKey string
	StripeAPIURL    string

	PaypalUser        string
	PaypalPassword    string
	PaypalSignature   string
	PaypalAPIURL      string
	PaypalCheckoutURL string

	KafkaBrokers string
	SignupTopic  string
}

func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	publicURL := os.Getenv("PUBLIC_URL")
	if publicURL == "" {
		publicURL = "http://localhost:" + port
	}

	stripeAPIURL := os.Getenv("STRIPE_API_URL")
	if stripeAPIURL == "" {
		stripeAPIURL = "https://api.stripe.com"
	}

	paypalAPIURL := os.Getenv("PAYPAL_API_URL")
	if paypalAPIURL == "" {
		paypalAPIURL = "https://api-3t.paypal.com/nvp"
	}

	paypalCheckoutURL := os.Getenv("PAYPAL_ENDPOINT")
	if paypalCheckoutURL == "" {
		paypalCheckoutURL = "https://www.paypal.com/cgi-bin/webscr"
	}

	signupTopic := os.Getenv("SIGNUP_TOPIC")
	if signupTopic == "" {
		signupTopic = "donation.signup"
	}

	return &Config{
		Port:              port,
		PublicURL:         publicURL,
		StripeSecretKey:   os.Getenv("STRIPE_SECRET_KEY"),
		StripeAPIURL:      stripeAPIURL,
		PaypalUser:        os.Getenv("PAYPAL_USER"),
		PaypalPassword:    os.Getenv("PAYPAL_PASSWORD"),
		PaypalSignature:   os.Getenv("PAYPAL_SIGNATURE"),
		PaypalAPIURL:      paypalAPIURL,
		PaypalCheckoutURL: paypalCheckoutURL,
		KafkaBrokers:      os.Getenv("KAFKA_BROKERS"),
		SignupTopic:       signupTopic,
	}
}
