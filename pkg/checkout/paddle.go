package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"

	"github.com/authorityengine/billing/pkg/catalog"
	"github.com/authorityengine/billing/pkg/subscription"
)

// PaddleConfig holds configuration for the Paddle billing provider.
// PriceIDs maps "<tier>_<cycle>" keys (e.g. "premium_annual") to Paddle
// catalog price IDs.
type PaddleConfig struct {
	APIKey        string            `env:"PADDLE_API_KEY,required"`
	WebhookSecret string            `env:"PADDLE_WEBHOOK_SECRET,required"`
	Environment   string            `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
	PriceIDs      map[string]string `env:"PADDLE_PRICE_IDS"`
	SuccessURL    string            `env:"PADDLE_SUCCESS_URL"`
}

// PaddleProvider implements Provider on top of Paddle hosted checkout.
type PaddleProvider struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
	config   PaddleConfig
}

// NewPaddleProvider creates a Paddle-backed payment provider.
func NewPaddleProvider(config PaddleConfig) (*PaddleProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("paddle API key is required")
	}
	if config.WebhookSecret == "" {
		return nil, errors.New("paddle webhook secret is required")
	}

	var client *paddle.SDK
	var err error

	switch strings.ToLower(config.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(config.APIKey)
	case "production", "":
		client, err = paddle.New(config.APIKey)
	default:
		return nil, fmt.Errorf("invalid paddle environment: %s", config.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &PaddleProvider{
		client:   client,
		verifier: paddle.NewWebhookVerifier(config.WebhookSecret),
		config:   config,
	}, nil
}

func (p *PaddleProvider) priceID(tier catalog.Tier, cycle catalog.BillingCycle) (string, error) {
	key := fmt.Sprintf("%s_%s", tier, cycle)
	id, ok := p.config.PriceIDs[key]
	if !ok || id == "" {
		return "", fmt.Errorf("no paddle price configured for %s", key)
	}
	return id, nil
}

// CreateCheckoutLink creates a hosted checkout transaction in Paddle. The
// user ID and tier travel in custom data so the webhook can be correlated
// without provider-side state.
func (p *PaddleProvider) CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	priceID, err := p.priceID(req.Tier, req.Cycle)
	if err != nil {
		return nil, err
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  priceID,
		Quantity: 1,
	})

	transactionReq := &paddle.CreateTransactionRequest{
		Items: []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{
			"user_id":  req.UserID,
			"tier":     string(req.Tier),
			"cycle":    string(req.Cycle),
			"currency": string(req.Currency),
		},
	}
	if req.Email != "" {
		transactionReq.CustomData["email"] = req.Email
	}
	if p.config.SuccessURL != "" {
		transactionReq.Checkout = &paddle.TransactionCheckout{
			URL: paddle.PtrTo(p.config.SuccessURL),
		}
	}

	transaction, err := p.client.TransactionsClient.CreateTransaction(ctx, transactionReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle transaction: %w", err)
	}

	if transaction.Checkout == nil || transaction.Checkout.URL == nil {
		return nil, errors.New("no checkout URL returned from paddle")
	}

	return &CheckoutLink{
		URL:       *transaction.Checkout.URL,
		SessionID: transaction.ID,
		ExpiresAt: time.Now().Add(24 * time.Hour), // Paddle checkout links expire in 24 hours
	}, nil
}

// ParseWebhook validates the Paddle signature and normalizes the payload.
// Transaction events with a recurring origin are renewal charges; the rest
// are checkout confirmations keyed on the transaction ID.
func (p *PaddleProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*PaymentEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for verification: %w", err)
	}
	req.Header.Set("Paddle-Signature", signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, fmt.Errorf("webhook verification error: %w", err)
	}
	if !valid {
		return nil, errors.New("webhook signature verification failed")
	}

	var paddleEvent struct {
		EventID   string         `json:"event_id"`
		EventType string         `json:"event_type"`
		Data      map[string]any `json:"data"`
	}
	if err := json.Unmarshal(payload, &paddleEvent); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}

	event := &PaymentEvent{
		Kind:          KindIgnored,
		ProviderEvent: paddleEvent.EventType,
		Raw:           paddleEvent.Data,
	}
	if !strings.HasPrefix(paddleEvent.EventType, "transaction.") {
		return event, nil
	}

	if id, ok := paddleEvent.Data["id"].(string); ok {
		event.SessionID = id
	}
	if customData, ok := paddleEvent.Data["custom_data"].(map[string]any); ok {
		if userID, ok := customData["user_id"].(string); ok {
			event.UserID = userID
		}
	}
	event.PaymentMethod = extractCard(paddleEvent.Data)

	origin, _ := paddleEvent.Data["origin"].(string)
	recurring := strings.HasPrefix(origin, "subscription_")

	switch paddleEvent.EventType {
	case "transaction.completed", "transaction.paid":
		if recurring {
			event.Kind = KindRenewalRecovered
		} else {
			event.Kind = KindCheckout
			event.Outcome = OutcomePaid
		}
	case "transaction.payment_failed":
		if recurring {
			event.Kind = KindRenewalFailed
		} else {
			event.Kind = KindCheckout
			event.Outcome = OutcomeFailed
		}
	}
	return event, nil
}

// extractCard pulls the card brand and last4 from a transaction payload's
// payments array, if present.
func extractCard(data map[string]any) *subscription.PaymentMethod {
	payments, ok := data["payments"].([]any)
	if !ok || len(payments) == 0 {
		return nil
	}
	payment, ok := payments[0].(map[string]any)
	if !ok {
		return nil
	}
	details, ok := payment["method_details"].(map[string]any)
	if !ok {
		return nil
	}
	card, ok := details["card"].(map[string]any)
	if !ok {
		return nil
	}

	pm := &subscription.PaymentMethod{}
	if brand, ok := card["type"].(string); ok {
		pm.Brand = brand
	}
	if last4, ok := card["last4"].(string); ok {
		pm.Last4 = last4
	}
	if pm.Brand == "" && pm.Last4 == "" {
		return nil
	}
	return pm
}
