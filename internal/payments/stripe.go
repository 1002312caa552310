package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jmercadier/raccordement-platform/internal/observability/metrics"
	"github.com/jmercadier/raccordement-platform/pkg/logging"
)

var stripeTracer = otel.Tracer("raccordement.internal.payments.stripe")

// Intent is the subset of a provider payment intent the flow needs.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// CardInput carries what the payment form collected for a confirmation
// attempt. PaymentMethodID is the tokenized card; the brand/last4/expiry
// fields are display metadata used only for failed-attempt logging.
type CardInput struct {
	PaymentMethodID string `json:"paymentMethodId"`
	HolderName      string `json:"holderName"`
	Brand           string `json:"brand,omitempty"`
	Last4           string `json:"last4,omitempty"`
	ExpMonth        int    `json:"expMonth,omitempty"`
	ExpYear         int    `json:"expYear,omitempty"`
}

// ConfirmResult is the provider's answer to a confirmation attempt.
type ConfirmResult struct {
	IntentID string
	Status   string
}

// IntentCreator creates a payment intent for a service request reference.
type IntentCreator interface {
	CreateIntent(ctx context.Context, reference string, amountCents int64) (*Intent, error)
}

// CardConfirmer confirms a payment intent with the collected card.
// Classified card failures come back as a *CardError.
type CardConfirmer interface {
	ConfirmCardPayment(ctx context.Context, clientSecret string, card CardInput) (*ConfirmResult, error)
}

// StripeIntentService creates and confirms Stripe PaymentIntents over the
// form-encoded HTTPS API.
type StripeIntentService struct {
	secretKey  string
	currency   string
	baseURL    string
	apiVersion string
	httpClient *http.Client
	logger     *logging.Logger
	metrics    *metrics.PaymentMetrics
	dryRun     bool
}

// NewStripeIntentService creates a new Stripe payment intent service.
func NewStripeIntentService(secretKey, currency string, logger *logging.Logger) *StripeIntentService {
	if logger == nil {
		logger = logging.Default()
	}
	if currency == "" {
		currency = "eur"
	}
	return &StripeIntentService{
		secretKey:  secretKey,
		currency:   strings.ToLower(currency),
		baseURL:    "https://api.stripe.com",
		apiVersion: "2024-12-18.acacia",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// WithBaseURL overrides the Stripe API base URL (for testing).
func (s *StripeIntentService) WithBaseURL(baseURL string) *StripeIntentService {
	if baseURL != "" {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
	return s
}

// WithDryRun enables dry-run mode (fake intents, no Stripe calls).
func (s *StripeIntentService) WithDryRun(enabled bool) *StripeIntentService {
	s.dryRun = enabled
	return s
}

// WithMetrics attaches provider-latency metrics.
func (s *StripeIntentService) WithMetrics(m *metrics.PaymentMetrics) *StripeIntentService {
	s.metrics = m
	return s
}

// CreateIntent implements IntentCreator for Stripe.
func (s *StripeIntentService) CreateIntent(ctx context.Context, reference string, amountCents int64) (*Intent, error) {
	ctx, span := stripeTracer.Start(ctx, "stripe.create_payment_intent")
	defer span.End()
	span.SetAttributes(
		attribute.String("raccordement.reference", reference),
		attribute.Int("raccordement.amount_cents", int(amountCents)),
	)

	if s.dryRun {
		fakeID := "pi_dryrun_" + uuid.New().String()[:8]
		s.logger.Info("stripe dry run: skipping payment intent creation",
			"reference", reference, "amount_cents", amountCents)
		return &Intent{
			ID:           fakeID,
			ClientSecret: fakeID + "_secret_test",
			Status:       "requires_payment_method",
		}, nil
	}

	form := url.Values{}
	form.Set("amount", fmt.Sprintf("%d", amountCents))
	form.Set("currency", s.currency)
	form.Set("metadata[reference_number]", reference)
	form.Set("automatic_payment_methods[enabled]", "true")
	form.Set("automatic_payment_methods[allow_redirects]", "never")

	start := time.Now()
	parsed, err := s.post(ctx, "/v1/payment_intents", form)
	s.metrics.ObserveProviderLatency("create_intent", time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	if parsed.ClientSecret == "" {
		return nil, fmt.Errorf("payments: stripe response missing client secret")
	}
	return &Intent{ID: parsed.ID, ClientSecret: parsed.ClientSecret, Status: parsed.Status}, nil
}

// ConfirmCardPayment implements CardConfirmer for Stripe. Card failures are
// returned as *CardError so the caller can classify them.
func (s *StripeIntentService) ConfirmCardPayment(ctx context.Context, clientSecret string, card CardInput) (*ConfirmResult, error) {
	ctx, span := stripeTracer.Start(ctx, "stripe.confirm_payment_intent")
	defer span.End()

	intentID := intentIDFromSecret(clientSecret)
	if intentID == "" {
		return nil, fmt.Errorf("payments: malformed client secret")
	}
	span.SetAttributes(attribute.String("raccordement.intent_id", intentID))

	if s.dryRun {
		s.logger.Info("stripe dry run: confirming payment intent", "intent_id", intentID)
		return &ConfirmResult{IntentID: intentID, Status: "succeeded"}, nil
	}

	form := url.Values{}
	if card.PaymentMethodID != "" {
		form.Set("payment_method", card.PaymentMethodID)
	}
	form.Set("client_secret", clientSecret)

	start := time.Now()
	parsed, err := s.post(ctx, "/v1/payment_intents/"+intentID+"/confirm", form)
	s.metrics.ObserveProviderLatency("confirm_intent", time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	return &ConfirmResult{IntentID: parsed.ID, Status: parsed.Status}, nil
}

// post sends a form-encoded request to the Stripe API and decodes the intent
// payload, translating card_error responses into *CardError.
func (s *StripeIntentService) post(ctx context.Context, path string, form url.Values) (*stripePaymentIntent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("payments: stripe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Stripe-Version", s.apiVersion)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payments: stripe http: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("payments: stripe read: %w", err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr stripeErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Type == "card_error" {
			code := apiErr.Error.DeclineCode
			if code == "" {
				code = apiErr.Error.Code
			}
			return nil, &CardError{Code: code, Message: apiErr.Error.Message}
		}
		return nil, fmt.Errorf("payments: stripe api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed stripePaymentIntent
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("payments: stripe decode: %w", err)
	}
	return &parsed, nil
}

// intentIDFromSecret extracts the intent id from "pi_xxx_secret_yyy".
func intentIDFromSecret(clientSecret string) string {
	idx := strings.Index(clientSecret, "_secret")
	if idx <= 0 {
		return ""
	}
	return clientSecret[:idx]
}

// stripePaymentIntent is the subset of Stripe's PaymentIntent we need.
type stripePaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

// stripeErrorResponse represents a Stripe API error.
type stripeErrorResponse struct {
	Error struct {
		Message     string `json:"message"`
		Type        string `json:"type"`
		Code        string `json:"code"`
		DeclineCode string `json:"decline_code"`
	} `json:"error"`
}
