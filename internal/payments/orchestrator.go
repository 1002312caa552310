package payments

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/jmercadier/raccordement-platform/internal/observability/metrics"
	"github.com/jmercadier/raccordement-platform/internal/requests"
	"github.com/jmercadier/raccordement-platform/pkg/logging"
)

// ErrNotSubmittable is returned when Process is called while the submit
// guard is closed (incomplete card fields, missing holder name, or an
// attempt already in flight).
var ErrNotSubmittable = errors.New("payments: session is not submittable")

// FailedAttempt is the payload persisted when a card attempt fails.
type FailedAttempt struct {
	Reference  string `json:"referenceNumber"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	CardBrand  string `json:"cardBrand,omitempty"`
	CardLast4  string `json:"cardLast4,omitempty"`
	CardExpiry string `json:"cardExpiry,omitempty"`
	HolderName string `json:"holderName,omitempty"`
}

// AttemptRecorder persists failed payment attempts.
type AttemptRecorder interface {
	RecordFailedAttempt(ctx context.Context, attempt FailedAttempt) error
}

// PaymentSettler updates the request's payment status after a terminal
// outcome. requests.Repository satisfies it.
type PaymentSettler interface {
	UpdatePaymentStatus(ctx context.Context, reference string, status requests.PaymentStatus, intentID string) (*requests.ServiceRequest, error)
}

// IntentStore persists payment intent records. Optional; a nil store skips
// persistence (development mode without Postgres).
type IntentStore interface {
	InsertIntent(ctx context.Context, reference, intentID string, amountCents int64, currency, status string) error
	UpdateStatusByIntentID(ctx context.Context, intentID, status string) error
}

// Outcome is the result of one payment submission attempt.
type Outcome struct {
	RedirectURL  string `json:"redirectUrl,omitempty"`
	AlreadyPaid  bool   `json:"alreadyPaid,omitempty"`
	IntentID     string `json:"intentId,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	ErrorCode    string `json:"errorCode,omitempty"`
}

// Orchestrator drives one payment attempt end to end: pre-check, intent
// creation, card confirmation, classification and settlement.
type Orchestrator struct {
	lookup      ReferenceLookup
	intents     IntentCreator
	confirmer   CardConfirmer
	recorder    AttemptRecorder
	settler     PaymentSettler
	store       IntentStore
	amountCents int64
	currency    string
	metrics     *metrics.PaymentMetrics
	logger      *logging.Logger
}

// NewOrchestrator wires the payment flow. recorder, settler and store may be
// nil; the corresponding steps are skipped.
func NewOrchestrator(
	lookup ReferenceLookup,
	intents IntentCreator,
	confirmer CardConfirmer,
	recorder AttemptRecorder,
	settler PaymentSettler,
	store IntentStore,
	amountCents int64,
	currency string,
	m *metrics.PaymentMetrics,
	logger *logging.Logger,
) *Orchestrator {
	if logger == nil {
		logger = logging.Default()
	}
	if currency == "" {
		currency = "eur"
	}
	return &Orchestrator{
		lookup:      lookup,
		intents:     intents,
		confirmer:   confirmer,
		recorder:    recorder,
		settler:     settler,
		store:       store,
		amountCents: amountCents,
		currency:    currency,
		metrics:     m,
		logger:      logger,
	}
}

// Process runs a full payment attempt for the session. Recoverable failures
// return an Outcome with ErrorMessage set and leave the session ready for
// another attempt; only guard violations and nil-session misuse error out.
func (o *Orchestrator) Process(ctx context.Context, sess *Session, card CardInput) (*Outcome, error) {
	if sess == nil {
		return nil, errors.New("payments: nil session")
	}
	if !sess.CanSubmit() {
		return nil, ErrNotSubmittable
	}
	sess.State = StateProcessing
	sess.LastError = nil

	reference := requests.CanonicalReference(sess.Reference)

	req, err := o.lookup.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, requests.ErrRequestNotFound) {
			return o.fail(ctx, sess, card, "reference_not_found", msgReferenceNotFound), nil
		}
		o.logger.Error("payment pre-check lookup failed", "error", err, "reference", reference)
		return o.fail(ctx, sess, card, "lookup_error", msgReferenceInvalid), nil
	}

	// Already settled: halt without creating an intent.
	if req.PaymentStatus == requests.PaymentPaid {
		sess.State = StateSucceeded
		o.metrics.ObserveAttempt("already_paid", "")
		return &Outcome{
			RedirectURL: ConfirmationURL(reference, "success", ""),
			AlreadyPaid: true,
		}, nil
	}

	intent, err := o.intents.CreateIntent(ctx, reference, o.amountCents)
	if err != nil {
		o.logger.Error("payment intent creation failed", "error", err, "reference", reference)
		return o.fail(ctx, sess, card, "intent_error", msgIntentFailed), nil
	}
	sess.ClientSecret = intent.ClientSecret
	sess.IntentID = intent.ID

	if o.store != nil {
		if err := o.store.InsertIntent(ctx, reference, intent.ID, o.amountCents, o.currency, intent.Status); err != nil {
			o.logger.Warn("payment intent persistence failed", "error", err, "intent_id", intent.ID)
		}
	}

	res, err := o.confirmer.ConfirmCardPayment(ctx, intent.ClientSecret, card)
	if err != nil {
		var cardErr *CardError
		code := "provider_error"
		if errors.As(err, &cardErr) {
			code = cardErr.Code
		} else {
			o.logger.Error("payment confirmation failed", "error", err, "reference", reference)
		}
		return o.fail(ctx, sess, card, code, FrenchCardErrorMessage(code)), nil
	}

	switch res.Status {
	case "succeeded":
		sess.State = StateSucceeded
		o.metrics.ObserveAttempt("succeeded", "")
		o.settle(ctx, reference, requests.PaymentPaid, res.IntentID)
		if o.store != nil {
			if err := o.store.UpdateStatusByIntentID(ctx, res.IntentID, res.Status); err != nil {
				o.logger.Warn("payment record update failed", "error", err, "intent_id", res.IntentID)
			}
		}
		return &Outcome{
			RedirectURL: ConfirmationURL(reference, "success", ""),
			IntentID:    res.IntentID,
		}, nil
	default:
		// requires_action / processing: the webhook settles the final
		// status; redirect carries the intent id for polling.
		sess.State = StateSucceeded
		o.metrics.ObserveAttempt("pending", res.Status)
		return &Outcome{
			RedirectURL: ConfirmationURL(reference, "", res.IntentID),
			IntentID:    res.IntentID,
		}, nil
	}
}

// fail records the failed attempt best-effort, restores the session to ready
// and returns the recoverable outcome.
func (o *Orchestrator) fail(ctx context.Context, sess *Session, card CardInput, code, message string) *Outcome {
	sess.State = StateReady
	sess.LastError = &CardError{Code: code, Message: message}
	o.metrics.ObserveAttempt("failed", code)
	o.recordAttempt(ctx, FailedAttempt{
		Reference:  requests.CanonicalReference(sess.Reference),
		Code:       code,
		Message:    message,
		CardBrand:  card.Brand,
		CardLast4:  card.Last4,
		CardExpiry: cardExpiry(card),
		HolderName: card.HolderName,
	})
	return &Outcome{ErrorMessage: message, ErrorCode: code}
}

// recordAttempt logs a failed attempt. Its own failure never propagates.
func (o *Orchestrator) recordAttempt(ctx context.Context, attempt FailedAttempt) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.RecordFailedAttempt(ctx, attempt); err != nil {
		o.logger.Warn("failed-attempt logging failed", "error", err, "reference", attempt.Reference)
	}
}

func (o *Orchestrator) settle(ctx context.Context, reference string, status requests.PaymentStatus, intentID string) {
	if o.settler == nil {
		return
	}
	if _, err := o.settler.UpdatePaymentStatus(ctx, reference, status, intentID); err != nil {
		o.logger.Error("payment status settlement failed", "error", err, "reference", reference)
	}
}

func cardExpiry(card CardInput) string {
	if card.ExpMonth == 0 && card.ExpYear == 0 {
		return ""
	}
	return fmt.Sprintf("%02d/%02d", card.ExpMonth, card.ExpYear%100)
}

// ConfirmationURL builds the payment confirmation route. Exactly one of
// status or intentID is set depending on whether the outcome is terminal.
func ConfirmationURL(reference, status, intentID string) string {
	q := url.Values{}
	q.Set("reference", requests.CanonicalReference(reference))
	if status != "" {
		q.Set("status", status)
	}
	if intentID != "" {
		q.Set("payment_intent", intentID)
	}
	return "/paiement-confirmation?" + q.Encode()
}
