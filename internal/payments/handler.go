package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/jmercadier/raccordement-platform/internal/observability/metrics"
	"github.com/jmercadier/raccordement-platform/internal/requests"
	"github.com/jmercadier/raccordement-platform/pkg/logging"
)

// Handler exposes the payment step over HTTP.
type Handler struct {
	lookup       ReferenceLookup
	intents      IntentCreator
	orchestrator *Orchestrator
	recorder     AttemptRecorder
	store        IntentStore
	lister       AttemptLister
	amountCents  int64
	metrics      *metrics.PaymentMetrics
	logger       *logging.Logger
}

// AttemptLister exposes the recorded failed attempts to the back office.
type AttemptLister interface {
	ListFailedAttempts(ctx context.Context, reference string, limit int) ([]FailedAttempt, error)
}

// WithAttemptLister enables the admin failed-attempts listing.
func (h *Handler) WithAttemptLister(lister AttemptLister) *Handler {
	h.lister = lister
	return h
}

// NewHandler creates the payments HTTP handler.
func NewHandler(
	lookup ReferenceLookup,
	intents IntentCreator,
	orchestrator *Orchestrator,
	recorder AttemptRecorder,
	store IntentStore,
	amountCents int64,
	m *metrics.PaymentMetrics,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		lookup:       lookup,
		intents:      intents,
		orchestrator: orchestrator,
		recorder:     recorder,
		store:        store,
		amountCents:  amountCents,
		metrics:      m,
		logger:       logger,
	}
}

type createIntentRequest struct {
	ReferenceNumber string `json:"referenceNumber"`
	Amount          int64  `json:"amount"`
}

type createIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// CreateIntent handles POST /api/payments/intent. The charge amount is the
// configured service price; the client-sent amount is advisory only.
func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req createIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Requête invalide.")
		return
	}
	if strings.TrimSpace(req.ReferenceNumber) == "" {
		writeError(w, http.StatusBadRequest, msgReferenceInvalid)
		return
	}
	reference := requests.CanonicalReference(req.ReferenceNumber)
	if req.Amount != 0 && req.Amount != h.amountCents {
		h.logger.Warn("client amount mismatch, using configured amount",
			"reference", reference, "client_amount", req.Amount, "amount_cents", h.amountCents)
	}

	sr, err := h.lookup.GetByReference(r.Context(), reference)
	if err != nil {
		if err == requests.ErrRequestNotFound {
			writeError(w, http.StatusNotFound, msgReferenceNotFound)
			return
		}
		h.logger.Error("intent pre-check failed", "error", err, "reference", reference)
		writeError(w, http.StatusInternalServerError, msgIntentFailed)
		return
	}
	if sr.PaymentStatus == requests.PaymentPaid {
		writeError(w, http.StatusConflict, "Cette demande a déjà été réglée.")
		return
	}

	intent, err := h.intents.CreateIntent(r.Context(), reference, h.amountCents)
	if err != nil {
		h.logger.Error("intent creation failed", "error", err, "reference", reference)
		writeError(w, http.StatusBadGateway, msgIntentFailed)
		return
	}
	if h.store != nil {
		if err := h.store.InsertIntent(r.Context(), reference, intent.ID, h.amountCents, "eur", intent.Status); err != nil {
			h.logger.Warn("payment intent persistence failed", "error", err, "intent_id", intent.ID)
		}
	}

	writeJSON(w, http.StatusOK, createIntentResponse{ClientSecret: intent.ClientSecret})
}

type processRequest struct {
	ReferenceNumber string         `json:"referenceNumber"`
	HolderName      string         `json:"holderName"`
	Card            CardFieldFlags `json:"card"`
	CardInput       CardInput      `json:"cardInput"`
}

// ProcessPayment handles POST /api/payments/process: one full attempt from
// pre-check through confirmation.
func (h *Handler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Requête invalide.")
		return
	}

	sess := NewSession(req.ReferenceNumber)
	sess.Open()
	sess.Card = req.Card
	sess.SetHolderName(strings.TrimSpace(req.HolderName))
	req.CardInput.HolderName = sess.HolderName

	outcome, err := h.orchestrator.Process(r.Context(), sess, req.CardInput)
	if err != nil {
		if err == ErrNotSubmittable {
			writeError(w, http.StatusUnprocessableEntity, "Veuillez compléter les informations de votre carte.")
			return
		}
		h.logger.Error("payment processing failed", "error", err, "reference", req.ReferenceNumber)
		writeError(w, http.StatusInternalServerError, msgIntentFailed)
		return
	}
	if outcome.ErrorMessage != "" {
		writeJSON(w, http.StatusPaymentRequired, outcome)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

type failedAttemptRequest struct {
	ReferenceNumber string `json:"referenceNumber"`
	PaymentError    struct {
		Code        string `json:"code"`
		Message     string `json:"message"`
		CardDetails struct {
			Brand      string `json:"brand"`
			Last4      string `json:"last4"`
			ExpMonth   int    `json:"expMonth"`
			ExpYear    int    `json:"expYear"`
			HolderName string `json:"holderName"`
		} `json:"cardDetails"`
	} `json:"paymentError"`
}

// RecordFailedAttempt handles POST /api/payments/failed-attempt. Always
// acknowledges: this endpoint is best-effort telemetry and its own failures
// are only logged.
func (h *Handler) RecordFailedAttempt(w http.ResponseWriter, r *http.Request) {
	var req failedAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusAccepted, map[string]bool{"received": true})
		return
	}

	attempt := FailedAttempt{
		Reference:  requests.CanonicalReference(req.ReferenceNumber),
		Code:       req.PaymentError.Code,
		Message:    req.PaymentError.Message,
		CardBrand:  req.PaymentError.CardDetails.Brand,
		CardLast4:  req.PaymentError.CardDetails.Last4,
		HolderName: req.PaymentError.CardDetails.HolderName,
		CardExpiry: cardExpiry(CardInput{
			ExpMonth: req.PaymentError.CardDetails.ExpMonth,
			ExpYear:  req.PaymentError.CardDetails.ExpYear,
		}),
	}
	if h.recorder != nil {
		if err := h.recorder.RecordFailedAttempt(r.Context(), attempt); err != nil {
			h.logger.Warn("failed-attempt logging failed", "error", err, "reference", attempt.Reference)
		}
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"received": true})
}

// ListFailedAttempts handles GET /admin/payments/failed-attempts?reference=…,
// newest first.
func (h *Handler) ListFailedAttempts(w http.ResponseWriter, r *http.Request) {
	if h.lister == nil {
		writeError(w, http.StatusNotFound, "historique indisponible")
		return
	}
	reference := requests.CanonicalReference(r.URL.Query().Get("reference"))
	if reference == "" {
		writeError(w, http.StatusBadRequest, "référence manquante")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	attempts, err := h.lister.ListFailedAttempts(r.Context(), reference, limit)
	if err != nil {
		h.logger.Error("failed to list attempts", "error", err, "reference", reference)
		writeError(w, http.StatusInternalServerError, "erreur interne")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"attempts": attempts,
		"total":    len(attempts),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}
