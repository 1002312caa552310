package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jmercadier/raccordement-platform/internal/requests"
)

func TestCreateIntentHandler(t *testing.T) {
	lookup := &stubLookup{req: &requests.ServiceRequest{
		Reference:     "REF-12345678",
		PaymentStatus: requests.PaymentPending,
	}}
	intents := &stubIntentCreator{intent: &Intent{ID: "pi_1", ClientSecret: "pi_1_secret_x"}}
	h := NewHandler(lookup, intents, nil, nil, nil, 12990, nil, nil)

	body, _ := json.Marshal(map[string]any{"referenceNumber": "12345678", "amount": 12990})
	req := httptest.NewRequest(http.MethodPost, "/api/payments/intent", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.CreateIntent(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp createIntentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ClientSecret != "pi_1_secret_x" {
		t.Fatalf("unexpected client secret %q", resp.ClientSecret)
	}
}

func TestCreateIntentHandlerAlreadyPaid(t *testing.T) {
	lookup := &stubLookup{req: &requests.ServiceRequest{
		Reference:     "REF-12345678",
		PaymentStatus: requests.PaymentPaid,
	}}
	intents := &stubIntentCreator{}
	h := NewHandler(lookup, intents, nil, nil, nil, 12990, nil, nil)

	body, _ := json.Marshal(map[string]any{"referenceNumber": "REF-12345678"})
	req := httptest.NewRequest(http.MethodPost, "/api/payments/intent", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.CreateIntent(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if intents.calls != 0 {
		t.Fatal("paid reference must not create an intent")
	}
}

func TestCreateIntentHandlerUnknownReference(t *testing.T) {
	lookup := &stubLookup{err: requests.ErrRequestNotFound}
	h := NewHandler(lookup, &stubIntentCreator{}, nil, nil, nil, 12990, nil, nil)

	body, _ := json.Marshal(map[string]any{"referenceNumber": "REF-00000000"})
	req := httptest.NewRequest(http.MethodPost, "/api/payments/intent", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.CreateIntent(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRecordFailedAttemptHandlerAlwaysAccepts(t *testing.T) {
	recorder := &stubRecorder{}
	h := NewHandler(nil, nil, nil, recorder, nil, 12990, nil, nil)

	body := []byte(`{
		"referenceNumber": "12345678",
		"paymentError": {
			"code": "card_declined",
			"message": "declined",
			"cardDetails": {"brand": "visa", "last4": "0002", "expMonth": 4, "expYear": 2027, "holderName": "Jean Dupont"}
		}
	}`)
	req := httptest.NewRequest(http.MethodPost, "/api/payments/failed-attempt", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.RecordFailedAttempt(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if len(recorder.attempts) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(recorder.attempts))
	}
	a := recorder.attempts[0]
	if a.Reference != "REF-12345678" || a.CardExpiry != "04/27" {
		t.Fatalf("unexpected attempt: %+v", a)
	}

	// Malformed body still acknowledged.
	req = httptest.NewRequest(http.MethodPost, "/api/payments/failed-attempt", bytes.NewReader([]byte("{")))
	rec = httptest.NewRecorder()
	h.RecordFailedAttempt(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("malformed body should still be acknowledged, got %d", rec.Code)
	}
}

func TestProcessPaymentHandlerGuard(t *testing.T) {
	lookup := &stubLookup{req: &requests.ServiceRequest{Reference: "REF-12345678", PaymentStatus: requests.PaymentPending}}
	o := NewOrchestrator(lookup, &stubIntentCreator{}, &stubConfirmer{}, nil, nil, nil, 12990, "eur", nil, nil)
	h := NewHandler(lookup, nil, o, nil, nil, 12990, nil, nil)

	body, _ := json.Marshal(map[string]any{
		"referenceNumber": "REF-12345678",
		"holderName":      "",
		"card":            map[string]bool{"numberComplete": true, "expiryComplete": true, "cvcComplete": true},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/payments/process", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ProcessPayment(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 with closed guard, got %d", rec.Code)
	}
}

type stubLister struct {
	attempts []FailedAttempt
	gotRef   string
}

func (s *stubLister) ListFailedAttempts(ctx context.Context, reference string, limit int) ([]FailedAttempt, error) {
	s.gotRef = reference
	return s.attempts, nil
}

func TestListFailedAttemptsHandler(t *testing.T) {
	lister := &stubLister{attempts: []FailedAttempt{{
		Reference: "REF-12345678", Code: "card_declined", CardLast4: "0002",
	}}}
	h := NewHandler(nil, nil, nil, nil, nil, 12990, nil, nil).WithAttemptLister(lister)

	req := httptest.NewRequest(http.MethodGet, "/admin/payments/failed-attempts?reference=12345678", nil)
	rec := httptest.NewRecorder()
	h.ListFailedAttempts(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if lister.gotRef != "REF-12345678" {
		t.Fatalf("lookup should use the canonical reference, got %q", lister.gotRef)
	}
	var resp struct {
		Attempts []FailedAttempt `json:"attempts"`
		Total    int             `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 || resp.Attempts[0].Code != "card_declined" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestListFailedAttemptsHandlerRequiresReference(t *testing.T) {
	h := NewHandler(nil, nil, nil, nil, nil, 12990, nil, nil).WithAttemptLister(&stubLister{})

	req := httptest.NewRequest(http.MethodGet, "/admin/payments/failed-attempts", nil)
	rec := httptest.NewRecorder()
	h.ListFailedAttempts(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
