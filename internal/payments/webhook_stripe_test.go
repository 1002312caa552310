package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jmercadier/raccordement-platform/internal/requests"
)

type memProcessed struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newMemProcessed() *memProcessed { return &memProcessed{seen: make(map[string]bool)} }

func (m *memProcessed) AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[provider+":"+eventID], nil
}

func (m *memProcessed) MarkProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := provider + ":" + eventID
	if m.seen[key] {
		return false, nil
	}
	m.seen[key] = true
	return true, nil
}

type countingSettler struct {
	stubSettler
	calls int
}

func (s *countingSettler) UpdatePaymentStatus(ctx context.Context, reference string, status requests.PaymentStatus, intentID string) (*requests.ServiceRequest, error) {
	s.calls++
	return s.stubSettler.UpdatePaymentStatus(ctx, reference, status, intentID)
}

func signPayload(secret string, payload []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func intentEvent(eventID, eventType string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"type": %q,
		"created": %d,
		"data": {"object": {
			"id": "pi_123",
			"status": "succeeded",
			"amount": 12990,
			"currency": "eur",
			"metadata": {"reference_number": "REF-12345678"}
		}}
	}`, eventID, eventType, time.Now().Unix()))
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	h := NewStripeWebhookHandler("whsec_test", &countingSettler{}, nil, newMemProcessed(), nil, nil)
	payload := intentEvent("evt_1", "payment_intent.succeeded")

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestWebhookSettlesSucceededIntent(t *testing.T) {
	settler := &countingSettler{}
	h := NewStripeWebhookHandler("whsec_test", settler, nil, newMemProcessed(), nil, nil)
	payload := intentEvent("evt_1", "payment_intent.succeeded")

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signPayload("whsec_test", payload))
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if settler.calls != 1 {
		t.Fatalf("expected 1 settlement, got %d", settler.calls)
	}
	if settler.reference != "REF-12345678" || settler.status != requests.PaymentPaid || settler.intentID != "pi_123" {
		t.Fatalf("unexpected settlement: %+v", settler.stubSettler)
	}
}

func TestWebhookIsIdempotent(t *testing.T) {
	settler := &countingSettler{}
	h := NewStripeWebhookHandler("whsec_test", settler, nil, newMemProcessed(), nil, nil)
	payload := intentEvent("evt_dup", "payment_intent.succeeded")

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewReader(payload))
		req.Header.Set("Stripe-Signature", signPayload("whsec_test", payload))
		rec := httptest.NewRecorder()
		h.Handle(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("delivery %d: expected 200, got %d", i, rec.Code)
		}
	}
	if settler.calls != 1 {
		t.Fatalf("duplicate delivery must settle once, got %d", settler.calls)
	}
}

type capturingReceipts struct {
	references []string
	amounts    []int64
}

func (c *capturingReceipts) PaymentReceipt(ctx context.Context, req *requests.ServiceRequest, amountCents int64) error {
	c.references = append(c.references, req.Reference)
	c.amounts = append(c.amounts, amountCents)
	return nil
}

func TestWebhookSendsReceiptOnSettlement(t *testing.T) {
	settler := &countingSettler{}
	receipts := &capturingReceipts{}
	h := NewStripeWebhookHandler("whsec_test", settler, nil, newMemProcessed(), nil, nil).
		WithReceiptNotifier(receipts)
	payload := intentEvent("evt_receipt", "payment_intent.succeeded")

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewReader(payload))
		req.Header.Set("Stripe-Signature", signPayload("whsec_test", payload))
		rec := httptest.NewRecorder()
		h.Handle(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("delivery %d: expected 200, got %d", i, rec.Code)
		}
	}

	if len(receipts.references) != 1 {
		t.Fatalf("duplicate delivery must send one receipt, got %d", len(receipts.references))
	}
	if receipts.references[0] != "REF-12345678" || receipts.amounts[0] != 12990 {
		t.Fatalf("unexpected receipt: %q / %d", receipts.references[0], receipts.amounts[0])
	}
}

func TestWebhookNoReceiptOnFailure(t *testing.T) {
	settler := &countingSettler{}
	receipts := &capturingReceipts{}
	h := NewStripeWebhookHandler("whsec_test", settler, nil, newMemProcessed(), nil, nil).
		WithReceiptNotifier(receipts)
	payload := intentEvent("evt_receipt_fail", "payment_intent.payment_failed")

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signPayload("whsec_test", payload))
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(receipts.references) != 0 {
		t.Fatalf("failed intent must not send a receipt, got %d", len(receipts.references))
	}
}

func TestWebhookMarksFailedIntent(t *testing.T) {
	settler := &countingSettler{}
	h := NewStripeWebhookHandler("whsec_test", settler, nil, newMemProcessed(), nil, nil)
	payload := intentEvent("evt_2", "payment_intent.payment_failed")

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signPayload("whsec_test", payload))
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	if settler.status != requests.PaymentFailed {
		t.Fatalf("expected failed status, got %s", settler.status)
	}
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	settler := &countingSettler{}
	h := NewStripeWebhookHandler("whsec_test", settler, nil, newMemProcessed(), nil, nil)
	payload := intentEvent("evt_3", "charge.refunded")

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signPayload("whsec_test", payload))
	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	if rec.Code != http.StatusOK || settler.calls != 0 {
		t.Fatalf("unhandled event must be acknowledged without settlement: code=%d calls=%d", rec.Code, settler.calls)
	}
}
