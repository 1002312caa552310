package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appconfig "github.com/jmercadier/raccordement-platform/internal/config"
	"github.com/jmercadier/raccordement-platform/internal/notify"
	"github.com/jmercadier/raccordement-platform/pkg/logging"
)

func TestSetupMetricsExposesDomainMetrics(t *testing.T) {
	handler, requestMetrics, wizardMetrics, paymentMetrics := setupMetrics()
	if handler == nil || requestMetrics == nil || wizardMetrics == nil || paymentMetrics == nil {
		t.Fatal("expected non-nil handler and metric bundles")
	}

	requestMetrics.ObserveCreate("ok")
	wizardMetrics.ObserveSubmit("valid")
	paymentMetrics.ObserveAttempt("failed", "card_declined")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"raccordement_requests_create_total",
		"raccordement_wizard_submit_total",
		"raccordement_payments_attempt_total",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %s to be exported", metric)
		}
	}
}

func TestBuildEmailSenderDefaultsToStub(t *testing.T) {
	cfg := &appconfig.Config{EmailProvider: "stub"}
	sender := buildEmailSender(t.Context(), cfg, nil, logging.Default())
	if _, ok := sender.(*notify.StubEmailSender); !ok {
		t.Fatalf("expected stub sender, got %T", sender)
	}
}

func TestBuildEmailSenderSMTPNeedsDatabase(t *testing.T) {
	cfg := &appconfig.Config{EmailProvider: "smtp"}
	sender := buildEmailSender(t.Context(), cfg, nil, logging.Default())
	if _, ok := sender.(*notify.StubEmailSender); !ok {
		t.Fatalf("smtp without a database should fall back to stub, got %T", sender)
	}
}

func TestBuildEmailSenderSendGridNeedsKey(t *testing.T) {
	cfg := &appconfig.Config{EmailProvider: "sendgrid"}
	sender := buildEmailSender(t.Context(), cfg, nil, logging.Default())
	if _, ok := sender.(*notify.StubEmailSender); !ok {
		t.Fatalf("sendgrid without a key should fall back to stub, got %T", sender)
	}
}
