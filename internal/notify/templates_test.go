package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jmercadier/raccordement-platform/internal/admin"
)

type memTemplateSource struct {
	templates map[string]*admin.EmailTemplate
	err       error
}

func (m *memTemplateSource) GetByKey(ctx context.Context, key string) (*admin.EmailTemplate, error) {
	if m.err != nil {
		return nil, m.err
	}
	tpl, ok := m.templates[key]
	if !ok {
		return nil, admin.ErrTemplateNotFound
	}
	return tpl, nil
}

func TestRenderDefaultTemplate(t *testing.T) {
	r := NewRenderer(nil)

	subject, body, err := r.Render(context.Background(), admin.TemplateRequestConfirmation, requestTemplateData{
		Reference: "REF-12345678", FirstName: "Jean", LastName: "Dupont",
		Street: "12 rue de la Paix", City: "Lyon", PostalCode: "69001",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if subject != "Votre demande de raccordement REF-12345678" {
		t.Fatalf("subject = %q", subject)
	}
	if !strings.Contains(body, "Bonjour Jean Dupont") || !strings.Contains(body, "REF-12345678") {
		t.Fatalf("body missing fields: %q", body)
	}
}

func TestRenderAdminTemplateWins(t *testing.T) {
	source := &memTemplateSource{templates: map[string]*admin.EmailTemplate{
		admin.TemplateRequestConfirmation: {
			Key:     admin.TemplateRequestConfirmation,
			Subject: "Demande {{.Reference}} reçue",
			Body:    "Merci {{.FirstName}}.",
			Enabled: true,
		},
	}}
	r := NewRenderer(source)

	subject, body, err := r.Render(context.Background(), admin.TemplateRequestConfirmation, requestTemplateData{
		Reference: "REF-12345678", FirstName: "Jean",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if subject != "Demande REF-12345678 reçue" || body != "Merci Jean." {
		t.Fatalf("admin template not used: %q / %q", subject, body)
	}
}

func TestRenderFallsBackWhenNotStored(t *testing.T) {
	r := NewRenderer(&memTemplateSource{})

	subject, _, err := r.Render(context.Background(), admin.TemplatePaymentReceipt, requestTemplateData{
		Reference: "REF-12345678", FirstName: "Jean", LastName: "Dupont", Amount: "129,80 €",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(subject, "REF-12345678") {
		t.Fatalf("subject = %q", subject)
	}
}

func TestRenderDisabledTemplate(t *testing.T) {
	source := &memTemplateSource{templates: map[string]*admin.EmailTemplate{
		"welcome": {Key: "welcome", Subject: "s", Body: "b", Enabled: false},
	}}
	r := NewRenderer(source)

	if _, _, err := r.Render(context.Background(), "welcome", nil); !errors.Is(err, ErrTemplateDisabled) {
		t.Fatalf("expected ErrTemplateDisabled, got %v", err)
	}
}

func TestRenderUnknownFieldFails(t *testing.T) {
	source := &memTemplateSource{templates: map[string]*admin.EmailTemplate{
		"broken": {Key: "broken", Subject: "{{.DoesNotExist}}", Body: "b", Enabled: true},
	}}
	r := NewRenderer(source)

	if _, _, err := r.Render(context.Background(), "broken", requestTemplateData{}); err == nil {
		t.Fatal("expected an error for a template referencing an unknown field")
	}
}

func TestRenderUnknownKeyFails(t *testing.T) {
	r := NewRenderer(nil)
	if _, _, err := r.Render(context.Background(), "nonexistent", nil); err == nil {
		t.Fatal("expected an error for an unknown template key")
	}
}

func TestFormatEuros(t *testing.T) {
	cases := map[int64]string{
		12980: "129,80 €",
		100:   "1,00 €",
		5:     "0,05 €",
	}
	for cents, want := range cases {
		if got := FormatEuros(cents); got != want {
			t.Errorf("FormatEuros(%d) = %q, want %q", cents, got, want)
		}
	}
}
