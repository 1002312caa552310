package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/jmercadier/raccordement-platform/internal/admin"
)

// TemplateSource loads admin-edited email templates. The admin
// TemplateStore satisfies it.
type TemplateSource interface {
	GetByKey(ctx context.Context, key string) (*admin.EmailTemplate, error)
}

// defaultTemplates back the keys the platform ships with, used until
// the back office saves its own version.
var defaultTemplates = map[string]*admin.EmailTemplate{
	admin.TemplateRequestConfirmation: {
		Key:     admin.TemplateRequestConfirmation,
		Name:    "Confirmation de demande",
		Subject: "Votre demande de raccordement {{.Reference}}",
		Body: `Bonjour {{.FirstName}} {{.LastName}},

Nous avons bien reçu votre demande de raccordement.

Référence : {{.Reference}}
Adresse des travaux : {{.Street}}, {{.PostalCode}} {{.City}}

Conservez cette référence, elle vous sera demandée pour le paiement et
le suivi de votre dossier.

L'équipe Raccordement Connect`,
		Enabled: true,
	},
	admin.TemplatePaymentReceipt: {
		Key:     admin.TemplatePaymentReceipt,
		Name:    "Reçu de paiement",
		Subject: "Paiement reçu pour la demande {{.Reference}}",
		Body: `Bonjour {{.FirstName}} {{.LastName}},

Nous confirmons la réception de votre paiement de {{.Amount}} pour la
demande {{.Reference}}.

Votre dossier passe en instruction. Vous serez informé de son avancement
par e-mail.

L'équipe Raccordement Connect`,
		Enabled: true,
	},
	admin.TemplateAdminNotification: {
		Key:     admin.TemplateAdminNotification,
		Name:    "Notification back office",
		Subject: "Nouvelle demande {{.Reference}}",
		Body: `Une nouvelle demande de raccordement vient d'être enregistrée.

Référence : {{.Reference}}
Demandeur : {{.FirstName}} {{.LastName}}
Adresse des travaux : {{.Street}}, {{.PostalCode}} {{.City}}`,
		Enabled: true,
	},
}

// Renderer resolves a template by key and executes it with strict
// missing-key semantics, so a template referencing a field the data
// does not carry fails loudly instead of sending a broken email.
type Renderer struct {
	source TemplateSource
}

// NewRenderer creates a renderer. A nil source always renders the
// built-in defaults.
func NewRenderer(source TemplateSource) *Renderer {
	return &Renderer{source: source}
}

// ErrTemplateDisabled is returned when the back office turned the
// template off. Callers skip the send.
var ErrTemplateDisabled = errors.New("notify: template disabled")

// Render resolves the template for key and executes subject and body
// against data.
func (r *Renderer) Render(ctx context.Context, key string, data any) (subject, body string, err error) {
	tpl, err := r.resolve(ctx, key)
	if err != nil {
		return "", "", err
	}
	if !tpl.Enabled {
		return "", "", ErrTemplateDisabled
	}

	subject, err = execute(key+":subject", tpl.Subject, data)
	if err != nil {
		return "", "", err
	}
	body, err = execute(key+":body", tpl.Body, data)
	if err != nil {
		return "", "", err
	}
	return subject, body, nil
}

func (r *Renderer) resolve(ctx context.Context, key string) (*admin.EmailTemplate, error) {
	if r.source != nil {
		tpl, err := r.source.GetByKey(ctx, key)
		if err == nil {
			return tpl, nil
		}
		if !errors.Is(err, admin.ErrTemplateNotFound) {
			return nil, err
		}
	}
	tpl, ok := defaultTemplates[key]
	if !ok {
		return nil, fmt.Errorf("notify: no template for key %q", key)
	}
	return tpl, nil
}

func execute(name, text string, data any) (string, error) {
	tpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("notify: parse template %s: %w", name, err)
	}
	var b strings.Builder
	if err := tpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("notify: execute template %s: %w", name, err)
	}
	return b.String(), nil
}
