package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmercadier/raccordement-platform/internal/admin"
	"github.com/jmercadier/raccordement-platform/internal/requests"
	"github.com/jmercadier/raccordement-platform/pkg/logging"
)

// Service sends the transactional emails of the platform: the request
// confirmation after the wizard submits and the receipt after payment.
type Service struct {
	email      EmailSender
	renderer   *Renderer
	adminEmail string
	logger     *logging.Logger
}

// NewService creates a notification service. A nil sender disables
// sending, calls then succeed without doing anything so the callers'
// best-effort paths stay simple.
func NewService(email EmailSender, renderer *Renderer, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if renderer == nil {
		renderer = NewRenderer(nil)
	}
	return &Service{email: email, renderer: renderer, logger: logger}
}

// WithAdminNotifications copies each new request to the back office
// address. An empty address disables the copy.
func (s *Service) WithAdminNotifications(email string) *Service {
	s.adminEmail = strings.TrimSpace(email)
	return s
}

// requestTemplateData is what the request-related templates may reference.
type requestTemplateData struct {
	Reference  string
	FirstName  string
	LastName   string
	Street     string
	City       string
	PostalCode string
	Amount     string
}

func dataFor(req *requests.ServiceRequest) requestTemplateData {
	return requestTemplateData{
		Reference:  requests.CanonicalReference(req.Reference),
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Street:     req.Street,
		City:       req.City,
		PostalCode: req.PostalCode,
	}
}

// RequestConfirmation emails the customer that their request was
// recorded and copies the back office when an admin address is
// configured. Satisfies requests.ConfirmationNotifier.
func (s *Service) RequestConfirmation(ctx context.Context, req *requests.ServiceRequest) error {
	err := s.send(ctx, admin.TemplateRequestConfirmation, req, dataFor(req))
	s.notifyBackOffice(ctx, req)
	return err
}

// notifyBackOffice is best effort: its failures never surface to the
// customer-facing flow.
func (s *Service) notifyBackOffice(ctx context.Context, req *requests.ServiceRequest) {
	if s.adminEmail == "" || s.email == nil {
		return
	}
	subject, body, err := s.renderer.Render(ctx, admin.TemplateAdminNotification, dataFor(req))
	if err != nil {
		if errors.Is(err, ErrTemplateDisabled) {
			s.logger.Info("template disabled, skipping send", "template", admin.TemplateAdminNotification)
			return
		}
		s.logger.Warn("admin notification render failed", "error", err, "reference", req.Reference)
		return
	}
	msg := EmailMessage{To: s.adminEmail, Subject: subject, Body: body}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Warn("admin notification send failed", "error", err, "reference", req.Reference)
	}
}

// PaymentReceipt emails the customer after their payment settled.
func (s *Service) PaymentReceipt(ctx context.Context, req *requests.ServiceRequest, amountCents int64) error {
	data := dataFor(req)
	data.Amount = FormatEuros(amountCents)
	return s.send(ctx, admin.TemplatePaymentReceipt, req, data)
}

func (s *Service) send(ctx context.Context, key string, req *requests.ServiceRequest, data requestTemplateData) error {
	if s.email == nil {
		s.logger.Debug("email sender not configured, skipping", "template", key)
		return nil
	}
	if strings.TrimSpace(req.Email) == "" {
		s.logger.Debug("request has no email address, skipping", "template", key, "reference", req.Reference)
		return nil
	}

	subject, body, err := s.renderer.Render(ctx, key, data)
	if err != nil {
		if errors.Is(err, ErrTemplateDisabled) {
			s.logger.Info("template disabled, skipping send", "template", key)
			return nil
		}
		return err
	}

	msg := EmailMessage{
		To:      req.Email,
		ToName:  strings.TrimSpace(req.FirstName + " " + req.LastName),
		Subject: subject,
		Body:    body,
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: send %s: %w", key, err)
	}
	return nil
}

// FormatEuros renders an amount in cents the French way, "129,80 €".
func FormatEuros(cents int64) string {
	return strings.Replace(fmt.Sprintf("%.2f €", float64(cents)/100), ".", ",", 1)
}

var _ requests.ConfirmationNotifier = (*Service)(nil)
