package wizard

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jmercadier/raccordement-platform/internal/observability/metrics"
	"github.com/jmercadier/raccordement-platform/internal/requests"
	"github.com/jmercadier/raccordement-platform/pkg/logging"
)

// State is the submission orchestrator's state.
type State string

const (
	StateEditing    State = "editing"
	StateReviewing  State = "reviewing"
	StateSubmitting State = "submitting"
	StateCompleted  State = "completed"
)

// SubmissionResult is the server-assigned outcome of a remote create.
type SubmissionResult struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	ReferenceNumber string `json:"referenceNumber"`
}

// RequestCreator performs the remote create call with a validated snapshot.
type RequestCreator interface {
	CreateRequest(ctx context.Context, snap *Snapshot) (*SubmissionResult, error)
}

// Session is one wizard instance: a draft, its state, and, once submitted,
// the review snapshot. Each page load owns its own session; there is no
// shared state between sessions.
type Session struct {
	ID        string    `json:"id"`
	State     State     `json:"state"`
	Draft     *Draft    `json:"draft"`
	Snapshot  *Snapshot `json:"snapshot,omitempty"`
	InFlight  bool      `json:"inFlight"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewSession creates a session in the editing state with an empty draft.
func NewSession() *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.New().String(),
		State:     StateEditing,
		Draft:     NewDraft(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ConfirmOutcome is the terminal result of a confirm action. Exactly one of
// RedirectURL or ErrorMessage is set: a failed remote create is recoverable
// and returns the session to the reviewing state.
type ConfirmOutcome struct {
	RedirectURL  string            `json:"redirectUrl,omitempty"`
	Result       *SubmissionResult `json:"result,omitempty"`
	ErrorMessage string            `json:"errorMessage,omitempty"`
}

const genericSubmitError = "Une erreur est survenue lors de l'envoi de votre demande. Veuillez réessayer."

// Machine drives a session through the Editing → Reviewing → Submitting flow.
type Machine struct {
	session *Session
	creator RequestCreator
	delay   time.Duration
	metrics *metrics.WizardMetrics
	logger  *logging.Logger
}

// NewMachine wraps a session. delay is the intentional perceived-progress
// pause shown before the remote create; tests pass zero.
func NewMachine(session *Session, creator RequestCreator, delay time.Duration, m *metrics.WizardMetrics, logger *logging.Logger) *Machine {
	if logger == nil {
		logger = logging.Default()
	}
	return &Machine{
		session: session,
		creator: creator,
		delay:   delay,
		metrics: m,
		logger:  logger,
	}
}

// Session returns the underlying session.
func (m *Machine) Session() *Session {
	return m.session
}

// Submit validates the whole draft. On success the session moves to the
// reviewing state and captures a snapshot; on failure it stays editing and
// the per-field errors are returned.
func (m *Machine) Submit() (FieldErrors, error) {
	if m.session.State != StateEditing {
		return nil, ErrInvalidTransition
	}
	snap, errs := ValidateAll(m.session.Draft)
	if len(errs) > 0 {
		m.metrics.ObserveSubmit("invalid")
		return errs, nil
	}
	m.session.Snapshot = snap
	m.session.State = StateReviewing
	m.session.UpdatedAt = time.Now().UTC()
	m.metrics.ObserveSubmit("validated")
	return nil, nil
}

// Edit discards the snapshot and returns to the live draft unchanged.
func (m *Machine) Edit() error {
	if m.session.State != StateReviewing {
		return ErrInvalidTransition
	}
	m.session.Snapshot = nil
	m.session.State = StateEditing
	m.session.UpdatedAt = time.Now().UTC()
	return nil
}

// Confirm performs the remote create with the snapshot. On success the
// session completes and the redirect URL to the payment step is returned; on
// failure the session returns to reviewing with a user-facing message. At
// most one confirm may be in flight per session.
func (m *Machine) Confirm(ctx context.Context) (*ConfirmOutcome, error) {
	if m.session.State != StateReviewing {
		return nil, ErrInvalidTransition
	}
	if m.session.InFlight {
		return nil, ErrSubmissionInFlight
	}
	snap := m.session.Snapshot
	if snap == nil {
		return nil, ErrInvalidTransition
	}

	m.session.InFlight = true
	m.session.State = StateSubmitting
	m.session.UpdatedAt = time.Now().UTC()

	// Intentional short transitional pause before the remote call.
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			m.session.InFlight = false
			m.session.State = StateReviewing
			return nil, ctx.Err()
		}
	}

	result, err := m.creator.CreateRequest(ctx, snap)
	m.session.InFlight = false
	m.session.UpdatedAt = time.Now().UTC()

	if err != nil || result == nil || !result.Success {
		m.session.State = StateReviewing
		message := genericSubmitError
		if result != nil && result.Message != "" {
			message = result.Message
		}
		if err != nil {
			m.logger.Error("service request creation failed", "error", err)
		}
		m.metrics.ObserveConfirm("failed")
		return &ConfirmOutcome{ErrorMessage: message}, nil
	}

	m.session.State = StateCompleted
	m.metrics.ObserveConfirm("redirected")

	return &ConfirmOutcome{
		RedirectURL: ConfirmationURL(result.ReferenceNumber, snap.FullName()),
		Result:      result,
	}, nil
}

// ConfirmationURL builds the post-submit redirect target. The reference is
// prefixed canonically (never double-prefixed) and the applicant name is
// carried for the confirmation page greeting. The name is encoded for the
// query component, with spaces kept as %20 rather than +.
func ConfirmationURL(reference, name string) string {
	target := "/confirmation/" + requests.CanonicalReference(reference)
	if name != "" {
		q := url.Values{"nom": {name}}
		target += "?" + strings.ReplaceAll(q.Encode(), "+", "%20")
	}
	return target
}
